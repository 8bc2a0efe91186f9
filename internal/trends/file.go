package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joelkehle/business-scout/internal/scout"
)

// FileCollector replays trend records from a JSON file: either a bare array of
// records or an object with a "trends" array.
type FileCollector struct {
	path string
}

func NewFileCollector(path string) *FileCollector {
	return &FileCollector{path: path}
}

func (f *FileCollector) Collect(ctx context.Context) (scout.ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return scout.ScanResult{}, err
	}
	status := scout.SourceStatus{Name: "file:" + f.path, Source: scout.SourceSearch}
	blob, err := os.ReadFile(f.path)
	if err != nil {
		status.Error = err.Error()
		return scout.ScanResult{Sources: []scout.SourceStatus{status}}, err
	}
	records, err := DecodeRecords(blob)
	if err != nil {
		status.Error = err.Error()
		return scout.ScanResult{Sources: []scout.SourceStatus{status}}, fmt.Errorf("%s: %w", f.path, err)
	}
	status.Records = len(records)
	return scout.ScanResult{Records: records, Sources: []scout.SourceStatus{status}}, nil
}

// DecodeRecords parses trend records, keeping numbers as json.Number.
func DecodeRecords(blob []byte) ([]scout.RawTrend, error) {
	blob = bytes.TrimSpace(blob)
	if len(blob) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()
	if blob[0] == '[' {
		var records []scout.RawTrend
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode trend records: %w", err)
		}
		return records, nil
	}
	var wrapped struct {
		Trends []scout.RawTrend `json:"trends"`
	}
	if err := dec.Decode(&wrapped); err != nil {
		return nil, fmt.Errorf("decode trend records: %w", err)
	}
	return wrapped.Trends, nil
}

// Static serves a fixed record set. Useful for demos and dry runs.
type Static struct {
	Records []scout.RawTrend
}

func (s Static) Collect(ctx context.Context) (scout.ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return scout.ScanResult{}, err
	}
	return scout.ScanResult{
		Records: append([]scout.RawTrend(nil), s.Records...),
		Sources: []scout.SourceStatus{{Name: "static", Source: scout.SourceSearch, Records: len(s.Records)}},
	}, nil
}
