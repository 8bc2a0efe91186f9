package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joelkehle/business-scout/internal/render"
	"github.com/joelkehle/business-scout/internal/scout"
)

func main() {
	inputPath := flag.String("input", "", "Path to a saved scout report artifact (JSON)")
	outputPath := flag.String("output", "", "Path to write rebuilt markdown (defaults to stdout)")
	htmlPath := flag.String("html", "", "Optional path to write a standalone HTML report")
	pdfPath := flag.String("pdf", "", "Optional path to write a PDF report (requires Chromium)")
	paper := flag.String("paper", "a4", "PDF paper size: a4 or letter")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("missing required -input")
	}

	artifact, err := scout.LoadArtifact(*inputPath)
	if err != nil {
		log.Fatalf("load artifact: %v", err)
	}

	if err := writeMarkdown(*outputPath, scout.BuildMarkdown(artifact)); err != nil {
		log.Fatalf("write markdown: %v", err)
	}
	if *htmlPath == "" && *pdfPath == "" {
		return
	}

	doc, err := render.HTML(artifact)
	if err != nil {
		log.Fatalf("render html: %v", err)
	}
	if *htmlPath != "" {
		if err := os.WriteFile(*htmlPath, []byte(doc), 0o644); err != nil {
			log.Fatalf("write html: %v", err)
		}
	}
	if *pdfPath != "" {
		size, err := render.ParsePageSize(*paper)
		if err != nil {
			log.Fatal(err)
		}
		pdf, err := render.NewChromiumPDFRenderer(render.WithPageSize(size)).Render(context.Background(), doc)
		if err != nil {
			log.Fatalf("render pdf: %v", err)
		}
		if err := os.WriteFile(*pdfPath, pdf, 0o644); err != nil {
			log.Fatalf("write pdf: %v", err)
		}
	}
}

func writeMarkdown(outputPath, markdown string) error {
	if outputPath == "" {
		_, err := fmt.Print(markdown)
		return err
	}
	return os.WriteFile(outputPath, []byte(markdown), 0o644)
}
