package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joelkehle/business-scout/internal/scout"
)

const (
	slackTimeout   = 10 * time.Second
	colorGood      = "#36a64f"
	colorHighlight = "#2eb886"
	colorWarn      = "#ff9900"
	colorError     = "#cc0000"
)

type slackMessage struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color    string       `json:"color,omitempty"`
	Title    string       `json:"title,omitempty"`
	Text     string       `json:"text,omitempty"`
	Fields   []slackField `json:"fields,omitempty"`
	Footer   string       `json:"footer,omitempty"`
	MrkdwnIn []string     `json:"mrkdwn_in,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

var slackPhaseIcons = map[scout.State]string{
	scout.StateScanning:   ":mag:",
	scout.StateGenerating: ":bulb:",
	scout.StateAnalyzing:  ":bar_chart:",
	scout.StateValidating: ":dart:",
	scout.StateReporting:  ":memo:",
}

type SlackConfig struct {
	WebhookURL string
	TopN       int
	HTTPClient *http.Client
	Clock      func() time.Time
}

// Slack posts to an incoming webhook.
type Slack struct {
	cfg    SlackConfig
	logger *zap.Logger
}

func NewSlack(cfg SlackConfig, logger *zap.Logger) *Slack {
	if cfg.TopN <= 0 {
		cfg.TopN = 3
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: slackTimeout}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Slack{cfg: cfg, logger: logger.With(zap.String("notifier", "slack"))}
}

func (s *Slack) RunStarted(ctx context.Context) {
	s.post(ctx, slackMessage{
		Text: ":rocket: *AI Business Scout pipeline started*",
		Attachments: []slackAttachment{{
			Color: colorGood,
			Text:  "Run started at " + s.cfg.Clock().Format("2006-01-02 15:04:05"),
		}},
	})
}

func (s *Slack) Phase(ctx context.Context, state scout.State, detail string) {
	icon, ok := slackPhaseIcons[state]
	if !ok {
		icon = ":white_circle:"
	}
	text := fmt.Sprintf("%s *%s*", icon, phaseTitle(state))
	if detail != "" {
		text += "\n" + detail
	}
	s.post(ctx, slackMessage{Text: text})
}

func (s *Slack) Report(ctx context.Context, a scout.ReportArtifact) {
	s.post(ctx, buildSlackReport(a, s.cfg.TopN))
}

func (s *Slack) Error(ctx context.Context, err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	s.post(ctx, slackMessage{
		Text:        ":x: *AI Business Scout error*\n" + msg,
		Attachments: []slackAttachment{{Color: colorError, Text: msg}},
	})
}

func buildSlackReport(a scout.ReportArtifact, topN int) slackMessage {
	msg := slackMessage{Text: ":memo: *AI Business Scout run complete*\n" + headline(a)}
	if len(a.TopRecommendations) > 0 {
		msg.Attachments = append(msg.Attachments, slackAttachment{
			Color:    colorHighlight,
			Title:    ":trophy: Top Recommendations",
			Text:     strings.Join(a.TopRecommendations, "\n"),
			MrkdwnIn: []string{"text"},
		})
	}
	for _, idea := range topIdeas(a, topN) {
		icon, color := ":warning:", colorWarn
		if idea.Verdict == scout.VerdictPromising {
			icon, color = ":white_check_mark:", colorGood
		}
		msg.Attachments = append(msg.Attachments, slackAttachment{
			Color: color,
			Title: fmt.Sprintf("%s #%d: %s", icon, idea.Rank, idea.Title),
			Fields: []slackField{
				{Title: "Value Proposition", Value: idea.ValueProposition},
				{Title: "Viability Score", Value: fmt.Sprintf("%.1f/10", idea.ViabilityScore), Short: true},
				{Title: "Engagement Score", Value: fmt.Sprintf("%.1f/10", idea.EngagementScore), Short: true},
				{Title: "CTR", Value: fmt.Sprintf("%.2f%%", idea.CTR*100), Short: true},
				{Title: "Conversions", Value: fmt.Sprintf("%d", idea.Conversions), Short: true},
			},
			Footer:   fmt.Sprintf("Confidence: %s | Revenue model: %s", strings.ToUpper(string(idea.ConfidenceLevel)), idea.RevenueModel),
			MrkdwnIn: []string{"text", "fields"},
		})
	}
	return msg
}

func (s *Slack) post(ctx context.Context, msg slackMessage) bool {
	if s.cfg.WebhookURL == "" {
		return false
	}
	body, err := json.Marshal(msg)
	if err != nil {
		s.logger.Warn("slack_payload_encode_failed", zap.Error(err))
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("slack_request_failed", zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		s.logger.Warn("slack_request_failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Warn("slack_notification_rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("body", strings.TrimSpace(string(snippet))))
		return false
	}
	return true
}
