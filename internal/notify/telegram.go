package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/joelkehle/business-scout/internal/scout"
)

// TelegramSender is the subset of *bot.Bot used for delivery.
type TelegramSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Telegram sends MarkdownV2 messages to a single chat.
type Telegram struct {
	sender TelegramSender
	chatID int64
	topN   int
	logger *zap.Logger
}

// NewTelegram builds a bot client without calling getMe, so construction never
// touches the network.
func NewTelegram(token string, chatID int64, logger *zap.Logger, opts ...bot.Option) (*Telegram, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is required")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id is required")
	}
	b, err := bot.New(token, append([]bot.Option{bot.WithSkipGetMe()}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return newTelegram(b, chatID, logger), nil
}

func newTelegram(sender TelegramSender, chatID int64, logger *zap.Logger) *Telegram {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Telegram{sender: sender, chatID: chatID, topN: 3, logger: logger.With(zap.String("notifier", "telegram"))}
}

func (t *Telegram) RunStarted(ctx context.Context) {
	t.send(ctx, "🚀 "+bold("AI Business Scout pipeline started"))
}

func (t *Telegram) Phase(ctx context.Context, state scout.State, detail string) {
	text := bold(phaseTitle(state))
	if detail != "" {
		text += "\n" + escapeMarkdown(detail)
	}
	t.send(ctx, text)
}

func (t *Telegram) Report(ctx context.Context, a scout.ReportArtifact) {
	t.send(ctx, buildTelegramReport(a, t.topN))
}

func (t *Telegram) Error(ctx context.Context, err error) {
	if err == nil {
		return
	}
	t.send(ctx, "❌ "+bold("AI Business Scout error")+"\n"+escapeMarkdown(err.Error()))
}

func buildTelegramReport(a scout.ReportArtifact, topN int) string {
	var b strings.Builder
	b.WriteString("📝 " + bold("AI Business Scout run complete") + "\n")
	b.WriteString(escapeMarkdown(headline(a)) + "\n")
	for _, idea := range topIdeas(a, topN) {
		b.WriteString("\n" + bold(fmt.Sprintf("#%d %s", idea.Rank, idea.Title)) + "\n")
		b.WriteString(escapeMarkdown(fmt.Sprintf("Viability %.1f/10 | Engagement %.1f/10 | %s",
			idea.ViabilityScore, idea.EngagementScore, idea.Verdict)) + "\n")
	}
	if len(a.TopRecommendations) > 0 {
		b.WriteString("\n" + bold("Top Recommendations") + "\n")
		for _, rec := range a.TopRecommendations {
			b.WriteString("• " + escapeMarkdown(rec) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// MarkdownV2 reserves these characters everywhere outside entities.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`, "=", `\=`,
	"|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func bold(s string) string {
	return "*" + escapeMarkdown(s) + "*"
}

func (t *Telegram) send(ctx context.Context, text string) bool {
	_, err := t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    t.chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		t.logger.Warn("telegram_send_failed", zap.Int64("chat_id", t.chatID), zap.Error(err))
		return false
	}
	return true
}
