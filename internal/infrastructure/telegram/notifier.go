package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ContentGenerator/internal/config"
	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/ports"
)

const defaultBaseURL = "https://api.telegram.org"

// Notifier sends run summaries to a Telegram chat via bot API.
type Notifier struct {
	baseURL  string
	botToken string
	chatID   string
	quiet    bool
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier. Runs that touched
// nothing are not announced.
func NewNotifier(cfg config.TelegramConfig) *Notifier {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &Notifier{
		baseURL:  base,
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		quiet:    true,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// PublishRunSummary posts a Markdown message describing summary.
func (n *Notifier) PublishRunSummary(ctx context.Context, summary domain.RunSummary) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}
	if n.quiet && idle(summary) {
		return nil
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", FormatSummary(summary))
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

func idle(s domain.RunSummary) bool {
	enqueued := 0
	if s.Populate != nil {
		enqueued = s.Populate.Enqueued
	}
	return s.Skipped || (s.Batch.Processed == 0 && enqueued == 0 && s.Reaped == 0 && s.PopulateError == "")
}

// FormatSummary renders a run summary as a short Markdown message.
func FormatSummary(s domain.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Content run* %s (%s)\n", s.StartedAt.Format(time.RFC3339), s.Duration.Round(time.Millisecond))
	if s.Populate != nil {
		fmt.Fprintf(&b, "Populate: %d candidates, %d enqueued\n", s.Populate.Candidates, s.Populate.Enqueued)
	}
	if s.PopulateError != "" {
		fmt.Fprintf(&b, "Populate failed: %s\n", s.PopulateError)
	}
	if s.Reaped > 0 {
		fmt.Fprintf(&b, "Abandoned items failed: %d\n", s.Reaped)
	}
	fmt.Fprintf(&b, "Processed %d: %d published, %d failed, %d skipped",
		s.Batch.Processed, s.Batch.Success, s.Batch.Failed, s.Batch.Skipped)
	return b.String()
}
