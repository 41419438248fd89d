package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"RigorScore/internal/config"
	"RigorScore/internal/domain"
	"RigorScore/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier posts readiness flips to a Telegram chat through the Bot API.
type Notifier struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

func NewNotifier(cfg config.TelegramConfig) *Notifier {
	return &Notifier{
		apiBase:  defaultAPIBase,
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Configured reports whether both token and chat are set.
func (n *Notifier) Configured() bool {
	return n.botToken != "" && n.chatID != ""
}

type sendMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NotifyReadiness sends one message per flip.
func (n *Notifier) NotifyReadiness(ctx context.Context, change domain.ReadinessChange) error {
	if !n.Configured() {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	body, err := json.Marshal(sendMessage{
		ChatID:                n.chatID,
		Text:                  Message(change),
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("telegram %s: decode response: %w", resp.Status, err)
	}
	if !out.OK {
		return fmt.Errorf("telegram %s: %s", resp.Status, out.Description)
	}
	return nil
}

// Message renders a flip as Telegram HTML. User-supplied names are escaped.
func Message(change domain.ReadinessChange) string {
	var b strings.Builder
	state := "⚠️ <b>NOT READY</b>"
	if change.Ready {
		state = "✅ <b>READY</b>"
	}
	fmt.Fprintf(&b, "%s: <b>%s</b>\n", state, html.EscapeString(change.AnalysisName))
	fmt.Fprintf(&b, "Pack <code>%s</code>, %d/%d criteria (%.2f%%)\n",
		html.EscapeString(change.PackID), change.Passed, change.Total, change.Score)
	for _, m := range change.Missing {
		fmt.Fprintf(&b, "• missing: %s\n", html.EscapeString(m))
	}
	if !change.At.IsZero() {
		fmt.Fprintf(&b, "<i>%s</i>", change.At.UTC().Format("2006-01-02 15:04 MST"))
	}
	return strings.TrimRight(b.String(), "\n")
}
