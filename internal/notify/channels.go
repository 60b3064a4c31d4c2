package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/go-resty/resty/v2"
)

// SlackChannel posts to a Slack incoming webhook.
type SlackChannel struct {
	cfg    config.SlackNotifyConfig
	client *resty.Client
}

func NewSlack(cfg config.SlackNotifyConfig) *SlackChannel {
	return &SlackChannel{cfg: cfg, client: newHTTPClient()}
}

func (s *SlackChannel) Name() string       { return "slack" }
func (s *SlackChannel) IsConfigured() bool { return s.cfg.WebhookURL != "" }

func (s *SlackChannel) Send(ctx context.Context, evt Event) error {
	attachment := map[string]any{
		"color":  confidenceColor(evt.Confidence),
		"title":  evt.Title,
		"text":   evt.Body,
		"footer": "cgconsole",
		"ts":     time.Now().Unix(),
	}
	if evt.Location != "" {
		attachment["fields"] = []map[string]any{
			{"title": "Project", "value": evt.Project, "short": true},
			{"title": "Location", "value": evt.Location, "short": true},
		}
	}
	b, err := json.Marshal(map[string]any{
		"text":        evt.Title,
		"attachments": []map[string]any{attachment},
	})
	if err != nil {
		return err
	}
	return postJSON(ctx, s.client, "slack webhook", s.cfg.WebhookURL, b, nil)
}

// WebhookChannel posts events to a generic endpoint, signed with
// HMAC-SHA256 when a secret is configured.
type WebhookChannel struct {
	cfg    config.WebhookNotifyConfig
	client *resty.Client
}

func NewWebhook(cfg config.WebhookNotifyConfig) *WebhookChannel {
	return &WebhookChannel{cfg: cfg, client: newHTTPClient()}
}

func (w *WebhookChannel) Name() string       { return "webhook" }
func (w *WebhookChannel) IsConfigured() bool { return w.cfg.URL != "" }

func (w *WebhookChannel) Send(ctx context.Context, evt Event) error {
	b, err := json.Marshal(map[string]any{
		"type":       evt.Type,
		"title":      evt.Title,
		"body":       evt.Body,
		"bug_id":     evt.BugID,
		"project":    evt.Project,
		"location":   evt.Location,
		"confidence": evt.Confidence,
		"ts":         time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	var headers map[string]string
	if w.cfg.Secret != "" {
		headers = map[string]string{"X-Cgconsole-Signature": "sha256=" + Sign(w.cfg.Secret, b)}
	}
	return postJSON(ctx, w.client, "webhook", w.cfg.URL, b, headers)
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

const telegramAPI = "https://api.telegram.org"

// TelegramChannel sends messages through the Telegram Bot API.
type TelegramChannel struct {
	cfg     config.TelegramNotifyConfig
	client  *resty.Client
	apiBase string
}

func NewTelegram(cfg config.TelegramNotifyConfig) *TelegramChannel {
	return &TelegramChannel{cfg: cfg, client: newHTTPClient(), apiBase: telegramAPI}
}

func (t *TelegramChannel) Name() string       { return "telegram" }
func (t *TelegramChannel) IsConfigured() bool { return t.cfg.BotToken != "" && t.cfg.ChatID != "" }

func (t *TelegramChannel) Send(ctx context.Context, evt Event) error {
	text := evt.Title + "\n\n" + evt.Body
	// Telegram caps messages at 4096 characters.
	if len(text) > 4096 {
		text = text[:4093] + "..."
	}
	b, err := json.Marshal(map[string]any{
		"chat_id": t.cfg.ChatID,
		"text":    text,
	})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.cfg.BotToken)
	return postJSON(ctx, t.client, "telegram API", url, b, nil)
}
