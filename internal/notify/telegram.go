package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nwalker85/appsentry/internal/infrastructure/config"
)

// defaultTimeout bounds a single delivery attempt so a slow or unreachable
// API can never stall the supervision loop.
const defaultTimeout = 10 * time.Second

// maxErrorBodyBytes limits how much of an API error response is read back
// for the error message.
const maxErrorBodyBytes = 2048

// Telegram delivers messages to a single chat through the Bot API's
// sendMessage method.
//
// Requests are form-encoded POSTs with parse_mode=HTML, so message text may
// carry the HTML subset Telegram supports (<b>, <i>, <code>) and uses the
// &#10; entity for line breaks.
type Telegram struct {
	endpoint string
	chatID   string
	client   *http.Client
}

// NewTelegram creates a notifier from the Telegram section of the
// configuration. Both the bot token and chat ID must be set.
func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, ErrMissingCredentials
	}

	base := strings.TrimSuffix(cfg.APIBaseURL, "/")
	if base == "" {
		base = "https://api.telegram.org"
	}

	return &Telegram{
		endpoint: fmt.Sprintf("%s/bot%s/sendMessage", base, cfg.BotToken),
		chatID:   cfg.ChatID,
		client:   &http.Client{Timeout: defaultTimeout},
	}, nil
}

// SendMessage posts a single HTML-formatted message to the configured chat.
//
// A non-2xx response is an error wrapping ErrRejected with the status code
// and as much of the response body as fits.
func (t *Telegram) SendMessage(ctx context.Context, text string) error {
	form := url.Values{
		"chat_id":    {t.chatID},
		"text":       {text},
		"parse_mode": {"HTML"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivering telegram message: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Response body close errors are not actionable

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode,
			strings.TrimSpace(string(body)))
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
