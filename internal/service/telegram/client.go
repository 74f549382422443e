package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"SignalPulse/internal/dispatch"
	"SignalPulse/internal/domain/models"
	xhttp "SignalPulse/pkg/http"
	"SignalPulse/pkg/logger"
)

const defaultBaseURL = "https://api.telegram.org"

// Option configures Client.
type Option func(*Client)

// Client delivers alerts to a Telegram chat via the Bot API. Send errors
// carry a dispatch failure class so the dispatcher knows whether to retry.
type Client struct {
	http    *xhttp.Client
	baseURL string
	token   string
	chatID  string
	log     *logger.Logger
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func NewClient(token, chatID string, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		baseURL: defaultBaseURL,
		token:   token,
		chatID:  chatID,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithBaseURL overrides the Bot API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *xhttp.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// Send performs one delivery attempt for an alert.
func (c *Client) Send(ctx context.Context, alert *models.Alert) error {
	req := &xhttp.RequestOptions{
		Method: http.MethodPost,
		URL:    fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token),
		Body: sendMessageRequest{
			ChatID:    c.chatID,
			Text:      FormatAlert(alert),
			ParseMode: "HTML",
		},
	}

	resp, err := c.http.SendRequest(ctx, req)
	if err != nil {
		return &dispatch.TransportError{Class: dispatch.Transient, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	err = fmt.Errorf("telegram: status %d: %s", resp.StatusCode, body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &dispatch.TransportError{
			Class:      dispatch.RateLimited,
			RetryAfter: retryAfter(resp),
			Err:        err,
		}
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusBadRequest:
		return &dispatch.TransportError{Class: dispatch.Permanent, Err: err}
	default:
		return &dispatch.TransportError{Class: dispatch.Transient, Err: err}
	}
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

// FormatAlert renders the alert message sent to the chat.
func FormatAlert(a *models.Alert) string {
	arrow := "🟢"
	if a.Side == models.Short {
		arrow = "🔴"
	}
	return fmt.Sprintf(
		"%s <b>%s %s</b>\nEntry: <code>%s</code>\nTake profit: <code>%s</code>\nStop loss: <code>%s</code>\n%s",
		arrow,
		a.Side,
		a.Symbol,
		formatPrice(a.EntryPrice),
		formatPrice(a.TakeProfit),
		formatPrice(a.StopLoss),
		a.Timestamp.UTC().Format(time.RFC3339),
	)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
