package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SignalPulse/internal/dispatch"
	"SignalPulse/internal/domain/models"
)

func alert() *models.Alert {
	return &models.Alert{
		Symbol:     "BTCUSDT",
		Side:       models.Long,
		EntryPrice: 97,
		TakeProfit: 97.388,
		StopLoss:   96.612,
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("123:abc", "-100200300", nil, WithBaseURL(srv.URL)), srv
}

func TestSendPostsMessageToChat(t *testing.T) {
	var got sendMessageRequest
	var path string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	})

	if err := c.Send(context.Background(), alert()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/bot123:abc/sendMessage" {
		t.Fatalf("unexpected path %q", path)
	}
	if got.ChatID != "-100200300" {
		t.Fatalf("unexpected chat id %q", got.ChatID)
	}
	if !strings.Contains(got.Text, "LONG BTCUSDT") {
		t.Fatalf("message text missing side/symbol: %q", got.Text)
	}
	if !strings.Contains(got.Text, "97.388") || !strings.Contains(got.Text, "96.612") {
		t.Fatalf("message text missing risk levels: %q", got.Text)
	}
}

func TestSendClassifiesUnauthorizedAsPermanent(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := c.Send(context.Background(), alert())
	var te *dispatch.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Class != dispatch.Permanent {
		t.Fatalf("expected permanent class, got %s", te.Class)
	}
}

func TestSendClassifiesServerErrorAsTransient(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.Send(context.Background(), alert())
	var te *dispatch.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Class != dispatch.Transient {
		t.Fatalf("expected transient class, got %s", te.Class)
	}
}

func TestSendClassifiesTooManyRequestsWithRetryAfter(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := c.Send(context.Background(), alert())
	var te *dispatch.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Class != dispatch.RateLimited {
		t.Fatalf("expected rate_limited class, got %s", te.Class)
	}
	if te.RetryAfter != 7*time.Second {
		t.Fatalf("expected RetryAfter 7s, got %v", te.RetryAfter)
	}
}

func TestSendClassifiesNetworkErrorAsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient("123:abc", "-1", nil, WithBaseURL(url))
	err := c.Send(context.Background(), alert())
	var te *dispatch.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Class != dispatch.Transient {
		t.Fatalf("expected transient class, got %s", te.Class)
	}
}

func TestFormatAlertShortSide(t *testing.T) {
	a := alert()
	a.Side = models.Short
	text := FormatAlert(a)
	if !strings.Contains(text, "SHORT BTCUSDT") {
		t.Fatalf("unexpected text %q", text)
	}
}
