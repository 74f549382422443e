package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SignalPulse/internal/domain/models"
)

type fakeTransport struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (f *fakeTransport) Send(_ context.Context, _ *models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= len(f.errs) {
		return f.errs[f.calls-1]
	}
	return nil
}

func (f *fakeTransport) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testAlert() *models.Alert {
	return &models.Alert{
		Symbol:     "BTCUSDT",
		Side:       models.Long,
		EntryPrice: 97,
		TakeProfit: 97.388,
		StopLoss:   96.612,
		Timestamp:  time.Now(),
	}
}

func waitEvent(t *testing.T, d *Dispatcher) models.DeliveryEvent {
	t.Helper()
	select {
	case ev := <-d.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery event")
		return models.DeliveryEvent{}
	}
}

func fastOpts(retryMax int) []Option {
	return []Option{
		WithRetry(retryMax, time.Millisecond, 5*time.Millisecond),
		WithRate(10000, 100),
		WithSendTimeout(time.Second),
	}
}

func TestDeliverySucceedsFirstAttempt(t *testing.T) {
	tr := &fakeTransport{}
	d := NewDispatcher(tr, nil, nil, fastOpts(3)...)
	d.Start(context.Background())
	defer d.Stop()

	if !d.Enqueue(testAlert()) {
		t.Fatal("enqueue should succeed")
	}
	ev := waitEvent(t, d)
	if ev.Outcome != models.OutcomeDelivered {
		t.Fatalf("expected delivered, got %s", ev.Outcome)
	}
	if ev.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", ev.Attempts)
	}
}

func TestPermanentFailureNotRetried(t *testing.T) {
	tr := &fakeTransport{errs: []error{
		&TransportError{Class: Permanent, Err: errors.New("unauthorized")},
	}}
	d := NewDispatcher(tr, nil, nil, fastOpts(5)...)
	d.Start(context.Background())
	defer d.Stop()

	d.Enqueue(testAlert())
	ev := waitEvent(t, d)
	if ev.Outcome != models.OutcomePermanent {
		t.Fatalf("expected permanent_failure, got %s", ev.Outcome)
	}
	if ev.Attempts != 1 || tr.sendCount() != 1 {
		t.Fatalf("expected exactly 1 attempt, got event=%d sends=%d", ev.Attempts, tr.sendCount())
	}
}

func TestTransientFailureRetriedUntilExhausted(t *testing.T) {
	boom := &TransportError{Class: Transient, Err: errors.New("503")}
	tr := &fakeTransport{errs: []error{boom, boom, boom, boom, boom, boom, boom, boom}}
	d := NewDispatcher(tr, nil, nil, fastOpts(2)...)
	d.Start(context.Background())
	defer d.Stop()

	d.Enqueue(testAlert())
	ev := waitEvent(t, d)
	if ev.Outcome != models.OutcomeExhausted {
		t.Fatalf("expected retries_exhausted, got %s", ev.Outcome)
	}
	if ev.Attempts != 3 {
		t.Fatalf("expected 3 attempts (1 initial + 2 retries), got %d", ev.Attempts)
	}
	if ev.Err == "" {
		t.Fatal("exhausted event should carry the last error")
	}
}

func TestTransientFailureEventuallyDelivered(t *testing.T) {
	boom := &TransportError{Class: Transient, Err: errors.New("timeout")}
	tr := &fakeTransport{errs: []error{boom, boom}}
	d := NewDispatcher(tr, nil, nil, fastOpts(5)...)
	d.Start(context.Background())
	defer d.Stop()

	d.Enqueue(testAlert())
	ev := waitEvent(t, d)
	if ev.Outcome != models.OutcomeDelivered {
		t.Fatalf("expected delivered, got %s", ev.Outcome)
	}
	if ev.Attempts != 3 {
		t.Fatalf("expected success on attempt 3, got %d", ev.Attempts)
	}
}

func TestUnclassifiedErrorTreatedAsTransient(t *testing.T) {
	tr := &fakeTransport{errs: []error{errors.New("connection reset")}}
	d := NewDispatcher(tr, nil, nil, fastOpts(3)...)
	d.Start(context.Background())
	defer d.Stop()

	d.Enqueue(testAlert())
	ev := waitEvent(t, d)
	if ev.Outcome != models.OutcomeDelivered {
		t.Fatalf("expected delivered after retry, got %s", ev.Outcome)
	}
	if ev.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", ev.Attempts)
	}
}

func TestFullQueueDropsWithoutBlocking(t *testing.T) {
	tr := &fakeTransport{}
	d := NewDispatcher(tr, nil, nil, append(fastOpts(1), WithQueueSize(1))...) // not started
	if !d.Enqueue(testAlert()) {
		t.Fatal("first enqueue should fit")
	}
	done := make(chan bool, 1)
	go func() { done <- d.Enqueue(testAlert()) }()
	select {
	case ok := <-done:
		if ok {
			t.Fatal("second enqueue should be dropped")
		}
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on full queue")
	}
	ev := waitEvent(t, d)
	if ev.Outcome != models.OutcomeDropped {
		t.Fatalf("expected queue_full event, got %s", ev.Outcome)
	}
}

func TestRateLimitedRetryHonorsRetryAfter(t *testing.T) {
	limited := &TransportError{Class: RateLimited, RetryAfter: 100 * time.Millisecond, Err: errors.New("429")}
	tr := &fakeTransport{errs: []error{limited}}
	d := NewDispatcher(tr, nil, nil, fastOpts(3)...)
	d.Start(context.Background())
	defer d.Stop()

	start := time.Now()
	d.Enqueue(testAlert())
	ev := waitEvent(t, d)
	if ev.Outcome != models.OutcomeDelivered {
		t.Fatalf("expected delivered, got %s", ev.Outcome)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Fatalf("retry fired before Retry-After floor, elapsed %v", elapsed)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	d := NewDispatcher(&fakeTransport{}, nil, nil, fastOpts(1)...)
	d.Start(context.Background())
	d.Stop()
	d.Stop()
}
