package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"SignalPulse/pkg/logger"
)

// The health endpoint polls IsConnected from its own goroutine while the
// collector connects and closes; the flag must hold up under the race
// detector.
func TestSyntheticConnectionFlagConcurrentReads(t *testing.T) {
	s := NewSynthetic([]string{"BTCUSDT"}, time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = s.IsConnected()
			}
		}()
	}

	for i := 0; i < 50; i++ {
		if err := s.Connect(context.Background()); err != nil {
			t.Fatalf("connect: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	wg.Wait()

	if s.IsConnected() {
		t.Fatal("expected disconnected after close")
	}
}

func TestBinanceConnectionFlagConcurrentReads(t *testing.T) {
	b := NewBinance("wss://localhost:0/ws", []string{"BTCUSDT"}, time.Second, time.Second, logger.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = b.IsConnected()
			}
		}()
	}
	for i := 0; i < 50; i++ {
		_ = b.Close()
	}
	wg.Wait()

	if b.IsConnected() {
		t.Fatal("never connected, flag must be false")
	}
}
