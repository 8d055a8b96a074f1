package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_AllowPerKey(t *testing.T) {
	limiter := NewLimiter(0.001, 1)

	if !limiter.Allow("10.0.0.1") {
		t.Fatal("expected first request to be allowed")
	}
	if limiter.Allow("10.0.0.1") {
		t.Error("expected second request to be limited")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Error("expected other key to have its own bucket")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("k") {
			t.Fatalf("expected unlimited limiter to allow request %d", i)
		}
	}
}

func TestLimiter_WaitCanceled(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	limiter.Allow("openai")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "openai"); err == nil {
		t.Error("expected wait to fail when the context expires first")
	}
}

func TestLimiter_SetRate(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	limiter.SetRate("trusted", 1000, 10)

	for i := 0; i < 10; i++ {
		if !limiter.Allow("trusted") {
			t.Fatalf("expected custom burst to allow request %d", i)
		}
	}
}

func TestLimiter_Prune(t *testing.T) {
	limiter := NewLimiter(10, 1)
	limiter.Allow("a")
	limiter.Allow("b")

	if removed := limiter.Prune(time.Hour); removed != 0 {
		t.Errorf("expected nothing pruned, got %d", removed)
	}

	time.Sleep(5 * time.Millisecond)
	if removed := limiter.Prune(time.Millisecond); removed != 2 {
		t.Errorf("expected 2 pruned, got %d", removed)
	}
	if limiter.Len() != 0 {
		t.Errorf("expected empty limiter, got %d", limiter.Len())
	}
}
