package ratelimit

import (
	"context"
	"testing"
	"time"
)

// expiring returns a context that ends well before a throttled Wait could.
func expiring(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	t.Cleanup(cancel)
	return ctx
}

func TestUnlimited_NeverBlocks(t *testing.T) {
	l := Unlimited()
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		if err := l.Wait(ctx, APIAlphaVantage); err != nil {
			t.Fatalf("Wait() returned unexpected error: %v", err)
		}
	}
}

func TestLimiter_UnknownAPI(t *testing.T) {
	l := New()
	for i := 0; i < 10; i++ {
		if err := l.Wait(expiring(t), API("unknown")); err != nil {
			t.Fatalf("Wait() returned unexpected error: %v", err)
		}
	}
}

func TestLimiter_NilIsUnlimited(t *testing.T) {
	var l *Limiter
	for i := 0; i < 10; i++ {
		if err := l.Wait(expiring(t), APIRemote); err != nil {
			t.Fatalf("Wait() returned unexpected error: %v", err)
		}
	}
}

func TestLimiter_BurstExhausted(t *testing.T) {
	l := New()
	l.Set(APIRemote, 0.001, 1)

	if err := l.Wait(expiring(t), APIRemote); err != nil {
		t.Fatalf("first request should pass on the burst, got %v", err)
	}
	if err := l.Wait(expiring(t), APIRemote); err == nil {
		t.Error("Wait() expected error for a throttled request, got nil")
	}
}

func TestLimiter_LimitsAreIndependent(t *testing.T) {
	l := New()
	l.Set(APIAlphaVantage, 0.001, 1)
	l.Set(APIRemote, 0, 0)

	if err := l.Wait(expiring(t), APIAlphaVantage); err != nil {
		t.Fatalf("first request should pass on the burst, got %v", err)
	}
	if err := l.Wait(expiring(t), APIRemote); err != nil {
		t.Errorf("remote requests should not share the alphavantage budget, got %v", err)
	}
}

func TestLimiter_WaitRespectsCanceledContext(t *testing.T) {
	l := New()
	l.Set(APIAlphaVantage, 0.001, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Wait(ctx, APIAlphaVantage); err == nil {
		t.Error("Wait() expected error for a canceled context, got nil")
	}
}

func TestLimiter_SetNonPositiveRemovesLimit(t *testing.T) {
	l := New()
	l.Set(APIRemote, 0, 0)

	for i := 0; i < 10; i++ {
		if err := l.Wait(expiring(t), APIRemote); err != nil {
			t.Fatalf("request %d should pass without a limit, got %v", i, err)
		}
	}
}
