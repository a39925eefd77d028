package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowRespectsBurst(t *testing.T) {
	l := New()
	l.Register("fred", 0.001, 2)

	if !l.Allow("fred") || !l.Allow("fred") {
		t.Fatalf("expected burst of 2 to be allowed")
	}
	if l.Allow("fred") {
		t.Fatalf("expected third call to be limited")
	}
}

func TestUnregisteredKeyIsUnlimited(t *testing.T) {
	l := New()
	for i := 0; i < 100; i++ {
		if !l.Allow("yahoo") {
			t.Fatalf("call %d limited on unregistered key", i)
		}
	}
}

func TestWaitHonoursContext(t *testing.T) {
	l := New()
	l.Register("av", 0.001, 1)
	if err := l.Wait(context.Background(), "av"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "av"); err == nil {
		t.Fatalf("expected wait to fail once the budget is spent")
	}
}
