package usage

import (
	"context"
	"errors"
	"testing"
)

func TestCanConsumeWithinLimit(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	ok, u, err := svc.CanConsume(ctx, "user-1", 1)
	if err != nil {
		t.Fatalf("CanConsume: %v", err)
	}
	if !ok {
		t.Fatal("expected fresh user to be allowed")
	}
	if u.Used != 0 || u.Limit != 20 {
		t.Fatalf("unexpected defaults: used=%d limit=%d", u.Used, u.Limit)
	}
}

func TestConsumeUntilLimit(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	var last Usage
	for i := 0; i < 20; i++ {
		u, err := svc.Consume(ctx, "user-1", 1)
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		last = u
	}
	if last.Used != 20 {
		t.Fatalf("used = %d, want 20", last.Used)
	}

	ok, _, err := svc.CanConsume(ctx, "user-1", 1)
	if err != nil {
		t.Fatalf("CanConsume: %v", err)
	}
	if ok {
		t.Fatal("expected allowance to be spent")
	}
	if _, err := svc.Consume(ctx, "user-1", 1); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("err = %v, want ErrLimitReached", err)
	}
}

func TestResetRestoresAllowance(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "user-1", 5); err != nil {
		t.Fatalf("consume: %v", err)
	}
	u, err := svc.Reset(ctx, "user-1")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if u.Used != 0 {
		t.Fatalf("used = %d after reset, want 0", u.Used)
	}
}

func TestUsersAreIndependent(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "user-1", 20); err != nil {
		t.Fatalf("consume: %v", err)
	}
	ok, _, err := svc.CanConsume(ctx, "user-2", 1)
	if err != nil {
		t.Fatalf("CanConsume: %v", err)
	}
	if !ok {
		t.Fatal("user-2 should be unaffected by user-1 consumption")
	}
}
