package ristretto_test

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/PlanForge/internal/adapter/ristretto"
)

func newCache(t *testing.T, ttl time.Duration) *ristretto.Cache {
	t.Helper()
	c, err := ristretto.New(1<<20, ttl)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestSetGetDelete(t *testing.T) {
	c := newCache(t, 0)
	ctx := context.Background()

	if _, ok, _ := c.Get(ctx, "prompt:chat"); ok {
		t.Fatal("expected miss on empty cache")
	}

	if err := c.Set(ctx, "prompt:chat", []byte("You are a planning assistant."), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := c.Get(ctx, "prompt:chat")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(got) != "You are a planning assistant." {
		t.Errorf("unexpected value %q", got)
	}

	if err := c.Delete(ctx, "prompt:chat"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "prompt:chat"); ok {
		t.Error("expected miss after delete")
	}
}

func TestDefaultTTLExpires(t *testing.T) {
	c := newCache(t, 50*time.Millisecond)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	time.Sleep(1500 * time.Millisecond)

	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("expected entry to expire with the default TTL")
	}
}

func TestNewRejectsNonPositiveSize(t *testing.T) {
	if _, err := ristretto.New(0, time.Minute); err == nil {
		t.Fatal("expected error for zero size")
	}
}
