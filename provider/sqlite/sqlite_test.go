package sqlite

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, path string) *Provider {
	t.Helper()
	p, err := New(context.Background(), Config{Path: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t, ":memory:")

	if _, ok, err := p.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	if ok, err := p.Set(ctx, "k", []byte("v1"), 1, 0); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	// overwrite
	if ok, err := p.Set(ctx, "k", []byte("v2"), 1, time.Hour); err != nil || !ok {
		t.Fatalf("Set overwrite: ok=%v err=%v", ok, err)
	}
	got, ok, err := p.Get(ctx, "k")
	if err != nil || !ok || !bytes.Equal(got, []byte("v2")) {
		t.Fatalf("Get: got=%q ok=%v err=%v", got, ok, err)
	}
	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after Del")
	}
	// deleting a missing key is not an error
	if err := p.Del(ctx, "missing"); err != nil {
		t.Fatalf("Del missing: %v", err)
	}
}

func TestExpiredEntriesMissAndSweep(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t, ":memory:")

	if _, err := p.Set(ctx, "short", []byte("x"), 1, time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := p.Set(ctx, "short2", []byte("x"), 1, time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := p.Set(ctx, "forever", []byte("y"), 1, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, ok, _ := p.Get(ctx, "short"); ok {
		t.Fatalf("expired entry should miss")
	}
	n, err := p.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("Sweep removed %d rows, want 1", n)
	}
	if _, ok, _ := p.Get(ctx, "forever"); !ok {
		t.Fatalf("non-expiring entry should survive sweep")
	}
}

func TestEntriesSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "responses.sqlite3")

	p1, err := New(ctx, Config{Path: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p1.Set(ctx, "k", []byte("persisted"), 1, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := p1.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	p2 := newTestProvider(t, path)
	got, ok, err := p2.Get(ctx, "k")
	if err != nil || !ok || string(got) != "persisted" {
		t.Fatalf("after reopen: got=%q ok=%v err=%v", got, ok, err)
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
