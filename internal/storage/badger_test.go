// Package storage provides the storage engine for Blobnom.
package storage

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"
)

func newTestBadger(t *testing.T, dir string) *BadgerBackend {
	t.Helper()
	b, err := NewBadgerBackend(dir, DefaultBadgerConfig(), nil)
	if err != nil {
		t.Fatalf("NewBadgerBackend: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBadgerBackend_ImplementsBackend(t *testing.T) {
	var _ Backend = (*BadgerBackend)(nil)
}

func TestBadgerBackend_RequiresDir(t *testing.T) {
	if _, err := NewBadgerBackend("", DefaultBadgerConfig(), nil); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}

func TestBadgerBackend_SetGet(t *testing.T) {
	b := newTestBadger(t, t.TempDir())
	ctx := context.Background()

	value := []byte("hello\r\nworld\x00\xff")
	if err := b.Set(ctx, "blob", value); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := b.Get(ctx, "blob")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, value) {
		t.Fatalf("Get = %v, want %v", got, value)
	}
}

func TestBadgerBackend_GetMissing(t *testing.T) {
	b := newTestBadger(t, t.TempDir())

	if _, err := b.Get(context.Background(), "nope"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("err = %v, want ErrKeyNotFound", err)
	}
}

func TestBadgerBackend_EmptyValue(t *testing.T) {
	b := newTestBadger(t, t.TempDir())
	ctx := context.Background()

	if err := b.Set(ctx, "empty", []byte{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := b.Get(ctx, "empty")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Get = %v, want empty", got)
	}

	exists, err := b.Exists(ctx, "empty")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatalf("empty value reported as missing")
	}
}

func TestBadgerBackend_Del(t *testing.T) {
	b := newTestBadger(t, t.TempDir())
	ctx := context.Background()

	if err := b.Set(ctx, "gone", []byte("x")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	existed, err := b.Del(ctx, "gone")
	if err != nil {
		t.Fatalf("Del: %v", err)
	}
	if !existed {
		t.Fatalf("Del existed = false, want true")
	}
	if _, err := b.Get(ctx, "gone"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get after Del = %v, want ErrKeyNotFound", err)
	}

	existed, err = b.Del(ctx, "gone")
	if err != nil {
		t.Fatalf("Del missing: %v", err)
	}
	if existed {
		t.Fatalf("Del existed = true for missing key")
	}
}

func TestBadgerBackend_Exists(t *testing.T) {
	b := newTestBadger(t, t.TempDir())
	ctx := context.Background()

	if err := b.Set(ctx, "here", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	exists, err := b.Exists(ctx, "here")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatalf("Exists = false, want true")
	}

	exists, err = b.Exists(ctx, "missing")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatalf("Exists = true for missing key")
	}
}

func TestBadgerBackend_KeysAndLen(t *testing.T) {
	b := newTestBadger(t, t.TempDir())
	ctx := context.Background()

	want := []string{"a", "b", "c"}
	for _, k := range want {
		if err := b.Set(ctx, k, []byte(k)); err != nil {
			t.Fatalf("Set %q: %v", k, err)
		}
	}

	keys, err := b.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != len(want) {
		t.Fatalf("Keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Keys = %v, want %v", keys, want)
		}
	}

	n, err := b.Len(ctx)
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 3 {
		t.Fatalf("Len = %d, want 3", n)
	}
}

func TestBadgerBackend_StatsAccounting(t *testing.T) {
	b := newTestBadger(t, t.TempDir())
	ctx := context.Background()

	if err := b.Set(ctx, "a", []byte("123")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := b.Set(ctx, "b", []byte("12345")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	stats := b.Stats()
	if stats.Keys != 2 || stats.StoredBytes != 8 {
		t.Fatalf("Stats = %+v, want 2 keys / 8 bytes", stats)
	}

	// Overwrite adjusts by the delta, not the full size.
	if err := b.Set(ctx, "a", []byte("1234567")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	stats = b.Stats()
	if stats.Keys != 2 || stats.StoredBytes != 12 {
		t.Fatalf("Stats after overwrite = %+v, want 2 keys / 12 bytes", stats)
	}

	if _, err := b.Del(ctx, "b"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	stats = b.Stats()
	if stats.Keys != 1 || stats.StoredBytes != 7 {
		t.Fatalf("Stats after delete = %+v, want 1 key / 7 bytes", stats)
	}
}

func TestBadgerBackend_ValueIsolation(t *testing.T) {
	b := newTestBadger(t, t.TempDir())
	ctx := context.Background()

	if err := b.Set(ctx, "k", []byte("stable")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := b.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got[0] = 'X'

	again, err := b.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(again, []byte("stable")) {
		t.Fatalf("stored value mutated through returned slice: %q", again)
	}
}

func TestBadgerBackend_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b1, err := NewBadgerBackend(dir, DefaultBadgerConfig(), nil)
	if err != nil {
		t.Fatalf("NewBadgerBackend: %v", err)
	}
	if err := b1.Set(ctx, "durable", []byte("survives")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := b1.Set(ctx, "other", []byte("too")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := b1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b2 := newTestBadger(t, dir)
	got, err := b2.Get(ctx, "durable")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if !bytes.Equal(got, []byte("survives")) {
		t.Fatalf("Get = %q, want %q", got, "survives")
	}

	// Counters are reseeded from disk on open.
	stats := b2.Stats()
	if stats.Keys != 2 || stats.StoredBytes != int64(len("survives")+len("too")) {
		t.Fatalf("Stats after reopen = %+v", stats)
	}
}

func TestBadgerBackend_Closed(t *testing.T) {
	b := newTestBadger(t, t.TempDir())
	ctx := context.Background()

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, err := b.Get(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Get err = %v, want ErrClosed", err)
	}
	if err := b.Set(ctx, "k", nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("Set err = %v, want ErrClosed", err)
	}
	if _, err := b.Del(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Del err = %v, want ErrClosed", err)
	}
	if _, err := b.Exists(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Exists err = %v, want ErrClosed", err)
	}
	if _, err := b.Keys(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("Keys err = %v, want ErrClosed", err)
	}
	if _, err := b.Len(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("Len err = %v, want ErrClosed", err)
	}
}
