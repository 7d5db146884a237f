package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(t, &buf)

	ctx := WithLogger(context.Background(), l)

	got := FromContext(ctx)
	if got != l {
		t.Error("FromContext() should return the logger stored with WithLogger()")
	}
}

func TestFromContext_Default(t *testing.T) {
	// Without a stored logger, FromContext falls back to the default.
	got := FromContext(context.Background())
	if got == nil {
		t.Fatal("FromContext() returned nil")
	}
	if got != Default() {
		t.Error("FromContext() should return the default logger when none is stored")
	}
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")

	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("RequestIDFromContext() = %q, want %q", got, "req-123")
	}
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext() = %q, want empty", got)
	}
}

func TestWithConnID(t *testing.T) {
	ctx := WithConnID(context.Background(), "conn-42")

	if got := ConnIDFromContext(ctx); got != "conn-42" {
		t.Errorf("ConnIDFromContext() = %q, want %q", got, "conn-42")
	}
}

func TestConnIDFromContext_Empty(t *testing.T) {
	if got := ConnIDFromContext(context.Background()); got != "" {
		t.Errorf("ConnIDFromContext() = %q, want empty", got)
	}
}

func TestL_EnrichesWithIDs(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(t, &buf)

	ctx := WithLogger(context.Background(), l)
	ctx = WithRequestID(ctx, "req-abc")
	ctx = WithConnID(ctx, "conn-7")

	L(ctx).Info("handling")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}

	if got, _ := logEntry["request_id"].(string); got != "req-abc" {
		t.Errorf("request_id = %q, want %q", got, "req-abc")
	}
	if got, _ := logEntry["conn_id"].(string); got != "conn-7" {
		t.Errorf("conn_id = %q, want %q", got, "conn-7")
	}
}

func TestL_NoIDs(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(t, &buf)

	ctx := WithLogger(context.Background(), l)
	L(ctx).Info("bare")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}

	if _, present := logEntry["request_id"]; present {
		t.Error("request_id should be absent when not set on the context")
	}
	if _, present := logEntry["conn_id"]; present {
		t.Error("conn_id should be absent when not set on the context")
	}
}
