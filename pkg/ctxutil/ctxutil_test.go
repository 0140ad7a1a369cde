package ctxutil

import (
	"context"
	"testing"
)

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	if got := RequestIDFromCtx(ctx); got != "req-123" {
		t.Errorf("RequestIDFromCtx() = %q, want %q", got, "req-123")
	}
}

func TestRequestID_Absent(t *testing.T) {
	if got := RequestIDFromCtx(context.Background()); got != "" {
		t.Errorf("RequestIDFromCtx() = %q, want empty", got)
	}
}

func TestRequestID_Overwrite(t *testing.T) {
	ctx := WithRequestID(context.Background(), "first")
	ctx = WithRequestID(ctx, "second")
	if got := RequestIDFromCtx(ctx); got != "second" {
		t.Errorf("RequestIDFromCtx() = %q, want %q", got, "second")
	}
}
