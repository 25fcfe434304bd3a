package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestTracingFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "spans.json")

	if err := Init("procwise", "0.0.1", fname); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	ctx, span := StartSpan(context.Background(), "test")
	span.WithAttributes(map[string]string{"processId": "p1"})
	EndSpan(span, nil)
	_ = ctx

	data, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("no data written to trace file")
	}
}

func TestSpanNilSafety(t *testing.T) {
	// A nil span must be safe to decorate and close.
	var span *Span
	span.WithAttributes(map[string]string{"k": "v"})
	EndSpan(span, nil)
	EndSpan(nil, os.ErrClosed)
}
