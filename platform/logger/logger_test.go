package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestWithContextAddsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, SourceKey, "reddit.com/r/cars")
	log.WithContext(ctx).Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if entry["request_id"] != "req-1" || entry["source"] != "reddit.com/r/cars" {
		t.Fatalf("missing context fields: %v", entry)
	}
	if _, ok := entry["user_id"]; ok {
		t.Fatalf("unset user id should be omitted: %v", entry)
	}
}

func TestWithContextWithoutValuesReturnsSameLogger(t *testing.T) {
	log := Nop()
	if log.WithContext(context.Background()) != log {
		t.Fatalf("expected the same logger when ctx carries nothing")
	}
}
