package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Format: "json", Output: &buf})

	l.Info(context.Background(), "dropped")
	l.Warn(context.Background(), "kept", Int("day", 3), Err(errors.New("boom")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("want 1 line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec["msg"] != "kept" || rec["day"].(float64) != 3 || rec["error"] != "boom" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestWith_AddsFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "text", Output: &buf}).With(String("session", "s1"))
	l.Info(context.Background(), "round")
	if !strings.Contains(buf.String(), "session=s1") {
		t.Fatalf("missing field: %q", buf.String())
	}
}

func TestNoop(t *testing.T) {
	l := Noop().With(String("a", "b"))
	l.Error(context.Background(), "nothing")
}
