package observability_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"rentcomps/internal/adapters/observability"
)

func TestNewLoggerTo_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := observability.WithLevel(observability.NewLoggerTo(&buf, "prod"), "warn")

	l.Info().Msg("dropped")
	l.Warn().Str("source", "spitogatos").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("want 1 line, got %d: %q", len(lines), buf.String())
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if ev["message"] != "kept" || ev["source"] != "spitogatos" || ev["level"] != "warn" {
		t.Fatalf("unexpected event: %v", ev)
	}
}

func TestNewLoggerTo_DevConsoleAndUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	l := observability.WithLevel(observability.NewLoggerTo(&buf, "dev"), "chatty")

	l.Debug().Msg("hidden")
	l.Info().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected console output: %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("dev logger should not emit JSON: %q", out)
	}
}
