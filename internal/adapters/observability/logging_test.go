package observability_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"review_pulse/internal/adapters/observability"
)

func TestNewLogger_JSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	l := observability.NewLogger("prod", &buf)
	l.Info().Str("country", "tr").Msg("fetch ok")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if line["country"] != "tr" || line["message"] != "fetch ok" {
		t.Fatalf("unexpected fields: %+v", line)
	}
	if _, ok := line["time"]; !ok {
		t.Fatalf("expected timestamp field")
	}
}

func TestNewLogger_ConsoleInDev(t *testing.T) {
	var buf bytes.Buffer
	l := observability.NewLogger("dev", &buf)
	l.Warn().Msg("fetch failed")

	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected console output, got JSON: %q", out)
	}
	if !strings.Contains(out, "fetch failed") {
		t.Fatalf("message missing: %q", out)
	}
}
