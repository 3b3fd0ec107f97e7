package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerWritesFixedAndCallSiteFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := New(&buf, "debug").With(String("run_id", "abc"))

	log.Info("stage finished", Int("articles", 42), Err(errors.New("boom")))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if m["run_id"] != "abc" {
		t.Fatalf("run_id = %v, want abc", m["run_id"])
	}
	if m["articles"] != float64(42) {
		t.Fatalf("articles = %v, want 42", m["articles"])
	}
	if m["message"] != "stage finished" {
		t.Fatalf("message = %v, want %q", m["message"], "stage finished")
	}
	if _, ok := m[zerolog.CallerFieldName]; !ok {
		t.Fatalf("caller field missing in %v", m)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := New(&buf, "warn")
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %q", buf.String())
	}
	if !log.Enabled(LevelError) {
		t.Fatal("error level should be enabled")
	}
}

func TestZeroLoggerIsNop(t *testing.T) {
	t.Parallel()
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero logger should report IsZero")
	}
	l.Error("nothing happens")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		" DEBUG ": zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for raw, want := range tests {
		if got := ParseLevel(raw, zerolog.InfoLevel); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}
