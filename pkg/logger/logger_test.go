package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit_LevelAndFields(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var buf bytes.Buffer
	Init(Options{Level: "warn", Output: &buf, Service: "parkctl"})

	log := Component("slots")
	log.Info().Msg("dropped")
	log.Warn().Str("slot_id", "s1").Msg("kept")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %s", len(lines), buf.String())
	}
	var ev map[string]any
	if err := json.Unmarshal(lines[0], &ev); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if ev["message"] != "kept" || ev["service"] != "parkctl" || ev["component"] != "slots" || ev["slot_id"] != "s1" {
		t.Fatalf("unexpected event %v", ev)
	}
}

func TestInit_OnlyFirstCallApplies(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var first, second bytes.Buffer
	Init(Options{Output: &first})
	Init(Options{Output: &second})
	l := Get()
	l.Info().Msg("hello")

	if first.Len() == 0 || second.Len() != 0 {
		t.Fatal("expected the first Init to win")
	}
}

func TestGet_PanicsBeforeInit(t *testing.T) {
	Reset()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Get()
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace": zerolog.TraceLevel, "DEBUG": zerolog.DebugLevel, "warning": zerolog.WarnLevel,
		"error": zerolog.ErrorLevel, "": zerolog.InfoLevel, "loud": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
