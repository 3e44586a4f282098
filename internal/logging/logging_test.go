package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"habit-planner/internal/config"
)

func TestNewJSONLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(config.EnvProd, "warn", &buf)

	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	log.Warn().Str("job", "rollover").Msg("visible")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["job"] != "rollover" || entry["message"] != "visible" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Fatalf("expected timestamp field in %v", entry)
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(config.EnvProd, "loud", &buf)
	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at default level")
	}
	log.Info().Msg("shown")
	if buf.Len() == 0 {
		t.Fatalf("info should be written at default level")
	}
}
