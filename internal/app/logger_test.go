package app

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"tracker/internal/config"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		env   string
		level zerolog.Level
	}{
		{config.EnvLocal, zerolog.TraceLevel},
		{config.EnvDev, zerolog.DebugLevel},
		{config.EnvProd, zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			logger, err := NewLogger(tt.env, &bytes.Buffer{})
			if err != nil {
				t.Fatalf("NewLogger: %v", err)
			}
			if logger.GetLevel() != tt.level {
				t.Fatalf("level = %s, want %s", logger.GetLevel(), tt.level)
			}
		})
	}

	if _, err := NewLogger("staging", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown env")
	}
}

func TestProdLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.EnvProd, &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Debug().Msg("hidden")
	logger.Info().Int64("project_id", 7).Msg("created project")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode %q: %v", lines[0], err)
	}
	if entry["message"] != "created project" || entry["project_id"] != float64(7) {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Fatalf("timestamp field missing: %v", entry)
	}
}
