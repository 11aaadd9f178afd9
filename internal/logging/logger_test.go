package logging_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"elmdiag/internal/logging"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  log.Level
	}{
		{"debug", log.DebugLevel},
		{"info", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"ERROR", log.ErrorLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}
	for _, tc := range tests {
		if got := logging.ParseLevel(tc.level); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.level, got, tc.want)
		}
	}
}

func TestNewWithWriterRespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown", logging.FieldFile, "Main.elm")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info message leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "Main.elm") {
		t.Fatalf("expected warn message with field, got %q", out)
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	logger := logging.New("debug")
	ctx := logging.WithLogger(context.Background(), logger)
	if logging.FromContext(ctx) != logger {
		t.Fatal("FromContext did not return the stored logger")
	}
	if logging.FromContext(context.Background()) == nil {
		t.Fatal("FromContext without logger should fall back to Default")
	}
}

func TestSetDefault(t *testing.T) {
	// Not parallel: mutates the package-level logger.
	original := logging.Default()
	defer logging.SetDefault(original)

	replacement := logging.New("error")
	logging.SetDefault(replacement)
	if logging.Default() != replacement {
		t.Fatal("SetDefault did not replace the default logger")
	}
	logging.SetLevel("debug")
	if replacement.GetLevel() != log.DebugLevel {
		t.Fatal("SetLevel did not update the default logger")
	}
}
