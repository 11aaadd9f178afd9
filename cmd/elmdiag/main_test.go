package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"elmdiag/internal/diag"
	"elmdiag/internal/diagfmt"
	"elmdiag/internal/logging"
)

func TestReadUIMode(t *testing.T) {
	cases := map[string]uiMode{
		"":     uiModeAuto,
		"auto": uiModeAuto,
		" ON ": uiModeOn,
		"off":  uiModeOff,
		"Off":  uiModeOff,
	}
	for in, want := range cases {
		got, err := readUIMode(in)
		if err != nil {
			t.Fatalf("readUIMode(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("readUIMode(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := readUIMode("fancy"); err == nil {
		t.Fatal("expected error for unknown ui mode")
	}
}

func TestShouldUseTUIExplicit(t *testing.T) {
	if !shouldUseTUI(uiModeOn, 1) {
		t.Fatal("ui=on must force the progress view")
	}
	if shouldUseTUI(uiModeOff, 10) {
		t.Fatal("ui=off must disable the progress view")
	}
	if shouldUseTUI(uiModeAuto, 1) {
		t.Fatal("auto mode should not start the progress view for one file")
	}
}

func TestReadColorMode(t *testing.T) {
	if on, _ := readColorMode("auto", true); !on {
		t.Fatal("auto on a terminal should enable color")
	}
	if on, _ := readColorMode("auto", false); on {
		t.Fatal("auto off a terminal should disable color")
	}
	if on, _ := readColorMode("on", false); !on {
		t.Fatal("on should force color")
	}
	if on, _ := readColorMode("off", true); on {
		t.Fatal("off should disable color")
	}
	if _, err := readColorMode("rainbow", true); err == nil {
		t.Fatal("expected error for unknown color mode")
	}
}

func stubElm(t *testing.T, path, ver string, lookErr, verErr error) {
	t.Helper()
	origLook, origVer := lookElm, elmVersion
	t.Cleanup(func() { lookElm, elmVersion = origLook, origVer })
	lookElm = func(string) (string, error) { return path, lookErr }
	elmVersion = func(context.Context, string) (string, error) { return ver, verErr }
}

func TestBuildReportShort(t *testing.T) {
	stubElm(t, "", "", errors.New("must not be called"), nil)
	rep := collectBuildReport(context.Background(), false, "elm")
	if rep.Tool != "elmdiag" || rep.Version == "" {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if rep.ElmPath != "" || rep.Commit != "" || rep.Go != "" {
		t.Fatalf("short report should carry no build metadata: %+v", rep)
	}
}

func TestBuildReportFullResolvesElm(t *testing.T) {
	stubElm(t, "/usr/local/bin/elm", "0.19.1", nil, nil)
	rep := collectBuildReport(context.Background(), true, "elm")
	if rep.ElmPath != "/usr/local/bin/elm" || rep.ElmVersion != "0.19.1" {
		t.Fatalf("unexpected elm fields: %+v", rep)
	}
	if rep.Commit == "" || rep.Built == "" || rep.Go == "" {
		t.Fatalf("full report misses build metadata: %+v", rep)
	}

	orig := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = orig }()
	var buf bytes.Buffer
	rep.Version, rep.Commit, rep.Built, rep.Go = "1.2.3", "abc123", "unknown", "go1.25.1"
	if err := writeBuildReport(&buf, rep); err != nil {
		t.Fatalf("writeBuildReport: %v", err)
	}
	want := "elmdiag 1.2.3\n" +
		"  commit: abc123\n" +
		"  built:  unknown\n" +
		"  go:     go1.25.1\n" +
		"  elm:    /usr/local/bin/elm (0.19.1)\n"
	if buf.String() != want {
		t.Fatalf("pretty report = %q, want %q", buf.String(), want)
	}
}

func TestBuildReportMissingElm(t *testing.T) {
	stubElm(t, "", "", exec.ErrNotFound, nil)
	rep := collectBuildReport(context.Background(), true, "elm-0.19")
	if rep.ElmPath != "not found (elm-0.19)" || rep.ElmVersion != "" {
		t.Fatalf("unexpected elm fields: %+v", rep)
	}

	data, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "elm_version") {
		t.Fatalf("empty elm version should be omitted: %s", data)
	}
}

func TestBuildReportElmVersionFailure(t *testing.T) {
	stubElm(t, "/bin/elm", "", nil, errors.New("exit status 1"))
	rep := collectBuildReport(context.Background(), true, "elm")
	if rep.ElmPath != "/bin/elm" || rep.ElmVersion != "unknown" {
		t.Fatalf("unexpected elm fields: %+v", rep)
	}
}

func sampleGroups() []diag.FileGroup {
	return []diag.FileGroup{{
		URI: "file:///ws/src/Main.elm",
		Diagnostics: []diag.Diagnostic{{
			Range: diag.Range{
				Start: diag.Position{Line: 3, Character: 4},
				End:   diag.Position{Line: 3, Character: 9},
			},
			Severity: diag.SevError,
			Source:   diag.Source,
			Message:  "TYPE MISMATCH - The 1st argument to `add` is not what I expect",
		}},
	}}
}

func TestWriteGroupsFormats(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = orig }()

	base := outputOptions{pathMode: diagfmt.PathModeAbsolute, baseDir: "/ws"}

	t.Run("pretty", func(t *testing.T) {
		var buf bytes.Buffer
		opts := base
		opts.format = "pretty"
		if err := writeGroups(&buf, sampleGroups(), opts); err != nil {
			t.Fatalf("pretty: %v", err)
		}
		if !strings.Contains(buf.String(), "/ws/src/Main.elm:4:5") || !strings.Contains(buf.String(), "TYPE MISMATCH") {
			t.Fatalf("unexpected pretty output:\n%s", buf.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		opts := base
		opts.format = "json"
		if err := writeGroups(&buf, sampleGroups(), opts); err != nil {
			t.Fatalf("json: %v", err)
		}
		var out diagfmt.DiagnosticsOutput
		if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if out.Count != 1 || out.Errors != 1 {
			t.Fatalf("unexpected counts: %+v", out)
		}
	})

	t.Run("msgpack", func(t *testing.T) {
		var buf bytes.Buffer
		opts := base
		opts.format = "msgpack"
		if err := writeGroups(&buf, sampleGroups(), opts); err != nil {
			t.Fatalf("msgpack: %v", err)
		}
		groups, err := diagfmt.DecodeMsgpack(&buf)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(groups) != 1 || groups[0].URI != "file:///ws/src/Main.elm" {
			t.Fatalf("unexpected groups: %+v", groups)
		}
	})

	t.Run("sarif", func(t *testing.T) {
		var buf bytes.Buffer
		opts := base
		opts.format = "sarif"
		if err := writeGroups(&buf, sampleGroups(), opts); err != nil {
			t.Fatalf("sarif: %v", err)
		}
		if !strings.Contains(buf.String(), `"elmdiag"`) || !strings.Contains(buf.String(), `"2.1.0"`) {
			t.Fatalf("unexpected sarif output:\n%s", buf.String())
		}
	})

	t.Run("unknown", func(t *testing.T) {
		opts := base
		opts.format = "xml"
		if err := writeGroups(&bytes.Buffer{}, nil, opts); err == nil {
			t.Fatal("expected error for unknown format")
		}
	})
}

func TestToolUnavailableOnce(t *testing.T) {
	var buf bytes.Buffer
	notify := toolUnavailableOnce(logging.NewWithWriter(&buf, "info"))
	for i := 0; i < 3; i++ {
		notify(errors.New("missing"))
	}
	out := buf.String()
	if n := strings.Count(out, "elm executable not found"); n != 1 {
		t.Fatalf("expected a single notice, got %d:\n%s", n, out)
	}
	if !strings.Contains(out, "INFO") {
		t.Fatalf("notice should be logged at info level:\n%s", out)
	}
}

func TestSetupPutsLoggerInCommandContext(t *testing.T) {
	origNoColor, origSettings, origLogger := color.NoColor, settings, logging.Default()
	defer func() {
		color.NoColor = origNoColor
		settings = origSettings
		logging.SetDefault(origLogger)
	}()

	cmd := &cobra.Command{Use: "check"}
	cmd.Flags().String("color", "off", "")
	cmd.Flags().String("log-level", "debug", "")
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("elm", "/opt/elm/bin/elm", "")
	cmd.SetContext(context.Background())

	if err := setup(cmd, nil); err != nil {
		t.Fatalf("setup: %v", err)
	}
	logger := logging.FromContext(cmd.Context())
	if logger != logging.Default() {
		t.Fatal("command context should carry the configured logger")
	}
	if logger.GetLevel() != log.DebugLevel {
		t.Fatalf("logger level = %v, want debug", logger.GetLevel())
	}
	if settings.Elm.Path != "/opt/elm/bin/elm" {
		t.Fatalf("elm path = %q", settings.Elm.Path)
	}
	if !color.NoColor {
		t.Fatal("--color off should disable color")
	}
}
