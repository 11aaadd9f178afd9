package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"elmdiag/internal/logging"
	"elmdiag/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the elmdiag version and, with --full, the elm compiler it drives",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().Bool("full", false, "add build metadata and the resolved elm compiler")
}

// buildReport is what `elmdiag version` prints. Empty fields are omitted.
type buildReport struct {
	Tool       string `json:"tool"`
	Version    string `json:"version"`
	Commit     string `json:"commit,omitempty"`
	Built      string `json:"built,omitempty"`
	Go         string `json:"go,omitempty"`
	ElmPath    string `json:"elm_path,omitempty"`
	ElmVersion string `json:"elm_version,omitempty"`
}

// Compiler probes; tests swap them out.
var (
	lookElm    = exec.LookPath
	elmVersion = func(ctx context.Context, tool string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		out, err := exec.CommandContext(ctx, tool, "--version").Output()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(out)), nil
	}
)

func runVersion(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	full, _ := cmd.Flags().GetBool("full")
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	rep := collectBuildReport(cmd.Context(), full, settings.Elm.Path)
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return writeBuildReport(cmd.OutOrStdout(), rep)
}

// collectBuildReport fills the full report only on request: resolving and
// running the compiler costs a process start.
func collectBuildReport(ctx context.Context, full bool, tool string) buildReport {
	rep := buildReport{Tool: "elmdiag", Version: strings.TrimSpace(version.Version)}
	if rep.Version == "" {
		rep.Version = "dev"
	}
	if !full {
		return rep
	}
	rep.Commit = orUnknown(version.GitCommit)
	rep.Built = orUnknown(version.BuildDate)
	rep.Go = runtime.Version()

	logger := logging.FromContext(ctx).With(logging.FieldTool, tool)
	path, err := lookElm(tool)
	if err != nil {
		logger.Debug("elm not resolvable", logging.FieldError, err)
		rep.ElmPath = "not found (" + tool + ")"
		return rep
	}
	rep.ElmPath = path
	if v, err := elmVersion(ctx, path); err != nil {
		logger.Debug("elm --version failed", logging.FieldError, err)
		rep.ElmVersion = "unknown"
	} else {
		rep.ElmVersion = v
	}
	return rep
}

func writeBuildReport(w io.Writer, rep buildReport) error {
	if _, err := fmt.Fprintf(w, "%s %s\n", rep.Tool, version.Colorize(rep.Version)); err != nil {
		return err
	}
	elm := rep.ElmPath
	if rep.ElmVersion != "" {
		elm += " (" + rep.ElmVersion + ")"
	}
	for _, row := range [][2]string{
		{"commit", rep.Commit},
		{"built", rep.Built},
		{"go", rep.Go},
		{"elm", elm},
	} {
		if row[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %-7s %s\n", row[0]+":", row[1]); err != nil {
			return err
		}
	}
	return nil
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
