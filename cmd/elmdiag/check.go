package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"elmdiag/internal/checkrun"
	"elmdiag/internal/config"
	"elmdiag/internal/diag"
	"elmdiag/internal/diagfmt"
	"elmdiag/internal/logging"
	"elmdiag/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.elm>...",
	Short: "Run elm make on Elm modules and print their diagnostics",
	Long: `Check runs elm make once per file, groups the reported problems by the file
they belong to and prints them. The exit status is 1 when any error is reported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "", "output format (pretty|json|msgpack|sarif); default from [check].format")
	checkCmd.Flags().Int("jobs", 0, "max parallel elm make runs (0=[check].jobs)")
	checkCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	checkCmd.Flags().String("root", "", "workspace root (default: nearest directory holding elm.json)")
	checkCmd.Flags().String("path-mode", "auto", "path display mode (auto|absolute|relative|basename)")
	checkCmd.Flags().Bool("preview", true, "show the offending source line in pretty output")
	checkCmd.Flags().Int("max", 0, "maximum number of diagnostics in json output (0=all)")
}

type outputOptions struct {
	format   string
	pathMode diagfmt.PathMode
	baseDir  string
	preview  bool
	color    bool
	width    int
	max      int
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := resolveFormat(cmd)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	if jobs < 0 {
		return fmt.Errorf("--jobs must be >= 0")
	}
	if jobs == 0 {
		jobs = settings.Check.Jobs
	}
	uiFlag, _ := cmd.Flags().GetString("ui")
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	out, err := readOutputOptions(cmd, format)
	if err != nil {
		return err
	}

	files := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
		files = append(files, abs)
	}
	root, _ := cmd.Flags().GetString("root")
	if root != "" {
		if root, err = filepath.Abs(root); err != nil {
			return err
		}
	}

	logger := logging.FromContext(cmd.Context())
	req := &checkrun.Request{
		Files:             files,
		Jobs:              jobs,
		ElmPath:           settings.Elm.Path,
		Root:              root,
		OnToolUnavailable: toolUnavailableOnce(logger),
	}

	var res checkrun.Result
	if format == "pretty" && shouldUseTUI(mode, len(files)) {
		res, err = runCheckWithUI(cmd.Context(), "elm make", req)
	} else {
		res, err = checkrun.Run(cmd.Context(), req)
	}
	if err != nil {
		return err
	}
	for _, f := range res.Files {
		if f.Err != nil {
			logger.Error("check failed", logging.FieldFile, f.File, logging.FieldError, f.Err)
		}
	}

	if err := writeGroups(cmd.OutOrStdout(), res.Groups(), out); err != nil {
		return err
	}
	if res.HasErrors() {
		return errDiagnostics
	}
	return nil
}

// resolveFormat picks --format over [check].format.
func resolveFormat(cmd *cobra.Command) (string, error) {
	format := settings.Check.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if !config.ValidFormat(format) {
		return "", fmt.Errorf("unsupported format %q (must be %s)", format, strings.Join(config.Formats, "|"))
	}
	return format, nil
}

func readOutputOptions(cmd *cobra.Command, format string) (outputOptions, error) {
	modeFlag, _ := cmd.Flags().GetString("path-mode")
	pathMode, ok := diagfmt.ParsePathMode(strings.ToLower(strings.TrimSpace(modeFlag)))
	if !ok {
		return outputOptions{}, fmt.Errorf("invalid --path-mode value %q (expected auto|absolute|relative|basename)", modeFlag)
	}
	baseDir, err := os.Getwd()
	if err != nil {
		return outputOptions{}, err
	}
	preview, _ := cmd.Flags().GetBool("preview")
	maxDiags, _ := cmd.Flags().GetInt("max")
	return outputOptions{
		format:   format,
		pathMode: pathMode,
		baseDir:  baseDir,
		preview:  preview,
		color:    colorEnabled(),
		width:    terminalWidth(os.Stdout),
		max:      maxDiags,
	}, nil
}

func writeGroups(w io.Writer, groups []diag.FileGroup, opts outputOptions) error {
	switch opts.format {
	case "pretty":
		return diagfmt.Pretty(w, groups, diagfmt.PrettyOpts{
			Color:       opts.color,
			PathMode:    opts.pathMode,
			BaseDir:     opts.baseDir,
			Width:       opts.width,
			ShowPreview: opts.preview,
			Summary:     true,
		})
	case "json":
		return diagfmt.JSON(w, groups, diagfmt.JSONOpts{
			PathMode: opts.pathMode,
			BaseDir:  opts.baseDir,
			Max:      opts.max,
			Indent:   true,
		})
	case "msgpack":
		return diagfmt.Msgpack(w, groups)
	case "sarif":
		return diagfmt.Sarif(w, groups, diagfmt.SarifRunMeta{
			ToolName:    "elmdiag",
			ToolVersion: version.Version,
		})
	default:
		return fmt.Errorf("unsupported format %q", opts.format)
	}
}

// toolUnavailableOnce reports a missing compiler at info level a single
// time per command, however many files were checked.
func toolUnavailableOnce(logger *log.Logger) func(error) {
	var once sync.Once
	return func(err error) {
		once.Do(func() {
			logger.Info("elm executable not found, no diagnostics available",
				logging.FieldTool, settings.Elm.Path, logging.FieldError, err)
		})
	}
}
