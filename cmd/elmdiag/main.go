package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"elmdiag/internal/config"
	"elmdiag/internal/logging"
	"elmdiag/internal/version"
)

var rootCmd = &cobra.Command{
	Use:               "elmdiag",
	Short:             "Elm compiler diagnostics for terminals and editors",
	Long:              `elmdiag runs elm make, parses its JSON report and prints or publishes per-file diagnostics`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// errDiagnostics signals that the run reported errors; main exits 1 without logging it.
var errDiagnostics = errors.New("errors reported")

// settings holds the effective configuration after flags, env and file are merged.
var settings = config.Default()

func main() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("config", "", "path to elmdiag.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().String("elm", "", "elm executable (overrides [elm].path and "+config.EnvElmPath+")")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errDiagnostics) {
			logging.Default().Error(err)
		}
		os.Exit(1)
	}
}

// setup merges configuration and installs the default logger before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if level, _ := cmd.Flags().GetString("log-level"); strings.TrimSpace(level) != "" {
		cfg.Log.Level = level
	}
	if elm, _ := cmd.Flags().GetString("elm"); strings.TrimSpace(elm) != "" {
		cfg.Elm.Path = strings.TrimSpace(elm)
	}
	logger := logging.New(cfg.Log.Level)
	logging.SetDefault(logger)
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
	if cfg.Path != "" {
		logger.Debug("loaded config", logging.FieldFile, cfg.Path)
	}

	colorFlag, _ := cmd.Flags().GetString("color")
	useColor, err := readColorMode(colorFlag, isTerminal(os.Stdout))
	if err != nil {
		return err
	}
	color.NoColor = !useColor

	settings = cfg
	return nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return config.Config{}, err
		}
		return config.Load(wd)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func readColorMode(value string, tty bool) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return tty, nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of f, or 0 when it is not a terminal.
func terminalWidth(f *os.File) int {
	if !isTerminal(f) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

func colorEnabled() bool {
	return !color.NoColor
}
