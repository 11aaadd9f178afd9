package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"elmdiag/internal/checkrun"
	"elmdiag/internal/logging"
	"elmdiag/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Re-check Elm modules whenever they are saved",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a save is checked")
	watchCmd.Flags().String("path-mode", "auto", "path display mode (auto|absolute|relative|basename)")
	watchCmd.Flags().Bool("preview", true, "show the offending source line")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return err
	}
	out, err := readOutputOptions(cmd, "pretty")
	if err != nil {
		return err
	}

	logger := logging.FromContext(cmd.Context())
	w, err := watch.New(dir, watch.Options{Debounce: debounce, Logger: logger})
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	defer w.Close()
	logger.Info("watching for saves", logging.FieldRoot, w.Root())

	notify := toolUnavailableOnce(logger)
	stdout := cmd.OutOrStdout()
	return w.Run(cmd.Context(), func(paths []string) {
		start := time.Now()
		res, err := checkrun.Run(cmd.Context(), &checkrun.Request{
			Files:             paths,
			Jobs:              settings.Check.Jobs,
			ElmPath:           settings.Elm.Path,
			OnToolUnavailable: notify,
		})
		if err != nil {
			logger.Error("check failed", logging.FieldError, err)
			return
		}
		for _, f := range res.Files {
			if f.Err != nil {
				logger.Error("check failed", logging.FieldFile, f.File, logging.FieldError, f.Err)
			}
		}
		groups := res.Groups()
		if len(groups) == 0 {
			fmt.Fprintf(stdout, "%s ok\n", time.Now().Format(time.TimeOnly))
		} else if err := writeGroups(stdout, groups, out); err != nil {
			logger.Error("write diagnostics", logging.FieldError, err)
		}
		logger.Debug("checked", logging.FieldFiles, len(paths), logging.FieldDuration, time.Since(start))
	})
}
