package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"elmdiag/internal/checkrun"
	"elmdiag/internal/ui"
)

type checkOutcome struct {
	result checkrun.Result
	err    error
}

func runCheckWithUI(ctx context.Context, title string, req *checkrun.Request) (checkrun.Result, error) {
	if req == nil {
		return checkrun.Result{}, fmt.Errorf("missing check request")
	}
	events := make(chan checkrun.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = checkrun.ChannelSink{Ch: events}
		res, err := checkrun.Run(ctx, &reqCopy)
		outcomeCh <- checkOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, req.Files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// a failed UI must not stall the check on a full channel
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
