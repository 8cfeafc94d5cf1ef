package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/asyncflow"
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Report marking sites without writing anything",
	Long:  "Transforms the given files in memory and reports every marking site found. Exits non-zero if any file fails, including files with unresolvable marking sites.",
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	inputs, err := expandPaths(args)
	if err != nil {
		return outputError("check", err)
	}

	engine, err := newEngine()
	if err != nil {
		return outputError("check", err)
	}
	defer engine.Close()

	results, err := engine.TransformFiles(context.Background(), inputPaths(inputs))
	if err != nil {
		return outputError("check", fmt.Errorf("checking: %w", err))
	}

	report := CLICheckReport{Files: make([]CLIFileReport, len(results))}
	unresolvable := 0
	for i, res := range results {
		report.Files[i] = newFileReport(res)
		report.Sites += len(res.Sites)
		if res.Err != nil {
			report.Failed++
			if errors.Is(res.Err, asyncflow.ErrUnresolvableMarkedExpression) {
				unresolvable++
			}
		}
	}

	if err := outputResult(CLIResult{Command: "check", Results: report}); err != nil {
		return err
	}
	switch {
	case unresolvable > 0:
		return fmt.Errorf("%d files contain unresolvable marking sites", unresolvable)
	case report.Failed > 0:
		return fmt.Errorf("%d of %d files failed", report.Failed, len(results))
	}
	return nil
}
