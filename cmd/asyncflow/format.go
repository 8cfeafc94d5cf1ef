package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// outputResult writes result to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(os.Stdout, result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIFileReport:
		formatReportsText(w, v)
	case CLICheckReport:
		formatCheckText(w, v)
	case CLIVersion:
		fmt.Fprintf(w, "%s %d\n", v.Name, v.Version)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// formatReportsText formats transform results as aligned columns.
func formatReportsText(w io.Writer, reports []CLIFileReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSTATUS\tSITES\tWRITTEN")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Path, r.status(), len(r.Sites), r.Written)
	}
	tw.Flush()
	for _, r := range reports {
		if r.Error != "" {
			fmt.Fprintf(w, "%s: %s\n", r.Path, r.Error)
		}
	}
}

// formatCheckText formats check results as "file:line:col: kind name" lines
// followed by a summary.
func formatCheckText(w io.Writer, report CLICheckReport) {
	for _, f := range report.Files {
		if f.Error != "" {
			fmt.Fprintf(w, "%s: %s %s\n", paint(pathStyle, f.Path), paint(errorStyle, "error:"), f.Error)
			continue
		}
		for _, s := range f.Sites {
			name := s.Name
			if name == "" {
				name = "<anonymous>"
			}
			loc := fmt.Sprintf("%s:%d:%d:", f.Path, s.Line, s.Column)
			fmt.Fprintf(w, "%s %s %s\n", paint(pathStyle, loc), paint(siteStyle, s.Kind), name)
		}
	}
	summary := fmt.Sprintf("%d files, %d sites, %d failed", len(report.Files), report.Sites, report.Failed)
	fmt.Fprintln(w, paint(summaryStyle, summary))
}

var validFormats = []string{"json", "text"}

func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
