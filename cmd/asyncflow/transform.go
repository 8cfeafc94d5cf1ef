package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/asyncflow"
)

var (
	flagOutDir string
	flagWrite  bool
)

var transformCmd = &cobra.Command{
	Use:   "transform [paths...]",
	Short: "Rewrite flow-marked async functions",
	Long: `Transforms the given files and directories (recursively, by extension).

A single file is printed to stdout. Otherwise use --out-dir to write the
results under another directory, or --write to rewrite files in place.`,
	RunE: runTransform,
}

func init() {
	transformCmd.Flags().StringVar(&flagOutDir, "out-dir", "", "write results under this directory, mirroring the input layout")
	transformCmd.Flags().BoolVarP(&flagWrite, "write", "w", false, "rewrite changed files in place")
}

// inputFile is a discovered source file. Rel is its path relative to the
// argument it was found under, used to mirror the layout in --out-dir.
type inputFile struct {
	Path string
	Rel  string
}

func runTransform(cmd *cobra.Command, args []string) error {
	if flagWrite && flagOutDir != "" {
		return outputError("transform", errors.New("--write and --out-dir are mutually exclusive"))
	}

	inputs, err := expandPaths(args)
	if err != nil {
		return outputError("transform", err)
	}
	toStdout := !flagWrite && flagOutDir == ""
	if toStdout && (len(inputs) != 1 || isDirArg(args)) {
		return outputError("transform", errors.New("multiple files need --out-dir or --write"))
	}

	engine, err := newEngine()
	if err != nil {
		return outputError("transform", err)
	}
	defer engine.Close()

	results, err := engine.TransformFiles(context.Background(), inputPaths(inputs))
	if err != nil {
		return outputError("transform", fmt.Errorf("transforming: %w", err))
	}

	if toStdout {
		res := results[0]
		if res.Err != nil {
			return outputError("transform", res.Err)
		}
		_, err := os.Stdout.Write(res.Output)
		return err
	}

	reports := make([]CLIFileReport, len(results))
	failed := 0
	for i, res := range results {
		reports[i] = newFileReport(res)
		if res.Err != nil {
			failed++
			continue
		}
		dest, err := writeResult(inputs[i], res)
		if err != nil {
			reports[i].Error = err.Error()
			failed++
			continue
		}
		reports[i].Written = dest
	}

	if err := outputResult(CLIResult{Command: "transform", Results: reports}); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// writeResult writes one transformed file according to --write or
// --out-dir. It returns the path written, or "" when nothing was written.
func writeResult(in inputFile, res asyncflow.FileResult) (string, error) {
	if flagWrite {
		if !res.Changed {
			return "", nil
		}
		info, err := os.Stat(in.Path)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", in.Path, err)
		}
		if err := os.WriteFile(in.Path, res.Output, info.Mode().Perm()); err != nil {
			return "", fmt.Errorf("writing %s: %w", in.Path, err)
		}
		return in.Path, nil
	}

	dest := filepath.Join(flagOutDir, in.Rel)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}
	if err := os.WriteFile(dest, res.Output, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	return dest, nil
}

// expandPaths resolves command arguments into source files. Directories are
// searched recursively; an empty argument list means the current directory.
func expandPaths(args []string) ([]inputFile, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	var inputs []inputFile
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("path not found: %s", arg)
		}
		if !info.IsDir() {
			inputs = append(inputs, inputFile{Path: arg, Rel: filepath.Base(arg)})
			continue
		}
		paths, err := asyncflow.DiscoverFiles(arg)
		if err != nil {
			return nil, fmt.Errorf("discovering files in %s: %w", arg, err)
		}
		for _, p := range paths {
			rel, err := filepath.Rel(arg, p)
			if err != nil {
				rel = filepath.Base(p)
			}
			inputs = append(inputs, inputFile{Path: p, Rel: rel})
		}
	}
	return inputs, nil
}

// isDirArg reports whether any argument names a directory, or none was
// given at all.
func isDirArg(args []string) bool {
	if len(args) == 0 {
		return true
	}
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

func inputPaths(inputs []inputFile) []string {
	paths := make([]string, len(inputs))
	for i, in := range inputs {
		paths[i] = in.Path
	}
	return paths
}
