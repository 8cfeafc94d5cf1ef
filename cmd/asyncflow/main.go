package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/asyncflow"
)

var (
	flagFormat      string
	flagMobxPackage string
	flagVerbose     bool
	flagCache       string
	flagWorkers     int
	flagNoColor     bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// logger is replaced by a development logger when --verbose is set.
var logger = zap.NewNop()

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "asyncflow",
	Short:         "Rewrite flow-marked async functions into generator flows",
	Long:          "asyncflow rewrites async functions marked with mobx's flow into generator functions wrapped by flow, replacing every await with yield.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		colorize = !flagNoColor && stdoutIsTerminal()
		if flagVerbose {
			l, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			logger = l
			asyncflow.SetLogger(l)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagMobxPackage, "mobx-package", "", "additional module accepted as the source of flow (mobx is always accepted)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log per-file decisions to stderr")
	rootCmd.PersistentFlags().StringVar(&flagCache, "cache", "", "cache transform results in this SQLite database")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored text output")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "number of concurrent workers (default: one per CPU)")

	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the transformer name and version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return outputResult(CLIResult{
			Command: "version",
			Results: CLIVersion{Name: asyncflow.Name, Version: asyncflow.Version},
		})
	},
}

// newEngine builds an Engine from the persistent flags.
func newEngine() (*asyncflow.Engine, error) {
	opts := []asyncflow.Option{
		asyncflow.WithLogger(logger),
		asyncflow.WithWorkers(flagWorkers),
	}
	if flagMobxPackage != "" {
		opts = append(opts, asyncflow.WithMarkerModule(flagMobxPackage))
	}
	if flagCache != "" {
		if err := os.MkdirAll(filepath.Dir(flagCache), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Dir(flagCache), err)
		}
		opts = append(opts, asyncflow.WithCachePath(flagCache))
	}
	engine, err := asyncflow.NewEngine(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return engine, nil
}
