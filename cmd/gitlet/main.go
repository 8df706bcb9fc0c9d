package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/systemshift/gitlet/internal/config"
	"github.com/systemshift/gitlet/internal/errs"
	"github.com/systemshift/gitlet/internal/repo"
	"github.com/systemshift/gitlet/internal/state"
)

var (
	workDir string
	verbose bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:           "gitlet",
	Short:         "gitlet - a small local version-control system",
	Long:          `gitlet tracks snapshots of the files in a directory, with branches, three-way merges and filesystem remotes.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(state.LayoutFor(workDir).ConfigPath())
		if err != nil {
			return err
		}
		cfg = loaded
		return setupLogging(cfg.Log, verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", ".", "working directory of the repository")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func setupLogging(lc config.LogConfig, verbose bool) error {
	level, err := lc.SlogLevel()
	if err != nil {
		return err
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if lc.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

func openRepo() (*repo.Repository, error) {
	return repo.Open(workDir, repo.WithConfig(cfg))
}

// operands rejects a wrong number of positional arguments with the usual
// message.
func operands(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errs.New(errs.BadArgs, "Incorrect operands.")
		}
		return nil
	}
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	var e *errs.Error
	if errors.As(err, &e) && e.Kind != errs.Internal {
		fmt.Println(e.Error())
		slog.Debug("command failed",
			slog.String("kind", e.Kind.String()),
			slog.String("class", e.Kind.Class().String()),
			slog.Any("cause", e.Err))
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "gitlet: %v\n", err)
	os.Exit(2)
}
