package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	gitletfs "github.com/systemshift/gitlet/internal/fuse"
	"github.com/systemshift/gitlet/internal/repo"
	"github.com/systemshift/gitlet/internal/watch"
)

var watchStatus bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show branches, staged files and working tree changes",
	Args:  operands(0),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	if !watchStatus {
		rep, err := r.Status()
		if err != nil {
			return err
		}
		fmt.Print(rep.String())
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	dirs := []string{r.Root(), r.Layout().Dir}
	return watch.Run(ctx, dirs, watch.DefaultDelay, func() {
		if err := r.Refresh(); err != nil {
			slog.Error("reload state", slog.Any("error", err))
			return
		}
		rep, err := r.Status()
		if err != nil {
			slog.Error("status", slog.Any("error", err))
			return
		}
		fmt.Print("\033[H\033[2J")
		fmt.Print(rep.String())
	})
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  operands(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

var mountCmd = &cobra.Command{
	Use:   "mount <dir>",
	Short: "Mount a read-only view of the history at dir",
	Args:  operands(1),
	RunE: withRepo(func(r *repo.Repository, args []string) error {
		return mount(context.Background(), r, args[0])
	}),
}

func mount(ctx context.Context, r *repo.Repository, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create mountpoint: %w", err)
	}
	server, err := gitletfs.MountFS(dir, r, cfg.Mount.Debug)
	if err != nil {
		return fmt.Errorf("mount %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutting down", slog.String("mountpoint", dir))
		if err := server.Unmount(); err != nil {
			slog.Error("unmount", slog.Any("error", err))
		}
	}()

	slog.Info("ready", slog.String("mountpoint", dir), slog.Int("pid", os.Getpid()))
	server.Wait()
	slog.Info("stopped")
	return nil
}

func init() {
	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "redraw whenever the directory changes")
	rootCmd.AddCommand(statusCmd, configCmd, mountCmd)
}
