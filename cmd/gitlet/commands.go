package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/systemshift/gitlet/internal/errs"
	"github.com/systemshift/gitlet/internal/merge"
	"github.com/systemshift/gitlet/internal/repo"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a repository in the working directory",
	Args:  operands(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := repo.Init(workDir, repo.WithConfig(cfg))
		return err
	},
}

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Stage a file for the next commit",
	Args:  operands(1),
	RunE: withRepo(func(r *repo.Repository, args []string) error {
		return r.Add(args[0])
	}),
}

var commitCmd = &cobra.Command{
	Use:   "commit <message>",
	Short: "Record the staged changes",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || strings.TrimSpace(strings.Join(args, " ")) == "" {
			return errs.New(errs.EmptyMessage, "Please enter a commit message.")
		}
		return operands(1)(cmd, args)
	},
	RunE: withRepo(func(r *repo.Repository, args []string) error {
		_, err := r.Commit(args[0])
		return err
	}),
}

var rmCmd = &cobra.Command{
	Use:   "rm <file>",
	Short: "Unstage a file, or stage its removal",
	Args:  operands(1),
	RunE: withRepo(func(r *repo.Repository, args []string) error {
		return r.Remove(args[0])
	}),
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout (<branch> | -- <file> | <commit> -- <file>)",
	Short: "Restore a file or switch branches",
	RunE:  runCheckout,
}

func runCheckout(cmd *cobra.Command, args []string) error {
	dash := cmd.ArgsLenAtDash()
	r, err := openRepo()
	if err != nil {
		return err
	}
	switch {
	case dash == -1 && len(args) == 1:
		return r.CheckoutBranch(args[0])
	case dash == 0 && len(args) == 1:
		return r.CheckoutFile(args[0])
	case dash == 1 && len(args) == 2:
		return r.CheckoutFileAt(args[0], args[1])
	}
	return errs.New(errs.BadArgs, "Incorrect operands.")
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the history of the current branch",
	Args:  operands(0),
	RunE: withRepo(func(r *repo.Repository, args []string) error {
		out, err := r.Log()
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}),
}

var globalLogCmd = &cobra.Command{
	Use:   "global-log",
	Short: "Show every commit ever made",
	Args:  operands(0),
	RunE: withRepo(func(r *repo.Repository, args []string) error {
		out, err := r.GlobalLog()
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}),
}

var findCmd = &cobra.Command{
	Use:   "find <message>",
	Short: "Print the ids of commits with the given message",
	Args:  operands(1),
	RunE: withRepo(func(r *repo.Repository, args []string) error {
		ids, err := r.Find(args[0])
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}),
}

var branchCmd = &cobra.Command{
	Use:   "branch <name>",
	Short: "Create a branch at the current commit",
	Args:  operands(1),
	RunE: withRepo(func(r *repo.Repository, args []string) error {
		return r.Branch(args[0])
	}),
}

var rmBranchCmd = &cobra.Command{
	Use:   "rm-branch <name>",
	Short: "Delete a branch pointer",
	Args:  operands(1),
	RunE: withRepo(func(r *repo.Repository, args []string) error {
		return r.RemoveBranch(args[0])
	}),
}

var resetCmd = &cobra.Command{
	Use:   "reset <commit>",
	Short: "Check out a commit and move the current branch to it",
	Args:  operands(1),
	RunE: withRepo(func(r *repo.Repository, args []string) error {
		return r.Reset(args[0])
	}),
}

var mergeCmd = &cobra.Command{
	Use:   "merge <branch>",
	Short: "Merge a branch into the current branch",
	Args:  operands(1),
	RunE: withRepo(func(r *repo.Repository, args []string) error {
		res, err := r.Merge(args[0])
		if err != nil {
			return err
		}
		printMerge(res)
		return nil
	}),
}

func printMerge(res *repo.MergeResult) {
	if res.Outcome != merge.Merged {
		fmt.Println(res.Message)
		return
	}
	if res.Conflicted() {
		fmt.Println(merge.ConflictMessage)
	}
}

var addRemoteCmd = &cobra.Command{
	Use:   "add-remote <name> <path>",
	Short: "Register another repository's .gitlet directory",
	Args:  operands(2),
	RunE: withRepo(func(r *repo.Repository, args []string) error {
		return r.AddRemote(args[0], args[1])
	}),
}

var rmRemoteCmd = &cobra.Command{
	Use:   "rm-remote <name>",
	Short: "Forget a remote",
	Args:  operands(1),
	RunE: withRepo(func(r *repo.Repository, args []string) error {
		return r.RemoveRemote(args[0])
	}),
}

var pushCmd = &cobra.Command{
	Use:   "push <remote> <branch>",
	Short: "Send the current branch to a remote branch",
	Args:  operands(2),
	RunE: withRepo(func(r *repo.Repository, args []string) error {
		_, err := r.Push(args[0], args[1])
		return err
	}),
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <remote> <branch>",
	Short: "Copy a remote branch into <remote>/<branch>",
	Args:  operands(2),
	RunE: withRepo(func(r *repo.Repository, args []string) error {
		_, err := r.Fetch(args[0], args[1])
		return err
	}),
}

var pullCmd = &cobra.Command{
	Use:   "pull <remote> <branch>",
	Short: "Fetch a remote branch and merge it",
	Args:  operands(2),
	RunE: withRepo(func(r *repo.Repository, args []string) error {
		res, err := r.Pull(args[0], args[1])
		if err != nil {
			return err
		}
		printMerge(res)
		return nil
	}),
}

// withRepo opens the repository before running fn.
func withRepo(fn func(r *repo.Repository, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		return fn(r, args)
	}
}

func init() {
	rootCmd.AddCommand(
		initCmd, addCmd, commitCmd, rmCmd, checkoutCmd,
		logCmd, globalLogCmd, findCmd,
		branchCmd, rmBranchCmd, resetCmd, mergeCmd,
		addRemoteCmd, rmRemoteCmd, pushCmd, fetchCmd, pullCmd,
	)
}
