package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/receipts/internal/config"
	"github.com/cleared-dev/receipts/internal/gitops"
	"github.com/cleared-dev/receipts/internal/patterns"
)

func newInitCommand() *cobra.Command {
	var noGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new receipts project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, !noGit)
		},
	}

	cmd.Flags().BoolVar(&noGit, "no-git", false, "do not create a git repository")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, withGit bool) error {
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	cfg := config.Default()

	// Create directory structure.
	dirs := []string{
		"patterns",
		"logs",
		cfg.Inbox.Dir,
		filepath.Join(cfg.Inbox.Dir, "processed"),
		filepath.Join(cfg.Inbox.Dir, "review"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	cat := patterns.Default()
	if err := cat.Save(config.Resolve(dir, cfg.Catalogue.Path)); err != nil {
		return fmt.Errorf("writing pattern catalogue: %w", err)
	}
	if err := cat.SaveLearned(config.Resolve(dir, cfg.Catalogue.LearnedPath)); err != nil {
		return fmt.Errorf("writing learned patterns: %w", err)
	}

	// Receipts and counters stay out of history; patterns and config are tracked.
	gitignore := cfg.Inbox.Dir + "/\n.receipts/\n*.prom\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	out := cmd.OutOrStdout()
	if !withGit {
		fmt.Fprintf(out, "Initialized receipts project at %s\n", dir)
		return nil
	}

	if err := gitops.Init(dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.CommitAll(dir, "init: receipts project", author)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized receipts project at %s (%s)\n", dir, hash)
	return nil
}
