package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/receipts/internal/inbox"
	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/scanlog"
)

func newBatchCommand(g *globalFlags) *cobra.Command {
	var (
		workers     int
		dryRun      bool
		verbose     bool
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Parse every receipt in the inbox and sort it into processed or review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, g.project, batchOptions{
				workers:     workers,
				dryRun:      dryRun,
				verbose:     verbose,
				metricsFile: metricsFile,
			})
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "j", runtime.NumCPU(), "receipts parsed concurrently")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse without moving files")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show hints and every candidate")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this textfile (default stats.metrics_path)")

	return cmd
}

type batchOptions struct {
	workers     int
	dryRun      bool
	verbose     bool
	metricsFile string
}

type batchOutcome struct {
	res model.ParseResult
	err error
}

func runBatch(cmd *cobra.Command, root string, opts batchOptions) (err error) {
	p, err := openProject(root)
	if err != nil {
		return err
	}
	defer closeInto(p, &err)

	out := cmd.OutOrStdout()
	reg := p.recognizers()
	dir := p.path(p.cfg.Inbox.Dir)

	files, err := inbox.Scan(dir, reg.Supports)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "Inbox is empty")
		return nil
	}

	outcomes := make([]batchOutcome, len(files))
	grp, ctx := errgroup.WithContext(cmd.Context())
	if opts.workers > 0 {
		grp.SetLimit(opts.workers)
	}
	for i, f := range files {
		grp.Go(func() error {
			text, err := reg.Recognize(ctx, f.Path)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Warn("recognition failed", "file", f.Name, "error", err)
				outcomes[i].err = err
				return nil
			}
			outcomes[i].res = p.engine.Parse(text)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return fmt.Errorf("batch: %w", err)
	}

	now := time.Now().UTC()
	var entries []scanlog.Entry
	var reliable, review int
	var errs []error
	for i, f := range files {
		o := outcomes[i]
		if o.err != nil {
			fmt.Fprintf(out, "%s: %v (review)\n", f.Name, o.err)
		} else {
			printResult(out, f.Name, o.res, opts.verbose)
			entries = append(entries, scanlog.FromResult(now, f.Name, o.res))
		}

		ok := o.err == nil && o.res.Reliable
		if ok {
			reliable++
		} else {
			review++
		}
		if opts.dryRun {
			continue
		}
		move := inbox.MarkReview
		if ok {
			move = inbox.MarkProcessed
		}
		if err := move(dir, f.Name); err != nil {
			errs = append(errs, err)
		}
	}

	// Parsed receipts are logged even when some could not be moved.
	if err := scanlog.Append(p.root, entries); err != nil {
		return errors.Join(append(errs, err)...)
	}

	fmt.Fprintf(out, "%d receipts: %d reliable, %d to review, detection rate %.0f%%\n",
		len(files), reliable, review, p.tracker.DetectionRate()*100)

	metricsPath := opts.metricsFile
	if metricsPath == "" && p.cfg.Stats.MetricsPath != "" {
		metricsPath = p.path(p.cfg.Stats.MetricsPath)
	}
	if metricsPath != "" {
		if err := p.metrics.WriteTextfile(metricsPath); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
