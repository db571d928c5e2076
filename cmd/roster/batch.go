package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/arnavshah/roster-refiner/pkg/dataset"
	"github.com/arnavshah/roster-refiner/pkg/metrics"
	"github.com/arnavshah/roster-refiner/pkg/models"
	"github.com/arnavshah/roster-refiner/pkg/refinement"
)

var parallel int

var batchCmd = &cobra.Command{
	Use:   "batch DATASET...",
	Short: "Refine rosters for several datasets in parallel",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "maximum concurrent runs")
	rootCmd.AddCommand(batchCmd)
}

type batchResult struct {
	name   string
	result *refinement.Result
	err    error
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := make([]batchResult, len(args))
	progress := metrics.NewChanSink(64)
	ctrl := newController(progress)

	stopProgress := make(chan struct{})
	progressDone := make(chan struct{})
	go reportProgress(cmd.ErrOrStderr(), progress, len(args), stopProgress, progressDone)

	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			results[i].name = path
			ds, err := dataset.LoadFile(path)
			if err != nil {
				results[i].err = err
				return nil
			}
			if ds.HorizonDays == 0 {
				ds.HorizonDays = cfg.HorizonDays
			}
			results[i].name = ds.Name
			res, err := ctrl.Run(gctx, ds)
			results[i].result = res
			results[i].err = err
			// only cancellation stops the other runs
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}
	waitErr := g.Wait()
	close(stopProgress)
	<-progressDone

	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	failed, iterations := 0, 0
	for _, r := range results {
		switch {
		case r.err != nil:
			failed++
			fmt.Fprintf(out, "%s %-24s %v\n", red("FAIL"), r.name, r.err)
		case r.result == nil:
			failed++
			fmt.Fprintf(out, "%s %-24s not run\n", red("SKIP"), r.name)
		default:
			iterations += r.result.Iterations
			tag := green("OK  ")
			if r.result.Report.Status != models.StatusApproved {
				tag = yellow("WARN")
			}
			fmt.Fprintf(out, "%s %-24s %-9s %2d iterations  coverage %6.2f%%  violations %d\n",
				tag, r.name, r.result.State, r.result.Iterations, r.result.Report.CoveragePercent, r.result.Report.ViolationCount)
		}
	}
	fmt.Fprintf(out, "%d datasets, %d iterations\n", len(args), iterations)
	if n := progress.Dropped(); n > 0 && verbose {
		fmt.Fprintf(out, "%d progress events dropped\n", n)
	}

	if waitErr != nil {
		return waitErr
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(args))
	}
	return nil
}

// reportProgress prints run completions, and iterations when verbose, until
// stop is closed. Whatever is still buffered at that point is printed before
// done is closed.
func reportProgress(w io.Writer, sink *metrics.ChanSink, total int, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	completed := 0
	printEvent := func(e refinement.ProgressEvent) {
		if verbose {
			fmt.Fprintf(w, "  run %s iteration %d: %d violations, coverage %.2f%%\n", shortID(e.RunID), e.Iteration, e.ViolationCount, e.CoverageEstimate)
		}
	}
	printOutcome := func(o refinement.Outcome) {
		completed++
		fmt.Fprintf(w, "[%d/%d] run %s %s (%s)\n", completed, total, shortID(o.RunID), o.State, o.Reason)
	}
	for {
		select {
		case e := <-sink.Events():
			printEvent(e)
		case o := <-sink.Outcomes():
			printOutcome(o)
		case <-stop:
			for {
				select {
				case e := <-sink.Events():
					printEvent(e)
				case o := <-sink.Outcomes():
					printOutcome(o)
				default:
					return
				}
			}
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
