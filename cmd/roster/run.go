package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arnavshah/roster-refiner/pkg/database"
	"github.com/arnavshah/roster-refiner/pkg/dataset"
	"github.com/arnavshah/roster-refiner/pkg/export"
	"github.com/arnavshah/roster-refiner/pkg/logger"
	"github.com/arnavshah/roster-refiner/pkg/metrics"
	"github.com/arnavshah/roster-refiner/pkg/models"
	"github.com/arnavshah/roster-refiner/pkg/refinement"
)

var (
	datasetPath string
	csvPath     string
	xlsxPath    string
	reportPath  string
	save        bool
	strict      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Refine a roster for one dataset",
	RunE:  runDataset,
}

func init() {
	runCmd.Flags().StringVarP(&datasetPath, "dataset", "d", "", "dataset file (yaml or json)")
	runCmd.Flags().StringVar(&csvPath, "csv", "", "write the roster as CSV")
	runCmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the roster as an Excel workbook")
	runCmd.Flags().StringVar(&reportPath, "report", "", "write the coverage report as JSON")
	runCmd.Flags().BoolVar(&save, "save", false, "store the run in the configured database")
	runCmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero unless the roster is approved")
	_ = runCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(runCmd)
}

func runDataset(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := dataset.LoadFile(datasetPath)
	if err != nil {
		return err
	}
	if ds.HorizonDays == 0 {
		ds.HorizonDays = cfg.HorizonDays
	}

	var sink refinement.ProgressSink
	if verbose {
		sink = metrics.NewLogSink(logger.NewZerologLoggerTo(os.Stderr, "progress"))
	}
	res, err := newController(sink).Run(ctx, ds)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printResult(out, ds.Name, res)

	if csvPath != "" {
		if err := writeFile(csvPath, func(w io.Writer) error { return export.WriteCSV(w, res.Schedule, ds) }); err != nil {
			return err
		}
		fmt.Fprintf(out, "Roster CSV written to %s\n", csvPath)
	}
	if xlsxPath != "" {
		if err := writeFile(xlsxPath, func(w io.Writer) error { return export.WriteXLSX(w, res.Schedule, ds) }); err != nil {
			return err
		}
		fmt.Fprintf(out, "Roster workbook written to %s\n", xlsxPath)
	}
	if reportPath != "" {
		if err := writeFile(reportPath, func(w io.Writer) error { return export.WriteReportJSON(w, res.Report) }); err != nil {
			return err
		}
		fmt.Fprintf(out, "Coverage report written to %s\n", reportPath)
	}

	if save {
		if err := saveRun(ctx, ds, res); err != nil {
			return err
		}
		fmt.Fprintf(out, "Run %s stored\n", res.RunID)
	}

	if strict && res.Report.Status != models.StatusApproved {
		return fmt.Errorf("roster needs review: %d violations, coverage %.2f%%", res.Report.ViolationCount, res.Report.CoveragePercent)
	}
	return nil
}

func saveRun(ctx context.Context, ds *models.Dataset, res *refinement.Result) error {
	store, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.SaveRun(ctx, ds, res); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return store.RecordUsage(ctx, time.Now().Format(models.DateLayout), res.Iterations, res.Schedule.Summary.TotalShifts, len(res.Violations))
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func printResult(w io.Writer, name string, res *refinement.Result) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	statusColor := color.New(color.FgGreen)
	if res.Report.Status != models.StatusApproved {
		statusColor = color.New(color.FgYellow)
	}
	if res.Report.CriticalCount > 0 {
		statusColor = color.New(color.FgRed, color.Bold)
	}

	fmt.Fprintf(w, "%s %s\n", cyan("Roster:"), name)
	fmt.Fprintf(w, "  Run:         %s\n", res.RunID)
	fmt.Fprintf(w, "  Outcome:     %s (%s) after %d iterations in %s\n", res.State, res.Reason, res.Iterations, res.ElapsedTime.Round(time.Millisecond))
	fmt.Fprintf(w, "  Status:      %s\n", statusColor.Sprint(res.Report.Status))
	fmt.Fprintf(w, "  Coverage:    %.2f%% (%d/%d slots)\n", res.Report.CoveragePercent, res.Report.FilledSlots, res.Report.TotalSlots)
	fmt.Fprintf(w, "  Shifts:      %d (%.1f hours, %s penalty-weighted)\n", res.Schedule.Summary.TotalShifts, res.Report.TotalHours, res.Report.PenaltyWeightedHours)
	fmt.Fprintf(w, "  Violations:  %d (%d critical)\n", res.Report.ViolationCount, res.Report.CriticalCount)
	fmt.Fprintf(w, "  Fairness:    %.2f\n", res.Report.FairnessScore)

	if len(res.Report.Recommendations) > 0 {
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Fprintf(w, "%s\n", yellow("Recommendations:"))
		for _, r := range res.Report.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
}
