package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/arnavshah/roster-refiner/pkg/config"
	"github.com/arnavshah/roster-refiner/pkg/logger"
	"github.com/arnavshah/roster-refiner/pkg/refinement"
)

var (
	cfgPath string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:          "roster",
	Short:        "Generate and refine workforce rosters",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range []string{".env", "../.env"} {
			if _, err := os.Stat(p); err == nil {
				_ = godotenv.Load(p)
				break
			}
		}
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every iteration")
}

// newController builds a controller from the loaded configuration
func newController(sink refinement.ProgressSink) *refinement.Controller {
	return refinement.NewController(cfg.Refinement,
		refinement.WithLogger(logger.NewZerologLoggerTo(os.Stderr, "refinement")),
		refinement.WithSink(sink),
		refinement.WithConstraints(cfg.Constraints),
		refinement.WithMinCoverage(cfg.Report.MinCoverage),
	)
}
