package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arnavshah/roster-refiner/pkg/dataset"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a dataset without generating a roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := dataset.LoadFile(datasetPath)
		if err != nil {
			return err
		}
		if ds.HorizonDays == 0 {
			ds.HorizonDays = cfg.HorizonDays
		}
		if err := dataset.Validate(ds); err != nil {
			return err
		}
		st := dataset.Summarise(ds)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", color.GreenString("Dataset is valid:"), ds.Name)
		fmt.Fprintf(out, "  Employees:    %d (%d managers)\n", st.EmployeeCount, st.ManagerCount)
		fmt.Fprintf(out, "  Stores:       %d\n", st.StoreCount)
		fmt.Fprintf(out, "  Shift codes:  %d\n", st.ShiftCodeCount)
		fmt.Fprintf(out, "  Horizon:      %d days from %s\n", st.HorizonDays, ds.StartDate)
		fmt.Fprintf(out, "  Availability: %d windows\n", st.SlotCount)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&datasetPath, "dataset", "d", "", "dataset file (yaml or json)")
	_ = validateCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(validateCmd)
}
