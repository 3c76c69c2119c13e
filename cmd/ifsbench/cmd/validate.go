package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ecmwf-ifs/ifsbench/runner"
)

var validateTolerance float64

var validateCmd = &cobra.Command{
	Use:   "validate <record> <reference>",
	Short: "Validate a run record against a reference record",
	Long: `Validate compares the timings of a run record against a reference
record. The run fails validation when it did not exit cleanly or when
its walltime, or any DrHook routine self time present in both records,
deviates from the reference by more than the relative tolerance.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		candidate, err := runner.ReadRecord(args[0])
		if err != nil {
			return err
		}
		reference, err := runner.ReadRecord(args[1])
		if err != nil {
			return err
		}

		if err := runner.Validate(candidate, reference, validateTolerance); err != nil {
			return err
		}

		log.Infof("Record %s is within %.0f%% of the reference", candidate.ID, validateTolerance*100)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Float64Var(&validateTolerance, "tolerance", 0.1, "relative tolerance for timing comparisons")
}
