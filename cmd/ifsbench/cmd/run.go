package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/parro-it/fileargs"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ecmwf-ifs/ifsbench/conf"
	"github.com/ecmwf-ifs/ifsbench/runner"
)

var runCmd = &cobra.Command{
	Use:   "run [periods-file | startdate hours]",
	Short: "Run the benchmark for one or more forecast periods",
	Long: `Run executes the benchmark for every requested forecast period.

Periods are given either as a periods file, whose first line names the
benchmark configuration and whose remaining lines hold one
"YYYYMMDDHH HOURS" pair per run, or as a single start date and forecast
length on the command line. In the latter case the configuration file
must be given with --config.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		periods, cfgPath, err := periodsFromArgs(args)
		if err != nil {
			return err
		}

		if path := viper.GetString("config"); path != "" {
			cfgPath = path
		}
		if cfgPath == "" {
			return errors.New("no configuration file: use --config or a periods file")
		}

		cfg, err := conf.Load(cfgPath)
		if err != nil {
			return err
		}

		r, err := runner.New(cfg, nil)
		if err != nil {
			return err
		}
		r.DryRun = viper.GetBool("dry-run")
		r.LogOut = os.Stdout

		for _, period := range periods {
			record, err := r.Run(cmd.Context(), period)
			if err != nil {
				return err
			}
			if record.ExitCode != 0 {
				return fmt.Errorf("run for %s failed with exit status %d",
					period.Start.Format("2006010215"), record.ExitCode)
			}
		}

		log.Infof("All %d runs completed", len(periods))
		return nil
	},
}

// periodsFromArgs turns the positional arguments into forecast periods:
// a single argument names a periods file, two arguments give an
// explicit start date and forecast length.
func periodsFromArgs(args []string) ([]*fileargs.Period, string, error) {
	if len(args) == 1 {
		fa, err := runner.ReadPeriods(args[0])
		if err != nil {
			return nil, "", err
		}

		// The configuration path inside a periods file is relative to
		// the periods file itself, not to the working directory.
		cfgPath := fa.CfgPath
		if cfgPath != "" && !filepath.IsAbs(cfgPath) {
			periodsDir, err := filepath.Abs(filepath.Dir(args[0]))
			if err != nil {
				return nil, "", err
			}
			cfgPath = filepath.Join(periodsDir, cfgPath)
		}
		return fa.Periods, cfgPath, nil
	}

	start, err := time.Parse("2006010215", args[0])
	if err != nil {
		return nil, "", fmt.Errorf("invalid start date `%s` (want YYYYMMDDHH): %w", args[0], err)
	}
	hours, err := strconv.Atoi(args[1])
	if err != nil || hours < 1 {
		return nil, "", fmt.Errorf("invalid forecast length `%s`", args[1])
	}

	period := &fileargs.Period{Start: start, Duration: time.Duration(hours) * time.Hour}
	return []*fileargs.Period{period}, "", nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("dry-run", false, "prepare the run directories without launching")
	viper.BindPFlag("dry-run", runCmd.Flags().Lookup("dry-run"))
}
