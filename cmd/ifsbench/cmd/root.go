package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version of the command.
var Version = "development"

var rootCmd = &cobra.Command{
	Use:   "ifsbench",
	Short: "ifsbench runs and evaluates IFS benchmark experiments",
	Long: `ifsbench assembles run directories for IFS forecast experiments,
launches the model through the launcher of the target machine and
collects timing results into run records.

Common workflows:

  Run the periods listed in a file (first line names the configuration):
    ifsbench run periods.txt

  Run a single forecast period:
    ifsbench run --config ifsbench.toml 2026080100 24

  Launch an arbitrary command through a serialized launcher:
    ifsbench launch --launcher srun.yaml --tasks 256 -- ./ifsMASTER

  Compare a run record against a reference:
    ifsbench validate results/2026080100/ifsbench-run.yaml reference.yaml

Configuration:
  Options can also be given as environment variables with the IFSBENCH_
  prefix, e.g. IFSBENCH_CONFIG names the benchmark configuration file.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Read environment variables that match "IFSBENCH_VARNAME".
	viper.SetEnvPrefix("IFSBENCH")
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("config", "", "benchmark configuration file (TOML)")
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}
