package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ecmwf-ifs/ifsbench/launch"
)

var launchFlags struct {
	launcherFile string
	runDir       string
	libraryPaths []string
	dryRun       bool

	tasks        int
	nodes        int
	tasksPerNode int
	cpusPerTask  int
	bind         string
	distribute   string
}

var launchCmd = &cobra.Command{
	Use:   "launch [flags] -- command [args...]",
	Short: "Launch a command through a configured launcher",
	Long: `Launch runs an arbitrary command through a launcher, outside of a
full benchmark configuration. The launcher is read from a YAML file
with a class_name discriminator; without --launcher the command is
executed directly.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		launcher, err := loadLauncher()
		if err != nil {
			return err
		}

		job, err := jobFromFlags(cmd)
		if err != nil {
			return err
		}

		runDir := launchFlags.runDir
		if runDir == "" {
			if runDir, err = os.Getwd(); err != nil {
				return err
			}
		}

		data, err := launcher.Prepare(runDir, job, args, launchFlags.libraryPaths, nil, nil)
		if err != nil {
			return err
		}

		if launchFlags.dryRun {
			log.Infof("Dry run: would launch %v in %s", data.Cmd, data.RunDir)
			return nil
		}

		result, err := data.Launch(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), result.Stdout)
		fmt.Fprint(cmd.ErrOrStderr(), result.Stderr)
		if result.ExitCode != 0 {
			return fmt.Errorf("command exited with status %d", result.ExitCode)
		}

		log.Infof("Completed in %s", result.Walltime)
		return nil
	},
}

func loadLauncher() (launch.Launcher, error) {
	if launchFlags.launcherFile == "" {
		return &launch.DirectLauncher{}, nil
	}

	data, err := os.ReadFile(launchFlags.launcherFile)
	if err != nil {
		return nil, fmt.Errorf("reading launcher file: %w", err)
	}
	return launch.DefaultRegistry().LauncherFromYAML(data)
}

func jobFromFlags(cmd *cobra.Command) (launch.Job, error) {
	job := launch.Job{}

	setIfGiven := func(name string, value int, target **int) {
		if cmd.Flags().Changed(name) {
			*target = &value
		}
	}
	setIfGiven("tasks", launchFlags.tasks, &job.Tasks)
	setIfGiven("nodes", launchFlags.nodes, &job.Nodes)
	setIfGiven("tasks-per-node", launchFlags.tasksPerNode, &job.TasksPerNode)
	setIfGiven("cpus-per-task", launchFlags.cpusPerTask, &job.CpusPerTask)

	if launchFlags.bind != "" {
		var bind launch.CpuBinding
		if err := bind.FromString(launchFlags.bind); err != nil {
			return launch.Job{}, err
		}
		job.Bind = &bind
	}
	if launchFlags.distribute != "" {
		var dist launch.CpuDistribution
		if err := dist.FromString(launchFlags.distribute); err != nil {
			return launch.Job{}, err
		}
		job.DistributeLocal = &dist
	}

	return job, nil
}

func init() {
	rootCmd.AddCommand(launchCmd)

	launchCmd.Flags().StringVar(&launchFlags.launcherFile, "launcher", "", "launcher description file (YAML)")
	launchCmd.Flags().StringVar(&launchFlags.runDir, "run-dir", "", "working directory for the command (default: current directory)")
	launchCmd.Flags().StringSliceVar(&launchFlags.libraryPaths, "library-path", nil, "directories to append to LD_LIBRARY_PATH")
	launchCmd.Flags().BoolVar(&launchFlags.dryRun, "dry-run", false, "resolve the launch without executing it")

	launchCmd.Flags().IntVar(&launchFlags.tasks, "tasks", 0, "number of MPI tasks")
	launchCmd.Flags().IntVar(&launchFlags.nodes, "nodes", 0, "number of nodes")
	launchCmd.Flags().IntVar(&launchFlags.tasksPerNode, "tasks-per-node", 0, "MPI tasks per node")
	launchCmd.Flags().IntVar(&launchFlags.cpusPerTask, "cpus-per-task", 0, "CPUs per MPI task")
	launchCmd.Flags().StringVar(&launchFlags.bind, "bind", "", "CPU binding (none, sockets, cores, threads, user)")
	launchCmd.Flags().StringVar(&launchFlags.distribute, "distribute", "", "task distribution within a node (default, block, cyclic, user)")
}
