package launch

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ecmwf-ifs/ifsbench/env"
)

// SrunLauncher builds launch commands for Slurm's srun.
type SrunLauncher struct {
	// Flags are statically configured launcher flags.
	Flags []string
}

// Job fields translated to srun flags, in emission order.
var srunJobOptions = []struct {
	value  func(Job) any
	format string
}{
	{func(j Job) any { return intValue(j.Nodes) }, "--nodes=%v"},
	{func(j Job) any { return intValue(j.Tasks) }, "--ntasks=%v"},
	{func(j Job) any { return intValue(j.TasksPerNode) }, "--ntasks-per-node=%v"},
	{func(j Job) any { return intValue(j.TasksPerSocket) }, "--ntasks-per-socket=%v"},
	{func(j Job) any { return intValue(j.CpusPerTask) }, "--cpus-per-task=%v"},
	{func(j Job) any { return intValue(j.ThreadsPerCore) }, "--ntasks-per-core=%v"},
	{func(j Job) any { return intValue(j.GpusPerTask) }, "--gpus-per-task=%v"},
	{func(j Job) any { return stringValue(j.Account) }, "--account=%v"},
	{func(j Job) any { return stringValue(j.Partition) }, "--partition=%v"},
}

func intValue(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringValue(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

var srunBindOptions = map[CpuBinding][]string{
	BindNone:    {"--cpu-bind=none"},
	BindSockets: {"--cpu-bind=sockets"},
	BindCores:   {"--cpu-bind=cores"},
	BindThreads: {"--cpu-bind=threads"},
	BindUser:    nil,
}

var srunDistributionOptions = map[CpuDistribution]string{
	DistributeDefault: "*",
	DistributeBlock:   "block",
	DistributeCyclic:  "cyclic",
}

// distributionOptions renders the --distribution=remote:local flag. An
// unset axis falls back to the scheduler default (`*`); a user-provided
// strategy on either axis suppresses the flag entirely.
func (l *SrunLauncher) distributionOptions(job Job) []string {
	if job.DistributeRemote == nil && job.DistributeLocal == nil {
		return nil
	}

	if job.DistributeRemote != nil && *job.DistributeRemote == DistributeUser {
		log.Debug("Not applying task distribution options because remote distribution of tasks is set to use user-provided settings")
		return nil
	}
	if job.DistributeLocal != nil && *job.DistributeLocal == DistributeUser {
		log.Debug("Not applying task distribution options because local distribution of tasks is set to use user-provided settings")
		return nil
	}

	axis := func(d *CpuDistribution) string {
		if d == nil {
			return "*"
		}
		return srunDistributionOptions[*d]
	}

	return []string{fmt.Sprintf("--distribution=%s:%s", axis(job.DistributeRemote), axis(job.DistributeLocal))}
}

// Prepare implements Launcher.
func (l *SrunLauncher) Prepare(runDir string, job Job, cmd []string, libraryPaths []string, pipeline *env.Pipeline, customFlags []string) (LaunchData, error) {
	pipeline, err := preparePipeline(pipeline, libraryPaths)
	if err != nil {
		return LaunchData{}, err
	}

	flags := append([]string{}, l.Flags...)

	for _, option := range srunJobOptions {
		if value := option.value(job); value != nil {
			flags = append(flags, fmt.Sprintf(option.format, value))
		}
	}

	if job.Bind != nil {
		flags = append(flags, srunBindOptions[*job.Bind]...)
	}

	flags = append(flags, l.distributionOptions(job)...)
	flags = append(flags, customFlags...)

	fullCmd := append([]string{"srun"}, flags...)
	fullCmd = append(fullCmd, cmd...)

	return LaunchData{
		RunDir: runDir,
		Cmd:    fullCmd,
		Env:    pipeline.Execute(),
	}, nil
}
