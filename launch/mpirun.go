package launch

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ecmwf-ifs/ifsbench/env"
)

// MpirunLauncher builds launch commands for a standard Open MPI style
// mpirun.
type MpirunLauncher struct {
	// Flags are statically configured launcher flags.
	Flags []string
}

// Job fields translated to mpirun flags, in emission order. Values that
// contain a space are split so the argv stays one token per element.
var mpirunJobOptions = []struct {
	value  func(Job) *int
	format string
}{
	{func(j Job) *int { return j.Tasks }, "-n %d"},
	{func(j Job) *int { return j.TasksPerNode }, "--npernode %d"},
	{func(j Job) *int { return j.TasksPerSocket }, "--npersocket %d"},
}

var mpirunBindOptions = map[CpuBinding][]string{
	BindNone:    {"--bind-to", "none"},
	BindSockets: {"--bind-to", "socket"},
	BindCores:   {"--bind-to", "core"},
	BindThreads: {"--bind-to", "hwthread"},
	BindUser:    nil,
}

var mpirunDistributionOptions = map[CpuDistribution]string{
	DistributeBlock:  "core",
	DistributeCyclic: "numa",
}

// distributionOptions renders the --map-by flag. mpirun only expresses
// in-node distribution; a remote distribution request is reported as a
// warning and dropped.
func (l *MpirunLauncher) distributionOptions(job Job) []string {
	requested := func(d *CpuDistribution) bool {
		return d != nil && *d != DistributeDefault && *d != DistributeUser
	}

	if requested(job.DistributeRemote) {
		log.Warn("Specified remote distribution option ignored in MpirunLauncher")
	}

	// Core mapping is the Open MPI default, used whenever threading is
	// requested without an explicit local distribution.
	mapBy := "core"

	if requested(job.DistributeLocal) {
		mapBy = mpirunDistributionOptions[*job.DistributeLocal]
	} else if job.CpusPerTask == nil {
		return nil
	}

	if job.CpusPerTask != nil {
		return []string{"--map-by", fmt.Sprintf("%s:PE=%d", mapBy, *job.CpusPerTask)}
	}

	return []string{"--map-by", mapBy}
}

// Prepare implements Launcher.
func (l *MpirunLauncher) Prepare(runDir string, job Job, cmd []string, libraryPaths []string, pipeline *env.Pipeline, customFlags []string) (LaunchData, error) {
	pipeline, err := preparePipeline(pipeline, libraryPaths)
	if err != nil {
		return LaunchData{}, err
	}

	flags := append([]string{}, l.Flags...)

	for _, option := range mpirunJobOptions {
		if value := option.value(job); value != nil {
			// Split the rendered option so the argv stays one token per
			// element: ["-n", "4"], not ["-n 4"].
			flags = append(flags, strings.Fields(fmt.Sprintf(option.format, *value))...)
		}
	}

	if job.Bind != nil {
		flags = append(flags, mpirunBindOptions[*job.Bind]...)
	}

	flags = append(flags, l.distributionOptions(job)...)
	flags = append(flags, customFlags...)

	if job.CpusPerTask != nil {
		// Not every application uses OpenMP threading, but setting
		// OMP_NUM_THREADS alongside the PE count is harmless when it does
		// not.
		handler, err := env.NewHandler(env.Append, "OMP_NUM_THREADS", strconv.Itoa(*job.CpusPerTask))
		if err != nil {
			return LaunchData{}, err
		}
		pipeline.Add(handler)
	}

	fullCmd := append([]string{"mpirun"}, flags...)
	fullCmd = append(fullCmd, cmd...)

	return LaunchData{
		RunDir: runDir,
		Cmd:    fullCmd,
		Env:    pipeline.Execute(),
	}, nil
}
