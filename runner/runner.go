// Package runner orchestrates benchmark runs: it assembles a run
// directory per forecast period, prepares the launch through the
// configured launcher, follows the model log while the run executes and
// collects the outcome into a persistent run record.
package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/parro-it/fileargs"
	log "github.com/sirupsen/logrus"

	"github.com/ecmwf-ifs/ifsbench/arch"
	"github.com/ecmwf-ifs/ifsbench/conf"
	"github.com/ecmwf-ifs/ifsbench/drhook"
	"github.com/ecmwf-ifs/ifsbench/env"
	"github.com/ecmwf-ifs/ifsbench/fsutil"
	"github.com/ecmwf-ifs/ifsbench/launch"
	"github.com/ecmwf-ifs/ifsbench/namelist"
)

// Name of the model executable link inside a run directory and of the
// log file the model writes its progress to.
const (
	executableLink = "ifsMASTER"
	namelistName   = "fort.4"
	modelLogName   = "NODE.001_01"
)

// Runner executes benchmark runs for one loaded configuration.
type Runner struct {
	cfg      conf.Configuration
	arch     *arch.Arch
	registry *launch.Registry

	// DryRun prepares everything but skips the actual execution.
	DryRun bool
	// LogOut receives the model log lines while a run is executing.
	LogOut io.Writer
}

// New resolves the architecture and launcher registry for the given
// configuration. A nil registry selects the default launcher set.
func New(cfg conf.Configuration, registry *launch.Registry) (*Runner, error) {
	archName := cfg.Arch
	if archName == "" {
		archName = "workstation"
	}

	a, err := arch.Get(archName)
	if err != nil {
		return nil, err
	}

	if registry == nil {
		registry = launch.DefaultRegistry()
	}

	return &Runner{cfg: cfg, arch: a, registry: registry}, nil
}

// RunDir returns the directory a period's run is assembled in.
func (r *Runner) RunDir(period *fileargs.Period) fsutil.Path {
	return r.cfg.Paths.ResultsDir.Join(period.Start.Format("2006010215"))
}

// BuildRunDir assembles the run directory for a period: the model
// executable and the static input data are linked in and the namelist
// template is rendered for the forecast window.
func (r *Runner) BuildRunDir(period *fileargs.Period) (fsutil.Path, error) {
	runDir := r.RunDir(period)

	tr := fsutil.Transaction{Root: runDir}
	tr.MkDir(".")
	tr.Link(r.cfg.Paths.Executable, executableLink)
	tr.Link(r.cfg.Paths.DataDir, "data")
	if tr.Err != nil {
		return "", fmt.Errorf("assembling run directory `%s`: %w", runDir, tr.Err)
	}

	args := namelist.Args{Start: period.Start, End: period.Start.Add(period.Duration)}

	template := r.cfg.Paths.NamelistsDir.Join(namelistName)
	if err := namelist.Render(template.String(), runDir.Join(namelistName).String(), args); err != nil {
		return "", err
	}

	return runDir, nil
}

// launcher returns the launcher for the run and the flags to pass along
// with it: the configuration override when present, the architecture
// default otherwise.
func (r *Runner) launcher() (launch.Launcher, []string, error) {
	override, err := r.cfg.LauncherOverride(r.registry)
	if err != nil {
		return nil, nil, err
	}
	if override != nil {
		return override, nil, nil
	}

	if r.arch.Launcher == nil {
		return nil, nil, fmt.Errorf("architecture %s has no launcher and none is configured", r.arch.Name)
	}
	return r.arch.Launcher, r.arch.LauncherFlags, nil
}

// pipeline builds the run environment: the live process environment,
// the architecture handlers, the DrHook preset and finally the handlers
// from the configuration file.
func (r *Runner) pipeline() (*env.Pipeline, error) {
	pipeline := env.SystemPipeline(r.arch.EnvHandlers...)

	mode, err := r.cfg.DrHookMode()
	if err != nil {
		return nil, err
	}
	pipeline.Add(mode.Handlers()...)

	handlers, err := r.cfg.EnvHandlers()
	if err != nil {
		return nil, err
	}
	pipeline.Add(handlers...)

	return pipeline, nil
}

// Prepare assembles the run directory for a period and resolves the
// launch without executing it.
func (r *Runner) Prepare(period *fileargs.Period) (launch.LaunchData, error) {
	runDir, err := r.BuildRunDir(period)
	if err != nil {
		return launch.LaunchData{}, err
	}

	job, err := r.cfg.Job.Job()
	if err != nil {
		return launch.LaunchData{}, err
	}
	job, err = r.arch.ProcessJob(job)
	if err != nil {
		return launch.LaunchData{}, err
	}

	launcher, flags, err := r.launcher()
	if err != nil {
		return launch.LaunchData{}, err
	}

	pipeline, err := r.pipeline()
	if err != nil {
		return launch.LaunchData{}, err
	}

	cmd := []string{"./" + executableLink}
	return launcher.Prepare(runDir.String(), job, cmd, r.cfg.LibraryPaths, pipeline, flags)
}

// Run executes the benchmark for one period and writes the run record
// into the run directory.
func (r *Runner) Run(ctx context.Context, period *fileargs.Period) (*Record, error) {
	data, err := r.Prepare(period)
	if err != nil {
		return nil, err
	}

	record := &Record{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Start:     period.Start,
		Hours:     int(period.Duration.Hours()),
		Cmd:       data.Cmd,
		RunDir:    data.RunDir,
		DryRun:    r.DryRun,
	}

	if r.DryRun {
		log.Infof("Dry run: would launch %v in %s", data.Cmd, data.RunDir)
		return record, record.Write()
	}

	log.Infof("Starting run for %s (%dh forecast)", period.Start.Format("2006010215"), record.Hours)

	var follower *fsutil.Follower
	if r.LogOut != nil {
		follower, err = fsutil.Follow(fsutil.Path(data.RunDir).Join(modelLogName), r.LogOut)
		if err != nil {
			return nil, err
		}
	}

	result, err := data.Launch(ctx)
	if follower != nil {
		follower.Stop()
	}
	if err != nil {
		return nil, err
	}

	record.ExitCode = result.ExitCode
	record.Walltime = result.Walltime.Seconds()

	if result.ExitCode != 0 {
		log.Errorf("Run for %s failed with exit status %d", period.Start.Format("2006010215"), result.ExitCode)
	} else {
		log.Infof("Run for %s completed in %s", period.Start.Format("2006010215"), result.Walltime)
	}

	r.collectDrHook(record)

	return record, record.Write()
}

// collectDrHook aggregates the per-rank DrHook profiles of a finished
// run. A failed run regularly has no usable profiles, so collection
// problems only produce a warning.
func (r *Runner) collectDrHook(record *Record) {
	mode, err := r.cfg.DrHookMode()
	if err != nil || mode != drhook.Prof {
		return
	}

	records, err := drhook.LoadDir(record.RunDir)
	if err != nil {
		log.Warnf("Collecting DrHook profiles: %s", err)
		return
	}

	summary, err := drhook.Aggregate(records)
	if err != nil {
		log.Warnf("Aggregating DrHook profiles: %s", err)
		return
	}
	record.DrHook = summary
}
