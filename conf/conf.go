// Package conf loads the benchmark configuration from a TOML file. The
// file names the target architecture, the input and output locations,
// the job geometry and, optionally, a launcher override together with
// additional environment handlers.
package conf

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/ecmwf-ifs/ifsbench/drhook"
	"github.com/ecmwf-ifs/ifsbench/env"
	"github.com/ecmwf-ifs/ifsbench/fsutil"
	"github.com/ecmwf-ifs/ifsbench/launch"
)

// PathsConf ...
type PathsConf struct {
	Executable   fsutil.Path
	DataDir      fsutil.Path
	NamelistsDir fsutil.Path
	ResultsDir   fsutil.Path
}

// JobConf mirrors the launch.Job fields in a form the TOML decoder can
// fill. Binding and distribution are given as their textual names.
type JobConf struct {
	Tasks            *int
	TasksPerNode     *int
	TasksPerSocket   *int
	Nodes            *int
	CpusPerTask      *int
	GpusPerTask      *int
	ThreadsPerCore   *int
	Account          *string
	Partition        *string
	Bind             string
	DistributeLocal  string
	DistributeRemote string
}

// Job converts the decoded section into a launch.Job.
func (jc JobConf) Job() (launch.Job, error) {
	job := launch.Job{
		Tasks:          jc.Tasks,
		TasksPerNode:   jc.TasksPerNode,
		TasksPerSocket: jc.TasksPerSocket,
		Nodes:          jc.Nodes,
		CpusPerTask:    jc.CpusPerTask,
		GpusPerTask:    jc.GpusPerTask,
		ThreadsPerCore: jc.ThreadsPerCore,
		Account:        jc.Account,
		Partition:      jc.Partition,
	}

	if jc.Bind != "" {
		var bind launch.CpuBinding
		if err := bind.FromString(jc.Bind); err != nil {
			return launch.Job{}, err
		}
		job.Bind = &bind
	}
	if jc.DistributeLocal != "" {
		var dist launch.CpuDistribution
		if err := dist.FromString(jc.DistributeLocal); err != nil {
			return launch.Job{}, err
		}
		job.DistributeLocal = &dist
	}
	if jc.DistributeRemote != "" {
		var dist launch.CpuDistribution
		if err := dist.FromString(jc.DistributeRemote); err != nil {
			return launch.Job{}, err
		}
		job.DistributeRemote = &dist
	}

	return job, nil
}

// Configuration ...
type Configuration struct {
	Arch         string
	Paths        PathsConf
	Job          JobConf
	Launcher     map[string]interface{}
	Env          []map[string]interface{}
	DrHook       string
	LibraryPaths []string
}

// LauncherOverride builds the launcher named by the optional [Launcher]
// table. Without the table the architecture default applies and nil is
// returned.
func (c *Configuration) LauncherOverride(registry *launch.Registry) (launch.Launcher, error) {
	if len(c.Launcher) == 0 {
		return nil, nil
	}
	return registry.LauncherFromConfig(launch.Config(c.Launcher))
}

// EnvHandlers builds the handlers listed in the [[Env]] tables.
func (c *Configuration) EnvHandlers() ([]env.Handler, error) {
	handlers := make([]env.Handler, 0, len(c.Env))
	for i, entry := range c.Env {
		handler, err := env.HandlerFromConfig(entry)
		if err != nil {
			return nil, fmt.Errorf("env entry %d: %w", i, err)
		}
		handlers = append(handlers, handler)
	}
	return handlers, nil
}

// DrHookMode parses the DrHook field; an empty field disables DrHook.
func (c *Configuration) DrHookMode() (drhook.Mode, error) {
	if c.DrHook == "" {
		return drhook.Off, nil
	}
	var mode drhook.Mode
	if err := mode.FromString(c.DrHook); err != nil {
		return drhook.Off, err
	}
	return mode, nil
}

// Config ...
var Config Configuration

// Init ...
func Init(confPath string) error {
	cfg, err := Load(confPath)
	if err != nil {
		return err
	}
	Config = cfg
	return nil
}

// Load decodes the configuration file at confPath. Relative paths in
// the [Paths] section are resolved against the directory of the file.
func Load(confPath string) (Configuration, error) {
	var cfg Configuration
	if _, err := toml.DecodeFile(confPath, &cfg); err != nil {
		return Configuration{}, fmt.Errorf("reading configuration `%s`: %w", confPath, err)
	}

	confDir, err := filepath.Abs(filepath.Dir(confPath))
	if err != nil {
		return Configuration{}, err
	}

	cfg.Paths.Executable = absPath(confDir, cfg.Paths.Executable)
	cfg.Paths.DataDir = absPath(confDir, cfg.Paths.DataDir)
	cfg.Paths.NamelistsDir = absPath(confDir, cfg.Paths.NamelistsDir)
	cfg.Paths.ResultsDir = absPath(confDir, cfg.Paths.ResultsDir)

	for i, lib := range cfg.LibraryPaths {
		cfg.LibraryPaths[i] = string(absPath(confDir, fsutil.Path(lib)))
	}

	return cfg, nil
}

func absPath(confDir string, p fsutil.Path) fsutil.Path {
	if p == "" || filepath.IsAbs(p.String()) {
		return p
	}
	return fsutil.Path(confDir).JoinP(p)
}
