package launch

import (
	"github.com/ecmwf-ifs/ifsbench/env"
)

// Launcher is the strategy that turns a (job, command, environment
// pipeline) tuple into executable launch data.
type Launcher interface {
	// Prepare resolves job fields into launcher-specific flags, finalizes
	// the environment by executing the pipeline and returns the launch
	// data. The final argv is
	//
	//	[executable?] + flags + job flags + customFlags + cmd
	//
	// where cmd is the untouched user command. A nil pipeline defaults
	// to an empty pipeline seeded from the live process environment.
	Prepare(runDir string, job Job, cmd []string, libraryPaths []string, pipeline *env.Pipeline, customFlags []string) (LaunchData, error)

	// DumpConfig serializes the launcher; see Registry for the inverse.
	DumpConfig(withClass bool) (Config, error)
}

// Wrapper decorates a prepared launch with additional behaviour. Wrap
// must return a new LaunchData and leave its input untouched so that
// composing several wrappers never corrupts an earlier stage.
type Wrapper interface {
	Wrap(data LaunchData, runDir string, cmd []string, libraryPaths []string, pipeline *env.Pipeline) (LaunchData, error)

	DumpConfig(withClass bool) (Config, error)
}

// preparePipeline returns a pipeline that Prepare may mutate freely: a
// deep copy of the given one, or a fresh pipeline seeded from the
// process environment when none is supplied. Library paths are appended
// to LD_LIBRARY_PATH before execution.
func preparePipeline(pipeline *env.Pipeline, libraryPaths []string) (*env.Pipeline, error) {
	if pipeline == nil {
		pipeline = env.SystemPipeline()
	} else {
		pipeline = pipeline.Copy()
	}

	for _, path := range libraryPaths {
		handler, err := env.NewHandler(env.Append, "LD_LIBRARY_PATH", path)
		if err != nil {
			return nil, err
		}
		pipeline.Add(handler)
	}

	return pipeline, nil
}
