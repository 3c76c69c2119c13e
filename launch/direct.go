package launch

import "github.com/ecmwf-ifs/ifsbench/env"

// DirectLauncher runs commands through a user-provided executable, or
// with no scheduler at all when Executable is empty.
type DirectLauncher struct {
	// Executable is prepended to the command line. If empty, flags are
	// still emitted but the command is executed directly.
	Executable string
	// Flags are statically configured launcher flags.
	Flags []string
}

// Prepare implements Launcher.
func (l *DirectLauncher) Prepare(runDir string, job Job, cmd []string, libraryPaths []string, pipeline *env.Pipeline, customFlags []string) (LaunchData, error) {
	pipeline, err := preparePipeline(pipeline, libraryPaths)
	if err != nil {
		return LaunchData{}, err
	}

	var fullCmd []string
	if l.Executable != "" {
		fullCmd = append(fullCmd, l.Executable)
	}
	fullCmd = append(fullCmd, l.Flags...)
	fullCmd = append(fullCmd, customFlags...)
	fullCmd = append(fullCmd, cmd...)

	return LaunchData{
		RunDir: runDir,
		Cmd:    fullCmd,
		Env:    pipeline.Execute(),
	}, nil
}
