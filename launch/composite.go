package launch

import (
	"errors"

	"github.com/ecmwf-ifs/ifsbench/env"
)

// CompositeLauncher combines one base launcher with an ordered chain of
// wrappers. This is the only way to combine a scheduler launcher with
// debugger or script wrapping; wrappers run in list order.
type CompositeLauncher struct {
	// Base provides the basic launch command.
	Base Launcher
	// Wrappers decorate the prepared launch, in order.
	Wrappers []Wrapper
	// Flags are forwarded to the base launcher as its custom flags.
	Flags []string
}

// Prepare implements Launcher. The customFlags argument is ignored: the
// composite's own Flags take that role for the base launcher.
func (l *CompositeLauncher) Prepare(runDir string, job Job, cmd []string, libraryPaths []string, pipeline *env.Pipeline, customFlags []string) (LaunchData, error) {
	if l.Base == nil {
		return LaunchData{}, errors.New("composite launcher has no base launcher configured")
	}

	data, err := l.Base.Prepare(runDir, job, cmd, libraryPaths, pipeline, l.Flags)
	if err != nil {
		return LaunchData{}, err
	}

	for _, wrapper := range l.Wrappers {
		data, err = wrapper.Wrap(data, runDir, cmd, libraryPaths, pipeline)
		if err != nil {
			return LaunchData{}, err
		}
	}

	return data, nil
}
