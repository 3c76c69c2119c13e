package launch

import (
	"github.com/ecmwf-ifs/ifsbench/env"
)

// DDTLauncher wraps a prepared launch so it starts straight into a
// Linaro DDT debugging session.
type DDTLauncher struct {
	// Flags are passed to ddt itself, before the `--` separator.
	Flags []string
}

// Wrap implements Wrapper. Environment and run directory pass through
// untouched.
func (l *DDTLauncher) Wrap(data LaunchData, runDir string, cmd []string, libraryPaths []string, pipeline *env.Pipeline) (LaunchData, error) {
	out := data.Copy()

	fullCmd := append([]string{"ddt"}, l.Flags...)
	fullCmd = append(fullCmd, "--")
	fullCmd = append(fullCmd, out.Cmd...)
	out.Cmd = fullCmd

	return out, nil
}
