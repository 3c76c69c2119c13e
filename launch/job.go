// Package launch turns a job resource description, a user command and an
// environment pipeline into a concrete, executable command line. Base
// launchers (direct, mpirun, srun) resolve job fields into
// scheduler-specific flags; wrappers decorate a prepared launch with
// additional behaviour such as debugger injection or script
// materialization.
package launch

import (
	"fmt"
	"strings"
)

// CpuBinding selects the pinning strategy a launcher should request.
type CpuBinding int

const (
	// BindNone disables all binding specification.
	BindNone CpuBinding = iota
	// BindSockets binds tasks to sockets.
	BindSockets
	// BindCores binds tasks to cores.
	BindCores
	// BindThreads binds tasks to hardware threads.
	BindThreads
	// BindUser indicates a user-provided strategy; launchers emit no flag.
	BindUser
)

var bindingNames = map[CpuBinding]string{
	BindNone:    "none",
	BindSockets: "sockets",
	BindCores:   "cores",
	BindThreads: "threads",
	BindUser:    "user",
}

func (b CpuBinding) String() string {
	if name, ok := bindingNames[b]; ok {
		return name
	}
	return fmt.Sprintf("CpuBinding(%d)", int(b))
}

// FromString parses the textual form used in configuration files.
func (b *CpuBinding) FromString(s string) error {
	for candidate, name := range bindingNames {
		if name == strings.ToLower(s) {
			*b = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown CPU binding `%s`", s)
}

// CpuDistribution selects how tasks are distributed over a resource axis
// (across nodes or within a node).
type CpuDistribution int

const (
	// DistributeDefault leaves the choice to the scheduler.
	DistributeDefault CpuDistribution = iota
	// DistributeBlock allocates tasks in consecutive blocks.
	DistributeBlock
	// DistributeCyclic allocates tasks round-robin.
	DistributeCyclic
	// DistributeUser indicates a user-provided strategy; launchers emit no flag.
	DistributeUser
)

var distributionNames = map[CpuDistribution]string{
	DistributeDefault: "default",
	DistributeBlock:   "block",
	DistributeCyclic:  "cyclic",
	DistributeUser:    "user",
}

func (d CpuDistribution) String() string {
	if name, ok := distributionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("CpuDistribution(%d)", int(d))
}

// FromString parses the textual form used in configuration files.
func (d *CpuDistribution) FromString(s string) error {
	for candidate, name := range distributionNames {
		if name == strings.ToLower(s) {
			*d = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown CPU distribution `%s`", s)
}

// Job describes the parallel resource requirements of a run. It is pure
// data: launchers translate populated fields into their own flags and a
// nil field means "let the launcher or scheduler decide".
type Job struct {
	Tasks          *int
	TasksPerNode   *int
	TasksPerSocket *int
	Nodes          *int
	CpusPerTask    *int
	GpusPerTask    *int
	ThreadsPerCore *int

	Account   *string
	Partition *string

	Bind             *CpuBinding
	DistributeLocal  *CpuDistribution
	DistributeRemote *CpuDistribution
}
