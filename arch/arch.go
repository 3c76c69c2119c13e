// Package arch describes the machine architectures the benchmark can
// run on: the CPU layout of a compute node, the launcher used for
// MPI-parallel execution and any environment the toolchain needs.
package arch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ecmwf-ifs/ifsbench/env"
	"github.com/ecmwf-ifs/ifsbench/launch"
)

// CpuConfiguration describes the compute capability of one node.
type CpuConfiguration struct {
	SocketsPerNode int
	CoresPerSocket int
	ThreadsPerCore int
}

// CoresPerNode is the number of physical cores per node.
func (c CpuConfiguration) CoresPerNode() int {
	return c.SocketsPerNode * c.CoresPerSocket
}

// ThreadsPerNode is the number of logical cores per node.
func (c CpuConfiguration) ThreadsPerNode() int {
	return c.CoresPerNode() * c.ThreadsPerCore
}

// Arch bundles the per-machine defaults: node layout, the launcher that
// starts MPI jobs there and the environment the toolchain expects.
type Arch struct {
	Name          string
	CPU           CpuConfiguration
	Launcher      launch.Launcher
	LauncherFlags []string
	EnvHandlers   []env.Handler
}

// ProcessJob fills in job fields that follow from the node layout: the
// task count from nodes and tasks per node, or the node count from the
// task count and the threads each task occupies. Explicitly set fields
// are never overwritten.
func (a *Arch) ProcessJob(job launch.Job) (launch.Job, error) {
	if job.Tasks == nil && job.Nodes != nil && job.TasksPerNode != nil {
		tasks := *job.Nodes * *job.TasksPerNode
		job.Tasks = &tasks
	}

	if job.Nodes == nil && job.Tasks != nil {
		cpusPerTask := 1
		if job.CpusPerTask != nil {
			cpusPerTask = *job.CpusPerTask
		}

		threadsPerNode := a.CPU.CoresPerNode()
		if job.ThreadsPerCore != nil {
			threadsPerNode = a.CPU.CoresPerNode() * *job.ThreadsPerCore
		}
		if threadsPerNode <= 0 {
			return launch.Job{}, fmt.Errorf("architecture %s has no usable CPU configuration", a.Name)
		}

		threads := *job.Tasks * cpusPerTask
		nodes := (threads + threadsPerNode - 1) / threadsPerNode
		job.Nodes = &nodes
	}

	if job.Tasks != nil && *job.Tasks < 1 {
		return launch.Job{}, fmt.Errorf("invalid number of tasks: %d", *job.Tasks)
	}
	if job.Nodes != nil && *job.Nodes < 1 {
		return launch.Job{}, fmt.Errorf("invalid number of nodes: %d", *job.Nodes)
	}

	return job, nil
}

// Pipeline builds an environment pipeline seeded from base with the
// architecture's handlers already applied.
func (a *Arch) Pipeline(base map[string]string) *env.Pipeline {
	return env.NewPipeline(base, a.EnvHandlers...)
}

var registry = map[string]func() *Arch{
	"workstation": workstation,
	"atos-aa":     atosAa,
	"xc40-cray":   xc40Cray,
}

// Get returns the architecture registered under name.
func Get(name string) (*Arch, error) {
	build, ok := registry[strings.ToLower(name)]
	if !ok {
		names := make([]string, 0, len(registry))
		for key := range registry {
			names = append(names, key)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown architecture `%s` (known: %s)", name, strings.Join(names, ", "))
	}
	return build(), nil
}

// workstation is a plain multi-core machine without a scheduler.
func workstation() *Arch {
	return &Arch{
		Name: "workstation",
		CPU: CpuConfiguration{
			SocketsPerNode: 1,
			CoresPerSocket: 4,
			ThreadsPerCore: 2,
		},
		Launcher: &launch.MpirunLauncher{},
	}
}

// atosAa is the Atos aa complex at ECMWF (AMD Rome, Slurm).
func atosAa() *Arch {
	return &Arch{
		Name: "atos-aa",
		CPU: CpuConfiguration{
			SocketsPerNode: 2,
			CoresPerSocket: 64,
			ThreadsPerCore: 2,
		},
		Launcher:      &launch.SrunLauncher{},
		LauncherFlags: []string{"--qos=np"},
		EnvHandlers: []env.Handler{
			env.MustHandler(env.Set, "OMP_PLACES", "cores"),
			env.MustHandler(env.Set, "OMP_PROC_BIND", "close"),
		},
	}
}

// xc40Cray is a Cray XC40 with the Cray toolchain.
func xc40Cray() *Arch {
	return &Arch{
		Name: "xc40-cray",
		CPU: CpuConfiguration{
			SocketsPerNode: 2,
			CoresPerSocket: 18,
			ThreadsPerCore: 2,
		},
		Launcher: &launch.SrunLauncher{},
		EnvHandlers: []env.Handler{
			env.MustHandler(env.Set, "OMP_STACKSIZE", "256M"),
		},
	}
}
