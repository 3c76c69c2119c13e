package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// srun flag ordering is not part of the contract, so flags are compared
// as sets.
func flagSet(cmd []string) map[string]bool {
	set := map[string]bool{}
	for _, flag := range cmd {
		set[flag] = true
	}
	return set
}

func TestSrunLauncherJobOptions(t *testing.T) {
	job := Job{
		Nodes:          intp(2),
		Tasks:          intp(64),
		TasksPerNode:   intp(32),
		CpusPerTask:    intp(4),
		ThreadsPerCore: intp(2),
		GpusPerTask:    intp(1),
	}

	data, err := (&SrunLauncher{}).Prepare(t.TempDir(), job, []string{"prog"}, nil, emptyPipeline(), nil)
	require.NoError(t, err)

	assert.Equal(t, "srun", data.Cmd[0])
	assert.Equal(t, "prog", data.Cmd[len(data.Cmd)-1])

	flags := flagSet(data.Cmd[1 : len(data.Cmd)-1])
	expected := []string{
		"--nodes=2",
		"--ntasks=64",
		"--ntasks-per-node=32",
		"--cpus-per-task=4",
		"--ntasks-per-core=2",
		"--gpus-per-task=1",
	}
	for _, flag := range expected {
		assert.Contains(t, flags, flag)
	}
	assert.Len(t, flags, len(expected))
}

func TestSrunLauncherAccountingOptions(t *testing.T) {
	account := "ecmwf"
	partition := "compute"
	job := Job{Account: &account, Partition: &partition}

	data, err := (&SrunLauncher{}).Prepare(t.TempDir(), job, []string{"prog"}, nil, emptyPipeline(), nil)
	require.NoError(t, err)

	flags := flagSet(data.Cmd)
	assert.Contains(t, flags, "--account=ecmwf")
	assert.Contains(t, flags, "--partition=compute")
}

func TestSrunLauncherBinding(t *testing.T) {
	job := Job{Bind: bindp(BindCores)}

	data, err := (&SrunLauncher{}).Prepare(t.TempDir(), job, []string{"prog"}, nil, emptyPipeline(), nil)
	require.NoError(t, err)
	assert.Contains(t, flagSet(data.Cmd), "--cpu-bind=cores")
}

func TestSrunLauncherDistribution(t *testing.T) {
	// Both axes requested.
	job := Job{
		DistributeRemote: distp(DistributeBlock),
		DistributeLocal:  distp(DistributeCyclic),
	}
	data, err := (&SrunLauncher{}).Prepare(t.TempDir(), job, []string{"prog"}, nil, emptyPipeline(), nil)
	require.NoError(t, err)
	assert.Contains(t, flagSet(data.Cmd), "--distribution=block:cyclic")

	// Only one axis requested: the other falls back to the scheduler default.
	job = Job{DistributeLocal: distp(DistributeBlock)}
	data, err = (&SrunLauncher{}).Prepare(t.TempDir(), job, []string{"prog"}, nil, emptyPipeline(), nil)
	require.NoError(t, err)
	assert.Contains(t, flagSet(data.Cmd), "--distribution=*:block")

	// No distribution requested at all: no flag.
	data, err = (&SrunLauncher{}).Prepare(t.TempDir(), Job{}, []string{"prog"}, nil, emptyPipeline(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"srun", "prog"}, data.Cmd)
}

func TestSrunLauncherUserDistributionSuppressesFlag(t *testing.T) {
	job := Job{
		DistributeRemote: distp(DistributeUser),
		DistributeLocal:  distp(DistributeBlock),
	}
	data, err := (&SrunLauncher{}).Prepare(t.TempDir(), job, []string{"prog"}, nil, emptyPipeline(), nil)
	require.NoError(t, err)

	for _, flag := range data.Cmd {
		assert.NotContains(t, flag, "--distribution")
	}
}
