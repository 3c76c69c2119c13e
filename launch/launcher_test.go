package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmwf-ifs/ifsbench/env"
)

func intp(v int) *int { return &v }

func bindp(b CpuBinding) *CpuBinding { return &b }

func distp(d CpuDistribution) *CpuDistribution { return &d }

func emptyPipeline() *env.Pipeline { return env.NewPipeline(nil) }

func TestDirectLauncherWithExecutable(t *testing.T) {
	launcher := &DirectLauncher{Executable: "mpirun"}

	data, err := launcher.Prepare(t.TempDir(), Job{}, []string{"prog"}, nil, emptyPipeline(), []string{"--cuda"})
	require.NoError(t, err)

	assert.Equal(t, []string{"mpirun", "--cuda", "prog"}, data.Cmd)
}

func TestDirectLauncherWithoutExecutable(t *testing.T) {
	launcher := &DirectLauncher{Flags: []string{"-v"}}

	data, err := launcher.Prepare(t.TempDir(), Job{}, []string{"prog", "arg"}, nil, emptyPipeline(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"-v", "prog", "arg"}, data.Cmd)
}

func TestDirectLauncherLibraryPaths(t *testing.T) {
	launcher := &DirectLauncher{Executable: "prog-wrapper"}
	pipeline := env.NewPipeline(map[string]string{"LD_LIBRARY_PATH": "/usr/lib"})

	data, err := launcher.Prepare(t.TempDir(), Job{}, []string{"prog"},
		[]string{"/opt/lib", "/opt/more"}, pipeline, nil)
	require.NoError(t, err)

	assert.Contains(t, data.Env["LD_LIBRARY_PATH"], "/usr/lib")
	assert.Contains(t, data.Env["LD_LIBRARY_PATH"], "/opt/lib")
	assert.Contains(t, data.Env["LD_LIBRARY_PATH"], "/opt/more")

	// The caller's pipeline must not pick up the library path handlers.
	assert.Equal(t, "/usr/lib", pipeline.Execute()["LD_LIBRARY_PATH"])
}

func TestDDTLauncherWrap(t *testing.T) {
	base := LaunchData{RunDir: "/run", Cmd: []string{"srun", "prog"}, Env: map[string]string{"A": "1"}}

	wrapped, err := (&DDTLauncher{}).Wrap(base, "/run", []string{"prog"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ddt", "--", "srun", "prog"}, wrapped.Cmd)
	assert.Equal(t, base.Env, wrapped.Env)
	assert.Equal(t, base.RunDir, wrapped.RunDir)

	withFlags, err := (&DDTLauncher{Flags: []string{"--ddt-option=5"}}).Wrap(base, "/run", []string{"prog"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ddt", "--ddt-option=5", "--", "srun", "prog"}, withFlags.Cmd)

	// Copy-on-write: the input stays untouched.
	assert.Equal(t, []string{"srun", "prog"}, base.Cmd)
}

func TestCompositeLauncherMatchesManualChain(t *testing.T) {
	runDir := t.TempDir()
	job := Job{Tasks: intp(2)}
	cmd := []string{"prog"}

	composite := &CompositeLauncher{
		Base:     &DirectLauncher{Executable: "mpirun"},
		Wrappers: []Wrapper{&DDTLauncher{}},
		Flags:    []string{"--cuda"},
	}

	got, err := composite.Prepare(runDir, job, cmd, nil, emptyPipeline(), nil)
	require.NoError(t, err)

	manual, err := (&DirectLauncher{Executable: "mpirun"}).Prepare(runDir, job, cmd, nil, emptyPipeline(), []string{"--cuda"})
	require.NoError(t, err)
	manual, err = (&DDTLauncher{}).Wrap(manual, runDir, cmd, nil, emptyPipeline())
	require.NoError(t, err)

	assert.Equal(t, manual, got)
}

func TestCompositeLauncherRequiresBase(t *testing.T) {
	_, err := (&CompositeLauncher{}).Prepare(t.TempDir(), Job{}, []string{"prog"}, nil, emptyPipeline(), nil)
	assert.Error(t, err)
}

func TestCompositeLauncherWrapperOrder(t *testing.T) {
	runDir := t.TempDir()

	composite := &CompositeLauncher{
		Base:     &DirectLauncher{Executable: "mpirun"},
		Wrappers: []Wrapper{&DDTLauncher{}, &BashLauncher{}},
	}

	data, err := composite.Prepare(runDir, Job{}, []string{"prog"}, nil, emptyPipeline(), nil)
	require.NoError(t, err)

	// The bash wrapper runs last, so the final command invokes the script.
	require.Len(t, data.Cmd, 2)
	assert.Equal(t, "/bin/bash", data.Cmd[0])
	assert.Empty(t, data.Env)
}
