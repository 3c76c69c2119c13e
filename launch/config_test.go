package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLauncherConfigRoundTrip(t *testing.T) {
	registry := DefaultRegistry()

	launchers := []Launcher{
		&DirectLauncher{},
		&DirectLauncher{Executable: "mpirun", Flags: []string{"--cuda"}},
		&MpirunLauncher{Flags: []string{"--oversubscribe"}},
		&SrunLauncher{},
		&CompositeLauncher{
			Base:     &SrunLauncher{Flags: []string{"--exclusive"}},
			Wrappers: []Wrapper{&DDTLauncher{Flags: []string{"--connect"}}, &BashLauncher{}},
			Flags:    []string{"--base-flag"},
		},
	}

	for _, launcher := range launchers {
		cfg, err := launcher.DumpConfig(true)
		require.NoError(t, err)

		restored, err := registry.LauncherFromConfig(cfg)
		require.NoError(t, err)
		assert.Equal(t, launcher, restored)
	}
}

func TestWrapperConfigRoundTrip(t *testing.T) {
	registry := DefaultRegistry()

	wrappers := []Wrapper{
		&DDTLauncher{Flags: []string{"--ddt-option=5"}},
		&BashLauncher{},
	}

	for _, wrapper := range wrappers {
		cfg, err := wrapper.DumpConfig(true)
		require.NoError(t, err)

		restored, err := registry.WrapperFromConfig(cfg)
		require.NoError(t, err)
		assert.Equal(t, wrapper, restored)
	}
}

func TestDumpConfigWithoutClass(t *testing.T) {
	cfg, err := (&MpirunLauncher{}).DumpConfig(false)
	require.NoError(t, err)
	assert.NotContains(t, cfg, ClassNameKey)

	cfg, err = (&MpirunLauncher{}).DumpConfig(true)
	require.NoError(t, err)
	assert.Equal(t, "MpirunLauncher", cfg[ClassNameKey])
}

func TestFromConfigUnknownClass(t *testing.T) {
	registry := DefaultRegistry()

	_, err := registry.LauncherFromConfig(Config{ClassNameKey: "NoSuchLauncher"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoSuchLauncher")
	assert.Contains(t, err.Error(), "MpirunLauncher")

	_, err = registry.LauncherFromConfig(Config{"flags": []string{"-v"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ClassNameKey)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.RegisterLauncher("MpirunLauncher", decodeMpirunLauncher))
	assert.Error(t, registry.RegisterLauncher("MpirunLauncher", decodeSrunLauncher))
}

func TestLauncherFromYAML(t *testing.T) {
	registry := DefaultRegistry()

	document := `
class_name: CompositeLauncher
base_launcher:
  class_name: SrunLauncher
  flags: [--exclusive]
wrappers:
  - class_name: BashLauncher
`

	launcher, err := registry.LauncherFromYAML([]byte(document))
	require.NoError(t, err)

	composite, ok := launcher.(*CompositeLauncher)
	require.True(t, ok)
	assert.Equal(t, &SrunLauncher{Flags: []string{"--exclusive"}}, composite.Base)
	require.Len(t, composite.Wrappers, 1)
	assert.IsType(t, &BashLauncher{}, composite.Wrappers[0])
}

func TestConfigSurvivesYAMLSerialisation(t *testing.T) {
	registry := DefaultRegistry()

	original := &CompositeLauncher{
		Base:     &MpirunLauncher{Flags: []string{"--oversubscribe"}},
		Wrappers: []Wrapper{&DDTLauncher{}},
	}

	cfg, err := original.DumpConfig(true)
	require.NoError(t, err)

	data, err := yaml.Marshal(map[string]any(cfg))
	require.NoError(t, err)

	restored, err := registry.LauncherFromYAML(data)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestJobConfigRoundTrip(t *testing.T) {
	account := "ecmwf"
	job := Job{
		Tasks:            intp(128),
		Nodes:            intp(2),
		CpusPerTask:      intp(4),
		Account:          &account,
		Bind:             bindp(BindCores),
		DistributeLocal:  distp(DistributeBlock),
		DistributeRemote: distp(DistributeCyclic),
	}

	restored, err := JobFromConfig(job.DumpConfig())
	require.NoError(t, err)
	assert.Equal(t, job, restored)

	// An empty job dumps and restores as empty.
	restored, err = JobFromConfig(Job{}.DumpConfig())
	require.NoError(t, err)
	assert.Equal(t, Job{}, restored)
}

func TestJobFromConfigRejectsBadValues(t *testing.T) {
	_, err := JobFromConfig(Config{"tasks": "four"})
	assert.Error(t, err)

	_, err = JobFromConfig(Config{"bind": "everywhere"})
	assert.Error(t, err)
}
