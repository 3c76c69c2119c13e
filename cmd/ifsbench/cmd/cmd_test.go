package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmwf-ifs/ifsbench/launch"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	uses := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		uses[cmd.Name()] = true
	}

	assert.True(t, uses["run"])
	assert.True(t, uses["launch"])
	assert.True(t, uses["validate"])
}

func TestRootCommandHelp(t *testing.T) {
	rootCmd.SetArgs([]string{"--help"})
	assert.NoError(t, rootCmd.Execute())
}

func TestConfigEnvBinding(t *testing.T) {
	t.Setenv("IFSBENCH_CONFIG", "/etc/ifsbench.toml")
	assert.Equal(t, "/etc/ifsbench.toml", viper.GetString("config"))
}

func TestPeriodsFromExplicitDates(t *testing.T) {
	periods, cfgPath, err := periodsFromArgs([]string{"2026080100", "24"})
	require.NoError(t, err)

	assert.Empty(t, cfgPath)
	require.Len(t, periods, 1)
	assert.Equal(t, "2026080100", periods[0].Start.Format("2006010215"))
	assert.Equal(t, 24*time.Hour, periods[0].Duration)
}

func TestPeriodsFromFileResolvesConfigPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ifsbench.toml"), nil, 0o644))
	periodsFile := filepath.Join(dir, "periods.txt")
	require.NoError(t, os.WriteFile(periodsFile, []byte("ifsbench.toml\n2026080100 24\n"), 0o644))

	// The returned configuration path must be usable from any working
	// directory, not just the periods file's own.
	periods, cfgPath, err := periodsFromArgs([]string{periodsFile})
	require.NoError(t, err)

	require.Len(t, periods, 1)
	assert.Equal(t, filepath.Join(dir, "ifsbench.toml"), cfgPath)
}

func TestPeriodsFromBadDate(t *testing.T) {
	_, _, err := periodsFromArgs([]string{"yesterday", "24"})
	assert.Error(t, err)

	_, _, err = periodsFromArgs([]string{"2026080100", "none"})
	assert.Error(t, err)
}

func TestLoadLauncherDefaultsToDirect(t *testing.T) {
	launchFlags.launcherFile = ""
	launcher, err := loadLauncher()
	require.NoError(t, err)
	assert.IsType(t, &launch.DirectLauncher{}, launcher)
}

func TestLoadLauncherFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launcher.yaml")
	content := "class_name: SrunLauncher\nflags:\n  - --qos=np\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	launchFlags.launcherFile = path
	defer func() { launchFlags.launcherFile = "" }()

	launcher, err := loadLauncher()
	require.NoError(t, err)

	srun, ok := launcher.(*launch.SrunLauncher)
	require.True(t, ok)
	assert.Equal(t, []string{"--qos=np"}, srun.Flags)
}
