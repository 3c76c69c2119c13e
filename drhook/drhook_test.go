package drhook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profileRank1 = `Profiling information for program='ifsMASTER', proc#1:
	No. of instrumented routines called : 3
	Instrumentation started : 20260801 000000
	Instrumentation   ended : 20260801 001000
	Wall-time is 120.500 sec on proc#1 (2 procs, 4 threads)

    #  %% Time         Cumul         Self        Total     # of calls        Self       Total    Routine@<thread-id>

    1    40.00        48.200       48.200       50.000          100     0.48200     0.50000    CLOUDSC@1
    2    30.00        84.350       36.150       40.000          100     0.36150     0.40000    CUADJTQ@1
    3    10.00        96.400       12.050       13.000           50     0.24100     0.26000    LAITRI@1
`

const profileRank2 = `Profiling information for program='ifsMASTER', proc#2:
	Wall-time is 121.500 sec on proc#2 (2 procs, 4 threads)

    1    42.00        51.030       51.030       52.000          100     0.51030     0.52000    CLOUDSC@2
    2    28.00        85.050       34.020       38.000          100     0.34020     0.38000    CUADJTQ@2
    3     9.00        95.990       10.940       12.000           50     0.21880     0.24000    LAITRI@2
`

func TestParseProfile(t *testing.T) {
	record, err := ParseProfile(strings.NewReader(profileRank1))
	require.NoError(t, err)

	assert.Equal(t, "ifsMASTER", record.Program)
	assert.Equal(t, 1, record.Rank)
	assert.Equal(t, 2, record.NumProcs)
	assert.Equal(t, 4, record.Threads)
	assert.InDelta(t, 120.5, record.Walltime, 1e-9)

	require.Len(t, record.Rows, 3)
	assert.Equal(t, "CLOUDSC", record.Rows[0].Routine)
	assert.InDelta(t, 48.2, record.Rows[0].SelfTime, 1e-9)
	assert.Equal(t, 100, record.Rows[0].NumCalls)
	assert.Equal(t, "LAITRI", record.Rows[2].Routine)
}

func TestParseProfileRejectsGarbage(t *testing.T) {
	_, err := ParseProfile(strings.NewReader("this is not a profile\n"))
	assert.Error(t, err)
}

func TestLoadDirAndAggregate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "drhook.prof.1"), []byte(profileRank1), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "drhook.prof.2"), []byte(profileRank2), 0o644))

	records, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Rank)
	assert.Equal(t, 2, records[1].Rank)

	summary, err := Aggregate(records)
	require.NoError(t, err)

	assert.Equal(t, "ifsMASTER", summary.Program)
	assert.Equal(t, 2, summary.NumProcs)
	assert.InDelta(t, 120.5, summary.MinWalltime, 1e-9)
	assert.InDelta(t, 121.5, summary.MaxWalltime, 1e-9)
	assert.InDelta(t, 121.0, summary.AvgWalltime, 1e-9)

	require.Len(t, summary.Routines, 3)
	// Ordered by decreasing average self time.
	assert.Equal(t, "CLOUDSC", summary.Routines[0].Routine)
	assert.InDelta(t, (48.2+51.03)/2, summary.Routines[0].AvgSelf, 1e-9)
	assert.Greater(t, summary.Routines[0].Imbalance, 0.0)
}

func TestLoadDirWithoutProfiles(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.Error(t, err)
}

func TestModeHandlers(t *testing.T) {
	environ := map[string]string{}
	for _, handler := range Prof.Handlers() {
		handler.Execute(environ)
	}
	assert.Equal(t, map[string]string{
		"DR_HOOK":                "1",
		"DR_HOOK_IGNORE_SIGNALS": "0",
		"DR_HOOK_OPT":            "prof",
	}, environ)

	environ = map[string]string{}
	for _, handler := range Off.Handlers() {
		handler.Execute(environ)
	}
	assert.Equal(t, map[string]string{"DR_HOOK": "0"}, environ)
}

func TestModeFromString(t *testing.T) {
	var mode Mode
	require.NoError(t, mode.FromString("prof"))
	assert.Equal(t, Prof, mode)

	assert.Error(t, mode.FromString("bogus"))
}

func TestSummaryWrite(t *testing.T) {
	records := []*Record{
		{Program: "ifsMASTER", Rank: 1, NumProcs: 1, Threads: 1, Walltime: 10,
			Rows: []Row{{Routine: "CLOUDSC", SelfTime: 4, Percent: 40, NumCalls: 10}}},
	}
	summary, err := Aggregate(records)
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, summary.Write(&b))
	assert.Contains(t, b.String(), "ifsMASTER")
	assert.Contains(t, b.String(), "CLOUDSC")
}
