// Package drhook provides environment presets for the IFS DrHook
// instrumentation and parsing of the per-rank text profiles it writes.
package drhook

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ecmwf-ifs/ifsbench/env"
)

// Mode selects a DrHook operation preset.
type Mode int

const (
	// Off disables DrHook.
	Off Mode = iota
	// Prof enables wall-clock profiling.
	Prof
)

var modeNames = map[Mode]string{
	Off:  "off",
	Prof: "prof",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// FromString parses the textual form used in configuration files.
func (m *Mode) FromString(s string) error {
	for candidate, name := range modeNames {
		if name == strings.ToLower(s) {
			*m = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown DrHook mode `%s`", s)
}

// Handlers returns the environment operations that configure the mode.
func (m Mode) Handlers() []env.Handler {
	switch m {
	case Prof:
		return []env.Handler{
			env.MustHandler(env.Set, "DR_HOOK", "1"),
			env.MustHandler(env.Set, "DR_HOOK_IGNORE_SIGNALS", "0"),
			env.MustHandler(env.Set, "DR_HOOK_OPT", "prof"),
		}
	default:
		return []env.Handler{
			env.MustHandler(env.Set, "DR_HOOK", "0"),
		}
	}
}

// Row is one routine entry of a per-rank profile.
type Row struct {
	Routine   string
	Percent   float64
	CumulTime float64
	SelfTime  float64
	TotalTime float64
	NumCalls  int
}

// Record is the parsed profile of a single MPI rank.
type Record struct {
	Program  string
	Rank     int
	NumProcs int
	Threads  int
	Walltime float64
	Rows     []Row
}

var (
	reProgram  = regexp.MustCompile(`program='(?P<program>.*)'`)
	reWalltime = regexp.MustCompile(`Wall-time is ([\d.eE+-]+) sec on proc#(\d+) \((\d+) procs, (\d+) threads\)`)
	reRow      = regexp.MustCompile(`^\s*(\d+)\s+([\d.eE+-]+)\s+([\d.eE+-]+)\s+([\d.eE+-]+)\s+([\d.eE+-]+)\s+(\d+)\s+[\d.eE+-]+\s+[\d.eE+-]+\s+(\S.*)$`)
)

// ParseProfile reads one drhook.prof.<rank> text profile.
func ParseProfile(r io.Reader) (*Record, error) {
	record := &Record{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if m := reProgram.FindStringSubmatch(line); m != nil {
			record.Program = m[1]
			continue
		}

		if m := reWalltime.FindStringSubmatch(line); m != nil {
			record.Walltime, _ = strconv.ParseFloat(m[1], 64)
			record.Rank, _ = strconv.Atoi(m[2])
			record.NumProcs, _ = strconv.Atoi(m[3])
			record.Threads, _ = strconv.Atoi(m[4])
			continue
		}

		if m := reRow.FindStringSubmatch(line); m != nil {
			row := Row{}
			row.Percent, _ = strconv.ParseFloat(m[2], 64)
			row.CumulTime, _ = strconv.ParseFloat(m[3], 64)
			row.SelfTime, _ = strconv.ParseFloat(m[4], 64)
			row.TotalTime, _ = strconv.ParseFloat(m[5], 64)
			row.NumCalls, _ = strconv.Atoi(m[6])

			// Routine names carry a @<thread> suffix in the listing.
			name := strings.TrimSpace(m[7])
			if at := strings.LastIndex(name, "@"); at > 0 {
				name = name[:at]
			}
			row.Routine = name

			record.Rows = append(record.Rows, row)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading DrHook profile: %w", err)
	}

	if record.Walltime == 0 && len(record.Rows) == 0 {
		return nil, fmt.Errorf("input does not look like a DrHook profile")
	}

	return record, nil
}

// LoadDir parses every drhook.prof.* file found in dir, ordered by rank.
func LoadDir(dir string) ([]*Record, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "drhook.prof.*"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no DrHook profiles found in %s", dir)
	}
	sort.Strings(paths)

	records := make([]*Record, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		record, err := ParseProfile(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Rank < records[j].Rank })
	return records, nil
}
