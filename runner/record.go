package runner

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ecmwf-ifs/ifsbench/drhook"
	"github.com/ecmwf-ifs/ifsbench/fsutil"
)

// Record is the persistent outcome of one benchmark run. It is written
// to the run directory as YAML so that later invocations can validate
// against it.
type Record struct {
	ID        string    `yaml:"id"`
	CreatedAt time.Time `yaml:"created_at"`

	Start time.Time `yaml:"start"`
	Hours int       `yaml:"forecast_hours"`

	Cmd    []string `yaml:"cmd"`
	RunDir string   `yaml:"run_dir"`
	DryRun bool     `yaml:"dry_run,omitempty"`

	ExitCode int     `yaml:"exit_code"`
	Walltime float64 `yaml:"walltime"`

	DrHook *drhook.Summary `yaml:"drhook,omitempty"`
}

// RecordFileName is the name of the record inside a run directory.
const RecordFileName = "ifsbench-run.yaml"

// Write stores the record in its run directory.
func (rec *Record) Write() error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("serializing run record: %w", err)
	}

	path := fsutil.Path(rec.RunDir).Join(RecordFileName)
	if err := os.WriteFile(path.String(), data, 0o644); err != nil {
		return fmt.Errorf("writing run record: %w", err)
	}
	return nil
}

// ReadRecord loads a previously written run record.
func ReadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run record: %w", err)
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing run record `%s`: %w", path, err)
	}
	return &rec, nil
}
