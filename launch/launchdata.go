package launch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

// LaunchData is the prepared form of a launch: a working directory, the
// final argv and the fully resolved environment. It is immutable once
// returned by Prepare or Wrap; Launch is the single I/O boundary of the
// package.
type LaunchData struct {
	RunDir string
	Cmd    []string
	Env    map[string]string
}

// Result captures the outcome of a launched process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Walltime time.Duration
}

// Copy duplicates the launch data so that wrappers can modify their own
// copy without corrupting an earlier stage.
func (d LaunchData) Copy() LaunchData {
	out := LaunchData{RunDir: d.RunDir}
	out.Cmd = append([]string{}, d.Cmd...)
	if d.Env != nil {
		out.Env = make(map[string]string, len(d.Env))
		for key, value := range d.Env {
			out.Env[key] = value
		}
	}
	return out
}

// EnvSlice renders the environment as KEY=VALUE entries, sorted by key
// so that repeated launches are byte-identical.
func (d LaunchData) EnvSlice() []string {
	keys := make([]string, 0, len(d.Env))
	for key := range d.Env {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]string, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, key+"="+d.Env[key])
	}
	return entries
}

// Launch executes the prepared command, blocking until the child exits.
// The environment replaces the inherited one entirely; if the pipeline
// was seeded from the process environment the inherited variables are
// already part of Env. A non-zero exit status is reported through the
// Result, not as an error; errors are reserved for spawn failures.
func (d LaunchData) Launch(ctx context.Context) (Result, error) {
	if len(d.Cmd) == 0 {
		return Result{}, errors.New("cannot launch an empty command")
	}

	log.Infof("Launch command %v in %s", d.Cmd, d.RunDir)
	for _, entry := range d.EnvSlice() {
		log.Debugf("\t%s", entry)
	}

	cmd := exec.CommandContext(ctx, d.Cmd[0], d.Cmd[1:]...)
	cmd.Dir = d.RunDir
	cmd.Env = d.EnvSlice()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Walltime: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("launching %s: %w", d.Cmd[0], err)
	}

	return result, nil
}
