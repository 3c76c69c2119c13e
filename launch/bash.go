package launch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ecmwf-ifs/ifsbench/env"
)

// BashLauncher materializes a prepared launch into a shell script under
// run_dir/bash_scripts and replaces the launch command with an
// invocation of that script. The script carries the environment itself,
// so the returned launch data has an empty environment.
type BashLauncher struct {
	// Flags are kept for configuration symmetry with other wrappers.
	Flags []string
}

// Shell identifiers that may appear on the left side of an export line.
var shellIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// escapeShellValue escapes a value for embedding in a double-quoted
// shell string: dollar, double quote and backtick, in that order.
func escapeShellValue(value string) string {
	value = strings.ReplaceAll(value, "$", `\$`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	value = strings.ReplaceAll(value, "`", "\\`")
	return value
}

func (l *BashLauncher) renderScript(data LaunchData) string {
	var b strings.Builder

	b.WriteString("#! /bin/bash\n\n")

	keys := make([]string, 0, len(data.Env))
	for key := range data.Env {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !shellIdentifier.MatchString(key) {
			// Upstream tooling (module systems, wrapper scripts) can leave
			// entries behind that are not valid shell variables. Skip them.
			log.Warnf("Skipping environment entry `%s`: not a valid shell identifier", key)
			continue
		}
		fmt.Fprintf(&b, "export %s=\"%s\"\n", key, escapeShellValue(data.Env[key]))
	}

	fmt.Fprintf(&b, "\ncd \"%s\"\n", data.RunDir)

	for _, c := range data.Cmd {
		fmt.Fprintf(&b, "\"%s\" ", escapeShellValue(c))
	}
	b.WriteString("\n")

	return b.String()
}

// Wrap implements Wrapper. The script path is derived from the user
// command's basename and a UTC timestamp, so repeated launches keep
// their scripts side by side.
func (l *BashLauncher) Wrap(data LaunchData, runDir string, cmd []string, libraryPaths []string, pipeline *env.Pipeline) (LaunchData, error) {
	scriptDir := filepath.Join(runDir, "bash_scripts")
	if err := os.MkdirAll(scriptDir, 0o755); err != nil {
		return LaunchData{}, fmt.Errorf("creating script directory: %w", err)
	}

	now := time.Now().UTC()
	timeStr := fmt.Sprintf("%s-%06d", now.Format("2006-01-02:15-04-05"), now.Nanosecond()/1000)

	name := "launch"
	if len(cmd) > 0 {
		name = filepath.Base(cmd[0])
	}

	scriptPath := filepath.Join(scriptDir, fmt.Sprintf("%s_%s.sh", name, timeStr))

	if err := os.WriteFile(scriptPath, []byte(l.renderScript(data)), 0o755); err != nil {
		return LaunchData{}, fmt.Errorf("writing launch script: %w", err)
	}

	return LaunchData{
		RunDir: data.RunDir,
		Cmd:    []string{"/bin/bash", scriptPath},
		Env:    map[string]string{},
	}, nil
}
