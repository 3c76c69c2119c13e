// Package namelist prepares the Fortran namelists that configure an IFS
// run: it renders namelist templates for a forecast period and reads
// individual settings back out of a rendered namelist.
package namelist

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	prepare "github.com/meteocima/namelist-prepare/namelist"
)

// Args carries the period information substituted into a template.
type Args = prepare.Args

// Render reads a namelist template, substitutes the period arguments and
// writes the rendered namelist to target.
func Render(templatePath, targetPath string, args Args) error {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("reading namelist template: %w", err)
	}

	tmpl := prepare.Tmpl{}
	tmpl.ReadTemplateFrom(strings.NewReader(string(content)))

	var rendered strings.Builder
	tmpl.RenderTo(args, &rendered)

	if err := os.WriteFile(targetPath, []byte(rendered.String()), 0o644); err != nil {
		return fmt.Errorf("writing namelist: %w", err)
	}

	return nil
}

// ReadInt scans a namelist for `key = value` and returns the integer
// value. Trailing commas and namelist whitespace are tolerated.
func ReadInt(path, key string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if !strings.HasPrefix(trimmed, key) {
			continue
		}

		fields := strings.SplitN(trimmed, "=", 2)
		if len(fields) < 2 {
			return 0, fmt.Errorf("malformed `%s` property in `%s`: %s", key, path, trimmed)
		}

		rest := strings.TrimSpace(fields[0])
		if rest != key {
			// A longer key that merely shares the prefix.
			continue
		}

		valueStr := strings.Trim(fields[1], " \t,")
		value, err := strconv.Atoi(valueStr)
		if err != nil {
			return 0, fmt.Errorf("cannot convert `%s` value `%s` to integer: %w", key, valueStr, err)
		}
		return value, nil
	}

	return 0, fmt.Errorf("`%s` property not found in %s", key, path)
}
