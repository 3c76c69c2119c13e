package runner

import (
	"os"
	"path/filepath"

	"github.com/parro-it/fileargs"
)

// ReadPeriods loads the forecast periods file. Each line names the
// start date (YYYYMMDDHH) and the forecast length in hours; the file
// also carries the path of the benchmark configuration to use.
func ReadPeriods(file string) (*fileargs.FileArguments, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}
	fsys := os.DirFS(filepath.Dir(abs))
	return fileargs.ReadFile(fsys, filepath.Base(abs))
}
