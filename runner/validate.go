package runner

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
)

// Validate checks a run record against a reference record. The run must
// have succeeded and its walltime must stay within the relative
// tolerance of the reference; when both records carry DrHook summaries
// the routine self times are compared the same way.
func Validate(candidate, reference *Record, tolerance float64) error {
	if candidate.ExitCode != 0 {
		return fmt.Errorf("run exited with status %d", candidate.ExitCode)
	}

	if err := compare("walltime", candidate.Walltime, reference.Walltime, tolerance); err != nil {
		return err
	}

	if candidate.DrHook == nil || reference.DrHook == nil {
		return nil
	}

	referenceRoutines := make(map[string]float64, len(reference.DrHook.Routines))
	for _, routine := range reference.DrHook.Routines {
		referenceRoutines[routine.Routine] = routine.AvgSelf
	}

	for _, routine := range candidate.DrHook.Routines {
		expected, ok := referenceRoutines[routine.Routine]
		if !ok {
			log.Warnf("Routine %s is not part of the reference record", routine.Routine)
			continue
		}
		name := fmt.Sprintf("routine %s self time", routine.Routine)
		if err := compare(name, routine.AvgSelf, expected, tolerance); err != nil {
			return err
		}
	}

	return nil
}

func compare(name string, got, want, tolerance float64) error {
	if want == 0 {
		if got == 0 {
			return nil
		}
		return fmt.Errorf("%s: got %g, reference is zero", name, got)
	}

	deviation := math.Abs(got-want) / math.Abs(want)
	if deviation > tolerance {
		return fmt.Errorf("%s deviates by %.1f%% from the reference (%g vs %g, tolerance %.1f%%)",
			name, deviation*100, got, want, tolerance*100)
	}
	return nil
}
