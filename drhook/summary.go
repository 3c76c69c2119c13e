package drhook

import (
	"fmt"
	"io"
	"math"
	"sort"
)

// RoutineSummary merges one routine's timings across all ranks.
type RoutineSummary struct {
	Routine  string  `yaml:"routine"`
	AvgSelf  float64 `yaml:"avg_self"`
	MinSelf  float64 `yaml:"min_self"`
	MaxSelf  float64 `yaml:"max_self"`
	StdDev   float64 `yaml:"std_dev"`
	AvgPct   float64 `yaml:"avg_percent"`
	NumCalls int     `yaml:"num_calls"`
	// Imbalance is 100 * (max - min) / max, the usual DrHook measure.
	Imbalance float64 `yaml:"imbalance"`
}

// Summary aggregates per-rank profiles of one benchmark run.
type Summary struct {
	Program     string  `yaml:"program"`
	NumProcs    int     `yaml:"num_procs"`
	Threads     int     `yaml:"threads"`
	MinWalltime float64 `yaml:"min_walltime"`
	MaxWalltime float64 `yaml:"max_walltime"`
	AvgWalltime float64 `yaml:"avg_walltime"`
	StdWalltime float64 `yaml:"std_walltime"`

	Routines []RoutineSummary `yaml:"routines,omitempty"`
}

func stats(values []float64) (min, max, avg, std float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	min = values[0]
	max = values[0]
	sum := 0.0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	avg = sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - avg) * (v - avg)
	}
	std = math.Sqrt(variance / float64(len(values)))

	return min, max, avg, std
}

// Aggregate merges a set of per-rank records into a single summary.
// Routines are ordered by decreasing average self time.
func Aggregate(records []*Record) (*Summary, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("cannot aggregate an empty set of DrHook records")
	}

	summary := &Summary{
		Program:  records[0].Program,
		NumProcs: records[0].NumProcs,
		Threads:  records[0].Threads,
	}

	walltimes := make([]float64, 0, len(records))
	for _, record := range records {
		walltimes = append(walltimes, record.Walltime)
	}
	summary.MinWalltime, summary.MaxWalltime, summary.AvgWalltime, summary.StdWalltime = stats(walltimes)

	type routineData struct {
		selfTimes []float64
		percents  []float64
		numCalls  int
	}

	byRoutine := map[string]*routineData{}
	for _, record := range records {
		for _, row := range record.Rows {
			data, ok := byRoutine[row.Routine]
			if !ok {
				data = &routineData{}
				byRoutine[row.Routine] = data
			}
			data.selfTimes = append(data.selfTimes, row.SelfTime)
			data.percents = append(data.percents, row.Percent)
			if row.NumCalls > data.numCalls {
				data.numCalls = row.NumCalls
			}
		}
	}

	for routine, data := range byRoutine {
		min, max, avg, std := stats(data.selfTimes)
		_, _, avgPct, _ := stats(data.percents)

		imbalance := 0.0
		if max > 0 {
			imbalance = 100 * (max - min) / max
		}

		summary.Routines = append(summary.Routines, RoutineSummary{
			Routine:   routine,
			AvgSelf:   avg,
			MinSelf:   min,
			MaxSelf:   max,
			StdDev:    std,
			AvgPct:    avgPct,
			NumCalls:  data.numCalls,
			Imbalance: imbalance,
		})
	}

	sort.Slice(summary.Routines, func(i, j int) bool {
		if summary.Routines[i].AvgSelf != summary.Routines[j].AvgSelf {
			return summary.Routines[i].AvgSelf > summary.Routines[j].AvgSelf
		}
		return summary.Routines[i].Routine < summary.Routines[j].Routine
	})

	return summary, nil
}

// Write renders the summary in the familiar DrHook merged-listing shape.
func (s *Summary) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "The name of the executable : %s\n", s.Program)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Number of MPI-tasks        : %d\n", s.NumProcs)
	fmt.Fprintf(w, "Number of OpenMP-threads   : %d\n", s.Threads)
	fmt.Fprintf(w, "Wall-times over %d MPI-tasks (secs) : Min=%.3f, Max=%.3f, Avg=%.3f, StDev=%.3f\n",
		s.NumProcs, s.MinWalltime, s.MaxWalltime, s.AvgWalltime, s.StdWalltime)
	fmt.Fprintf(w, "  Avg-%%   Avg.time   Min.time   Max.time   St.dev  Imbal-%%   # of calls : Name of the routine\n")

	for _, routine := range s.Routines {
		_, err = fmt.Fprintf(w, " %6.2f%%    %6.3f    %6.3f    %6.3f    %6.3f    %6.2f    %9d : %s\n",
			routine.AvgPct, routine.AvgSelf, routine.MinSelf, routine.MaxSelf,
			routine.StdDev, routine.Imbalance, routine.NumCalls, routine.Routine)
		if err != nil {
			return err
		}
	}

	return nil
}
