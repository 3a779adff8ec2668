package pipeline

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stage is one timed step of a cycle.
type Stage int

const (
	StageCapture Stage = iota
	StageTracking
	StageTransform
	StageDisplay
	numStages
)

func (s Stage) String() string {
	switch s {
	case StageCapture:
		return "capture"
	case StageTracking:
		return "tracking"
	case StageTransform:
		return "transform"
	case StageDisplay:
		return "display"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// DefaultStatsWindow is how many recent samples each series keeps.
const DefaultStatsWindow = 300

// Summary describes one series of durations.
type Summary struct {
	Count   int
	Fastest time.Duration
	Slowest time.Duration
	Mean    time.Duration
}

func (s Summary) String() string {
	if s.Count == 0 {
		return "no samples"
	}
	return fmt.Sprintf("n=%d fastest=%v slowest=%v mean=%v",
		s.Count, s.Fastest.Round(time.Microsecond), s.Slowest.Round(time.Microsecond), s.Mean.Round(time.Microsecond))
}

// Stats tracks performance metrics for the stages of the pipeline and for
// whole cycles. Each series keeps a sliding window of samples in
// milliseconds.
type Stats struct {
	mu     sync.Mutex
	window int
	stages [numStages][]float64
	cycles []float64
	total  int64
}

// NewStats creates a statistics tracker. window <= 0 means
// DefaultStatsWindow.
func NewStats(window int) *Stats {
	if window <= 0 {
		window = DefaultStatsWindow
	}
	return &Stats{window: window}
}

func (s *Stats) push(series []float64, d time.Duration) []float64 {
	series = append(series, float64(d)/float64(time.Millisecond))
	if len(series) > s.window {
		series = series[len(series)-s.window:]
	}
	return series
}

// Record adds one duration for stage.
func (s *Stats) Record(stage Stage, d time.Duration) {
	if stage < 0 || stage >= numStages {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages[stage] = s.push(s.stages[stage], d)
}

// RecordCycle adds the duration of one complete cycle.
func (s *Stats) RecordCycle(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles = s.push(s.cycles, d)
	s.total++
}

// Cycles is the number of cycles recorded since creation.
func (s *Stats) Cycles() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func summarize(ms []float64) Summary {
	if len(ms) == 0 {
		return Summary{}
	}
	toDur := func(v float64) time.Duration { return time.Duration(v * float64(time.Millisecond)) }
	return Summary{
		Count:   len(ms),
		Fastest: toDur(floats.Min(ms)),
		Slowest: toDur(floats.Max(ms)),
		Mean:    toDur(stat.Mean(ms, nil)),
	}
}

// Stage summarizes the recent samples of one stage.
func (s *Stats) Stage(stage Stage) Summary {
	if stage < 0 || stage >= numStages {
		return Summary{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return summarize(s.stages[stage])
}

// CycleSummary summarizes the recent cycle durations.
func (s *Stats) CycleSummary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return summarize(s.cycles)
}

// FPS is the cycle rate implied by the mean recent cycle duration.
func (s *Stats) FPS() float64 {
	mean := s.CycleSummary().Mean
	if mean <= 0 {
		return 0
	}
	return float64(time.Second) / float64(mean)
}

// Report renders every series on one line for logging.
func (s *Stats) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cycles=%d fps=%.1f cycle[%v]", s.Cycles(), s.FPS(), s.CycleSummary())
	for st := Stage(0); st < numStages; st++ {
		sum := s.Stage(st)
		if sum.Count == 0 {
			continue
		}
		fmt.Fprintf(&b, " %s[mean=%v]", st, sum.Mean.Round(time.Microsecond))
	}
	return b.String()
}
