package scoring

import (
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/goal"
)

// Scorer applies a goal's floor and cap thresholds to an ascending sequence
// of raw point values. Thresholds are configured in absolute goal units and
// pre-normalized to the raw-point scale (threshold / target * 100) so they
// compose directly with RawPoints output.
//
// A Scorer carries per-day and per-week accumulators keyed by calendar date
// and bare ISO week number. It is single-use: create a fresh instance per
// (user, goal) sequence and feed workouts in ascending start order.
type Scorer struct {
	floorWorkout float64
	capWorkout   float64
	hasCapW      bool
	floorDay     float64
	capDay       float64
	hasCapD      bool
	floorWeek    float64
	capWeek      float64
	hasCapWk     bool

	dayKey     string
	dayRaw     float64
	dayCapped  float64
	weekKey    int
	weekRaw    float64
	weekCapped float64
}

func NewScorer(g goal.Goal) *Scorer {
	s := &Scorer{weekKey: -1}
	s.floorWorkout = normalizeThreshold(g.MinPerWorkout, g.Target)
	s.capWorkout, s.hasCapW = normalizeCap(g.MaxPerWorkout, g.Target)
	s.floorDay = normalizeThreshold(g.MinPerDay, g.Target)
	s.capDay, s.hasCapD = normalizeCap(g.MaxPerDay, g.Target)
	s.floorWeek = normalizeThreshold(g.MinPerWeek, g.Target)
	s.capWeek, s.hasCapWk = normalizeCap(g.MaxPerWeek, g.Target)
	return s
}

// Score consumes one raw value at its workout timestamp and returns the
// capped points it earns after workout, day and week rules are applied.
func (s *Scorer) Score(raw float64, at time.Time) float64 {
	at = at.UTC()

	dayKey := at.Format("2006-01-02")
	if dayKey != s.dayKey {
		s.dayKey = dayKey
		s.dayRaw = 0
		s.dayCapped = 0
	}

	// Week key is the bare ISO week number; the year is dropped on
	// purpose to match historical scoring behavior.
	_, weekKey := at.ISOWeek()
	if weekKey != s.weekKey {
		s.weekKey = weekKey
		s.weekRaw = 0
		s.weekCapped = 0
	}

	s.dayRaw += raw
	s.weekRaw += raw

	earned := max(raw-s.floorWorkout, 0)
	if s.hasCapW {
		earned = min(earned, s.capWorkout-s.floorWorkout)
	}

	earned = max(min(earned, s.dayRaw-s.floorDay), 0)
	if s.hasCapD {
		earned = max(min(earned, (s.capDay-s.floorDay)-s.dayCapped), 0)
	}

	earned = max(min(earned, s.weekRaw-s.floorWeek), 0)
	if s.hasCapWk {
		earned = max(min(earned, (s.capWeek-s.floorWeek)-s.weekCapped), 0)
	}

	s.dayCapped += earned
	s.weekCapped += earned

	return earned
}

func normalizeThreshold(v *float64, target float64) float64 {
	if v == nil || target == 0 {
		return 0
	}
	return *v / target * 100
}

func normalizeCap(v *float64, target float64) (float64, bool) {
	if v == nil || target == 0 {
		return 0, false
	}
	return *v / target * 100, true
}
