package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/goal"
)

func ptr(v float64) *float64 { return &v }

func TestScorerThresholdTable(t *testing.T) {
	t.Parallel()

	at := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		goal goal.Goal
		raws []float64
		want float64
	}{
		{"workout floor at threshold", goal.Goal{Target: 100, MinPerWorkout: ptr(10)}, []float64{10}, 0},
		{"workout floor above threshold", goal.Goal{Target: 100, MinPerWorkout: ptr(10)}, []float64{20}, 10},
		{"workout cap at threshold", goal.Goal{Target: 100, MaxPerWorkout: ptr(30)}, []float64{30}, 30},
		{"workout cap above threshold", goal.Goal{Target: 100, MaxPerWorkout: ptr(30)}, []float64{40}, 30},
		{"workout floor and cap", goal.Goal{Target: 100, MinPerWorkout: ptr(10), MaxPerWorkout: ptr(30)}, []float64{40}, 20},
		{"day floor at threshold", goal.Goal{Target: 100, MinPerDay: ptr(10)}, []float64{10}, 0},
		{"day floor above threshold", goal.Goal{Target: 100, MinPerDay: ptr(10)}, []float64{20}, 10},
		{"day floor across workouts", goal.Goal{Target: 100, MinPerDay: ptr(10)}, []float64{8, 8}, 6},
		{"day cap below threshold", goal.Goal{Target: 100, MaxPerDay: ptr(30)}, []float64{20}, 20},
		{"day cap across workouts", goal.Goal{Target: 100, MaxPerDay: ptr(30)}, []float64{20, 20}, 30},
		{"day floor and cap", goal.Goal{Target: 100, MinPerDay: ptr(10), MaxPerDay: ptr(30)}, []float64{8, 12, 8, 8, 14}, 20},
		{"week floor at threshold", goal.Goal{Target: 100, MinPerWeek: ptr(10)}, []float64{10}, 0},
		{"week floor above threshold", goal.Goal{Target: 100, MinPerWeek: ptr(10)}, []float64{20}, 10},
		{"week cap below threshold", goal.Goal{Target: 100, MaxPerWeek: ptr(30)}, []float64{20}, 20},
		{"week cap across workouts", goal.Goal{Target: 100, MaxPerWeek: ptr(30)}, []float64{20, 20}, 30},
		{"week floor and cap", goal.Goal{Target: 100, MinPerWeek: ptr(10), MaxPerWeek: ptr(30)}, []float64{8, 12, 8, 8, 14}, 20},
		{"workout floor with day floor", goal.Goal{Target: 100, MinPerWorkout: ptr(10), MinPerDay: ptr(20)}, []float64{5, 20, 5, 20}, 15},
		{"high workout floor with day floor", goal.Goal{Target: 100, MinPerWorkout: ptr(20), MinPerDay: ptr(10)}, []float64{5, 30, 30}, 20},
		{"workout cap with day cap", goal.Goal{Target: 100, MaxPerWorkout: ptr(20), MaxPerDay: ptr(30)}, []float64{20, 25, 25, 25}, 30},
		{"day cap tighter than workout cap", goal.Goal{Target: 100, MaxPerWorkout: ptr(30), MaxPerDay: ptr(20)}, []float64{20, 25, 25, 25}, 20},
		{"workout floor swallows day cap", goal.Goal{Target: 100, MinPerWorkout: ptr(10), MaxPerDay: ptr(15)}, []float64{5, 5, 5, 5}, 0},
		{"workout floor with day cap", goal.Goal{Target: 100, MinPerWorkout: ptr(10), MaxPerDay: ptr(30)}, []float64{15, 35, 5, 15}, 30},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			scorer := NewScorer(tc.goal)
			total := 0.0
			for _, raw := range tc.raws {
				total += scorer.Score(raw, at)
			}
			if math.Abs(total-tc.want) > 1e-9 {
				t.Fatalf("total = %v, want %v", total, tc.want)
			}
		})
	}
}

func TestScorerDayRollover(t *testing.T) {
	t.Parallel()

	g := goal.Goal{Target: 100, MaxPerDay: ptr(30)}
	scorer := NewScorer(g)

	day1 := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	if got := scorer.Score(40, day1); got != 30 {
		t.Fatalf("day1 = %v, want 30", got)
	}
	if got := scorer.Score(40, day2); got != 30 {
		t.Fatalf("day2 after rollover = %v, want 30", got)
	}
}

func TestScorerWeekRollover(t *testing.T) {
	t.Parallel()

	g := goal.Goal{Target: 100, MaxPerWeek: ptr(50)}
	scorer := NewScorer(g)

	// Monday of ISO week 10 and Monday of ISO week 11.
	week1 := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	week2 := week1.AddDate(0, 0, 7)

	if got := scorer.Score(40, week1); got != 40 {
		t.Fatalf("first workout = %v, want 40", got)
	}
	if got := scorer.Score(40, week1.Add(24*time.Hour)); got != 10 {
		t.Fatalf("second workout same week = %v, want 10", got)
	}
	if got := scorer.Score(40, week2); got != 40 {
		t.Fatalf("workout after week rollover = %v, want 40", got)
	}
}

// The week accumulator is keyed by bare ISO week number, so the same week
// number one year later continues the old accumulator instead of resetting.
func TestScorerWeekKeyIgnoresYear(t *testing.T) {
	t.Parallel()

	g := goal.Goal{Target: 100, MaxPerWeek: ptr(50)}
	scorer := NewScorer(g)

	// Both timestamps fall in ISO week 11 of their respective years.
	year1 := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	year2 := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)

	if got := scorer.Score(40, year1); got != 40 {
		t.Fatalf("first year = %v, want 40", got)
	}
	if got := scorer.Score(40, year2); got != 10 {
		t.Fatalf("same week number next year = %v, want 10 (shared accumulator)", got)
	}
}

func TestScorerRerunDeterminism(t *testing.T) {
	t.Parallel()

	g := goal.Goal{
		Target:        100,
		MinPerWorkout: ptr(5),
		MaxPerDay:     ptr(40),
		MaxPerWeek:    ptr(120),
	}

	base := time.Date(2024, 6, 3, 7, 0, 0, 0, time.UTC)
	raws := []float64{12, 30, 8, 55, 3, 27, 41, 19}

	run := func() []float64 {
		scorer := NewScorer(g)
		out := make([]float64, 0, len(raws))
		for i, raw := range raws {
			out = append(out, scorer.Score(raw, base.Add(time.Duration(i*9)*time.Hour)))
		}
		return out
	}

	first := run()
	second := run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("rerun diverged at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestScorerThresholdsNormalizedByTarget(t *testing.T) {
	t.Parallel()

	// Target 50 with max_per_day 25 caps at 50 raw points per day.
	g := goal.Goal{Target: 50, MaxPerDay: ptr(25)}
	scorer := NewScorer(g)

	at := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	if got := scorer.Score(80, at); got != 50 {
		t.Fatalf("capped = %v, want 50", got)
	}
}
