package goal

import "time"

// Metric identifies which workout measurement a goal counts.
type Metric string

const (
	MetricMinutes  Metric = "min"
	MetricCount    Metric = "num"
	MetricKcal     Metric = "kcal"
	MetricKm       Metric = "km"
	MetricKilojoul Metric = "kj"
)

func (m Metric) Valid() bool {
	switch m {
	case MetricMinutes, MetricCount, MetricKcal, MetricKm, MetricKilojoul:
		return true
	default:
		return false
	}
}

type Period string

const (
	PeriodDay         Period = "day"
	PeriodWeek        Period = "week"
	PeriodMonth       Period = "month"
	PeriodYear        Period = "year"
	PeriodCompetition Period = "competition"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear, PeriodCompetition:
		return true
	default:
		return false
	}
}

// Goal awards normalized points toward a target per period. Threshold fields
// are expressed in absolute goal units (minutes, kcal, km, ...) and are nil
// when unset.
type Goal struct {
	ID                string
	CompetitionID     string
	Name              string
	Metric            Metric
	Target            float64
	Period            Period
	CountStepsAsWalks bool

	MinPerWorkout *float64
	MaxPerWorkout *float64
	MinPerDay     *float64
	MaxPerDay     *float64
	MinPerWeek    *float64
	MaxPerWeek    *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppliesTo reports whether a workout participates in this goal. Step-derived
// workouts only count when the goal opts in.
func (g Goal) AppliesTo(stepDerived bool) bool {
	return g.CountStepsAsWalks || !stepDerived
}

// Award is a one-off bonus definition owned by a competition. The scoring
// rule for awards is intentionally left to a separate evaluator.
type Award struct {
	ID            string
	CompetitionID string
	Name          string
	Sport         string
	Threshold     float64
	Period        Period
	RewardPoints  float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
