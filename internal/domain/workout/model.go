package workout

import "time"

const (
	SportSteps = "Steps"
	SportWalk  = "Walk"
	SportRun   = "Run"

	IntensityMin     = 1
	IntensityMax     = 4
	DefaultIntensity = 2
)

// Workout is a user-logged activity. Kcal, Distance (km) and Steps are
// optional; absent values are estimated at save time from MET tables.
type Workout struct {
	ID        string
	UserID    string
	Sport     string
	StartAt   time.Time
	Duration  time.Duration
	Intensity int
	Kcal      *float64
	Distance  *float64
	Steps     *int
	SourceID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StepDerived reports whether this workout was synthesized from a daily
// step count rather than logged directly.
func (w Workout) StepDerived() bool {
	return w.Steps != nil
}

func (w Workout) DurationMinutes() float64 {
	return w.Duration.Minutes()
}

func (w Workout) DurationHours() float64 {
	return w.Duration.Hours()
}
