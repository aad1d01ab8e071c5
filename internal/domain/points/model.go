package points

import "time"

// Point is one workout's contribution to one goal (or award). Raw is the
// normalized value from the metric normalizer; Capped is owned by the
// windowed scorer and provisionally equals Raw until the next recalculation.
type Point struct {
	ID             string
	GoalID         string
	AwardID        string
	WorkoutID      string
	UserID         string
	WorkoutStartAt time.Time
	Raw            float64
	Capped         float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserGoalPair identifies an independent rescoring sequence.
type UserGoalPair struct {
	UserID string
	GoalID string
}
