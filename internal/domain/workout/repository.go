package workout

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, item Workout) error
	GetByID(ctx context.Context, workoutID string) (Workout, bool, error)
	Update(ctx context.Context, item Workout) error
	Delete(ctx context.Context, workoutID string) error
	ListByUser(ctx context.Context, userID string) ([]Workout, error)
	// ListByUsersBetween returns workouts with from <= start_at < to,
	// ascending by start_at.
	ListByUsersBetween(ctx context.Context, userIDs []string, from, to time.Time) ([]Workout, error)
	// GetStepWorkout returns the synthesized daily-steps workout for a
	// calendar day, if any.
	GetStepWorkout(ctx context.Context, userID string, day time.Time) (Workout, bool, error)
	// SumDurationByUserDaySport sums recorded durations per sport for one
	// calendar day.
	SumDurationByUserDaySport(ctx context.Context, userID string, day time.Time, sports []string) (map[string]time.Duration, error)
}
