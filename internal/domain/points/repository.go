package points

import (
	"context"
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/goal"
)

type Repository interface {
	// Create inserts a point row. A live row already covering the same
	// (goal, award, workout) is kept as-is and the insert is a no-op.
	Create(ctx context.Context, item Point) error
	ListByWorkout(ctx context.Context, workoutID string) ([]Point, error)
	// ListByUserGoalFrom returns a user's points for one goal with
	// workout_start_at >= from, ascending by workout_start_at.
	ListByUserGoalFrom(ctx context.Context, userID, goalID string, from time.Time) ([]Point, error)
	ListByGoal(ctx context.Context, goalID string) ([]Point, error)
	// ListByUserMetrics returns a user's points whose goal counts one of
	// the given metrics.
	ListByUserMetrics(ctx context.Context, userID string, metrics []goal.Metric) ([]Point, error)
	UpdateValues(ctx context.Context, pointID string, raw, capped float64) error
	UpdateCapped(ctx context.Context, pointID string, capped float64) error
	UpdateWorkoutStartAt(ctx context.Context, workoutID string, startAt time.Time) error
	DeleteByWorkout(ctx context.Context, workoutID string) error
	// DeleteByGoalStepWorkouts removes a goal's points that came from
	// step-derived workouts.
	DeleteByGoalStepWorkouts(ctx context.Context, goalID string) error
	// ListUserGoalPairsBefore returns the distinct (user, goal) pairs of a
	// competition with points strictly before the cutoff.
	ListUserGoalPairsBefore(ctx context.Context, competitionID string, cutoff time.Time) ([]UserGoalPair, error)
	DeleteByCompetitionBefore(ctx context.Context, competitionID string, cutoff time.Time) error
	DeleteByCompetitionOnOrAfter(ctx context.Context, competitionID string, cutoff time.Time) error
	DeleteByCompetitionUser(ctx context.Context, competitionID, userID string) error
}
