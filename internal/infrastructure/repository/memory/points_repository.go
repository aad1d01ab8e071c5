package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/goal"
	"github.com/challengefit/workout-challenge/internal/domain/points"
)

// PointsRepository resolves goal and workout lookups through the sibling
// in-memory repositories, standing in for the SQL joins of the postgres
// implementation.
type PointsRepository struct {
	mu       sync.RWMutex
	items    []points.Point
	goals    *GoalRepository
	workouts *WorkoutRepository
}

func NewPointsRepository(goals *GoalRepository, workouts *WorkoutRepository) *PointsRepository {
	return &PointsRepository{goals: goals, workouts: workouts}
}

func (r *PointsRepository) Create(_ context.Context, item points.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.GoalID == item.GoalID && existing.AwardID == item.AwardID && existing.WorkoutID == item.WorkoutID {
			return nil
		}
	}
	r.items = append(r.items, item)
	return nil
}

func (r *PointsRepository) ListByWorkout(_ context.Context, workoutID string) ([]points.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []points.Point
	for _, p := range r.items {
		if p.WorkoutID == workoutID {
			out = append(out, p)
		}
	}

	return out, nil
}

func (r *PointsRepository) ListByUserGoalFrom(_ context.Context, userID, goalID string, from time.Time) ([]points.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []points.Point
	for _, p := range r.items {
		if p.UserID == userID && p.GoalID == goalID && !p.WorkoutStartAt.Before(from) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkoutStartAt.Before(out[j].WorkoutStartAt) })

	return out, nil
}

func (r *PointsRepository) ListByGoal(_ context.Context, goalID string) ([]points.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []points.Point
	for _, p := range r.items {
		if p.GoalID == goalID {
			out = append(out, p)
		}
	}

	return out, nil
}

func (r *PointsRepository) ListByUserMetrics(ctx context.Context, userID string, metrics []goal.Metric) ([]points.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[goal.Metric]struct{}, len(metrics))
	for _, m := range metrics {
		wanted[m] = struct{}{}
	}

	var out []points.Point
	for _, p := range r.items {
		if p.UserID != userID {
			continue
		}
		g, ok, _ := r.goals.GetByID(ctx, p.GoalID)
		if !ok {
			continue
		}
		if _, ok := wanted[g.Metric]; ok {
			out = append(out, p)
		}
	}

	return out, nil
}

func (r *PointsRepository) UpdateValues(_ context.Context, pointID string, raw, capped float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == pointID {
			r.items[i].Raw = raw
			r.items[i].Capped = capped
			return nil
		}
	}

	return fmt.Errorf("point %s not found", pointID)
}

func (r *PointsRepository) UpdateCapped(_ context.Context, pointID string, capped float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == pointID {
			r.items[i].Capped = capped
			return nil
		}
	}

	return fmt.Errorf("point %s not found", pointID)
}

func (r *PointsRepository) UpdateWorkoutStartAt(_ context.Context, workoutID string, startAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].WorkoutID == workoutID {
			r.items[i].WorkoutStartAt = startAt
		}
	}

	return nil
}

func (r *PointsRepository) DeleteByWorkout(_ context.Context, workoutID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.items[:0]
	for _, p := range r.items {
		if p.WorkoutID != workoutID {
			kept = append(kept, p)
		}
	}
	r.items = kept
	return nil
}

func (r *PointsRepository) DeleteByGoalStepWorkouts(ctx context.Context, goalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.items[:0]
	for _, p := range r.items {
		if p.GoalID == goalID {
			if w, ok, _ := r.workouts.GetByID(ctx, p.WorkoutID); ok && w.StepDerived() {
				continue
			}
		}
		kept = append(kept, p)
	}
	r.items = kept
	return nil
}

func (r *PointsRepository) ListUserGoalPairsBefore(ctx context.Context, competitionID string, cutoff time.Time) ([]points.UserGoalPair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[points.UserGoalPair]struct{})
	var out []points.UserGoalPair
	for _, p := range r.items {
		if !r.inCompetition(ctx, p, competitionID) || !p.WorkoutStartAt.Before(cutoff) {
			continue
		}
		pair := points.UserGoalPair{UserID: p.UserID, GoalID: p.GoalID}
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		out = append(out, pair)
	}

	return out, nil
}

func (r *PointsRepository) DeleteByCompetitionBefore(ctx context.Context, competitionID string, cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.items[:0]
	for _, p := range r.items {
		if r.inCompetition(ctx, p, competitionID) && p.WorkoutStartAt.Before(cutoff) {
			continue
		}
		kept = append(kept, p)
	}
	r.items = kept
	return nil
}

func (r *PointsRepository) DeleteByCompetitionOnOrAfter(ctx context.Context, competitionID string, cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.items[:0]
	for _, p := range r.items {
		if r.inCompetition(ctx, p, competitionID) && !p.WorkoutStartAt.Before(cutoff) {
			continue
		}
		kept = append(kept, p)
	}
	r.items = kept
	return nil
}

func (r *PointsRepository) DeleteByCompetitionUser(ctx context.Context, competitionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.items[:0]
	for _, p := range r.items {
		if p.UserID == userID && r.inCompetition(ctx, p, competitionID) {
			continue
		}
		kept = append(kept, p)
	}
	r.items = kept
	return nil
}

func (r *PointsRepository) inCompetition(ctx context.Context, p points.Point, competitionID string) bool {
	g, ok, _ := r.goals.GetByID(ctx, p.GoalID)
	return ok && g.CompetitionID == competitionID
}
