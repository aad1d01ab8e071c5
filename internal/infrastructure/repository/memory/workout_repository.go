package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/workout"
)

type WorkoutRepository struct {
	mu     sync.RWMutex
	items  map[string]workout.Workout
	orders []string
}

func NewWorkoutRepository(workouts []workout.Workout) *WorkoutRepository {
	items := make(map[string]workout.Workout, len(workouts))
	orders := make([]string, 0, len(workouts))
	for _, w := range workouts {
		items[w.ID] = w
		orders = append(orders, w.ID)
	}

	return &WorkoutRepository{
		items:  items,
		orders: orders,
	}
}

func (r *WorkoutRepository) Create(_ context.Context, item workout.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		r.orders = append(r.orders, item.ID)
	}
	r.items[item.ID] = item
	return nil
}

func (r *WorkoutRepository) GetByID(_ context.Context, workoutID string) (workout.Workout, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.items[workoutID]
	if !ok {
		return workout.Workout{}, false, nil
	}

	return w, true, nil
}

func (r *WorkoutRepository) Update(_ context.Context, item workout.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		return fmt.Errorf("workout %s not found", item.ID)
	}
	r.items[item.ID] = item
	return nil
}

func (r *WorkoutRepository) Delete(_ context.Context, workoutID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, workoutID)
	kept := r.orders[:0]
	for _, id := range r.orders {
		if id != workoutID {
			kept = append(kept, id)
		}
	}
	r.orders = kept
	return nil
}

func (r *WorkoutRepository) ListByUser(_ context.Context, userID string) ([]workout.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []workout.Workout
	for _, id := range r.orders {
		if w := r.items[id]; w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })

	return out, nil
}

func (r *WorkoutRepository) ListByUsersBetween(_ context.Context, userIDs []string, from, to time.Time) ([]workout.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(userIDs))
	for _, userID := range userIDs {
		wanted[userID] = struct{}{}
	}

	var out []workout.Workout
	for _, id := range r.orders {
		w := r.items[id]
		if _, ok := wanted[w.UserID]; !ok {
			continue
		}
		if w.StartAt.Before(from) || !w.StartAt.Before(to) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })

	return out, nil
}

func (r *WorkoutRepository) GetStepWorkout(_ context.Context, userID string, day time.Time) (workout.Workout, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	day = day.UTC()
	for _, id := range r.orders {
		w := r.items[id]
		if w.UserID != userID || !w.StepDerived() {
			continue
		}
		at := w.StartAt.UTC()
		if at.Year() == day.Year() && at.YearDay() == day.YearDay() {
			return w, true, nil
		}
	}

	return workout.Workout{}, false, nil
}

func (r *WorkoutRepository) SumDurationByUserDaySport(_ context.Context, userID string, day time.Time, sports []string) (map[string]time.Duration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(sports))
	for _, sport := range sports {
		wanted[sport] = struct{}{}
	}

	day = day.UTC()
	out := make(map[string]time.Duration, len(sports))
	for _, id := range r.orders {
		w := r.items[id]
		if w.UserID != userID || w.StepDerived() {
			continue
		}
		if _, ok := wanted[w.Sport]; !ok {
			continue
		}
		at := w.StartAt.UTC()
		if at.Year() == day.Year() && at.YearDay() == day.YearDay() {
			out[w.Sport] += w.Duration
		}
	}

	return out, nil
}
