package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/challengefit/workout-challenge/internal/domain/goal"
)

type GoalRepository struct {
	mu     sync.RWMutex
	items  map[string]goal.Goal
	orders []string
	awards []goal.Award
}

func NewGoalRepository(goals []goal.Goal) *GoalRepository {
	items := make(map[string]goal.Goal, len(goals))
	orders := make([]string, 0, len(goals))
	for _, g := range goals {
		items[g.ID] = g
		orders = append(orders, g.ID)
	}

	return &GoalRepository{
		items:  items,
		orders: orders,
	}
}

func (r *GoalRepository) Create(_ context.Context, item goal.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		r.orders = append(r.orders, item.ID)
	}
	r.items[item.ID] = item
	return nil
}

func (r *GoalRepository) GetByID(_ context.Context, goalID string) (goal.Goal, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.items[goalID]
	if !ok {
		return goal.Goal{}, false, nil
	}

	return g, true, nil
}

func (r *GoalRepository) Update(_ context.Context, item goal.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		return fmt.Errorf("goal %s not found", item.ID)
	}
	r.items[item.ID] = item
	return nil
}

func (r *GoalRepository) ListByCompetition(_ context.Context, competitionID string) ([]goal.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []goal.Goal
	for _, id := range r.orders {
		if g := r.items[id]; g.CompetitionID == competitionID {
			out = append(out, g)
		}
	}

	return out, nil
}

func (r *GoalRepository) CreateAward(_ context.Context, item goal.Award) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.awards = append(r.awards, item)
	return nil
}

func (r *GoalRepository) ListAwardsByCompetition(_ context.Context, competitionID string) ([]goal.Award, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []goal.Award
	for _, a := range r.awards {
		if a.CompetitionID == competitionID {
			out = append(out, a)
		}
	}

	return out, nil
}
