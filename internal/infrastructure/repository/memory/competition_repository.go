package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/challengefit/workout-challenge/internal/domain/competition"
)

type CompetitionRepository struct {
	mu          sync.RWMutex
	items       map[string]competition.Competition
	orders      []string
	memberships []competition.Membership
	teams       []competition.Team
}

func NewCompetitionRepository(competitions []competition.Competition) *CompetitionRepository {
	items := make(map[string]competition.Competition, len(competitions))
	orders := make([]string, 0, len(competitions))
	for _, c := range competitions {
		items[c.ID] = c
		orders = append(orders, c.ID)
	}

	return &CompetitionRepository{
		items:  items,
		orders: orders,
	}
}

func (r *CompetitionRepository) Create(_ context.Context, item competition.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		r.orders = append(r.orders, item.ID)
	}
	r.items[item.ID] = item
	return nil
}

func (r *CompetitionRepository) GetByID(_ context.Context, competitionID string) (competition.Competition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[competitionID]
	if !ok {
		return competition.Competition{}, false, nil
	}

	return c, true, nil
}

func (r *CompetitionRepository) GetByJoinCode(_ context.Context, joinCode string) (competition.Competition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.orders {
		if c := r.items[id]; c.JoinCode == joinCode {
			return c, true, nil
		}
	}

	return competition.Competition{}, false, nil
}

func (r *CompetitionRepository) Update(_ context.Context, item competition.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		return fmt.Errorf("competition %s not found", item.ID)
	}
	r.items[item.ID] = item
	return nil
}

func (r *CompetitionRepository) ListByMember(_ context.Context, userID string) ([]competition.Competition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	member := make(map[string]struct{})
	for _, m := range r.memberships {
		if m.UserID == userID {
			member[m.CompetitionID] = struct{}{}
		}
	}

	out := make([]competition.Competition, 0, len(member))
	for _, id := range r.orders {
		if _, ok := member[id]; ok {
			out = append(out, r.items[id])
		}
	}

	return out, nil
}

func (r *CompetitionRepository) AddMember(_ context.Context, item competition.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.memberships {
		if m.CompetitionID == item.CompetitionID && m.UserID == item.UserID {
			return nil
		}
	}
	r.memberships = append(r.memberships, item)
	return nil
}

func (r *CompetitionRepository) RemoveMember(_ context.Context, competitionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.memberships[:0]
	for _, m := range r.memberships {
		if m.CompetitionID == competitionID && m.UserID == userID {
			continue
		}
		kept = append(kept, m)
	}
	r.memberships = kept
	return nil
}

func (r *CompetitionRepository) ListMemberIDs(_ context.Context, competitionID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, m := range r.memberships {
		if m.CompetitionID == competitionID {
			out = append(out, m.UserID)
		}
	}

	return out, nil
}

func (r *CompetitionRepository) ListMemberships(_ context.Context, competitionID string) ([]competition.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []competition.Membership
	for _, m := range r.memberships {
		if m.CompetitionID == competitionID {
			out = append(out, m)
		}
	}

	return out, nil
}

func (r *CompetitionRepository) CreateTeam(_ context.Context, item competition.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.teams = append(r.teams, item)
	return nil
}

func (r *CompetitionRepository) ListTeams(_ context.Context, competitionID string) ([]competition.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []competition.Team
	for _, t := range r.teams {
		if t.CompetitionID == competitionID {
			out = append(out, t)
		}
	}

	return out, nil
}

func (r *CompetitionRepository) AssignTeam(_ context.Context, competitionID, userID, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, m := range r.memberships {
		if m.CompetitionID == competitionID && m.UserID == userID {
			r.memberships[i].TeamID = teamID
			return nil
		}
	}

	return fmt.Errorf("membership for user %s not found", userID)
}
