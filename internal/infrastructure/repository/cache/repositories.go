package cache

import (
	"context"
	"strings"

	"github.com/challengefit/workout-challenge/internal/domain/competition"
	"github.com/challengefit/workout-challenge/internal/domain/goal"
	basecache "github.com/challengefit/workout-challenge/internal/platform/cache"
)

// GoalRepository caches goal and award reads. Goal definitions are read on
// every scoring replay and standings request but change rarely, so writes
// just drop the affected keys.
type GoalRepository struct {
	next  goal.Repository
	cache *basecache.Store
}

func NewGoalRepository(next goal.Repository, cache *basecache.Store) *GoalRepository {
	return &GoalRepository{next: next, cache: cache}
}

func (r *GoalRepository) Create(ctx context.Context, item goal.Goal) error {
	if err := r.next.Create(ctx, item); err != nil {
		return err
	}
	r.cache.Delete(ctx, goalListKey(item.CompetitionID))
	return nil
}

func (r *GoalRepository) GetByID(ctx context.Context, goalID string) (goal.Goal, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, goalByIDKey(goalID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, goalID)
		if err != nil {
			return nil, err
		}
		return cachedGoalByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return goal.Goal{}, false, err
	}

	cached, _ := v.(cachedGoalByID)
	return cached.value, cached.exists, nil
}

func (r *GoalRepository) Update(ctx context.Context, item goal.Goal) error {
	if err := r.next.Update(ctx, item); err != nil {
		return err
	}
	r.cache.Delete(ctx, goalByIDKey(item.ID))
	r.cache.Delete(ctx, goalListKey(item.CompetitionID))
	return nil
}

func (r *GoalRepository) ListByCompetition(ctx context.Context, competitionID string) ([]goal.Goal, error) {
	v, err := r.cache.GetOrLoad(ctx, goalListKey(competitionID), func(ctx context.Context) (any, error) {
		items, err := r.next.ListByCompetition(ctx, competitionID)
		if err != nil {
			return nil, err
		}
		return append([]goal.Goal(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]goal.Goal)
	return append([]goal.Goal(nil), items...), nil
}

func (r *GoalRepository) CreateAward(ctx context.Context, item goal.Award) error {
	if err := r.next.CreateAward(ctx, item); err != nil {
		return err
	}
	r.cache.Delete(ctx, awardListKey(item.CompetitionID))
	return nil
}

func (r *GoalRepository) ListAwardsByCompetition(ctx context.Context, competitionID string) ([]goal.Award, error) {
	v, err := r.cache.GetOrLoad(ctx, awardListKey(competitionID), func(ctx context.Context) (any, error) {
		items, err := r.next.ListAwardsByCompetition(ctx, competitionID)
		if err != nil {
			return nil, err
		}
		return append([]goal.Award(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]goal.Award)
	return append([]goal.Award(nil), items...), nil
}

type cachedGoalByID struct {
	value  goal.Goal
	exists bool
}

func goalByIDKey(goalID string) string {
	return "goal:id:" + goalID
}

func goalListKey(competitionID string) string {
	return "goal:list:" + competitionID
}

func awardListKey(competitionID string) string {
	return "award:list:" + competitionID
}

// CompetitionRepository caches competition metadata and membership lists.
// Membership writes flush the member keys for the competition and the
// per-user competition lists.
type CompetitionRepository struct {
	next  competition.Repository
	cache *basecache.Store
}

func NewCompetitionRepository(next competition.Repository, cache *basecache.Store) *CompetitionRepository {
	return &CompetitionRepository{next: next, cache: cache}
}

func (r *CompetitionRepository) Create(ctx context.Context, item competition.Competition) error {
	if err := r.next.Create(ctx, item); err != nil {
		return err
	}
	r.cache.Delete(ctx, competitionByJoinCodeKey(item.JoinCode))
	return nil
}

func (r *CompetitionRepository) GetByID(ctx context.Context, competitionID string) (competition.Competition, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, competitionByIDKey(competitionID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, competitionID)
		if err != nil {
			return nil, err
		}
		return cachedCompetitionByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return competition.Competition{}, false, err
	}

	cached, _ := v.(cachedCompetitionByID)
	return cached.value, cached.exists, nil
}

func (r *CompetitionRepository) GetByJoinCode(ctx context.Context, joinCode string) (competition.Competition, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, competitionByJoinCodeKey(joinCode), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByJoinCode(ctx, joinCode)
		if err != nil {
			return nil, err
		}
		return cachedCompetitionByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return competition.Competition{}, false, err
	}

	cached, _ := v.(cachedCompetitionByID)
	return cached.value, cached.exists, nil
}

func (r *CompetitionRepository) Update(ctx context.Context, item competition.Competition) error {
	if err := r.next.Update(ctx, item); err != nil {
		return err
	}
	r.cache.Delete(ctx, competitionByIDKey(item.ID))
	r.cache.Delete(ctx, competitionByJoinCodeKey(item.JoinCode))
	r.cache.DeletePrefix(ctx, competitionListByMemberPrefix)
	return nil
}

func (r *CompetitionRepository) ListByMember(ctx context.Context, userID string) ([]competition.Competition, error) {
	v, err := r.cache.GetOrLoad(ctx, competitionListByMemberKey(userID), func(ctx context.Context) (any, error) {
		items, err := r.next.ListByMember(ctx, userID)
		if err != nil {
			return nil, err
		}
		return append([]competition.Competition(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]competition.Competition)
	return append([]competition.Competition(nil), items...), nil
}

func (r *CompetitionRepository) AddMember(ctx context.Context, item competition.Membership) error {
	if err := r.next.AddMember(ctx, item); err != nil {
		return err
	}
	r.flushMembers(ctx, item.CompetitionID, item.UserID)
	return nil
}

func (r *CompetitionRepository) RemoveMember(ctx context.Context, competitionID, userID string) error {
	if err := r.next.RemoveMember(ctx, competitionID, userID); err != nil {
		return err
	}
	r.flushMembers(ctx, competitionID, userID)
	return nil
}

func (r *CompetitionRepository) ListMemberIDs(ctx context.Context, competitionID string) ([]string, error) {
	v, err := r.cache.GetOrLoad(ctx, memberIDsKey(competitionID), func(ctx context.Context) (any, error) {
		items, err := r.next.ListMemberIDs(ctx, competitionID)
		if err != nil {
			return nil, err
		}
		return append([]string(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]string)
	return append([]string(nil), items...), nil
}

func (r *CompetitionRepository) ListMemberships(ctx context.Context, competitionID string) ([]competition.Membership, error) {
	v, err := r.cache.GetOrLoad(ctx, membershipsKey(competitionID), func(ctx context.Context) (any, error) {
		items, err := r.next.ListMemberships(ctx, competitionID)
		if err != nil {
			return nil, err
		}
		return append([]competition.Membership(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]competition.Membership)
	return append([]competition.Membership(nil), items...), nil
}

func (r *CompetitionRepository) CreateTeam(ctx context.Context, item competition.Team) error {
	if err := r.next.CreateTeam(ctx, item); err != nil {
		return err
	}
	r.cache.Delete(ctx, teamsKey(item.CompetitionID))
	return nil
}

func (r *CompetitionRepository) ListTeams(ctx context.Context, competitionID string) ([]competition.Team, error) {
	v, err := r.cache.GetOrLoad(ctx, teamsKey(competitionID), func(ctx context.Context) (any, error) {
		items, err := r.next.ListTeams(ctx, competitionID)
		if err != nil {
			return nil, err
		}
		return append([]competition.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]competition.Team)
	return append([]competition.Team(nil), items...), nil
}

func (r *CompetitionRepository) AssignTeam(ctx context.Context, competitionID, userID, teamID string) error {
	if err := r.next.AssignTeam(ctx, competitionID, userID, teamID); err != nil {
		return err
	}
	r.flushMembers(ctx, competitionID, userID)
	return nil
}

func (r *CompetitionRepository) flushMembers(ctx context.Context, competitionID, userID string) {
	r.cache.Delete(ctx, memberIDsKey(competitionID))
	r.cache.Delete(ctx, membershipsKey(competitionID))
	r.cache.Delete(ctx, competitionListByMemberKey(userID))
}

type cachedCompetitionByID struct {
	value  competition.Competition
	exists bool
}

const competitionListByMemberPrefix = "competition:list:member:"

func competitionByIDKey(competitionID string) string {
	return "competition:id:" + competitionID
}

func competitionByJoinCodeKey(joinCode string) string {
	return "competition:join-code:" + strings.ToUpper(strings.TrimSpace(joinCode))
}

func competitionListByMemberKey(userID string) string {
	return competitionListByMemberPrefix + userID
}

func memberIDsKey(competitionID string) string {
	return "competition:member-ids:" + competitionID
}

func membershipsKey(competitionID string) string {
	return "competition:memberships:" + competitionID
}

func teamsKey(competitionID string) string {
	return "competition:teams:" + competitionID
}
