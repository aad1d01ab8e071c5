package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/challengefit/workout-challenge/internal/domain/competition"
	"github.com/challengefit/workout-challenge/internal/domain/goal"
	basecache "github.com/challengefit/workout-challenge/internal/platform/cache"
)

type mockGoalRepo struct {
	mock.Mock
}

func (m *mockGoalRepo) Create(ctx context.Context, item goal.Goal) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockGoalRepo) GetByID(ctx context.Context, goalID string) (goal.Goal, bool, error) {
	args := m.Called(ctx, goalID)
	return args.Get(0).(goal.Goal), args.Bool(1), args.Error(2)
}

func (m *mockGoalRepo) Update(ctx context.Context, item goal.Goal) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockGoalRepo) ListByCompetition(ctx context.Context, competitionID string) ([]goal.Goal, error) {
	args := m.Called(ctx, competitionID)
	return args.Get(0).([]goal.Goal), args.Error(1)
}

func (m *mockGoalRepo) CreateAward(ctx context.Context, item goal.Award) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockGoalRepo) ListAwardsByCompetition(ctx context.Context, competitionID string) ([]goal.Award, error) {
	args := m.Called(ctx, competitionID)
	return args.Get(0).([]goal.Award), args.Error(1)
}

func TestGoalRepository_GetByIDCachesSecondRead(t *testing.T) {
	ctx := context.Background()
	inner := &mockGoalRepo{}
	inner.On("GetByID", mock.Anything, "gol-1").
		Return(goal.Goal{ID: "gol-1", CompetitionID: "cmp-1", Name: "Exercise"}, true, nil).
		Once()

	repo := NewGoalRepository(inner, basecache.NewStore(time.Minute))

	first, exists, err := repo.GetByID(ctx, "gol-1")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, "Exercise", first.Name)

	second, exists, err := repo.GetByID(ctx, "gol-1")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, first, second)

	inner.AssertExpectations(t)
}

func TestGoalRepository_UpdateInvalidatesCachedGoal(t *testing.T) {
	ctx := context.Background()
	inner := &mockGoalRepo{}
	inner.On("GetByID", mock.Anything, "gol-1").
		Return(goal.Goal{ID: "gol-1", CompetitionID: "cmp-1", Target: 30}, true, nil).
		Once()
	inner.On("Update", mock.Anything, mock.Anything).Return(nil).Once()
	inner.On("GetByID", mock.Anything, "gol-1").
		Return(goal.Goal{ID: "gol-1", CompetitionID: "cmp-1", Target: 45}, true, nil).
		Once()

	repo := NewGoalRepository(inner, basecache.NewStore(time.Minute))

	before, _, err := repo.GetByID(ctx, "gol-1")
	require.NoError(t, err)
	require.Equal(t, float64(30), before.Target)

	require.NoError(t, repo.Update(ctx, goal.Goal{ID: "gol-1", CompetitionID: "cmp-1", Target: 45}))

	after, _, err := repo.GetByID(ctx, "gol-1")
	require.NoError(t, err)
	require.Equal(t, float64(45), after.Target)

	inner.AssertExpectations(t)
}

type mockCompetitionRepo struct {
	mock.Mock
}

func (m *mockCompetitionRepo) Create(ctx context.Context, item competition.Competition) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockCompetitionRepo) GetByID(ctx context.Context, competitionID string) (competition.Competition, bool, error) {
	args := m.Called(ctx, competitionID)
	return args.Get(0).(competition.Competition), args.Bool(1), args.Error(2)
}

func (m *mockCompetitionRepo) GetByJoinCode(ctx context.Context, joinCode string) (competition.Competition, bool, error) {
	args := m.Called(ctx, joinCode)
	return args.Get(0).(competition.Competition), args.Bool(1), args.Error(2)
}

func (m *mockCompetitionRepo) Update(ctx context.Context, item competition.Competition) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockCompetitionRepo) ListByMember(ctx context.Context, userID string) ([]competition.Competition, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]competition.Competition), args.Error(1)
}

func (m *mockCompetitionRepo) AddMember(ctx context.Context, item competition.Membership) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockCompetitionRepo) RemoveMember(ctx context.Context, competitionID, userID string) error {
	return m.Called(ctx, competitionID, userID).Error(0)
}

func (m *mockCompetitionRepo) ListMemberIDs(ctx context.Context, competitionID string) ([]string, error) {
	args := m.Called(ctx, competitionID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockCompetitionRepo) ListMemberships(ctx context.Context, competitionID string) ([]competition.Membership, error) {
	args := m.Called(ctx, competitionID)
	return args.Get(0).([]competition.Membership), args.Error(1)
}

func (m *mockCompetitionRepo) CreateTeam(ctx context.Context, item competition.Team) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockCompetitionRepo) ListTeams(ctx context.Context, competitionID string) ([]competition.Team, error) {
	args := m.Called(ctx, competitionID)
	return args.Get(0).([]competition.Team), args.Error(1)
}

func (m *mockCompetitionRepo) AssignTeam(ctx context.Context, competitionID, userID, teamID string) error {
	return m.Called(ctx, competitionID, userID, teamID).Error(0)
}

func TestCompetitionRepository_AddMemberFlushesMemberLists(t *testing.T) {
	ctx := context.Background()
	inner := &mockCompetitionRepo{}
	inner.On("ListMemberIDs", mock.Anything, "cmp-1").Return([]string{"usr-a"}, nil).Once()
	inner.On("AddMember", mock.Anything, mock.Anything).Return(nil).Once()
	inner.On("ListMemberIDs", mock.Anything, "cmp-1").Return([]string{"usr-a", "usr-b"}, nil).Once()

	repo := NewCompetitionRepository(inner, basecache.NewStore(time.Minute))

	before, err := repo.ListMemberIDs(ctx, "cmp-1")
	require.NoError(t, err)
	require.Len(t, before, 1)

	require.NoError(t, repo.AddMember(ctx, competition.Membership{CompetitionID: "cmp-1", UserID: "usr-b"}))

	after, err := repo.ListMemberIDs(ctx, "cmp-1")
	require.NoError(t, err)
	require.Len(t, after, 2)

	inner.AssertExpectations(t)
}

func TestCompetitionRepository_JoinCodeKeyIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	inner := &mockCompetitionRepo{}
	inner.On("GetByJoinCode", mock.Anything, "SUMMERMO12345678").
		Return(competition.Competition{ID: "cmp-1", JoinCode: "SUMMERMO12345678"}, true, nil).
		Once()

	repo := NewCompetitionRepository(inner, basecache.NewStore(time.Minute))

	_, exists, err := repo.GetByJoinCode(ctx, "SUMMERMO12345678")
	require.NoError(t, err)
	require.True(t, exists)

	require.Equal(t, competitionByJoinCodeKey("summermo12345678"), competitionByJoinCodeKey(" SUMMERMO12345678 "))
}
