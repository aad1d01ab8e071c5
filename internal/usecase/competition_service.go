package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/changeset"
	"github.com/challengefit/workout-challenge/internal/domain/competition"
	"github.com/challengefit/workout-challenge/internal/domain/goal"
	idgen "github.com/challengefit/workout-challenge/internal/platform/id"
)

const joinCodeAttempts = 5

type CompetitionInput struct {
	Name                  string
	StartDate             time.Time
	EndDate               time.Time
	HasTeams              bool
	OrganizerAssignsTeams bool
}

type CompetitionService struct {
	competitionRepo competition.Repository
	goalRepo        goal.Repository
	consistency     *ConsistencyService
	ids             idgen.Generator
	logger          *slog.Logger
	now             func() time.Time
}

func NewCompetitionService(
	competitionRepo competition.Repository,
	goalRepo goal.Repository,
	consistency *ConsistencyService,
	ids idgen.Generator,
	logger *slog.Logger,
) *CompetitionService {
	if logger == nil {
		logger = slog.Default()
	}

	return &CompetitionService{
		competitionRepo: competitionRepo,
		goalRepo:        goalRepo,
		consistency:     consistency,
		ids:             ids,
		logger:          logger,
		now:             time.Now,
	}
}

// Create sets up a competition with a unique join code and the two default
// goals. The owner joins before the goals exist so goal backfill covers
// their workouts.
func (s *CompetitionService) Create(ctx context.Context, ownerID string, input CompetitionInput) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.Create")
	defer span.End()

	if err := validateCompetitionInput(input); err != nil {
		return competition.Competition{}, err
	}

	competitionID, err := s.ids.NewID()
	if err != nil {
		return competition.Competition{}, fmt.Errorf("generate competition id: %w", err)
	}

	joinCode, err := s.uniqueJoinCode(ctx, input.Name, ownerID)
	if err != nil {
		return competition.Competition{}, err
	}

	now := s.now().UTC()
	item := competition.Competition{
		ID:                    competitionID,
		OwnerID:               ownerID,
		Name:                  input.Name,
		StartDate:             truncateToDay(input.StartDate),
		EndDate:               truncateToDay(input.EndDate),
		HasTeams:              input.HasTeams,
		OrganizerAssignsTeams: input.OrganizerAssignsTeams,
		JoinCode:              joinCode,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.competitionRepo.Create(ctx, item); err != nil {
		return competition.Competition{}, fmt.Errorf("create competition: %w", err)
	}

	if err := s.competitionRepo.AddMember(ctx, competition.Membership{
		CompetitionID: item.ID,
		UserID:        ownerID,
		JoinedAt:      now,
	}); err != nil {
		return competition.Competition{}, fmt.Errorf("add owner membership: %w", err)
	}
	if err := s.consistency.MembershipAdded(ctx, item, ownerID); err != nil {
		return competition.Competition{}, err
	}

	for _, g := range defaultGoals(item.ID) {
		goalID, err := s.ids.NewID()
		if err != nil {
			return competition.Competition{}, fmt.Errorf("generate goal id: %w", err)
		}
		g.ID = goalID
		g.CreatedAt = now
		g.UpdatedAt = now
		if err := s.goalRepo.Create(ctx, g); err != nil {
			return competition.Competition{}, fmt.Errorf("create default goal %s: %w", g.Name, err)
		}
		if err := s.consistency.GoalCreated(ctx, g); err != nil {
			return competition.Competition{}, err
		}
	}
	return item, nil
}

func (s *CompetitionService) Update(ctx context.Context, ownerID, competitionID string, input CompetitionInput) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.Update")
	defer span.End()

	if err := validateCompetitionInput(input); err != nil {
		return competition.Competition{}, err
	}

	before, err := s.requireOwned(ctx, ownerID, competitionID)
	if err != nil {
		return competition.Competition{}, err
	}

	after := before
	after.Name = input.Name
	after.StartDate = truncateToDay(input.StartDate)
	after.EndDate = truncateToDay(input.EndDate)
	after.HasTeams = input.HasTeams
	after.OrganizerAssignsTeams = input.OrganizerAssignsTeams
	after.UpdatedAt = s.now().UTC()

	if err := s.competitionRepo.Update(ctx, after); err != nil {
		return competition.Competition{}, fmt.Errorf("update competition: %w", err)
	}

	changes := changeset.Track(before, after).Without("UpdatedAt")
	if err := s.consistency.CompetitionUpdated(ctx, after, changes); err != nil {
		return competition.Competition{}, err
	}
	return after, nil
}

func (s *CompetitionService) Get(ctx context.Context, competitionID string) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.Get")
	defer span.End()

	item, ok, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("get competition: %w", err)
	}
	if !ok {
		return competition.Competition{}, fmt.Errorf("%w: competition %s", ErrNotFound, competitionID)
	}
	return item, nil
}

func (s *CompetitionService) ListMine(ctx context.Context, userID string) ([]competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.ListMine")
	defer span.End()

	items, err := s.competitionRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	return items, nil
}

func (s *CompetitionService) Join(ctx context.Context, userID, joinCode string) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.Join")
	defer span.End()

	code := strings.ToUpper(strings.TrimSpace(joinCode))
	if code == "" {
		return competition.Competition{}, fmt.Errorf("%w: join code is required", ErrInvalidInput)
	}

	item, ok, err := s.competitionRepo.GetByJoinCode(ctx, code)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("get competition by join code: %w", err)
	}
	if !ok {
		return competition.Competition{}, fmt.Errorf("%w: join code %s", ErrNotFound, code)
	}

	memberIDs, err := s.competitionRepo.ListMemberIDs(ctx, item.ID)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("list members: %w", err)
	}
	for _, memberID := range memberIDs {
		if memberID == userID {
			return item, nil
		}
	}

	if err := s.competitionRepo.AddMember(ctx, competition.Membership{
		CompetitionID: item.ID,
		UserID:        userID,
		JoinedAt:      s.now().UTC(),
	}); err != nil {
		return competition.Competition{}, fmt.Errorf("add membership: %w", err)
	}
	if err := s.consistency.MembershipAdded(ctx, item, userID); err != nil {
		return competition.Competition{}, err
	}
	return item, nil
}

func (s *CompetitionService) Leave(ctx context.Context, userID, competitionID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.Leave")
	defer span.End()

	item, ok, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return fmt.Errorf("get competition: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: competition %s", ErrNotFound, competitionID)
	}

	if err := s.competitionRepo.RemoveMember(ctx, competitionID, userID); err != nil {
		return fmt.Errorf("remove membership: %w", err)
	}
	return s.consistency.MembershipRemoved(ctx, item, userID)
}

func (s *CompetitionService) CreateTeam(ctx context.Context, ownerID, competitionID, name string) (competition.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.CreateTeam")
	defer span.End()

	if strings.TrimSpace(name) == "" {
		return competition.Team{}, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}

	item, err := s.requireOwned(ctx, ownerID, competitionID)
	if err != nil {
		return competition.Team{}, err
	}
	if !item.HasTeams {
		return competition.Team{}, fmt.Errorf("%w: competition has no teams", ErrInvalidInput)
	}

	teamID, err := s.ids.NewID()
	if err != nil {
		return competition.Team{}, fmt.Errorf("generate team id: %w", err)
	}
	team := competition.Team{
		ID:            teamID,
		CompetitionID: competitionID,
		Name:          name,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.competitionRepo.CreateTeam(ctx, team); err != nil {
		return competition.Team{}, fmt.Errorf("create team: %w", err)
	}
	return team, nil
}

func (s *CompetitionService) ListTeams(ctx context.Context, competitionID string) ([]competition.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.ListTeams")
	defer span.End()

	teams, err := s.competitionRepo.ListTeams(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

// AssignTeam puts a member on a team. When the organizer assigns teams only
// the owner may call this; otherwise members may pick their own team.
func (s *CompetitionService) AssignTeam(ctx context.Context, actorID, competitionID, userID, teamID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.AssignTeam")
	defer span.End()

	item, ok, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return fmt.Errorf("get competition: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: competition %s", ErrNotFound, competitionID)
	}
	if !item.HasTeams {
		return fmt.Errorf("%w: competition has no teams", ErrInvalidInput)
	}
	if item.OrganizerAssignsTeams && actorID != item.OwnerID {
		return fmt.Errorf("%w: only the organizer assigns teams", ErrUnauthorized)
	}
	if !item.OrganizerAssignsTeams && actorID != userID && actorID != item.OwnerID {
		return fmt.Errorf("%w: members pick their own team", ErrUnauthorized)
	}

	if err := s.competitionRepo.AssignTeam(ctx, competitionID, userID, teamID); err != nil {
		return fmt.Errorf("assign team: %w", err)
	}
	return nil
}

func (s *CompetitionService) requireOwned(ctx context.Context, ownerID, competitionID string) (competition.Competition, error) {
	item, ok, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("get competition: %w", err)
	}
	if !ok {
		return competition.Competition{}, fmt.Errorf("%w: competition %s", ErrNotFound, competitionID)
	}
	if item.OwnerID != ownerID {
		return competition.Competition{}, fmt.Errorf("%w: competition %s", ErrUnauthorized, competitionID)
	}
	return item, nil
}

func (s *CompetitionService) uniqueJoinCode(ctx context.Context, name, ownerID string) (string, error) {
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		code, err := competition.NewJoinCode(name, ownerID)
		if err != nil {
			return "", fmt.Errorf("generate join code: %w", err)
		}
		_, taken, err := s.competitionRepo.GetByJoinCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check join code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("exhausted %d join code attempts", joinCodeAttempts)
}

// defaultGoals mirrors the activity-ring style defaults every competition
// starts with.
func defaultGoals(competitionID string) []goal.Goal {
	exerciseMaxDay, exerciseMaxWeek := 60.0, 240.0
	moveMaxDay, moveMaxWeek := 1000.0, 3000.0

	return []goal.Goal{
		{
			CompetitionID:     competitionID,
			Name:              "Exercise",
			Metric:            goal.MetricMinutes,
			Target:            150,
			Period:            goal.PeriodWeek,
			CountStepsAsWalks: true,
			MaxPerDay:         &exerciseMaxDay,
			MaxPerWeek:        &exerciseMaxWeek,
		},
		{
			CompetitionID:     competitionID,
			Name:              "Move",
			Metric:            goal.MetricKcal,
			Target:            1800,
			Period:            goal.PeriodWeek,
			CountStepsAsWalks: true,
			MaxPerDay:         &moveMaxDay,
			MaxPerWeek:        &moveMaxWeek,
		},
	}
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func validateCompetitionInput(input CompetitionInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidInput)
	}
	if input.EndDate.Before(input.StartDate) {
		return fmt.Errorf("%w: end date is before start date", ErrInvalidInput)
	}
	if input.OrganizerAssignsTeams && !input.HasTeams {
		return fmt.Errorf("%w: organizer team assignment requires teams", ErrInvalidInput)
	}
	return nil
}
