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

type GoalInput struct {
	Name              string
	Metric            goal.Metric
	Target            float64
	Period            goal.Period
	CountStepsAsWalks bool

	MinPerWorkout *float64
	MaxPerWorkout *float64
	MinPerDay     *float64
	MaxPerDay     *float64
	MinPerWeek    *float64
	MaxPerWeek    *float64
}

type AwardInput struct {
	Name         string
	Sport        string
	Threshold    float64
	Period       goal.Period
	RewardPoints float64
}

type GoalService struct {
	goalRepo        goal.Repository
	competitionRepo competition.Repository
	consistency     *ConsistencyService
	ids             idgen.Generator
	logger          *slog.Logger
	now             func() time.Time
}

func NewGoalService(
	goalRepo goal.Repository,
	competitionRepo competition.Repository,
	consistency *ConsistencyService,
	ids idgen.Generator,
	logger *slog.Logger,
) *GoalService {
	if logger == nil {
		logger = slog.Default()
	}

	return &GoalService{
		goalRepo:        goalRepo,
		competitionRepo: competitionRepo,
		consistency:     consistency,
		ids:             ids,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *GoalService) Create(ctx context.Context, actorID, competitionID string, input GoalInput) (goal.Goal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GoalService.Create")
	defer span.End()

	if err := validateGoalInput(input); err != nil {
		return goal.Goal{}, err
	}
	if _, err := s.requireOwned(ctx, actorID, competitionID); err != nil {
		return goal.Goal{}, err
	}

	goalID, err := s.ids.NewID()
	if err != nil {
		return goal.Goal{}, fmt.Errorf("generate goal id: %w", err)
	}

	now := s.now().UTC()
	item := goal.Goal{
		ID:                goalID,
		CompetitionID:     competitionID,
		Name:              input.Name,
		Metric:            input.Metric,
		Target:            input.Target,
		Period:            input.Period,
		CountStepsAsWalks: input.CountStepsAsWalks,
		MinPerWorkout:     input.MinPerWorkout,
		MaxPerWorkout:     input.MaxPerWorkout,
		MinPerDay:         input.MinPerDay,
		MaxPerDay:         input.MaxPerDay,
		MinPerWeek:        input.MinPerWeek,
		MaxPerWeek:        input.MaxPerWeek,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.goalRepo.Create(ctx, item); err != nil {
		return goal.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	if err := s.consistency.GoalCreated(ctx, item); err != nil {
		return goal.Goal{}, err
	}
	return item, nil
}

func (s *GoalService) Update(ctx context.Context, actorID, goalID string, input GoalInput) (goal.Goal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GoalService.Update")
	defer span.End()

	if err := validateGoalInput(input); err != nil {
		return goal.Goal{}, err
	}

	before, ok, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return goal.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	if !ok {
		return goal.Goal{}, fmt.Errorf("%w: goal %s", ErrNotFound, goalID)
	}
	if _, err := s.requireOwned(ctx, actorID, before.CompetitionID); err != nil {
		return goal.Goal{}, err
	}

	after := before
	after.Name = input.Name
	after.Metric = input.Metric
	after.Target = input.Target
	after.Period = input.Period
	after.CountStepsAsWalks = input.CountStepsAsWalks
	after.MinPerWorkout = input.MinPerWorkout
	after.MaxPerWorkout = input.MaxPerWorkout
	after.MinPerDay = input.MinPerDay
	after.MaxPerDay = input.MaxPerDay
	after.MinPerWeek = input.MinPerWeek
	after.MaxPerWeek = input.MaxPerWeek
	after.UpdatedAt = s.now().UTC()

	if err := s.goalRepo.Update(ctx, after); err != nil {
		return goal.Goal{}, fmt.Errorf("update goal: %w", err)
	}

	changes := changeset.Track(before, after)
	if err := s.consistency.GoalUpdated(ctx, after, changes); err != nil {
		return goal.Goal{}, err
	}
	return after, nil
}

func (s *GoalService) ListByCompetition(ctx context.Context, competitionID string) ([]goal.Goal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GoalService.ListByCompetition")
	defer span.End()

	items, err := s.goalRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return items, nil
}

func (s *GoalService) CreateAward(ctx context.Context, actorID, competitionID string, input AwardInput) (goal.Award, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GoalService.CreateAward")
	defer span.End()

	if strings.TrimSpace(input.Name) == "" {
		return goal.Award{}, fmt.Errorf("%w: award name is required", ErrInvalidInput)
	}
	if input.Threshold <= 0 {
		return goal.Award{}, fmt.Errorf("%w: threshold must be positive", ErrInvalidInput)
	}
	if !input.Period.Valid() {
		return goal.Award{}, fmt.Errorf("%w: unknown period %q", ErrInvalidInput, input.Period)
	}
	if _, err := s.requireOwned(ctx, actorID, competitionID); err != nil {
		return goal.Award{}, err
	}

	awardID, err := s.ids.NewID()
	if err != nil {
		return goal.Award{}, fmt.Errorf("generate award id: %w", err)
	}

	now := s.now().UTC()
	item := goal.Award{
		ID:            awardID,
		CompetitionID: competitionID,
		Name:          input.Name,
		Sport:         input.Sport,
		Threshold:     input.Threshold,
		Period:        input.Period,
		RewardPoints:  input.RewardPoints,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.goalRepo.CreateAward(ctx, item); err != nil {
		return goal.Award{}, fmt.Errorf("create award: %w", err)
	}
	return item, nil
}

func (s *GoalService) ListAwards(ctx context.Context, competitionID string) ([]goal.Award, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GoalService.ListAwards")
	defer span.End()

	items, err := s.goalRepo.ListAwardsByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list awards: %w", err)
	}
	return items, nil
}

func (s *GoalService) requireOwned(ctx context.Context, actorID, competitionID string) (competition.Competition, error) {
	item, ok, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("get competition: %w", err)
	}
	if !ok {
		return competition.Competition{}, fmt.Errorf("%w: competition %s", ErrNotFound, competitionID)
	}
	if item.OwnerID != actorID {
		return competition.Competition{}, fmt.Errorf("%w: competition %s", ErrUnauthorized, competitionID)
	}
	return item, nil
}

func validateGoalInput(input GoalInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: goal name is required", ErrInvalidInput)
	}
	if !input.Metric.Valid() {
		return fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, input.Metric)
	}
	if !input.Period.Valid() {
		return fmt.Errorf("%w: unknown period %q", ErrInvalidInput, input.Period)
	}
	if input.Target <= 0 {
		return fmt.Errorf("%w: target must be positive", ErrInvalidInput)
	}
	for name, v := range map[string]*float64{
		"min_per_workout": input.MinPerWorkout,
		"max_per_workout": input.MaxPerWorkout,
		"min_per_day":     input.MinPerDay,
		"max_per_day":     input.MaxPerDay,
		"min_per_week":    input.MinPerWeek,
		"max_per_week":    input.MaxPerWeek,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, name)
		}
	}
	return nil
}
