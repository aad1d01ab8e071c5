package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/changeset"
	"github.com/challengefit/workout-challenge/internal/domain/user"
	"github.com/challengefit/workout-challenge/internal/domain/workout"
	idgen "github.com/challengefit/workout-challenge/internal/platform/id"
)

// stepsPerHour models how many steps an hour of walking or running absorbs
// when a daily step total is converted into a synthetic walk.
const (
	walkStepsPerHour = 6000.0
	runStepsPerHour  = 10000.0

	stepWalkMetersPerStep = 0.82
	stepWalkSpeedKmh      = 5.0
)

// WorkoutInput carries the caller-provided fields of a workout. Kcal and
// Distance stay nil when the client did not record them; estimates fill the
// gaps at save time.
type WorkoutInput struct {
	Sport     string
	StartAt   time.Time
	Duration  time.Duration
	Intensity int
	Kcal      *float64
	Distance  *float64
	SourceID  string
}

type WorkoutService struct {
	workoutRepo workout.Repository
	userRepo    user.Repository
	consistency *ConsistencyService
	ids         idgen.Generator
	logger      *slog.Logger
	now         func() time.Time
}

func NewWorkoutService(
	workoutRepo workout.Repository,
	userRepo user.Repository,
	consistency *ConsistencyService,
	ids idgen.Generator,
	logger *slog.Logger,
) *WorkoutService {
	if logger == nil {
		logger = slog.Default()
	}

	return &WorkoutService{
		workoutRepo: workoutRepo,
		userRepo:    userRepo,
		consistency: consistency,
		ids:         ids,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *WorkoutService) Create(ctx context.Context, userID string, input WorkoutInput) (workout.Workout, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WorkoutService.Create")
	defer span.End()

	if err := validateWorkoutInput(input); err != nil {
		return workout.Workout{}, err
	}

	owner, err := s.loadUser(ctx, userID)
	if err != nil {
		return workout.Workout{}, err
	}

	workoutID, err := s.ids.NewID()
	if err != nil {
		return workout.Workout{}, fmt.Errorf("generate workout id: %w", err)
	}

	now := s.now().UTC()
	item := workout.Workout{
		ID:        workoutID,
		UserID:    userID,
		Sport:     input.Sport,
		StartAt:   input.StartAt.UTC(),
		Duration:  input.Duration,
		Intensity: input.Intensity,
		Kcal:      input.Kcal,
		Distance:  input.Distance,
		SourceID:  input.SourceID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.preprocess(ctx, &item, owner); err != nil {
		return workout.Workout{}, err
	}

	if err := s.workoutRepo.Create(ctx, item); err != nil {
		return workout.Workout{}, fmt.Errorf("create workout: %w", err)
	}
	if err := s.consistency.WorkoutCreated(ctx, item); err != nil {
		return workout.Workout{}, err
	}
	if err := s.refreshStepWorkout(ctx, owner, item); err != nil {
		return workout.Workout{}, err
	}
	return item, nil
}

func (s *WorkoutService) Update(ctx context.Context, userID, workoutID string, input WorkoutInput) (workout.Workout, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WorkoutService.Update")
	defer span.End()

	if err := validateWorkoutInput(input); err != nil {
		return workout.Workout{}, err
	}

	before, ok, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		return workout.Workout{}, fmt.Errorf("get workout: %w", err)
	}
	if !ok {
		return workout.Workout{}, fmt.Errorf("%w: workout %s", ErrNotFound, workoutID)
	}
	if before.UserID != userID {
		return workout.Workout{}, fmt.Errorf("%w: workout %s", ErrUnauthorized, workoutID)
	}
	if before.StepDerived() {
		return workout.Workout{}, fmt.Errorf("%w: step workouts are maintained from daily step counts", ErrInvalidInput)
	}

	owner, err := s.loadUser(ctx, userID)
	if err != nil {
		return workout.Workout{}, err
	}

	after := before
	after.Sport = input.Sport
	after.StartAt = input.StartAt.UTC()
	after.Duration = input.Duration
	after.Intensity = input.Intensity
	after.Kcal = input.Kcal
	after.Distance = input.Distance
	after.SourceID = input.SourceID
	after.UpdatedAt = s.now().UTC()
	if err := s.preprocess(ctx, &after, owner); err != nil {
		return workout.Workout{}, err
	}

	if err := s.workoutRepo.Update(ctx, after); err != nil {
		return workout.Workout{}, fmt.Errorf("update workout: %w", err)
	}

	changes := changeset.Track(before, after).Without("UpdatedAt")
	if err := s.consistency.WorkoutUpdated(ctx, after, changes); err != nil {
		return workout.Workout{}, err
	}
	if err := s.refreshStepWorkout(ctx, owner, before); err != nil {
		return workout.Workout{}, err
	}
	if err := s.refreshStepWorkout(ctx, owner, after); err != nil {
		return workout.Workout{}, err
	}
	return after, nil
}

func (s *WorkoutService) Delete(ctx context.Context, userID, workoutID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.WorkoutService.Delete")
	defer span.End()

	item, ok, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		return fmt.Errorf("get workout: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: workout %s", ErrNotFound, workoutID)
	}
	if item.UserID != userID {
		return fmt.Errorf("%w: workout %s", ErrUnauthorized, workoutID)
	}

	if err := s.workoutRepo.Delete(ctx, workoutID); err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}
	if err := s.consistency.WorkoutDeleted(ctx, item); err != nil {
		return err
	}

	owner, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.refreshStepWorkout(ctx, owner, item)
}

func (s *WorkoutService) Get(ctx context.Context, userID, workoutID string) (workout.Workout, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WorkoutService.Get")
	defer span.End()

	item, ok, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		return workout.Workout{}, fmt.Errorf("get workout: %w", err)
	}
	if !ok {
		return workout.Workout{}, fmt.Errorf("%w: workout %s", ErrNotFound, workoutID)
	}
	if item.UserID != userID {
		return workout.Workout{}, fmt.Errorf("%w: workout %s", ErrUnauthorized, workoutID)
	}
	return item, nil
}

func (s *WorkoutService) ListMine(ctx context.Context, userID string) ([]workout.Workout, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WorkoutService.ListMine")
	defer span.End()

	items, err := s.workoutRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	return items, nil
}

// LogDailySteps upserts the synthetic step workout for one calendar day.
func (s *WorkoutService) LogDailySteps(ctx context.Context, userID string, day time.Time, steps int) (workout.Workout, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WorkoutService.LogDailySteps")
	defer span.End()

	if steps < 0 {
		return workout.Workout{}, fmt.Errorf("%w: steps must not be negative", ErrInvalidInput)
	}

	owner, err := s.loadUser(ctx, userID)
	if err != nil {
		return workout.Workout{}, err
	}

	existing, ok, err := s.workoutRepo.GetStepWorkout(ctx, userID, day)
	if err != nil {
		return workout.Workout{}, fmt.Errorf("get step workout: %w", err)
	}

	if ok {
		before := existing
		existing.Steps = &steps
		existing.UpdatedAt = s.now().UTC()
		if err := s.preprocess(ctx, &existing, owner); err != nil {
			return workout.Workout{}, err
		}
		if err := s.workoutRepo.Update(ctx, existing); err != nil {
			return workout.Workout{}, fmt.Errorf("update step workout: %w", err)
		}
		changes := changeset.Track(before, existing).Without("UpdatedAt")
		if err := s.consistency.WorkoutUpdated(ctx, existing, changes); err != nil {
			return workout.Workout{}, err
		}
		return existing, nil
	}

	workoutID, err := s.ids.NewID()
	if err != nil {
		return workout.Workout{}, fmt.Errorf("generate workout id: %w", err)
	}

	now := s.now().UTC()
	item := workout.Workout{
		ID:        workoutID,
		UserID:    userID,
		Sport:     workout.SportSteps,
		StartAt:   day.UTC(),
		Steps:     &steps,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.preprocess(ctx, &item, owner); err != nil {
		return workout.Workout{}, err
	}
	if err := s.workoutRepo.Create(ctx, item); err != nil {
		return workout.Workout{}, fmt.Errorf("create step workout: %w", err)
	}
	if err := s.consistency.WorkoutCreated(ctx, item); err != nil {
		return workout.Workout{}, err
	}
	return item, nil
}

// preprocess normalizes intensity and fills the derived fields: step
// workouts are synthesized into walks, other workouts get MET estimates for
// missing distance and kcal.
func (s *WorkoutService) preprocess(ctx context.Context, item *workout.Workout, owner user.User) error {
	if item.Intensity == 0 {
		item.Intensity = workout.DefaultIntensity
	}
	if item.Intensity < workout.IntensityMin {
		item.Intensity = workout.IntensityMin
	}
	if item.Intensity > workout.IntensityMax {
		item.Intensity = workout.IntensityMax
	}

	if item.StepDerived() {
		return s.synthesizeFromSteps(ctx, item, owner)
	}

	if item.Distance == nil && workout.DistanceEstimated(item.Sport) {
		distance := workout.EstimateDistance(item.Sport, item.Intensity, item.DurationHours(), owner.ScalingDistance)
		item.Distance = &distance
	}
	if item.Kcal == nil {
		kcal := workout.EstimateKcal(item.Sport, item.Intensity, item.DurationHours(), owner.ScalingKcal)
		item.Kcal = &kcal
	}
	return nil
}

// synthesizeFromSteps turns a daily step total into a walk: steps already
// covered by logged walks and runs that day are subtracted, the remainder is
// converted to distance, duration and kcal, and the workout is pinned to
// 23:59 of its day so it scores after everything else.
func (s *WorkoutService) synthesizeFromSteps(ctx context.Context, item *workout.Workout, owner user.User) error {
	item.Sport = workout.SportSteps
	item.Intensity = workout.IntensityMin

	sums, err := s.workoutRepo.SumDurationByUserDaySport(ctx, item.UserID, item.StartAt, []string{workout.SportWalk, workout.SportRun})
	if err != nil {
		return fmt.Errorf("sum walk and run durations: %w", err)
	}

	walkSteps := walkStepsPerHour * sums[workout.SportWalk].Hours()
	runSteps := runStepsPerHour * sums[workout.SportRun].Hours()
	netSteps := max(float64(*item.Steps)-walkSteps-runSteps, 0)

	distanceKm := stepWalkMetersPerStep * owner.ScalingDistance * netSteps / 1000
	hours := distanceKm / owner.ScalingDistance / stepWalkSpeedKmh
	kcal := workout.EstimateKcal(workout.SportWalk, workout.IntensityMin, hours, owner.ScalingKcal)

	item.Distance = &distanceKm
	item.Duration = time.Duration(hours * float64(time.Hour))
	item.Kcal = &kcal

	day := item.StartAt.UTC()
	item.StartAt = time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 0, 0, time.UTC)
	return nil
}

// refreshStepWorkout re-derives the same-day step workout after a walk or
// run changed, so steps already walked are not counted twice.
func (s *WorkoutService) refreshStepWorkout(ctx context.Context, owner user.User, item workout.Workout) error {
	if item.Sport != workout.SportWalk && item.Sport != workout.SportRun {
		return nil
	}

	stepWorkout, ok, err := s.workoutRepo.GetStepWorkout(ctx, owner.ID, item.StartAt)
	if err != nil {
		return fmt.Errorf("get step workout: %w", err)
	}
	if !ok {
		return nil
	}

	before := stepWorkout
	if err := s.preprocess(ctx, &stepWorkout, owner); err != nil {
		return err
	}

	changes := changeset.Track(before, stepWorkout)
	if len(changes) == 0 {
		return nil
	}

	stepWorkout.UpdatedAt = s.now().UTC()
	if err := s.workoutRepo.Update(ctx, stepWorkout); err != nil {
		return fmt.Errorf("update step workout: %w", err)
	}
	return s.consistency.WorkoutUpdated(ctx, stepWorkout, changes)
}

func (s *WorkoutService) loadUser(ctx context.Context, userID string) (user.User, error) {
	owner, ok, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	if !ok {
		return user.User{ID: userID, ScalingKcal: 1, ScalingDistance: 1}, nil
	}
	return owner, nil
}

func validateWorkoutInput(input WorkoutInput) error {
	if input.Sport == "" {
		return fmt.Errorf("%w: sport is required", ErrInvalidInput)
	}
	if input.Sport == workout.SportSteps {
		return fmt.Errorf("%w: daily steps are logged through the steps endpoint", ErrInvalidInput)
	}
	if input.StartAt.IsZero() {
		return fmt.Errorf("%w: start time is required", ErrInvalidInput)
	}
	if input.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}
	if input.Intensity != 0 && (input.Intensity < workout.IntensityMin || input.Intensity > workout.IntensityMax) {
		return fmt.Errorf("%w: intensity must be between %d and %d", ErrInvalidInput, workout.IntensityMin, workout.IntensityMax)
	}
	if input.Kcal != nil && *input.Kcal < 0 {
		return fmt.Errorf("%w: kcal must not be negative", ErrInvalidInput)
	}
	if input.Distance != nil && *input.Distance < 0 {
		return fmt.Errorf("%w: distance must not be negative", ErrInvalidInput)
	}
	return nil
}
