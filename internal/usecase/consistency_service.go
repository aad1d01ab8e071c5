package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/changeset"
	"github.com/challengefit/workout-challenge/internal/domain/competition"
	"github.com/challengefit/workout-challenge/internal/domain/goal"
	"github.com/challengefit/workout-challenge/internal/domain/points"
	"github.com/challengefit/workout-challenge/internal/domain/scoring"
	"github.com/challengefit/workout-challenge/internal/domain/user"
	"github.com/challengefit/workout-challenge/internal/domain/workout"
	idgen "github.com/challengefit/workout-challenge/internal/platform/id"
)

// RecalcQueue accepts staleness markers and drain requests. Enqueue never
// dedupes; coalescing happens when the queue drains.
type RecalcQueue interface {
	Enqueue(ctx context.Context, userID, goalID string, affectedFrom time.Time) error
	ScheduleDrain(ctx context.Context)
}

// ConsistencyService keeps Point rows consistent with mutations to workouts,
// goals, competitions, memberships and user scaling factors. Each handler
// interprets an explicit change set, adjusts raw points synchronously and
// marks the affected (user, goal) sequences for capped-value recalculation.
type ConsistencyService struct {
	competitionRepo competition.Repository
	goalRepo        goal.Repository
	workoutRepo     workout.Repository
	userRepo        user.Repository
	pointsRepo      points.Repository
	queue           RecalcQueue
	ids             idgen.Generator
	logger          *slog.Logger
}

func NewConsistencyService(
	competitionRepo competition.Repository,
	goalRepo goal.Repository,
	workoutRepo workout.Repository,
	userRepo user.Repository,
	pointsRepo points.Repository,
	queue RecalcQueue,
	ids idgen.Generator,
	logger *slog.Logger,
) *ConsistencyService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ConsistencyService{
		competitionRepo: competitionRepo,
		goalRepo:        goalRepo,
		workoutRepo:     workoutRepo,
		userRepo:        userRepo,
		pointsRepo:      pointsRepo,
		queue:           queue,
		ids:             ids,
		logger:          logger,
	}
}

func (s *ConsistencyService) WorkoutCreated(ctx context.Context, item workout.Workout) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConsistencyService.WorkoutCreated")
	defer span.End()

	owner, err := s.loadUser(ctx, item.UserID)
	if err != nil {
		return err
	}

	competitions, err := s.competitionRepo.ListByMember(ctx, item.UserID)
	if err != nil {
		return fmt.Errorf("list competitions for workout: %w", err)
	}

	enqueued := false
	for _, comp := range competitions {
		if !comp.Covers(item.StartAt) {
			continue
		}

		goals, err := s.goalRepo.ListByCompetition(ctx, comp.ID)
		if err != nil {
			return fmt.Errorf("list goals for workout competition=%s: %w", comp.ID, err)
		}
		for _, g := range goals {
			if !g.AppliesTo(item.StepDerived()) {
				continue
			}
			if err := s.createPoint(ctx, g, item, owner); err != nil {
				return err
			}
			if err := s.queue.Enqueue(ctx, item.UserID, g.ID, item.StartAt); err != nil {
				return fmt.Errorf("enqueue recalc marker: %w", err)
			}
			enqueued = true
		}
	}

	if enqueued {
		s.queue.ScheduleDrain(ctx)
	}
	return nil
}

func (s *ConsistencyService) WorkoutUpdated(ctx context.Context, item workout.Workout, changes changeset.Changes) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConsistencyService.WorkoutUpdated")
	defer span.End()

	metrics := affectedMetrics(changes)
	startChanged := changes.Has("StartAt")
	if len(metrics) == 0 && !startChanged {
		return nil
	}

	owner, err := s.loadUser(ctx, item.UserID)
	if err != nil {
		return err
	}

	affectedFrom := item.StartAt
	if oldStart, ok := changes.OldTime("StartAt"); ok && oldStart.Before(affectedFrom) {
		affectedFrom = oldStart
	}

	existing, err := s.pointsRepo.ListByWorkout(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("list points for workout: %w", err)
	}

	if startChanged {
		if err := s.pointsRepo.UpdateWorkoutStartAt(ctx, item.ID, item.StartAt); err != nil {
			return fmt.Errorf("update point workout timestamps: %w", err)
		}
	}

	enqueued := false
	for _, p := range existing {
		if p.GoalID == "" {
			continue
		}
		g, ok, err := s.goalRepo.GetByID(ctx, p.GoalID)
		if err != nil {
			return fmt.Errorf("get goal for point refresh: %w", err)
		}
		if !ok {
			continue
		}
		if !startChanged && !metricAffected(g.Metric, metrics) {
			continue
		}

		raw := scoring.RawPoints(g, item, owner)
		if err := s.pointsRepo.UpdateValues(ctx, p.ID, raw, raw); err != nil {
			return fmt.Errorf("refresh point values: %w", err)
		}
		if err := s.queue.Enqueue(ctx, p.UserID, g.ID, affectedFrom); err != nil {
			return fmt.Errorf("enqueue recalc marker: %w", err)
		}
		enqueued = true
	}

	if enqueued {
		s.queue.ScheduleDrain(ctx)
	}
	return nil
}

func (s *ConsistencyService) WorkoutDeleted(ctx context.Context, item workout.Workout) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConsistencyService.WorkoutDeleted")
	defer span.End()

	existing, err := s.pointsRepo.ListByWorkout(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("list points for deleted workout: %w", err)
	}
	if err := s.pointsRepo.DeleteByWorkout(ctx, item.ID); err != nil {
		return fmt.Errorf("delete points for workout: %w", err)
	}

	enqueued := false
	for _, p := range existing {
		if p.GoalID == "" {
			continue
		}
		if err := s.queue.Enqueue(ctx, p.UserID, p.GoalID, item.StartAt); err != nil {
			return fmt.Errorf("enqueue recalc marker: %w", err)
		}
		enqueued = true
	}

	if enqueued {
		s.queue.ScheduleDrain(ctx)
	}
	return nil
}

func (s *ConsistencyService) GoalCreated(ctx context.Context, g goal.Goal) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConsistencyService.GoalCreated")
	defer span.End()

	comp, ok, err := s.competitionRepo.GetByID(ctx, g.CompetitionID)
	if err != nil {
		return fmt.Errorf("get competition for goal: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: competition %s", ErrNotFound, g.CompetitionID)
	}

	memberIDs, err := s.competitionRepo.ListMemberIDs(ctx, comp.ID)
	if err != nil {
		return fmt.Errorf("list members for goal backfill: %w", err)
	}
	if len(memberIDs) == 0 {
		return nil
	}

	workouts, err := s.workoutRepo.ListByUsersBetween(ctx, memberIDs, comp.StartDate, comp.WindowEnd())
	if err != nil {
		return fmt.Errorf("list workouts for goal backfill: %w", err)
	}

	users, err := s.loadUsers(ctx, memberIDs)
	if err != nil {
		return err
	}

	for _, item := range workouts {
		if !g.AppliesTo(item.StepDerived()) {
			continue
		}
		if err := s.createPoint(ctx, g, item, users[item.UserID]); err != nil {
			return err
		}
	}

	for _, memberID := range memberIDs {
		if err := s.queue.Enqueue(ctx, memberID, g.ID, comp.StartDate); err != nil {
			return fmt.Errorf("enqueue recalc marker: %w", err)
		}
	}

	s.queue.ScheduleDrain(ctx)
	return nil
}

func (s *ConsistencyService) GoalUpdated(ctx context.Context, g goal.Goal, changes changeset.Changes) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConsistencyService.GoalUpdated")
	defer span.End()

	// Renames are cosmetic and never touch points.
	changes = changes.Without("Name", "UpdatedAt")
	if len(changes) == 0 {
		return nil
	}

	comp, ok, err := s.competitionRepo.GetByID(ctx, g.CompetitionID)
	if err != nil {
		return fmt.Errorf("get competition for goal update: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: competition %s", ErrNotFound, g.CompetitionID)
	}

	if countSteps, ok := changes.NewBool("CountStepsAsWalks"); ok {
		if countSteps {
			if err := s.backfillGoalStepWorkouts(ctx, comp, g); err != nil {
				return err
			}
		} else {
			if err := s.pointsRepo.DeleteByGoalStepWorkouts(ctx, g.ID); err != nil {
				return fmt.Errorf("delete step points for goal: %w", err)
			}
		}
	}

	memberIDs, err := s.competitionRepo.ListMemberIDs(ctx, comp.ID)
	if err != nil {
		return fmt.Errorf("list members for goal update: %w", err)
	}
	for _, memberID := range memberIDs {
		if err := s.queue.Enqueue(ctx, memberID, g.ID, comp.StartDate); err != nil {
			return fmt.Errorf("enqueue recalc marker: %w", err)
		}
	}

	if len(memberIDs) > 0 {
		s.queue.ScheduleDrain(ctx)
	}
	return nil
}

func (s *ConsistencyService) CompetitionUpdated(ctx context.Context, comp competition.Competition, changes changeset.Changes) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConsistencyService.CompetitionUpdated")
	defer span.End()

	enqueued := false

	if oldStart, ok := changes.OldTime("StartDate"); ok {
		newStart := comp.StartDate
		switch {
		case newStart.Before(oldStart):
			n, err := s.backfillRange(ctx, comp, newStart, oldStart)
			if err != nil {
				return err
			}
			enqueued = enqueued || n > 0
		case newStart.After(oldStart):
			pairs, err := s.pointsRepo.ListUserGoalPairsBefore(ctx, comp.ID, newStart)
			if err != nil {
				return fmt.Errorf("list point pairs before new start: %w", err)
			}
			if err := s.pointsRepo.DeleteByCompetitionBefore(ctx, comp.ID, newStart); err != nil {
				return fmt.Errorf("delete points before new start: %w", err)
			}
			for _, pair := range pairs {
				if err := s.queue.Enqueue(ctx, pair.UserID, pair.GoalID, newStart); err != nil {
					return fmt.Errorf("enqueue recalc marker: %w", err)
				}
				enqueued = true
			}
		}
	}

	if oldEnd, ok := changes.OldTime("EndDate"); ok {
		newEnd := comp.EndDate
		switch {
		case newEnd.After(oldEnd):
			n, err := s.backfillRange(ctx, comp, oldEnd.AddDate(0, 0, 1), newEnd.AddDate(0, 0, 1))
			if err != nil {
				return err
			}
			enqueued = enqueued || n > 0
		case newEnd.Before(oldEnd):
			// Shortening the end only trims points; no markers are
			// written, so stale day/week accumulations persist until
			// another mutation touches the sequence.
			if err := s.pointsRepo.DeleteByCompetitionOnOrAfter(ctx, comp.ID, newEnd.AddDate(0, 0, 1)); err != nil {
				return fmt.Errorf("delete points after new end: %w", err)
			}
		}
	}

	if enqueued {
		s.queue.ScheduleDrain(ctx)
	}
	return nil
}

func (s *ConsistencyService) MembershipAdded(ctx context.Context, comp competition.Competition, userID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConsistencyService.MembershipAdded")
	defer span.End()

	goals, err := s.goalRepo.ListByCompetition(ctx, comp.ID)
	if err != nil {
		return fmt.Errorf("list goals for new member: %w", err)
	}
	if len(goals) == 0 {
		return nil
	}

	owner, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	workouts, err := s.workoutRepo.ListByUsersBetween(ctx, []string{userID}, comp.StartDate, comp.WindowEnd())
	if err != nil {
		return fmt.Errorf("list workouts for new member: %w", err)
	}

	for _, g := range goals {
		for _, item := range workouts {
			if err := s.createPoint(ctx, g, item, owner); err != nil {
				return err
			}
		}
		if err := s.queue.Enqueue(ctx, userID, g.ID, comp.StartDate); err != nil {
			return fmt.Errorf("enqueue recalc marker: %w", err)
		}
	}

	s.queue.ScheduleDrain(ctx)
	return nil
}

func (s *ConsistencyService) MembershipRemoved(ctx context.Context, comp competition.Competition, userID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConsistencyService.MembershipRemoved")
	defer span.End()

	if err := s.pointsRepo.DeleteByCompetitionUser(ctx, comp.ID, userID); err != nil {
		return fmt.Errorf("delete points for removed member: %w", err)
	}
	return nil
}

func (s *ConsistencyService) UserUpdated(ctx context.Context, item user.User, changes changeset.Changes) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConsistencyService.UserUpdated")
	defer span.End()

	var metrics []goal.Metric
	if changes.Has("ScalingKcal") {
		metrics = append(metrics, goal.MetricKcal, goal.MetricKilojoul)
	}
	if changes.Has("ScalingDistance") {
		metrics = append(metrics, goal.MetricKm)
	}
	if len(metrics) == 0 {
		return nil
	}

	existing, err := s.pointsRepo.ListByUserMetrics(ctx, item.ID, metrics)
	if err != nil {
		return fmt.Errorf("list points for scaling change: %w", err)
	}
	if len(existing) == 0 {
		return nil
	}

	goalByID := make(map[string]goal.Goal)
	for _, p := range existing {
		if p.GoalID == "" {
			continue
		}
		g, cached := goalByID[p.GoalID]
		if !cached {
			loaded, ok, err := s.goalRepo.GetByID(ctx, p.GoalID)
			if err != nil {
				return fmt.Errorf("get goal for scaling refresh: %w", err)
			}
			if !ok {
				continue
			}
			goalByID[p.GoalID] = loaded
			g = loaded
		}

		w, ok, err := s.workoutRepo.GetByID(ctx, p.WorkoutID)
		if err != nil {
			return fmt.Errorf("get workout for scaling refresh: %w", err)
		}
		if !ok {
			continue
		}

		raw := scoring.RawPoints(g, w, item)
		if err := s.pointsRepo.UpdateValues(ctx, p.ID, raw, raw); err != nil {
			return fmt.Errorf("refresh point values: %w", err)
		}
		if err := s.queue.Enqueue(ctx, item.ID, g.ID, p.WorkoutStartAt); err != nil {
			return fmt.Errorf("enqueue recalc marker: %w", err)
		}
	}

	s.queue.ScheduleDrain(ctx)
	return nil
}

// backfillRange creates points for every member workout inside [from, to)
// and marks each one. The step-counting flag is not consulted here; range
// backfills mirror the workout rows as they exist.
func (s *ConsistencyService) backfillRange(ctx context.Context, comp competition.Competition, from, to time.Time) (int, error) {
	memberIDs, err := s.competitionRepo.ListMemberIDs(ctx, comp.ID)
	if err != nil {
		return 0, fmt.Errorf("list members for range backfill: %w", err)
	}
	if len(memberIDs) == 0 {
		return 0, nil
	}

	goals, err := s.goalRepo.ListByCompetition(ctx, comp.ID)
	if err != nil {
		return 0, fmt.Errorf("list goals for range backfill: %w", err)
	}
	workouts, err := s.workoutRepo.ListByUsersBetween(ctx, memberIDs, from, to)
	if err != nil {
		return 0, fmt.Errorf("list workouts for range backfill: %w", err)
	}
	users, err := s.loadUsers(ctx, memberIDs)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, g := range goals {
		for _, item := range workouts {
			if err := s.createPoint(ctx, g, item, users[item.UserID]); err != nil {
				return created, err
			}
			if err := s.queue.Enqueue(ctx, item.UserID, g.ID, item.StartAt); err != nil {
				return created, fmt.Errorf("enqueue recalc marker: %w", err)
			}
			created++
		}
	}
	return created, nil
}

func (s *ConsistencyService) backfillGoalStepWorkouts(ctx context.Context, comp competition.Competition, g goal.Goal) error {
	memberIDs, err := s.competitionRepo.ListMemberIDs(ctx, comp.ID)
	if err != nil {
		return fmt.Errorf("list members for step backfill: %w", err)
	}
	if len(memberIDs) == 0 {
		return nil
	}

	workouts, err := s.workoutRepo.ListByUsersBetween(ctx, memberIDs, comp.StartDate, comp.WindowEnd())
	if err != nil {
		return fmt.Errorf("list workouts for step backfill: %w", err)
	}
	users, err := s.loadUsers(ctx, memberIDs)
	if err != nil {
		return err
	}

	for _, item := range workouts {
		if !item.StepDerived() {
			continue
		}
		if err := s.createPoint(ctx, g, item, users[item.UserID]); err != nil {
			return err
		}
	}
	return nil
}

func (s *ConsistencyService) createPoint(ctx context.Context, g goal.Goal, item workout.Workout, owner user.User) error {
	pointID, err := s.ids.NewID()
	if err != nil {
		return fmt.Errorf("generate point id: %w", err)
	}

	raw := scoring.RawPoints(g, item, owner)
	if err := s.pointsRepo.Create(ctx, points.Point{
		ID:             pointID,
		GoalID:         g.ID,
		WorkoutID:      item.ID,
		UserID:         item.UserID,
		WorkoutStartAt: item.StartAt,
		Raw:            raw,
		Capped:         raw,
	}); err != nil {
		return fmt.Errorf("create point goal=%s workout=%s: %w", g.ID, item.ID, err)
	}
	return nil
}

func (s *ConsistencyService) loadUser(ctx context.Context, userID string) (user.User, error) {
	owner, ok, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	if !ok {
		// Unknown users score with neutral scaling.
		return user.User{ID: userID, ScalingKcal: 1, ScalingDistance: 1}, nil
	}
	return owner, nil
}

func (s *ConsistencyService) loadUsers(ctx context.Context, userIDs []string) (map[string]user.User, error) {
	items, err := s.userRepo.ListByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make(map[string]user.User, len(userIDs))
	for _, item := range items {
		out[item.ID] = item
	}
	for _, userID := range userIDs {
		if _, ok := out[userID]; !ok {
			out[userID] = user.User{ID: userID, ScalingKcal: 1, ScalingDistance: 1}
		}
	}
	return out, nil
}

// affectedMetrics maps changed workout fields to the goal metrics whose raw
// points depend on them.
func affectedMetrics(changes changeset.Changes) []goal.Metric {
	var out []goal.Metric
	if changes.Has("Duration") {
		out = append(out, goal.MetricMinutes)
	}
	if changes.Has("Kcal") {
		out = append(out, goal.MetricKcal, goal.MetricKilojoul)
	}
	if changes.Has("Distance") {
		out = append(out, goal.MetricKm)
	}
	return out
}

func metricAffected(m goal.Metric, metrics []goal.Metric) bool {
	for _, candidate := range metrics {
		if candidate == m {
			return true
		}
	}
	return false
}
