package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/competition"
	"github.com/challengefit/workout-challenge/internal/domain/goal"
	"github.com/challengefit/workout-challenge/internal/domain/points"
	"github.com/challengefit/workout-challenge/internal/domain/recalc"
	"github.com/challengefit/workout-challenge/internal/domain/user"
	"github.com/challengefit/workout-challenge/internal/domain/workout"
)

// In-memory repositories shared by the usecase tests. All of them are safe
// for concurrent use because the recalc drain runs on worker goroutines.

type fakeUserRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{items: make(map[string]user.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, item user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, userID string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[userID]
	return item, ok, nil
}

func (r *fakeUserRepo) Update(_ context.Context, item user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *fakeUserRepo) ListByIDs(_ context.Context, userIDs []string) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]user.User, 0, len(userIDs))
	for _, userID := range userIDs {
		if item, ok := r.items[userID]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

type fakeCompetitionRepo struct {
	mu          sync.RWMutex
	items       map[string]competition.Competition
	memberships []competition.Membership
	teams       []competition.Team
}

func newFakeCompetitionRepo() *fakeCompetitionRepo {
	return &fakeCompetitionRepo{items: make(map[string]competition.Competition)}
}

func (r *fakeCompetitionRepo) Create(_ context.Context, item competition.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *fakeCompetitionRepo) GetByID(_ context.Context, competitionID string) (competition.Competition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[competitionID]
	return item, ok, nil
}

func (r *fakeCompetitionRepo) GetByJoinCode(_ context.Context, joinCode string) (competition.Competition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.JoinCode == joinCode {
			return item, true, nil
		}
	}
	return competition.Competition{}, false, nil
}

func (r *fakeCompetitionRepo) Update(_ context.Context, item competition.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *fakeCompetitionRepo) ListByMember(_ context.Context, userID string) ([]competition.Competition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []competition.Competition
	for _, m := range r.memberships {
		if m.UserID == userID {
			if item, ok := r.items[m.CompetitionID]; ok {
				out = append(out, item)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCompetitionRepo) AddMember(_ context.Context, item competition.Membership) error {
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

func (r *fakeCompetitionRepo) RemoveMember(_ context.Context, competitionID, userID string) error {
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

func (r *fakeCompetitionRepo) ListMemberIDs(_ context.Context, competitionID string) ([]string, error) {
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

func (r *fakeCompetitionRepo) ListMemberships(_ context.Context, competitionID string) ([]competition.Membership, error) {
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

func (r *fakeCompetitionRepo) CreateTeam(_ context.Context, item competition.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teams = append(r.teams, item)
	return nil
}

func (r *fakeCompetitionRepo) ListTeams(_ context.Context, competitionID string) ([]competition.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []competition.Team
	for _, team := range r.teams {
		if team.CompetitionID == competitionID {
			out = append(out, team)
		}
	}
	return out, nil
}

func (r *fakeCompetitionRepo) AssignTeam(_ context.Context, competitionID, userID, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.memberships {
		if m.CompetitionID == competitionID && m.UserID == userID {
			r.memberships[i].TeamID = teamID
			return nil
		}
	}
	return fmt.Errorf("membership not found")
}

type fakeGoalRepo struct {
	mu     sync.RWMutex
	items  map[string]goal.Goal
	order  []string
	awards []goal.Award
}

func newFakeGoalRepo() *fakeGoalRepo {
	return &fakeGoalRepo{items: make(map[string]goal.Goal)}
}

func (r *fakeGoalRepo) Create(_ context.Context, item goal.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	r.order = append(r.order, item.ID)
	return nil
}

func (r *fakeGoalRepo) GetByID(_ context.Context, goalID string) (goal.Goal, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[goalID]
	return item, ok, nil
}

func (r *fakeGoalRepo) Update(_ context.Context, item goal.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *fakeGoalRepo) ListByCompetition(_ context.Context, competitionID string) ([]goal.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []goal.Goal
	for _, goalID := range r.order {
		if item := r.items[goalID]; item.CompetitionID == competitionID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeGoalRepo) CreateAward(_ context.Context, item goal.Award) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.awards = append(r.awards, item)
	return nil
}

func (r *fakeGoalRepo) ListAwardsByCompetition(_ context.Context, competitionID string) ([]goal.Award, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []goal.Award
	for _, item := range r.awards {
		if item.CompetitionID == competitionID {
			out = append(out, item)
		}
	}
	return out, nil
}

type fakeWorkoutRepo struct {
	mu    sync.RWMutex
	items map[string]workout.Workout
	order []string
}

func newFakeWorkoutRepo() *fakeWorkoutRepo {
	return &fakeWorkoutRepo{items: make(map[string]workout.Workout)}
}

func (r *fakeWorkoutRepo) Create(_ context.Context, item workout.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	r.order = append(r.order, item.ID)
	return nil
}

func (r *fakeWorkoutRepo) GetByID(_ context.Context, workoutID string) (workout.Workout, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[workoutID]
	return item, ok, nil
}

func (r *fakeWorkoutRepo) Update(_ context.Context, item workout.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *fakeWorkoutRepo) Delete(_ context.Context, workoutID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, workoutID)
	return nil
}

func (r *fakeWorkoutRepo) ListByUser(_ context.Context, userID string) ([]workout.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []workout.Workout
	for _, workoutID := range r.order {
		if item, ok := r.items[workoutID]; ok && item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeWorkoutRepo) ListByUsersBetween(_ context.Context, userIDs []string, from, to time.Time) ([]workout.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := make(map[string]struct{}, len(userIDs))
	for _, userID := range userIDs {
		wanted[userID] = struct{}{}
	}
	var out []workout.Workout
	for _, workoutID := range r.order {
		item, ok := r.items[workoutID]
		if !ok {
			continue
		}
		if _, ok := wanted[item.UserID]; !ok {
			continue
		}
		if item.StartAt.Before(from) || !item.StartAt.Before(to) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (r *fakeWorkoutRepo) GetStepWorkout(_ context.Context, userID string, day time.Time) (workout.Workout, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	day = day.UTC()
	for _, item := range r.items {
		if item.UserID != userID || !item.StepDerived() {
			continue
		}
		at := item.StartAt.UTC()
		if at.Year() == day.Year() && at.YearDay() == day.YearDay() {
			return item, true, nil
		}
	}
	return workout.Workout{}, false, nil
}

func (r *fakeWorkoutRepo) SumDurationByUserDaySport(_ context.Context, userID string, day time.Time, sports []string) (map[string]time.Duration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := make(map[string]struct{}, len(sports))
	for _, sport := range sports {
		wanted[sport] = struct{}{}
	}
	day = day.UTC()
	out := make(map[string]time.Duration, len(sports))
	for _, item := range r.items {
		if item.UserID != userID || item.StepDerived() {
			continue
		}
		if _, ok := wanted[item.Sport]; !ok {
			continue
		}
		at := item.StartAt.UTC()
		if at.Year() == day.Year() && at.YearDay() == day.YearDay() {
			out[item.Sport] += item.Duration
		}
	}
	return out, nil
}

type fakePointsRepo struct {
	mu    sync.RWMutex
	items []points.Point
	// goalsByID lets metric and step filters resolve without a join table.
	goals    *fakeGoalRepo
	workouts *fakeWorkoutRepo
}

func newFakePointsRepo(goals *fakeGoalRepo, workouts *fakeWorkoutRepo) *fakePointsRepo {
	return &fakePointsRepo{goals: goals, workouts: workouts}
}

func (r *fakePointsRepo) Create(_ context.Context, item points.Point) error {
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

func (r *fakePointsRepo) ListByWorkout(_ context.Context, workoutID string) ([]points.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []points.Point
	for _, item := range r.items {
		if item.WorkoutID == workoutID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakePointsRepo) ListByUserGoalFrom(_ context.Context, userID, goalID string, from time.Time) ([]points.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []points.Point
	for _, item := range r.items {
		if item.UserID == userID && item.GoalID == goalID && !item.WorkoutStartAt.Before(from) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkoutStartAt.Before(out[j].WorkoutStartAt) })
	return out, nil
}

func (r *fakePointsRepo) ListByGoal(_ context.Context, goalID string) ([]points.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []points.Point
	for _, item := range r.items {
		if item.GoalID == goalID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakePointsRepo) ListByUserMetrics(ctx context.Context, userID string, metrics []goal.Metric) ([]points.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := make(map[goal.Metric]struct{}, len(metrics))
	for _, m := range metrics {
		wanted[m] = struct{}{}
	}
	var out []points.Point
	for _, item := range r.items {
		if item.UserID != userID {
			continue
		}
		g, ok, _ := r.goals.GetByID(ctx, item.GoalID)
		if !ok {
			continue
		}
		if _, ok := wanted[g.Metric]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakePointsRepo) UpdateValues(_ context.Context, pointID string, raw, capped float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == pointID {
			r.items[i].Raw = raw
			r.items[i].Capped = capped
			return nil
		}
	}
	return fmt.Errorf("point not found")
}

func (r *fakePointsRepo) UpdateCapped(_ context.Context, pointID string, capped float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == pointID {
			r.items[i].Capped = capped
			return nil
		}
	}
	return fmt.Errorf("point not found")
}

func (r *fakePointsRepo) UpdateWorkoutStartAt(_ context.Context, workoutID string, startAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].WorkoutID == workoutID {
			r.items[i].WorkoutStartAt = startAt
		}
	}
	return nil
}

func (r *fakePointsRepo) DeleteByWorkout(_ context.Context, workoutID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	for _, item := range r.items {
		if item.WorkoutID != workoutID {
			kept = append(kept, item)
		}
	}
	r.items = kept
	return nil
}

func (r *fakePointsRepo) DeleteByGoalStepWorkouts(ctx context.Context, goalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	for _, item := range r.items {
		if item.GoalID == goalID {
			if w, ok, _ := r.workouts.GetByID(ctx, item.WorkoutID); ok && w.StepDerived() {
				continue
			}
		}
		kept = append(kept, item)
	}
	r.items = kept
	return nil
}

func (r *fakePointsRepo) ListUserGoalPairsBefore(ctx context.Context, competitionID string, cutoff time.Time) ([]points.UserGoalPair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[points.UserGoalPair]struct{})
	var out []points.UserGoalPair
	for _, item := range r.items {
		if !r.pointInCompetition(ctx, item, competitionID) {
			continue
		}
		if !item.WorkoutStartAt.Before(cutoff) {
			continue
		}
		pair := points.UserGoalPair{UserID: item.UserID, GoalID: item.GoalID}
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		out = append(out, pair)
	}
	return out, nil
}

func (r *fakePointsRepo) DeleteByCompetitionBefore(ctx context.Context, competitionID string, cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	for _, item := range r.items {
		if r.pointInCompetition(ctx, item, competitionID) && item.WorkoutStartAt.Before(cutoff) {
			continue
		}
		kept = append(kept, item)
	}
	r.items = kept
	return nil
}

func (r *fakePointsRepo) DeleteByCompetitionOnOrAfter(ctx context.Context, competitionID string, cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	for _, item := range r.items {
		if r.pointInCompetition(ctx, item, competitionID) && !item.WorkoutStartAt.Before(cutoff) {
			continue
		}
		kept = append(kept, item)
	}
	r.items = kept
	return nil
}

func (r *fakePointsRepo) DeleteByCompetitionUser(ctx context.Context, competitionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	for _, item := range r.items {
		if item.UserID == userID && r.pointInCompetition(ctx, item, competitionID) {
			continue
		}
		kept = append(kept, item)
	}
	r.items = kept
	return nil
}

func (r *fakePointsRepo) pointInCompetition(ctx context.Context, item points.Point, competitionID string) bool {
	g, ok, _ := r.goals.GetByID(ctx, item.GoalID)
	return ok && g.CompetitionID == competitionID
}

func (r *fakePointsRepo) snapshot() []points.Point {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]points.Point, len(r.items))
	copy(out, r.items)
	return out
}

type fakeRecalcRepo struct {
	mu      sync.Mutex
	nextID  int64
	markers []recalc.Marker
	created int
}

func newFakeRecalcRepo() *fakeRecalcRepo { return &fakeRecalcRepo{} }

func (r *fakeRecalcRepo) Create(_ context.Context, item recalc.Marker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	item.ID = r.nextID
	r.markers = append(r.markers, item)
	r.created++
	return nil
}

func (r *fakeRecalcRepo) ListPending(_ context.Context) ([]recalc.Marker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recalc.Marker, len(r.markers))
	copy(out, r.markers)
	return out, nil
}

func (r *fakeRecalcRepo) DeleteByIDs(_ context.Context, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := r.markers[:0]
	for _, m := range r.markers {
		if _, ok := drop[m.ID]; ok {
			continue
		}
		kept = append(kept, m)
	}
	r.markers = kept
	return nil
}

func (r *fakeRecalcRepo) pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.markers)
}

func (r *fakeRecalcRepo) createdTotal() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created
}

// sequentialIDs hands out deterministic ids for tests.
type sequentialIDs struct {
	mu   sync.Mutex
	next int
}

func (g *sequentialIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("id-%04d", g.next), nil
}

// fixture wires the whole usecase layer over the fakes with drains that run
// inline (no delay, no debounce skips unless a test opts in).
type fixture struct {
	users        *fakeUserRepo
	competitions *fakeCompetitionRepo
	goals        *fakeGoalRepo
	workouts     *fakeWorkoutRepo
	points       *fakePointsRepo
	markers      *fakeRecalcRepo

	queue          *recordingQueue
	recalc         *RecalcService
	consistency    *ConsistencyService
	workoutSvc     *WorkoutService
	competitionSvc *CompetitionService
	goalSvc        *GoalService
	userSvc        *UserService
	statsSvc       *StatsService
}

func newFixture() *fixture {
	users := newFakeUserRepo()
	competitions := newFakeCompetitionRepo()
	goals := newFakeGoalRepo()
	workouts := newFakeWorkoutRepo()
	pts := newFakePointsRepo(goals, workouts)
	markers := newFakeRecalcRepo()

	recalcSvc := NewRecalcService(markers, pts, goals, nil, RecalcConfig{
		DebounceWindow: time.Nanosecond,
		RunBudget:      time.Minute,
		MaxRetries:     1,
		MaxWorkers:     2,
	}, nil)

	// Drains are recorded, not armed, so tests control when Run happens.
	queue := &recordingQueue{svc: recalcSvc}
	consistency := NewConsistencyService(competitions, goals, workouts, users, pts, queue, &sequentialIDs{}, nil)
	ids := &sequentialIDs{next: 1000}

	f := &fixture{
		users:        users,
		competitions: competitions,
		goals:        goals,
		workouts:     workouts,
		points:       pts,
		markers:      markers,
		queue:        queue,
		recalc:       recalcSvc,
		consistency:  consistency,
	}
	f.workoutSvc = NewWorkoutService(workouts, users, consistency, ids, nil)
	f.competitionSvc = NewCompetitionService(competitions, goals, consistency, ids, nil)
	f.goalSvc = NewGoalService(goals, competitions, consistency, ids, nil)
	f.userSvc = NewUserService(users, consistency, nil)
	f.statsSvc = NewStatsService(competitions, goals, pts, users, nil)
	return f
}

// drain runs the queue synchronously so tests observe a settled state.
func (f *fixture) drain(ctx context.Context) (RecalcRunReport, error) {
	return f.recalc.Run(ctx)
}

// recordingQueue forwards markers to the real service but only counts drain
// requests instead of arming background goroutines.
type recordingQueue struct {
	svc    *RecalcService
	drains atomic.Int32
}

func (q *recordingQueue) Enqueue(ctx context.Context, userID, goalID string, affectedFrom time.Time) error {
	return q.svc.Enqueue(ctx, userID, goalID, affectedFrom)
}

func (q *recordingQueue) ScheduleDrain(context.Context) {
	q.drains.Add(1)
}

func (f *fixture) addUser(u user.User) user.User {
	if u.ScalingKcal == 0 {
		u.ScalingKcal = 1
	}
	if u.ScalingDistance == 0 {
		u.ScalingDistance = 1
	}
	_ = f.users.Create(context.Background(), u)
	return u
}
