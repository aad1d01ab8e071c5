package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/changeset"
	"github.com/challengefit/workout-challenge/internal/domain/competition"
	"github.com/challengefit/workout-challenge/internal/domain/goal"
	"github.com/challengefit/workout-challenge/internal/domain/user"
	"github.com/challengefit/workout-challenge/internal/domain/workout"
)

func mustDay(v string) time.Time {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		panic(err)
	}
	return t
}

func floatRef(v float64) *float64 { return &v }

// seedCompetition creates a June 2024 competition with one member and one
// minutes goal, bypassing the services so each test controls its setup.
func seedCompetition(f *fixture, userID string) (competition.Competition, goal.Goal) {
	ctx := context.Background()
	comp := competition.Competition{
		ID:        "comp-1",
		OwnerID:   userID,
		Name:      "June Moveathon",
		StartDate: mustDay("2024-06-01"),
		EndDate:   mustDay("2024-06-30"),
		JoinCode:  "JUNEMOVE00112345",
	}
	_ = f.competitions.Create(ctx, comp)
	_ = f.competitions.AddMember(ctx, competition.Membership{CompetitionID: comp.ID, UserID: userID, JoinedAt: comp.StartDate})

	g := goal.Goal{
		ID:            "goal-min",
		CompetitionID: comp.ID,
		Name:          "Exercise",
		Metric:        goal.MetricMinutes,
		Target:        100,
		Period:        goal.PeriodWeek,
	}
	_ = f.goals.Create(ctx, g)
	return comp, g
}

func TestWorkoutCreatedScoresCoveringGoals(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	_, g := seedCompetition(f, "u1")

	item := workout.Workout{
		ID:      "w1",
		UserID:  "u1",
		Sport:   "Run",
		StartAt: mustDay("2024-06-03").Add(7 * time.Hour),
		Duration: 30 * time.Minute,
	}
	_ = f.workouts.Create(ctx, item)
	if err := f.consistency.WorkoutCreated(ctx, item); err != nil {
		t.Fatalf("WorkoutCreated: %v", err)
	}

	pts := f.points.snapshot()
	if len(pts) != 1 {
		t.Fatalf("points = %d, want 1", len(pts))
	}
	if pts[0].GoalID != g.ID || pts[0].Raw != 30 || pts[0].Capped != 30 {
		t.Fatalf("point = %+v", pts[0])
	}
	if f.markers.pending() != 1 {
		t.Fatalf("pending markers = %d, want 1", f.markers.pending())
	}
}

func TestWorkoutOutsideWindowScoresNothing(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	seedCompetition(f, "u1")

	item := workout.Workout{
		ID:      "w1",
		UserID:  "u1",
		Sport:   "Run",
		StartAt: mustDay("2024-07-01"),
		Duration: 30 * time.Minute,
	}
	_ = f.workouts.Create(ctx, item)
	if err := f.consistency.WorkoutCreated(ctx, item); err != nil {
		t.Fatalf("WorkoutCreated: %v", err)
	}

	if got := len(f.points.snapshot()); got != 0 {
		t.Fatalf("points = %d, want 0", got)
	}
	if f.markers.pending() != 0 {
		t.Fatalf("pending markers = %d, want 0", f.markers.pending())
	}
}

func TestWorkoutUpdatedRefreshesOnlyAffectedMetrics(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	comp, _ := seedCompetition(f, "u1")
	kcalGoal := goal.Goal{ID: "goal-kcal", CompetitionID: comp.ID, Name: "Move", Metric: goal.MetricKcal, Target: 500, Period: goal.PeriodWeek}
	_ = f.goals.Create(ctx, kcalGoal)

	item := workout.Workout{
		ID:      "w1",
		UserID:  "u1",
		Sport:   "Run",
		StartAt: mustDay("2024-06-03"),
		Duration: 30 * time.Minute,
		Kcal:    floatRef(250),
	}
	_ = f.workouts.Create(ctx, item)
	if err := f.consistency.WorkoutCreated(ctx, item); err != nil {
		t.Fatalf("WorkoutCreated: %v", err)
	}

	before := item
	item.Kcal = floatRef(500)
	_ = f.workouts.Update(ctx, item)
	changes := changeset.Track(before, item)
	if err := f.consistency.WorkoutUpdated(ctx, item, changes); err != nil {
		t.Fatalf("WorkoutUpdated: %v", err)
	}

	for _, p := range f.points.snapshot() {
		switch p.GoalID {
		case "goal-min":
			if p.Raw != 30 {
				t.Fatalf("minutes point refreshed unexpectedly: %+v", p)
			}
		case "goal-kcal":
			if p.Raw != 100 {
				t.Fatalf("kcal point = %+v, want raw 100", p)
			}
		}
	}
}

func TestWorkoutUpdatedStartMoveMarksEarlierDate(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	seedCompetition(f, "u1")

	item := workout.Workout{
		ID:      "w1",
		UserID:  "u1",
		Sport:   "Run",
		StartAt: mustDay("2024-06-10"),
		Duration: 30 * time.Minute,
	}
	_ = f.workouts.Create(ctx, item)
	if err := f.consistency.WorkoutCreated(ctx, item); err != nil {
		t.Fatalf("WorkoutCreated: %v", err)
	}
	if _, err := f.drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}

	before := item
	item.StartAt = mustDay("2024-06-05")
	_ = f.workouts.Update(ctx, item)
	if err := f.consistency.WorkoutUpdated(ctx, item, changeset.Track(before, item)); err != nil {
		t.Fatalf("WorkoutUpdated: %v", err)
	}

	markers, _ := f.markers.ListPending(ctx)
	if len(markers) != 1 {
		t.Fatalf("markers = %d, want 1", len(markers))
	}
	if !markers[0].AffectedFrom.Equal(mustDay("2024-06-05")) {
		t.Fatalf("affected from = %v, want the earlier date", markers[0].AffectedFrom)
	}

	pts := f.points.snapshot()
	if len(pts) != 1 || !pts[0].WorkoutStartAt.Equal(mustDay("2024-06-05")) {
		t.Fatalf("point start not denormalized: %+v", pts)
	}
}

func TestWorkoutDeletedPurgesAndMarks(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	seedCompetition(f, "u1")

	item := workout.Workout{ID: "w1", UserID: "u1", Sport: "Run", StartAt: mustDay("2024-06-03"), Duration: 30 * time.Minute}
	_ = f.workouts.Create(ctx, item)
	_ = f.consistency.WorkoutCreated(ctx, item)
	if _, err := f.drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}

	_ = f.workouts.Delete(ctx, item.ID)
	if err := f.consistency.WorkoutDeleted(ctx, item); err != nil {
		t.Fatalf("WorkoutDeleted: %v", err)
	}

	if got := len(f.points.snapshot()); got != 0 {
		t.Fatalf("points = %d, want 0", got)
	}
	if f.markers.pending() != 1 {
		t.Fatalf("pending markers = %d, want 1", f.markers.pending())
	}
}

func TestGoalCreatedBackfillsMemberWorkouts(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	comp, _ := seedCompetition(f, "u1")

	_ = f.workouts.Create(ctx, workout.Workout{ID: "w1", UserID: "u1", Sport: "Run", StartAt: mustDay("2024-06-02"), Duration: 20 * time.Minute})
	_ = f.workouts.Create(ctx, workout.Workout{ID: "w2", UserID: "u1", Sport: "Walk", StartAt: mustDay("2024-06-30").Add(12 * time.Hour), Duration: 40 * time.Minute})
	// Outside the window, must not be backfilled.
	_ = f.workouts.Create(ctx, workout.Workout{ID: "w3", UserID: "u1", Sport: "Run", StartAt: mustDay("2024-07-02"), Duration: 20 * time.Minute})

	g := goal.Goal{ID: "goal-new", CompetitionID: comp.ID, Name: "Minutes", Metric: goal.MetricMinutes, Target: 100, Period: goal.PeriodWeek}
	_ = f.goals.Create(ctx, g)
	if err := f.consistency.GoalCreated(ctx, g); err != nil {
		t.Fatalf("GoalCreated: %v", err)
	}

	count := 0
	for _, p := range f.points.snapshot() {
		if p.GoalID == g.ID {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("backfilled points = %d, want 2", count)
	}

	markers, _ := f.markers.ListPending(ctx)
	found := false
	for _, m := range markers {
		if m.GoalID == g.ID && m.AffectedFrom.Equal(comp.StartDate) {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a marker at the competition start")
	}
}

func TestGoalStepFlipBackfillsAndPurges(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	_, g := seedCompetition(f, "u1")

	steps := 8000
	stepWorkout := workout.Workout{
		ID:      "w-steps",
		UserID:  "u1",
		Sport:   workout.SportSteps,
		StartAt: mustDay("2024-06-05").Add(23*time.Hour + 59*time.Minute),
		Duration: time.Hour,
		Steps:   &steps,
	}
	_ = f.workouts.Create(ctx, stepWorkout)
	_ = f.consistency.WorkoutCreated(ctx, stepWorkout)
	if got := len(f.points.snapshot()); got != 0 {
		t.Fatalf("step workout scored against opted-out goal: %d points", got)
	}

	before := g
	g.CountStepsAsWalks = true
	_ = f.goals.Update(ctx, g)
	if err := f.consistency.GoalUpdated(ctx, g, changeset.Track(before, g)); err != nil {
		t.Fatalf("GoalUpdated: %v", err)
	}
	if got := len(f.points.snapshot()); got != 1 {
		t.Fatalf("points after opt-in = %d, want 1", got)
	}

	before = g
	g.CountStepsAsWalks = false
	_ = f.goals.Update(ctx, g)
	if err := f.consistency.GoalUpdated(ctx, g, changeset.Track(before, g)); err != nil {
		t.Fatalf("GoalUpdated: %v", err)
	}
	if got := len(f.points.snapshot()); got != 0 {
		t.Fatalf("points after opt-out = %d, want 0", got)
	}
}

func TestGoalRenameIsInert(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	_, g := seedCompetition(f, "u1")

	before := g
	g.Name = "Renamed"
	_ = f.goals.Update(ctx, g)
	if err := f.consistency.GoalUpdated(ctx, g, changeset.Track(before, g)); err != nil {
		t.Fatalf("GoalUpdated: %v", err)
	}
	if f.markers.pending() != 0 {
		t.Fatalf("rename enqueued %d markers", f.markers.pending())
	}
}

func TestCompetitionStartMovedLaterTrimsAndMarks(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	comp, _ := seedCompetition(f, "u1")

	early := workout.Workout{ID: "w1", UserID: "u1", Sport: "Run", StartAt: mustDay("2024-06-02"), Duration: 20 * time.Minute}
	late := workout.Workout{ID: "w2", UserID: "u1", Sport: "Run", StartAt: mustDay("2024-06-20"), Duration: 20 * time.Minute}
	for _, item := range []workout.Workout{early, late} {
		_ = f.workouts.Create(ctx, item)
		_ = f.consistency.WorkoutCreated(ctx, item)
	}
	if _, err := f.drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}

	before := comp
	comp.StartDate = mustDay("2024-06-10")
	_ = f.competitions.Update(ctx, comp)
	if err := f.consistency.CompetitionUpdated(ctx, comp, changeset.Track(before, comp)); err != nil {
		t.Fatalf("CompetitionUpdated: %v", err)
	}

	pts := f.points.snapshot()
	if len(pts) != 1 || pts[0].WorkoutID != "w2" {
		t.Fatalf("points = %+v, want only the late workout", pts)
	}
	markers, _ := f.markers.ListPending(ctx)
	if len(markers) != 1 || !markers[0].AffectedFrom.Equal(comp.StartDate) {
		t.Fatalf("markers = %+v, want one at the new start", markers)
	}
}

func TestCompetitionEndMovedEarlierTrimsWithoutMarkers(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	comp, _ := seedCompetition(f, "u1")

	kept := workout.Workout{ID: "w1", UserID: "u1", Sport: "Run", StartAt: mustDay("2024-06-10"), Duration: 20 * time.Minute}
	trimmed := workout.Workout{ID: "w2", UserID: "u1", Sport: "Run", StartAt: mustDay("2024-06-25"), Duration: 20 * time.Minute}
	for _, item := range []workout.Workout{kept, trimmed} {
		_ = f.workouts.Create(ctx, item)
		_ = f.consistency.WorkoutCreated(ctx, item)
	}
	if _, err := f.drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}

	before := comp
	comp.EndDate = mustDay("2024-06-15")
	_ = f.competitions.Update(ctx, comp)
	if err := f.consistency.CompetitionUpdated(ctx, comp, changeset.Track(before, comp)); err != nil {
		t.Fatalf("CompetitionUpdated: %v", err)
	}

	pts := f.points.snapshot()
	if len(pts) != 1 || pts[0].WorkoutID != "w1" {
		t.Fatalf("points = %+v, want only the kept workout", pts)
	}
	if f.markers.pending() != 0 {
		t.Fatalf("end trim enqueued %d markers, want 0", f.markers.pending())
	}
}

func TestCompetitionEndMovedLaterBackfills(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	comp, _ := seedCompetition(f, "u1")

	// Logged after the original window; becomes eligible when the end moves.
	july := workout.Workout{ID: "w1", UserID: "u1", Sport: "Run", StartAt: mustDay("2024-07-05"), Duration: 20 * time.Minute}
	_ = f.workouts.Create(ctx, july)
	_ = f.consistency.WorkoutCreated(ctx, july)
	if got := len(f.points.snapshot()); got != 0 {
		t.Fatalf("points before extension = %d, want 0", got)
	}

	before := comp
	comp.EndDate = mustDay("2024-07-15")
	_ = f.competitions.Update(ctx, comp)
	if err := f.consistency.CompetitionUpdated(ctx, comp, changeset.Track(before, comp)); err != nil {
		t.Fatalf("CompetitionUpdated: %v", err)
	}

	if got := len(f.points.snapshot()); got != 1 {
		t.Fatalf("points after extension = %d, want 1", got)
	}
}

func TestMembershipAddedBackfillsAndRemovedPurges(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	f.addUser(user.User{ID: "u2"})
	comp, g := seedCompetition(f, "u1")

	_ = f.workouts.Create(ctx, workout.Workout{ID: "w1", UserID: "u2", Sport: "Run", StartAt: mustDay("2024-06-04"), Duration: 50 * time.Minute})

	_ = f.competitions.AddMember(ctx, competition.Membership{CompetitionID: comp.ID, UserID: "u2", JoinedAt: mustDay("2024-06-10")})
	if err := f.consistency.MembershipAdded(ctx, comp, "u2"); err != nil {
		t.Fatalf("MembershipAdded: %v", err)
	}

	pts := f.points.snapshot()
	if len(pts) != 1 || pts[0].UserID != "u2" || pts[0].GoalID != g.ID || pts[0].Raw != 50 {
		t.Fatalf("points = %+v", pts)
	}

	if err := f.consistency.MembershipRemoved(ctx, comp, "u2"); err != nil {
		t.Fatalf("MembershipRemoved: %v", err)
	}
	if got := len(f.points.snapshot()); got != 0 {
		t.Fatalf("points after removal = %d, want 0", got)
	}
}

func TestMembershipBackfillThenStepOptInKeepsOnePointPerWorkout(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	f.addUser(user.User{ID: "u2"})
	comp, g := seedCompetition(f, "u1")

	steps := 8000
	stepWorkout := workout.Workout{
		ID:      "w-steps",
		UserID:  "u2",
		Sport:   workout.SportSteps,
		StartAt: mustDay("2024-06-05"),
		Duration: time.Hour,
		Steps:   &steps,
	}
	_ = f.workouts.Create(ctx, stepWorkout)

	// Joining mirrors every workout row, step-derived ones included.
	_ = f.competitions.AddMember(ctx, competition.Membership{CompetitionID: comp.ID, UserID: "u2", JoinedAt: mustDay("2024-06-10")})
	if err := f.consistency.MembershipAdded(ctx, comp, "u2"); err != nil {
		t.Fatalf("MembershipAdded: %v", err)
	}
	if got := len(f.points.snapshot()); got != 1 {
		t.Fatalf("points after join = %d, want 1", got)
	}

	before := g
	g.CountStepsAsWalks = true
	_ = f.goals.Update(ctx, g)
	if err := f.consistency.GoalUpdated(ctx, g, changeset.Track(before, g)); err != nil {
		t.Fatalf("GoalUpdated: %v", err)
	}

	var matched int
	for _, p := range f.points.snapshot() {
		if p.GoalID == g.ID && p.WorkoutID == stepWorkout.ID {
			matched++
		}
	}
	if matched != 1 {
		t.Fatalf("points for goal %s workout %s = %d, want exactly 1", g.ID, stepWorkout.ID, matched)
	}
}

func TestUserScalingChangeRefreshesDependentPoints(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	comp, _ := seedCompetition(f, "u1")
	kcalGoal := goal.Goal{ID: "goal-kcal", CompetitionID: comp.ID, Name: "Move", Metric: goal.MetricKcal, Target: 500, Period: goal.PeriodWeek}
	_ = f.goals.Create(ctx, kcalGoal)

	item := workout.Workout{ID: "w1", UserID: "u1", Sport: "Run", StartAt: mustDay("2024-06-03"), Duration: 30 * time.Minute, Kcal: floatRef(500)}
	_ = f.workouts.Create(ctx, item)
	_ = f.consistency.WorkoutCreated(ctx, item)
	if _, err := f.drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}

	scaled := user.User{ID: "u1", ScalingKcal: 1.25, ScalingDistance: 1}
	_ = f.users.Update(ctx, scaled)
	changes := changeset.Changes{"ScalingKcal": {Old: 1.0, New: 1.25}}
	if err := f.consistency.UserUpdated(ctx, scaled, changes); err != nil {
		t.Fatalf("UserUpdated: %v", err)
	}

	for _, p := range f.points.snapshot() {
		switch p.GoalID {
		case "goal-kcal":
			if math.Abs(p.Raw-80) > 1e-9 {
				t.Fatalf("kcal point raw = %v, want 80", p.Raw)
			}
		case "goal-min":
			if p.Raw != 30 {
				t.Fatalf("minutes point raw changed: %v", p.Raw)
			}
		}
	}
}
