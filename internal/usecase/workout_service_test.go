package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/user"
	"github.com/challengefit/workout-challenge/internal/domain/workout"
)

func TestWorkoutCreateEstimatesMissingFields(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})

	item, err := f.workoutSvc.Create(ctx, "u1", WorkoutInput{
		Sport:    "Run",
		StartAt:  mustDay("2024-06-03").Add(7 * time.Hour),
		Duration: time.Hour,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if item.Intensity != workout.DefaultIntensity {
		t.Fatalf("intensity = %d, want default", item.Intensity)
	}
	// One hour of moderate running: MET 10.5.
	if item.Kcal == nil || math.Abs(*item.Kcal-10.5*75) > 1e-9 {
		t.Fatalf("kcal = %v, want %v", item.Kcal, 10.5*75)
	}
	if item.Distance == nil || math.Abs(*item.Distance-10.5) > 1e-9 {
		t.Fatalf("distance = %v, want 10.5", item.Distance)
	}
}

func TestWorkoutCreateKeepsRecordedValues(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})

	item, err := f.workoutSvc.Create(ctx, "u1", WorkoutInput{
		Sport:    "Run",
		StartAt:  mustDay("2024-06-03"),
		Duration: time.Hour,
		Kcal:     floatRef(640),
		Distance: floatRef(9.2),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if *item.Kcal != 640 || *item.Distance != 9.2 {
		t.Fatalf("recorded values overwritten: kcal=%v distance=%v", *item.Kcal, *item.Distance)
	}
}

func TestWorkoutCreateScalesEstimates(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1", ScalingKcal: 1.2, ScalingDistance: 0.8})

	item, err := f.workoutSvc.Create(ctx, "u1", WorkoutInput{
		Sport:    "Walk",
		StartAt:  mustDay("2024-06-03"),
		Duration: time.Hour,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if math.Abs(*item.Kcal-3.8*75*1.2) > 1e-9 {
		t.Fatalf("kcal = %v, want scaled estimate", *item.Kcal)
	}
	if math.Abs(*item.Distance-3.8*0.8) > 1e-9 {
		t.Fatalf("distance = %v, want scaled estimate", *item.Distance)
	}
}

func TestWorkoutCreateRejectsBadInput(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})

	cases := []WorkoutInput{
		{StartAt: mustDay("2024-06-03"), Duration: time.Hour},
		{Sport: "Run", Duration: time.Hour},
		{Sport: "Run", StartAt: mustDay("2024-06-03")},
		{Sport: "Run", StartAt: mustDay("2024-06-03"), Duration: time.Hour, Intensity: 7},
		{Sport: workout.SportSteps, StartAt: mustDay("2024-06-03"), Duration: time.Hour},
	}
	for i, input := range cases {
		if _, err := f.workoutSvc.Create(ctx, "u1", input); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: err = %v, want ErrInvalidInput", i, err)
		}
	}
}

func TestLogDailyStepsSynthesizesWalk(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})

	item, err := f.workoutSvc.LogDailySteps(ctx, "u1", mustDay("2024-06-03"), 10000)
	if err != nil {
		t.Fatalf("LogDailySteps: %v", err)
	}

	if item.Sport != workout.SportSteps || item.Intensity != workout.IntensityMin {
		t.Fatalf("item = %+v", item)
	}
	// 10000 steps at 0.82 m/step = 8.2 km.
	if math.Abs(*item.Distance-8.2) > 1e-9 {
		t.Fatalf("distance = %v, want 8.2", *item.Distance)
	}
	wantHours := 8.2 / 5.0
	if math.Abs(item.Duration.Hours()-wantHours) > 1e-9 {
		t.Fatalf("duration = %v, want %v hours", item.Duration.Hours(), wantHours)
	}
	if math.Abs(*item.Kcal-3.0*75*wantHours) > 1e-6 {
		t.Fatalf("kcal = %v, want %v", *item.Kcal, 3.0*75*wantHours)
	}
	if item.StartAt.Hour() != 23 || item.StartAt.Minute() != 59 {
		t.Fatalf("start = %v, want pinned to 23:59", item.StartAt)
	}
}

func TestLogDailyStepsSubtractsLoggedWalksAndRuns(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})

	day := mustDay("2024-06-03")
	if _, err := f.workoutSvc.Create(ctx, "u1", WorkoutInput{Sport: "Walk", StartAt: day.Add(8 * time.Hour), Duration: time.Hour}); err != nil {
		t.Fatalf("Create walk: %v", err)
	}
	if _, err := f.workoutSvc.Create(ctx, "u1", WorkoutInput{Sport: "Run", StartAt: day.Add(18 * time.Hour), Duration: 30 * time.Minute}); err != nil {
		t.Fatalf("Create run: %v", err)
	}

	// 12000 total minus 6000 walked and 5000 run.
	item, err := f.workoutSvc.LogDailySteps(ctx, "u1", day, 12000)
	if err != nil {
		t.Fatalf("LogDailySteps: %v", err)
	}
	if math.Abs(*item.Distance-0.82) > 1e-9 {
		t.Fatalf("distance = %v, want 0.82 for the remaining 1000 steps", *item.Distance)
	}
}

func TestLogDailyStepsClampsAtZero(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})

	day := mustDay("2024-06-03")
	if _, err := f.workoutSvc.Create(ctx, "u1", WorkoutInput{Sport: "Run", StartAt: day.Add(6 * time.Hour), Duration: 2 * time.Hour}); err != nil {
		t.Fatalf("Create run: %v", err)
	}

	item, err := f.workoutSvc.LogDailySteps(ctx, "u1", day, 5000)
	if err != nil {
		t.Fatalf("LogDailySteps: %v", err)
	}
	if *item.Distance != 0 || item.Duration != 0 {
		t.Fatalf("item = %+v, want an empty synthetic walk", item)
	}
}

func TestLogDailyStepsUpsertsSameDay(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	day := mustDay("2024-06-03")

	first, err := f.workoutSvc.LogDailySteps(ctx, "u1", day, 4000)
	if err != nil {
		t.Fatalf("LogDailySteps: %v", err)
	}
	second, err := f.workoutSvc.LogDailySteps(ctx, "u1", day, 9000)
	if err != nil {
		t.Fatalf("LogDailySteps: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected the same synthetic workout, got %s and %s", first.ID, second.ID)
	}
	items, _ := f.workouts.ListByUser(ctx, "u1")
	if len(items) != 1 {
		t.Fatalf("workouts = %d, want 1", len(items))
	}
	if math.Abs(*items[0].Distance-0.82*9) > 1e-9 {
		t.Fatalf("distance = %v, want re-derived from 9000 steps", *items[0].Distance)
	}
}

func TestCreatingWalkRefreshesSameDaySteps(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	day := mustDay("2024-06-03")

	if _, err := f.workoutSvc.LogDailySteps(ctx, "u1", day, 10000); err != nil {
		t.Fatalf("LogDailySteps: %v", err)
	}

	if _, err := f.workoutSvc.Create(ctx, "u1", WorkoutInput{Sport: "Walk", StartAt: day.Add(9 * time.Hour), Duration: time.Hour}); err != nil {
		t.Fatalf("Create walk: %v", err)
	}

	stepWorkout, ok, _ := f.workouts.GetStepWorkout(ctx, "u1", day)
	if !ok {
		t.Fatal("step workout vanished")
	}
	// 10000 minus 6000 walked leaves 4000 steps = 3.28 km.
	if math.Abs(*stepWorkout.Distance-3.28) > 1e-9 {
		t.Fatalf("distance = %v, want 3.28 after the walk was logged", *stepWorkout.Distance)
	}
}

func TestWorkoutUpdateAuthorization(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	f.addUser(user.User{ID: "u2"})

	item, err := f.workoutSvc.Create(ctx, "u1", WorkoutInput{Sport: "Run", StartAt: mustDay("2024-06-03"), Duration: time.Hour})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	input := WorkoutInput{Sport: "Run", StartAt: mustDay("2024-06-04"), Duration: time.Hour}
	if _, err := f.workoutSvc.Update(ctx, "u2", item.ID, input); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if err := f.workoutSvc.Delete(ctx, "u2", item.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if _, err := f.workoutSvc.Update(ctx, "u1", "missing", input); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeletingRunRefreshesSameDaySteps(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "u1"})
	day := mustDay("2024-06-03")

	run, err := f.workoutSvc.Create(ctx, "u1", WorkoutInput{Sport: "Run", StartAt: day.Add(7 * time.Hour), Duration: 30 * time.Minute})
	if err != nil {
		t.Fatalf("Create run: %v", err)
	}
	if _, err := f.workoutSvc.LogDailySteps(ctx, "u1", day, 10000); err != nil {
		t.Fatalf("LogDailySteps: %v", err)
	}
	stepWorkout, _, _ := f.workouts.GetStepWorkout(ctx, "u1", day)
	if math.Abs(*stepWorkout.Distance-0.82*5) > 1e-9 {
		t.Fatalf("distance = %v, want half the steps absorbed by the run", *stepWorkout.Distance)
	}

	if err := f.workoutSvc.Delete(ctx, "u1", run.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	stepWorkout, _, _ = f.workouts.GetStepWorkout(ctx, "u1", day)
	if math.Abs(*stepWorkout.Distance-8.2) > 1e-9 {
		t.Fatalf("distance = %v, want the full 10000 steps back", *stepWorkout.Distance)
	}
}
