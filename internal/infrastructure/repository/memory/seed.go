package memory

import (
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/competition"
	"github.com/challengefit/workout-challenge/internal/domain/goal"
	"github.com/challengefit/workout-challenge/internal/domain/user"
	"github.com/challengefit/workout-challenge/internal/domain/workout"
)

const (
	SeedUserIDAna = "usr-ana"
	SeedUserIDBen = "usr-ben"

	SeedCompetitionID = "cmp-summer-moveathon"
	SeedGoalExercise  = "gol-exercise"
	SeedGoalMove      = "gol-move"
)

func SeedUsers() []user.User {
	return []user.User{
		{ID: SeedUserIDAna, Email: "ana@example.com", Name: "Ana", ScalingKcal: 1, ScalingDistance: 1},
		{ID: SeedUserIDBen, Email: "ben@example.com", Name: "Ben", ScalingKcal: 1.1, ScalingDistance: 0.9},
	}
}

func SeedCompetitions() []competition.Competition {
	return []competition.Competition{
		{
			ID:        SeedCompetitionID,
			OwnerID:   SeedUserIDAna,
			Name:      "Summer Moveathon",
			StartDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
			JoinCode:  "SUMMERMO12345678",
		},
	}
}

func SeedGoals() []goal.Goal {
	exerciseMaxDay, exerciseMaxWeek := 60.0, 240.0
	moveMaxDay, moveMaxWeek := 1000.0, 3000.0

	return []goal.Goal{
		{
			ID:                SeedGoalExercise,
			CompetitionID:     SeedCompetitionID,
			Name:              "Exercise",
			Metric:            goal.MetricMinutes,
			Target:            150,
			Period:            goal.PeriodWeek,
			CountStepsAsWalks: true,
			MaxPerDay:         &exerciseMaxDay,
			MaxPerWeek:        &exerciseMaxWeek,
		},
		{
			ID:                SeedGoalMove,
			CompetitionID:     SeedCompetitionID,
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

func SeedWorkouts() []workout.Workout {
	kcalRun := 420.0
	kmRun := 6.2
	kcalRide := 510.0
	kmRide := 18.4

	return []workout.Workout{
		{
			ID:        "wrk-seed-001",
			UserID:    SeedUserIDAna,
			Sport:     "Run",
			StartAt:   time.Date(2026, 6, 2, 6, 45, 0, 0, time.UTC),
			Duration:  38 * time.Minute,
			Intensity: 2,
			Kcal:      &kcalRun,
			Distance:  &kmRun,
		},
		{
			ID:        "wrk-seed-002",
			UserID:    SeedUserIDBen,
			Sport:     "Ride",
			StartAt:   time.Date(2026, 6, 2, 17, 30, 0, 0, time.UTC),
			Duration:  52 * time.Minute,
			Intensity: 3,
			Kcal:      &kcalRide,
			Distance:  &kmRide,
		},
	}
}

// SeedMemberships wires the seed users into the seed competition.
func SeedMemberships() []competition.Membership {
	joined := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	return []competition.Membership{
		{CompetitionID: SeedCompetitionID, UserID: SeedUserIDAna, JoinedAt: joined},
		{CompetitionID: SeedCompetitionID, UserID: SeedUserIDBen, JoinedAt: joined},
	}
}
