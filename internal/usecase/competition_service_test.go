package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/user"
)

func TestCompetitionCreateSetsUpDefaults(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "owner"})

	comp, err := f.competitionSvc.Create(ctx, "owner", CompetitionInput{
		Name:      "June Moveathon",
		StartDate: mustDay("2024-06-01"),
		EndDate:   mustDay("2024-06-30"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if comp.JoinCode == "" {
		t.Fatal("join code missing")
	}
	memberIDs, _ := f.competitions.ListMemberIDs(ctx, comp.ID)
	if len(memberIDs) != 1 || memberIDs[0] != "owner" {
		t.Fatalf("members = %v, want the owner auto-joined", memberIDs)
	}

	goals, _ := f.goals.ListByCompetition(ctx, comp.ID)
	if len(goals) != 2 {
		t.Fatalf("default goals = %d, want 2", len(goals))
	}
	if goals[0].Name != "Exercise" || goals[1].Name != "Move" {
		t.Fatalf("default goals = %v, %v", goals[0].Name, goals[1].Name)
	}
	if goals[0].Target != 150 || goals[1].Target != 1800 {
		t.Fatalf("default targets = %v, %v", goals[0].Target, goals[1].Target)
	}
	if !goals[0].CountStepsAsWalks || !goals[1].CountStepsAsWalks {
		t.Fatal("default goals should count steps as walks")
	}
}

func TestCompetitionCreateBackfillsOwnerWorkouts(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "owner"})

	// Logged before the competition existed.
	if _, err := f.workoutSvc.Create(ctx, "owner", WorkoutInput{
		Sport:    "Run",
		StartAt:  mustDay("2024-06-05"),
		Duration: 30 * time.Minute,
	}); err != nil {
		t.Fatalf("Create workout: %v", err)
	}

	if _, err := f.competitionSvc.Create(ctx, "owner", CompetitionInput{
		Name:      "June Moveathon",
		StartDate: mustDay("2024-06-01"),
		EndDate:   mustDay("2024-06-30"),
	}); err != nil {
		t.Fatalf("Create competition: %v", err)
	}

	// One point per default goal for the pre-existing workout.
	if got := len(f.points.snapshot()); got != 2 {
		t.Fatalf("points = %d, want 2", got)
	}
}

func TestCompetitionCreateValidates(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	cases := []CompetitionInput{
		{StartDate: mustDay("2024-06-01"), EndDate: mustDay("2024-06-30")},
		{Name: "x", EndDate: mustDay("2024-06-30")},
		{Name: "x", StartDate: mustDay("2024-06-30"), EndDate: mustDay("2024-06-01")},
		{Name: "x", StartDate: mustDay("2024-06-01"), EndDate: mustDay("2024-06-30"), OrganizerAssignsTeams: true},
	}
	for i, input := range cases {
		if _, err := f.competitionSvc.Create(ctx, "owner", input); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: err = %v, want ErrInvalidInput", i, err)
		}
	}
}

func TestCompetitionJoinByCode(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "owner"})
	f.addUser(user.User{ID: "friend"})

	comp, err := f.competitionSvc.Create(ctx, "owner", CompetitionInput{
		Name:      "June Moveathon",
		StartDate: mustDay("2024-06-01"),
		EndDate:   mustDay("2024-06-30"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.workoutSvc.Create(ctx, "friend", WorkoutInput{
		Sport:    "Run",
		StartAt:  mustDay("2024-06-03"),
		Duration: 30 * time.Minute,
	}); err != nil {
		t.Fatalf("Create workout: %v", err)
	}
	pointsBefore := len(f.points.snapshot())

	joined, err := f.competitionSvc.Join(ctx, "friend", "  "+comp.JoinCode+" ")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if joined.ID != comp.ID {
		t.Fatalf("joined %s, want %s", joined.ID, comp.ID)
	}

	// The friend's earlier workout is backfilled for both default goals.
	if got := len(f.points.snapshot()); got != pointsBefore+2 {
		t.Fatalf("points = %d, want %d", got, pointsBefore+2)
	}

	// Joining twice is a no-op.
	if _, err := f.competitionSvc.Join(ctx, "friend", comp.JoinCode); err != nil {
		t.Fatalf("second Join: %v", err)
	}
	if got := len(f.points.snapshot()); got != pointsBefore+2 {
		t.Fatalf("points after rejoin = %d, want unchanged", got)
	}

	if _, err := f.competitionSvc.Join(ctx, "friend", "NOPE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCompetitionLeavePurgesPoints(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "owner"})
	f.addUser(user.User{ID: "friend"})

	comp, err := f.competitionSvc.Create(ctx, "owner", CompetitionInput{
		Name:      "June Moveathon",
		StartDate: mustDay("2024-06-01"),
		EndDate:   mustDay("2024-06-30"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.competitionSvc.Join(ctx, "friend", comp.JoinCode); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := f.workoutSvc.Create(ctx, "friend", WorkoutInput{
		Sport:    "Run",
		StartAt:  mustDay("2024-06-03"),
		Duration: 30 * time.Minute,
	}); err != nil {
		t.Fatalf("Create workout: %v", err)
	}

	if err := f.competitionSvc.Leave(ctx, "friend", comp.ID); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	for _, p := range f.points.snapshot() {
		if p.UserID == "friend" {
			t.Fatalf("leftover point: %+v", p)
		}
	}
}

func TestCompetitionUpdateOwnerOnly(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "owner"})

	comp, err := f.competitionSvc.Create(ctx, "owner", CompetitionInput{
		Name:      "June Moveathon",
		StartDate: mustDay("2024-06-01"),
		EndDate:   mustDay("2024-06-30"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	input := CompetitionInput{Name: "Renamed", StartDate: comp.StartDate, EndDate: comp.EndDate}
	if _, err := f.competitionSvc.Update(ctx, "stranger", comp.ID, input); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	updated, err := f.competitionSvc.Update(ctx, "owner", comp.ID, input)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Fatalf("name = %s", updated.Name)
	}
}

func TestTeamAssignmentRules(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addUser(user.User{ID: "owner"})
	f.addUser(user.User{ID: "friend"})

	comp, err := f.competitionSvc.Create(ctx, "owner", CompetitionInput{
		Name:                  "Team Battle",
		StartDate:             mustDay("2024-06-01"),
		EndDate:               mustDay("2024-06-30"),
		HasTeams:              true,
		OrganizerAssignsTeams: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.competitionSvc.Join(ctx, "friend", comp.JoinCode); err != nil {
		t.Fatalf("Join: %v", err)
	}

	team, err := f.competitionSvc.CreateTeam(ctx, "owner", comp.ID, "Reds")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if _, err := f.competitionSvc.CreateTeam(ctx, "friend", comp.ID, "Blues"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}

	// Organizer-assigned: members may not pick for themselves.
	if err := f.competitionSvc.AssignTeam(ctx, "friend", comp.ID, "friend", team.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if err := f.competitionSvc.AssignTeam(ctx, "owner", comp.ID, "friend", team.ID); err != nil {
		t.Fatalf("AssignTeam: %v", err)
	}

	memberships, _ := f.competitions.ListMemberships(ctx, comp.ID)
	for _, m := range memberships {
		if m.UserID == "friend" && m.TeamID != team.ID {
			t.Fatalf("membership = %+v, want team assigned", m)
		}
	}
}
