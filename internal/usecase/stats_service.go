package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/competition"
	"github.com/challengefit/workout-challenge/internal/domain/goal"
	"github.com/challengefit/workout-challenge/internal/domain/points"
	"github.com/challengefit/workout-challenge/internal/domain/user"
)

// standingsHistoryDays is the length of the per-user daily series returned
// with each goal's standings, today first.
const standingsHistoryDays = 14

type CompetitionStandings struct {
	CompetitionID string
	Goals         []GoalStandings
	Teams         []TeamStanding
}

type GoalStandings struct {
	GoalID   string
	GoalName string
	Metric   goal.Metric
	Entries  []StandingEntry
}

type StandingEntry struct {
	UserID   string
	UserName string
	TeamID   string
	Points   float64
	Rank     int
	// Daily holds capped points per calendar day, index 0 is today.
	Daily []float64
}

type TeamStanding struct {
	TeamID      string
	Name        string
	Points      float64
	Rank        int
	MemberCount int
}

type StatsService struct {
	competitionRepo competition.Repository
	goalRepo        goal.Repository
	pointsRepo      points.Repository
	userRepo        user.Repository
	logger          *slog.Logger
	now             func() time.Time
}

func NewStatsService(
	competitionRepo competition.Repository,
	goalRepo goal.Repository,
	pointsRepo points.Repository,
	userRepo user.Repository,
	logger *slog.Logger,
) *StatsService {
	if logger == nil {
		logger = slog.Default()
	}

	return &StatsService{
		competitionRepo: competitionRepo,
		goalRepo:        goalRepo,
		pointsRepo:      pointsRepo,
		userRepo:        userRepo,
		logger:          logger,
		now:             time.Now,
	}
}

// Standings builds per-goal leaderboards with dense ranking plus team totals
// summed across all goals. Only members may look.
func (s *StatsService) Standings(ctx context.Context, requesterID, competitionID string) (CompetitionStandings, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.Standings")
	defer span.End()

	comp, ok, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return CompetitionStandings{}, fmt.Errorf("get competition: %w", err)
	}
	if !ok {
		return CompetitionStandings{}, fmt.Errorf("%w: competition %s", ErrNotFound, competitionID)
	}

	memberships, err := s.competitionRepo.ListMemberships(ctx, competitionID)
	if err != nil {
		return CompetitionStandings{}, fmt.Errorf("list memberships: %w", err)
	}

	teamByUser := make(map[string]string, len(memberships))
	memberIDs := make([]string, 0, len(memberships))
	isMember := false
	for _, m := range memberships {
		teamByUser[m.UserID] = m.TeamID
		memberIDs = append(memberIDs, m.UserID)
		if m.UserID == requesterID {
			isMember = true
		}
	}
	if !isMember {
		return CompetitionStandings{}, fmt.Errorf("%w: competition %s", ErrUnauthorized, competitionID)
	}

	users, err := s.userRepo.ListByIDs(ctx, memberIDs)
	if err != nil {
		return CompetitionStandings{}, fmt.Errorf("list members: %w", err)
	}
	nameByUser := make(map[string]string, len(users))
	for _, u := range users {
		nameByUser[u.ID] = u.Name
	}

	goals, err := s.goalRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return CompetitionStandings{}, fmt.Errorf("list goals: %w", err)
	}

	out := CompetitionStandings{CompetitionID: competitionID}
	teamPoints := make(map[string]float64)
	teamMembers := make(map[string]map[string]struct{})
	today := truncateToDay(s.now())

	for _, g := range goals {
		pts, err := s.pointsRepo.ListByGoal(ctx, g.ID)
		if err != nil {
			return CompetitionStandings{}, fmt.Errorf("list points for goal %s: %w", g.ID, err)
		}

		totals := make(map[string]float64, len(memberIDs))
		daily := make(map[string][]float64, len(memberIDs))
		for _, memberID := range memberIDs {
			totals[memberID] = 0
			daily[memberID] = make([]float64, standingsHistoryDays)
		}
		for _, p := range pts {
			if _, ok := totals[p.UserID]; !ok {
				// Points of former members are excluded from standings.
				continue
			}
			totals[p.UserID] += p.Capped
			daysAgo := int(today.Sub(truncateToDay(p.WorkoutStartAt)).Hours() / 24)
			if daysAgo >= 0 && daysAgo < standingsHistoryDays {
				daily[p.UserID][daysAgo] += p.Capped
			}
		}

		entries := make([]StandingEntry, 0, len(totals))
		for _, memberID := range memberIDs {
			teamID := teamByUser[memberID]
			entries = append(entries, StandingEntry{
				UserID:   memberID,
				UserName: nameByUser[memberID],
				TeamID:   teamID,
				Points:   totals[memberID],
				Daily:    daily[memberID],
			})
			if teamID != "" {
				teamPoints[teamID] += totals[memberID]
				if teamMembers[teamID] == nil {
					teamMembers[teamID] = make(map[string]struct{})
				}
				teamMembers[teamID][memberID] = struct{}{}
			}
		}
		rankEntries(entries)

		out.Goals = append(out.Goals, GoalStandings{
			GoalID:   g.ID,
			GoalName: g.Name,
			Metric:   g.Metric,
			Entries:  entries,
		})
	}

	if comp.HasTeams {
		teams, err := s.competitionRepo.ListTeams(ctx, competitionID)
		if err != nil {
			return CompetitionStandings{}, fmt.Errorf("list teams: %w", err)
		}
		for _, team := range teams {
			out.Teams = append(out.Teams, TeamStanding{
				TeamID:      team.ID,
				Name:        team.Name,
				Points:      teamPoints[team.ID],
				MemberCount: len(teamMembers[team.ID]),
			})
		}
		rankTeams(out.Teams)
	}
	return out, nil
}

// rankEntries orders by points descending, user id ascending for stability,
// and applies dense ranks so ties share a rank.
func rankEntries(entries []StandingEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].UserID < entries[j].UserID
	})

	rank := 0
	var prev float64
	for i := range entries {
		if i == 0 || entries[i].Points != prev {
			rank++
			prev = entries[i].Points
		}
		entries[i].Rank = rank
	}
}

func rankTeams(teams []TeamStanding) {
	sort.Slice(teams, func(i, j int) bool {
		if teams[i].Points != teams[j].Points {
			return teams[i].Points > teams[j].Points
		}
		return teams[i].TeamID < teams[j].TeamID
	})

	rank := 0
	var prev float64
	for i := range teams {
		if i == 0 || teams[i].Points != prev {
			rank++
			prev = teams[i].Points
		}
		teams[i].Rank = rank
	}
}
