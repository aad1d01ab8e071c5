package httpapi

import (
	"net/http"
	"strings"

	"github.com/challengefit/workout-challenge/internal/usecase"
)

type competitionStandingsDTO struct {
	CompetitionID string             `json:"competition_id"`
	Goals         []goalStandingsDTO `json:"goals"`
	Teams         []teamStandingDTO  `json:"teams,omitempty"`
}

type goalStandingsDTO struct {
	GoalID   string             `json:"goal_id"`
	GoalName string             `json:"goalName"`
	Metric   string             `json:"metric"`
	Entries  []standingEntryDTO `json:"entries"`
}

type standingEntryDTO struct {
	UserID   string    `json:"user_id"`
	UserName string    `json:"userName"`
	TeamID   string    `json:"team_id,omitempty"`
	Points   float64   `json:"points"`
	Rank     int       `json:"rank"`
	Daily    []float64 `json:"daily"`
}

type teamStandingDTO struct {
	TeamID      string  `json:"team_id"`
	Name        string  `json:"name"`
	Points      float64 `json:"points"`
	Rank        int     `json:"rank"`
	MemberCount int     `json:"memberCount"`
}

func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStandings")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	competitionID := strings.TrimSpace(r.PathValue("competitionID"))
	standings, err := h.statsService.Standings(ctx, principal.UserID, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get standings failed", "user_id", principal.UserID, "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, standingsToDTO(standings))
}

func standingsToDTO(v usecase.CompetitionStandings) competitionStandingsDTO {
	out := competitionStandingsDTO{
		CompetitionID: v.CompetitionID,
		Goals:         make([]goalStandingsDTO, 0, len(v.Goals)),
	}

	for _, g := range v.Goals {
		entries := make([]standingEntryDTO, 0, len(g.Entries))
		for _, entry := range g.Entries {
			entries = append(entries, standingEntryDTO{
				UserID:   entry.UserID,
				UserName: entry.UserName,
				TeamID:   entry.TeamID,
				Points:   entry.Points,
				Rank:     entry.Rank,
				Daily:    append([]float64(nil), entry.Daily...),
			})
		}
		out.Goals = append(out.Goals, goalStandingsDTO{
			GoalID:   g.GoalID,
			GoalName: g.GoalName,
			Metric:   string(g.Metric),
			Entries:  entries,
		})
	}

	for _, team := range v.Teams {
		out.Teams = append(out.Teams, teamStandingDTO{
			TeamID:      team.TeamID,
			Name:        team.Name,
			Points:      team.Points,
			Rank:        team.Rank,
			MemberCount: team.MemberCount,
		})
	}

	return out
}
