package httpapi

import (
	"net/http"
	"strings"

	"github.com/challengefit/workout-challenge/internal/usecase"
)

type competitionUpsertRequest struct {
	Name                  string `json:"name" validate:"required,max=120"`
	StartDate             string `json:"startDate" validate:"required"`
	EndDate               string `json:"endDate" validate:"required"`
	HasTeams              bool   `json:"hasTeams"`
	OrganizerAssignsTeams bool   `json:"organizerAssignsTeams"`
}

type joinCompetitionRequest struct {
	JoinCode string `json:"joinCode" validate:"required,min=4,max=32"`
}

type createTeamRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type assignTeamRequest struct {
	UserID string `json:"user_id" validate:"required"`
	TeamID string `json:"team_id" validate:"required"`
}

func (h *Handler) CreateCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateCompetition")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	input, err := h.decodeCompetitionInput(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if _, err := h.userService.Ensure(ctx, principal); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.competitionService.Create(ctx, principal.UserID, input)
	if err != nil {
		h.logger.WarnContext(ctx, "create competition failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, competitionToDTO(item))
}

func (h *Handler) UpdateCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateCompetition")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	competitionID := strings.TrimSpace(r.PathValue("competitionID"))
	input, err := h.decodeCompetitionInput(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.competitionService.Update(ctx, principal.UserID, competitionID, input)
	if err != nil {
		h.logger.WarnContext(ctx, "update competition failed", "user_id", principal.UserID, "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, competitionToDTO(item))
}

func (h *Handler) GetCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCompetition")
	defer span.End()

	if _, ok := requirePrincipal(ctx, w); !ok {
		return
	}

	competitionID := strings.TrimSpace(r.PathValue("competitionID"))
	item, err := h.competitionService.Get(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get competition failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, competitionToDTO(item))
}

func (h *Handler) ListMyCompetitions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyCompetitions")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	items, err := h.competitionService.ListMine(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list competitions failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]competitionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, competitionToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) JoinCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinCompetition")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req joinCompetitionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if _, err := h.userService.Ensure(ctx, principal); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.competitionService.Join(ctx, principal.UserID, req.JoinCode)
	if err != nil {
		h.logger.WarnContext(ctx, "join competition failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, competitionToDTO(item))
}

func (h *Handler) LeaveCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LeaveCompetition")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	competitionID := strings.TrimSpace(r.PathValue("competitionID"))
	if err := h.competitionService.Leave(ctx, principal.UserID, competitionID); err != nil {
		h.logger.WarnContext(ctx, "leave competition failed", "user_id", principal.UserID, "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"competition_id": competitionID})
}

func (h *Handler) CreateCompetitionTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateCompetitionTeam")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	competitionID := strings.TrimSpace(r.PathValue("competitionID"))
	var req createTeamRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	team, err := h.competitionService.CreateTeam(ctx, principal.UserID, competitionID, req.Name)
	if err != nil {
		h.logger.WarnContext(ctx, "create team failed", "user_id", principal.UserID, "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, teamToDTO(team))
}

func (h *Handler) ListCompetitionTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCompetitionTeams")
	defer span.End()

	if _, ok := requirePrincipal(ctx, w); !ok {
		return
	}

	competitionID := strings.TrimSpace(r.PathValue("competitionID"))
	teams, err := h.competitionService.ListTeams(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "list teams failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]teamDTO, 0, len(teams))
	for _, team := range teams {
		out = append(out, teamToDTO(team))
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) AssignCompetitionTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AssignCompetitionTeam")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	competitionID := strings.TrimSpace(r.PathValue("competitionID"))
	var req assignTeamRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.competitionService.AssignTeam(ctx, principal.UserID, competitionID, req.UserID, req.TeamID); err != nil {
		h.logger.WarnContext(ctx, "assign team failed", "user_id", principal.UserID, "competition_id", competitionID, "member_id", req.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{
		"competition_id": competitionID,
		"user_id":        req.UserID,
		"team_id":        req.TeamID,
	})
}

func (h *Handler) decodeCompetitionInput(r *http.Request) (usecase.CompetitionInput, error) {
	ctx := r.Context()

	var req competitionUpsertRequest
	if err := decodeBody(r, &req); err != nil {
		return usecase.CompetitionInput{}, err
	}
	if err := h.validateRequest(ctx, req); err != nil {
		return usecase.CompetitionInput{}, err
	}

	startDate, err := parseRFC3339("startDate", req.StartDate)
	if err != nil {
		return usecase.CompetitionInput{}, err
	}
	endDate, err := parseRFC3339("endDate", req.EndDate)
	if err != nil {
		return usecase.CompetitionInput{}, err
	}

	return usecase.CompetitionInput{
		Name:                  strings.TrimSpace(req.Name),
		StartDate:             startDate,
		EndDate:               endDate,
		HasTeams:              req.HasTeams,
		OrganizerAssignsTeams: req.OrganizerAssignsTeams,
	}, nil
}
