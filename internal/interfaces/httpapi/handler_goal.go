package httpapi

import (
	"net/http"
	"strings"

	"github.com/challengefit/workout-challenge/internal/domain/goal"
	"github.com/challengefit/workout-challenge/internal/usecase"
)

type goalUpsertRequest struct {
	Name              string   `json:"name" validate:"required,max=120"`
	Metric            string   `json:"metric" validate:"required"`
	Target            float64  `json:"target" validate:"required,gt=0"`
	Period            string   `json:"period" validate:"required"`
	CountStepsAsWalks *bool    `json:"countStepsAsWalks"`
	MinPerWorkout     *float64 `json:"minPerWorkout" validate:"omitempty,gte=0"`
	MaxPerWorkout     *float64 `json:"maxPerWorkout" validate:"omitempty,gte=0"`
	MinPerDay         *float64 `json:"minPerDay" validate:"omitempty,gte=0"`
	MaxPerDay         *float64 `json:"maxPerDay" validate:"omitempty,gte=0"`
	MinPerWeek        *float64 `json:"minPerWeek" validate:"omitempty,gte=0"`
	MaxPerWeek        *float64 `json:"maxPerWeek" validate:"omitempty,gte=0"`
}

type awardCreateRequest struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Sport        string  `json:"sport" validate:"required,max=60"`
	Threshold    float64 `json:"threshold" validate:"required,gt=0"`
	Period       string  `json:"period" validate:"required"`
	RewardPoints float64 `json:"rewardPoints" validate:"required,gt=0"`
}

func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateGoal")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	competitionID := strings.TrimSpace(r.PathValue("competitionID"))
	input, err := h.decodeGoalInput(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.goalService.Create(ctx, principal.UserID, competitionID, input)
	if err != nil {
		h.logger.WarnContext(ctx, "create goal failed", "user_id", principal.UserID, "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, goalToDTO(item))
}

func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateGoal")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	goalID := strings.TrimSpace(r.PathValue("goalID"))
	input, err := h.decodeGoalInput(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.goalService.Update(ctx, principal.UserID, goalID, input)
	if err != nil {
		h.logger.WarnContext(ctx, "update goal failed", "user_id", principal.UserID, "goal_id", goalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, goalToDTO(item))
}

func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGoals")
	defer span.End()

	if _, ok := requirePrincipal(ctx, w); !ok {
		return
	}

	competitionID := strings.TrimSpace(r.PathValue("competitionID"))
	items, err := h.goalService.ListByCompetition(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "list goals failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]goalDTO, 0, len(items))
	for _, item := range items {
		out = append(out, goalToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) CreateAward(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateAward")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	competitionID := strings.TrimSpace(r.PathValue("competitionID"))
	var req awardCreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.goalService.CreateAward(ctx, principal.UserID, competitionID, usecase.AwardInput{
		Name:         strings.TrimSpace(req.Name),
		Sport:        strings.TrimSpace(req.Sport),
		Threshold:    req.Threshold,
		Period:       goal.Period(req.Period),
		RewardPoints: req.RewardPoints,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create award failed", "user_id", principal.UserID, "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, awardToDTO(item))
}

func (h *Handler) ListAwards(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAwards")
	defer span.End()

	if _, ok := requirePrincipal(ctx, w); !ok {
		return
	}

	competitionID := strings.TrimSpace(r.PathValue("competitionID"))
	items, err := h.goalService.ListAwards(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "list awards failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]awardDTO, 0, len(items))
	for _, item := range items {
		out = append(out, awardToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) decodeGoalInput(r *http.Request) (usecase.GoalInput, error) {
	ctx := r.Context()

	var req goalUpsertRequest
	if err := decodeBody(r, &req); err != nil {
		return usecase.GoalInput{}, err
	}
	if err := h.validateRequest(ctx, req); err != nil {
		return usecase.GoalInput{}, err
	}

	// Omitting the flag opts the goal in, matching the column default.
	countStepsAsWalks := true
	if req.CountStepsAsWalks != nil {
		countStepsAsWalks = *req.CountStepsAsWalks
	}

	return usecase.GoalInput{
		Name:              strings.TrimSpace(req.Name),
		Metric:            goal.Metric(req.Metric),
		Target:            req.Target,
		Period:            goal.Period(req.Period),
		CountStepsAsWalks: countStepsAsWalks,
		MinPerWorkout:     req.MinPerWorkout,
		MaxPerWorkout:     req.MaxPerWorkout,
		MinPerDay:         req.MinPerDay,
		MaxPerDay:         req.MaxPerDay,
		MinPerWeek:        req.MinPerWeek,
		MaxPerWeek:        req.MaxPerWeek,
	}, nil
}
