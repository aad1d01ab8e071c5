package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/challengefit/workout-challenge/internal/usecase"
)

type workoutUpsertRequest struct {
	Sport           string   `json:"sport" validate:"required,max=60"`
	StartAt         string   `json:"startAt" validate:"required"`
	DurationSeconds int64    `json:"durationSeconds" validate:"required,gt=0"`
	Intensity       int      `json:"intensity" validate:"omitempty,min=1,max=4"`
	Kcal            *float64 `json:"kcal" validate:"omitempty,gte=0"`
	DistanceKm      *float64 `json:"distanceKm" validate:"omitempty,gte=0"`
	SourceID        string   `json:"sourceId" validate:"omitempty,max=120"`
}

type dailyStepsRequest struct {
	Day   string `json:"day" validate:"required"`
	Steps int    `json:"steps" validate:"gte=0"`
}

func (h *Handler) CreateWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateWorkout")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	input, err := h.decodeWorkoutInput(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if _, err := h.userService.Ensure(ctx, principal); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.workoutService.Create(ctx, principal.UserID, input)
	if err != nil {
		h.logger.WarnContext(ctx, "create workout failed", "user_id", principal.UserID, "sport", input.Sport, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, workoutToDTO(item))
}

func (h *Handler) UpdateWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateWorkout")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	workoutID := strings.TrimSpace(r.PathValue("workoutID"))
	input, err := h.decodeWorkoutInput(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.workoutService.Update(ctx, principal.UserID, workoutID, input)
	if err != nil {
		h.logger.WarnContext(ctx, "update workout failed", "user_id", principal.UserID, "workout_id", workoutID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, workoutToDTO(item))
}

func (h *Handler) DeleteWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteWorkout")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	workoutID := strings.TrimSpace(r.PathValue("workoutID"))
	if err := h.workoutService.Delete(ctx, principal.UserID, workoutID); err != nil {
		h.logger.WarnContext(ctx, "delete workout failed", "user_id", principal.UserID, "workout_id", workoutID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"id": workoutID})
}

func (h *Handler) GetWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWorkout")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	workoutID := strings.TrimSpace(r.PathValue("workoutID"))
	item, err := h.workoutService.Get(ctx, principal.UserID, workoutID)
	if err != nil {
		h.logger.WarnContext(ctx, "get workout failed", "user_id", principal.UserID, "workout_id", workoutID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, workoutToDTO(item))
}

func (h *Handler) ListMyWorkouts(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyWorkouts")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	items, err := h.workoutService.ListMine(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list workouts failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]workoutDTO, 0, len(items))
	for _, item := range items {
		out = append(out, workoutToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

// LogDailySteps replaces the step count for one calendar day; the synthetic
// step workout is re-derived from it.
func (h *Handler) LogDailySteps(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LogDailySteps")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req dailyStepsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	day, err := parseDay(req.Day)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if _, err := h.userService.Ensure(ctx, principal); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.workoutService.LogDailySteps(ctx, principal.UserID, day, req.Steps)
	if err != nil {
		h.logger.WarnContext(ctx, "log daily steps failed", "user_id", principal.UserID, "day", req.Day, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, workoutToDTO(item))
}

func (h *Handler) decodeWorkoutInput(r *http.Request) (usecase.WorkoutInput, error) {
	ctx := r.Context()

	var req workoutUpsertRequest
	if err := decodeBody(r, &req); err != nil {
		return usecase.WorkoutInput{}, err
	}
	if err := h.validateRequest(ctx, req); err != nil {
		return usecase.WorkoutInput{}, err
	}

	startAt, err := parseRFC3339("startAt", req.StartAt)
	if err != nil {
		return usecase.WorkoutInput{}, err
	}

	return usecase.WorkoutInput{
		Sport:     strings.TrimSpace(req.Sport),
		StartAt:   startAt,
		Duration:  time.Duration(req.DurationSeconds) * time.Second,
		Intensity: req.Intensity,
		Kcal:      req.Kcal,
		Distance:  req.DistanceKm,
		SourceID:  strings.TrimSpace(req.SourceID),
	}, nil
}

// parseDay accepts a calendar date with or without a time component.
func parseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, nil
	}
	return parseRFC3339("day", value)
}
