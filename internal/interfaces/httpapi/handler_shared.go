package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/challengefit/workout-challenge/internal/domain/competition"
	"github.com/challengefit/workout-challenge/internal/domain/goal"
	"github.com/challengefit/workout-challenge/internal/domain/user"
	"github.com/challengefit/workout-challenge/internal/domain/workout"
	"github.com/challengefit/workout-challenge/internal/usecase"
)

type Handler struct {
	userService        *usecase.UserService
	workoutService     *usecase.WorkoutService
	competitionService *usecase.CompetitionService
	goalService        *usecase.GoalService
	statsService       *usecase.StatsService
	recalcService      *usecase.RecalcService
	logger             *slog.Logger
	validator          *validator.Validate
}

func NewHandler(
	userService *usecase.UserService,
	workoutService *usecase.WorkoutService,
	competitionService *usecase.CompetitionService,
	goalService *usecase.GoalService,
	statsService *usecase.StatsService,
	recalcService *usecase.RecalcService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		userService:        userService,
		workoutService:     workoutService,
		competitionService: competitionService,
		goalService:        goalService,
		statsService:       statsService,
		recalcService:      recalcService,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListSports(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSports")
	defer span.End()

	sports := workout.Sports()
	items := make([]sportDTO, 0, len(sports))
	for _, sport := range sports {
		items = append(items, sportDTO{
			Sport:             sport,
			DistanceEstimated: workout.DistanceEstimated(sport),
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func decodeBody(r *http.Request, target any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", usecase.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func requirePrincipal(ctx context.Context, w http.ResponseWriter) (user.Principal, bool) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return user.Principal{}, false
	}
	return principal, true
}

func parseRFC3339(field, value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC3339: %v", usecase.ErrInvalidInput, field, err)
	}
	return parsed, nil
}

type sportDTO struct {
	Sport             string `json:"sport"`
	DistanceEstimated bool   `json:"distanceEstimated"`
}

type userDTO struct {
	ID              string  `json:"id"`
	Email           string  `json:"email"`
	Name            string  `json:"name"`
	ScalingKcal     float64 `json:"scalingKcal"`
	ScalingDistance float64 `json:"scalingDistance"`
	CreatedAtUTC    string  `json:"created_at_utc"`
	UpdatedAtUTC    string  `json:"updated_at_utc"`
}

type workoutDTO struct {
	ID              string   `json:"id"`
	Sport           string   `json:"sport"`
	StartAt         string   `json:"startAt"`
	DurationSeconds int64    `json:"durationSeconds"`
	Intensity       int      `json:"intensity"`
	Kcal            *float64 `json:"kcal,omitempty"`
	DistanceKm      *float64 `json:"distanceKm,omitempty"`
	Steps           *int     `json:"steps,omitempty"`
	SourceID        string   `json:"sourceId,omitempty"`
	CreatedAtUTC    string   `json:"created_at_utc"`
	UpdatedAtUTC    string   `json:"updated_at_utc"`
}

type competitionDTO struct {
	ID                    string `json:"id"`
	OwnerID               string `json:"owner_id"`
	Name                  string `json:"name"`
	StartDate             string `json:"startDate"`
	EndDate               string `json:"endDate"`
	HasTeams              bool   `json:"hasTeams"`
	OrganizerAssignsTeams bool   `json:"organizerAssignsTeams"`
	JoinCode              string `json:"joinCode"`
	CreatedAtUTC          string `json:"created_at_utc"`
	UpdatedAtUTC          string `json:"updated_at_utc"`
}

type teamDTO struct {
	ID            string `json:"id"`
	CompetitionID string `json:"competition_id"`
	Name          string `json:"name"`
	CreatedAtUTC  string `json:"created_at_utc"`
}

type goalDTO struct {
	ID                string   `json:"id"`
	CompetitionID     string   `json:"competition_id"`
	Name              string   `json:"name"`
	Metric            string   `json:"metric"`
	Target            float64  `json:"target"`
	Period            string   `json:"period"`
	CountStepsAsWalks bool     `json:"countStepsAsWalks"`
	MinPerWorkout     *float64 `json:"minPerWorkout,omitempty"`
	MaxPerWorkout     *float64 `json:"maxPerWorkout,omitempty"`
	MinPerDay         *float64 `json:"minPerDay,omitempty"`
	MaxPerDay         *float64 `json:"maxPerDay,omitempty"`
	MinPerWeek        *float64 `json:"minPerWeek,omitempty"`
	MaxPerWeek        *float64 `json:"maxPerWeek,omitempty"`
	CreatedAtUTC      string   `json:"created_at_utc"`
	UpdatedAtUTC      string   `json:"updated_at_utc"`
}

type awardDTO struct {
	ID            string  `json:"id"`
	CompetitionID string  `json:"competition_id"`
	Name          string  `json:"name"`
	Sport         string  `json:"sport"`
	Threshold     float64 `json:"threshold"`
	Period        string  `json:"period"`
	RewardPoints  float64 `json:"rewardPoints"`
	CreatedAtUTC  string  `json:"created_at_utc"`
	UpdatedAtUTC  string  `json:"updated_at_utc"`
}

func userToDTO(v user.User) userDTO {
	return userDTO{
		ID:              v.ID,
		Email:           v.Email,
		Name:            v.Name,
		ScalingKcal:     v.ScalingKcal,
		ScalingDistance: v.ScalingDistance,
		CreatedAtUTC:    v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtUTC:    v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func workoutToDTO(v workout.Workout) workoutDTO {
	return workoutDTO{
		ID:              v.ID,
		Sport:           v.Sport,
		StartAt:         v.StartAt.UTC().Format(time.RFC3339),
		DurationSeconds: int64(v.Duration / time.Second),
		Intensity:       v.Intensity,
		Kcal:            v.Kcal,
		DistanceKm:      v.Distance,
		Steps:           v.Steps,
		SourceID:        v.SourceID,
		CreatedAtUTC:    v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtUTC:    v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func competitionToDTO(v competition.Competition) competitionDTO {
	return competitionDTO{
		ID:                    v.ID,
		OwnerID:               v.OwnerID,
		Name:                  v.Name,
		StartDate:             v.StartDate.UTC().Format(time.RFC3339),
		EndDate:               v.EndDate.UTC().Format(time.RFC3339),
		HasTeams:              v.HasTeams,
		OrganizerAssignsTeams: v.OrganizerAssignsTeams,
		JoinCode:              v.JoinCode,
		CreatedAtUTC:          v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtUTC:          v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func teamToDTO(v competition.Team) teamDTO {
	return teamDTO{
		ID:            v.ID,
		CompetitionID: v.CompetitionID,
		Name:          v.Name,
		CreatedAtUTC:  v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func goalToDTO(v goal.Goal) goalDTO {
	return goalDTO{
		ID:                v.ID,
		CompetitionID:     v.CompetitionID,
		Name:              v.Name,
		Metric:            string(v.Metric),
		Target:            v.Target,
		Period:            string(v.Period),
		CountStepsAsWalks: v.CountStepsAsWalks,
		MinPerWorkout:     v.MinPerWorkout,
		MaxPerWorkout:     v.MaxPerWorkout,
		MinPerDay:         v.MinPerDay,
		MaxPerDay:         v.MaxPerDay,
		MinPerWeek:        v.MinPerWeek,
		MaxPerWeek:        v.MaxPerWeek,
		CreatedAtUTC:      v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtUTC:      v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func awardToDTO(v goal.Award) awardDTO {
	return awardDTO{
		ID:            v.ID,
		CompetitionID: v.CompetitionID,
		Name:          v.Name,
		Sport:         v.Sport,
		Threshold:     v.Threshold,
		Period:        string(v.Period),
		RewardPoints:  v.RewardPoints,
		CreatedAtUTC:  v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtUTC:  v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
