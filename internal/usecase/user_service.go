package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/changeset"
	"github.com/challengefit/workout-challenge/internal/domain/user"
)

type UserService struct {
	userRepo    user.Repository
	consistency *ConsistencyService
	logger      *slog.Logger
	now         func() time.Time
}

func NewUserService(userRepo user.Repository, consistency *ConsistencyService, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}

	return &UserService{
		userRepo:    userRepo,
		consistency: consistency,
		logger:      logger,
		now:         time.Now,
	}
}

// Ensure returns the stored user for a verified principal, creating the row
// with neutral scaling on first sight.
func (s *UserService) Ensure(ctx context.Context, principal user.Principal) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.Ensure")
	defer span.End()

	existing, ok, err := s.userRepo.GetByID(ctx, principal.UserID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	if ok {
		return existing, nil
	}

	now := s.now().UTC()
	item := user.User{
		ID:              principal.UserID,
		Email:           principal.Email,
		ScalingKcal:     1,
		ScalingDistance: 1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.userRepo.Create(ctx, item); err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}
	return item, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.Get")
	defer span.End()

	item, ok, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return user.User{}, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	return item, nil
}

// UpdateScaling changes a user's handicap factors and refreshes every point
// that depends on them. Nil arguments leave the current factor untouched.
func (s *UserService) UpdateScaling(ctx context.Context, userID string, scalingKcal, scalingDistance *float64) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.UpdateScaling")
	defer span.End()

	before, ok, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return user.User{}, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}

	after := before
	if scalingKcal != nil {
		if !user.ValidScaling(*scalingKcal) {
			return user.User{}, fmt.Errorf("%w: kcal scaling %v out of range", ErrInvalidInput, *scalingKcal)
		}
		after.ScalingKcal = *scalingKcal
	}
	if scalingDistance != nil {
		if !user.ValidScaling(*scalingDistance) {
			return user.User{}, fmt.Errorf("%w: distance scaling %v out of range", ErrInvalidInput, *scalingDistance)
		}
		after.ScalingDistance = *scalingDistance
	}

	changes := changeset.Track(before, after)
	if len(changes) == 0 {
		return before, nil
	}

	after.UpdatedAt = s.now().UTC()
	if err := s.userRepo.Update(ctx, after); err != nil {
		return user.User{}, fmt.Errorf("update user: %w", err)
	}
	if err := s.consistency.UserUpdated(ctx, after, changes); err != nil {
		return user.User{}, err
	}
	return after, nil
}
