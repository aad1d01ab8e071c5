package goal

import "context"

type Repository interface {
	Create(ctx context.Context, item Goal) error
	GetByID(ctx context.Context, goalID string) (Goal, bool, error)
	Update(ctx context.Context, item Goal) error
	ListByCompetition(ctx context.Context, competitionID string) ([]Goal, error)

	CreateAward(ctx context.Context, item Award) error
	ListAwardsByCompetition(ctx context.Context, competitionID string) ([]Award, error)
}
