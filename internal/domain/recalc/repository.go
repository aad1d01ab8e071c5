package recalc

import "context"

type Repository interface {
	Create(ctx context.Context, item Marker) error
	ListPending(ctx context.Context) ([]Marker, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
}
