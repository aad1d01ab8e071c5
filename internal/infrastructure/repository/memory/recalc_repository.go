package memory

import (
	"context"
	"sync"

	"github.com/challengefit/workout-challenge/internal/domain/recalc"
)

type RecalcRepository struct {
	mu      sync.Mutex
	nextID  int64
	markers []recalc.Marker
}

func NewRecalcRepository() *RecalcRepository {
	return &RecalcRepository{}
}

func (r *RecalcRepository) Create(_ context.Context, item recalc.Marker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	item.ID = r.nextID
	r.markers = append(r.markers, item)
	return nil
}

func (r *RecalcRepository) ListPending(_ context.Context) ([]recalc.Marker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]recalc.Marker, len(r.markers))
	copy(out, r.markers)
	return out, nil
}

func (r *RecalcRepository) DeleteByIDs(_ context.Context, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := r.markers[:0]
	for _, m := range r.markers {
		if _, ok := drop[m.ID]; ok {
			continue
		}
		kept = append(kept, m)
	}
	r.markers = kept
	return nil
}
