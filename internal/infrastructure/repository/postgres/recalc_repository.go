package postgres

import (
	"context"
	"fmt"

	"github.com/challengefit/workout-challenge/internal/domain/recalc"
	qb "github.com/challengefit/workout-challenge/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type RecalcRepository struct {
	db *sqlx.DB
}

func NewRecalcRepository(db *sqlx.DB) *RecalcRepository {
	return &RecalcRepository{db: db}
}

func (r *RecalcRepository) Create(ctx context.Context, item recalc.Marker) error {
	insertModel := recalcMarkerInsertModel{
		UserID:       item.UserID,
		GoalID:       item.GoalID,
		AffectedFrom: timeToUnix(item.AffectedFrom),
	}
	query, args, err := qb.InsertModel("recalc_markers", insertModel, "")
	if err != nil {
		return fmt.Errorf("build create recalc marker query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create recalc marker: %w", err)
	}

	return nil
}

func (r *RecalcRepository) ListPending(ctx context.Context) ([]recalc.Marker, error) {
	query, args, err := qb.Select("*").From("recalc_markers").
		Where(qb.IsNull("deleted_at")).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pending recalc markers query: %w", err)
	}

	var rows []recalcMarkerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list pending recalc markers: %w", err)
	}

	out := make([]recalc.Marker, 0, len(rows))
	for _, row := range rows {
		out = append(out, recalc.Marker{
			ID:           row.ID,
			UserID:       row.UserID,
			GoalID:       row.GoalID,
			AffectedFrom: unixToTime(row.AffectedFrom),
			CreatedAt:    row.CreatedAt,
		})
	}
	return out, nil
}

func (r *RecalcRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	values := make([]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}
	query, args, err := qb.Update("recalc_markers").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.In("id", values),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete recalc markers query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete recalc markers: %w", err)
	}

	return nil
}
