package postgres

import (
	"context"
	"fmt"

	"github.com/challengefit/workout-challenge/internal/domain/goal"
	qb "github.com/challengefit/workout-challenge/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type GoalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func (r *GoalRepository) Create(ctx context.Context, item goal.Goal) error {
	insertModel := goalInsertModel{
		PublicID:          item.ID,
		CompetitionID:     item.CompetitionID,
		Name:              item.Name,
		Metric:            string(item.Metric),
		Target:            item.Target,
		Period:            string(item.Period),
		CountStepsAsWalks: item.CountStepsAsWalks,
		MinPerWorkout:     nullableFloat(item.MinPerWorkout),
		MaxPerWorkout:     nullableFloat(item.MaxPerWorkout),
		MinPerDay:         nullableFloat(item.MinPerDay),
		MaxPerDay:         nullableFloat(item.MaxPerDay),
		MinPerWeek:        nullableFloat(item.MinPerWeek),
		MaxPerWeek:        nullableFloat(item.MaxPerWeek),
	}
	query, args, err := qb.InsertModel("goals", insertModel, "")
	if err != nil {
		return fmt.Errorf("build create goal query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}

	return nil
}

func (r *GoalRepository) GetByID(ctx context.Context, goalID string) (goal.Goal, bool, error) {
	query, args, err := qb.Select("*").From("goals").
		Where(
			qb.Eq("public_id", goalID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return goal.Goal{}, false, fmt.Errorf("build get goal by id query: %w", err)
	}

	var row goalTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return goal.Goal{}, false, nil
		}
		return goal.Goal{}, false, fmt.Errorf("get goal by id: %w", err)
	}

	return goalFromRow(row), true, nil
}

func (r *GoalRepository) Update(ctx context.Context, item goal.Goal) error {
	query, args, err := qb.Update("goals").
		Set("name", item.Name).
		Set("metric", string(item.Metric)).
		Set("target", item.Target).
		Set("period", string(item.Period)).
		Set("count_steps_as_walks", item.CountStepsAsWalks).
		Set("min_per_workout", nullableFloat(item.MinPerWorkout)).
		Set("max_per_workout", nullableFloat(item.MaxPerWorkout)).
		Set("min_per_day", nullableFloat(item.MinPerDay)).
		Set("max_per_day", nullableFloat(item.MaxPerDay)).
		Set("min_per_week", nullableFloat(item.MinPerWeek)).
		Set("max_per_week", nullableFloat(item.MaxPerWeek)).
		Where(
			qb.Eq("public_id", item.ID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update goal query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update goal: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update goal: not found")
	}

	return nil
}

func (r *GoalRepository) ListByCompetition(ctx context.Context, competitionID string) ([]goal.Goal, error) {
	query, args, err := qb.Select("*").From("goals").
		Where(
			qb.Eq("competition_public_id", competitionID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list goals by competition query: %w", err)
	}

	var rows []goalTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list goals by competition: %w", err)
	}

	out := make([]goal.Goal, 0, len(rows))
	for _, row := range rows {
		out = append(out, goalFromRow(row))
	}
	return out, nil
}

func (r *GoalRepository) CreateAward(ctx context.Context, item goal.Award) error {
	insertModel := awardInsertModel{
		PublicID:      item.ID,
		CompetitionID: item.CompetitionID,
		Name:          item.Name,
		Sport:         item.Sport,
		Threshold:     item.Threshold,
		Period:        string(item.Period),
		RewardPoints:  item.RewardPoints,
	}
	query, args, err := qb.InsertModel("awards", insertModel, "")
	if err != nil {
		return fmt.Errorf("build create award query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create award: %w", err)
	}

	return nil
}

func (r *GoalRepository) ListAwardsByCompetition(ctx context.Context, competitionID string) ([]goal.Award, error) {
	query, args, err := qb.Select("*").From("awards").
		Where(
			qb.Eq("competition_public_id", competitionID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list awards by competition query: %w", err)
	}

	var rows []awardTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list awards by competition: %w", err)
	}

	out := make([]goal.Award, 0, len(rows))
	for _, row := range rows {
		out = append(out, goal.Award{
			ID:            row.PublicID,
			CompetitionID: row.CompetitionID,
			Name:          row.Name,
			Sport:         row.Sport,
			Threshold:     row.Threshold,
			Period:        goal.Period(row.Period),
			RewardPoints:  row.RewardPoints,
			CreatedAt:     row.CreatedAt,
			UpdatedAt:     row.UpdatedAt,
		})
	}
	return out, nil
}

func goalFromRow(row goalTableModel) goal.Goal {
	return goal.Goal{
		ID:                row.PublicID,
		CompetitionID:     row.CompetitionID,
		Name:              row.Name,
		Metric:            goal.Metric(row.Metric),
		Target:            row.Target,
		Period:            goal.Period(row.Period),
		CountStepsAsWalks: row.CountStepsAsWalks,
		MinPerWorkout:     nullFloatToPtr(row.MinPerWorkout),
		MaxPerWorkout:     nullFloatToPtr(row.MaxPerWorkout),
		MinPerDay:         nullFloatToPtr(row.MinPerDay),
		MaxPerDay:         nullFloatToPtr(row.MaxPerDay),
		MinPerWeek:        nullFloatToPtr(row.MinPerWeek),
		MaxPerWeek:        nullFloatToPtr(row.MaxPerWeek),
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}
