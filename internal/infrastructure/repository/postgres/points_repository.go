package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/goal"
	"github.com/challengefit/workout-challenge/internal/domain/points"
	qb "github.com/challengefit/workout-challenge/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type PointsRepository struct {
	db *sqlx.DB
}

func NewPointsRepository(db *sqlx.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

func (r *PointsRepository) Create(ctx context.Context, item points.Point) error {
	insertModel := pointInsertModel{
		PublicID:       item.ID,
		GoalID:         item.GoalID,
		AwardID:        item.AwardID,
		WorkoutID:      item.WorkoutID,
		UserID:         item.UserID,
		WorkoutStartAt: timeToUnix(item.WorkoutStartAt),
		Raw:            item.Raw,
		Capped:         item.Capped,
	}
	query, args, err := qb.InsertModel("points", insertModel, `ON CONFLICT (goal_public_id, award_public_id, workout_public_id) WHERE deleted_at IS NULL
DO NOTHING`)
	if err != nil {
		return fmt.Errorf("build create point query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create point: %w", err)
	}

	return nil
}

func (r *PointsRepository) ListByWorkout(ctx context.Context, workoutID string) ([]points.Point, error) {
	query, args, err := qb.Select("*").From("points").
		Where(
			qb.Eq("workout_public_id", workoutID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list points by workout query: %w", err)
	}

	var rows []pointTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list points by workout: %w", err)
	}

	return pointsFromRows(rows), nil
}

func (r *PointsRepository) ListByUserGoalFrom(ctx context.Context, userID, goalID string, from time.Time) ([]points.Point, error) {
	query, args, err := qb.Select("*").From("points").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("goal_public_id", goalID),
			qb.Expr("workout_start_at >= ?", timeToUnix(from)),
			qb.IsNull("deleted_at"),
		).
		OrderBy("workout_start_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list points by user goal query: %w", err)
	}

	var rows []pointTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list points by user goal: %w", err)
	}

	return pointsFromRows(rows), nil
}

func (r *PointsRepository) ListByGoal(ctx context.Context, goalID string) ([]points.Point, error) {
	query, args, err := qb.Select("*").From("points").
		Where(
			qb.Eq("goal_public_id", goalID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list points by goal query: %w", err)
	}

	var rows []pointTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list points by goal: %w", err)
	}

	return pointsFromRows(rows), nil
}

func (r *PointsRepository) ListByUserMetrics(ctx context.Context, userID string, metrics []goal.Metric) ([]points.Point, error) {
	if len(metrics) == 0 {
		return nil, nil
	}

	values := make([]any, 0, len(metrics))
	for _, m := range metrics {
		values = append(values, string(m))
	}
	query, args, err := qb.Select("p.*").
		From("points p JOIN goals g ON g.public_id = p.goal_public_id").
		Where(
			qb.Eq("p.user_id", userID),
			qb.In("g.metric", values),
			qb.IsNull("p.deleted_at"),
			qb.IsNull("g.deleted_at"),
		).
		OrderBy("p.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list points by user metrics query: %w", err)
	}

	var rows []pointTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list points by user metrics: %w", err)
	}

	return pointsFromRows(rows), nil
}

func (r *PointsRepository) UpdateValues(ctx context.Context, pointID string, raw, capped float64) error {
	query, args, err := qb.Update("points").
		Set("raw", raw).
		Set("capped", capped).
		Where(
			qb.Eq("public_id", pointID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update point values query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update point values: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update point values: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update point values: not found")
	}

	return nil
}

func (r *PointsRepository) UpdateCapped(ctx context.Context, pointID string, capped float64) error {
	query, args, err := qb.Update("points").
		Set("capped", capped).
		Where(
			qb.Eq("public_id", pointID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update point capped query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update point capped: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update point capped: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update point capped: not found")
	}

	return nil
}

func (r *PointsRepository) UpdateWorkoutStartAt(ctx context.Context, workoutID string, startAt time.Time) error {
	query, args, err := qb.Update("points").
		Set("workout_start_at", timeToUnix(startAt)).
		Where(
			qb.Eq("workout_public_id", workoutID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update point workout start query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update point workout start: %w", err)
	}

	return nil
}

func (r *PointsRepository) DeleteByWorkout(ctx context.Context, workoutID string) error {
	query, args, err := qb.Update("points").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Eq("workout_public_id", workoutID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete points by workout query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete points by workout: %w", err)
	}

	return nil
}

func (r *PointsRepository) DeleteByGoalStepWorkouts(ctx context.Context, goalID string) error {
	query, args, err := qb.Update("points").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Eq("goal_public_id", goalID),
			qb.Expr("workout_public_id IN (SELECT public_id FROM workouts WHERE steps IS NOT NULL AND deleted_at IS NULL)"),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete step points by goal query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete step points by goal: %w", err)
	}

	return nil
}

func (r *PointsRepository) ListUserGoalPairsBefore(ctx context.Context, competitionID string, cutoff time.Time) ([]points.UserGoalPair, error) {
	query, args, err := qb.Select("DISTINCT p.user_id", "p.goal_public_id").
		From("points p JOIN goals g ON g.public_id = p.goal_public_id").
		Where(
			qb.Eq("g.competition_public_id", competitionID),
			qb.Expr("p.workout_start_at < ?", timeToUnix(cutoff)),
			qb.IsNull("p.deleted_at"),
			qb.IsNull("g.deleted_at"),
		).
		OrderBy("p.user_id", "p.goal_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list user goal pairs query: %w", err)
	}

	var rows []userGoalPairRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list user goal pairs: %w", err)
	}

	out := make([]points.UserGoalPair, 0, len(rows))
	for _, row := range rows {
		out = append(out, points.UserGoalPair{UserID: row.UserID, GoalID: row.GoalID})
	}
	return out, nil
}

func (r *PointsRepository) DeleteByCompetitionBefore(ctx context.Context, competitionID string, cutoff time.Time) error {
	return r.deleteByCompetitionWindow(ctx, competitionID, "workout_start_at < ?", cutoff, "delete points by competition before")
}

func (r *PointsRepository) DeleteByCompetitionOnOrAfter(ctx context.Context, competitionID string, cutoff time.Time) error {
	return r.deleteByCompetitionWindow(ctx, competitionID, "workout_start_at >= ?", cutoff, "delete points by competition on or after")
}

func (r *PointsRepository) deleteByCompetitionWindow(ctx context.Context, competitionID, boundExpr string, cutoff time.Time, label string) error {
	query, args, err := qb.Update("points").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Expr("goal_public_id IN (SELECT public_id FROM goals WHERE competition_public_id = ? AND deleted_at IS NULL)", competitionID),
			qb.Expr(boundExpr, timeToUnix(cutoff)),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build %s query: %w", label, err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}

	return nil
}

func (r *PointsRepository) DeleteByCompetitionUser(ctx context.Context, competitionID, userID string) error {
	query, args, err := qb.Update("points").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Eq("user_id", userID),
			qb.Expr("goal_public_id IN (SELECT public_id FROM goals WHERE competition_public_id = ? AND deleted_at IS NULL)", competitionID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete points by competition user query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete points by competition user: %w", err)
	}

	return nil
}

func pointsFromRows(rows []pointTableModel) []points.Point {
	out := make([]points.Point, 0, len(rows))
	for _, row := range rows {
		out = append(out, points.Point{
			ID:             row.PublicID,
			GoalID:         row.GoalID,
			AwardID:        row.AwardID,
			WorkoutID:      row.WorkoutID,
			UserID:         row.UserID,
			WorkoutStartAt: unixToTime(row.WorkoutStartAt),
			Raw:            row.Raw,
			Capped:         row.Capped,
			CreatedAt:      row.CreatedAt,
			UpdatedAt:      row.UpdatedAt,
		})
	}
	return out
}
