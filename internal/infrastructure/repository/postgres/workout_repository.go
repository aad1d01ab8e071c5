package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/challengefit/workout-challenge/internal/domain/workout"
	qb "github.com/challengefit/workout-challenge/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type WorkoutRepository struct {
	db *sqlx.DB
}

func NewWorkoutRepository(db *sqlx.DB) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

func (r *WorkoutRepository) Create(ctx context.Context, item workout.Workout) error {
	query, args, err := qb.InsertModel("workouts", workoutToInsertModel(item), "")
	if err != nil {
		return fmt.Errorf("build create workout query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create workout: %w", err)
	}

	return nil
}

func (r *WorkoutRepository) GetByID(ctx context.Context, workoutID string) (workout.Workout, bool, error) {
	query, args, err := qb.Select("*").From("workouts").
		Where(
			qb.Eq("public_id", workoutID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return workout.Workout{}, false, fmt.Errorf("build get workout by id query: %w", err)
	}

	var row workoutTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return workout.Workout{}, false, nil
		}
		return workout.Workout{}, false, fmt.Errorf("get workout by id: %w", err)
	}

	return workoutFromRow(row), true, nil
}

func (r *WorkoutRepository) Update(ctx context.Context, item workout.Workout) error {
	query, args, err := qb.Update("workouts").
		Set("sport", item.Sport).
		Set("start_at", timeToUnix(item.StartAt)).
		Set("duration_seconds", int64(item.Duration/time.Second)).
		Set("intensity", item.Intensity).
		Set("kcal", nullableFloat(item.Kcal)).
		Set("distance_km", nullableFloat(item.Distance)).
		Set("steps", nullableInt(item.Steps)).
		Set("source_id", item.SourceID).
		Where(
			qb.Eq("public_id", item.ID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update workout query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update workout: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update workout: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update workout: not found")
	}

	return nil
}

func (r *WorkoutRepository) Delete(ctx context.Context, workoutID string) error {
	query, args, err := qb.Update("workouts").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Eq("public_id", workoutID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete workout query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}

	return nil
}

func (r *WorkoutRepository) ListByUser(ctx context.Context, userID string) ([]workout.Workout, error) {
	query, args, err := qb.Select("*").From("workouts").
		Where(
			qb.Eq("user_id", userID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("start_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list workouts by user query: %w", err)
	}

	var rows []workoutTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list workouts by user: %w", err)
	}

	return workoutsFromRows(rows), nil
}

func (r *WorkoutRepository) ListByUsersBetween(ctx context.Context, userIDs []string, from, to time.Time) ([]workout.Workout, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	values := make([]any, 0, len(userIDs))
	for _, id := range userIDs {
		values = append(values, id)
	}
	query, args, err := qb.Select("*").From("workouts").
		Where(
			qb.In("user_id", values),
			qb.Expr("start_at >= ?", timeToUnix(from)),
			qb.Expr("start_at < ?", timeToUnix(to)),
			qb.IsNull("deleted_at"),
		).
		OrderBy("start_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list workouts by users between query: %w", err)
	}

	var rows []workoutTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list workouts by users between: %w", err)
	}

	return workoutsFromRows(rows), nil
}

func (r *WorkoutRepository) GetStepWorkout(ctx context.Context, userID string, day time.Time) (workout.Workout, bool, error) {
	dayStart, dayEnd := dayBounds(day)
	query, args, err := qb.Select("*").From("workouts").
		Where(
			qb.Eq("user_id", userID),
			qb.Expr("steps IS NOT NULL"),
			qb.Expr("start_at >= ?", dayStart),
			qb.Expr("start_at < ?", dayEnd),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		Limit(1).
		ToSQL()
	if err != nil {
		return workout.Workout{}, false, fmt.Errorf("build get step workout query: %w", err)
	}

	var row workoutTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return workout.Workout{}, false, nil
		}
		return workout.Workout{}, false, fmt.Errorf("get step workout: %w", err)
	}

	return workoutFromRow(row), true, nil
}

func (r *WorkoutRepository) SumDurationByUserDaySport(ctx context.Context, userID string, day time.Time, sports []string) (map[string]time.Duration, error) {
	if len(sports) == 0 {
		return map[string]time.Duration{}, nil
	}

	values := make([]any, 0, len(sports))
	for _, sport := range sports {
		values = append(values, sport)
	}
	dayStart, dayEnd := dayBounds(day)
	query, args, err := qb.Select("sport", "COALESCE(SUM(duration_seconds), 0) AS total_seconds").
		From("workouts").
		Where(
			qb.Eq("user_id", userID),
			qb.In("sport", values),
			qb.Expr("steps IS NULL"),
			qb.Expr("start_at >= ?", dayStart),
			qb.Expr("start_at < ?", dayEnd),
			qb.IsNull("deleted_at"),
		).
		GroupBy("sport").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build sum workout durations query: %w", err)
	}

	var rows []sportDurationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("sum workout durations: %w", err)
	}

	out := make(map[string]time.Duration, len(rows))
	for _, row := range rows {
		out[row.Sport] = time.Duration(row.TotalSeconds) * time.Second
	}
	return out, nil
}

// dayBounds returns the [start, end) unix window of the UTC day containing t.
func dayBounds(t time.Time) (int64, int64) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start.Unix(), start.AddDate(0, 0, 1).Unix()
}

func workoutToInsertModel(item workout.Workout) workoutInsertModel {
	return workoutInsertModel{
		PublicID:        item.ID,
		UserID:          item.UserID,
		Sport:           item.Sport,
		StartAt:         timeToUnix(item.StartAt),
		DurationSeconds: int64(item.Duration / time.Second),
		Intensity:       item.Intensity,
		Kcal:            nullableFloat(item.Kcal),
		DistanceKm:      nullableFloat(item.Distance),
		Steps:           nullableInt(item.Steps),
		SourceID:        item.SourceID,
	}
}

func workoutFromRow(row workoutTableModel) workout.Workout {
	return workout.Workout{
		ID:        row.PublicID,
		UserID:    row.UserID,
		Sport:     row.Sport,
		StartAt:   unixToTime(row.StartAt),
		Duration:  time.Duration(row.DurationSeconds) * time.Second,
		Intensity: row.Intensity,
		Kcal:      nullFloatToPtr(row.Kcal),
		Distance:  nullFloatToPtr(row.DistanceKm),
		Steps:     nullIntToPtr(row.Steps),
		SourceID:  row.SourceID,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func workoutsFromRows(rows []workoutTableModel) []workout.Workout {
	out := make([]workout.Workout, 0, len(rows))
	for _, row := range rows {
		out = append(out, workoutFromRow(row))
	}
	return out
}
