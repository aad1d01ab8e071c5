package postgres

import (
	"database/sql"
	"time"
)

type workoutTableModel struct {
	ID              int64           `db:"id"`
	PublicID        string          `db:"public_id"`
	UserID          string          `db:"user_id"`
	Sport           string          `db:"sport"`
	StartAt         int64           `db:"start_at"`
	DurationSeconds int64           `db:"duration_seconds"`
	Intensity       int             `db:"intensity"`
	Kcal            sql.NullFloat64 `db:"kcal"`
	DistanceKm      sql.NullFloat64 `db:"distance_km"`
	Steps           sql.NullInt64   `db:"steps"`
	SourceID        string          `db:"source_id"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
	DeletedAt       *time.Time      `db:"deleted_at"`
}

type workoutInsertModel struct {
	PublicID        string          `db:"public_id"`
	UserID          string          `db:"user_id"`
	Sport           string          `db:"sport"`
	StartAt         int64           `db:"start_at"`
	DurationSeconds int64           `db:"duration_seconds"`
	Intensity       int             `db:"intensity"`
	Kcal            sql.NullFloat64 `db:"kcal"`
	DistanceKm      sql.NullFloat64 `db:"distance_km"`
	Steps           sql.NullInt64   `db:"steps"`
	SourceID        string          `db:"source_id"`
}

type sportDurationRow struct {
	Sport        string `db:"sport"`
	TotalSeconds int64  `db:"total_seconds"`
}
