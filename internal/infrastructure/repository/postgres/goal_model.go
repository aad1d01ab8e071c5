package postgres

import (
	"database/sql"
	"time"
)

type goalTableModel struct {
	ID                int64           `db:"id"`
	PublicID          string          `db:"public_id"`
	CompetitionID     string          `db:"competition_public_id"`
	Name              string          `db:"name"`
	Metric            string          `db:"metric"`
	Target            float64         `db:"target"`
	Period            string          `db:"period"`
	CountStepsAsWalks bool            `db:"count_steps_as_walks"`
	MinPerWorkout     sql.NullFloat64 `db:"min_per_workout"`
	MaxPerWorkout     sql.NullFloat64 `db:"max_per_workout"`
	MinPerDay         sql.NullFloat64 `db:"min_per_day"`
	MaxPerDay         sql.NullFloat64 `db:"max_per_day"`
	MinPerWeek        sql.NullFloat64 `db:"min_per_week"`
	MaxPerWeek        sql.NullFloat64 `db:"max_per_week"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
	DeletedAt         *time.Time      `db:"deleted_at"`
}

type goalInsertModel struct {
	PublicID          string          `db:"public_id"`
	CompetitionID     string          `db:"competition_public_id"`
	Name              string          `db:"name"`
	Metric            string          `db:"metric"`
	Target            float64         `db:"target"`
	Period            string          `db:"period"`
	CountStepsAsWalks bool            `db:"count_steps_as_walks"`
	MinPerWorkout     sql.NullFloat64 `db:"min_per_workout"`
	MaxPerWorkout     sql.NullFloat64 `db:"max_per_workout"`
	MinPerDay         sql.NullFloat64 `db:"min_per_day"`
	MaxPerDay         sql.NullFloat64 `db:"max_per_day"`
	MinPerWeek        sql.NullFloat64 `db:"min_per_week"`
	MaxPerWeek        sql.NullFloat64 `db:"max_per_week"`
}

type awardTableModel struct {
	ID            int64      `db:"id"`
	PublicID      string     `db:"public_id"`
	CompetitionID string     `db:"competition_public_id"`
	Name          string     `db:"name"`
	Sport         string     `db:"sport"`
	Threshold     float64    `db:"threshold"`
	Period        string     `db:"period"`
	RewardPoints  float64    `db:"reward_points"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}

type awardInsertModel struct {
	PublicID      string  `db:"public_id"`
	CompetitionID string  `db:"competition_public_id"`
	Name          string  `db:"name"`
	Sport         string  `db:"sport"`
	Threshold     float64 `db:"threshold"`
	Period        string  `db:"period"`
	RewardPoints  float64 `db:"reward_points"`
}
