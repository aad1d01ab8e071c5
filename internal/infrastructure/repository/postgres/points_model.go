package postgres

import "time"

type pointTableModel struct {
	ID             int64      `db:"id"`
	PublicID       string     `db:"public_id"`
	GoalID         string     `db:"goal_public_id"`
	AwardID        string     `db:"award_public_id"`
	WorkoutID      string     `db:"workout_public_id"`
	UserID         string     `db:"user_id"`
	WorkoutStartAt int64      `db:"workout_start_at"`
	Raw            float64    `db:"raw"`
	Capped         float64    `db:"capped"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

type pointInsertModel struct {
	PublicID       string  `db:"public_id"`
	GoalID         string  `db:"goal_public_id"`
	AwardID        string  `db:"award_public_id"`
	WorkoutID      string  `db:"workout_public_id"`
	UserID         string  `db:"user_id"`
	WorkoutStartAt int64   `db:"workout_start_at"`
	Raw            float64 `db:"raw"`
	Capped         float64 `db:"capped"`
}

type userGoalPairRow struct {
	UserID string `db:"user_id"`
	GoalID string `db:"goal_public_id"`
}
