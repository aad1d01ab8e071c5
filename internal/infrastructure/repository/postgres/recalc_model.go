package postgres

import "time"

type recalcMarkerTableModel struct {
	ID           int64      `db:"id"`
	UserID       string     `db:"user_id"`
	GoalID       string     `db:"goal_public_id"`
	AffectedFrom int64      `db:"affected_from"`
	CreatedAt    time.Time  `db:"created_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

type recalcMarkerInsertModel struct {
	UserID       string `db:"user_id"`
	GoalID       string `db:"goal_public_id"`
	AffectedFrom int64  `db:"affected_from"`
}
