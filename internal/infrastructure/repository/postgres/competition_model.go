package postgres

import "time"

type competitionTableModel struct {
	ID                    int64      `db:"id"`
	PublicID              string     `db:"public_id"`
	OwnerUserID           string     `db:"owner_user_id"`
	Name                  string     `db:"name"`
	StartDate             int64      `db:"start_date"`
	EndDate               int64      `db:"end_date"`
	HasTeams              bool       `db:"has_teams"`
	OrganizerAssignsTeams bool       `db:"organizer_assigns_teams"`
	JoinCode              string     `db:"join_code"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
	DeletedAt             *time.Time `db:"deleted_at"`
}

type competitionInsertModel struct {
	PublicID              string `db:"public_id"`
	OwnerUserID           string `db:"owner_user_id"`
	Name                  string `db:"name"`
	StartDate             int64  `db:"start_date"`
	EndDate               int64  `db:"end_date"`
	HasTeams              bool   `db:"has_teams"`
	OrganizerAssignsTeams bool   `db:"organizer_assigns_teams"`
	JoinCode              string `db:"join_code"`
}

type membershipTableModel struct {
	ID            int64      `db:"id"`
	CompetitionID string     `db:"competition_public_id"`
	UserID        string     `db:"user_id"`
	TeamID        string     `db:"team_public_id"`
	JoinedAt      int64      `db:"joined_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}

type membershipInsertModel struct {
	CompetitionID string `db:"competition_public_id"`
	UserID        string `db:"user_id"`
	TeamID        string `db:"team_public_id"`
	JoinedAt      int64  `db:"joined_at"`
}

type teamTableModel struct {
	ID            int64      `db:"id"`
	PublicID      string     `db:"public_id"`
	CompetitionID string     `db:"competition_public_id"`
	Name          string     `db:"name"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}

type teamInsertModel struct {
	PublicID      string `db:"public_id"`
	CompetitionID string `db:"competition_public_id"`
	Name          string `db:"name"`
}
