package competition

import "time"

// Competition is a time-boxed challenge between users. StartDate and EndDate
// are day-granular (UTC midnight); the end day is inclusive.
type Competition struct {
	ID                    string
	OwnerID               string
	Name                  string
	StartDate             time.Time
	EndDate               time.Time
	HasTeams              bool
	OrganizerAssignsTeams bool
	JoinCode              string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// WindowEnd is the exclusive upper bound of the competition window.
func (c Competition) WindowEnd() time.Time {
	return c.EndDate.AddDate(0, 0, 1)
}

// Covers reports whether a workout timestamp falls inside the competition
// window, end day inclusive.
func (c Competition) Covers(t time.Time) bool {
	return !t.Before(c.StartDate) && t.Before(c.WindowEnd())
}

type Team struct {
	ID            string
	CompetitionID string
	Name          string
	CreatedAt     time.Time
}

// Membership links a user to a competition, optionally within a team.
type Membership struct {
	CompetitionID string
	UserID        string
	TeamID        string
	JoinedAt      time.Time
}
