package competition

import "context"

type Repository interface {
	Create(ctx context.Context, item Competition) error
	GetByID(ctx context.Context, competitionID string) (Competition, bool, error)
	GetByJoinCode(ctx context.Context, joinCode string) (Competition, bool, error)
	Update(ctx context.Context, item Competition) error
	ListByMember(ctx context.Context, userID string) ([]Competition, error)

	AddMember(ctx context.Context, item Membership) error
	RemoveMember(ctx context.Context, competitionID, userID string) error
	ListMemberIDs(ctx context.Context, competitionID string) ([]string, error)
	ListMemberships(ctx context.Context, competitionID string) ([]Membership, error)

	CreateTeam(ctx context.Context, item Team) error
	ListTeams(ctx context.Context, competitionID string) ([]Team, error)
	AssignTeam(ctx context.Context, competitionID, userID, teamID string) error
}
