package postgres

import (
	"context"
	"fmt"

	"github.com/challengefit/workout-challenge/internal/domain/competition"
	qb "github.com/challengefit/workout-challenge/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type CompetitionRepository struct {
	db *sqlx.DB
}

func NewCompetitionRepository(db *sqlx.DB) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

func (r *CompetitionRepository) Create(ctx context.Context, item competition.Competition) error {
	insertModel := competitionInsertModel{
		PublicID:              item.ID,
		OwnerUserID:           item.OwnerID,
		Name:                  item.Name,
		StartDate:             timeToUnix(item.StartDate),
		EndDate:               timeToUnix(item.EndDate),
		HasTeams:              item.HasTeams,
		OrganizerAssignsTeams: item.OrganizerAssignsTeams,
		JoinCode:              item.JoinCode,
	}
	query, args, err := qb.InsertModel("competitions", insertModel, "")
	if err != nil {
		return fmt.Errorf("build create competition query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create competition: %w", err)
	}

	return nil
}

func (r *CompetitionRepository) GetByID(ctx context.Context, competitionID string) (competition.Competition, bool, error) {
	query, args, err := qb.Select("*").From("competitions").
		Where(
			qb.Eq("public_id", competitionID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return competition.Competition{}, false, fmt.Errorf("build get competition by id query: %w", err)
	}

	var row competitionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return competition.Competition{}, false, nil
		}
		return competition.Competition{}, false, fmt.Errorf("get competition by id: %w", err)
	}

	return competitionFromRow(row), true, nil
}

func (r *CompetitionRepository) GetByJoinCode(ctx context.Context, joinCode string) (competition.Competition, bool, error) {
	query, args, err := qb.Select("*").From("competitions").
		Where(
			qb.Eq("join_code", joinCode),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return competition.Competition{}, false, fmt.Errorf("build get competition by join code query: %w", err)
	}

	var row competitionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return competition.Competition{}, false, nil
		}
		return competition.Competition{}, false, fmt.Errorf("get competition by join code: %w", err)
	}

	return competitionFromRow(row), true, nil
}

func (r *CompetitionRepository) Update(ctx context.Context, item competition.Competition) error {
	query, args, err := qb.Update("competitions").
		Set("name", item.Name).
		Set("start_date", timeToUnix(item.StartDate)).
		Set("end_date", timeToUnix(item.EndDate)).
		Set("has_teams", item.HasTeams).
		Set("organizer_assigns_teams", item.OrganizerAssignsTeams).
		Where(
			qb.Eq("public_id", item.ID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update competition query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update competition: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update competition: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update competition: not found")
	}

	return nil
}

func (r *CompetitionRepository) ListByMember(ctx context.Context, userID string) ([]competition.Competition, error) {
	query, args, err := qb.Select("c.*").
		From("competitions c JOIN competition_members cm ON cm.competition_public_id = c.public_id").
		Where(
			qb.Eq("cm.user_id", userID),
			qb.IsNull("cm.deleted_at"),
			qb.IsNull("c.deleted_at"),
		).
		OrderBy("c.start_date", "c.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list competitions by member query: %w", err)
	}

	var rows []competitionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list competitions by member: %w", err)
	}

	out := make([]competition.Competition, 0, len(rows))
	for _, row := range rows {
		out = append(out, competitionFromRow(row))
	}
	return out, nil
}

func (r *CompetitionRepository) AddMember(ctx context.Context, item competition.Membership) error {
	insertModel := membershipInsertModel{
		CompetitionID: item.CompetitionID,
		UserID:        item.UserID,
		TeamID:        item.TeamID,
		JoinedAt:      timeToUnix(item.JoinedAt),
	}
	query, args, err := qb.InsertModel("competition_members", insertModel, `ON CONFLICT (competition_public_id, user_id) WHERE deleted_at IS NULL
DO UPDATE SET
    team_public_id = EXCLUDED.team_public_id,
    joined_at = EXCLUDED.joined_at,
    deleted_at = NULL`)
	if err != nil {
		return fmt.Errorf("build add competition member query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("add competition member: %w", err)
	}

	return nil
}

func (r *CompetitionRepository) RemoveMember(ctx context.Context, competitionID, userID string) error {
	query, args, err := qb.Update("competition_members").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Eq("competition_public_id", competitionID),
			qb.Eq("user_id", userID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build remove competition member query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("remove competition member: %w", err)
	}

	return nil
}

func (r *CompetitionRepository) ListMemberIDs(ctx context.Context, competitionID string) ([]string, error) {
	query, args, err := qb.Select("user_id").
		From("competition_members").
		Where(
			qb.Eq("competition_public_id", competitionID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list competition member ids query: %w", err)
	}

	var rows []string
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list competition member ids: %w", err)
	}
	return rows, nil
}

func (r *CompetitionRepository) ListMemberships(ctx context.Context, competitionID string) ([]competition.Membership, error) {
	query, args, err := qb.Select("*").
		From("competition_members").
		Where(
			qb.Eq("competition_public_id", competitionID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list competition memberships query: %w", err)
	}

	var rows []membershipTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list competition memberships: %w", err)
	}

	out := make([]competition.Membership, 0, len(rows))
	for _, row := range rows {
		out = append(out, membershipFromRow(row))
	}
	return out, nil
}

func (r *CompetitionRepository) CreateTeam(ctx context.Context, item competition.Team) error {
	insertModel := teamInsertModel{
		PublicID:      item.ID,
		CompetitionID: item.CompetitionID,
		Name:          item.Name,
	}
	query, args, err := qb.InsertModel("teams", insertModel, "")
	if err != nil {
		return fmt.Errorf("build create team query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create team: %w", err)
	}

	return nil
}

func (r *CompetitionRepository) ListTeams(ctx context.Context, competitionID string) ([]competition.Team, error) {
	query, args, err := qb.Select("*").
		From("teams").
		Where(
			qb.Eq("competition_public_id", competitionID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	out := make([]competition.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, competition.Team{
			ID:            row.PublicID,
			CompetitionID: row.CompetitionID,
			Name:          row.Name,
			CreatedAt:     row.CreatedAt,
		})
	}
	return out, nil
}

func (r *CompetitionRepository) AssignTeam(ctx context.Context, competitionID, userID, teamID string) error {
	if _, ok, err := r.getMembership(ctx, competitionID, userID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("assign team: membership not found")
	}

	query, args, err := qb.Update("competition_members").
		Set("team_public_id", teamID).
		Where(
			qb.Eq("competition_public_id", competitionID),
			qb.Eq("user_id", userID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build assign team query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("assign team: %w", err)
	}

	return nil
}

func (r *CompetitionRepository) getMembership(ctx context.Context, competitionID, userID string) (competition.Membership, bool, error) {
	query, args, err := membershipBaseSelectBuilder().
		Where(
			qb.Eq("competition_public_id", competitionID),
			qb.Eq("user_id", userID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return competition.Membership{}, false, fmt.Errorf("build get membership query: %w", err)
	}

	var row membershipTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isBindParameterMismatch(err) || isUnnamedPreparedStatementMissing(err) {
			return r.getMembershipSingleParam(ctx, competitionID, userID)
		}
		if isNotFound(err) {
			return competition.Membership{}, false, nil
		}
		return competition.Membership{}, false, fmt.Errorf("get membership: %w", err)
	}

	return membershipFromRow(row), true, nil
}

func (r *CompetitionRepository) getMembershipSingleParam(ctx context.Context, competitionID, userID string) (competition.Membership, bool, error) {
	query, _, err := membershipBaseSelectBuilder().
		Where(
			qb.Expr("competition_public_id = ($1::text[])[1]"),
			qb.Expr("user_id = ($1::text[])[2]"),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return competition.Membership{}, false, fmt.Errorf("build get membership single param fallback query: %w", err)
	}

	var row membershipTableModel
	if err := r.db.GetContext(ctx, &row, query, pq.Array([]string{competitionID, userID})); err != nil {
		if isUnnamedPreparedStatementMissing(err) {
			return r.getMembershipLiteral(ctx, competitionID, userID)
		}
		if isNotFound(err) {
			return competition.Membership{}, false, nil
		}
		return competition.Membership{}, false, fmt.Errorf("get membership fallback: %w", err)
	}

	return membershipFromRow(row), true, nil
}

func (r *CompetitionRepository) getMembershipLiteral(ctx context.Context, competitionID, userID string) (competition.Membership, bool, error) {
	query, args, err := membershipBaseSelectBuilder().
		Where(
			qb.EqLiteral("competition_public_id", competitionID),
			qb.EqLiteral("user_id", userID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return competition.Membership{}, false, fmt.Errorf("build get membership literal fallback query: %w", err)
	}

	var row membershipTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return competition.Membership{}, false, nil
		}
		return competition.Membership{}, false, fmt.Errorf("get membership literal fallback: %w", err)
	}

	return membershipFromRow(row), true, nil
}

func membershipBaseSelectBuilder() *qb.SelectBuilder {
	return qb.Select("*").From("competition_members")
}

func competitionFromRow(row competitionTableModel) competition.Competition {
	return competition.Competition{
		ID:                    row.PublicID,
		OwnerID:               row.OwnerUserID,
		Name:                  row.Name,
		StartDate:             unixToTime(row.StartDate),
		EndDate:               unixToTime(row.EndDate),
		HasTeams:              row.HasTeams,
		OrganizerAssignsTeams: row.OrganizerAssignsTeams,
		JoinCode:              row.JoinCode,
		CreatedAt:             row.CreatedAt,
		UpdatedAt:             row.UpdatedAt,
	}
}

func membershipFromRow(row membershipTableModel) competition.Membership {
	return competition.Membership{
		CompetitionID: row.CompetitionID,
		UserID:        row.UserID,
		TeamID:        row.TeamID,
		JoinedAt:      unixToTime(row.JoinedAt),
	}
}
