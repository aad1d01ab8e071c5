package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/challengefit/workout-challenge/internal/infrastructure/repository/memory"
	"github.com/jmoiron/sqlx"
)

func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM competitions WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count competitions for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, u := range memory.SeedUsers() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO users (public_id, email, name, scaling_kcal, scaling_distance)
VALUES (:public_id, :email, :name, :scaling_kcal, :scaling_distance)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":        u.ID,
			"email":            u.Email,
			"name":             u.Name,
			"scaling_kcal":     u.ScalingKcal,
			"scaling_distance": u.ScalingDistance,
		})
		if err != nil {
			return fmt.Errorf("bind seed user %s query: %w", u.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	for _, c := range memory.SeedCompetitions() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO competitions (public_id, owner_user_id, name, start_date, end_date, has_teams, organizer_assigns_teams, join_code)
VALUES (:public_id, :owner_user_id, :name, :start_date, :end_date, :has_teams, :organizer_assigns_teams, :join_code)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":               c.ID,
			"owner_user_id":           c.OwnerID,
			"name":                    c.Name,
			"start_date":              timeToUnix(c.StartDate),
			"end_date":                timeToUnix(c.EndDate),
			"has_teams":               c.HasTeams,
			"organizer_assigns_teams": c.OrganizerAssignsTeams,
			"join_code":               c.JoinCode,
		})
		if err != nil {
			return fmt.Errorf("bind seed competition %s query: %w", c.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed competition %s: %w", c.ID, err)
		}
	}

	for _, m := range memory.SeedMemberships() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO competition_members (competition_public_id, user_id, team_public_id, joined_at)
VALUES (:competition_public_id, :user_id, :team_public_id, :joined_at)
ON CONFLICT (competition_public_id, user_id) WHERE deleted_at IS NULL DO NOTHING`, map[string]any{
			"competition_public_id": m.CompetitionID,
			"user_id":               m.UserID,
			"team_public_id":        m.TeamID,
			"joined_at":             timeToUnix(m.JoinedAt),
		})
		if err != nil {
			return fmt.Errorf("bind seed membership %s/%s query: %w", m.CompetitionID, m.UserID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed membership %s/%s: %w", m.CompetitionID, m.UserID, err)
		}
	}

	for _, g := range memory.SeedGoals() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO goals (public_id, competition_public_id, name, metric, target, period, count_steps_as_walks, min_per_workout, max_per_workout, min_per_day, max_per_day, min_per_week, max_per_week)
VALUES (:public_id, :competition_public_id, :name, :metric, :target, :period, :count_steps_as_walks, :min_per_workout, :max_per_workout, :min_per_day, :max_per_day, :min_per_week, :max_per_week)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":             g.ID,
			"competition_public_id": g.CompetitionID,
			"name":                  g.Name,
			"metric":                string(g.Metric),
			"target":                g.Target,
			"period":                string(g.Period),
			"count_steps_as_walks":  g.CountStepsAsWalks,
			"min_per_workout":       nullableFloat(g.MinPerWorkout),
			"max_per_workout":       nullableFloat(g.MaxPerWorkout),
			"min_per_day":           nullableFloat(g.MinPerDay),
			"max_per_day":           nullableFloat(g.MaxPerDay),
			"min_per_week":          nullableFloat(g.MinPerWeek),
			"max_per_week":          nullableFloat(g.MaxPerWeek),
		})
		if err != nil {
			return fmt.Errorf("bind seed goal %s query: %w", g.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed goal %s: %w", g.ID, err)
		}
	}

	for _, w := range memory.SeedWorkouts() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO workouts (public_id, user_id, sport, start_at, duration_seconds, intensity, kcal, distance_km, steps, source_id)
VALUES (:public_id, :user_id, :sport, :start_at, :duration_seconds, :intensity, :kcal, :distance_km, :steps, :source_id)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":        w.ID,
			"user_id":          w.UserID,
			"sport":            w.Sport,
			"start_at":         timeToUnix(w.StartAt),
			"duration_seconds": int64(w.Duration / time.Second),
			"intensity":        w.Intensity,
			"kcal":             nullableFloat(w.Kcal),
			"distance_km":      nullableFloat(w.Distance),
			"steps":            nullableInt(w.Steps),
			"source_id":        w.SourceID,
		})
		if err != nil {
			return fmt.Errorf("bind seed workout %s query: %w", w.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed workout %s: %w", w.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	return nil
}
