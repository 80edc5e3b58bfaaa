package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/stanstork/tickr-api/internal/models"
)

type StatsRepository interface {
	// Overview counts platform totals. The "new" counters include rows created at or after since.
	Overview(ctx context.Context, since time.Time) (models.Overview, error)
	// UserGrowth returns the number of users created before since and the signups
	// of every UTC day from since on. Days without signups are omitted.
	UserGrowth(ctx context.Context, since time.Time) (int, []models.DailyCount, error)
	// DailyActivity reports entries started, projects created and distinct active
	// users per UTC day from since on. Days without activity are omitted.
	DailyActivity(ctx context.Context, since time.Time) ([]models.DailyActivity, error)
}

type statsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Overview(ctx context.Context, since time.Time) (models.Overview, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM tickr.users),
			(SELECT COUNT(*) FROM tickr.users WHERE is_active),
			(SELECT COUNT(*) FROM tickr.teams),
			(SELECT COUNT(*) FROM tickr.projects),
			(SELECT COUNT(*) FROM tickr.time_entries),
			(SELECT COUNT(*) FROM tickr.users WHERE created_at >= $1),
			(SELECT COUNT(*) FROM tickr.teams WHERE created_at >= $1),
			(SELECT COUNT(*) FROM tickr.projects WHERE created_at >= $1);
	`
	var o models.Overview
	err := r.db.QueryRowContext(ctx, query, since).Scan(
		&o.TotalUsers,
		&o.ActiveUsers,
		&o.TotalTeams,
		&o.TotalProjects,
		&o.TotalTimeEntries,
		&o.NewUsersThisMonth,
		&o.NewTeamsThisMonth,
		&o.NewProjectsThisMonth,
	)
	return o, translate(err, "overview")
}

func (r *statsRepository) UserGrowth(ctx context.Context, since time.Time) (int, []models.DailyCount, error) {
	var base int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickr.users WHERE created_at < $1`, since).Scan(&base)
	if err != nil {
		return 0, nil, translate(err, "count users before window")
	}

	const query = `
		SELECT to_char((created_at AT TIME ZONE 'UTC')::date, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM tickr.users
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day;
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return 0, nil, translate(err, "user growth")
	}
	defer rows.Close()

	daily := []models.DailyCount{}
	for rows.Next() {
		var d models.DailyCount
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return 0, nil, translate(err, "scan user growth")
		}
		daily = append(daily, d)
	}
	return base, daily, translate(rows.Err(), "user growth")
}

func (r *statsRepository) DailyActivity(ctx context.Context, since time.Time) ([]models.DailyActivity, error) {
	const query = `
		WITH entries AS (
			SELECT (start_time AT TIME ZONE 'UTC')::date AS day, COUNT(*) AS n, COUNT(DISTINCT user_id) AS users
			FROM tickr.time_entries
			WHERE start_time >= $1
			GROUP BY 1
		), projects AS (
			SELECT (created_at AT TIME ZONE 'UTC')::date AS day, COUNT(*) AS n
			FROM tickr.projects
			WHERE created_at >= $1
			GROUP BY 1
		)
		SELECT to_char(COALESCE(e.day, p.day), 'YYYY-MM-DD') AS day,
			COALESCE(e.n, 0), COALESCE(p.n, 0), COALESCE(e.users, 0)
		FROM entries e
		FULL OUTER JOIN projects p ON p.day = e.day
		ORDER BY day;
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, translate(err, "daily activity")
	}
	defer rows.Close()

	days := []models.DailyActivity{}
	for rows.Next() {
		var d models.DailyActivity
		if err := rows.Scan(&d.Day, &d.TimeEntries, &d.NewProjects, &d.ActiveUsers); err != nil {
			return nil, translate(err, "scan daily activity")
		}
		days = append(days, d)
	}
	return days, translate(rows.Err(), "daily activity")
}
