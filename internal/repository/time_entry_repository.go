package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/stanstork/tickr-api/internal/models"
)

type TimeEntryRepository interface {
	// StopRunning closes every running entry of the user at the given instant and returns the closed entries.
	StopRunning(ctx context.Context, userID string, at time.Time) ([]models.TimeEntry, error)
	// StartTimer closes anything still running for the user and inserts entry as the single running entry.
	StartTimer(ctx context.Context, entry models.TimeEntry) (models.TimeEntry, error)
	// CreateEntry inserts a completed entry as given, without touching the running timer.
	CreateEntry(ctx context.Context, entry models.TimeEntry) (models.TimeEntry, error)
	// UpdateEntry rewrites the editable fields of an entry owned by entry.UserID.
	UpdateEntry(ctx context.Context, entry models.TimeEntry) (models.TimeEntry, error)
	GetRunning(ctx context.Context, userID string) (models.TimeEntry, error)
	GetEntry(ctx context.Context, userID, entryID string) (models.TimeEntry, error)
	ListEntries(ctx context.Context, userID string) ([]models.TimeEntry, error)
	DeleteEntry(ctx context.Context, userID, entryID string) error
	// ProjectTotals sums completed entries per project name, largest first.
	ProjectTotals(ctx context.Context, userID string) ([]models.ProjectTotal, error)
}

type timeEntryRepository struct {
	db *sql.DB
}

func NewTimeEntryRepository(db *sql.DB) TimeEntryRepository {
	return &timeEntryRepository{db: db}
}

const entrySelect = `
	SELECT e.id, e.user_id, e.project_id, p.name, e.description, e.start_time, e.end_time, e.duration_us, e.is_running
	FROM tickr.time_entries e
	LEFT JOIN tickr.projects p ON p.id = e.project_id`

func (r *timeEntryRepository) StopRunning(ctx context.Context, userID string, at time.Time) ([]models.TimeEntry, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, translate(err, "begin stop")
	}
	defer rollback(tx)

	if err := lockUser(ctx, tx, userID); err != nil {
		return nil, err
	}
	closed, err := closeRunning(ctx, tx, userID, at)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, translate(err, "commit stop")
	}
	return closed, nil
}

func (r *timeEntryRepository) StartTimer(ctx context.Context, entry models.TimeEntry) (models.TimeEntry, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return models.TimeEntry{}, translate(err, "begin start")
	}
	defer rollback(tx)

	if err := lockUser(ctx, tx, entry.UserID); err != nil {
		return models.TimeEntry{}, err
	}
	if _, err := closeRunning(ctx, tx, entry.UserID, entry.StartTime); err != nil {
		return models.TimeEntry{}, err
	}

	var id string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO tickr.time_entries (user_id, project_id, description, start_time, is_running)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id`,
		entry.UserID, entry.ProjectID, entry.Description, entry.StartTime).Scan(&id)
	if err != nil {
		return models.TimeEntry{}, translate(err, "insert entry")
	}
	if err := tx.Commit(); err != nil {
		return models.TimeEntry{}, translate(err, "commit start")
	}
	return r.GetEntry(ctx, entry.UserID, id)
}

func (r *timeEntryRepository) CreateEntry(ctx context.Context, entry models.TimeEntry) (models.TimeEntry, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO tickr.time_entries (user_id, project_id, description, start_time, end_time, duration_us, is_running)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING id`,
		entry.UserID, entry.ProjectID, entry.Description, entry.StartTime, entry.EndTime, durationMicros(entry.Duration)).Scan(&id)
	if err != nil {
		return models.TimeEntry{}, translate(err, "insert entry")
	}
	return r.GetEntry(ctx, entry.UserID, id)
}

func (r *timeEntryRepository) UpdateEntry(ctx context.Context, entry models.TimeEntry) (models.TimeEntry, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tickr.time_entries
		SET project_id = $3, description = $4, start_time = $5, end_time = $6, duration_us = $7
		WHERE id = $1 AND user_id = $2`,
		entry.ID, entry.UserID, entry.ProjectID, entry.Description, entry.StartTime, entry.EndTime, durationMicros(entry.Duration))
	if err != nil {
		return models.TimeEntry{}, translate(err, "update entry")
	}
	if err := requireAffected(result, "update entry"); err != nil {
		return models.TimeEntry{}, err
	}
	return r.GetEntry(ctx, entry.UserID, entry.ID)
}

func (r *timeEntryRepository) GetRunning(ctx context.Context, userID string) (models.TimeEntry, error) {
	query := entrySelect + ` WHERE e.user_id = $1 AND e.is_running ORDER BY e.start_time DESC LIMIT 1`
	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, userID))
	return entry, translate(err, "get running entry")
}

func (r *timeEntryRepository) GetEntry(ctx context.Context, userID, entryID string) (models.TimeEntry, error) {
	query := entrySelect + ` WHERE e.id = $1 AND e.user_id = $2`
	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, entryID, userID))
	return entry, translate(err, "get entry")
}

func (r *timeEntryRepository) ListEntries(ctx context.Context, userID string) ([]models.TimeEntry, error) {
	rows, err := r.db.QueryContext(ctx, entrySelect+` WHERE e.user_id = $1 ORDER BY e.start_time DESC, e.id`, userID)
	if err != nil {
		return nil, translate(err, "list entries")
	}
	defer rows.Close()

	entries := []models.TimeEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, translate(err, "scan entry")
		}
		entries = append(entries, entry)
	}
	return entries, translate(rows.Err(), "list entries")
}

func (r *timeEntryRepository) DeleteEntry(ctx context.Context, userID, entryID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tickr.time_entries WHERE id = $1 AND user_id = $2`, entryID, userID)
	if err != nil {
		return translate(err, "delete entry")
	}
	return requireAffected(result, "delete entry")
}

func (r *timeEntryRepository) ProjectTotals(ctx context.Context, userID string) ([]models.ProjectTotal, error) {
	const query = `
		SELECT p.name, SUM(e.duration_us)::BIGINT AS total_us
		FROM tickr.time_entries e
		LEFT JOIN tickr.projects p ON p.id = e.project_id
		WHERE e.user_id = $1 AND e.end_time IS NOT NULL
		GROUP BY p.name
		ORDER BY total_us DESC;
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, translate(err, "project totals")
	}
	defer rows.Close()

	totals := []models.ProjectTotal{}
	for rows.Next() {
		var (
			name  sql.NullString
			total sql.NullInt64
		)
		if err := rows.Scan(&name, &total); err != nil {
			return nil, translate(err, "scan total")
		}
		t := models.ProjectTotal{Total: time.Duration(total.Int64) * time.Microsecond}
		if name.Valid {
			n := name.String
			t.ProjectName = &n
		}
		totals = append(totals, t)
	}
	return totals, translate(rows.Err(), "project totals")
}

// lockUser serialises timer transitions of one user.
func lockUser(ctx context.Context, tx *sql.Tx, userID string) error {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM tickr.users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	return translate(err, "lock user")
}

func closeRunning(ctx context.Context, tx *sql.Tx, userID string, at time.Time) ([]models.TimeEntry, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT e.id, e.user_id, e.project_id, NULL::TEXT, e.description, e.start_time, e.end_time, e.duration_us, e.is_running
		FROM tickr.time_entries e
		WHERE e.user_id = $1 AND e.is_running
		FOR UPDATE`, userID)
	if err != nil {
		return nil, translate(err, "select running")
	}
	running := []models.TimeEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, translate(err, "scan entry")
		}
		running = append(running, entry)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, translate(err, "select running")
	}

	for i := range running {
		running[i].Close(at)
		if _, err := tx.ExecContext(ctx, `
			UPDATE tickr.time_entries
			SET end_time = $2, duration_us = $3, is_running = FALSE
			WHERE id = $1`,
			running[i].ID, running[i].EndTime, durationMicros(running[i].Duration)); err != nil {
			return nil, translate(err, "close entry")
		}
	}
	return running, nil
}

func durationMicros(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: d.Microseconds(), Valid: true}
}

func scanEntry(s scanner) (models.TimeEntry, error) {
	var (
		entry    models.TimeEntry
		duration sql.NullInt64
	)
	err := s.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.ProjectID,
		&entry.ProjectName,
		&entry.Description,
		&entry.StartTime,
		&entry.EndTime,
		&duration,
		&entry.IsRunning,
	)
	if duration.Valid {
		d := time.Duration(duration.Int64) * time.Microsecond
		entry.Duration = &d
	}
	return entry, err
}
