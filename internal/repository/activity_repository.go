package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/stanstork/tickr-api/internal/models"
)

type ActivityLogRepository interface {
	CreateActivity(ctx context.Context, params CreateActivityParams) (models.ActivityLog, error)
	ListActivity(ctx context.Context, filter models.ActivityFilter) (models.Paginated[models.ActivityLog], error)
}

type activityLogRepository struct {
	db *sql.DB
}

type CreateActivityParams struct {
	AdminUserID *string
	Action      models.ActivityAction
	TargetType  string
	TargetID    *string
	Description string
	IPAddress   *string
	UserAgent   string
}

func NewActivityLogRepository(db *sql.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

const activitySelect = `
	SELECT a.id, a.admin_user_id, u.email, a.action, a.target_type, a.target_id,
		a.description, a.ip_address, a.user_agent, a.created_at
	FROM tickr.activity_logs a
	LEFT JOIN tickr.users u ON u.id = a.admin_user_id`

func (r *activityLogRepository) CreateActivity(ctx context.Context, params CreateActivityParams) (models.ActivityLog, error) {
	const query = `
		INSERT INTO tickr.activity_logs (admin_user_id, action, target_type, target_id, description, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		nullable(params.AdminUserID),
		params.Action,
		params.TargetType,
		nullable(params.TargetID),
		params.Description,
		nullable(params.IPAddress),
		params.UserAgent,
	).Scan(&id)
	if err != nil {
		return models.ActivityLog{}, translate(err, "create activity")
	}

	entry, err := scanActivity(r.db.QueryRowContext(ctx, activitySelect+` WHERE a.id = $1`, id))
	return entry, translate(err, "get activity")
}

func (r *activityLogRepository) ListActivity(ctx context.Context, filter models.ActivityFilter) (models.Paginated[models.ActivityLog], error) {
	page := filter.Page.Normalize()
	result := models.Paginated[models.ActivityLog]{Page: page.Number, PageSize: page.Size, Results: []models.ActivityLog{}}

	var where whereBuilder
	if filter.Action != "" {
		where.add(`a.action = $%[1]d`, string(filter.Action))
	}
	if id := strings.TrimSpace(filter.AdminID); id != "" {
		where.add(`a.admin_user_id = $%[1]d`, id)
	}

	countQuery := `SELECT COUNT(*) FROM tickr.activity_logs a ` + where.clause()
	if err := r.db.QueryRowContext(ctx, countQuery, where.args...).Scan(&result.Count); err != nil {
		return result, translate(err, "count activity")
	}

	suffix, args := where.page(page.Size, page.Offset())
	rows, err := r.db.QueryContext(ctx, activitySelect+` `+where.clause()+` ORDER BY a.created_at DESC, a.id `+suffix, args...)
	if err != nil {
		return result, translate(err, "list activity")
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanActivity(rows)
		if err != nil {
			return result, translate(err, "scan activity")
		}
		result.Results = append(result.Results, entry)
	}
	return result, translate(rows.Err(), "list activity")
}

// nullable maps blank optional strings to SQL NULL.
func nullable(s *string) interface{} {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return strings.TrimSpace(*s)
}

func scanActivity(s scanner) (models.ActivityLog, error) {
	var entry models.ActivityLog
	err := s.Scan(
		&entry.ID,
		&entry.AdminUserID,
		&entry.AdminEmail,
		&entry.Action,
		&entry.TargetType,
		&entry.TargetID,
		&entry.Description,
		&entry.IPAddress,
		&entry.UserAgent,
		&entry.CreatedAt,
	)
	return entry, err
}
