package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/stanstork/tickr-api/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUserByID(ctx context.Context, userID string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
	SetLastLogin(ctx context.Context, userID string, at time.Time) error
	DeleteUser(ctx context.Context, userID string) error
	GetAdminUser(ctx context.Context, userID string) (models.AdminUser, error)
	ListUsers(ctx context.Context, filter models.UserFilter) (models.Paginated[models.AdminUser], error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash,
	u.is_active, u.is_staff, u.is_superuser, u.created_at, u.last_login`

const userCounts = `
	(SELECT COUNT(*) FROM tickr.time_entries te WHERE te.user_id = u.id),
	(SELECT COUNT(*) FROM tickr.team_members tm WHERE tm.user_id = u.id),
	(SELECT COUNT(*) FROM tickr.projects p WHERE p.creator_id = u.id)`

func (r *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO tickr.users AS u (email, username, first_name, last_name, password_hash, is_active, is_staff, is_superuser)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
	)
	created, err := scanUser(row)
	return created, translate(err, "create user")
}

func (r *userRepository) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM tickr.users u WHERE u.id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	return user, translate(err, "get user")
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM tickr.users u WHERE lower(u.email) = lower($1)`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	return user, translate(err, "get user by email")
}

func (r *userRepository) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		UPDATE tickr.users AS u
		SET first_name = $2, last_name = $3, is_active = $4, is_staff = $5, is_superuser = $6
		WHERE u.id = $1
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
	)
	updated, err := scanUser(row)
	return updated, translate(err, "update user")
}

func (r *userRepository) SetLastLogin(ctx context.Context, userID string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tickr.users SET last_login = $2 WHERE id = $1`, userID, at)
	if err != nil {
		return translate(err, "set last login")
	}
	return requireAffected(result, "set last login")
}

func (r *userRepository) DeleteUser(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tickr.users WHERE id = $1`, userID)
	if err != nil {
		return translate(err, "delete user")
	}
	return requireAffected(result, "delete user")
}

func (r *userRepository) GetAdminUser(ctx context.Context, userID string) (models.AdminUser, error) {
	query := `SELECT ` + userColumns + `,` + userCounts + ` FROM tickr.users u WHERE u.id = $1`
	user, err := scanAdminUser(r.db.QueryRowContext(ctx, query, userID))
	return user, translate(err, "get admin user")
}

func (r *userRepository) ListUsers(ctx context.Context, filter models.UserFilter) (models.Paginated[models.AdminUser], error) {
	page := filter.Page.Normalize()
	result := models.Paginated[models.AdminUser]{Page: page.Number, PageSize: page.Size, Results: []models.AdminUser{}}

	var where whereBuilder
	switch filter.Status {
	case "active":
		where.addRaw("u.is_active")
	case "inactive":
		where.addRaw("NOT u.is_active")
	case "staff":
		where.addRaw("u.is_staff")
	}
	if filter.Search != "" {
		where.add(`(u.email ILIKE $%[1]d OR u.username ILIKE $%[1]d)`, likePattern(filter.Search))
	}

	countQuery := `SELECT COUNT(*) FROM tickr.users u ` + where.clause()
	if err := r.db.QueryRowContext(ctx, countQuery, where.args...).Scan(&result.Count); err != nil {
		return result, translate(err, "count users")
	}

	suffix, args := where.page(page.Size, page.Offset())
	query := `SELECT ` + userColumns + `,` + userCounts + ` FROM tickr.users u ` + where.clause() +
		` ORDER BY u.created_at DESC, u.id ` + suffix
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return result, translate(err, "list users")
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanAdminUser(rows)
		if err != nil {
			return result, translate(err, "scan user")
		}
		result.Results = append(result.Results, user)
	}
	return result, translate(rows.Err(), "list users")
}

func scanUser(s scanner) (models.User, error) {
	var user models.User
	err := s.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.IsActive,
		&user.IsStaff,
		&user.IsSuperuser,
		&user.CreatedAt,
		&user.LastLogin,
	)
	return user, err
}

func scanAdminUser(s scanner) (models.AdminUser, error) {
	var user models.AdminUser
	err := s.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.IsActive,
		&user.IsStaff,
		&user.IsSuperuser,
		&user.CreatedAt,
		&user.LastLogin,
		&user.TotalTimeEntries,
		&user.TeamsCount,
		&user.ProjectsCount,
	)
	return user, err
}

func requireAffected(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, op)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
