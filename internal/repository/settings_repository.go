package repository

import (
	"context"
	"database/sql"
	"sort"

	"github.com/stanstork/tickr-api/internal/models"
)

type SettingsRepository interface {
	ListSettings(ctx context.Context) ([]models.Setting, error)
	// UpsertSettings writes every key in one transaction and returns the full settings list.
	UpsertSettings(ctx context.Context, values map[string]string, updatedBy string) ([]models.Setting, error)
}

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) ListSettings(ctx context.Context) ([]models.Setting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT key, value, description, updated_by, updated_at
		FROM tickr.admin_settings
		ORDER BY key`)
	if err != nil {
		return nil, translate(err, "list settings")
	}
	defer rows.Close()

	settings := []models.Setting{}
	for rows.Next() {
		var s models.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedBy, &s.UpdatedAt); err != nil {
			return nil, translate(err, "scan setting")
		}
		settings = append(settings, s)
	}
	return settings, translate(rows.Err(), "list settings")
}

func (r *settingsRepository) UpsertSettings(ctx context.Context, values map[string]string, updatedBy string) ([]models.Setting, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, translate(err, "begin settings")
	}
	defer rollback(tx)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tickr.admin_settings (key, value, updated_by, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`,
			k, values[k], updatedBy); err != nil {
			return nil, translate(err, "upsert setting")
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, translate(err, "commit settings")
	}
	return r.ListSettings(ctx)
}
