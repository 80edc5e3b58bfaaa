package repository

import "database/sql"

// Repositories bundles every store the services depend on.
type Repositories struct {
	Users       UserRepository
	Teams       TeamRepository
	Invitations InvitationRepository
	Projects    ProjectRepository
	TimeEntries TimeEntryRepository
	Activity    ActivityLogRepository
	Settings    SettingsRepository
	Stats       StatsRepository
}

// NewPostgres wires the Postgres implementations over a shared connection pool.
func NewPostgres(db *sql.DB) Repositories {
	return Repositories{
		Users:       NewUserRepository(db),
		Teams:       NewTeamRepository(db),
		Invitations: NewInvitationRepository(db),
		Projects:    NewProjectRepository(db),
		TimeEntries: NewTimeEntryRepository(db),
		Activity:    NewActivityLogRepository(db),
		Settings:    NewSettingsRepository(db),
		Stats:       NewStatsRepository(db),
	}
}
