// Package memory keeps every repository in process memory. It mirrors the
// constraints of the Postgres schema and backs local runs and tests.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
)

type memberKey struct {
	teamID string
	userID string
}

type record[T interface{}] struct {
	seq   int64
	value T
}

// Store implements every repository interface over shared maps guarded by one mutex.
type Store struct {
	mu  sync.Mutex
	now func() time.Time
	seq int64

	users       map[string]*record[models.User]
	teams       map[string]*record[models.Team]
	members     map[memberKey]*record[models.TeamMember]
	invitations map[string]*record[models.Invitation]
	projects    map[string]*record[models.Project]
	entries     map[string]*record[models.TimeEntry]
	activity    map[string]*record[models.ActivityLog]
	settings    map[string]models.Setting
}

// New builds an empty store. A nil clock falls back to time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:         now,
		users:       map[string]*record[models.User]{},
		teams:       map[string]*record[models.Team]{},
		members:     map[memberKey]*record[models.TeamMember]{},
		invitations: map[string]*record[models.Invitation]{},
		projects:    map[string]*record[models.Project]{},
		entries:     map[string]*record[models.TimeEntry]{},
		activity:    map[string]*record[models.ActivityLog]{},
		settings:    map[string]models.Setting{},
	}
}

// NewRepositories returns a fresh store exposed through the repository bundle.
func NewRepositories(now func() time.Time) repository.Repositories {
	s := New(now)
	return s.Repositories()
}

func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:       s,
		Teams:       s,
		Invitations: s,
		Projects:    s,
		TimeEntries: s,
		Activity:    s,
		Settings:    s,
		Stats:       s,
	}
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

// timestamp matches the microsecond precision of timestamptz.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func newID() string {
	return uuid.NewString()
}

// newestFirst orders records by a timestamp descending, later inserts first on ties.
func newestFirst[T interface{}](recs []*record[T], at func(T) time.Time) {
	sort.SliceStable(recs, func(i, j int) bool {
		ai, aj := at(recs[i].value), at(recs[j].value)
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return recs[i].seq > recs[j].seq
	})
}

func paginate[T interface{}](items []T, page models.Page) models.Paginated[T] {
	page = page.Normalize()
	out := models.Paginated[T]{Count: len(items), Page: page.Number, PageSize: page.Size, Results: []T{}}
	start := page.Offset()
	if start >= len(items) {
		return out
	}
	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}
	out.Results = append(out.Results, items[start:end]...)
	return out
}

// matches mirrors ILIKE '%search%'.
func matches(search string, fields ...string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
