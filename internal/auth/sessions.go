package auth

import (
	"database/sql"
	"encoding/gob"
	"net/http"

	"github.com/alexedwards/scs/postgresstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/akulov/elib/internal/config"
)

// Session data keys
const (
	SessionKeyUserID  = "user_id"
	SessionKeyFlashes = "flashes"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Level   string // "success", "info", "warning", "danger"
	Message string
}

func init() {
	gob.Register([]Flash{})
}

// SessionManager wraps scs.SessionManager with application-specific methods.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager backed by the same
// database as the rest of the application.
func NewSessionManager(sqlDB *sql.DB, driver config.DatabaseDriver, cfg config.App) (*SessionManager, error) {
	sm := scs.New()

	switch driver {
	case config.DriverPostgres:
		_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			expiry TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
		if err != nil {
			return nil, err
		}
		sm.Store = postgresstore.New(sqlDB)
	default:
		_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
		if err != nil {
			return nil, err
		}
		sm.Store = sqlite3store.New(sqlDB)
	}

	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// SignIn binds the session to the user after successful authentication.
func (sm *SessionManager) SignIn(r *http.Request, userID uint) error {
	// Renew token to prevent session fixation
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}
	sm.Put(r.Context(), SessionKeyUserID, int(userID))
	return nil
}

// SignOut removes all session data and invalidates the session.
func (sm *SessionManager) SignOut(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// UserID retrieves the signed-in user's id, 0 if not authenticated.
func (sm *SessionManager) UserID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), SessionKeyUserID))
}

// AddFlash queues a notice for the next rendered page.
func (sm *SessionManager) AddFlash(r *http.Request, level, message string) {
	flashes, _ := sm.Get(r.Context(), SessionKeyFlashes).([]Flash)
	flashes = append(flashes, Flash{Level: level, Message: message})
	sm.Put(r.Context(), SessionKeyFlashes, flashes)
}

// PopFlashes returns and clears the queued notices.
func (sm *SessionManager) PopFlashes(r *http.Request) []Flash {
	flashes, _ := sm.Pop(r.Context(), SessionKeyFlashes).([]Flash)
	return flashes
}
