// Package session manages the authenticated state of a client: restoring a
// persisted token on startup, login, logout, and capability checks for the
// route guard.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kizunavi/kizunavi/internal/client"
	"github.com/kizunavi/kizunavi/internal/models"
	"github.com/kizunavi/kizunavi/internal/services"
)

// State is the session lifecycle phase. Guards treat everything other than
// StateAuthenticated as signed out.
type State string

const (
	StateUninitialized   State = "uninitialized"
	StateRestoring       State = "restoring"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// CredentialStore persists the bearer token between runs.
type CredentialStore interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	ClearToken() error
}

// Manager holds the current session. All methods are safe for concurrent use.
type Manager struct {
	mu    sync.Mutex
	api   client.Client
	creds CredentialStore
	log   zerolog.Logger

	state State
	user  *models.User
	token string

	// allowOfflineFallback keeps a restored token usable when the server is
	// unreachable, with member-level access only. Off unless explicitly
	// enabled.
	allowOfflineFallback bool
}

type Option func(*Manager)

// WithOfflineFallback lets Restore keep the session when validation fails
// with an unavailable error. The fallback user gets the member capability
// set regardless of the stored role, so a stale token can never unlock
// privileged screens offline.
func WithOfflineFallback() Option {
	return func(m *Manager) { m.allowOfflineFallback = true }
}

func NewManager(api client.Client, creds CredentialStore, log zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{api: api, creds: creds, log: log, state: StateUninitialized}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (m *Manager) CurrentUser() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	cp := *m.user
	return &cp
}

func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// HasPermission checks one capability against the current session. Signed-out
// sessions have no capabilities.
func (m *Manager) HasPermission(c services.Capability) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated || m.user == nil {
		return false
	}
	return services.HasCapability(m.user.Permissions, c)
}

// Restore validates a persisted token and rebuilds the session from the
// server's answer. Any failure along the way lands in StateUnauthenticated
// with the stored token cleared; a half-restored session never survives.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()
	m.state = StateRestoring
	m.mu.Unlock()

	token, err := m.creds.LoadToken()
	if err != nil || token == "" {
		if err != nil {
			m.log.Warn().Err(err).Msg("credential store unreadable")
		}
		m.clear()
		return nil
	}

	u, err := m.api.ValidateToken(ctx, token)
	if err != nil {
		if m.allowOfflineFallback && services.IsCode(err, services.ErrorUnavailable) {
			m.log.Warn().Msg("server unreachable, restoring offline session with member access")
			m.setAuthenticated(offlineUser(), token)
			return nil
		}
		m.log.Info().Err(err).Msg("stored token rejected")
		m.clear()
		if clearErr := m.creds.ClearToken(); clearErr != nil {
			m.log.Warn().Err(clearErr).Msg("clear stored token")
		}
		return err
	}

	// Permissions come from the role, never from whatever was persisted.
	u.Permissions = services.PermissionsForRole(u.Role)
	m.setAuthenticated(u, token)
	return nil
}

// Login authenticates, persists the token, and derives permissions from the
// server-issued role claim.
func (m *Manager) Login(ctx context.Context, creds client.Credentials) (*models.User, error) {
	res, err := m.api.Login(ctx, creds)
	if err != nil {
		m.clear()
		return nil, err
	}
	u := res.User
	u.Permissions = services.PermissionsForRole(u.Role)
	if err := m.creds.SaveToken(res.Token); err != nil {
		m.log.Warn().Err(err).Msg("persist token")
	}
	m.setAuthenticated(u, res.Token)
	cp := *u
	return &cp, nil
}

// Logout tells the server best-effort and always clears local state. A dead
// server cannot keep a user signed in.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if token != "" {
		if err := m.api.Logout(ctx, token); err != nil {
			m.log.Warn().Err(err).Msg("remote logout failed, clearing local session anyway")
		}
	}
	if err := m.creds.ClearToken(); err != nil {
		m.log.Warn().Err(err).Msg("clear stored token")
	}
	m.clear()
}

func (m *Manager) setAuthenticated(u *models.User, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateAuthenticated
	m.user = u
	m.token = token
}

func (m *Manager) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateUnauthenticated
	m.user = nil
	m.token = ""
}

func offlineUser() *models.User {
	return &models.User{
		Role:        models.RoleMember,
		Permissions: services.PermissionsForRole(models.RoleMember),
	}
}
