package session

import "github.com/kizunavi/kizunavi/internal/services"

// Decision is the guard's verdict for one navigation attempt.
type Decision struct {
	Allowed bool
	// Redirect is set when Allowed is false: RedirectLogin when signed out,
	// otherwise the first screen the user may open.
	Redirect services.Screen
}

// RedirectLogin is the pseudo-screen the guard sends signed-out users to.
const RedirectLogin services.Screen = "login"

// Guard decides whether the current session may open a screen. It is the
// only place navigation consults capabilities.
type Guard struct {
	session *Manager
}

func NewGuard(m *Manager) *Guard {
	return &Guard{session: m}
}

// Resolve checks screen access. Unknown screens deny; a screen missing from
// the capability table is unreachable rather than open.
func (g *Guard) Resolve(screen services.Screen) Decision {
	if g.session.State() != StateAuthenticated {
		return Decision{Redirect: RedirectLogin}
	}
	cap, ok := services.ScreenCapability[screen]
	if ok && g.session.HasPermission(cap) {
		return Decision{Allowed: true}
	}
	return Decision{Redirect: g.Landing()}
}

// Landing is the first screen in display order the user may open. Falls back
// to the login screen when no capability matches, which only happens for a
// corrupted role.
func (g *Guard) Landing() services.Screen {
	for _, s := range services.ScreenOrder {
		if g.session.HasPermission(services.ScreenCapability[s]) {
			return s
		}
	}
	return RedirectLogin
}
