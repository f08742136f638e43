// Package access derives authorization decisions from the current session.
// Decisions are computed on every call; nothing is cached, so blocking or
// demoting a user takes effect on the next check.
package access

import (
	apperrors "tuition/internal/errors"
	"tuition/internal/model"
)

// Page paths the client navigates to.
const (
	LoginPath        = "/login"
	HomePath         = "/"
	AccessDeniedPath = "/acesso-negado"
	ManageUsersPath  = "/gerenciar-usuarios"
	ManageCoursePath = "/gerenciar-cursos"
)

// State is the externally observable authorization state.
type State int

const (
	Unauthenticated State = iota
	AuthenticatedUser
	AuthenticatedAdmin
)

func (s State) String() string {
	switch s {
	case AuthenticatedUser:
		return "authenticated-user"
	case AuthenticatedAdmin:
		return "authenticated-admin"
	default:
		return "unauthenticated"
	}
}

// StateOf maps a session to its state. An inactive session counts as none.
func StateOf(session *model.User) State {
	switch {
	case session == nil || !session.Active:
		return Unauthenticated
	case session.Role == model.RoleAdmin:
		return AuthenticatedAdmin
	default:
		return AuthenticatedUser
	}
}

// Decision is the outcome of a capability check. When not allowed, Redirect
// names the page to send the client to and Err the reason.
type Decision struct {
	Allowed  bool
	Redirect string
	Err      error
}

// Allow is the permissive decision.
var Allow = Decision{Allowed: true}

func redirectToLogin() Decision {
	return Decision{Redirect: LoginPath, Err: apperrors.ErrUnauthenticated}
}

func deny() Decision {
	return Decision{Redirect: AccessDeniedPath, Err: apperrors.ErrAccessDenied}
}

// RequireSession allows any authenticated, active session.
func RequireSession(session *model.User) Decision {
	if StateOf(session) == Unauthenticated {
		return redirectToLogin()
	}
	return Allow
}

// RequireRole allows sessions holding role. Admins satisfy the user role.
func RequireRole(session *model.User, role model.Role) Decision {
	state := StateOf(session)
	switch {
	case state == Unauthenticated:
		return redirectToLogin()
	case role == model.RoleAdmin && state != AuthenticatedAdmin:
		return deny()
	default:
		return Allow
	}
}
