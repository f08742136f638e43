package access

import (
	"strings"

	"tuition/internal/model"
)

// Guard applies page-level rules: public pages, admin-only pages and
// everything else requiring a session.
type Guard struct {
	public map[string]struct{}
	admin  map[string]struct{}
}

// NewGuard builds a guard over the given page lists.
func NewGuard(public, admin []string) *Guard {
	g := &Guard{
		public: make(map[string]struct{}, len(public)),
		admin:  make(map[string]struct{}, len(admin)),
	}
	for _, p := range public {
		g.public[normalizePath(p)] = struct{}{}
	}
	for _, p := range admin {
		g.admin[normalizePath(p)] = struct{}{}
	}
	return g
}

// DefaultGuard covers the calculator's pages.
func DefaultGuard() *Guard {
	return NewGuard(
		[]string{LoginPath},
		[]string{ManageUsersPath, ManageCoursePath},
	)
}

// Check decides whether session may view path.
func (g *Guard) Check(path string, session *model.User) Decision {
	path = normalizePath(path)
	_, public := g.public[path]
	state := StateOf(session)

	if public {
		if path == LoginPath && state != Unauthenticated {
			return Decision{Redirect: HomePath}
		}
		return Allow
	}
	if _, ok := g.admin[path]; ok {
		return RequireRole(session, model.RoleAdmin)
	}
	return RequireSession(session)
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return HomePath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
