package auth

import (
	"context"
	"sync"

	"github.com/howlrs/pos-qr-go/internal/models"
)

// GuardState is the state of a route guard
type GuardState int

const (
	StateUninitialized GuardState = iota
	StateValidating
	StateAuthenticated
	StateUnauthenticated
	StateDenied
)

func (s GuardState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateValidating:
		return "validating"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateDenied:
		return "denied"
	}
	return "unknown"
}

// Login routes and denial reasons
const (
	AdminLoginRoute = "/auth/admin-login"
	StoreLoginRoute = "/auth/store-login"

	ReasonAccessDenied            = "Access Denied"
	ReasonInsufficientPermissions = "Insufficient Permissions"
)

// LoginRoute returns the login page for role
func LoginRoute(role models.UserRole) string {
	if role == models.RoleAdmin {
		return AdminLoginRoute
	}
	return StoreLoginRoute
}

// Requirement describes who may pass a guard
type Requirement struct {
	Role        models.UserRole
	Permissions []string
	// RedirectTo overrides the role's login route
	RedirectTo string
}

// AdminOnly requires the admin role and perms
func AdminOnly(perms ...string) Requirement {
	return Requirement{Role: models.RoleAdmin, Permissions: perms}
}

// StoreOnly requires the store role and perms
func StoreOnly(perms ...string) Requirement {
	return Requirement{Role: models.RoleStore, Permissions: perms}
}

// Decision is the outcome of a guard check
type Decision struct {
	State      GuardState
	RedirectTo string
	Reason     string
	User       *models.AuthUser
}

// Allowed reports whether the decision lets the user through
func (d Decision) Allowed() bool {
	return d.State == StateAuthenticated
}

// Guard protects a view. Authenticated and denied decisions are kept until
// the store's token changes.
type Guard struct {
	store *Store
	req   Requirement

	mu       sync.Mutex
	state    GuardState
	decision Decision
	gen      uint64
}

// NewGuard creates a guard for req
func NewGuard(store *Store, req Requirement) *Guard {
	return &Guard{store: store, req: req}
}

// State returns the guard's current state
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Check runs the guard and returns its decision
func (g *Guard) Check(ctx context.Context) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if (g.state == StateAuthenticated || g.state == StateDenied) && g.gen == g.store.Generation() {
		return g.decision
	}

	g.state = StateValidating
	d := g.evaluate(ctx)
	g.state = d.State
	g.decision = d
	g.gen = g.store.Generation()
	return d
}

func (g *Guard) evaluate(ctx context.Context) Decision {
	st := g.store.State()

	if st.Token == "" {
		if st.User != nil || st.IsAuthenticated {
			g.logout(ctx)
		}
		return g.unauthenticated()
	}

	if !IsValid(st.Token, g.store.Now()) {
		g.logout(ctx)
		return g.unauthenticated()
	}

	user := st.User
	if user == nil {
		extracted, err := ExtractUser(st.Token)
		if err != nil {
			g.logout(ctx)
			return g.unauthenticated()
		}
		if err := g.store.Login(ctx, st.Token, st.RefreshToken, extracted); err != nil {
			g.store.logger.WithError(err).Warn("Failed to persist user extracted from token")
		}
		user = extracted
	}

	caps := Capabilities(user)
	if g.req.Role != "" && !caps.Has(RoleCapability(g.req.Role)) {
		return Decision{State: StateDenied, Reason: ReasonAccessDenied, User: user}
	}
	if !caps.HasAll(g.req.Permissions...) {
		return Decision{State: StateDenied, Reason: ReasonInsufficientPermissions, User: user}
	}
	return Decision{State: StateAuthenticated, User: user}
}

func (g *Guard) unauthenticated() Decision {
	redirect := g.req.RedirectTo
	if redirect == "" {
		redirect = LoginRoute(g.req.Role)
	}
	return Decision{State: StateUnauthenticated, RedirectTo: redirect}
}

func (g *Guard) logout(ctx context.Context) {
	if err := g.store.Logout(ctx); err != nil {
		g.store.logger.WithError(err).Warn("Failed to clear auth state")
	}
}

// Allowed reports whether the current user holds every one of perms. It
// never redirects.
func Allowed(store *Store, perms ...string) bool {
	if !store.IsAuthenticated() {
		return false
	}
	return store.Capabilities().HasAll(perms...)
}
