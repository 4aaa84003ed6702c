package client

// Requirement describes what a route needs from the auth state
type Requirement struct {
	Session bool
	Admin   bool
}

// Decision is the guard's verdict for a navigation attempt
type Decision int

const (
	// Allow lets the navigation proceed
	Allow Decision = iota
	// Pending means the auth state is still loading; render a neutral
	// state, never redirect yet
	Pending
	// RedirectLogin sends the visitor to the login page
	RedirectLogin
	// Forbidden is the authenticated-but-not-admin outcome, only
	// produced when DistinguishForbidden is set
	Forbidden
)

// RouteGuard turns an auth snapshot into a navigation decision. By
// default a non-admin hitting an admin route is redirected to login,
// matching the original client; set DistinguishForbidden to surface it
// as a separate outcome instead.
type RouteGuard struct {
	auth                 *AuthContext
	LoginPath            string
	DistinguishForbidden bool
}

// NewRouteGuard creates a guard over the given auth context
func NewRouteGuard(auth *AuthContext) *RouteGuard {
	return &RouteGuard{
		auth:      auth,
		LoginPath: "/login",
	}
}

// Check evaluates the requirement against the current snapshot
func (g *RouteGuard) Check(req Requirement) Decision {
	snap := g.auth.Current()

	if snap.Loading {
		return Pending
	}

	if (req.Session || req.Admin) && !snap.Authenticated() {
		return RedirectLogin
	}

	if req.Admin && !snap.IsAdmin {
		if g.DistinguishForbidden {
			return Forbidden
		}
		return RedirectLogin
	}

	return Allow
}
