package auth

import (
	"time"

	"etech-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SessionState int

const (
	// StateUnknown means the session could not be resolved yet, e.g. the
	// revocation store did not answer.
	StateUnknown SessionState = iota
	StateAnonymous
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

type Session struct {
	State       SessionState
	UserID      string
	Email       string
	DisplayName string
	Role        models.UserRole
	TokenID     string
	ExpiresAt   time.Time
}

func Anonymous() Session {
	return Session{State: StateAnonymous}
}

func sessionFromClaims(cl *JWTCustomClaims) Session {
	s := Session{
		State:       StateAuthenticated,
		UserID:      cl.UserID,
		Email:       cl.Email,
		DisplayName: cl.DisplayName,
		Role:        cl.Role,
		TokenID:     cl.ID,
	}
	if cl.ExpiresAt != nil {
		s.ExpiresAt = cl.ExpiresAt.Time
	}
	return s
}

// Guard decides synchronously whether the session may reach a route. With no
// roles any authenticated session passes.
func (s Session) Guard(roles ...models.UserRole) error {
	switch s.State {
	case StateAnonymous:
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	case StateAuthenticated:
	default:
		return fiber.NewError(fiber.StatusServiceUnavailable, "session could not be resolved, try again")
	}
	if len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if r == s.Role {
			return nil
		}
	}
	return fiber.NewError(fiber.StatusForbidden, "you are not allowed to do this")
}

// LandingRoute is where the client goes after sign-in.
func LandingRoute(role models.UserRole) string {
	if role == models.RoleAdmin {
		return "/admin"
	}
	return "/dashboard"
}

// SessionFrom returns the session resolved by JWTMiddleware. Routes not behind
// the middleware see an unknown session.
func SessionFrom(c *fiber.Ctx) Session {
	if s, ok := c.Locals(CtxSessionKey).(Session); ok {
		return s
	}
	return Session{State: StateUnknown}
}
