package auth

import (
	"errors"
	"strings"

	"etech-backend/internal/config"
	"etech-backend/internal/database"
	"etech-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	CtxSessionKey  = "session"
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
)

// JWTMiddleware resolves the caller's session and stores it in Locals. It never
// rejects on its own; RequireRole does.
// EventSource clients cannot set headers, so ?access_token= is accepted too.
func JWTMiddleware(cfg *config.Config, revoker Revoker, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := resolveSession(c, cfg, revoker, log)
		c.Locals(CtxSessionKey, s)
		if s.State == StateAuthenticated {
			c.Locals(CtxUserIDKey, s.UserID)
			c.Locals(CtxUserRoleKey, s.Role)
		}
		return c.Next()
	}
}

func resolveSession(c *fiber.Ctx, cfg *config.Config, revoker Revoker, log *zap.Logger) Session {
	tokenStr := bearerToken(c.Get("Authorization"))
	if tokenStr == "" {
		tokenStr = c.Query("access_token")
	}
	if tokenStr == "" {
		return Anonymous()
	}

	claims, err := ParseToken(cfg.JWTSecret, tokenStr)
	if err != nil {
		return Anonymous()
	}

	revoked, err := revoker.IsRevoked(c.UserContext(), claims.ID)
	if err != nil {
		log.Warn("revocation lookup failed", zap.Error(err))
		return Session{State: StateUnknown}
	}
	if revoked {
		return Anonymous()
	}

	// Role and profile come from the account row, so deletes and demotions
	// apply to tokens already issued.
	var user models.User
	err = database.DB.WithContext(c.UserContext()).
		Select("id", "email", "display_name", "role").
		First(&user, "id = ?", claims.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Anonymous()
	}
	if err != nil {
		log.Warn("session user lookup failed", zap.Error(err))
		return Session{State: StateUnknown}
	}

	s := sessionFromClaims(claims)
	s.Email = user.Email
	s.DisplayName = user.DisplayName
	s.Role = user.Role
	return s
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireRole runs the session guard. With no roles it only requires sign-in.
func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := SessionFrom(c).Guard(allowedRoles...); err != nil {
			return err
		}
		return c.Next()
	}
}
