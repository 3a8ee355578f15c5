package auth

import (
	"errors"
	"strings"
	"time"

	"etech-backend/internal/config"
	"etech-backend/internal/database"
	"etech-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterAdminRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	DisplayName string          `json:"displayName"`
	Role        models.UserRole `json:"role"`
}

func ToUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, Role: u.Role}
}

// HashPassword is shared with user administration.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// POST /api/auth/register-admin
// Only allowed while no admin exists.
func RegisterAdminHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.DisplayName = strings.TrimSpace(body.DisplayName)

		if body.Email == "" || body.Password == "" || body.DisplayName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "displayName, email and password are required")
		}
		if len(body.Password) < MinPasswordLength {
			return fiber.NewError(fiber.StatusBadRequest, ErrWeakPassword.Error())
		}

		var count int64
		if err := database.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not check existing admins")
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "an admin already exists")
		}

		hash, err := HashPassword(body.Password)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
		}

		user := models.User{
			DisplayName:  body.DisplayName,
			Email:        body.Email,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create user")
		}

		return c.Status(fiber.StatusCreated).JSON(ToUserResponse(&user))
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
		}

		token, _, err := GenerateToken(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
		}

		return c.JSON(fiber.Map{
			"token":    token,
			"user":     ToUserResponse(&user),
			"redirect": LandingRoute(user.Role),
		})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := SessionFrom(c)

		var user models.User
		if err := database.DB.First(&user, "id = ?", s.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "profile not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not load profile")
		}
		return c.JSON(ToUserResponse(&user))
	}
}

// POST /api/auth/logout
func LogoutHandler(revoker Revoker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := SessionFrom(c)
		if err := revoker.Revoke(c.UserContext(), s.TokenID, s.ExpiresAt); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "could not sign out, try again")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/auth/password-reset
// Always 202 so the response does not reveal whether the account exists.
func PasswordResetHandler(svc *ResetService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PasswordResetRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if strings.TrimSpace(body.Email) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "email is required")
		}
		if err := svc.Request(c.UserContext(), body.Email); err != nil {
			log.Error("password reset request failed", zap.Error(err))
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message": "if the account exists a reset code has been sent",
		})
	}
}

// POST /api/auth/password-reset/confirm
func PasswordResetConfirmHandler(svc *ResetService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PasswordResetConfirmRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		err := svc.Confirm(c.UserContext(), body.Token, body.Password)
		switch {
		case err == nil:
			return c.JSON(fiber.Map{"message": "password updated"})
		case errors.Is(err, ErrResetTokenInvalid), errors.Is(err, ErrWeakPassword):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		default:
			return err
		}
	}
}
