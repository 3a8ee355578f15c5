package users

import (
	"errors"

	"etech-backend/internal/auth"
	"etech-backend/internal/database"
	"etech-backend/internal/live"
	"etech-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateUserRequest struct {
	DisplayName string          `json:"displayName"`
	Email       string          `json:"email"`
	Password    string          `json:"password"`
	Role        models.UserRole `json:"role"`
}

type UpdateUserRequest struct {
	DisplayName string          `json:"displayName"`
	Role        models.UserRole `json:"role"`
}

func userError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrLastAdmin):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrDeleteSelf):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidRole), errors.Is(err, auth.ErrWeakPassword):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return err
	}
}

// View maps accounts to their public shape.
func View(all []models.User) []auth.UserResponse {
	out := make([]auth.UserResponse, 0, len(all))
	for i := range all {
		out = append(out, auth.ToUserResponse(&all[i]))
	}
	return out
}

// GET /api/admin/users
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		all, err := List(c.UserContext(), database.DB)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list users")
		}
		return c.JSON(View(all))
	}
}

// POST /api/admin/users
// Without a password the account gets the configured default.
func CreateHandler(defaultPassword string, notifier live.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Password == "" {
			body.Password = defaultPassword
		}
		if body.Role == "" {
			body.Role = models.RoleStaff
		}

		user, err := Create(c.UserContext(), database.DB, NewUser{
			DisplayName: body.DisplayName,
			Email:       body.Email,
			Password:    body.Password,
			Role:        body.Role,
		})
		if err != nil {
			return userError(err)
		}

		notifier.Notify(c.UserContext(), live.Users)
		return c.Status(fiber.StatusCreated).JSON(auth.ToUserResponse(user))
	}
}

// PUT /api/admin/users/:id
func UpdateHandler(notifier live.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		user, err := Update(c.UserContext(), database.DB, c.Params("id"), body.DisplayName, body.Role)
		if err != nil {
			return userError(err)
		}

		notifier.Notify(c.UserContext(), live.Users)
		return c.JSON(auth.ToUserResponse(user))
	}
}

// DELETE /api/admin/users/:id
func DeleteHandler(notifier live.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := auth.SessionFrom(c)
		if err := Delete(c.UserContext(), database.DB, c.Params("id"), sess.UserID); err != nil {
			return userError(err)
		}

		notifier.Notify(c.UserContext(), live.Users)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
