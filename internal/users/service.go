// Package users is the admin-side account management.
package users

import (
	"context"
	"errors"
	"strings"

	"etech-backend/internal/auth"
	"etech-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrMissingFields = errors.New("displayName and email are required")
	ErrInvalidRole   = errors.New("role must be admin or staff")
	ErrEmailTaken    = errors.New("email already in use")
	ErrDeleteSelf    = errors.New("you cannot delete your own account")
	ErrLastAdmin     = errors.New("at least one admin must remain")
)

type NewUser struct {
	DisplayName string
	Email       string
	Password    string
	Role        models.UserRole
}

// Create hashes the password and stores the account. Emails are compared
// lower-cased.
func Create(ctx context.Context, db *gorm.DB, in NewUser) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if in.Email == "" || in.DisplayName == "" {
		return nil, ErrMissingFields
	}
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, auth.ErrWeakPassword
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		DisplayName:  in.DisplayName,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update changes display name and role; empty values keep the current ones.
// Email and password are not editable here.
func Update(ctx context.Context, db *gorm.DB, id, displayName string, role models.UserRole) (*models.User, error) {
	displayName = strings.TrimSpace(displayName)
	if role != "" && !role.Valid() {
		return nil, ErrInvalidRole
	}

	var user models.User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if displayName == "" {
			displayName = user.DisplayName
		}
		if role == "" {
			role = user.Role
		}
		if user.Role == models.RoleAdmin && role != models.RoleAdmin {
			if err := ensureOtherAdmin(tx, user.ID); err != nil {
				return err
			}
		}
		user.DisplayName = displayName
		user.Role = role
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes an account other than the caller's own.
func Delete(ctx context.Context, db *gorm.DB, id, callerID string) error {
	if id == callerID {
		return ErrDeleteSelf
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if user.Role == models.RoleAdmin {
			if err := ensureOtherAdmin(tx, user.ID); err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.PasswordReset{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

func ensureOtherAdmin(tx *gorm.DB, exceptID string) error {
	var admins int64
	if err := tx.Model(&models.User{}).Where("role = ? AND id <> ?", models.RoleAdmin, exceptID).Count(&admins).Error; err != nil {
		return err
	}
	if admins == 0 {
		return ErrLastAdmin
	}
	return nil
}

// List returns every account ordered by display name.
func List(ctx context.Context, db *gorm.DB) ([]models.User, error) {
	var out []models.User
	if err := db.WithContext(ctx).Order("display_name asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
