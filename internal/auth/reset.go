package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"etech-backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLength = 8

var (
	ErrResetTokenInvalid = errors.New("reset token is invalid or expired")
	ErrWeakPassword      = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

type ResetService struct {
	db     *gorm.DB
	mailer Mailer
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time
}

func NewResetService(db *gorm.DB, mailer Mailer, ttl time.Duration, log *zap.Logger) *ResetService {
	return &ResetService{db: db, mailer: mailer, ttl: ttl, log: log, now: time.Now}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Request issues a single-use token for the account. Unknown addresses are
// silently ignored so callers cannot probe which accounts exist.
func (s *ResetService) Request(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	reset := models.PasswordReset{
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(&reset).Error; err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	body := fmt.Sprintf("Hello %s,\n\nUse this code to reset your password: %s\nIt expires in %d minutes.",
		user.DisplayName, token, int(s.ttl.Minutes()))
	if err := s.mailer.Send(ctx, user.Email, "Password reset", body); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	s.log.Info("password reset issued", zap.String("user_id", user.ID))
	return nil
}

// Confirm sets a new password and burns the token.
func (s *ResetService) Confirm(ctx context.Context, token, password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reset models.PasswordReset
		err := tx.Where("token_hash = ? AND used_at IS NULL", hashToken(strings.TrimSpace(token))).First(&reset).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResetTokenInvalid
		}
		if err != nil {
			return err
		}
		now := s.now()
		if now.After(reset.ExpiresAt) {
			return ErrResetTokenInvalid
		}

		res := tx.Model(&models.User{}).Where("id = ?", reset.UserID).Update("password_hash", string(hash))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrResetTokenInvalid
		}
		return tx.Model(&reset).Update("used_at", now).Error
	})
}
