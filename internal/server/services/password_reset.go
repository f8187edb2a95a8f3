package services

import (
	"context"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/logging"
	"github.com/dmitrijs2005/messagely/internal/server/models"
	"github.com/dmitrijs2005/messagely/internal/server/sms"
)

// PasswordResetService proves phone ownership before a password change.
type PasswordResetService struct {
	users    *UserService
	verifier sms.Verifier
	logger   logging.Logger
}

func NewPasswordResetService(users *UserService, verifier sms.Verifier, logger logging.Logger) *PasswordResetService {
	return &PasswordResetService{users: users, verifier: verifier, logger: logger}
}

// Request sends a verification code to the phone stored for username.
func (s *PasswordResetService) Request(ctx context.Context, username string) error {
	phone, err := s.users.GetPhone(ctx, username)
	if err != nil {
		return err
	}

	if err := s.verifier.StartVerification(ctx, phone); err != nil {
		return err
	}

	s.logger.Info(ctx, "password reset requested", "username", username)
	return nil
}

// Confirm checks code and, when accepted, sets newPassword.
func (s *PasswordResetService) Confirm(ctx context.Context, username, code, newPassword string) (*models.User, error) {
	phone, err := s.users.GetPhone(ctx, username)
	if err != nil {
		return nil, err
	}

	ok, err := s.verifier.CheckVerification(ctx, phone, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorInvalidCode
	}

	return s.users.ChangePassword(ctx, username, newPassword)
}
