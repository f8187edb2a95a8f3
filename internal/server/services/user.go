// Package services contains server-side business logic. This file implements
// UserService, which handles registration, credential checks, token issuing
// and the user directory reads.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/dbx"
	"github.com/dmitrijs2005/messagely/internal/server/auth"
	"github.com/dmitrijs2005/messagely/internal/server/config"
	"github.com/dmitrijs2005/messagely/internal/server/models"
	"github.com/dmitrijs2005/messagely/internal/server/passwords"
	"github.com/dmitrijs2005/messagely/internal/server/repositories/repomanager"
)

// RegisterInput carries a registration request. Password is plaintext.
type RegisterInput struct {
	UserName  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

func (in RegisterInput) validate() error {
	switch {
	case strings.TrimSpace(in.UserName) == "":
		return fmt.Errorf("%w: username is required", common.ErrorValidation)
	case in.Password == "":
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	case strings.TrimSpace(in.Phone) == "":
		return fmt.Errorf("%w: phone is required", common.ErrorValidation)
	}
	return nil
}

type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	hasher        *passwords.Hasher
	jwtSecret     []byte
	tokenValidity time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:            db,
		repomanager:   m,
		hasher:        passwords.NewHasher(cfg.BcryptWorkFactor),
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
	}
}

// Register stores a new user. The existence check and the insert share one
// transaction; a taken username yields common.ErrorConflict.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var created *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		exists, err := repo.Exists(ctx, in.UserName)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrorConflict
		}

		hashed, err := s.hasher.Hash(in.Password)
		if err != nil {
			return fmt.Errorf("error hashing password: %w", err)
		}

		created, err = repo.Create(ctx, &models.User{
			UserName:  in.UserName,
			Password:  hashed,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Phone:     in.Phone,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return created, nil
}

// Authenticate checks password against the stored hash. An unknown username
// yields common.ErrorInvalidCredentials. The last-login stamp is left alone.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (bool, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, common.ErrorInvalidCredentials
		}
		return false, err
	}
	return s.hasher.Verify(password, user.Password), nil
}

// Login authenticates, stamps last_login_at and returns a fresh token.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	ok, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", common.ErrorInvalidCredentials
	}

	if err := s.UpdateLoginTimestamp(ctx, username); err != nil {
		return "", err
	}

	return s.IssueToken(username)
}

func (s *UserService) IssueToken(username string) (string, error) {
	token, err := auth.GenerateToken(username, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

func (s *UserService) UpdateLoginTimestamp(ctx context.Context, username string) error {
	return s.repomanager.Users(s.db).UpdateLoginTimestamp(ctx, username)
}

// ChangePassword replaces the stored hash unconditionally. Callers are
// expected to have proven the caller's identity first.
func (s *UserService) ChangePassword(ctx context.Context, username, newPassword string) (*models.User, error) {
	if newPassword == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	return s.repomanager.Users(s.db).UpdatePassword(ctx, username, hashed)
}

// Get returns the public profile plus timestamps; the hash is never exposed.
func (s *UserService) Get(ctx context.Context, username string) (*models.UserDetail, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return user.Detail(), nil
}

// GetPhone returns the stored phone number for username.
func (s *UserService) GetPhone(ctx context.Context, username string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return user.Phone, nil
}

func (s *UserService) All(ctx context.Context) ([]models.UserSummary, error) {
	return s.repomanager.Users(s.db).All(ctx)
}

func (s *UserService) MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error) {
	return s.repomanager.Users(s.db).MessagesFrom(ctx, username)
}

func (s *UserService) MessagesTo(ctx context.Context, username string) ([]models.ReceivedMessage, error) {
	return s.repomanager.Users(s.db).MessagesTo(ctx, username)
}
