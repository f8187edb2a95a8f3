// Package users declares the persistence contract for user records and the
// per-user message histories.
package users

import (
	"context"

	"github.com/dmitrijs2005/messagely/internal/server/models"
)

// Repository defines storage operations over the users table.
type Repository interface {
	// Create inserts user (whose Password is already hashed) and returns the
	// stored row. A duplicate username yields common.ErrorConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// Exists reports whether a user with the username is stored.
	Exists(ctx context.Context, username string) (bool, error)

	// GetByUsername returns the full row, including the password hash.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	UpdateLoginTimestamp(ctx context.Context, username string) error
	UpdatePassword(ctx context.Context, username string, hashedPassword string) (*models.User, error)

	// All lists every user's public profile ordered by username.
	All(ctx context.Context) ([]models.UserSummary, error)

	MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error)
	MessagesTo(ctx context.Context, username string) ([]models.ReceivedMessage, error)
}
