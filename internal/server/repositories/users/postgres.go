package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/dbx"
	"github.com/dmitrijs2005/messagely/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// Create stores join_at as LOCALTIMESTAMP and also stamps last_login_at on
// insert, so a freshly registered user counts as logged in.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, password, first_name, last_name, phone, join_at, last_login_at)
		 VALUES ($1, $2, $3, $4, $5, LOCALTIMESTAMP, CURRENT_TIMESTAMP)
		 RETURNING username, password, first_name, last_name, phone, join_at, last_login_at
		 `

	created := &models.User{}
	var lastLogin sql.NullTime

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Password, user.FirstName, user.LastName, user.Phone).
		Scan(&created.UserName, &created.Password, &created.FirstName, &created.LastName, &created.Phone, &created.JoinAt, &lastLogin)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, dbx.WrapError(err)
	}

	created.LastLoginAt = nullTimePtr(lastLogin)
	return created, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, username string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)
		 `

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, dbx.WrapError(err)
	}

	return exists, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT username, password, first_name, last_name, phone, join_at, last_login_at
		 FROM users
		 WHERE username = $1
		 `

	user := &models.User{}
	var lastLogin sql.NullTime

	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.UserName, &user.Password, &user.FirstName, &user.LastName, &user.Phone, &user.JoinAt, &lastLogin)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.WrapError(err)
	}

	user.LastLoginAt = nullTimePtr(lastLogin)
	return user, nil
}

func (r *PostgresRepository) UpdateLoginTimestamp(ctx context.Context, username string) error {
	query :=
		`UPDATE users SET last_login_at = CURRENT_TIMESTAMP
		 WHERE username = $1
		 RETURNING username
		 `

	var updated string
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return dbx.WrapError(err)
	}

	return nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, username string, hashedPassword string) (*models.User, error) {
	query :=
		`UPDATE users SET password = $2
		 WHERE username = $1
		 RETURNING username, password, first_name, last_name, phone, join_at, last_login_at
		 `

	user := &models.User{}
	var lastLogin sql.NullTime

	err := r.db.QueryRowContext(ctx, query, username, hashedPassword).
		Scan(&user.UserName, &user.Password, &user.FirstName, &user.LastName, &user.Phone, &user.JoinAt, &lastLogin)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.WrapError(err)
	}

	user.LastLoginAt = nullTimePtr(lastLogin)
	return user, nil
}

func (r *PostgresRepository) All(ctx context.Context) ([]models.UserSummary, error) {
	query :=
		`SELECT username, first_name, last_name, phone
		 FROM users
		 ORDER BY username
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	defer rows.Close()

	result := make([]models.UserSummary, 0)
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.UserName, &u.FirstName, &u.LastName, &u.Phone); err != nil {
			return nil, dbx.WrapError(err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.WrapError(err)
	}

	return result, nil
}

func (r *PostgresRepository) MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error) {
	query :=
		`SELECT m.id, m.body, m.sent_at, m.read_at, u.username, u.first_name, u.last_name, u.phone
		 FROM messages AS m
		 JOIN users AS u ON u.username = m.to_username
		 WHERE m.from_username = $1
		 ORDER BY m.id
		 `

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	defer rows.Close()

	result := make([]models.SentMessage, 0)
	for rows.Next() {
		var m models.SentMessage
		var readAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &readAt,
			&m.ToUser.UserName, &m.ToUser.FirstName, &m.ToUser.LastName, &m.ToUser.Phone); err != nil {
			return nil, dbx.WrapError(err)
		}
		m.ReadAt = nullTimePtr(readAt)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.WrapError(err)
	}

	return result, nil
}

func (r *PostgresRepository) MessagesTo(ctx context.Context, username string) ([]models.ReceivedMessage, error) {
	query :=
		`SELECT m.id, m.body, m.sent_at, m.read_at, u.username, u.first_name, u.last_name, u.phone
		 FROM messages AS m
		 JOIN users AS u ON u.username = m.from_username
		 WHERE m.to_username = $1
		 ORDER BY m.id
		 `

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	defer rows.Close()

	result := make([]models.ReceivedMessage, 0)
	for rows.Next() {
		var m models.ReceivedMessage
		var readAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &readAt,
			&m.FromUser.UserName, &m.FromUser.FirstName, &m.FromUser.LastName, &m.FromUser.Phone); err != nil {
			return nil, dbx.WrapError(err)
		}
		m.ReadAt = nullTimePtr(readAt)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.WrapError(err)
	}

	return result, nil
}
