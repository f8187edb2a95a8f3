package messages

import (
	"context"
	"database/sql"
	"errors"

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

func (r *PostgresRepository) Create(ctx context.Context, fromUserName, toUserName, body string) (*models.Message, error) {

	query :=
		`INSERT INTO messages (from_username, to_username, body, sent_at)
		 VALUES ($1, $2, $3, current_timestamp)
		 RETURNING id, from_username, to_username, body, sent_at, read_at
		 `

	m := &models.Message{}
	var readAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, fromUserName, toUserName, body).
		Scan(&m.ID, &m.FromUserName, &m.ToUserName, &m.Body, &m.SentAt, &readAt)

	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorConstraintViolation
		}
		return nil, dbx.WrapError(err)
	}

	if readAt.Valid {
		m.ReadAt = &readAt.Time
	}

	return m, nil
}

// Get loads the message with both participants' public profiles.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.MessageDetail, error) {

	query :=
		`SELECT m.id,
		        f.username, f.first_name, f.last_name, f.phone,
		        t.username, t.first_name, t.last_name, t.phone,
		        m.body, m.sent_at, m.read_at
		 FROM messages AS m
		 JOIN users AS f ON m.from_username = f.username
		 JOIN users AS t ON m.to_username = t.username
		 WHERE m.id = $1
		 `

	m := &models.MessageDetail{}
	var readAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID,
		&m.FromUser.UserName, &m.FromUser.FirstName, &m.FromUser.LastName, &m.FromUser.Phone,
		&m.ToUser.UserName, &m.ToUser.FirstName, &m.ToUser.LastName, &m.ToUser.Phone,
		&m.Body, &m.SentAt, &readAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.WrapError(err)
	}

	if readAt.Valid {
		m.ReadAt = &readAt.Time
	}

	return m, nil
}

// MarkRead stamps read_at with the current time, overwriting any earlier value.
func (r *PostgresRepository) MarkRead(ctx context.Context, id int64) (*models.ReadReceipt, error) {

	query :=
		`UPDATE messages SET read_at = current_timestamp
		 WHERE id = $1
		 RETURNING id, read_at
		 `

	rr := &models.ReadReceipt{}

	err := r.db.QueryRowContext(ctx, query, id).Scan(&rr.ID, &rr.ReadAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.WrapError(err)
	}

	return rr, nil
}
