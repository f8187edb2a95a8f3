package messages

import (
	"context"

	"github.com/dmitrijs2005/messagely/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, fromUserName, toUserName, body string) (*models.Message, error)
	Get(ctx context.Context, id int64) (*models.MessageDetail, error)
	MarkRead(ctx context.Context, id int64) (*models.ReadReceipt, error)
}
