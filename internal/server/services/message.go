package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/logging"
	"github.com/dmitrijs2005/messagely/internal/server/models"
	"github.com/dmitrijs2005/messagely/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/messagely/internal/server/sms"
)

// DefaultNotifyTimeout bounds a single SMS notification sent after a message
// is stored.
const DefaultNotifyTimeout = 15 * time.Second

// MessageService stores messages, enforces who may see or acknowledge them,
// and notifies recipients by SMS.
type MessageService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	sender        sms.Sender
	logger        logging.Logger
	notifyTimeout time.Duration
	notifications sync.WaitGroup
}

func NewMessageService(db *sql.DB, m repomanager.RepositoryManager, sender sms.Sender, logger logging.Logger) *MessageService {
	return &MessageService{
		db:            db,
		repomanager:   m,
		sender:        sender,
		logger:        logger,
		notifyTimeout: DefaultNotifyTimeout,
	}
}

// Wait blocks until all in-flight SMS notifications have finished.
func (s *MessageService) Wait() {
	s.notifications.Wait()
}

func (s *MessageService) Create(ctx context.Context, fromUserName, toUserName, body string) (*models.Message, error) {
	return s.repomanager.Messages(s.db).Create(ctx, fromUserName, toUserName, body)
}

func (s *MessageService) Get(ctx context.Context, id int64) (*models.MessageDetail, error) {
	return s.repomanager.Messages(s.db).Get(ctx, id)
}

func (s *MessageService) MarkRead(ctx context.Context, id int64) (*models.ReadReceipt, error) {
	return s.repomanager.Messages(s.db).MarkRead(ctx, id)
}

// Send stores a message from the caller and texts the recipient in the
// background. The SMS outlives the request and its failures are only logged.
func (s *MessageService) Send(ctx context.Context, fromUserName, toUserName, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: body is required", common.ErrorValidation)
	}

	recipient, err := s.repomanager.Users(s.db).GetByUsername(ctx, toUserName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: unknown recipient %q", common.ErrorConstraintViolation, toUserName)
		}
		return nil, err
	}

	msg, err := s.Create(ctx, fromUserName, toUserName, body)
	if err != nil {
		return nil, err
	}

	s.notify(context.WithoutCancel(ctx), msg.ID, toUserName, recipient.Phone, body)

	return msg, nil
}

func (s *MessageService) notify(ctx context.Context, id int64, toUserName, phone, body string) {
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()

		ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
		defer cancel()

		if err := s.sender.Send(ctx, phone, body); err != nil {
			s.logger.Warn(ctx, "sms notification failed", "message_id", id, "to", toUserName, "error", err)
		}
	}()
}

// GetForUser returns the message only to its sender or recipient.
func (s *MessageService) GetForUser(ctx context.Context, id int64, caller string) (*models.MessageDetail, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.FromUser.UserName != caller && m.ToUser.UserName != caller {
		return nil, common.ErrorForbidden
	}
	return m, nil
}

// MarkReadByRecipient stamps the message as read if caller received it.
func (s *MessageService) MarkReadByRecipient(ctx context.Context, id int64, caller string) (*models.ReadReceipt, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.ToUser.UserName != caller {
		return nil, common.ErrorUnauthorized
	}
	return s.MarkRead(ctx, id)
}
