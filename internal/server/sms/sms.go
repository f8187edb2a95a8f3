// Package sms delivers text messages and phone verification codes.
//
// Two Verifier implementations exist: TwilioClient delegates code handling
// to Twilio Verify, CodeVerifier keeps codes in Redis and delivers them with
// any Sender.
package sms

import (
	"context"

	"github.com/dmitrijs2005/messagely/internal/logging"
)

// Sender delivers a single text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// Verifier issues and checks one-time codes for a phone number.
type Verifier interface {
	StartVerification(ctx context.Context, phone string) error
	CheckVerification(ctx context.Context, phone, code string) (bool, error)
}

// LogSender only logs outgoing messages. Used when no provider is configured.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, body string) error {
	s.logger.Info(ctx, "sms delivery disabled, message dropped", "to", to, "length", len(body))
	return nil
}
