package sms

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/logging"
	"github.com/redis/go-redis/v9"
)

const (
	codeKeyPrefix     = "verify:"
	cooldownKeyPrefix = "verify:cooldown:"
	attemptsKeyPrefix = "verify:attempts:"
)

// DefaultMaxAttempts is how many wrong codes a pending code survives.
const DefaultMaxAttempts = 5

// VerificationText is the body of the message carrying a code.
func VerificationText(code string) string {
	return fmt.Sprintf("Your verification code is: %s", code)
}

// CodeVerifier stores one-time codes in Redis and texts them with a Sender.
type CodeVerifier struct {
	rdb      redis.Cmdable
	sender   Sender
	logger   logging.Logger
	ttl      time.Duration
	cooldown time.Duration
	digits   int

	maxAttempts int64
}

func NewCodeVerifier(rdb redis.Cmdable, sender Sender, logger logging.Logger, ttl, cooldown time.Duration) *CodeVerifier {
	return &CodeVerifier{
		rdb:      rdb,
		sender:   sender,
		logger:   logger,
		ttl:      ttl,
		cooldown: cooldown,
		digits:   common.VerificationCodeDigits,

		maxAttempts: DefaultMaxAttempts,
	}
}

func codeKey(phone string) string     { return codeKeyPrefix + phone }
func cooldownKey(phone string) string { return cooldownKeyPrefix + phone }
func attemptsKey(phone string) string { return attemptsKeyPrefix + phone }

// StartVerification issues a fresh code for phone, replacing any pending one.
// A second request inside the cooldown window yields common.ErrorTooManyRequests.
func (v *CodeVerifier) StartVerification(ctx context.Context, phone string) error {
	if v.cooldown > 0 {
		ok, err := v.rdb.SetNX(ctx, cooldownKey(phone), 1, v.cooldown).Result()
		if err != nil {
			return fmt.Errorf("%w: redis: %v", common.ErrorUpstream, err)
		}
		if !ok {
			return common.ErrorTooManyRequests
		}
	}

	code, err := common.MakeRandDigitCode(v.digits)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	_, err = v.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, codeKey(phone), code, v.ttl)
		p.Del(ctx, attemptsKey(phone))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: redis: %v", common.ErrorUpstream, err)
	}

	if err := v.sender.Send(ctx, phone, VerificationText(code)); err != nil {
		// a failed delivery does not count against the cooldown
		if delErr := v.rdb.Del(ctx, codeKey(phone), cooldownKey(phone)).Err(); delErr != nil {
			v.logger.Warn(ctx, "failed to drop undelivered code", "error", delErr)
		}
		return err
	}

	v.logger.Info(ctx, "verification code issued", "phone", phone)
	return nil
}

// CheckVerification compares code with the pending one. A match consumes it.
// After maxAttempts wrong codes the pending code is dropped and
// common.ErrorTooManyRequests is returned.
func (v *CodeVerifier) CheckVerification(ctx context.Context, phone, code string) (bool, error) {
	stored, err := v.rdb.Get(ctx, codeKey(phone)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: redis: %v", common.ErrorUpstream, err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, v.recordFailure(ctx, phone)
	}

	if err := v.rdb.Del(ctx, codeKey(phone), attemptsKey(phone)).Err(); err != nil {
		return false, fmt.Errorf("%w: redis: %v", common.ErrorUpstream, err)
	}

	return true, nil
}

func (v *CodeVerifier) recordFailure(ctx context.Context, phone string) error {
	var incr *redis.IntCmd
	_, err := v.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, attemptsKey(phone))
		if v.ttl > 0 {
			p.Expire(ctx, attemptsKey(phone), v.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: redis: %v", common.ErrorUpstream, err)
	}

	if incr.Val() < v.maxAttempts {
		return nil
	}

	if err := v.rdb.Del(ctx, codeKey(phone), attemptsKey(phone)).Err(); err != nil {
		return fmt.Errorf("%w: redis: %v", common.ErrorUpstream, err)
	}
	v.logger.Warn(ctx, "verification code dropped after too many attempts", "phone", phone)
	return common.ErrorTooManyRequests
}
