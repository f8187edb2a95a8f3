package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/logging"
	"github.com/dmitrijs2005/messagely/internal/server/config"
)

const twilioApproved = "approved"

// TwilioClient talks to the Twilio Messages and Verify REST APIs.
type TwilioClient struct {
	httpClient       *http.Client
	logger           logging.Logger
	accountSID       string
	authToken        string
	fromNumber       string
	verifyServiceSID string
	baseURL          string
	verifyBaseURL    string
}

func NewTwilioClient(cfg *config.Config, logger logging.Logger) *TwilioClient {
	return &TwilioClient{
		httpClient:       &http.Client{Timeout: 10 * time.Second},
		logger:           logger,
		accountSID:       cfg.TwilioAccountSID,
		authToken:        cfg.TwilioAuthToken,
		fromNumber:       cfg.TwilioFromNumber,
		verifyServiceSID: cfg.TwilioVerifyServiceSID,
		baseURL:          strings.TrimRight(cfg.TwilioBaseURL, "/"),
		verifyBaseURL:    strings.TrimRight(cfg.TwilioVerifyBaseURL, "/"),
	}
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioVerification struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// Send posts a message through the Messages API.
func (c *TwilioClient) Send(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, url.PathEscape(c.accountSID))

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.fromNumber)
	form.Set("Body", body)

	var out twilioMessage
	if err := c.post(ctx, endpoint, form, &out); err != nil {
		return err
	}

	c.logger.Debug(ctx, "sms queued", "sid", out.SID, "status", out.Status)
	return nil
}

// StartVerification asks Twilio Verify to text a code to phone.
func (c *TwilioClient) StartVerification(ctx context.Context, phone string) error {
	endpoint := fmt.Sprintf("%s/v2/Services/%s/Verifications", c.verifyBaseURL, url.PathEscape(c.verifyServiceSID))

	form := url.Values{}
	form.Set("To", phone)
	form.Set("Channel", "sms")

	var out twilioVerification
	return c.post(ctx, endpoint, form, &out)
}

// CheckVerification reports whether Twilio approved code for phone.
// Twilio answers 404 once a verification expired or was already approved;
// that is reported as a rejected code.
func (c *TwilioClient) CheckVerification(ctx context.Context, phone, code string) (bool, error) {
	endpoint := fmt.Sprintf("%s/v2/Services/%s/VerificationCheck", c.verifyBaseURL, url.PathEscape(c.verifyServiceSID))

	form := url.Values{}
	form.Set("To", phone)
	form.Set("Code", code)

	var out twilioVerification
	err := c.post(ctx, endpoint, form, &out)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.status == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}

	return out.Status == twilioApproved, nil
}

type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("twilio: %s (status %d)", e.message, e.status)
}

func (e *statusError) Unwrap() error { return common.ErrorUpstream }

func (c *TwilioClient) post(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: twilio: %v", common.ErrorUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: twilio: read body: %v", common.ErrorUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var te twilioError
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &te) == nil && te.Message != "" {
			msg = te.Message
		}
		c.logger.Warn(ctx, "twilio request failed", "status", resp.StatusCode, "error", msg)
		return &statusError{status: resp.StatusCode, message: msg}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: twilio: decode: %v", common.ErrorUpstream, err)
		}
	}

	return nil
}
