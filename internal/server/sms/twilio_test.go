package sms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/logging"
	"github.com/dmitrijs2005/messagely/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTwilio(t *testing.T, h http.HandlerFunc) *TwilioClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		TwilioAccountSID:       "AC123",
		TwilioAuthToken:        "secret",
		TwilioFromNumber:       "+15550000000",
		TwilioVerifyServiceSID: "VA456",
		TwilioBaseURL:          srv.URL,
		TwilioVerifyBaseURL:    srv.URL + "/",
	}
	return NewTwilioClient(cfg, logging.Nop{})
}

func TestTwilioSend(t *testing.T) {
	c := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15551112222", r.PostForm.Get("To"))
		assert.Equal(t, "+15550000000", r.PostForm.Get("From"))
		assert.Equal(t, "hi", r.PostForm.Get("Body"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	})

	require.NoError(t, c.Send(context.Background(), "+15551112222", "hi"))
}

func TestTwilioSend_ProviderError(t *testing.T) {
	c := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
	})

	err := c.Send(context.Background(), "bogus", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorUpstream)
	assert.Contains(t, err.Error(), "Invalid 'To' Phone Number")
	assert.Contains(t, err.Error(), "400")
}

func TestTwilioSend_Unreachable(t *testing.T) {
	c := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {})
	c.baseURL = "http://127.0.0.1:1"

	err := c.Send(context.Background(), "+1", "hi")
	assert.ErrorIs(t, err, common.ErrorUpstream)
}

func TestTwilioStartVerification(t *testing.T) {
	c := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/Services/VA456/Verifications", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15551112222", r.PostForm.Get("To"))
		assert.Equal(t, "sms", r.PostForm.Get("Channel"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"VE1","status":"pending"}`))
	})

	require.NoError(t, c.StartVerification(context.Background(), "+15551112222"))
}

func TestTwilioCheckVerification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    bool
		wantErr error
	}{
		{name: "approved", status: http.StatusOK, body: `{"status":"approved"}`, want: true},
		{name: "pending", status: http.StatusOK, body: `{"status":"pending"}`, want: false},
		{name: "expired", status: http.StatusNotFound, body: `{"code":20404,"message":"not found"}`, want: false},
		{name: "provider down", status: http.StatusServiceUnavailable, body: `oops`, wantErr: common.ErrorUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v2/Services/VA456/VerificationCheck", r.URL.Path)
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "123456", r.PostForm.Get("Code"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			ok, err := c.CheckVerification(context.Background(), "+1", "123456")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}
