package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:8080", "-g", "127.0.0.1:9090", "-d", "db", "-s", "secret",
				"-w", "4", "-t", "60", "-l", "zap", "-r", "redis:6379", "-m", "twilio",
			},
			expected: &Config{
				EndpointAddrHTTP:      "127.0.0.1:8080",
				EndpointAddrGRPC:      "127.0.0.1:9090",
				DatabaseDSN:           "db",
				SecretKey:             "secret",
				BcryptWorkFactor:      4,
				TokenValidityDuration: time.Hour,
				LogFormat:             "zap",
				RedisAddr:             "redis:6379",
				VerificationMode:      VerificationModeTwilio,
			},
		},
		{
			name: "foreign flags are ignored",
			args: []string{"cmd", "-c", "cfg.json", "-env", ".env.test", "-s", "k"},
			expected: &Config{
				SecretKey: "k",
			},
		},
		{
			name:        "bad integer panics",
			args:        []string{"cmd", "-w", "many"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}

			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
