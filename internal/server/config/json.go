package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/messagely/internal/flagx"
	"github.com/dmitrijs2005/messagely/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "1m" strings and integer nanoseconds are accepted.
//
// Only keys present (non-zero) in the file override the current Config.
type JsonConfig struct {
	EndpointAddrHTTP       string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC       string         `json:"endpoint_addr_grpc"`
	DatabaseDSN            string         `json:"database_dsn"`
	SecretKey              string         `json:"secret_key"`
	BcryptWorkFactor       int            `json:"bcrypt_work_factor"`
	TokenValidityDuration  timex.Duration `json:"token_validity_duration"`
	LogFormat              string         `json:"log_format"`
	LogLevel               string         `json:"log_level"`
	RedisAddr              string         `json:"redis_addr"`
	RedisPassword          string         `json:"redis_password"`
	TwilioAccountSID       string         `json:"twilio_account_sid"`
	TwilioAuthToken        string         `json:"twilio_auth_token"`
	TwilioFromNumber       string         `json:"twilio_from_number"`
	TwilioVerifyServiceSID string         `json:"twilio_verify_service_sid"`
	TwilioBaseURL          string         `json:"twilio_base_url"`
	TwilioVerifyBaseURL    string         `json:"twilio_verify_base_url"`
	VerificationMode       string         `json:"verification_mode"`
	VerificationCodeTTL    timex.Duration `json:"verification_code_ttl"`
	VerificationCooldown   timex.Duration `json:"verification_cooldown"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag. Without the flag nothing is loaded. An unreadable file or
// invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlay(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlay(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.SecretKey, c.SecretKey)
	overlay(&config.BcryptWorkFactor, c.BcryptWorkFactor)
	overlay(&config.TokenValidityDuration, c.TokenValidityDuration.Duration)
	overlay(&config.LogFormat, c.LogFormat)
	overlay(&config.LogLevel, c.LogLevel)
	overlay(&config.RedisAddr, c.RedisAddr)
	overlay(&config.RedisPassword, c.RedisPassword)
	overlay(&config.TwilioAccountSID, c.TwilioAccountSID)
	overlay(&config.TwilioAuthToken, c.TwilioAuthToken)
	overlay(&config.TwilioFromNumber, c.TwilioFromNumber)
	overlay(&config.TwilioVerifyServiceSID, c.TwilioVerifyServiceSID)
	overlay(&config.TwilioBaseURL, c.TwilioBaseURL)
	overlay(&config.TwilioVerifyBaseURL, c.TwilioVerifyBaseURL)
	overlay(&config.VerificationMode, c.VerificationMode)
	overlay(&config.VerificationCodeTTL, c.VerificationCodeTTL.Duration)
	overlay(&config.VerificationCooldown, c.VerificationCooldown.Duration)
}

func overlay[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
