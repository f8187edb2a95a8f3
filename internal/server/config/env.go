package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/messagely/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv overlays Config with environment variables. A dotenv file given
// with -env (or ".env" in the working directory) is loaded first; variables
// already present in the process environment take precedence over it.
//
// Malformed numeric or duration values cause a panic, as with the JSON and
// flag sources.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlags(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else {
		_ = godotenv.Load()
	}

	setString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	setString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	setString(&config.DatabaseDSN, "DATABASE_URL")
	setString(&config.SecretKey, "SECRET_KEY")
	setInt(&config.BcryptWorkFactor, "BCRYPT_WORK_FACTOR")
	setDuration(&config.TokenValidityDuration, "TOKEN_TTL")
	setString(&config.LogFormat, "LOG_FORMAT")
	setString(&config.LogLevel, "LOG_LEVEL")
	setString(&config.RedisAddr, "REDIS_ADDR")
	setString(&config.RedisPassword, "REDIS_PASSWORD")
	setString(&config.TwilioAccountSID, "TWILIO_ACCOUNT_SID")
	setString(&config.TwilioAuthToken, "TWILIO_AUTH_TOKEN")
	setString(&config.TwilioFromNumber, "TWILIO_FROM_NUMBER")
	setString(&config.TwilioVerifyServiceSID, "TWILIO_VERIFY_SERVICE_SID")
	setString(&config.TwilioBaseURL, "TWILIO_BASE_URL")
	setString(&config.TwilioVerifyBaseURL, "TWILIO_VERIFY_BASE_URL")
	setString(&config.VerificationMode, "VERIFICATION_MODE")
	setDuration(&config.VerificationCodeTTL, "VERIFICATION_CODE_TTL")
	setDuration(&config.VerificationCooldown, "VERIFICATION_COOLDOWN")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func setDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
