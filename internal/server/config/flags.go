package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/messagely/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-g string   gRPC health bind address, empty to disable
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-w int      bcrypt work factor
//	-t int      token validity, minutes (0 = tokens never expire)
//	-l string   log format: json, text or zap
//	-r string   Redis address
//	-m string   verification mode: twilio or local
//
// os.Args is filtered with flagx.FilterArgs first so that -c/-config and
// -env, handled elsewhere, do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-w", "-t", "-l", "-r", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run HTTP server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run gRPC health server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.IntVar(&config.BcryptWorkFactor, "w", config.BcryptWorkFactor, "bcrypt work factor")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes, 0 = no expiry)")

	fs.StringVar(&config.LogFormat, "l", config.LogFormat, "log format (json, text, zap)")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.VerificationMode, "m", config.VerificationMode, "verification mode (twilio, local)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		}
	})
}
