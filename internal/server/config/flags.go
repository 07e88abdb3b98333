package config

import (
	"flag"

	"github.com/dmitrijs2005/tripkeeper/internal/flagx"
)

var knownFlags = []string{
	"-a", "-g", "-d", "-s", "-t", "-o", "-r", "-w", "-l", "-j", "-m", "-f", "-e",
}

// parseFlags overlays command-line flags onto config.
//
//	-a string     HTTP bind address
//	-g string     gRPC health bind address
//	-d string     PostgreSQL DSN
//	-s string     session token HMAC secret
//	-t duration   session token validity
//	-o duration   one-time code validity
//	-r duration   reset token validity
//	-w duration   send-code cooldown
//	-l string     limiter backend (postgres|memory)
//	-j duration   janitor interval
//	-m string     SMTP host (empty logs mail instead of sending)
//	-f string     frontend base URL used in reset links
//	-e string     environment (development|production)
//
// Unknown flags are filtered out first so other packages may own them.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("tripkeeper", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP bind address")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "gRPC health bind address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "session token secret")
	fs.DurationVar(&config.SessionTokenValidity, "t", config.SessionTokenValidity, "session token validity")
	fs.DurationVar(&config.OTPValidity, "o", config.OTPValidity, "one-time code validity")
	fs.DurationVar(&config.ResetTokenValidity, "r", config.ResetTokenValidity, "reset token validity")
	fs.DurationVar(&config.SendCodeCooldown, "w", config.SendCodeCooldown, "send-code cooldown")
	fs.StringVar(&config.LimiterBackend, "l", config.LimiterBackend, "limiter backend (postgres|memory)")
	fs.DurationVar(&config.JanitorInterval, "j", config.JanitorInterval, "expired row sweep interval")
	fs.StringVar(&config.SMTPHost, "m", config.SMTPHost, "SMTP host")
	fs.StringVar(&config.FrontendURL, "f", config.FrontendURL, "frontend base URL")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment (development|production)")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}
}
