package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "TRIPKEEPER_"

// envSource merges variables from an optional .env file with the process
// environment. Process variables win.
func envSource(envFile string) map[string]string {
	vars := map[string]string{}

	if envFile != "" {
		fileVars, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}

	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, envPrefix) {
			vars[k] = v
		}
	}
	return vars
}

// parseEnv overlays TRIPKEEPER_* variables onto config.
func parseEnv(config *Config, vars map[string]string) {
	str := func(key string, dst *string) {
		if v, ok := vars[envPrefix+key]; ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := vars[envPrefix+key]; ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}
	num := func(key string, dst *int) {
		if v, ok := vars[envPrefix+key]; ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				panic(err)
			}
			*dst = n
		}
	}

	str("HTTP_ADDR", &config.HTTPAddr)
	str("GRPC_HEALTH_ADDR", &config.GRPCHealthAddr)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)

	dur("SESSION_TOKEN_VALIDITY", &config.SessionTokenValidity)
	dur("OTP_VALIDITY", &config.OTPValidity)
	dur("RESET_TOKEN_VALIDITY", &config.ResetTokenValidity)
	dur("SEND_CODE_COOLDOWN", &config.SendCodeCooldown)

	str("LIMITER_BACKEND", &config.LimiterBackend)
	dur("JANITOR_INTERVAL", &config.JanitorInterval)
	dur("REQUEST_TIMEOUT", &config.RequestTimeout)
	dur("MAIL_TIMEOUT", &config.MailTimeout)

	str("SMTP_HOST", &config.SMTPHost)
	num("SMTP_PORT", &config.SMTPPort)
	str("SMTP_USER", &config.SMTPUser)
	str("SMTP_PASSWORD", &config.SMTPPassword)
	str("MAIL_FROM", &config.MailFrom)

	str("FRONTEND_URL", &config.FrontendURL)
	str("ENVIRONMENT", &config.Environment)

	if v, ok := vars[envPrefix+"IP_REQUEST_RATE"]; ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(err)
		}
		config.IPRequestRate = f
	}
	num("IP_REQUEST_BURST", &config.IPRequestBurst)

	if v, ok := vars[envPrefix+"TRUSTED_PROXIES"]; ok && v != "" {
		config.TrustedProxies = splitList(v)
	}
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
