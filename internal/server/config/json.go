package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/flagx"
	"github.com/dmitrijs2005/tripkeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept "10m" or
// integer nanoseconds. Absent fields leave the current value untouched.
type JsonConfig struct {
	HTTPAddr       string `json:"http_addr"`
	GRPCHealthAddr string `json:"grpc_health_addr"`
	DatabaseDSN    string `json:"database_dsn"`
	SecretKey      string `json:"secret_key"`

	SessionTokenValidity timex.Duration `json:"session_token_validity"`
	OTPValidity          timex.Duration `json:"otp_validity"`
	ResetTokenValidity   timex.Duration `json:"reset_token_validity"`
	SendCodeCooldown     timex.Duration `json:"send_code_cooldown"`

	LimiterBackend  string         `json:"limiter_backend"`
	JanitorInterval timex.Duration `json:"janitor_interval"`
	RequestTimeout  timex.Duration `json:"request_timeout"`
	MailTimeout     timex.Duration `json:"mail_timeout"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUser     string `json:"smtp_user"`
	SMTPPassword string `json:"smtp_password"`
	MailFrom     string `json:"mail_from"`

	FrontendURL string `json:"frontend_url"`
	Environment string `json:"environment"`

	IPRequestRate  float64  `json:"ip_request_rate"`
	IPRequestBurst int      `json:"ip_request_burst"`
	TrustedProxies []string `json:"trusted_proxies"`
}

// parseJson loads the file named by -c/-config in args, if any, and overlays
// its non-empty fields onto config. Unreadable or invalid files panic.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	setStr(&config.HTTPAddr, c.HTTPAddr)
	setStr(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	setStr(&config.DatabaseDSN, c.DatabaseDSN)
	setStr(&config.SecretKey, c.SecretKey)

	setDur(&config.SessionTokenValidity, c.SessionTokenValidity)
	setDur(&config.OTPValidity, c.OTPValidity)
	setDur(&config.ResetTokenValidity, c.ResetTokenValidity)
	setDur(&config.SendCodeCooldown, c.SendCodeCooldown)

	setStr(&config.LimiterBackend, c.LimiterBackend)
	setDur(&config.JanitorInterval, c.JanitorInterval)
	setDur(&config.RequestTimeout, c.RequestTimeout)
	setDur(&config.MailTimeout, c.MailTimeout)

	setStr(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	setStr(&config.SMTPUser, c.SMTPUser)
	setStr(&config.SMTPPassword, c.SMTPPassword)
	setStr(&config.MailFrom, c.MailFrom)

	setStr(&config.FrontendURL, c.FrontendURL)
	setStr(&config.Environment, c.Environment)

	if c.IPRequestRate != 0 {
		config.IPRequestRate = c.IPRequestRate
	}
	if c.IPRequestBurst != 0 {
		config.IPRequestBurst = c.IPRequestBurst
	}
	if len(c.TrustedProxies) > 0 {
		config.TrustedProxies = c.TrustedProxies
	}
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDur(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
