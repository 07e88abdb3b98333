package httpapi

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/logging"
	"github.com/dmitrijs2005/tripkeeper/internal/server/ratelimit"
	"github.com/gin-gonic/gin"
)

// Options tune the middleware chain. A nil IPLimiter disables per-IP
// throttling. Forwarding headers are honoured only from TrustedProxies
// (IPs or CIDRs); with none, the client IP is the TCP peer.
type Options struct {
	RequestTimeout time.Duration
	IPLimiter      ratelimit.Limiter
	TrustedProxies []string
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(svc AuthService, db Pinger, l logging.Logger, opts Options) (*gin.Engine, error) {
	l = l.With("module", "http")
	h := &handlers{svc: svc, db: db, logger: l}

	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery(), accessLog(l))

	r.GET("/healthz", h.healthz)

	api := r.Group("/api/auth")
	api.Use(requestTimeout(opts.RequestTimeout))
	if opts.IPLimiter != nil {
		api.Use(throttle(opts.IPLimiter, l))
	}
	{
		api.POST("/signup", h.signup)
		api.POST("/login", h.login)
		api.POST("/send-otp", h.sendCode)
		api.POST("/verify-otp", h.verifyCode)
		api.POST("/forgot-password", h.forgotPassword)
		api.POST("/reset-password", h.resetPassword)
	}

	protected := api.Group("")
	protected.Use(requireAuth(svc))
	{
		protected.GET("/me", h.me)
	}

	return r, nil
}
