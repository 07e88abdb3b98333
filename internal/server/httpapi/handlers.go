package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
	"github.com/dmitrijs2005/tripkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

// AuthService is the part of services.AuthService the handlers use.
type AuthService interface {
	Signup(ctx context.Context, name, email, password, ip string) (*services.SignupResult, error)
	Login(ctx context.Context, email, password, ip string) (*services.Session, error)
	SendCode(ctx context.Context, email, ip string) (time.Duration, error)
	VerifyCode(ctx context.Context, email, code string) (*services.Session, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

const (
	msgForgotPassword = "If an account exists with this email, a password reset link has been sent."
	msgResetDone      = "Password has been reset successfully. You can now log in with your new password."
)

type handlers struct {
	svc    AuthService
	db     Pinger
	logger logging.Logger
}

func (h *handlers) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeMessage(c, http.StatusBadRequest, msgBadBody)
		return false
	}
	return true
}

// fail writes err unless the request deadline already fired, in which case
// the client gets a 503 rather than a misleading 500.
func (h *handlers) fail(c *gin.Context, err error) {
	if errors.Is(c.Request.Context().Err(), context.DeadlineExceeded) {
		writeMessage(c, http.StatusServiceUnavailable, msgTimeout)
		return
	}
	if status, _ := statusFor(err); status == http.StatusInternalServerError {
		h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	writeError(c, err)
}

func (h *handlers) signup(c *gin.Context) {
	var req signupRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.svc.Signup(c.Request.Context(), req.Name, req.Email, req.Password, c.ClientIP())
	if err != nil {
		h.fail(c, err)
		return
	}

	status := http.StatusOK
	if res.Status == services.SignupCreated {
		status = http.StatusCreated
	}
	c.JSON(status, signupResponse{Success: true, Message: res.Message, Email: res.Email})
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}

	sess, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if errors.Is(err, common.ErrVerificationRequired) {
		c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{
			Message:                 msgVerifyEmail,
			RequiresOTPVerification: true,
			Email:                   services.NormalizeEmail(req.Email),
		})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		Success: true,
		Message: "Login successful",
		Token:   sess.Token,
		User:    toUserResponse(sess.User),
	})
}

func (h *handlers) sendCode(c *gin.Context) {
	var req emailRequest
	if !h.bind(c, &req) {
		return
	}

	ttl, err := h.svc.SendCode(c.Request.Context(), req.Email, c.ClientIP())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, sendCodeResponse{
		Success:   true,
		Message:   "OTP sent successfully",
		ExpiresIn: int64(ttl / time.Second),
	})
}

func (h *handlers) verifyCode(c *gin.Context) {
	var req verifyRequest
	if !h.bind(c, &req) {
		return
	}

	sess, err := h.svc.VerifyCode(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		Success: true,
		Message: "Email verified successfully",
		Token:   sess.Token,
		User:    toUserResponse(sess.User),
	})
}

func (h *handlers) forgotPassword(c *gin.Context) {
	var req emailRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Success: true, Message: msgForgotPassword})
}

func (h *handlers) resetPassword(c *gin.Context) {
	var req resetRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Success: true, Message: msgResetDone})
}

func (h *handlers) me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		writeError(c, common.ErrorUnauthorized)
		return
	}
	c.JSON(http.StatusOK, meResponse{Success: true, User: toUserResponse(user)})
}

func (h *handlers) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn(ctx, "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
