// Package services contains the server-side business logic. AuthService
// drives the account lifecycle: signup, one-time-code verification, login,
// session issuance and password reset.
package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
	"github.com/dmitrijs2005/tripkeeper/internal/dbx"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
	"github.com/dmitrijs2005/tripkeeper/internal/server/auth"
	"github.com/dmitrijs2005/tripkeeper/internal/server/config"
	"github.com/dmitrijs2005/tripkeeper/internal/server/mailer"
	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
	"github.com/dmitrijs2005/tripkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/repomanager"
)

const (
	SignupCreated = "created"
	SignupResent  = "ok"
)

const resetTokenBytes = 32

// Deps are the collaborators of AuthService.
type Deps struct {
	DB      dbx.DBTX
	Tx      dbx.Transactor
	Repos   repomanager.RepositoryManager
	Limiter ratelimit.Limiter
	Mailer  mailer.Mailer
	Issuer  *auth.Issuer
	Hasher  auth.Hasher
	Logger  logging.Logger
}

type SignupResult struct {
	Status  string
	Email   string
	Message string
}

// Session is a freshly minted session token and its owner.
type Session struct {
	Token string
	User  *models.User
}

type AuthService struct {
	db      dbx.DBTX
	tx      dbx.Transactor
	repos   repomanager.RepositoryManager
	limiter ratelimit.Limiter
	mailer  mailer.Mailer
	issuer  *auth.Issuer
	hasher  auth.Hasher
	logger  logging.Logger

	otpValidity   time.Duration
	resetValidity time.Duration
	mailTimeout   time.Duration
	frontendURL   string

	clock         func() time.Time
	newCode       func() (string, error)
	newResetToken func() (string, error)

	mail sync.WaitGroup
}

func NewAuthService(d Deps, cfg *config.Config) *AuthService {
	hasher := d.Hasher
	if hasher == nil {
		hasher = auth.BcryptHasher{}
	}
	return &AuthService{
		db:      d.DB,
		tx:      d.Tx,
		repos:   d.Repos,
		limiter: d.Limiter,
		mailer:  d.Mailer,
		issuer:  d.Issuer,
		hasher:  hasher,
		logger:  d.Logger.With("module", "auth_service"),

		otpValidity:   cfg.OTPValidity,
		resetValidity: cfg.ResetTokenValidity,
		mailTimeout:   cfg.MailTimeout,
		frontendURL:   cfg.FrontendURL,

		clock:         time.Now,
		newCode:       func() (string, error) { return common.MakeNumericCode(common.OTPLength) },
		newResetToken: func() (string, error) { return common.MakeRandURLToken(resetTokenBytes) },
	}
}

// Signup registers a new unverified account, or re-sends a code to an
// account still waiting for verification. Both outcomes look the same to
// the caller apart from Status.
func (s *AuthService) Signup(ctx context.Context, name, email, password, ip string) (*SignupResult, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if name == "" {
		return nil, common.NewValidationError("name", msgNameRequired)
	}
	if err := checkEmail(email, msgEmailRequired); err != nil {
		return nil, err
	}
	if err := checkPassword("password", password); err != nil {
		return nil, err
	}

	existing, err := s.repos.Users(s.db).FindByEmail(ctx, email)
	switch {
	case err == nil && existing.IsVerified:
		return nil, common.ErrAlreadyRegistered
	case err == nil:
		return s.resendSignupCode(ctx, existing, ip)
	case !errors.Is(err, common.ErrorNotFound):
		s.logger.Error(ctx, "signup lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	var code string
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		now := s.clock()
		user := &models.User{Name: name, Email: email, PasswordHash: hash, CreatedAt: now, UpdatedAt: now}
		if _, err := s.repos.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		var err error
		code, err = s.issueCode(ctx, tx, email, ip)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			// lost a race with a concurrent signup for the same email
			return s.signupRaceLost(ctx, email, ip)
		}
		if errors.Is(err, common.ErrorInternal) {
			return nil, err
		}
		s.logger.Error(ctx, "signup failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "ip", ip)
	s.sendCode(ctx, name, email, code)

	return &SignupResult{
		Status:  SignupCreated,
		Email:   email,
		Message: "An OTP has been sent to your email address. Please check your inbox to complete registration.",
	}, nil
}

func (s *AuthService) resendSignupCode(ctx context.Context, user *models.User, ip string) (*SignupResult, error) {
	code, err := s.issueCode(ctx, s.db, user.Email, ip)
	if err != nil {
		return nil, err
	}
	s.sendCode(ctx, user.Name, user.Email, code)
	return &SignupResult{
		Status:  SignupResent,
		Email:   user.Email,
		Message: "An OTP has been sent to your email address. Please check your inbox to complete verification.",
	}, nil
}

// signupRaceLost handles a signup whose insert hit the unique email index.
// The winner is re-read and treated like any existing account.
func (s *AuthService) signupRaceLost(ctx context.Context, email, ip string) (*SignupResult, error) {
	winner, err := s.repos.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		s.logger.Error(ctx, "signup re-read failed", "error", err)
		return nil, common.ErrorInternal
	}
	if winner.IsVerified {
		return nil, common.ErrAlreadyRegistered
	}
	return s.resendSignupCode(ctx, winner, ip)
}

// Login checks credentials. An unverified account gets a fresh code and
// common.ErrVerificationRequired instead of a session.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.NewValidationError("email", msgCredentialsRequired)
	}

	user, err := s.repos.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "login lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Check(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	if !user.IsVerified {
		code, err := s.issueCode(ctx, s.db, email, ip)
		if err != nil {
			return nil, err
		}
		s.sendCode(ctx, user.Name, email, code)
		return nil, common.ErrVerificationRequired
	}

	if !user.IsActive {
		return nil, common.ErrAccountDisabled
	}

	now := s.clock()
	if err := s.repos.Users(s.db).TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn(ctx, "last login update failed", "user_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = &now
	}

	return s.session(ctx, user)
}

// SendCode issues and mails a new code unless the email is inside its
// cooldown window. It returns the code lifetime.
func (s *AuthService) SendCode(ctx context.Context, email, ip string) (time.Duration, error) {
	email = NormalizeEmail(email)
	if err := checkEmail(email, msgEmailRequired); err != nil {
		return 0, err
	}

	ok, err := s.limiter.TryAcquire(ctx, ratelimit.SendCodeKey(email))
	if err != nil {
		s.logger.Error(ctx, "rate limiter failed", "error", err)
		return 0, common.ErrorInternal
	}
	if !ok {
		return 0, common.ErrTooManyRequests
	}

	code, err := s.issueCode(ctx, s.db, email, ip)
	if err != nil {
		return 0, err
	}

	var name string
	if user, err := s.repos.Users(s.db).FindByEmail(ctx, email); err == nil {
		name = user.Name
	}
	s.sendCode(ctx, name, email, code)

	return s.otpValidity, nil
}

// VerifyCode redeems a code. An unverified account becomes verified and
// active in the same transaction, and a session is returned. A verified
// account that was disabled loses the code and gets common.ErrAccountDisabled.
func (s *AuthService) VerifyCode(ctx context.Context, email, code string) (*Session, error) {
	email = NormalizeEmail(email)
	code = strings.TrimSpace(code)

	if err := checkEmail(email, msgEmailRequired); err != nil {
		return nil, err
	}
	if err := checkCode(code); err != nil {
		return nil, err
	}

	user, err := s.repos.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "verify lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		now := s.clock()
		ok, err := s.repos.OTPCodes(tx).Consume(ctx, email, code, now)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrInvalidOrExpiredCode
		}
		if user.IsVerified {
			// verified accounts keep their current active flag
			return nil
		}
		if err := s.repos.Users(tx).SetVerified(ctx, user.ID, now); err != nil {
			return err
		}
		user.IsVerified, user.IsActive, user.UpdatedAt = true, true, now
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidOrExpiredCode) {
			return nil, err
		}
		s.logger.Error(ctx, "verification failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !user.IsActive {
		return nil, common.ErrAccountDisabled
	}

	s.logger.Info(ctx, "email verified", "user_id", user.ID)
	return s.session(ctx, user)
}

// ForgotPassword starts a reset for email if an account exists. The caller
// always sees the same outcome so account existence is not revealed.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if err := checkEmail(email, msgResetEmailInvalid); err != nil {
		return err
	}

	if _, err := s.repos.Users(s.db).FindByEmail(ctx, email); err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "forgot password lookup failed", "error", err)
		}
		return nil
	}

	token, err := s.newResetToken()
	if err != nil {
		s.logger.Error(ctx, "reset token generation failed", "error", err)
		return nil
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		now := s.clock()
		repo := s.repos.ResetTokens(tx)
		if _, err := repo.InvalidateForEmail(ctx, email, now); err != nil {
			return err
		}
		return repo.Create(ctx, &models.ResetToken{
			Token:     token,
			Email:     email,
			CreatedAt: now,
			ExpiresAt: now.Add(s.resetValidity),
		})
	})
	if err != nil {
		s.logger.Error(ctx, "reset token store failed", "error", err)
		return nil
	}

	link := mailer.ResetLink(s.frontendURL, token)
	s.deliver(ctx, mailer.PasswordReset(email, link, s.resetValidity))
	return nil
}

// ResetPassword redeems a reset token and replaces the account password in
// one transaction.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return common.NewValidationError("token", msgTokenAndPasswordReqd)
	}
	if err := checkPassword("new_password", newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return common.ErrorInternal
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		now := s.clock()
		email, err := s.repos.ResetTokens(tx).Consume(ctx, token, now)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidOrExpiredToken
			}
			return err
		}
		users := s.repos.Users(tx)
		user, err := users.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidOrExpiredToken
			}
			return err
		}
		return users.SetPassword(ctx, user.ID, hash, now)
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidOrExpiredToken) {
			return err
		}
		s.logger.Error(ctx, "password reset failed", "error", err)
		return common.ErrorInternal
	}

	return nil
}

// CurrentUser loads the owner of a validated session.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repos.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "current user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if !user.IsActive {
		return nil, common.ErrAccountDisabled
	}
	return user, nil
}

// Authenticate validates a session token and returns its owner.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.issuer.Validate(token)
	if err != nil {
		return nil, err
	}
	return s.CurrentUser(ctx, claims.UserID)
}

// Wait blocks until background mail deliveries finish.
func (s *AuthService) Wait() {
	s.mail.Wait()
}

// --- helpers below ---

// issueCode generates a code and stores it as the only code for email.
func (s *AuthService) issueCode(ctx context.Context, db dbx.DBTX, email, ip string) (string, error) {
	code, err := s.newCode()
	if err != nil {
		s.logger.Error(ctx, "code generation failed", "error", err)
		return "", common.ErrorInternal
	}

	now := s.clock()
	err = s.repos.OTPCodes(db).Issue(ctx, &models.OTPCode{
		Email:     email,
		Code:      code,
		IPAddress: ip,
		CreatedAt: now,
		ExpiresAt: now.Add(s.otpValidity),
	})
	if err != nil {
		s.logger.Error(ctx, "code store failed", "error", err)
		return "", common.ErrorInternal
	}
	return code, nil
}

func (s *AuthService) session(ctx context.Context, user *models.User) (*Session, error) {
	token, err := s.issuer.Issue(user)
	if err != nil {
		s.logger.Error(ctx, "token signing failed", "error", err)
		return nil, common.ErrorInternal
	}
	return &Session{Token: token, User: user}, nil
}

func (s *AuthService) sendCode(ctx context.Context, name, email, code string) {
	s.deliver(ctx, mailer.VerificationCode(email, name, code, s.otpValidity))
}

// deliver sends msg in the background on a context detached from the
// request, so a client disconnect does not cancel delivery. Failures are
// logged only.
func (s *AuthService) deliver(ctx context.Context, msg mailer.Message) {
	mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mailTimeout)

	s.mail.Add(1)
	go func() {
		defer s.mail.Done()
		defer cancel()

		if err := s.mailer.Send(mailCtx, msg); err != nil {
			s.logger.Error(mailCtx, "mail delivery failed", "subject", msg.Subject, "error", err)
		}
	}()
}
