package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
	"github.com/dmitrijs2005/tripkeeper/internal/dbx"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
	"github.com/dmitrijs2005/tripkeeper/internal/server/mailer"
	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/otpcodes"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/ratelimits"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/users"
	"github.com/google/uuid"
)

type nopLogger struct{}

func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// memStore is an in-memory stand-in for the database. Transactions are
// serialised and roll back by restoring a snapshot.
type memStore struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	users  map[string]models.User
	codes  map[string]models.OTPCode
	resets map[string]models.ResetToken

	failCreateUser  error
	failIssue       error
	failSetVerified error
	failSetPassword error
	failFindEmail   error
	failCreateReset error

	// lookups by email that report not found before the store is consulted
	findEmailMisses int
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[string]models.User{},
		codes:  map[string]models.OTPCode{},
		resets: map[string]models.ResetToken{},
	}
}

type snapshot struct {
	users  map[string]models.User
	codes  map[string]models.OTPCode
	resets map[string]models.ResetToken
}

func (s *memStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{users: map[string]models.User{}, codes: map[string]models.OTPCode{}, resets: map[string]models.ResetToken{}}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.codes {
		snap.codes[k] = v
	}
	for k, v := range s.resets {
		snap.resets[k] = v
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users, s.codes, s.resets = snap.users, snap.codes, snap.resets
}

func (s *memStore) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx, nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// RepositoryManager

func (s *memStore) RunMigrations(context.Context, *sql.DB) error { return nil }
func (s *memStore) Users(dbx.DBTX) users.Repository              { return memUsers{s} }
func (s *memStore) OTPCodes(dbx.DBTX) otpcodes.Repository        { return memCodes{s} }
func (s *memStore) ResetTokens(dbx.DBTX) resettokens.Repository  { return memResets{s} }
func (s *memStore) RateLimits(dbx.DBTX) ratelimits.Repository    { return nil }

func (s *memStore) userByEmail(email string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *memStore) code(email string) (models.OTPCode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[email]
	return c, ok
}

func (s *memStore) resetTokens(email string) []models.ResetToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ResetToken
	for _, t := range s.resets {
		if t.Email == email {
			out = append(out, t)
		}
	}
	return out
}

func (s *memStore) putUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.users[u.ID] = u
	return u
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failCreateUser != nil {
		return nil, r.s.failCreateUser
	}
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return nil, common.ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.s.users[user.ID] = *user
	return user, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if r.s.failFindEmail != nil {
		return nil, r.s.failFindEmail
	}
	r.s.mu.Lock()
	miss := r.s.findEmailMisses > 0
	if miss {
		r.s.findEmailMisses--
	}
	r.s.mu.Unlock()
	if miss {
		return nil, common.ErrorNotFound
	}
	u, ok := r.s.userByEmail(email)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r memUsers) update(id string, fail error, fn func(u *models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if fail != nil {
		return fail
	}
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(&u)
	r.s.users[id] = u
	return nil
}

func (r memUsers) SetPassword(_ context.Context, id, hash string, now time.Time) error {
	return r.update(id, r.s.failSetPassword, func(u *models.User) { u.PasswordHash, u.UpdatedAt = hash, now })
}

func (r memUsers) SetVerified(_ context.Context, id string, now time.Time) error {
	return r.update(id, r.s.failSetVerified, func(u *models.User) { u.IsVerified, u.IsActive, u.UpdatedAt = true, true, now })
}

func (r memUsers) SetActive(_ context.Context, id string, active bool, now time.Time) error {
	return r.update(id, nil, func(u *models.User) { u.IsActive, u.UpdatedAt = active, now })
}

func (r memUsers) TouchLastLogin(_ context.Context, id string, now time.Time) error {
	return r.update(id, nil, func(u *models.User) { u.LastLoginAt = &now })
}

type memCodes struct{ s *memStore }

func (r memCodes) Issue(_ context.Context, code *models.OTPCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failIssue != nil {
		return r.s.failIssue
	}
	c := *code
	c.Used = false
	r.s.codes[code.Email] = c
	return nil
}

func (r memCodes) Consume(_ context.Context, email, code string, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.codes[email]
	if !ok || c.Code != code || !c.Valid(now) {
		return false, nil
	}
	c.Used = true
	r.s.codes[email] = c
	return true, nil
}

func (r memCodes) DeleteExpired(context.Context, time.Time) (int64, error) { return 0, nil }

type memResets struct{ s *memStore }

func (r memResets) Create(_ context.Context, t *models.ResetToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failCreateReset != nil {
		return r.s.failCreateReset
	}
	r.s.resets[t.Token] = *t
	return nil
}

func (r memResets) InvalidateForEmail(_ context.Context, email string, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, t := range r.s.resets {
		if t.Email == email && t.UsedAt == nil {
			used := now
			t.UsedAt = &used
			r.s.resets[k] = t
			n++
		}
	}
	return n, nil
}

func (r memResets) Consume(_ context.Context, token string, now time.Time) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.resets[token]
	if !ok || !t.Valid(now) {
		return "", common.ErrorNotFound
	}
	used := now
	t.UsedAt = &used
	r.s.resets[token] = t
	return t.Email, nil
}

func (r memResets) DeleteExpired(context.Context, time.Time) (int64, error) { return 0, nil }

// plainHasher avoids bcrypt cost in service tests.
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "plain:" + p, nil }
func (plainHasher) Check(h, p string) bool        { return h == "plain:"+p }

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *fakeMailer) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

func (m *fakeMailer) last() mailer.Message {
	msgs := m.messages()
	if len(msgs) == 0 {
		return mailer.Message{}
	}
	return msgs[len(msgs)-1]
}

type fakeLimiter struct {
	mu    sync.Mutex
	taken map[string]bool
	err   error
}

func (l *fakeLimiter) TryAcquire(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.taken == nil {
		l.taken = map[string]bool{}
	}
	if l.taken[key] {
		return false, nil
	}
	l.taken[key] = true
	return true, nil
}

func (l *fakeLimiter) reset() {
	l.mu.Lock()
	l.taken = nil
	l.mu.Unlock()
}

type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// sequentialCodes hands out 100001, 100002, ...
func sequentialCodes() func() (string, error) {
	var mu sync.Mutex
	n := 100000
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%06d", n), nil
	}
}

// codeFromMail extracts the 6-digit code from a verification message.
func codeFromMail(msg mailer.Message) string {
	const marker = "Your verification code is "
	i := strings.Index(msg.Text, marker)
	if i < 0 {
		return ""
	}
	return msg.Text[i+len(marker) : i+len(marker)+6]
}
