package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/client/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubInputs feeds answers to successive prompts and passwords.
func stubInputs(t *testing.T, answers []string, passwords ...string) *[]string {
	t.Helper()
	var prompts []string

	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, prompt string, _ io.Writer) (string, error) {
		prompts = append(prompts, prompt)
		if len(answers) == 0 {
			return "", io.EOF
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	getPassword = func(prompt string, _ io.Writer) ([]byte, error) {
		prompts = append(prompts, prompt)
		if len(passwords) == 0 {
			return nil, io.EOF
		}
		p := passwords[0]
		passwords = passwords[1:]
		return []byte(p), nil
	}
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
	return &prompts
}

type fakeAPI struct {
	calls []string
	args  [][]string
	token string

	signupErr error
	loginErr  error
	verifyErr error
	sendErr   error
	meErr     error

	user *client.User
}

func (f *fakeAPI) rec(name string, args ...string) {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
}

func (f *fakeAPI) Signup(_ context.Context, name, email, password string) (string, error) {
	f.rec("signup", name, email, password)
	return "check your inbox", f.signupErr
}
func (f *fakeAPI) Login(_ context.Context, email, password string) (*client.User, error) {
	f.rec("login", email, password)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.token = "tok"
	return f.user, nil
}
func (f *fakeAPI) SendCode(_ context.Context, email string) (time.Duration, error) {
	f.rec("sendcode", email)
	return 10 * time.Minute, f.sendErr
}
func (f *fakeAPI) VerifyCode(_ context.Context, email, code string) (*client.User, error) {
	f.rec("verify", email, code)
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	f.token = "tok"
	return f.user, nil
}
func (f *fakeAPI) ForgotPassword(_ context.Context, email string) (string, error) {
	f.rec("forgot", email)
	return "link sent", nil
}
func (f *fakeAPI) ResetPassword(_ context.Context, token, pw string) (string, error) {
	f.rec("reset", token, pw)
	return "password reset", nil
}
func (f *fakeAPI) Me(context.Context) (*client.User, error) {
	f.rec("me")
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.user, nil
}
func (f *fakeAPI) SetToken(token string) { f.token = token }

func newTestApp(api API) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{api: api, out: &out}, &out
}

func testUser() *client.User {
	return &client.User{ID: "u1", Name: "Ada", Email: "ada@example.com", IsActive: true,
		CreatedAt: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)}
}

func TestSignup_RemembersEmailForVerify(t *testing.T) {
	api := &fakeAPI{user: testUser()}
	a, out := newTestApp(api)

	stubInputs(t, []string{"Ada", "ada@example.com"}, "secret1")
	require.NoError(t, a.Signup(context.Background()))
	assert.Equal(t, []string{"Ada", "ada@example.com", "secret1"}, api.args[0])
	assert.Contains(t, out.String(), "check your inbox")

	prompts := stubInputs(t, []string{"", "123456"})
	require.NoError(t, a.Verify(context.Background()))

	assert.Equal(t, "Enter email [ada@example.com]", (*prompts)[0])
	assert.Equal(t, []string{"ada@example.com", "123456"}, api.args[1])
	assert.True(t, a.isLoggedIn())
	assert.Empty(t, a.pendingEmail)
}

func TestSignup_Error(t *testing.T) {
	api := &fakeAPI{signupErr: &client.APIError{Status: http.StatusBadRequest, Message: "Valid email is required"}}
	a, _ := newTestApp(api)

	stubInputs(t, []string{"Ada", "nope"}, "secret1")
	err := a.Signup(context.Background())

	assert.EqualError(t, err, "Valid email is required")
	assert.Empty(t, a.pendingEmail)
}

func TestSignup_InputError(t *testing.T) {
	api := &fakeAPI{}
	a, _ := newTestApp(api)

	stubInputs(t, []string{"Ada"})
	assert.ErrorIs(t, a.Signup(context.Background()), io.EOF)
	assert.Empty(t, api.calls)
}

func TestLogin_Success(t *testing.T) {
	api := &fakeAPI{user: testUser()}
	a, out := newTestApp(api)

	stubInputs(t, []string{"ada@example.com"}, "secret1")
	require.NoError(t, a.Login(context.Background()))

	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "(ada@example.com )", a.getStatus())
	assert.Contains(t, out.String(), "Hello, Ada")
}

func TestLogin_UnverifiedPromptsForCode(t *testing.T) {
	api := &fakeAPI{
		user: testUser(),
		loginErr: &client.APIError{
			Status:               http.StatusForbidden,
			Message:              "Please verify your email address",
			RequiresVerification: true,
			Email:                "ada@example.com",
		},
	}
	a, out := newTestApp(api)

	stubInputs(t, []string{"ADA@example.com", "", "654321"}, "secret1")
	require.NoError(t, a.Login(context.Background()))

	assert.Equal(t, []string{"login", "verify"}, api.calls)
	assert.Equal(t, []string{"ada@example.com", "654321"}, api.args[1])
	assert.Contains(t, out.String(), "Please verify your email address")
	assert.True(t, a.isLoggedIn())
}

func TestLogin_BadCredentials(t *testing.T) {
	api := &fakeAPI{loginErr: &client.APIError{Status: http.StatusUnauthorized, Message: "Invalid email or password"}}
	a, _ := newTestApp(api)

	stubInputs(t, []string{"ada@example.com"}, "wrong")
	err := a.Login(context.Background())

	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.False(t, a.isLoggedIn())
}

func TestSendCode(t *testing.T) {
	api := &fakeAPI{}
	a, out := newTestApp(api)

	stubInputs(t, []string{"ada@example.com"})
	require.NoError(t, a.SendCode(context.Background()))

	assert.Contains(t, out.String(), "expires in 10m0s")
	assert.Equal(t, "ada@example.com", a.pendingEmail)
}

func TestForgotAndReset(t *testing.T) {
	api := &fakeAPI{}
	a, out := newTestApp(api)

	stubInputs(t, []string{"ada@example.com", "reset-token"}, "newsecret")
	require.NoError(t, a.Forgot(context.Background()))
	require.NoError(t, a.Reset(context.Background()))

	assert.Equal(t, []string{"ada@example.com"}, api.args[0])
	assert.Equal(t, []string{"reset-token", "newsecret"}, api.args[1])
	assert.Contains(t, out.String(), "link sent")
	assert.Contains(t, out.String(), "password reset")
}

func TestMe(t *testing.T) {
	api := &fakeAPI{user: testUser()}
	a, out := newTestApp(api)
	a.user = api.user

	require.NoError(t, a.Me(context.Background()))
	assert.Contains(t, out.String(), "Ada <ada@example.com>")
	assert.Contains(t, out.String(), "member since: 2025-03-04")
}

func TestMe_ExpiredSessionLogsOut(t *testing.T) {
	api := &fakeAPI{token: "old", meErr: &client.APIError{Status: http.StatusUnauthorized, Message: "Token has expired"}}
	a, _ := newTestApp(api)
	a.user = testUser()

	err := a.Me(context.Background())

	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.False(t, a.isLoggedIn())
	assert.Empty(t, api.token)
}

func TestMe_OtherErrorKeepsSession(t *testing.T) {
	api := &fakeAPI{token: "tok", meErr: errors.New("server unavailable")}
	a, _ := newTestApp(api)
	a.user = testUser()

	assert.Error(t, a.Me(context.Background()))
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "tok", api.token)
}

func TestLogout(t *testing.T) {
	api := &fakeAPI{token: "tok"}
	a, _ := newTestApp(api)
	a.user = testUser()

	require.NoError(t, a.Logout(context.Background()))
	assert.False(t, a.isLoggedIn())
	assert.Empty(t, api.token)
}
