package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

var verificationHTML = template.Must(template.New("verification").Parse(
	`<h2>Verify your email</h2>
<p>Hi {{.Name}},</p>
<p>Your Tripkeeper verification code is:</p>
<p style="font-size:24px;letter-spacing:4px"><strong>{{.Code}}</strong></p>
<p>The code expires in {{.Minutes}} minutes. If you did not sign up, ignore this email.</p>`))

var resetHTML = template.Must(template.New("reset").Parse(
	`<h2>Password reset request</h2>
<p>You requested a password reset for your Tripkeeper account.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>The link expires in {{.Hours}} hours. If you did not request this, ignore this email.</p>`))

// VerificationCode builds the message carrying a one-time code.
func VerificationCode(to, name, code string, ttl time.Duration) Message {
	if name == "" {
		name = "there"
	}
	minutes := int(ttl.Minutes())

	var html bytes.Buffer
	_ = verificationHTML.Execute(&html, map[string]any{"Name": name, "Code": code, "Minutes": minutes})

	return Message{
		To:      to,
		Subject: "Your Tripkeeper verification code",
		Text:    fmt.Sprintf("Hi %s,\n\nYour verification code is %s.\nIt expires in %d minutes.\n\nIf you did not sign up, ignore this email.",
			name, code, minutes),
		HTML: html.String(),
	}
}

// ResetLink returns "<frontend>/reset-password?token=<token>".
func ResetLink(frontendURL, token string) string {
	return strings.TrimRight(frontendURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

// PasswordReset builds the message carrying a reset link.
func PasswordReset(to, link string, ttl time.Duration) Message {
	hours := int(ttl.Hours())

	var html bytes.Buffer
	_ = resetHTML.Execute(&html, map[string]any{"Link": link, "Hours": hours})

	return Message{
		To:      to,
		Subject: "Password Reset Request",
		Text:    fmt.Sprintf("You requested a password reset for your account.\n\nOpen the link below to set a new password:\n%s\n\nThis link expires in %d hours. If you did not request this, ignore this email.",
			link, hours),
		HTML: html.String(),
	}
}
