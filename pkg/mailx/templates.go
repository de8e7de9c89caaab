package mailx

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

// TagPasswordReset tags reset emails in provider analytics.
const TagPasswordReset = "password-reset"

// PasswordResetData fills the reset email.
type PasswordResetData struct {
	Name      string
	Link      string
	ExpiresIn time.Duration
}

var resetHTML = htmltemplate.Must(htmltemplate.New("reset.html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #111;">
  <p>Hi{{ if .Name }} {{ .Name }}{{ end }},</p>
  <p>We received a request to reset the password on your Launchpad account.</p>
  <p><a href="{{ .Link }}" style="display:inline-block;padding:10px 18px;background:#111;color:#fff;text-decoration:none;border-radius:6px;">Reset password</a></p>
  <p>This link expires in {{ .Expiry }}. If you did not ask for a reset you can ignore this email.</p>
</body>
</html>
`))

var resetText = texttemplate.Must(texttemplate.New("reset.txt").Parse(`Hi{{ if .Name }} {{ .Name }}{{ end }},

We received a request to reset the password on your Launchpad account.

Reset it here: {{ .Link }}

This link expires in {{ .Expiry }}. If you did not ask for a reset you can ignore this email.
`))

// PasswordReset renders the reset email addressed to to.
func PasswordReset(to string, data PasswordResetData) (Message, error) {
	view := struct {
		Name   string
		Link   string
		Expiry string
	}{
		Name:   data.Name,
		Link:   data.Link,
		Expiry: humanDuration(data.ExpiresIn),
	}

	var html, text bytes.Buffer
	if err := resetHTML.Execute(&html, view); err != nil {
		return Message{}, fmt.Errorf("mailx: render reset html: %w", err)
	}
	if err := resetText.Execute(&text, view); err != nil {
		return Message{}, fmt.Errorf("mailx: render reset text: %w", err)
	}

	return Message{
		To:       to,
		Subject:  "Reset your Launchpad password",
		HTMLBody: html.String(),
		TextBody: text.String(),
		Tag:      TagPasswordReset,
	}, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a short while"
	case d%time.Hour == 0 && d >= time.Hour:
		if h := int(d / time.Hour); h != 1 {
			return fmt.Sprintf("%d hours", h)
		}
		return "1 hour"
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return "a few seconds"
	}
}
