// Package mailx sends the handful of transactional emails the web app needs.
//
// Senders are provider agnostic: the app picks Postmark in production and
// LogSender everywhere else, and the rest of the code only ever sees Sender.
package mailx

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrFailedToSendEmail = errors.New("mailx: failed to send email")
	ErrInvalidConfig     = errors.New("mailx: invalid config")
	ErrInvalidMessage    = errors.New("mailx: invalid message")
)

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is one outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string

	// Tag groups messages in the provider's analytics. Optional.
	Tag string
}

// Validate checks the fields every provider needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return errors.Join(ErrInvalidMessage, errors.New("recipient is required"))
	}
	if !ValidAddress(m.To) {
		return errors.Join(ErrInvalidMessage, errors.New("recipient is not a valid address"))
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.Join(ErrInvalidMessage, errors.New("subject is required"))
	}
	if m.HTMLBody == "" && m.TextBody == "" {
		return errors.Join(ErrInvalidMessage, errors.New("body is required"))
	}
	return nil
}

// ValidAddress reports whether s is a bare email address such as
// "a@example.com". Display-name forms are rejected.
func ValidAddress(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == s && strings.Contains(s, "@")
}
