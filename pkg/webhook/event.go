package webhook

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Event types exchanged with Zapier and Make.
const (
	EventWaitlistSignup      = "waitlist.signup"
	EventNewsletterSubscribe = "newsletter.subscribe"
	EventOpportunityCreated  = "opportunity.created"
	EventPaymentSuccess      = "payment.success"
)

// SupportedEvents lists the event types the inbound endpoint understands.
var SupportedEvents = []string{
	EventWaitlistSignup,
	EventNewsletterSubscribe,
	EventOpportunityCreated,
	EventPaymentSuccess,
}

// Event is the JSON envelope used in both directions.
type Event struct {
	Event     string          `json:"event"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent marshals data into an envelope stamped with now.
func NewEvent(eventType string, data any, now time.Time) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Event:     eventType,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Data:      raw,
	}, nil
}

// Time parses the envelope timestamp, either RFC 3339 or unix seconds.
func (e Event) Time() (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, e.Timestamp); err == nil {
		return t, nil
	}
	if secs, err := strconv.ParseInt(e.Timestamp, 10, 64); err == nil {
		return time.Unix(secs, 0), nil
	}
	return time.Time{}, fmt.Errorf("%w: unreadable timestamp %q", ErrInvalidPayload, e.Timestamp)
}

// CheckFreshness rejects events stamped more than maxAge before now or more
// than a minute after it, the same window VerifySignature applies.
func CheckFreshness(e Event, maxAge time.Duration, now time.Time) error {
	ts, err := e.Time()
	if err != nil {
		return err
	}

	age := now.Sub(ts)
	if age > maxAge {
		return fmt.Errorf("%w: %s old", ErrStaleEvent, age.Round(time.Second))
	}
	if age < -time.Minute {
		return fmt.Errorf("%w: %s in the future", ErrStaleEvent, (-age).Round(time.Second))
	}
	return nil
}
