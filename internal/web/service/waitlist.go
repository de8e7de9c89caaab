package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/launchpad/internal/web/domain"
	"github.com/aussiebroadwan/launchpad/internal/web/metrics"
	"github.com/aussiebroadwan/launchpad/internal/web/store"
	"github.com/aussiebroadwan/launchpad/pkg/idx"
	"github.com/aussiebroadwan/launchpad/pkg/mailx"
	"github.com/aussiebroadwan/launchpad/pkg/slogx"
	"github.com/aussiebroadwan/launchpad/pkg/webhook"
)

const maxWaitlistField = 200

// EventPublisher queues outbound automation events. *webhook.Dispatcher
// implements it.
type EventPublisher interface {
	Publish(e webhook.Event) error
}

// WaitlistService manages pre-launch signups.
type WaitlistService struct {
	Store store.Store

	// Events is optional. When set, every new entry is relayed as a
	// waitlist.signup event.
	Events EventPublisher

	Metrics metrics.Recorder
}

type JoinInput struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	ReferralSource string `json:"referralSource"`
}

// waitlistEvent is the data payload of waitlist.signup.
type waitlistEvent struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name,omitempty"`
	ReferralSource string    `json:"referralSource,omitempty"`
	Position       int64     `json:"position"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Join adds an email to the waitlist and returns the stored entry with its
// position.
func (s *WaitlistService) Join(ctx context.Context, in JoinInput) (domain.WaitlistEntry, error) {
	e, err := s.join(ctx, in)
	s.metrics().RecordWaitlistJoin(outcome(err))
	if err != nil {
		return domain.WaitlistEntry{}, err
	}

	s.publish(ctx, e)
	return e, nil
}

func (s *WaitlistService) join(ctx context.Context, in JoinInput) (domain.WaitlistEntry, error) {
	log := slogx.FromContext(ctx)

	email := strings.TrimSpace(in.Email)
	name := strings.TrimSpace(in.Name)
	ref := strings.TrimSpace(in.ReferralSource)
	if !mailx.ValidAddress(email) || len(name) > maxWaitlistField || len(ref) > maxWaitlistField {
		return domain.WaitlistEntry{}, ErrValidation
	}

	now := time.Now().UTC()
	entry, err := s.Store.Waitlist().Insert(ctx, domain.WaitlistEntry{
		ID:             idx.NewAt(now).String(),
		Email:          email,
		Name:           name,
		ReferralSource: ref,
		CreatedAt:      now,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.WaitlistEntry{}, ErrAlreadyOnWaitlist
		}
		log.Error("failed to insert waitlist entry", slog.Any("error", err))
		return domain.WaitlistEntry{}, err
	}

	log.Info("joined waitlist",
		slog.String("entry_id", entry.ID),
		slog.Int64("position", entry.Position),
	)
	return entry, nil
}

func (s *WaitlistService) publish(ctx context.Context, e domain.WaitlistEntry) {
	if s.Events == nil {
		return
	}
	log := slogx.FromContext(ctx)

	ev, err := webhook.NewEvent(webhook.EventWaitlistSignup, waitlistEvent{
		ID:             e.ID,
		Email:          e.Email,
		Name:           e.Name,
		ReferralSource: e.ReferralSource,
		Position:       e.Position,
		CreatedAt:      e.CreatedAt,
	}, time.Now())
	if err != nil {
		log.Error("failed to build waitlist event", slog.Any("error", err))
		return
	}

	// Relay trouble never fails the join.
	if err := s.Events.Publish(ev); err != nil {
		log.Warn("waitlist event not queued", slog.Any("error", err))
	}
}

// Lookup finds the entry for email.
func (s *WaitlistService) Lookup(ctx context.Context, email string) (domain.WaitlistEntry, error) {
	email = strings.TrimSpace(email)
	if !mailx.ValidAddress(email) {
		return domain.WaitlistEntry{}, ErrValidation
	}

	e, err := s.Store.Waitlist().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.WaitlistEntry{}, ErrWaitlistEntryNotFound
		}
		slogx.FromContext(ctx).Error("failed to look up waitlist entry", slog.Any("error", err))
		return domain.WaitlistEntry{}, err
	}
	return e, nil
}

// Total is the number of entries on the waitlist.
func (s *WaitlistService) Total(ctx context.Context) (int64, error) {
	n, err := s.Store.Waitlist().Count(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to count waitlist", slog.Any("error", err))
		return 0, err
	}
	return n, nil
}

// HandleInbound applies an event received from Zapier. waitlist.signup
// joins the waitlist without being relayed back out, and a duplicate email
// is acknowledged rather than rejected so Zapier does not retry it. Other
// events are logged and acknowledged.
func (s *WaitlistService) HandleInbound(ctx context.Context, ev webhook.Event) error {
	log := slogx.FromContext(ctx).With(slog.String("event", ev.Event))

	switch ev.Event {
	case webhook.EventWaitlistSignup:
		var in JoinInput
		if len(ev.Data) == 0 || json.Unmarshal(ev.Data, &in) != nil {
			return ErrValidation
		}

		e, err := s.join(ctx, in)
		s.metrics().RecordWaitlistJoin(outcome(err))
		switch {
		case errors.Is(err, ErrAlreadyOnWaitlist):
			log.Info("inbound signup already on waitlist")
			return nil
		case err != nil:
			return err
		}
		log.Info("inbound signup joined waitlist", slog.Int64("position", e.Position))
		return nil

	case webhook.EventNewsletterSubscribe, webhook.EventOpportunityCreated, webhook.EventPaymentSuccess:
		log.Info("inbound event acknowledged")
		return nil

	default:
		log.Warn("unhandled inbound event")
		return nil
	}
}

func (s *WaitlistService) metrics() metrics.Recorder {
	if s.Metrics == nil {
		return metrics.Nop{}
	}
	return s.Metrics
}
