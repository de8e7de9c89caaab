package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DeliveryResult describes one HTTP attempt.
type DeliveryResult struct {
	URL        string
	Event      string
	Attempt    int
	StatusCode int
	Duration   time.Duration
	Err        error
}

// RelayConfig configures outbound delivery.
type RelayConfig struct {
	URLs []string

	// Secret signs deliveries when set. Catch hooks that do not verify
	// signatures work without it.
	Secret string

	// MaxRetries counts retries after the first attempt. Zero means 3 and
	// a negative value disables retries.
	MaxRetries int

	Timeout    time.Duration // per attempt, default 10s
	Backoff    Backoff       // default DefaultBackoff()
	HTTPClient *http.Client

	// OnDelivery observes every attempt, e.g. for metrics.
	OnDelivery func(DeliveryResult)

	// Now is overridable for tests.
	Now func() time.Time
}

// Relay posts events to every configured URL with retries.
type Relay struct {
	cfg RelayConfig
}

// NewRelay validates cfg and fills in defaults.
func NewRelay(cfg RelayConfig) (*Relay, error) {
	for _, u := range cfg.URLs {
		if err := validateURL(u); err != nil {
			return nil, err
		}
	}

	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Backoff == nil {
		cfg.Backoff = DefaultBackoff()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Relay{cfg: cfg}, nil
}

// Targets reports how many URLs the relay posts to.
func (r *Relay) Targets() int { return len(r.cfg.URLs) }

// Deliver sends e to every target. Failures are joined, one per target.
func (r *Relay) Deliver(ctx context.Context, e Event) error {
	if len(r.cfg.URLs) == 0 {
		return nil
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	var errs []error
	for _, target := range r.cfg.URLs {
		if err := r.send(ctx, target, e.Event, payload); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", redact(target), err))
		}
	}
	return errors.Join(errs...)
}

func (r *Relay) send(ctx context.Context, target, eventType string, payload []byte) error {
	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(r.cfg.Backoff.NextInterval(attempt))
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}

		res := r.attempt(ctx, target, eventType, payload)
		res.Attempt = attempt + 1
		if r.cfg.OnDelivery != nil {
			r.cfg.OnDelivery(res)
		}
		if res.Err == nil {
			return nil
		}

		lastErr = res.Err
		if isPermanent(res.StatusCode) {
			return fmt.Errorf("%w: %w", ErrPermanentFailure, res.Err)
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrDeliveryFailed, r.cfg.MaxRetries+1, lastErr)
}

func (r *Relay) attempt(ctx context.Context, target, eventType string, payload []byte) DeliveryResult {
	start := time.Now()
	res := DeliveryResult{URL: redact(target), Event: eventType}

	reqCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		res.Err = err
		return res
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "launchpad-webhook/1.0")
	req.Header.Set(HeaderEvent, eventType)

	if r.cfg.Secret != "" {
		sig, err := SignPayload(r.cfg.Secret, payload, r.cfg.Now())
		if err != nil {
			res.Err = err
			return res
		}
		sig.Apply(req.Header)
	}

	resp, err := r.cfg.HTTPClient.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}
	defer func() { _ = resp.Body.Close() }()

	res.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return res
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.ReplaceAll(strings.TrimSpace(string(body)), "\n", " ")
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	if msg != "" {
		res.Err = fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	} else {
		res.Err = fmt.Errorf("status %d", resp.StatusCode)
	}
	return res
}

// isPermanent reports 4xx statuses a retry will not fix.
func isPermanent(status int) bool {
	if status < 400 || status >= 500 {
		return false
	}
	switch status {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return true
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return nil
}

// redact drops the path and query, where hook URLs keep their secret.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	return u.Scheme + "://" + u.Host
}
