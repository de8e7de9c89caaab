package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aussiebroadwan/launchpad/internal/web/replay"
	"github.com/aussiebroadwan/launchpad/internal/web/service"
	"github.com/aussiebroadwan/launchpad/internal/web/store/drivers/sqlite"
	"github.com/aussiebroadwan/launchpad/pkg/jwtx"
	"github.com/aussiebroadwan/launchpad/pkg/mailx"
	"github.com/aussiebroadwan/launchpad/pkg/webhook"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("service-test-secret-0123456789abcdef")

type captureMailer struct {
	mu   sync.Mutex
	sent []mailx.Message
	fail bool
}

func (m *captureMailer) Send(_ context.Context, msg mailx.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.Join(mailx.ErrFailedToSendEmail, errors.New("smtp down"))
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) messages() []mailx.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailx.Message(nil), m.sent...)
}

type capturePublisher struct {
	mu     sync.Mutex
	events []webhook.Event
	err    error
}

func (p *capturePublisher) Publish(e webhook.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

type fixture struct {
	store  *sqlite.Store
	issuer *jwtx.Issuer
	mailer *captureMailer
	auth   *service.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations(t.Context()))
	t.Cleanup(func() { _ = st.Close() })

	iss, err := jwtx.NewIssuer(testSecret)
	require.NoError(t, err)

	mailer := &captureMailer{}
	return &fixture{
		store:  st,
		issuer: iss,
		mailer: mailer,
		auth: &service.AuthService{
			Store:  st,
			Tokens: iss,
			Guard:  replay.NewStoreGuard(st),
			Mailer: mailer,
			AppURL: "https://launchpad.example.com/",
		},
	}
}
