package mailx

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/launchpad/pkg/slogx"
)

// LogSender records messages in the log instead of delivering them. It is
// the default for local development. Bodies are left out because they carry
// reset links.
type LogSender struct{}

// Send implements Sender.
func (LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	slogx.FromContext(ctx).InfoContext(ctx, "email suppressed",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("tag", msg.Tag),
		slog.Int("html_bytes", len(msg.HTMLBody)),
	)
	return nil
}
