package notify

import (
	"context"

	"wallet-settlement/internal/core/ports"

	"github.com/rs/zerolog"
)

// LogGateway writes messages to the logger instead of sending them.
// Development only: message bodies contain live codes.
type LogGateway struct {
	log zerolog.Logger
}

var _ ports.NotificationGateway = (*LogGateway)(nil)

// NewLogGateway creates a new LogGateway.
func NewLogGateway(log zerolog.Logger) *LogGateway {
	return &LogGateway{log: log.With().Str("component", "notify").Logger()}
}

func (g *LogGateway) SendSMS(_ context.Context, to string, body string) error {
	g.log.Info().Str("channel", "sms").Str("to", to).Str("body", body).Msg("notification not sent (log driver)")
	return nil
}

func (g *LogGateway) SendEmail(_ context.Context, to string, subject string, body string) error {
	g.log.Info().Str("channel", "email").Str("to", to).Str("subject", subject).Str("body", body).
		Msg("notification not sent (log driver)")
	return nil
}
