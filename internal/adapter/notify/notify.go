// Package notify delivers verification codes over SMS and email.
package notify

import (
	"context"
	"net/http"

	"wallet-settlement/config"
	"wallet-settlement/internal/core/ports"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// New builds the gateway selected by cfg.Driver: "log" writes codes to the
// logger, "live" sends SMS through Twilio and email through SMTP.
func New(cfg config.NotificationConfig, log zerolog.Logger) ports.NotificationGateway {
	if cfg.Driver == "live" {
		httpClient := &http.Client{Timeout: cfg.Twilio.Timeout}
		return &Gateway{
			sms:   NewTwilioSender(cfg.Twilio, httpClient),
			email: NewSMTPSender(cfg.SMTP),
			log:   log,
		}
	}
	return NewLogGateway(log)
}

type smsSender interface {
	SendSMS(ctx context.Context, to string, body string) error
}

type emailSender interface {
	SendEmail(ctx context.Context, to string, subject string, body string) error
}

// Gateway routes each channel to its own sender.
type Gateway struct {
	sms   smsSender
	email emailSender
	log   zerolog.Logger
}

var _ ports.NotificationGateway = (*Gateway)(nil)

func (g *Gateway) SendSMS(ctx context.Context, to string, body string) error {
	if err := g.sms.SendSMS(ctx, to, body); err != nil {
		return err
	}
	g.log.Debug().Str("to", maskPhone(to)).Msg("sms sent")
	return nil
}

func (g *Gateway) SendEmail(ctx context.Context, to string, subject string, body string) error {
	if err := g.email.SendEmail(ctx, to, subject, body); err != nil {
		return err
	}
	g.log.Debug().Str("subject", subject).Msg("email sent")
	return nil
}

// maskPhone keeps the last four digits.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
