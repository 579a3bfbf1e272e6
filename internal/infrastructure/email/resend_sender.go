package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/reset-mailer/internal/application/reset"
)

// ResendSender delivers through the Resend API.
type ResendSender struct {
	emails resend.EmailsSvc
	lg     zerolog.Logger
}

// NewResendSender creates a sender; the from address must be verified in Resend.
func NewResendSender(apiKey string, lg zerolog.Logger) *ResendSender {
	return NewResendSenderFromService(resend.NewClient(apiKey).Emails, lg)
}

func NewResendSenderFromService(emails resend.EmailsSvc, lg zerolog.Logger) *ResendSender {
	return &ResendSender{
		emails: emails,
		lg:     lg.With().Str("component", "resend_sender").Logger(),
	}
}

func (r *ResendSender) Name() string { return "resend" }

func (r *ResendSender) Send(ctx context.Context, msg reset.Message) (reset.SendResult, error) {
	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
		Text:    msg.TextBody,
	}

	sent, err := r.emails.SendWithContext(ctx, params)
	if err != nil {
		return reset.SendResult{}, fmt.Errorf("resend: %w", err)
	}

	r.lg.Debug().Str("to", msg.To).Str("message_id", sent.Id).Msg("resend send ok")
	return reset.SendResult{MessageID: sent.Id}, nil
}
