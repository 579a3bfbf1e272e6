package email

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/reset-mailer/internal/application/reset"
)

// FakeSender is a development/testing sender.
// It can simulate provider failures via env var.
//
// FAKE_FAIL_MODE:
// - "none" (default): always succeed
// - "fail": return an error shaped like an SES rejection
type FakeSender struct {
	lg zerolog.Logger
}

var ErrFakeRejected = errors.New("MessageRejected: Email address is not verified (fake)")

func NewFakeSender(lg zerolog.Logger) *FakeSender {
	return &FakeSender{
		lg: lg.With().Str("component", "fake_sender").Logger(),
	}
}

func (s *FakeSender) Name() string { return "fake" }

func (s *FakeSender) Send(ctx context.Context, msg reset.Message) (reset.SendResult, error) {
	s.lg.Info().
		Str("from", msg.From).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("FAKE send password reset")

	mode := strings.TrimSpace(strings.ToLower(os.Getenv("FAKE_FAIL_MODE")))
	if mode == "fail" {
		return reset.SendResult{}, ErrFakeRejected
	}
	return reset.SendResult{MessageID: "fake-" + uuid.NewString()}, nil
}
