package reset

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/reset-mailer/internal/metrics"
	appctx "github.com/baechuer/real-time-ressys/services/reset-mailer/internal/pkg/context"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names ("resetToken") instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type Config struct {
	FrontendURL string
	SenderEmail string
}

// Handler validates a reset request, renders the email and hands it to the Sender.
// It holds no per-request state and is safe to share between transports.
type Handler struct {
	sender      Sender
	frontendURL string
	from        string
	lg          zerolog.Logger
}

func NewHandler(sender Sender, cfg Config, lg zerolog.Logger) *Handler {
	return &Handler{
		sender:      sender,
		frontendURL: cfg.FrontendURL,
		from:        cfg.SenderEmail,
		lg:          lg.With().Str("component", "reset_handler").Logger(),
	}
}

// Handle never returns an error: every outcome is mapped onto a Response.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	ctx, reqID := appctx.EnsureRequestID(ctx)
	transport := appctx.GetTransport(ctx)
	lg := h.lg.With().Str("request_id", reqID).Str("transport", transport).Logger()

	lg.Info().
		Str("email", req.Email).
		Int("token_len", len(req.ResetToken)).
		Msg("password reset request received")

	res, err := h.process(ctx, lg, req)
	resp := toResponse(res, err)

	switch resp.StatusCode {
	case 200:
		metrics.RecordRequest(transport, metrics.OutcomeSent)
	case 400:
		metrics.RecordRequest(transport, metrics.OutcomeInvalid)
	default:
		metrics.RecordRequest(transport, metrics.OutcomeDeliveryFailed)
	}
	return resp
}

func (h *Handler) process(ctx context.Context, lg zerolog.Logger, req Request) (SendResult, error) {
	if err := validateRequest(req); err != nil {
		lg.Warn().Err(err).Msg("missing required fields")
		return SendResult{}, err
	}

	msg, err := BuildMessage(h.from, req.Email, h.frontendURL, req.ResetToken)
	if err != nil {
		lg.Error().Err(err).Msg("render reset email failed")
		return SendResult{}, err
	}

	provider := h.sender.Name()
	start := time.Now()
	res, err := h.sender.Send(ctx, msg)
	took := time.Since(start)
	metrics.RecordSend(provider, err == nil, took)

	if err != nil {
		derr := &DeliveryError{Provider: provider, Err: err}
		lg.Error().Err(derr).Str("to", req.Email).Dur("took", took).Msg("error sending password reset email")
		return SendResult{}, derr
	}

	lg.Info().
		Str("to", req.Email).
		Str("provider", provider).
		Str("message_id", res.MessageID).
		Dur("took", took).
		Msg("password reset email sent")
	return res, nil
}

func validateRequest(req Request) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: []string{err.Error()}}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{Fields: fields}
}

func toResponse(res SendResult, err error) Response {
	if err == nil {
		return Response{
			StatusCode: 200,
			Body:       ResponseBody{Message: MsgSent, MessageID: res.MessageID},
		}
	}

	if StatusCode(err) == 400 {
		return MissingFieldsResponse()
	}

	details := err.Error()
	var derr *DeliveryError
	if errors.As(err, &derr) && derr.Err != nil {
		details = derr.Err.Error()
	}
	return Response{
		StatusCode: 500,
		Body:       ResponseBody{Error: MsgSendFailed, Details: details},
	}
}
