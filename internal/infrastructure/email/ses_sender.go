package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/reset-mailer/internal/application/reset"
)

const charsetUTF8 = "UTF-8"

// sesAPI is the slice of *sesv2.Client the sender uses.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESConfig struct {
	Region string
	// Endpoint overrides the SES endpoint (LocalStack, tests). Empty uses AWS.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// SESSender delivers through Amazon SES v2. The client is built once and shared.
type SESSender struct {
	api sesAPI
	lg  zerolog.Logger
}

func NewSESSender(ctx context.Context, cfg SESConfig, lg zerolog.Logger) (*SESSender, error) {
	var opts []func(*config.LoadOptions) error

	opts = append(opts, config.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(sdkConfig, func(o *sesv2.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		// one attempt per invocation; the upstream owns retries
		o.RetryMaxAttempts = 1
	})

	return NewSESSenderFromClient(client, lg), nil
}

func NewSESSenderFromClient(api sesAPI, lg zerolog.Logger) *SESSender {
	return &SESSender{
		api: api,
		lg:  lg.With().Str("component", "ses_sender").Logger(),
	}
}

func (s *SESSender) Name() string { return "ses" }

func (s *SESSender) Send(ctx context.Context, msg reset.Message) (reset.SendResult, error) {
	out, err := s.api.SendEmail(ctx, sendEmailInput(msg))
	if err != nil {
		s.lg.Debug().Err(err).Str("to", msg.To).Msg("ses send failed")
		return reset.SendResult{}, apiError(err)
	}

	id := aws.ToString(out.MessageId)
	s.lg.Debug().Str("to", msg.To).Str("message_id", id).Msg("ses send ok")
	return reset.SendResult{MessageID: id}, nil
}

func sendEmailInput(msg reset.Message) *sesv2.SendEmailInput {
	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charsetUTF8)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String(charsetUTF8)},
					Text: &types.Content{Data: aws.String(msg.TextBody), Charset: aws.String(charsetUTF8)},
				},
			},
		},
	}
}

// sesError reports the service's own message and keeps the SDK error in the chain.
type sesError struct {
	msg string
	err error
}

func (e *sesError) Error() string { return e.msg }
func (e *sesError) Unwrap() error { return e.err }

func apiError(err error) error {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return err
	}
	msg := ae.ErrorMessage()
	if msg == "" {
		msg = ae.ErrorCode()
	}
	if msg == "" {
		return err
	}
	return &sesError{msg: msg, err: err}
}
