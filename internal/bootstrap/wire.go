package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/reset-mailer/internal/application/reset"
	"github.com/baechuer/real-time-ressys/services/reset-mailer/internal/config"
	infraemail "github.com/baechuer/real-time-ressys/services/reset-mailer/internal/infrastructure/email"
	rmq "github.com/baechuer/real-time-ressys/services/reset-mailer/internal/infrastructure/messaging/rabbitmq"
	web "github.com/baechuer/real-time-ressys/services/reset-mailer/internal/infrastructure/web"
)

// NewSender picks the mail-delivery implementation named by cfg.EmailSender.
func NewSender(ctx context.Context, cfg *config.Config, lg zerolog.Logger) (reset.Sender, error) {
	switch cfg.EmailSender {
	case "ses":
		s, err := infraemail.NewSESSender(ctx, infraemail.SESConfig{
			Region:          cfg.Region,
			Endpoint:        cfg.SESEndpoint,
			AccessKeyID:     cfg.AWSAccessKey,
			SecretAccessKey: cfg.AWSSecretKey,
		}, lg)
		if err != nil {
			return nil, fmt.Errorf("ses sender: %w", err)
		}
		return s, nil
	case "resend":
		return infraemail.NewResendSender(cfg.ResendAPIKey, lg), nil
	case "smtp":
		return infraemail.NewSMTPSender(infraemail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			Timeout:  cfg.SendTimeout,
			Insecure: cfg.SMTPInsecure,
		}, lg), nil
	case "fake":
		return infraemail.NewFakeSender(lg), nil
	default:
		return nil, fmt.Errorf("unsupported email sender: %s", cfg.EmailSender)
	}
}

// NewHandler loads config and builds the reset handler with its sender.
// The sender is built once and shared by every invocation in the process.
func NewHandler(ctx context.Context) (*reset.Handler, *config.Config, reset.Sender, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	sender, err := NewSender(ctx, cfg, log.Logger)
	if err != nil {
		return nil, nil, nil, err
	}

	h := reset.NewHandler(sender, reset.Config{
		FrontendURL: cfg.FrontendURL,
		SenderEmail: cfg.SenderEmail,
	}, log.Logger)

	log.Info().
		Str("sender", sender.Name()).
		Str("region", cfg.Region).
		Str("frontend_url", cfg.FrontendURL).
		Msg("reset handler ready")

	return h, cfg, sender, nil
}

type App struct {
	consumer *rmq.Consumer // nil when RABBIT_URL is unset
	web      *web.Server
	cfg      *config.Config
}

func NewApp() (*App, func(), error) {
	h, cfg, sender, err := NewHandler(context.Background())
	if err != nil {
		return nil, nil, err
	}

	app := &App{
		web: web.NewServer(web.Config{
			Addr:       cfg.HTTPAddr,
			SenderName: sender.Name(),
		}, h, log.Logger),
		cfg: cfg,
	}

	if cfg.RabbitURL != "" {
		app.consumer = rmq.NewConsumer(rmq.Config{
			RabbitURL: cfg.RabbitURL,
			Exchange:  cfg.Exchange,
			Queue:     cfg.Queue,
			Prefetch:  cfg.Prefetch,
			Tag:       cfg.ConsumeTag,
		}, h, log.Logger)
	} else {
		log.Info().Msg("rabbitmq disabled (RABBIT_URL unset)")
	}

	cleanup := func() {
		log.Info().Msg("Performing final resource cleanup...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
		defer cancel()

		_ = app.Stop(ctx)
	}

	return app, cleanup, nil
}

func (a *App) Start(ctx context.Context) error {
	if a.consumer != nil {
		log.Info().Msg("Starting reset-mailer consumer...")
		if err := a.consumer.Start(ctx); err != nil {
			return err
		}
	}
	log.Info().Msg("Starting reset-mailer web...")
	return a.web.Start(ctx) // block
}

// ShutdownWait is SHUTDOWN_WAIT, the bound on graceful stop.
func (a *App) ShutdownWait() time.Duration { return a.cfg.ShutdownWait }

func (a *App) Stop(ctx context.Context) error {
	log.Info().Msg("Shutting down reset-mailer gracefully...")

	if a.web != nil {
		_ = a.web.Stop(ctx)
	}
	if a.consumer != nil {
		_ = a.consumer.Stop(ctx)
	}
	return nil
}
