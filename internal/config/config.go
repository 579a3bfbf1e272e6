package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env string

	// Reset link + sender identity
	FrontendURL string
	SenderEmail string

	// Mail delivery
	EmailSender string // ses | resend | smtp | fake

	Region       string
	SESEndpoint  string
	AWSAccessKey string
	AWSSecretKey string

	ResendAPIKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPInsecure bool
	SendTimeout  time.Duration

	// HTTP
	HTTPAddr string

	// RabbitMQ (consumer disabled when RabbitURL is empty)
	RabbitURL    string
	Exchange     string
	Queue        string
	Prefetch     int
	ConsumeTag   string
	ShutdownWait time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Env = getEnvFirst([]string{"APP_ENV", "ENV"}, "dev")

	cfg.FrontendURL = getEnv("FRONTEND_URL", "")
	if cfg.FrontendURL == "" {
		return nil, fmt.Errorf("missing required env var: FRONTEND_URL")
	}
	cfg.SenderEmail = getEnv("SENDER_EMAIL", "")
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("missing required env var: SENDER_EMAIL")
	}

	cfg.EmailSender = strings.ToLower(getEnv("EMAIL_SENDER", "ses"))

	cfg.Region = getEnvFirst([]string{"REGION", "AWS_REGION"}, "us-east-1")
	cfg.SESEndpoint = getEnv("SES_ENDPOINT", "")
	cfg.AWSAccessKey = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AWSSecretKey = getEnv("AWS_SECRET_ACCESS_KEY", "")

	cfg.ResendAPIKey = getEnv("RESEND_API_KEY", "")

	cfg.SMTPHost = getEnv("SMTP_HOST", "")
	cfg.SMTPPort = getInt("SMTP_PORT", 587)
	cfg.SMTPUsername = getEnv("SMTP_USERNAME", "")
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SMTPInsecure = getBool("SMTP_INSECURE", false)
	cfg.SendTimeout = getDuration("SEND_TIMEOUT", 10*time.Second)

	switch cfg.EmailSender {
	case "ses", "fake":
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("resend sender selected but missing RESEND_API_KEY")
		}
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("smtp sender selected but missing SMTP_HOST")
		}
	default:
		return nil, fmt.Errorf("unsupported EMAIL_SENDER: %q", cfg.EmailSender)
	}

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8090")

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.Exchange = getEnv("RABBIT_EXCHANGE", "auth.events")
	cfg.Queue = getEnv("RABBIT_QUEUE", "reset-mailer.q")
	cfg.Prefetch = getInt("RABBIT_PREFETCH", 10)
	cfg.ConsumeTag = getEnv("RABBIT_CONSUMER_TAG", "reset-mailer")
	cfg.ShutdownWait = getDuration("SHUTDOWN_WAIT", 10*time.Second)

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFirst(keys []string, def string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n := def
	_, _ = fmt.Sscanf(v, "%d", &n)
	if n <= 0 {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
