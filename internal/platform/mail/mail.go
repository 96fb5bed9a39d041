// Package mail sends plain-text email through SMTP, or logs it when no relay
// is configured.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/platform/timeouts"
)

// ErrInvalidMessage marks messages that no retry can deliver.
var ErrInvalidMessage = errors.New("invalid mail message")

// Message is one outbound plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds SMTP relay settings, read with the LMS_MAIL_ prefix.
type Config struct {
	Host     string        `env:"HOST"`
	Port     int           `env:"PORT" envDefault:"587"`
	Username string        `env:"USERNAME"`
	Password string        `env:"PASSWORD"`
	From     string        `env:"FROM" envDefault:"no-reply@lms.local"`
	TLS      string        `env:"TLS" envDefault:"opportunistic"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// NewSender returns an SMTP sender when a host is configured and a log sender
// otherwise.
func NewSender(cfg Config, logger *zap.Logger) (Sender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return NewLogSender(logger), nil
	}
	return NewSMTPSender(cfg)
}

// SMTPSender relays messages through an SMTP server.
type SMTPSender struct {
	cfg    Config
	policy gomail.TLSPolicy
}

// NewSMTPSender validates cfg and builds an SMTP sender.
func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	cfg.Host = strings.TrimSpace(cfg.Host)
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("smtp port must be positive")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("mail from address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeouts.MailSend
	}
	policy, err := parseTLSPolicy(cfg.TLS)
	if err != nil {
		return nil, err
	}
	return &SMTPSender{cfg: cfg, policy: policy}, nil
}

// Send dials the relay and delivers msg.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if s == nil {
		return fmt.Errorf("smtp sender is not configured")
	}
	m, err := buildMessage(s.cfg.From, msg)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPortPolicy(s.policy),
		gomail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func buildMessage(from string, msg Message) (*gomail.Msg, error) {
	if strings.TrimSpace(msg.To) == "" {
		return nil, fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	}
	m := gomail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("%w: from: %v", ErrInvalidMessage, err)
	}
	if err := m.To(strings.TrimSpace(msg.To)); err != nil {
		return nil, fmt.Errorf("%w: to: %v", ErrInvalidMessage, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return m, nil
}

func parseTLSPolicy(value string) (gomail.TLSPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "opportunistic":
		return gomail.TLSOpportunistic, nil
	case "mandatory":
		return gomail.TLSMandatory, nil
	case "none":
		return gomail.NoTLS, nil
	default:
		return gomail.TLSOpportunistic, fmt.Errorf("unsupported smtp tls policy %q", value)
	}
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender builds a sender that logs at info level.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logging.OrNop(logger).Named("mail")}
}

// Send logs msg.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	}
	s.logger.Info("mail not relayed",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.Body)),
	)
	return nil
}
