package email

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Encryption string
	FromName   string
}

// ConfigSource yields the SMTP settings in force at send time.
type ConfigSource interface {
	SMTPConfig(ctx context.Context) (SMTPConfig, error)
}

type StaticConfig SMTPConfig

func (c StaticConfig) SMTPConfig(context.Context) (SMTPConfig, error) {
	return SMTPConfig(c), nil
}

type SMTPService struct {
	config ConfigSource
}

func NewSMTPService(config ConfigSource) *SMTPService {
	return &SMTPService{config: config}
}

func (s *SMTPService) SendEmail(ctx context.Context, msg *Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	cfg, err := s.config.SMTPConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load SMTP settings: %w", err)
	}
	if cfg.Host == "" {
		return "", fmt.Errorf("SMTP host is not configured")
	}
	if cfg.Username == "" {
		return "", fmt.Errorf("SMTP username is not configured")
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	m, messageID := BuildMessage(cfg.Username, cfg.FromName, msg)

	log.Debug().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("Sending email via SMTP")

	if err := NewDialer(cfg).DialAndSend(m); err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	log.Info().Str("to", msg.To).Str("message_id", messageID).Msg("Email sent via SMTP")
	return messageID, nil
}

// Verify opens and closes an authenticated SMTP connection.
func (s *SMTPService) Verify(ctx context.Context) error {
	cfg, err := s.config.SMTPConfig(ctx)
	if err != nil {
		return err
	}

	conn, err := NewDialer(cfg).Dial()
	if err != nil {
		return fmt.Errorf("failed to connect to %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return conn.Close()
}

// NewDialer maps the encryption setting onto gomail's dialer. "ssl" opens an
// implicit TLS connection. Otherwise the connection starts in plain text and
// gomail upgrades it with STARTTLS whenever the server offers it, so "tls" and
// "none" only differ in that "tls" pins the certificate name to the host.
// Neither refuses a server that lacks STARTTLS.
func NewDialer(cfg SMTPConfig) *gomail.Dialer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	switch cfg.Encryption {
	case "ssl":
		d.SSL = true
	case "tls":
		d.SSL = false
		d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	default:
		d.SSL = false
	}
	return d
}

// BuildMessage converts msg into a MIME message with an HTML body and a plain
// text alternative, returning it with the Message-ID it was stamped with.
func BuildMessage(from, fromName string, msg *Message) (*gomail.Message, string) {
	if fromName == "" {
		fromName = DefaultFromName
	}
	messageID := newMessageID(from)

	m := gomail.NewMessage()
	m.SetAddressHeader("From", from, fromName)
	m.SetHeader("To", msg.To)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", msg.Bcc...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", messageID)

	if msg.HTML != "" {
		m.SetBody("text/plain", msg.PlainText())
		m.AddAlternative("text/html", msg.HTML)
	} else {
		m.SetBody("text/plain", msg.Text)
	}

	return m, messageID
}
