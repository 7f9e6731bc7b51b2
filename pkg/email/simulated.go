package email

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// SimulatedService prints an SMTP transcript instead of delivering mail.
type SimulatedService struct {
	out    io.Writer
	config ConfigSource
	mu     sync.Mutex
}

func NewSimulatedService(out io.Writer, config ConfigSource) *SimulatedService {
	return &SimulatedService{out: out, config: config}
}

func (s *SimulatedService) SendEmail(ctx context.Context, msg *Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	cfg, err := s.config.SMTPConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load SMTP settings: %w", err)
	}

	messageID := newMessageID(cfg.Username)

	var b strings.Builder
	b.WriteString("=============== EMAIL DETAILS (SIMULATION) ===============\n")
	fmt.Fprintf(&b, "SMTP Server: %s:%d\n", cfg.Host, cfg.Port)
	fmt.Fprintf(&b, "Encryption: %s\n", cfg.Encryption)
	fmt.Fprintf(&b, "From: %s\n", cfg.Username)
	fmt.Fprintf(&b, "To: %s\n", msg.To)
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&b, "CC: %s\n", strings.Join(msg.Cc, ", "))
	}
	if len(msg.Bcc) > 0 {
		fmt.Fprintf(&b, "BCC: %s\n", strings.Join(msg.Bcc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	b.WriteString("Body:\n")
	b.WriteString(msg.PlainText())
	b.WriteString("\n--------------- SMTP TRANSCRIPT ---------------\n")
	fmt.Fprintf(&b, "S: 220 %s ESMTP ready\n", cfg.Host)
	b.WriteString("C: EHLO localhost\n")
	fmt.Fprintf(&b, "S: 250 %s\n", cfg.Host)
	fmt.Fprintf(&b, "C: MAIL FROM:<%s>\n", cfg.Username)
	b.WriteString("S: 250 OK\n")
	for _, rcpt := range recipients(msg) {
		fmt.Fprintf(&b, "C: RCPT TO:<%s>\n", rcpt)
		b.WriteString("S: 250 OK\n")
	}
	b.WriteString("C: DATA\n")
	b.WriteString("S: 354 End data with <CR><LF>.<CR><LF>\n")
	b.WriteString("C: .\n")
	fmt.Fprintf(&b, "S: 250 OK queued as %s\n", messageID)
	b.WriteString("C: QUIT\n")
	b.WriteString("S: 221 Bye\n")
	b.WriteString("=============================================\n")

	s.mu.Lock()
	_, err = io.WriteString(s.out, b.String())
	s.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}

	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("Email sent (simulated)")
	return messageID, nil
}

func recipients(msg *Message) []string {
	all := []string{msg.To}
	all = append(all, msg.Cc...)
	return append(all, msg.Bcc...)
}
