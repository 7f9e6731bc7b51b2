package service

import (
	"context"
	"errors"
	"fmt"
	"subscriber-journey/internal/domain"
	"subscriber-journey/pkg/email"
	"subscriber-journey/pkg/render"

	"github.com/rs/zerolog/log"
)

// CodeGenerator issues the six digit codes sent by email.
type CodeGenerator interface {
	Generate() (string, error)
}

// OTPSender delivers a code through a provider that owns the OTP email layout.
type OTPSender interface {
	SendOTP(ctx context.Context, to, otp, purpose string) (string, error)
}

const (
	PurposeCoupon      = "coupon"
	PurposeUnsubscribe = "unsubscribe"
)

// Mailer renders Liquid bodies and hands them to the configured email service.
type Mailer struct {
	sender   email.Service
	renderer *render.Renderer
	otp      OTPSender
}

func NewMailer(sender email.Service, renderer *render.Renderer) *Mailer {
	return &Mailer{sender: sender, renderer: renderer}
}

// WithOTPSender routes code emails through otp first.
func (m *Mailer) WithOTPSender(otp OTPSender) *Mailer {
	m.otp = otp
	return m
}

func (m *Mailer) Send(ctx context.Context, to, subject, tpl string, bindings render.Bindings) error {
	html, err := m.renderer.Render(tpl, bindings)
	if err != nil {
		return err
	}
	return m.SendMessage(ctx, &email.Message{To: to, Subject: subject, HTML: html})
}

func (m *Mailer) SendMessage(ctx context.Context, msg *email.Message) error {
	messageID, err := m.sender.SendEmail(ctx, msg)
	if err != nil {
		log.Error().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("Email delivery failed")
		return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}

	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Str("message_id", messageID).Msg("Email sent")
	return nil
}

// SendCode delivers a verification code. The OTP sender is tried first when one is
// configured; a transport failure there falls back to the rendered template.
func (m *Mailer) SendCode(ctx context.Context, to, code, purpose, subject, tpl string, bindings render.Bindings) error {
	if m.otp != nil {
		messageID, err := m.otp.SendOTP(ctx, to, code, purpose)
		if err == nil {
			log.Info().Str("to", to).Str("purpose", purpose).Str("message_id", messageID).Msg("OTP email sent")
			return nil
		}
		if errors.Is(err, email.ErrRejected) {
			return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
		}
		log.Warn().Err(err).Str("purpose", purpose).Msg("OTP sender unavailable, using template email")
	}

	return m.Send(ctx, to, subject, tpl, bindings)
}
