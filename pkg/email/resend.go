package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"
)

type ResendService struct {
	from   string
	client *resend.Client
}

func NewResendService(apiKey, from string) (*ResendService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("from email address is required")
	}

	return &ResendService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendService) SendEmail(ctx context.Context, msg *Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Cc:      msg.Cc,
		Bcc:     msg.Bcc,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.PlainText(),
	}

	log.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("Sending email via Resend API")

	sent, err := s.client.Emails.Send(params)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	log.Info().Str("to", msg.To).Str("message_id", sent.Id).Msg("Email sent via Resend")
	return sent.Id, nil
}
