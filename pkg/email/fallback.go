package email

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// FallbackService tries primary and, when it cannot be reached, hands the
// message to fallback. Explicit rejections are returned as-is.
type FallbackService struct {
	primary  Service
	fallback Service
}

func NewFallbackService(primary, fallback Service) *FallbackService {
	return &FallbackService{primary: primary, fallback: fallback}
}

func (s *FallbackService) SendEmail(ctx context.Context, msg *Message) (string, error) {
	id, err := s.primary.SendEmail(ctx, msg)
	if err == nil {
		return id, nil
	}
	if errors.Is(err, ErrRejected) || errors.Is(err, context.Canceled) {
		return "", err
	}

	log.Warn().Err(err).Str("to", msg.To).Msg("Primary email transport failed, falling back")
	return s.fallback.SendEmail(ctx, msg)
}
