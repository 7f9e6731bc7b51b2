package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/repository"
	"subscriber-journey/pkg/email"
	"subscriber-journey/pkg/render"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type CampaignService struct {
	campaignRepo   repository.CampaignRepository
	listRepo       repository.ListRepository
	subscriberRepo repository.SubscriberRepository
	mailer         *Mailer
	renderer       *render.Renderer
	sendInterval   time.Duration
}

func NewCampaignService(
	campaignRepo repository.CampaignRepository,
	listRepo repository.ListRepository,
	subscriberRepo repository.SubscriberRepository,
	mailer *Mailer,
	renderer *render.Renderer,
	sendInterval time.Duration,
) *CampaignService {
	return &CampaignService{
		campaignRepo:   campaignRepo,
		listRepo:       listRepo,
		subscriberRepo: subscriberRepo,
		mailer:         mailer,
		renderer:       renderer,
		sendInterval:   sendInterval,
	}
}

func (s *CampaignService) GetCampaigns(ctx context.Context) ([]*domain.Campaign, error) {
	campaigns, err := s.campaignRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaigns: %w", err)
	}
	return campaigns, nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrCampaignNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return campaign, nil
}

func (s *CampaignService) CreateCampaign(ctx context.Context, name string, listIDs []string, subject, content string) (*domain.Campaign, error) {
	campaign := &domain.Campaign{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(name),
		ListIDs: listIDs,
		Subject: strings.TrimSpace(subject),
		Content: content,
	}
	if campaign.ListIDs == nil {
		campaign.ListIDs = []string{}
	}

	if err := s.validate(ctx, campaign); err != nil {
		return nil, err
	}

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	log.Info().Str("campaign_id", campaign.ID).Str("name", campaign.Name).Msg("Campaign created")
	return campaign, nil
}

func (s *CampaignService) UpdateCampaign(ctx context.Context, id string, update domain.CampaignUpdate) (*domain.Campaign, error) {
	campaign, err := s.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	update.Apply(campaign)
	if err := s.validate(ctx, campaign); err != nil {
		return nil, err
	}

	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		if errors.Is(err, domain.ErrCampaignNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	return campaign, nil
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, id string) error {
	if err := s.campaignRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrCampaignNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return nil
}

func (s *CampaignService) validate(ctx context.Context, campaign *domain.Campaign) error {
	if err := campaign.Validate(); err != nil {
		return err
	}
	if err := s.renderer.Validate(campaign.Subject); err != nil {
		return domain.ErrInvalidTemplate
	}
	if err := s.renderer.Validate(campaign.Content); err != nil {
		return domain.ErrInvalidTemplate
	}

	for _, listID := range campaign.ListIDs {
		if _, err := s.listRepo.GetByID(ctx, listID); err != nil {
			if errors.Is(err, domain.ErrListNotFound) {
				return err
			}
			return fmt.Errorf("failed to get list: %w", err)
		}
	}
	return nil
}

// SendCampaign emails every verified member of the campaign's lists once, pacing
// sends by the configured interval. A failed recipient is counted and skipped.
// The cc and bcc addresses are copied on every email and kept on the campaign.
func (s *CampaignService) SendCampaign(ctx context.Context, id string, cc, bcc []string) (*domain.SendResult, error) {
	campaign, err := s.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	campaign.CC = cleanAddresses(cc)
	campaign.BCC = cleanAddresses(bcc)
	if err := campaign.Validate(); err != nil {
		return nil, err
	}

	recipients, err := s.subscriberRepo.GetVerifiedByListIDs(ctx, campaign.ListIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipients: %w", err)
	}

	log.Info().
		Str("campaign_id", campaign.ID).
		Str("name", campaign.Name).
		Int("recipients", len(recipients)).
		Msg("Sending campaign")

	limiter := rate.NewLimiter(rate.Inf, 1)
	if s.sendInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(s.sendInterval), 1)
	}

	result := &domain.SendResult{CampaignID: campaign.ID, Recipients: len(recipients)}
	for _, sub := range recipients {
		if err := limiter.Wait(ctx); err != nil {
			log.Warn().Err(err).Str("campaign_id", campaign.ID).Int("sent", result.Sent).Msg("Campaign send interrupted")
			break
		}

		msg, err := s.personalise(campaign, sub)
		if err != nil {
			result.Failed++
			log.Error().Err(err).Str("subscriber_id", sub.ID).Msg("Failed to render campaign")
			continue
		}

		if err := s.mailer.SendMessage(ctx, msg); err != nil {
			result.Failed++
			continue
		}
		result.Sent++
	}

	now := time.Now().UTC()
	campaign.LastSentAt = &now
	campaign.SentCount += result.Sent
	if err := s.campaignRepo.Update(context.WithoutCancel(ctx), campaign); err != nil {
		return result, fmt.Errorf("failed to record campaign send: %w", err)
	}

	log.Info().
		Str("campaign_id", campaign.ID).
		Int("sent", result.Sent).
		Int("failed", result.Failed).
		Msg("Campaign send complete")

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (s *CampaignService) personalise(campaign *domain.Campaign, sub *domain.Subscriber) (*email.Message, error) {
	bindings := render.Bindings{
		"name":  sub.Name,
		"email": sub.Email,
	}

	subject, err := s.renderer.Render(campaign.Subject, bindings)
	if err != nil {
		return nil, err
	}
	body, err := s.renderer.Render(campaign.Content, bindings)
	if err != nil {
		return nil, err
	}

	return &email.Message{
		To:      sub.Email,
		Cc:      campaign.CC,
		Bcc:     campaign.BCC,
		Subject: subject,
		HTML:    body,
	}, nil
}

func cleanAddresses(addrs []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, addr := range addrs {
		addr = domain.NormalizeEmail(addr)
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}
