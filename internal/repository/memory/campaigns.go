package memory

import (
	"context"
	"slices"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/repository"
	"time"
)

var _ repository.CampaignRepository = (*CampaignRepository)(nil)

type CampaignRepository struct {
	store *Store
}

func (r *CampaignRepository) Create(_ context.Context, campaign *domain.Campaign) error {
	return r.store.mutate(func(d *snapshot) error {
		if campaign.CreatedAt.IsZero() {
			campaign.CreatedAt = time.Now().UTC()
		}
		d.Campaigns = append(d.Campaigns, copyCampaign(campaign))
		return nil
	})
}

// GetAll returns campaigns newest first.
func (r *CampaignRepository) GetAll(_ context.Context) ([]*domain.Campaign, error) {
	out := []*domain.Campaign{}
	err := r.store.view(func(d *snapshot) error {
		for i := len(d.Campaigns) - 1; i >= 0; i-- {
			c := copyCampaign(&d.Campaigns[i])
			out = append(out, &c)
		}
		return nil
	})
	return out, err
}

func (r *CampaignRepository) GetByID(_ context.Context, id string) (*domain.Campaign, error) {
	var found *domain.Campaign
	err := r.store.view(func(d *snapshot) error {
		for i := range d.Campaigns {
			if d.Campaigns[i].ID == id {
				c := copyCampaign(&d.Campaigns[i])
				found = &c
				return nil
			}
		}
		return domain.ErrCampaignNotFound
	})
	return found, err
}

func (r *CampaignRepository) Update(_ context.Context, campaign *domain.Campaign) error {
	return r.store.mutate(func(d *snapshot) error {
		for i := range d.Campaigns {
			if d.Campaigns[i].ID == campaign.ID {
				c := copyCampaign(campaign)
				c.CreatedAt = d.Campaigns[i].CreatedAt
				d.Campaigns[i] = c
				return nil
			}
		}
		return domain.ErrCampaignNotFound
	})
}

func (r *CampaignRepository) Delete(_ context.Context, id string) error {
	return r.store.mutate(func(d *snapshot) error {
		idx := slices.IndexFunc(d.Campaigns, func(c domain.Campaign) bool { return c.ID == id })
		if idx < 0 {
			return domain.ErrCampaignNotFound
		}
		d.Campaigns = slices.Delete(d.Campaigns, idx, idx+1)
		return nil
	})
}

func copyCampaign(c *domain.Campaign) domain.Campaign {
	out := *c
	out.ListIDs = append([]string{}, c.ListIDs...)
	out.CC = slices.Clone(c.CC)
	out.BCC = slices.Clone(c.BCC)
	if c.LastSentAt != nil {
		t := *c.LastSentAt
		out.LastSentAt = &t
	}
	return out
}
