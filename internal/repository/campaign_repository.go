package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"subscriber-journey/internal/domain"

	"github.com/lib/pq"
)

type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	GetAll(ctx context.Context) ([]*domain.Campaign, error)
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	Update(ctx context.Context, campaign *domain.Campaign) error
	Delete(ctx context.Context, id string) error
}

type campaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignSelect = `SELECT id, name, list_ids, subject, content, cc, bcc, created_at, last_sent_at, sent_count
	FROM campaigns`

func (r *campaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO campaigns (id, name, list_ids, subject, content, cc, bcc)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		campaign.ID, campaign.Name, pq.Array(nonNil(campaign.ListIDs)), campaign.Subject, campaign.Content,
		pq.Array(nonNil(campaign.CC)), pq.Array(nonNil(campaign.BCC)),
	).Scan(&campaign.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

func (r *campaignRepository) GetAll(ctx context.Context) ([]*domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, campaignSelect+" ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*domain.Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}

	return campaigns, nil
}

func (r *campaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	campaign, err := scanCampaign(r.db.QueryRowContext(ctx, campaignSelect+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return campaign, nil
}

func (r *campaignRepository) Update(ctx context.Context, campaign *domain.Campaign) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE campaigns SET name = $1, list_ids = $2, subject = $3, content = $4, cc = $5, bcc = $6,
		last_sent_at = $7, sent_count = $8
		WHERE id = $9`,
		campaign.Name, pq.Array(nonNil(campaign.ListIDs)), campaign.Subject, campaign.Content,
		pq.Array(nonNil(campaign.CC)), pq.Array(nonNil(campaign.BCC)),
		campaign.LastSentAt, campaign.SentCount, campaign.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}

	return expectOneRow(result, domain.ErrCampaignNotFound)
}

func (r *campaignRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM campaigns WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}

	return expectOneRow(result, domain.ErrCampaignNotFound)
}

func scanCampaign(row rowScanner) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var listIDs, cc, bcc pq.StringArray
	var lastSentAt sql.NullTime

	err := row.Scan(&c.ID, &c.Name, &listIDs, &c.Subject, &c.Content, &cc, &bcc,
		&c.CreatedAt, &lastSentAt, &c.SentCount)
	if err != nil {
		return nil, err
	}

	c.ListIDs = nonNil(listIDs)
	c.CC = []string(cc)
	c.BCC = []string(bcc)
	if lastSentAt.Valid {
		c.LastSentAt = &lastSentAt.Time
	}
	return c, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
