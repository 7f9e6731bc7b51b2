package domain

import (
	"strings"
	"time"
)

type Campaign struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	ListIDs    []string   `json:"listIds"`
	Subject    string     `json:"subject"`
	Content    string     `json:"content"`
	CC         []string   `json:"cc,omitempty"`
	BCC        []string   `json:"bcc,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastSentAt *time.Time `json:"lastSentAt,omitempty"`
	SentCount  int        `json:"sentCount"`
}

func (c *Campaign) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrInvalidCampaignName
	}
	if strings.TrimSpace(c.Subject) == "" {
		return ErrInvalidSubject
	}
	if strings.TrimSpace(c.Content) == "" {
		return ErrInvalidContent
	}
	for _, addr := range append(append([]string{}, c.CC...), c.BCC...) {
		if err := ValidateEmail(addr); err != nil {
			return err
		}
	}
	return nil
}

// CampaignUpdate carries the fields an edit may change; nil means unchanged.
type CampaignUpdate struct {
	Name    *string   `json:"name"`
	ListIDs *[]string `json:"listIds"`
	Subject *string   `json:"subject"`
	Content *string   `json:"content"`
	CC      *[]string `json:"cc"`
	BCC     *[]string `json:"bcc"`
}

func (u CampaignUpdate) Apply(c *Campaign) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.ListIDs != nil {
		c.ListIDs = *u.ListIDs
	}
	if u.Subject != nil {
		c.Subject = *u.Subject
	}
	if u.Content != nil {
		c.Content = *u.Content
	}
	if u.CC != nil {
		c.CC = *u.CC
	}
	if u.BCC != nil {
		c.BCC = *u.BCC
	}
}

type SendResult struct {
	CampaignID string `json:"campaignId"`
	Recipients int    `json:"recipients"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
}
