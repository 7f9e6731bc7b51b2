package domain

import (
	"slices"
	"strings"
	"time"
)

const (
	DefaultListName        = "Default List"
	DefaultListDescription = "Default subscription list"
)

type SubscriptionList struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Subscribers []string  `json:"subscribers"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (l *SubscriptionList) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrInvalidListName
	}
	return nil
}

func (l *SubscriptionList) Has(subscriberID string) bool {
	return slices.Contains(l.Subscribers, subscriberID)
}
