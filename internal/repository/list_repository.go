package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"subscriber-journey/internal/domain"

	"github.com/lib/pq"
)

type ListRepository interface {
	Create(ctx context.Context, list *domain.SubscriptionList) error
	GetAll(ctx context.Context) ([]*domain.SubscriptionList, error)
	GetByID(ctx context.Context, id string) (*domain.SubscriptionList, error)
	// EnsureDefault returns the first list created, which new subscriptions
	// join, creating it from list when none exists. Concurrent callers observe
	// the same list.
	EnsureDefault(ctx context.Context, list *domain.SubscriptionList) (*domain.SubscriptionList, error)
	AddSubscriber(ctx context.Context, listID, subscriberID string) error
	RemoveSubscriber(ctx context.Context, listID, subscriberID string) error
	RemoveSubscriberFromAll(ctx context.Context, subscriberID string) error
}

type listRepository struct {
	db *sql.DB
}

func NewListRepository(db *sql.DB) ListRepository {
	return &listRepository{db: db}
}

// defaultListLock is the advisory lock key held while the default list is
// looked up and created.
const defaultListLock = 0x6c697374

const listSelect = `SELECT l.id, l.name, COALESCE(l.description, ''), l.created_at,
	COALESCE(ARRAY(SELECT ls.subscriber_id FROM list_subscribers ls WHERE ls.list_id = l.id ORDER BY ls.added_at), '{}')
	FROM subscription_lists l`

func (r *listRepository) Create(ctx context.Context, list *domain.SubscriptionList) error {
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO subscription_lists (id, name, description) VALUES ($1, $2, $3) RETURNING created_at",
		list.ID, list.Name, list.Description,
	).Scan(&list.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create list: %w", err)
	}

	if list.Subscribers == nil {
		list.Subscribers = []string{}
	}
	return nil
}

func (r *listRepository) GetAll(ctx context.Context) ([]*domain.SubscriptionList, error) {
	rows, err := r.db.QueryContext(ctx, listSelect+" ORDER BY l.created_at, l.id")
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	defer rows.Close()

	lists := []*domain.SubscriptionList{}
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, list)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lists: %w", err)
	}

	return lists, nil
}

func (r *listRepository) GetByID(ctx context.Context, id string) (*domain.SubscriptionList, error) {
	list, err := scanList(r.db.QueryRowContext(ctx, listSelect+" WHERE l.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrListNotFound
		}
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	return list, nil
}

func (r *listRepository) EnsureDefault(ctx context.Context, list *domain.SubscriptionList) (*domain.SubscriptionList, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", defaultListLock); err != nil {
		return nil, fmt.Errorf("failed to lock default list: %w", err)
	}

	existing, err := scanList(tx.QueryRowContext(ctx, listSelect+" ORDER BY l.created_at, l.id LIMIT 1"))
	switch {
	case err == nil:
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to get default list: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		"INSERT INTO subscription_lists (id, name, description) VALUES ($1, $2, $3) RETURNING created_at",
		list.ID, list.Name, list.Description,
	).Scan(&list.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create default list: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if list.Subscribers == nil {
		list.Subscribers = []string{}
	}
	return list, nil
}

func (r *listRepository) AddSubscriber(ctx context.Context, listID, subscriberID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO list_subscribers (list_id, subscriber_id) VALUES ($1, $2)
		ON CONFLICT (list_id, subscriber_id) DO NOTHING`,
		listID, subscriberID,
	)
	if err != nil {
		return fmt.Errorf("failed to add subscriber to list: %w", err)
	}
	return nil
}

func (r *listRepository) RemoveSubscriber(ctx context.Context, listID, subscriberID string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM list_subscribers WHERE list_id = $1 AND subscriber_id = $2",
		listID, subscriberID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove subscriber from list: %w", err)
	}
	return nil
}

func (r *listRepository) RemoveSubscriberFromAll(ctx context.Context, subscriberID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM list_subscribers WHERE subscriber_id = $1", subscriberID)
	if err != nil {
		return fmt.Errorf("failed to remove subscriber from lists: %w", err)
	}
	return nil
}

func scanList(row rowScanner) (*domain.SubscriptionList, error) {
	list := &domain.SubscriptionList{}
	var members pq.StringArray
	if err := row.Scan(&list.ID, &list.Name, &list.Description, &list.CreatedAt, &members); err != nil {
		return nil, err
	}
	list.Subscribers = []string(members)
	if list.Subscribers == nil {
		list.Subscribers = []string{}
	}
	return list, nil
}
