package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"subscriber-journey/internal/domain"

	"github.com/lib/pq"
)

type SubscriberRepository interface {
	Create(ctx context.Context, subscriber *domain.Subscriber) error
	GetByID(ctx context.Context, id string) (*domain.Subscriber, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Subscriber, error)
	GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error)
	Update(ctx context.Context, subscriber *domain.Subscriber) error
	Delete(ctx context.Context, id string) error
	// ConfirmVerification marks the subscriber of userID verified and clears the
	// verification code, but only while the stored code still equals code.
	ConfirmVerification(ctx context.Context, userID, code string) (*domain.Subscriber, error)
	// ConsumeOTPCode clears the unsubscribe code of userID if it equals code.
	ConsumeOTPCode(ctx context.Context, userID, code string) (*domain.Subscriber, error)
	GetByListID(ctx context.Context, listID string) ([]*domain.Subscriber, error)
	GetVerifiedByListIDs(ctx context.Context, listIDs []string) ([]*domain.Subscriber, error)
}

type subscriberRepository struct {
	db *sql.DB
}

func NewSubscriberRepository(db *sql.DB) SubscriberRepository {
	return &subscriberRepository{db: db}
}

const subscriberColumns = `s.id, s.email, s.name, s.user_id, COALESCE(s.list_id, ''),
	COALESCE(s.verification_code, ''), s.is_verified, COALESCE(s.otp_code, ''), s.created_at`

func (r *subscriberRepository) Create(ctx context.Context, subscriber *domain.Subscriber) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO subscribers (id, email, name, user_id, list_id, verification_code, is_verified, otp_code)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, NULLIF($8, ''))
		RETURNING created_at`,
		subscriber.ID, subscriber.Email, subscriber.Name, subscriber.UserID, subscriber.ListID,
		subscriber.VerificationCode, subscriber.IsVerified, subscriber.OTPCode,
	).Scan(&subscriber.CreatedAt)

	if err != nil {
		if isDuplicateError(err) {
			return domain.ErrSubscriberAlreadyExists
		}
		return fmt.Errorf("failed to create subscriber: %w", err)
	}

	return nil
}

func (r *subscriberRepository) GetByID(ctx context.Context, id string) (*domain.Subscriber, error) {
	return r.getOne(ctx, "s.id = $1", id)
}

func (r *subscriberRepository) GetByUserID(ctx context.Context, userID string) (*domain.Subscriber, error) {
	return r.getOne(ctx, "s.user_id = $1", userID)
}

func (r *subscriberRepository) GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	return r.getOne(ctx, "s.email = $1", email)
}

func (r *subscriberRepository) getOne(ctx context.Context, where string, arg string) (*domain.Subscriber, error) {
	query := "SELECT " + subscriberColumns + " FROM subscribers s WHERE " + where + " ORDER BY s.created_at LIMIT 1"

	subscriber, err := scanSubscriber(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}
	return subscriber, nil
}

func (r *subscriberRepository) Update(ctx context.Context, subscriber *domain.Subscriber) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE subscribers SET email = $1, name = $2, user_id = $3, list_id = NULLIF($4, ''),
		verification_code = NULLIF($5, ''), is_verified = $6, otp_code = NULLIF($7, '')
		WHERE id = $8`,
		subscriber.Email, subscriber.Name, subscriber.UserID, subscriber.ListID,
		subscriber.VerificationCode, subscriber.IsVerified, subscriber.OTPCode, subscriber.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscriber: %w", err)
	}

	return expectOneRow(result, domain.ErrSubscriberNotFound)
}

// Delete removes the subscriber; list memberships go with it via the foreign key.
func (r *subscriberRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM subscribers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete subscriber: %w", err)
	}

	return expectOneRow(result, domain.ErrSubscriberNotFound)
}

func (r *subscriberRepository) ConfirmVerification(ctx context.Context, userID, code string) (*domain.Subscriber, error) {
	subscriber, err := scanSubscriber(r.db.QueryRowContext(ctx,
		`UPDATE subscribers s SET is_verified = TRUE, verification_code = NULL
		WHERE s.user_id = $1 AND s.verification_code = $2
		RETURNING `+subscriberColumns,
		userID, code,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvalidVerificationCode
		}
		return nil, fmt.Errorf("failed to confirm subscriber: %w", err)
	}
	return subscriber, nil
}

func (r *subscriberRepository) ConsumeOTPCode(ctx context.Context, userID, code string) (*domain.Subscriber, error) {
	subscriber, err := scanSubscriber(r.db.QueryRowContext(ctx,
		`UPDATE subscribers s SET otp_code = NULL
		WHERE s.user_id = $1 AND s.otp_code = $2
		RETURNING `+subscriberColumns,
		userID, code,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvalidOTP
		}
		return nil, fmt.Errorf("failed to consume unsubscribe code: %w", err)
	}
	return subscriber, nil
}

func (r *subscriberRepository) GetByListID(ctx context.Context, listID string) ([]*domain.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers s
		JOIN list_subscribers ls ON ls.subscriber_id = s.id
		WHERE ls.list_id = $1
		ORDER BY ls.added_at`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query list subscribers: %w", err)
	}
	defer rows.Close()

	return collectSubscribers(rows)
}

func (r *subscriberRepository) GetVerifiedByListIDs(ctx context.Context, listIDs []string) ([]*domain.Subscriber, error) {
	if len(listIDs) == 0 {
		return []*domain.Subscriber{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT ON (s.id) `+subscriberColumns+` FROM subscribers s
		JOIN list_subscribers ls ON ls.subscriber_id = s.id
		WHERE ls.list_id = ANY($1) AND s.is_verified = TRUE
		ORDER BY s.id`,
		pq.Array(listIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign recipients: %w", err)
	}
	defer rows.Close()

	return collectSubscribers(rows)
}

func collectSubscribers(rows *sql.Rows) ([]*domain.Subscriber, error) {
	subscribers := []*domain.Subscriber{}
	for rows.Next() {
		subscriber, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subscribers = append(subscribers, subscriber)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscribers: %w", err)
	}

	return subscribers, nil
}

func scanSubscriber(row rowScanner) (*domain.Subscriber, error) {
	s := &domain.Subscriber{}
	err := row.Scan(&s.ID, &s.Email, &s.Name, &s.UserID, &s.ListID,
		&s.VerificationCode, &s.IsVerified, &s.OTPCode, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}
