// Package postgres implements the subscription store over Postgres.
// Uniqueness of email and code is enforced by unique indexes; the
// store maps those violations to ErrDuplicate so callers never see
// driver-level errors.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/dailyhi/internal/domain"
)

var (
	// ErrDuplicate signals an email or code collision on create.
	ErrDuplicate = errors.New("subscription already exists")
	// ErrNotFound signals an update against a missing subscriber.
	ErrNotFound = errors.New("subscription not found")
)

const subscriberColumns = `id, email, code, verified, timezone, last_delivered_on, created_at, updated_at`

// SubscriptionStore provides database operations for subscribers.
type SubscriptionStore struct {
	db *sql.DB
}

// NewSubscriptionStore creates a store around an open database handle.
func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// Create persists a new subscriber. The store assigns the ID and
// timestamps; email and code must already be final since they are
// immutable afterwards.
func (s *SubscriptionStore) Create(ctx context.Context, sub *domain.Subscriber) error {
	sub.ID = uuid.New()
	sub.CreatedAt = time.Now().UTC()
	sub.UpdatedAt = sub.CreatedAt

	query := `INSERT INTO subscriptions (id, email, code, verified, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query, sub.ID, sub.Email, sub.Code,
		sub.Verified, sub.Timezone, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicate
		}
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// FindByCode retrieves a subscriber by verification code.
// Returns nil with no error when the code is unknown.
func (s *SubscriptionStore) FindByCode(ctx context.Context, code string) (*domain.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM subscriptions WHERE code = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, code))
}

// FindByEmail retrieves a subscriber by normalized email.
// Returns nil with no error when the email is unknown.
func (s *SubscriptionStore) FindByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM subscriptions WHERE email = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, email))
}

func (s *SubscriptionStore) scanOne(row *sql.Row) (*domain.Subscriber, error) {
	sub := &domain.Subscriber{}
	err := row.Scan(&sub.ID, &sub.Email, &sub.Code, &sub.Verified, &sub.Timezone,
		&sub.LastDeliveredOn, &sub.CreatedAt, &sub.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	return sub, nil
}

// MarkVerified flips the verified flag. The transition is one-way;
// re-running it on a verified subscriber is a no-op update.
func (s *SubscriptionStore) MarkVerified(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE subscriptions SET verified = true, updated_at = $2 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTimezone changes a subscriber's offset. Range validation
// happens at the service layer; this is a plain update.
func (s *SubscriptionStore) UpdateTimezone(ctx context.Context, id uuid.UUID, offset int) error {
	query := `UPDATE subscriptions SET timezone = $2, updated_at = $3 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, id, offset, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update timezone: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindDeliverableByOffset streams verified subscribers in the given
// offset buckets who have not yet received the digest for localDate.
// The rows are streamed, not materialized; callers must Close the
// iterator.
func (s *SubscriptionStore) FindDeliverableByOffset(ctx context.Context, offsets []int, localDate time.Time) (domain.SubscriberIterator, error) {
	buckets := make(pq.Int64Array, len(offsets))
	for i, o := range offsets {
		buckets[i] = int64(o)
	}

	query := `SELECT ` + subscriberColumns + ` FROM subscriptions
		WHERE verified = true
		  AND timezone = ANY($1)
		  AND (last_delivered_on IS NULL OR last_delivered_on < $2)`

	rows, err := s.db.QueryContext(ctx, query, buckets, dateOnly(localDate))
	if err != nil {
		return nil, fmt.Errorf("query deliverable subscriptions: %w", err)
	}
	return &subscriberRows{rows: rows}, nil
}

// MarkDelivered records that the subscriber received the digest for
// localDate, excluding them from re-sends within the same local day.
func (s *SubscriptionStore) MarkDelivered(ctx context.Context, id uuid.UUID, localDate time.Time) error {
	query := `UPDATE subscriptions SET last_delivered_on = $2, updated_at = $3 WHERE id = $1`
	_, err := s.db.ExecContext(ctx, query, id, dateOnly(localDate), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// subscriberRows adapts *sql.Rows to domain.SubscriberIterator.
type subscriberRows struct {
	rows    *sql.Rows
	current *domain.Subscriber
	err     error
}

func (r *subscriberRows) Next() bool {
	if r.err != nil || !r.rows.Next() {
		return false
	}
	sub := &domain.Subscriber{}
	r.err = r.rows.Scan(&sub.ID, &sub.Email, &sub.Code, &sub.Verified, &sub.Timezone,
		&sub.LastDeliveredOn, &sub.CreatedAt, &sub.UpdatedAt)
	if r.err != nil {
		return false
	}
	r.current = sub
	return true
}

func (r *subscriberRows) Subscriber() *domain.Subscriber { return r.current }

func (r *subscriberRows) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.rows.Err()
}

func (r *subscriberRows) Close() error { return r.rows.Close() }
