// Package signup owns the subscriber lifecycle: creation with
// validation, the one-way Pending -> Verified transition, and
// timezone preference updates.
package signup

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/dailyhi/internal/delivery"
	"github.com/ignite/dailyhi/internal/domain"
	"github.com/ignite/dailyhi/internal/mailer"
	"github.com/ignite/dailyhi/internal/pkg/logger"
	"github.com/ignite/dailyhi/internal/token"
	"github.com/ignite/dailyhi/internal/validator"
)

var (
	// ErrInvalidOffset rejects a timezone outside -12..+14.
	ErrInvalidOffset = errors.New("timezone offset out of range")
	// ErrUnknownCode rejects a verification code no subscriber holds.
	ErrUnknownCode = errors.New("unknown verification code")
)

// Store is the slice of the subscription store the lifecycle needs.
// Create must reject duplicate emails and codes atomically.
type Store interface {
	Create(ctx context.Context, sub *domain.Subscriber) error
	FindByCode(ctx context.Context, code string) (*domain.Subscriber, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	UpdateTimezone(ctx context.Context, id uuid.UUID, offset int) error
}

// Service coordinates validation, code generation, persistence, and
// the verification mail.
type Service struct {
	store     Store
	validator *validator.Validator
	mailer    mailer.Mailer
	composer  *delivery.Composer
}

// NewService wires the subscriber lifecycle service.
func NewService(store Store, v *validator.Validator, m mailer.Mailer, composer *delivery.Composer) *Service {
	return &Service{store: store, validator: v, mailer: m, composer: composer}
}

// Subscribe creates a pending subscriber. The email is validated and
// normalized first; nothing is persisted and no mail is sent when
// validation fails. offset of nil takes the default (-8, Pacific).
// The verification mail is a side effect: a send failure is logged
// but does not undo the creation.
func (s *Service) Subscribe(ctx context.Context, rawEmail string, offset *int) (*domain.Subscriber, error) {
	email, err := s.validator.Validate(ctx, rawEmail)
	if err != nil {
		return nil, err
	}

	tz := domain.DefaultOffset
	if offset != nil {
		if !domain.ValidOffset(*offset) {
			return nil, fmt.Errorf("%w: %d", ErrInvalidOffset, *offset)
		}
		tz = *offset
	}

	sub := &domain.Subscriber{
		Email:    email,
		Code:     token.Generate(),
		Verified: false,
		Timezone: tz,
	}
	if err := s.store.Create(ctx, sub); err != nil {
		return nil, err
	}

	if err := s.sendVerificationMail(ctx, sub); err != nil {
		logger.Warn("verification mail failed", "subscriber", sub.Email, "error", err.Error())
	}
	return sub, nil
}

func (s *Service) sendVerificationMail(ctx context.Context, sub *domain.Subscriber) error {
	body, err := s.composer.Verification(sub.Code)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, sub.Email, delivery.VerificationSubject, body)
}

// Verify flips a subscriber to verified by code. Verifying an
// already-verified subscriber is a no-op success; there is no
// transition back to pending.
func (s *Service) Verify(ctx context.Context, code string) (*domain.Subscriber, error) {
	sub, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrUnknownCode
	}
	if sub.Verified {
		return sub, nil
	}
	if err := s.store.MarkVerified(ctx, sub.ID); err != nil {
		return nil, err
	}
	sub.Verified = true
	return sub, nil
}

// UpdateTimezone changes the preferred offset for the subscriber
// holding code. Only the range is validated; the email is not
// re-validated on updates that don't touch it.
func (s *Service) UpdateTimezone(ctx context.Context, code string, offset int) (*domain.Subscriber, error) {
	if !domain.ValidOffset(offset) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOffset, offset)
	}
	sub, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrUnknownCode
	}
	if err := s.store.UpdateTimezone(ctx, sub.ID, offset); err != nil {
		return nil, err
	}
	sub.Timezone = offset
	return sub, nil
}
