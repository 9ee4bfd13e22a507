package domain

import (
	"time"

	"github.com/google/uuid"
)

// Timezone offset bounds in whole hours from UTC. Offsets outside this
// range do not exist in the real world and are rejected at signup.
const (
	MinOffset = -12
	MaxOffset = 14

	// DefaultOffset is Pacific time, the historical default for
	// subscribers who never picked a timezone.
	DefaultOffset = -8
)

// ValidOffset reports whether offset is a real-world UTC offset.
func ValidOffset(offset int) bool {
	return offset >= MinOffset && offset <= MaxOffset
}

// Subscriber is a single recipient of the daily digest.
//
// Email and Code are immutable after creation. Verified flips from
// false to true exactly once, when the subscriber follows the
// verification link carrying their code.
type Subscriber struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Email           string     `json:"email" db:"email"`
	Code            string     `json:"-" db:"code"`
	Verified        bool       `json:"verified" db:"verified"`
	Timezone        int        `json:"timezone" db:"timezone"`
	LastDeliveredOn *time.Time `json:"last_delivered_on,omitempty" db:"last_delivered_on"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// SubscriberIterator streams subscribers from a store query one row at
// a time, so a large bucket never has to be materialized in memory.
// The sequence is one-shot: Close must be called when done, and Err
// checked after Next returns false.
type SubscriberIterator interface {
	Next() bool
	Subscriber() *Subscriber
	Err() error
	Close() error
}
