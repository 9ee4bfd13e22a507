// Package content supplies the optional pieces of a digest: the
// day's photo and fun fact. Both are best-effort; any failure yields
// an absent value and the digest sends without that section.
package content

import (
	"context"
	"time"

	"github.com/ignite/dailyhi/internal/domain"
)

// Provider bundles the photo and fact sources behind the scheduler's
// content interface.
type Provider struct {
	photos *PhotoClient
	facts  *FactSource
}

// NewProvider creates a provider. Either source may be nil, in which
// case that section of the digest is always absent.
func NewProvider(photos *PhotoClient, facts *FactSource) *Provider {
	return &Provider{photos: photos, facts: facts}
}

// FindPhoto returns the day's photo or nil.
func (p *Provider) FindPhoto(ctx context.Context, localTime time.Time) *domain.Photo {
	if p.photos == nil {
		return nil
	}
	return p.photos.FindPhoto(ctx, localTime)
}

// FunFact returns the day's fact or "".
func (p *Provider) FunFact(ctx context.Context, localTime time.Time) string {
	if p.facts == nil {
		return ""
	}
	return p.facts.FunFact(ctx, localTime)
}
