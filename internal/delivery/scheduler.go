// Package delivery orchestrates a digest run: resolve the active
// timezone bucket for a UTC instant, fetch the day's content, stream
// the bucket's verified subscribers, and dispatch one message each.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/dailyhi/internal/domain"
	"github.com/ignite/dailyhi/internal/mailer"
	"github.com/ignite/dailyhi/internal/pkg/logger"
	"github.com/ignite/dailyhi/internal/timezone"
)

// SubscriptionSource is the slice of the store the scheduler needs.
type SubscriptionSource interface {
	FindDeliverableByOffset(ctx context.Context, offsets []int, localDate time.Time) (domain.SubscriberIterator, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, localDate time.Time) error
}

// ContentProvider supplies the optional digest sections. Absent
// values mean the section is omitted, never that the run fails.
type ContentProvider interface {
	FindPhoto(ctx context.Context, localTime time.Time) *domain.Photo
	FunFact(ctx context.Context, localTime time.Time) string
}

// Scheduler runs one delivery pass per invocation. It holds no
// background goroutines; an external trigger calls RunOnce.
type Scheduler struct {
	store       SubscriptionSource
	content     ContentProvider
	mailer      mailer.Mailer
	composer    *Composer
	anchorHour  int
	sendTimeout time.Duration

	// resolveZone is swapped in tests to exercise the no-zone path.
	resolveZone func(offset int, at time.Time) (string, *time.Location, bool)
}

// NewScheduler wires a scheduler. anchorHour is the local delivery
// hour (6 for 6 AM); sendTimeout bounds each content fetch and each
// per-subscriber dispatch.
func NewScheduler(store SubscriptionSource, content ContentProvider, m mailer.Mailer, composer *Composer, anchorHour int, sendTimeout time.Duration) *Scheduler {
	if anchorHour <= 0 || anchorHour > 23 {
		anchorHour = timezone.AnchorHour
	}
	if sendTimeout <= 0 {
		sendTimeout = 15 * time.Second
	}
	return &Scheduler{
		store:       store,
		content:     content,
		mailer:      m,
		composer:    composer,
		anchorHour:  anchorHour,
		sendTimeout: sendTimeout,
		resolveZone: timezone.IdentifierFor,
	}
}

// RunOnce delivers the digest for the bucket active at utc.
//
// A bucket whose offset maps to no canonical zone produces a
// zero-send report, not an error. Content failures drop their
// section. A failed dispatch is counted and logged but never aborts
// the remaining subscribers. The returned error is reserved for
// infrastructure failures (the bucket query itself).
func (s *Scheduler) RunOnce(ctx context.Context, utc time.Time) (domain.DeliveryReport, error) {
	utc = utc.UTC()
	offset := timezone.BucketFor(utc, s.anchorHour)
	report := domain.DeliveryReport{Offset: offset}

	zone, loc, ok := s.resolveZone(offset, utc)
	if !ok {
		report.Reason = fmt.Sprintf("no canonical zone currently at offset %+d", offset)
		logger.Info("delivery skipped", "offset", fmt.Sprint(offset), "reason", report.Reason)
		return report, nil
	}
	localTime := utc.In(loc)
	report.Zone = zone
	report.LocalTime = localTime

	photo, fact := s.fetchContent(ctx, localTime)

	iter, err := s.store.FindDeliverableByOffset(ctx, timezone.EquivalentOffsets(offset), localTime)
	if err != nil {
		return report, fmt.Errorf("find deliverable subscribers: %w", err)
	}
	defer iter.Close()

	subject := Subject(localTime)
	for iter.Next() {
		sub := iter.Subscriber()

		// The query already filters on verified, but a send to an
		// unverified address must be impossible even if the store
		// misbehaves.
		if !sub.Verified {
			report.Skipped++
			logger.Warn("unverified subscriber in delivery bucket", "subscriber", sub.Email)
			continue
		}

		report.Attempted++
		if err := s.dispatch(ctx, sub, subject, localTime, photo, fact); err != nil {
			report.Failed++
			logger.Error("dispatch failed", "subscriber", sub.Email, "error", err.Error())
			continue
		}
		report.Sent++

		if err := s.store.MarkDelivered(ctx, sub.ID, localTime); err != nil {
			logger.Warn("mark delivered failed", "subscriber", sub.Email, "error", err.Error())
		}
	}
	if err := iter.Err(); err != nil {
		return report, fmt.Errorf("iterate subscribers: %w", err)
	}

	logger.Info("delivery run complete",
		"offset", fmt.Sprint(offset),
		"zone", zone,
		"attempted", fmt.Sprint(report.Attempted),
		"sent", fmt.Sprint(report.Sent),
		"failed", fmt.Sprint(report.Failed))
	return report, nil
}

// fetchContent collects the day's photo and fact under a bounded
// timeout. Both are optional.
func (s *Scheduler) fetchContent(ctx context.Context, localTime time.Time) (*domain.Photo, string) {
	cctx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	photo := s.content.FindPhoto(cctx, localTime)
	fact := s.content.FunFact(cctx, localTime)
	return photo, fact
}

func (s *Scheduler) dispatch(ctx context.Context, sub *domain.Subscriber, subject string, localTime time.Time, photo *domain.Photo, fact string) error {
	body, err := s.composer.Digest(sub, localTime, photo, fact)
	if err != nil {
		return fmt.Errorf("compose digest: %w", err)
	}

	sctx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	return s.mailer.Send(sctx, sub.Email, subject, body)
}
