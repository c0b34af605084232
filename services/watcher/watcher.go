// Package watcher polls the portal for the schedules subscribers care
// about and notifies them when a day's content changes since the last
// observed snapshot.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"raspbot-backend/lib/scrapers/kis"
	"raspbot-backend/lib/timezone"
	"raspbot-backend/lib/ttlcache"
	"raspbot-backend/services/schedule"
	"raspbot-backend/services/snapshots"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/watcher")

// ScheduleSource is what the watcher needs from the schedule service.
type ScheduleSource interface {
	Day(ctx context.Context, q kis.ScheduleQuery, useCache bool) (schedule.Day, error)
}

// SnapshotStore persists content hashes between sweeps.
type SnapshotStore interface {
	GetHash(ctx context.Context, key string) (hash string, ok bool, err error)
	SaveHash(ctx context.Context, key, hash string) error
}

type Subscription struct {
	SubscriberID string
	Entity       string
	Kind         kis.EntityKind
}

// SubscriptionSource yields the subscriptions a sweep should cover.
type SubscriptionSource interface {
	ActiveSubscriptions(ctx context.Context) ([]Subscription, error)
}

// ChangeNotification is handed to the Notifier when a watched day
// changed. ViewToken can be redeemed via View for the full rendered
// pages while the token is still fresh.
type ChangeNotification struct {
	Date      string
	Entity    string
	Changes   []Change
	ViewToken string
}

// Notifier delivers change notifications to a subscriber.
type Notifier interface {
	NotifyChanges(ctx context.Context, sub Subscription, n ChangeNotification) error
}

// ViewPayload is what a view token redeems to.
type ViewPayload struct {
	Subscription Subscription
	Date         string
	Pages        []string
}

const (
	defaultInterval = 90 * time.Minute
	viewTokenTTL    = time.Hour
	// previous structured days must survive at least one full sweep
	// interval or every change would look like a full replacement
	previousTTL = 4 * time.Hour
)

type Options struct {
	Schedule      ScheduleSource
	Snapshots     SnapshotStore
	Subscriptions SubscriptionSource
	Notifier      Notifier
	// Interval between sweeps, defaults to 90 minutes.
	Interval time.Duration
	// Now is swappable for tests, defaults to timezone.Now.
	Now func() time.Time
}

type Watcher struct {
	schedule      ScheduleSource
	snapshots     SnapshotStore
	subscriptions SubscriptionSource
	notifier      Notifier
	interval      time.Duration
	now           func() time.Time

	views    *ttlcache.Cache[string, ViewPayload]
	previous *ttlcache.Cache[string, *kis.DaySchedule]
}

func New(opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.Now == nil {
		opts.Now = timezone.Now
	}
	return &Watcher{
		schedule:      opts.Schedule,
		snapshots:     opts.Snapshots,
		subscriptions: opts.Subscriptions,
		notifier:      opts.Notifier,
		interval:      opts.Interval,
		now:           opts.Now,
		views:         ttlcache.New[string, ViewPayload](512, viewTokenTTL),
		previous:      ttlcache.New[string, *kis.DaySchedule](2048, previousTTL),
	}
}

// Run sweeps immediately, then on every interval tick until ctx ends.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Sweep(ctx); err != nil {
		slog.ErrorContext(ctx, "watcher: sweep failed", "err", err)
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				slog.ErrorContext(ctx, "watcher: sweep failed", "err", err)
			}
		}
	}
}

// Sweep checks every active subscription concurrently. Failures are
// collected per subscription so one broken entity never starves the
// rest of the sweep.
func (w *Watcher) Sweep(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Sweep")
	defer span.End()

	subs, err := w.subscriptions.ActiveSubscriptions(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("subscriptions", len(subs)))

	var wg sync.WaitGroup
	var errMutex sync.Mutex
	var errList []error
	for _, sub := range subs {
		wg.Add(1)
		go func(sub Subscription) {
			defer wg.Done()
			if err := w.checkSubscription(ctx, sub); err != nil {
				errMutex.Lock()
				errList = append(errList, fmt.Errorf("%s/%s: %w", sub.SubscriberID, sub.Entity, err))
				errMutex.Unlock()
			}
		}(sub)
	}
	wg.Wait()

	if len(errList) > 0 {
		err := errors.Join(errList...)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (w *Watcher) checkSubscription(ctx context.Context, sub Subscription) error {
	now := w.now()
	var errList []error
	for _, date := range []time.Time{now, NextBusinessDay(now)} {
		if err := w.checkDate(ctx, sub, date); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

func (w *Watcher) checkDate(ctx context.Context, sub Subscription, date time.Time) error {
	ctx, span := tracer.Start(ctx, "checkDate")
	defer span.End()
	span.SetAttributes(
		attribute.String("entity", sub.Entity),
		attribute.String("date", date.Format(time.DateOnly)),
	)

	// the poll must see the portal as it is right now, never a cached
	// copy from an interactive lookup
	day, err := w.schedule.Day(ctx, kis.ScheduleQuery{
		Entity: sub.Entity,
		Kind:   sub.Kind,
		Date:   date,
	}, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	key := snapshots.Key(sub.SubscriberID, sub.Entity, date.Format(time.DateOnly))
	newHash := HashPages(day.Pages)

	oldHash, seen, err := w.snapshots.GetHash(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if !seen {
		// first observation establishes the baseline silently
		w.previous.Set(key, day.Schedule)
		return w.snapshots.SaveHash(ctx, key, newHash)
	}
	if oldHash == newHash {
		// content unchanged, keep the structured snapshot fresh but
		// leave the store alone
		w.previous.Set(key, day.Schedule)
		return nil
	}

	before, _ := w.previous.Get(key)
	changes := Diff(before, day.Schedule)

	token, err := random.String(16)
	if err != nil {
		return err
	}
	w.views.Set(token, ViewPayload{
		Subscription: sub,
		Date:         date.Format(time.DateOnly),
		Pages:        day.Pages,
	})

	notifyErr := w.notifier.NotifyChanges(ctx, sub, ChangeNotification{
		Date:      date.Format(time.DateOnly),
		Entity:    sub.Entity,
		Changes:   changes,
		ViewToken: token,
	})
	if notifyErr != nil {
		span.RecordError(notifyErr)
		span.SetStatus(codes.Error, notifyErr.Error())
	}

	w.previous.Set(key, day.Schedule)
	if err := w.snapshots.SaveHash(ctx, key, newHash); err != nil {
		return err
	}
	return notifyErr
}

// View redeems a token from a change notification for the rendered
// pages it was issued against.
func (w *Watcher) View(token string) (ViewPayload, bool) {
	return w.views.Get(token)
}
