// Package schedule is the facade interactive callers and the poller go
// through: one fetch yields both the rendered pages for a whole origin
// response and the structured day for the requested date.
package schedule

import (
	"context"
	"time"

	"raspbot-backend/lib/scrapers/kis"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/schedule")

type Service struct {
	client *kis.Client
}

func NewService(client *kis.Client) Service {
	return Service{client: client}
}

// Day bundles the two artifacts derived from one schedule response.
type Day struct {
	// one rendered page per day the origin returned; the origin is
	// free to answer a dated request with several days
	Pages []string
	// the requested date's structured day; nil is the legitimate
	// "no data for this date" outcome, not a failure
	Schedule *kis.DaySchedule
}

// Day fetches the schedule once and derives both the rendered pages and
// the structured day for the query's date. The poller calls this with
// useCache=false, interactive callers with true.
func (s Service) Day(ctx context.Context, q kis.ScheduleQuery, useCache bool) (Day, error) {
	ctx, span := tracer.Start(ctx, "Day")
	defer span.End()
	span.SetAttributes(
		attribute.String("entity", q.Entity),
		attribute.String("kind", string(q.Kind)),
		attribute.String("date", q.Date.Format(time.DateOnly)),
		attribute.Bool("use_cache", useCache),
	)

	blocks, err := s.client.FetchDayBlocks(ctx, q, useCache)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Day{}, err
	}

	day := Day{Pages: kis.RenderPages(blocks, q.Kind)}

	block := kis.ReconcileDay(blocks, q.Date)
	if block == nil {
		return day, nil
	}
	res := kis.ExtractDay(*block, q.Kind, q.Date)
	// a day that filtered down to zero sessions is treated as absent
	if len(res.Day.Sessions) > 0 {
		day.Schedule = &res.Day
	}
	return day, nil
}

// Pages returns the rendered pages only. Kept for callers that page
// through whatever the origin answered (the original UI does).
func (s Service) Pages(ctx context.Context, q kis.ScheduleQuery, useCache bool) ([]string, error) {
	day, err := s.Day(ctx, q, useCache)
	if err != nil {
		return nil, err
	}
	return day.Pages, nil
}

// Structured returns the requested date's structured day, nil when the
// portal has nothing for it.
func (s Service) Structured(ctx context.Context, q kis.ScheduleQuery) (*kis.DaySchedule, error) {
	day, err := s.Day(ctx, q, true)
	if err != nil {
		return nil, err
	}
	return day.Schedule, nil
}

// Search looks a name up in the cached portal directory.
func (s Service) Search(ctx context.Context, query string, kind kis.EntityKind) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	matches, err := s.client.SearchEntities(ctx, query, kind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return matches, nil
}

// Suggest ranks near-miss directory names for an unmatched query.
func (s Service) Suggest(ctx context.Context, query string, kind kis.EntityKind, limit int) ([]string, error) {
	return s.client.SuggestEntities(ctx, query, kind, limit)
}
