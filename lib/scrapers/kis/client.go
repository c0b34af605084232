package kis

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"raspbot-backend/lib/telemetry"
	"raspbot-backend/lib/ttlcache"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/kis")

const (
	fetchAttempts  = 3
	defaultTimeout = time.Second * 12

	scheduleCacheSize = 500
	scheduleCacheTTL  = time.Minute * 10
	listCacheSize     = 50
	listCacheTTL      = time.Hour
)

type ClientOptions struct {
	// schedule lookup endpoint, e.g. https://kis.vgltu.ru/schedule
	ScheduleURL string
	// name directory endpoint, e.g. https://kis.vgltu.ru/list
	ListURL string
	// hard per-request timeout, defaults to 12s
	Timeout time.Duration
	// caches may be supplied to share or isolate them (tests do);
	// nil means the client owns fresh ones
	ScheduleCache *ttlcache.Cache[string, []byte]
	ListCache     *ttlcache.Cache[string, []byte]
}

type Client struct {
	http        *resty.Client
	scheduleURL string
	listURL     string

	scheduleCache *ttlcache.Cache[string, []byte]
	listCache     *ttlcache.Cache[string, []byte]
}

func NewClient(opts ClientOptions) (*Client, error) {
	scheduleURL, err := url.Parse(opts.ScheduleURL)
	if err != nil {
		return nil, err
	}
	listURL, err := url.Parse(opts.ListURL)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(
		scheduleURL.Hostname(),
		listURL.Hostname(),
	))
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	telemetry.InstrumentResty(client, "scrapers/kis/http")

	scheduleCache := opts.ScheduleCache
	if scheduleCache == nil {
		scheduleCache = ttlcache.New[string, []byte](scheduleCacheSize, scheduleCacheTTL)
	}
	listCache := opts.ListCache
	if listCache == nil {
		listCache = ttlcache.New[string, []byte](listCacheSize, listCacheTTL)
	}

	return &Client{
		http:          client,
		scheduleURL:   opts.ScheduleURL,
		listURL:       opts.ListURL,
		scheduleCache: scheduleCache,
		listCache:     listCache,
	}, nil
}

// fetch gets a url with retries and exponential backoff, memoizing
// successful bodies in the given cache when useCache is set.
func (c *Client) fetch(ctx context.Context, rawurl string, cache *ttlcache.Cache[string, []byte], useCache bool) ([]byte, error) {
	if useCache {
		if body, ok := cache.Get(rawurl); ok {
			slog.DebugContext(ctx, "serving from cache", "url", rawurl)
			return body, nil
		}
	}

	var lastErr error
	backoff := time.Second

	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			slog.WarnContext(
				ctx, "request failed, retrying",
				"url", rawurl,
				"attempt", attempt,
				"backoff", backoff.String(),
				"err", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, &NetworkError{URL: rawurl, Err: ctx.Err()}
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		res, err := c.http.R().SetContext(ctx).Get(rawurl)

		code := 0
		if res != nil {
			code = res.StatusCode()
		}
		if code >= 300 && code < 400 {
			// the portal occasionally answers with a redirect that
			// automatic following choked on (relative Location on an
			// endpoint the redirect policy rejects); resolve it against
			// the original scheme/host and try once more
			res, err = c.followManually(ctx, rawurl, res)
			if err != nil {
				lastErr = err
				continue
			}
			code = res.StatusCode()
		} else if err != nil {
			lastErr = &NetworkError{URL: rawurl, Err: err}
			continue
		}

		if code < 200 || code >= 300 {
			lastErr = &StatusError{URL: rawurl, Code: code}
			continue
		}

		body := res.Body()
		if useCache {
			cache.Set(rawurl, body)
		}
		return body, nil
	}

	return nil, lastErr
}

func (c *Client) followManually(ctx context.Context, original string, res *resty.Response) (*resty.Response, error) {
	location := res.Header().Get("Location")
	if location == "" {
		return nil, &StatusError{URL: original, Code: res.StatusCode()}
	}
	resolved, err := resolveLocation(original, location)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "following redirect manually", "from", original, "to", resolved)

	followed, err := c.http.R().SetContext(ctx).Get(resolved)
	if err != nil {
		return nil, &NetworkError{URL: resolved, Err: err}
	}
	if followed.StatusCode() < 200 || followed.StatusCode() >= 300 {
		return nil, &StatusError{URL: resolved, Code: followed.StatusCode()}
	}
	return followed, nil
}

// resolveLocation resolves a possibly-relative Location header against
// the scheme/host of the url that produced it.
func resolveLocation(original, location string) (string, error) {
	base, err := url.Parse(original)
	if err != nil {
		return "", &NetworkError{URL: original, Err: err}
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", &NetworkError{URL: location, Err: err}
	}
	return base.ResolveReference(ref).String(), nil
}

func (c *Client) scheduleLink(q ScheduleQuery) string {
	values := url.Values{}
	values.Set("date", q.Date.Format(time.DateOnly))
	switch q.Kind {
	case EntityTeacher:
		values.Set("teacher", q.Entity)
	default:
		values.Set("group", q.Entity)
	}
	return fmt.Sprintf("%s?%s", c.scheduleURL, values.Encode())
}

// FetchDayBlocks requests the schedule page for a query and locates the
// per-day fragments on it. An empty result means the portal has no data,
// not that anything went wrong. The poller passes useCache=false, it
// must see fresh content every cycle.
func (c *Client) FetchDayBlocks(ctx context.Context, q ScheduleQuery, useCache bool) ([]DayBlock, error) {
	ctx, span := tracer.Start(ctx, "client:FetchDayBlocks")
	defer span.End()
	span.SetAttributes(
		attribute.String("entity", q.Entity),
		attribute.String("kind", string(q.Kind)),
		attribute.String("date", q.Date.Format(time.DateOnly)),
	)

	body, err := c.fetch(ctx, c.scheduleLink(q), c.scheduleCache, useCache)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch schedule page")
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse schedule page")
		return nil, fmt.Errorf("%w: %s", ErrOriginFormat, err)
	}

	blocks := FindDayBlocks(doc)
	span.SetAttributes(attribute.Int("day_blocks", len(blocks)))
	return blocks, nil
}
