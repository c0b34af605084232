package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"raspbot-backend/lib/textutil"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func (c *Client) listLink(kind EntityKind) string {
	values := url.Values{}
	values.Set("type", string(kind))
	return fmt.Sprintf("%s?%s", c.listURL, values.Encode())
}

func (c *Client) fetchEntityList(ctx context.Context, kind EntityKind) ([]string, error) {
	body, err := c.fetch(ctx, c.listLink(kind), c.listCache, true)
	if err != nil {
		return nil, err
	}

	// the portal is known to serve this with Content-Type text/plain,
	// so the header is ignored entirely: json parseability of the body
	// is what decides whether the answer is usable
	var entities []string
	err = json.Unmarshal(body, &entities)
	if err != nil {
		return nil, fmt.Errorf("%w: entity list is not a json string array: %s", ErrOriginFormat, err)
	}
	return entities, nil
}

// SearchEntities returns the directory names of the given kind that
// contain the query, case-insensitively. An empty result is a normal
// "not found", not an error. The directory is cached for an hour.
func (c *Client) SearchEntities(ctx context.Context, query string, kind EntityKind) ([]string, error) {
	ctx, span := tracer.Start(ctx, "client:SearchEntities")
	defer span.End()
	span.SetAttributes(
		attribute.String("query", query),
		attribute.String("kind", string(kind)),
	)

	entities, err := c.fetchEntityList(ctx, kind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch entity list")
		return nil, err
	}

	var matches []string
	for _, entity := range entities {
		if textutil.ContainsFold(entity, query) {
			matches = append(matches, entity)
		}
	}

	span.SetAttributes(attribute.Int("matches", len(matches)))
	return matches, nil
}

const suggestionThreshold = 0.7

// SuggestEntities ranks directory names by Jaro-Winkler similarity to
// the query, for "did you mean" lists when a substring search came back
// empty.
func (c *Client) SuggestEntities(ctx context.Context, query string, kind EntityKind, limit int) ([]string, error) {
	ctx, span := tracer.Start(ctx, "client:SuggestEntities")
	defer span.End()
	span.SetAttributes(
		attribute.String("query", query),
		attribute.String("kind", string(kind)),
	)

	entities, err := c.fetchEntityList(ctx, kind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch entity list")
		return nil, err
	}

	type scored struct {
		name       string
		similarity float64
	}
	needle := strings.ToLower(query)

	var candidates []scored
	for _, entity := range entities {
		similarity := matchr.JaroWinkler(needle, strings.ToLower(entity), false)
		if similarity >= suggestionThreshold {
			candidates = append(candidates, scored{name: entity, similarity: similarity})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	suggestions := make([]string, len(candidates))
	for i, c := range candidates {
		suggestions[i] = c.name
	}
	return suggestions, nil
}
