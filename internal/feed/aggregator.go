// Package feed merges the saved content of a resolved follow set into a
// single ranked feed.
package feed

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"curius-feed/internal/cache"
	"curius-feed/internal/curius"
	apperrors "curius-feed/pkg/errors"
)

// Aggregator builds feeds by batch-reading cached content pages and
// fan-out fetching the misses.
type Aggregator struct {
	client  *curius.Client
	gateway *cache.Gateway
	logger  *zap.Logger
}

// NewAggregator builds an aggregator over the upstream client and cache
// gateway.
func NewAggregator(client *curius.Client, gateway *cache.Gateway, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		client:  client,
		gateway: gateway,
		logger:  logger.Named("feed"),
	}
}

// Build merges the saved content of every follow edge into one feed:
// newest first, unique by content id, truncated to limit. Each item's
// SavedBy lists every resolved-graph user who saved it.
//
// Unlike the resolver, any failure here aborts the whole call: a feed with
// silently missing sources would misrepresent the network, and the caller
// cannot tell a sparse network from a half-failed fetch.
func (a *Aggregator) Build(ctx context.Context, edges []curius.FollowWithOrder, limit int) ([]curius.Content, error) {
	keys := make([]string, len(edges))
	for i, edge := range edges {
		keys[i] = curius.ContentKey(edge.FollowingUser.ID)
	}

	pages, err := cache.LookupMany[curius.LinkResponse](ctx, a.gateway, keys)
	if err != nil {
		return nil, apperrors.Wrap(err, "batch-reading content pages")
	}

	// Fetch the misses concurrently. GetContent is itself cache-aside, so
	// each fetch also repopulates the cache for the next build.
	group, groupCtx := errgroup.WithContext(ctx)
	missCount := 0
	for i := range edges {
		if pages[i] != nil {
			continue
		}
		missCount++
		i := i
		group.Go(func() error {
			page, err := a.client.GetContent(groupCtx, edges[i].FollowingUser.ID)
			if err != nil {
				return apperrors.PartialTask("feed.Build", "content fetch failed", err)
			}
			pages[i] = &page
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	a.logger.Debug("content pages assembled",
		zap.Int("sources", len(edges)),
		zap.Int("cacheMisses", missCount))

	// Flatten, stamping each item with the edge whose page produced it, and
	// accumulate the by-id union of saver edges across duplicates.
	var flat []curius.Content
	savedBy := make(map[int64][]curius.FollowWithOrder)
	for i, page := range pages {
		edge := edges[i]
		for _, item := range page.UserSaved {
			item.SavedBy = []curius.FollowWithOrder{edge}
			savedBy[item.ID] = append(savedBy[item.ID], edge)
			flat = append(flat, item)
		}
	}

	// Stable sort, newest first; dedup keeps the first occurrence after the
	// sort, so ties among equal timestamps go to whichever the stable sort
	// placed first.
	sort.SliceStable(flat, func(i, j int) bool {
		return flat[i].CreatedDate > flat[j].CreatedDate
	})

	seen := make(map[int64]bool, len(flat))
	deduped := flat[:0]
	for _, item := range flat {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		item.SavedBy = savedBy[item.ID]
		deduped = append(deduped, item)
	}

	if limit > 0 && len(deduped) > limit {
		deduped = deduped[:limit]
	}
	return deduped, nil
}
