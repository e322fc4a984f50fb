// Package follow resolves the follow graph around a root user up to a
// bounded hop distance.
package follow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"curius-feed/internal/cache"
	"curius-feed/internal/curius"
)

// ListKey caches one resolved follow set per (root id, hop bound) pair.
func ListKey(rootID int64, maxOrder int) string {
	return fmt.Sprintf("follow_list:%d:%d", rootID, maxOrder)
}

// Resolver expands the "follows" relation recursively and concurrently.
// The algorithm itself is cache-agnostic; memoization happens in Resolve
// through the gateway, including for the intermediate recursive results.
type Resolver struct {
	client  *curius.Client
	gateway *cache.Gateway
	ttl     time.Duration
	logger  *zap.Logger
}

// NewResolver builds a resolver over the upstream client and cache gateway.
func NewResolver(client *curius.Client, gateway *cache.Gateway, ttl time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{
		client:  client,
		gateway: gateway,
		ttl:     ttl,
		logger:  logger.Named("follow"),
	}
}

// Resolve returns the deduplicated set of follow edges reachable from root
// within maxOrder hops. Each user id appears once, at the minimum hop
// distance it was discovered across all paths. The result is memoized under
// follow_list:{rootId}:{maxOrder}.
func (r *Resolver) Resolve(ctx context.Context, root curius.UserProfile, maxOrder int) ([]curius.FollowWithOrder, error) {
	if maxOrder < 0 {
		maxOrder = 0
	}
	return cache.Fetch(ctx, r.gateway, ListKey(root.ID, maxOrder), r.ttl,
		func(ctx context.Context) ([]curius.FollowWithOrder, error) {
			return r.expand(ctx, root, maxOrder)
		})
}

// expand is one level of the bounded-depth expansion. The root enters at
// order 0; every followee is resolved in its own goroutine at maxOrder-1
// and its edges are shifted one hop outward.
//
// A failing branch is logged and dropped rather than failing the whole
// resolution: one dead profile must not take down a multi-hop feed. This is
// deliberately looser than the gateway's batch-read policy, which aborts,
// because a dropped branch only widens the feed's blind spot while a silent
// hole in a batch read would corrupt it.
//
// No visited set is kept. Cycles cause redundant recomputation, bounded by
// maxOrder levels of fan-out, and the min-order dedup at each join keeps
// the result correct.
func (r *Resolver) expand(ctx context.Context, root curius.UserProfile, maxOrder int) ([]curius.FollowWithOrder, error) {
	result := []curius.FollowWithOrder{{FollowingUser: root.Ref(), Order: 0}}
	if maxOrder == 0 {
		return result, nil
	}

	branches := make([][]curius.FollowWithOrder, len(root.FollowingUsers))
	var wg sync.WaitGroup
	for i, followee := range root.FollowingUsers {
		wg.Add(1)
		go func(i int, followee curius.FollowingUser) {
			defer wg.Done()

			profile, err := r.client.GetUserProfile(ctx, followee.UserLink)
			if err != nil {
				r.logger.Warn("dropping follow branch: profile fetch failed",
					zap.String("userLink", followee.UserLink),
					zap.Error(err))
				return
			}
			edges, err := r.Resolve(ctx, profile, maxOrder-1)
			if err != nil {
				r.logger.Warn("dropping follow branch: recursive resolve failed",
					zap.String("userLink", followee.UserLink),
					zap.Error(err))
				return
			}
			shifted := make([]curius.FollowWithOrder, len(edges))
			for j, edge := range edges {
				edge.Order++
				shifted[j] = edge
			}
			branches[i] = shifted
		}(i, followee)
	}
	wg.Wait()

	for _, edges := range branches {
		result = append(result, edges...)
	}
	return dedupeMinOrder(result), nil
}

// dedupeMinOrder folds the candidate edges into a set keyed by user id,
// keeping the smallest order seen for each. First-seen slice order is
// preserved so output is deterministic for a given join order.
func dedupeMinOrder(edges []curius.FollowWithOrder) []curius.FollowWithOrder {
	byID := make(map[int64]int, len(edges))
	deduped := make([]curius.FollowWithOrder, 0, len(edges))
	for _, edge := range edges {
		if i, seen := byID[edge.FollowingUser.ID]; seen {
			if edge.Order < deduped[i].Order {
				deduped[i] = edge
			}
			continue
		}
		byID[edge.FollowingUser.ID] = len(deduped)
		deduped = append(deduped, edge)
	}
	return deduped
}
