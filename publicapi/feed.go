package publicapi

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/circleapp/go-circle/service/logger"
	"github.com/circleapp/go-circle/service/persist"
	"github.com/circleapp/go-circle/service/redis"
	"github.com/circleapp/go-circle/service/socialgraph"
	"github.com/circleapp/go-circle/util"
	"github.com/circleapp/go-circle/validate"
)

// FeedMode selects how the reel feed is assembled
type FeedMode string

const (
	// FeedModeForYou is the scored discovery feed
	FeedModeForYou FeedMode = "for-you"
	// FeedModeFollowing is a reverse-chronological feed of connected authors
	FeedModeFollowing FeedMode = "following"
)

const (
	// discoveryPoolSize bounds the candidate pool fetched before scoring
	discoveryPoolSize = 200
	// discoveryWindow drops candidates older than this before they ever
	// reach the scorer
	discoveryWindow = 30 * 24 * time.Hour
	// topSliceSize is how many leading candidates get randomized
	topSliceSize = 50
	// affinitySampleSize bounds the recent-likes sample used for the
	// affinity bonus
	affinitySampleSize = 100
)

type FeedAPI struct {
	repos     *persist.Repositories
	graph     *socialgraph.Resolver
	validator *validator.Validate
	cache     *redis.Cache
	rand      *rand.Rand
}

// FeedPage is one page of reels plus the paging signal and the mode echoed back
type FeedPage struct {
	Reels   []persist.Post `json:"reels"`
	HasMore bool           `json:"has_more"`
	Mode    FeedMode       `json:"mode"`
}

// PaginateFollowingFeed returns reels authored by the requester's
// connections, newest first. No scoring.
func (api FeedAPI) PaginateFollowingFeed(ctx context.Context, skip, take int) (FeedPage, error) {
	userID, err := getAuthenticatedUserID(ctx)
	if err != nil {
		return FeedPage{}, err
	}

	if err := validate.ValidateFields(api.validator, validate.ValidationMap{
		"skip": validate.WithTag(skip, "gte=0"),
		"take": validate.WithTag(take, "gte=1,lte=50"),
	}); err != nil {
		return FeedPage{}, err
	}

	friendIDs, err := api.graph.FriendIDsFor(ctx, userID)
	if err != nil {
		return FeedPage{}, err
	}

	authorIDs := make(persist.DBIDList, 0, len(friendIDs))
	for id := range friendIDs {
		authorIDs = append(authorIDs, id)
	}

	if len(authorIDs) == 0 {
		return FeedPage{Reels: []persist.Post{}, Mode: FeedModeFollowing}, nil
	}

	reels, err := api.repos.PostRepository.GetFollowingReels(ctx, persist.FollowingReelsParams{
		AuthorIDs: authorIDs,
		Skip:      int32(skip),
		Take:      int32(take) + 1,
	})
	if err != nil {
		return FeedPage{}, err
	}

	page, hasMore := pageSlice(reels, take)
	return FeedPage{Reels: page, HasMore: hasMore, Mode: FeedModeFollowing}, nil
}

// PaginateDiscoveryFeed returns the scored "for you" reel feed. Candidates
// are fetched as a bounded pool, scored, sorted, lightly randomized at the
// top, then paged with skip/take.
//
// startFrom moves that reel to the front of the already-paged window when
// present; when the id fell outside the window this is a silent no-op rather
// than a re-query, so a resumed reel is only surfaced if it still ranks into
// the page.
func (api FeedAPI) PaginateDiscoveryFeed(ctx context.Context, skip, take int, startFrom *persist.DBID) (FeedPage, error) {
	userID, err := getAuthenticatedUserID(ctx)
	if err != nil {
		return FeedPage{}, err
	}

	if err := validate.ValidateFields(api.validator, validate.ValidationMap{
		"skip": validate.WithTag(skip, "gte=0"),
		"take": validate.WithTag(take, "gte=1,lte=50"),
	}); err != nil {
		return FeedPage{}, err
	}

	var (
		affinity   affinitySet
		candidates []persist.Post
	)

	eg, gctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var poolErr error
		candidates, poolErr = api.discoveryCandidates(gctx)
		return poolErr
	})

	eg.Go(func() error {
		// Affinity is enrichment: losing it degrades ranking, not the request.
		likedAuthors, err := api.repos.EngagementRepository.RecentLikedAuthorIDs(gctx, userID, affinitySampleSize)
		if err != nil {
			logger.For(gctx).Warnf("discovery feed: affinity lookup failed, scoring without it: %s", err)
			affinity = affinitySet{}
			return nil
		}
		affinity = affinitySet(persist.DBIDSet(likedAuthors))
		return nil
	})

	if err := eg.Wait(); err != nil {
		return FeedPage{}, err
	}

	ranked := api.rankCandidates(candidates, userID, affinity)

	if skip >= len(ranked) {
		return FeedPage{Reels: []persist.Post{}, Mode: FeedModeForYou}, nil
	}

	end := skip + take + 1
	if end > len(ranked) {
		end = len(ranked)
	}

	page, hasMore := pageSlice(ranked[skip:end], take)

	if startFrom != nil {
		page = promoteToFront(page, *startFrom)
	}

	return FeedPage{Reels: page, HasMore: hasMore, Mode: FeedModeForYou}, nil
}

// discoveryCandidates loads the bounded public reel pool, lazily cached so
// bursts of feed requests don't hammer the store. The pool is
// requester-agnostic; per-requester filtering happens after the load.
func (api FeedAPI) discoveryCandidates(ctx context.Context) ([]persist.Post, error) {
	l := redis.LazyCache{
		Cache: api.cache,
		Key:   "discovery:reels:pool",
		TTL:   time.Minute,
		CalcFunc: func(ctx context.Context) ([]byte, error) {
			pool, err := api.repos.PostRepository.GetDiscoveryReels(ctx, persist.DiscoveryReelsParams{
				MaxAge: discoveryWindow,
				Limit:  discoveryPoolSize,
			})
			if err != nil {
				return nil, err
			}
			return json.Marshal(pool)
		},
	}

	b, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}

	var pool []persist.Post
	if err := json.Unmarshal(b, &pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// rankCandidates filters, scores, sorts, and randomizes the candidate pool
// for one requester
func (api FeedAPI) rankCandidates(candidates []persist.Post, userID persist.DBID, affinity affinitySet) []persist.Post {
	now := time.Now()

	type rankedCandidate struct {
		post  persist.Post
		score float64
	}

	scored := make([]rankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.AuthorID == userID || !c.IsReel() {
			continue
		}
		scored = append(scored, rankedCandidate{
			post:  c,
			score: engagementScore(c, affinity[c.AuthorID], now),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	ranked := make([]persist.Post, len(scored))
	for i, s := range scored {
		ranked[i] = s.post
	}

	top := topSliceSize
	if top > len(ranked) {
		top = len(ranked)
	}
	boundedShuffle(ranked[:top], maxShuffleWindow, api.rand)

	return ranked
}

// promoteToFront moves the reel with the given id to the head of the page.
// Page-local: the id not being present is not an error.
func promoteToFront(page []persist.Post, id persist.DBID) []persist.Post {
	for i, post := range page {
		if post.ID == id {
			promoted := append([]persist.Post{post}, page[:i]...)
			return append(promoted, page[i+1:]...)
		}
	}
	return page
}

// PaginateHashtagReels pages the reels carrying a hashtag with an opaque
// time+id cursor, newest first
func (api FeedAPI) PaginateHashtagReels(ctx context.Context, tag string, before, after *string, first, last *int) ([]any, PageInfo, error) {
	userID, err := getAuthenticatedUserID(ctx)
	if err != nil {
		return nil, PageInfo{}, err
	}

	if err := validate.ValidateFields(api.validator, validate.ValidationMap{
		"tag": validate.WithTag(tag, "required"),
	}); err != nil {
		return nil, PageInfo{}, err
	}

	if err := validatePaginationParams(api.validator, first, last); err != nil {
		return nil, PageInfo{}, err
	}

	queryFunc := func(params timeIDPagingParams) ([]any, error) {
		reels, err := api.repos.PostRepository.GetHashtagReels(ctx, persist.HashtagReelsParams{
			Tag:           tag,
			Limit:         params.Limit,
			CurBeforeTime: params.CursorBeforeTime,
			CurBeforeID:   params.CursorBeforeID,
			CurAfterTime:  params.CursorAfterTime,
			CurAfterID:    params.CursorAfterID,
			PagingForward: params.PagingForward,
			VisibleToID:   userID,
		})
		if err != nil {
			return nil, err
		}

		return util.Map(reels, func(p persist.Post) (any, error) {
			return p, nil
		})
	}

	paginator := timeIDPaginator{
		QueryFunc: queryFunc,
		CursorFunc: func(node any) (time.Time, persist.DBID, error) {
			post, ok := node.(persist.Post)
			if !ok {
				return time.Time{}, "", persist.ErrPostNotFound{}
			}
			return post.CreatedAt, post.ID, nil
		},
	}

	return paginator.paginate(before, after, first, last)
}

// TrendingHashtags returns the most-used hashtags, lazily cached the same
// way the discovery pool is
func (api FeedAPI) TrendingHashtags(ctx context.Context, limit int) ([]persist.Hashtag, error) {
	if err := validate.ValidateFields(api.validator, validate.ValidationMap{
		"limit": validate.WithTag(limit, "gte=1,lte=50"),
	}); err != nil {
		return nil, err
	}

	l := redis.LazyCache{
		Cache: api.cache,
		Key:   "trending:hashtags",
		TTL:   time.Minute * 10,
		CalcFunc: func(ctx context.Context) ([]byte, error) {
			tags, err := api.repos.HashtagRepository.TrendingHashtags(ctx, 50)
			if err != nil {
				return nil, err
			}
			return json.Marshal(tags)
		},
	}

	b, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}

	var tags []persist.Hashtag
	if err := json.Unmarshal(b, &tags); err != nil {
		return nil, err
	}

	if limit < len(tags) {
		tags = tags[:limit]
	}
	return tags, nil
}
