package persist

import "context"

// Reaction is a requester's reaction to a post, e.g. "like" or "celebrate"
type Reaction string

// EngagementRepository covers the per-requester engagement lookups used to
// enrich feed and search results. These are secondary reads: callers treat a
// failure here as a degraded response, not a failed request.
type EngagementRepository interface {
	// RecentLikedAuthorIDs returns the authors of the user's most recent
	// likes, newest first, bounded by limit
	RecentLikedAuthorIDs(ctx context.Context, userID DBID, limit int32) (DBIDList, error)
	// SavedPostIDs reports which of the given posts the user has saved
	SavedPostIDs(ctx context.Context, userID DBID, postIDs DBIDList) (DBIDList, error)
	// ReactionsToPosts returns the user's reaction per post, keyed by post id
	ReactionsToPosts(ctx context.Context, userID DBID, postIDs DBIDList) (map[DBID]Reaction, error)
}
