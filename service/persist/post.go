package persist

import (
	"context"
	"fmt"
	"time"
)

// Visibility controls who may see a piece of content
type Visibility string

const (
	VisibilityPublic          Visibility = "PUBLIC"
	VisibilityFriends         Visibility = "FRIENDS"
	VisibilitySpecificFriends Visibility = "SPECIFIC_FRIENDS"
	VisibilityPrivate         Visibility = "PRIVATE"
)

// PostKind distinguishes the content types that share the post table
type PostKind string

const (
	PostKindPost PostKind = "post"
	PostKindPoll PostKind = "poll"
	PostKindReel PostKind = "reel"
	PostKindNews PostKind = "news"
)

// Post represents a piece of content. Counters are mutated by engagement
// handlers outside this core; within a single request a Post is immutable.
type Post struct {
	ID                 DBID       `json:"id"`
	AuthorID           DBID       `json:"author_id"`
	AuthorName         string     `json:"author_name"`
	CreatedAt          time.Time  `json:"created_at"`
	Visibility         Visibility `json:"visibility"`
	Kind               PostKind   `json:"kind"`
	Title              string     `json:"title"`
	Content            string     `json:"content"`
	Likes              int        `json:"likes"`
	Comments           int        `json:"comments"`
	Shares             int        `json:"shares"`
	Views              int        `json:"views"`
	AvgCompletionRatio *float64   `json:"avg_completion_ratio,omitempty"`
	ImageURL           string     `json:"image_url,omitempty"`
	ImageURLs          []string   `json:"image_urls,omitempty"`
	VideoURL           string     `json:"video_url,omitempty"`
	Hashtags           []string   `json:"hashtags,omitempty"`
	GroupID            DBID       `json:"group_id,omitempty"`
	SpecificViewerIDs  DBIDList   `json:"-"`
	PollOptions        []string   `json:"poll_options,omitempty"`
}

// HasMedia reports whether the post carries an image URL, a video URL, or a
// non-empty image list
func (p Post) HasMedia() bool {
	return p.ImageURL != "" || p.VideoURL != "" || len(p.ImageURLs) > 0
}

// IsReel reports whether the post is a reel with an actual video attached
func (p Post) IsReel() bool {
	return p.Kind == PostKindReel && p.VideoURL != ""
}

// SearchPostsParams filter posts whose content, title, comments, tagged
// friends, or author name contain the term. VisibleToID and FriendIDs let the
// store apply the eligibility rule (author, PUBLIC, FRIENDS with a friend
// author, SPECIFIC_FRIENDS with the requester allowed) inside the query.
type SearchPostsParams struct {
	Term          string
	CaseSensitive bool
	VisibleToID   DBID
	FriendIDs     DBIDList
	CreatedWithin Window
	Kind          *PostKind
	HasMedia      *bool
	Sort          PostSort
	Limit         int32
	Offset        int32
}

// PostSort selects the store-side ordering of a post query
type PostSort string

const (
	PostSortRecent    PostSort = "recent"
	PostSortPopular   PostSort = "popular"
	PostSortRelevance PostSort = "relevance"
)

// DiscoveryReelsParams bound the candidate pool for the discovery feed
type DiscoveryReelsParams struct {
	ExcludeAuthorID DBID
	MaxAge          time.Duration
	Limit           int32
}

// FollowingReelsParams page reels authored by the given users, newest first
type FollowingReelsParams struct {
	AuthorIDs DBIDList
	Skip      int32
	Take      int32
}

// HashtagReelsParams page reels carrying a hashtag with a keyset cursor
type HashtagReelsParams struct {
	Tag           string
	Limit         int32
	CurBeforeTime time.Time
	CurBeforeID   DBID
	CurAfterTime  time.Time
	CurAfterID    DBID
	PagingForward bool
	VisibleToID   DBID
}

// PostRepository represents the interface for interacting with the persisted state of posts
type PostRepository interface {
	GetByID(context.Context, DBID) (Post, error)
	SearchPosts(context.Context, SearchPostsParams) ([]Post, error)
	CountSearchPosts(context.Context, SearchPostsParams) (int, error)
	GetDiscoveryReels(context.Context, DiscoveryReelsParams) ([]Post, error)
	GetFollowingReels(context.Context, FollowingReelsParams) ([]Post, error)
	GetHashtagReels(context.Context, HashtagReelsParams) ([]Post, error)
}

// ErrPostNotFound is returned when a post is not found
type ErrPostNotFound struct {
	PostID DBID
}

func (e ErrPostNotFound) Error() string {
	return fmt.Sprintf("post not found: ID: %s", e.PostID)
}
