package persist

import "context"

// Hashtag is a tag with its usage count across posts
type Hashtag struct {
	Name       string `json:"name"`
	UsageCount int    `json:"usage_count"`
}

// SearchHashtagsParams filter hashtags whose name contains the term
type SearchHashtagsParams struct {
	Term          string
	CaseSensitive bool
	Limit         int32
	Offset        int32
}

// HashtagRepository represents the interface for interacting with persisted hashtag usage
type HashtagRepository interface {
	SearchHashtags(context.Context, SearchHashtagsParams) ([]Hashtag, error)
	CountSearchHashtags(context.Context, SearchHashtagsParams) (int, error)
	TrendingHashtags(context.Context, int32) ([]Hashtag, error)
}
