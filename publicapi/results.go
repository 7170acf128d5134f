package publicapi

import (
	"time"

	"github.com/circleapp/go-circle/service/persist"
	"github.com/circleapp/go-circle/service/socialgraph"
	"github.com/circleapp/go-circle/util"
)

// SearchEntityType names one searchable collection
type SearchEntityType string

const (
	SearchEntityUsers    SearchEntityType = "users"
	SearchEntityPosts    SearchEntityType = "posts"
	SearchEntityGroups   SearchEntityType = "groups"
	SearchEntityHashtags SearchEntityType = "hashtags"
)

// SearchSort selects the ordering of search results
type SearchSort string

const (
	SearchSortRelevance SearchSort = "relevance"
	SearchSortRecent    SearchSort = "recent"
	SearchSortPopular   SearchSort = "popular"
)

// MembershipStatus is the requester-relative relationship to a group
type MembershipStatus string

const (
	MembershipAdmin     MembershipStatus = "ADMIN"
	MembershipModerator MembershipStatus = "MODERATOR"
	MembershipMember    MembershipStatus = "MEMBER"
	MembershipPending   MembershipStatus = "PENDING"
	MembershipNone      MembershipStatus = "NOT_MEMBER"
)

// SearchQuery is the normalized search request. Constructed fresh per
// request; never persisted.
type SearchQuery struct {
	Term         string
	EntityTypes  []SearchEntityType
	Sort         SearchSort
	Limit        int
	Offset       int
	DateFrom     *time.Time
	DateTo       *time.Time
	PostKind     *persist.PostKind
	HasMedia     *bool
	GroupPrivacy *persist.GroupPrivacy
}

func (q SearchQuery) wantsType(t SearchEntityType) bool {
	if len(q.EntityTypes) == 0 {
		return true
	}
	return util.Contains(q.EntityTypes, t)
}

func (q SearchQuery) singleType() bool {
	return len(q.EntityTypes) == 1
}

// UserResult is a user hit enriched with requester-relative fields. All
// enriched fields are required; enrichment failures degrade them to neutral
// values rather than omitting them.
type UserResult struct {
	User              persist.User                 `json:"user"`
	ConnectionStatus  socialgraph.ConnectionStatus `json:"connection_status"`
	MutualConnections int                          `json:"mutual_connections"`
	TotalConnections  int                          `json:"total_connections"`
}

// PostResult is a post hit with its display snippet and requester-relative fields
type PostResult struct {
	Post                persist.Post     `json:"post"`
	Snippet             string           `json:"snippet"`
	IsSaved             bool             `json:"is_saved"`
	CurrentUserReaction persist.Reaction `json:"current_user_reaction,omitempty"`
}

// GroupResult is a group hit with the requester's membership status
type GroupResult struct {
	Group            persist.Group    `json:"group"`
	MembershipStatus MembershipStatus `json:"membership_status"`
}

// ResultSection is one entity type's slice of a search response
type ResultSection[T any] struct {
	Results []T  `json:"results"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// SearchResultEnvelope is the combined, counted response across entity types
type SearchResultEnvelope struct {
	Users        ResultSection[UserResult]      `json:"users"`
	Posts        ResultSection[PostResult]      `json:"posts"`
	Groups       ResultSection[GroupResult]     `json:"groups"`
	Hashtags     ResultSection[persist.Hashtag] `json:"hashtags"`
	TotalResults int                            `json:"total_results"`
}
