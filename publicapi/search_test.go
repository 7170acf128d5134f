package publicapi

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circleapp/go-circle/service/persist"
	"github.com/circleapp/go-circle/service/socialgraph"
	"github.com/circleapp/go-circle/validate"
)

func TestSearchValidation(t *testing.T) {
	ctx := authedContext(t, requesterID)

	newGuardedAPI := func(t *testing.T) SearchAPI {
		stubs := newStubRepositories()
		stubs.users.searchUsers = func(context.Context, persist.SearchUsersParams) ([]persist.User, error) {
			t.Error("store must not be queried for invalid input")
			return nil, nil
		}
		stubs.posts.searchPosts = func(context.Context, persist.SearchPostsParams) ([]persist.Post, error) {
			t.Error("store must not be queried for invalid input")
			return nil, nil
		}
		return newTestSearchAPI(stubs)
	}

	t.Run("terms under two characters never reach the store", func(t *testing.T) {
		api := newGuardedAPI(t)
		_, err := api.Search(ctx, SearchQuery{Term: "a"})
		assert.ErrorAs(t, err, &validate.ErrInvalidFields{})
	})

	t.Run("whitespace padding does not rescue a short term", func(t *testing.T) {
		api := newGuardedAPI(t)
		_, err := api.Search(ctx, SearchQuery{Term: "  a  "})
		assert.ErrorAs(t, err, &validate.ErrInvalidFields{})
	})

	t.Run("empty and oversized terms rejected", func(t *testing.T) {
		api := newGuardedAPI(t)

		_, err := api.Search(ctx, SearchQuery{Term: ""})
		assert.ErrorAs(t, err, &validate.ErrInvalidFields{})

		_, err = api.Search(ctx, SearchQuery{Term: strings.Repeat("x", 300)})
		assert.ErrorAs(t, err, &validate.ErrInvalidFields{})
	})

	t.Run("markup is stripped before validation", func(t *testing.T) {
		api := newGuardedAPI(t)
		_, err := api.Search(ctx, SearchQuery{Term: "<script>alert(1)</script>"})
		assert.ErrorAs(t, err, &validate.ErrInvalidFields{})
	})

	t.Run("negative offset and bad sort rejected", func(t *testing.T) {
		api := newGuardedAPI(t)

		_, err := api.Search(ctx, SearchQuery{Term: "golang", Offset: -1})
		assert.ErrorAs(t, err, &validate.ErrInvalidFields{})

		_, err = api.Search(ctx, SearchQuery{Term: "golang", Sort: "loudest"})
		assert.ErrorAs(t, err, &validate.ErrInvalidFields{})
	})

	t.Run("unknown entity types rejected", func(t *testing.T) {
		api := newGuardedAPI(t)

		_, err := api.Search(ctx, SearchQuery{
			Term:        "golang",
			EntityTypes: []SearchEntityType{"bogus"},
		})
		assert.ErrorAs(t, err, &validate.ErrInvalidFields{})

		_, err = api.Search(ctx, SearchQuery{
			Term:        "golang",
			EntityTypes: []SearchEntityType{SearchEntityPosts, "reels"},
		})
		assert.ErrorAs(t, err, &validate.ErrInvalidFields{})
	})
}

func TestSearchEnvelope(t *testing.T) {
	ctx := authedContext(t, requesterID)

	t.Run("no matches anywhere yields an empty counted envelope", func(t *testing.T) {
		api := newTestSearchAPI(newStubRepositories())

		envelope, err := api.Search(ctx, SearchQuery{Term: "xyzzy"})
		require.NoError(t, err)

		assert.Empty(t, envelope.Users.Results)
		assert.Empty(t, envelope.Posts.Results)
		assert.Empty(t, envelope.Groups.Results)
		assert.Empty(t, envelope.Hashtags.Results)
		assert.Equal(t, 0, envelope.TotalResults)

		// Sections are present with empty slices, never nil
		assert.NotNil(t, envelope.Users.Results)
		assert.NotNil(t, envelope.Hashtags.Results)
	})

	t.Run("all-types searches cap each section at five", func(t *testing.T) {
		stubs := newStubRepositories()
		stubs.hashtags.searchHashtags = func(_ context.Context, p persist.SearchHashtagsParams) ([]persist.Hashtag, error) {
			assert.Equal(t, int32(combinedTypeLimit+1), p.Limit)
			assert.Equal(t, int32(0), p.Offset)

			tags := make([]persist.Hashtag, p.Limit)
			for i := range tags {
				tags[i] = persist.Hashtag{Name: fmt.Sprintf("tag-%d", i), UsageCount: 100 - i}
			}
			return tags, nil
		}
		stubs.hashtags.countSearchHashtags = func(context.Context, persist.SearchHashtagsParams) (int, error) {
			return 37, nil
		}

		api := newTestSearchAPI(stubs)
		envelope, err := api.Search(ctx, SearchQuery{Term: "tag", Offset: 4})
		require.NoError(t, err)

		assert.Len(t, envelope.Hashtags.Results, combinedTypeLimit)
		assert.True(t, envelope.Hashtags.HasMore)
		assert.Equal(t, 37, envelope.Hashtags.Total)
	})

	t.Run("single-type searches honor limit and offset", func(t *testing.T) {
		stubs := newStubRepositories()
		stubs.hashtags.searchHashtags = func(_ context.Context, p persist.SearchHashtagsParams) ([]persist.Hashtag, error) {
			assert.Equal(t, int32(11), p.Limit)
			assert.Equal(t, int32(20), p.Offset)
			return []persist.Hashtag{{Name: "golang"}}, nil
		}

		api := newTestSearchAPI(stubs)
		envelope, err := api.Search(ctx, SearchQuery{
			Term:        "golang",
			EntityTypes: []SearchEntityType{SearchEntityHashtags},
			Limit:       10,
			Offset:      20,
		})
		require.NoError(t, err)

		assert.Len(t, envelope.Hashtags.Results, 1)
		assert.False(t, envelope.Hashtags.HasMore)
	})

	t.Run("unrequested types are skipped entirely", func(t *testing.T) {
		stubs := newStubRepositories()
		stubs.users.searchUsers = func(context.Context, persist.SearchUsersParams) ([]persist.User, error) {
			t.Error("users were not requested")
			return nil, nil
		}

		api := newTestSearchAPI(stubs)
		_, err := api.Search(ctx, SearchQuery{
			Term:        "golang",
			EntityTypes: []SearchEntityType{SearchEntityPosts},
		})
		require.NoError(t, err)
	})

	t.Run("a failing primary sub-search fails the request", func(t *testing.T) {
		stubs := newStubRepositories()
		stubs.groups.searchGroups = func(context.Context, persist.SearchGroupsParams) ([]persist.Group, error) {
			return nil, fmt.Errorf("groups table on fire")
		}

		api := newTestSearchAPI(stubs)
		_, err := api.Search(ctx, SearchQuery{Term: "golang"})
		assert.Error(t, err)
	})

	t.Run("totals sum across sections", func(t *testing.T) {
		stubs := newStubRepositories()
		stubs.users.countSearchUsers = func(context.Context, persist.SearchUsersParams) (int, error) { return 3, nil }
		stubs.posts.countSearchPosts = func(context.Context, persist.SearchPostsParams) (int, error) { return 14, nil }
		stubs.groups.countSearchGroups = func(context.Context, persist.SearchGroupsParams) (int, error) { return 1, nil }
		stubs.hashtags.countSearchHashtags = func(context.Context, persist.SearchHashtagsParams) (int, error) { return 5, nil }

		api := newTestSearchAPI(stubs)
		envelope, err := api.Search(ctx, SearchQuery{Term: "golang"})
		require.NoError(t, err)

		assert.Equal(t, 23, envelope.TotalResults)
	})
}

func TestSearchUsers(t *testing.T) {
	ctx := authedContext(t, requesterID)

	t.Run("enriches hits with connection state and mutuals", func(t *testing.T) {
		// requester -- friend-shared -- candidate: one mutual connection.
		// requester -> candidate has a pending request outstanding.
		stubs := newStubRepositories()
		stubs.users.searchUsers = func(context.Context, persist.SearchUsersParams) ([]persist.User, error) {
			return []persist.User{{ID: "candidate", Name: "Jordan Oak"}}, nil
		}
		stubs.users.countSearchUsers = func(context.Context, persist.SearchUsersParams) (int, error) { return 1, nil }
		stubs.social.edgesTouching = func(context.Context, persist.DBID) ([]persist.SocialEdge, error) {
			return []persist.SocialEdge{
				acceptedEdge(requesterID, "friend-shared"),
				{SenderID: requesterID, ReceiverID: "candidate", Status: persist.EdgeStatusPending},
			}, nil
		}
		stubs.social.edgesTouchingMany = func(_ context.Context, ids persist.DBIDList) ([]persist.SocialEdge, error) {
			assert.Equal(t, persist.DBIDList{"candidate"}, ids)
			return []persist.SocialEdge{
				acceptedEdge("candidate", "friend-shared"),
				acceptedEdge("candidate", "someone-else"),
			}, nil
		}

		api := newTestSearchAPI(stubs)
		envelope, err := api.Search(ctx, SearchQuery{
			Term:        "jordan",
			EntityTypes: []SearchEntityType{SearchEntityUsers},
		})
		require.NoError(t, err)

		require.Len(t, envelope.Users.Results, 1)
		hit := envelope.Users.Results[0]
		assert.Equal(t, socialgraph.SentPending, hit.ConnectionStatus)
		assert.Equal(t, 1, hit.MutualConnections)
		assert.Equal(t, 2, hit.TotalConnections)
	})

	t.Run("mutual lookup failure degrades to zero", func(t *testing.T) {
		stubs := newStubRepositories()
		stubs.users.searchUsers = func(context.Context, persist.SearchUsersParams) ([]persist.User, error) {
			return []persist.User{{ID: "candidate"}}, nil
		}
		stubs.social.edgesTouchingMany = func(context.Context, persist.DBIDList) ([]persist.SocialEdge, error) {
			return nil, fmt.Errorf("edges table on fire")
		}

		api := newTestSearchAPI(stubs)
		envelope, err := api.Search(ctx, SearchQuery{
			Term:        "jordan",
			EntityTypes: []SearchEntityType{SearchEntityUsers},
		})
		require.NoError(t, err)

		require.Len(t, envelope.Users.Results, 1)
		assert.Equal(t, 0, envelope.Users.Results[0].MutualConnections)
		assert.Equal(t, socialgraph.NotConnected, envelope.Users.Results[0].ConnectionStatus)
	})

	t.Run("relevance ranks more-connected candidates first", func(t *testing.T) {
		stubs := newStubRepositories()
		stubs.users.searchUsers = func(context.Context, persist.SearchUsersParams) ([]persist.User, error) {
			return []persist.User{{ID: "loner"}, {ID: "connector"}}, nil
		}
		stubs.social.edgesTouching = func(context.Context, persist.DBID) ([]persist.SocialEdge, error) {
			return []persist.SocialEdge{acceptedEdge(requesterID, "friend-shared")}, nil
		}
		stubs.social.edgesTouchingMany = func(context.Context, persist.DBIDList) ([]persist.SocialEdge, error) {
			return []persist.SocialEdge{acceptedEdge("connector", "friend-shared")}, nil
		}

		api := newTestSearchAPI(stubs)
		envelope, err := api.Search(ctx, SearchQuery{
			Term:        "jordan",
			EntityTypes: []SearchEntityType{SearchEntityUsers},
		})
		require.NoError(t, err)

		require.Len(t, envelope.Users.Results, 2)
		assert.Equal(t, persist.DBID("connector"), envelope.Users.Results[0].User.ID)
	})
}

func TestSearchPosts(t *testing.T) {
	ctx := authedContext(t, requesterID)

	t.Run("friends-only post by a non-friend never escapes", func(t *testing.T) {
		// The store should have filtered this already; the in-process check
		// is the last line of defense when it didn't.
		stubs := newStubRepositories()
		stubs.posts.searchPosts = func(context.Context, persist.SearchPostsParams) ([]persist.Post, error) {
			return []persist.Post{
				{ID: "leaked", AuthorID: "stranger", Visibility: persist.VisibilityFriends, Content: "golang meetup"},
				{ID: "fine", AuthorID: "stranger", Visibility: persist.VisibilityPublic, Content: "golang meetup"},
			}, nil
		}

		api := newTestSearchAPI(stubs)
		envelope, err := api.Search(ctx, SearchQuery{
			Term:        "golang",
			EntityTypes: []SearchEntityType{SearchEntityPosts},
		})
		require.NoError(t, err)

		require.Len(t, envelope.Posts.Results, 1)
		assert.Equal(t, persist.DBID("fine"), envelope.Posts.Results[0].Post.ID)
	})

	t.Run("private posts are author-only even inside a public group", func(t *testing.T) {
		stubs := newStubRepositories()
		stubs.posts.searchPosts = func(context.Context, persist.SearchPostsParams) ([]persist.Post, error) {
			return []persist.Post{
				{ID: "private-in-group", AuthorID: "stranger", Visibility: persist.VisibilityPrivate, GroupID: "g1", Content: "golang"},
			}, nil
		}
		stubs.groups.getByIDs = func(context.Context, []persist.DBID) ([]persist.Group, error) {
			return []persist.Group{{ID: "g1", Privacy: persist.GroupPrivacyPublic}}, nil
		}

		api := newTestSearchAPI(stubs)
		envelope, err := api.Search(ctx, SearchQuery{
			Term:        "golang",
			EntityTypes: []SearchEntityType{SearchEntityPosts},
		})
		require.NoError(t, err)
		assert.Empty(t, envelope.Posts.Results)
	})

	t.Run("friend visibility honors the requester's edges", func(t *testing.T) {
		stubs := newStubRepositories()
		stubs.social.edgesTouching = func(context.Context, persist.DBID) ([]persist.SocialEdge, error) {
			return []persist.SocialEdge{acceptedEdge("author-friend", requesterID)}, nil
		}
		stubs.posts.searchPosts = func(_ context.Context, p persist.SearchPostsParams) ([]persist.Post, error) {
			assert.Equal(t, requesterID, p.VisibleToID)
			assert.Contains(t, p.FriendIDs, persist.DBID("author-friend"))
			return []persist.Post{
				{ID: "from-friend", AuthorID: "author-friend", Visibility: persist.VisibilityFriends, Content: "golang"},
			}, nil
		}

		api := newTestSearchAPI(stubs)
		envelope, err := api.Search(ctx, SearchQuery{
			Term:        "golang",
			EntityTypes: []SearchEntityType{SearchEntityPosts},
		})
		require.NoError(t, err)
		require.Len(t, envelope.Posts.Results, 1)
	})

	t.Run("enriches with snippet, saved state, and reaction", func(t *testing.T) {
		long := strings.Repeat("x", 120) + "golang" + strings.Repeat("y", 150)

		stubs := newStubRepositories()
		stubs.posts.searchPosts = func(context.Context, persist.SearchPostsParams) ([]persist.Post, error) {
			return []persist.Post{{ID: "p1", AuthorID: requesterID, Content: long}}, nil
		}
		stubs.engagement.savedPostIDs = func(context.Context, persist.DBID, persist.DBIDList) (persist.DBIDList, error) {
			return persist.DBIDList{"p1"}, nil
		}
		stubs.engagement.reactionsToPosts = func(context.Context, persist.DBID, persist.DBIDList) (map[persist.DBID]persist.Reaction, error) {
			return map[persist.DBID]persist.Reaction{"p1": "celebrate"}, nil
		}

		api := newTestSearchAPI(stubs)
		envelope, err := api.Search(ctx, SearchQuery{
			Term:        "golang",
			EntityTypes: []SearchEntityType{SearchEntityPosts},
		})
		require.NoError(t, err)

		require.Len(t, envelope.Posts.Results, 1)
		hit := envelope.Posts.Results[0]
		assert.True(t, hit.IsSaved)
		assert.Equal(t, persist.Reaction("celebrate"), hit.CurrentUserReaction)
		assert.True(t, strings.HasPrefix(hit.Snippet, snippetEllipsis))
		assert.Contains(t, hit.Snippet, "golang")
	})

	t.Run("engagement lookup failure degrades to neutral", func(t *testing.T) {
		stubs := newStubRepositories()
		stubs.posts.searchPosts = func(context.Context, persist.SearchPostsParams) ([]persist.Post, error) {
			return []persist.Post{{ID: "p1", AuthorID: requesterID, Content: "golang"}}, nil
		}
		stubs.engagement.savedPostIDs = func(context.Context, persist.DBID, persist.DBIDList) (persist.DBIDList, error) {
			return nil, fmt.Errorf("saved table on fire")
		}
		stubs.engagement.reactionsToPosts = func(context.Context, persist.DBID, persist.DBIDList) (map[persist.DBID]persist.Reaction, error) {
			return nil, fmt.Errorf("reactions table on fire")
		}

		api := newTestSearchAPI(stubs)
		envelope, err := api.Search(ctx, SearchQuery{
			Term:        "golang",
			EntityTypes: []SearchEntityType{SearchEntityPosts},
		})
		require.NoError(t, err)

		require.Len(t, envelope.Posts.Results, 1)
		assert.False(t, envelope.Posts.Results[0].IsSaved)
		assert.Empty(t, envelope.Posts.Results[0].CurrentUserReaction)
	})

	t.Run("date window and filters are forwarded to the store", func(t *testing.T) {
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		kind := persist.PostKindReel
		hasMedia := true

		stubs := newStubRepositories()
		stubs.posts.searchPosts = func(_ context.Context, p persist.SearchPostsParams) ([]persist.Post, error) {
			assert.True(t, p.CreatedWithin.From.Equal(from))
			assert.Equal(t, &kind, p.Kind)
			assert.Equal(t, &hasMedia, p.HasMedia)
			assert.Equal(t, persist.PostSortRecent, p.Sort)
			return []persist.Post{}, nil
		}

		api := newTestSearchAPI(stubs)
		_, err := api.Search(ctx, SearchQuery{
			Term:        "golang",
			EntityTypes: []SearchEntityType{SearchEntityPosts},
			Sort:        SearchSortRecent,
			DateFrom:    &from,
			PostKind:    &kind,
			HasMedia:    &hasMedia,
		})
		require.NoError(t, err)
	})
}

func TestSearchGroups(t *testing.T) {
	ctx := authedContext(t, requesterID)

	t.Run("membership status reflects role and pending requests", func(t *testing.T) {
		stubs := newStubRepositories()
		stubs.groups.searchGroups = func(context.Context, persist.SearchGroupsParams) ([]persist.Group, error) {
			return []persist.Group{
				{ID: "g-admin", MemberCount: 10},
				{ID: "g-member", MemberCount: 10},
				{ID: "g-pending", MemberCount: 10},
				{ID: "g-none", MemberCount: 10},
			}, nil
		}
		stubs.groups.memberships = func(context.Context, persist.DBID) ([]persist.GroupMembership, error) {
			return []persist.GroupMembership{
				{UserID: requesterID, GroupID: "g-admin", Role: persist.GroupRoleAdmin},
				{UserID: requesterID, GroupID: "g-member", Role: persist.GroupRoleMember},
			}, nil
		}
		stubs.groups.pendingRequests = func(context.Context, persist.DBID) (persist.DBIDList, error) {
			return persist.DBIDList{"g-pending"}, nil
		}

		api := newTestSearchAPI(stubs)
		envelope, err := api.Search(ctx, SearchQuery{
			Term:        "engineers",
			EntityTypes: []SearchEntityType{SearchEntityGroups},
		})
		require.NoError(t, err)

		require.Len(t, envelope.Groups.Results, 4)
		byID := map[persist.DBID]MembershipStatus{}
		for _, g := range envelope.Groups.Results {
			byID[g.Group.ID] = g.MembershipStatus
		}
		assert.Equal(t, MembershipAdmin, byID["g-admin"])
		assert.Equal(t, MembershipMember, byID["g-member"])
		assert.Equal(t, MembershipPending, byID["g-pending"])
		assert.Equal(t, MembershipNone, byID["g-none"])
	})

	t.Run("default sort ranks bigger groups first", func(t *testing.T) {
		stubs := newStubRepositories()
		stubs.groups.searchGroups = func(context.Context, persist.SearchGroupsParams) ([]persist.Group, error) {
			return []persist.Group{
				{ID: "small", MemberCount: 3},
				{ID: "big", MemberCount: 4000},
			}, nil
		}

		api := newTestSearchAPI(stubs)
		envelope, err := api.Search(ctx, SearchQuery{
			Term:        "engineers",
			EntityTypes: []SearchEntityType{SearchEntityGroups},
		})
		require.NoError(t, err)

		require.Len(t, envelope.Groups.Results, 2)
		assert.Equal(t, persist.DBID("big"), envelope.Groups.Results[0].Group.ID)
	})

	t.Run("pending request lookup failure degrades to no status", func(t *testing.T) {
		stubs := newStubRepositories()
		stubs.groups.searchGroups = func(context.Context, persist.SearchGroupsParams) ([]persist.Group, error) {
			return []persist.Group{{ID: "g1"}}, nil
		}
		stubs.groups.pendingRequests = func(context.Context, persist.DBID) (persist.DBIDList, error) {
			return nil, fmt.Errorf("join requests table on fire")
		}

		api := newTestSearchAPI(stubs)
		envelope, err := api.Search(ctx, SearchQuery{
			Term:        "engineers",
			EntityTypes: []SearchEntityType{SearchEntityGroups},
		})
		require.NoError(t, err)

		require.Len(t, envelope.Groups.Results, 1)
		assert.Equal(t, MembershipNone, envelope.Groups.Results[0].MembershipStatus)
	})
}

func TestSearchOrderingIdempotent(t *testing.T) {
	ctx := authedContext(t, requesterID)

	// A fixed candidate set with ties on every ranking key, so ordering has
	// no tie-break help from the data itself.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	newFixedAPI := func() SearchAPI {
		stubs := newStubRepositories()
		stubs.users.searchUsers = func(context.Context, persist.SearchUsersParams) ([]persist.User, error) {
			return []persist.User{
				{ID: "user-a", CreatedAt: base},
				{ID: "user-b", CreatedAt: base},
				{ID: "user-c", CreatedAt: base.Add(time.Hour)},
			}, nil
		}
		stubs.groups.searchGroups = func(context.Context, persist.SearchGroupsParams) ([]persist.Group, error) {
			return []persist.Group{
				{ID: "group-a", MemberCount: 10, CreatedAt: base},
				{ID: "group-b", MemberCount: 10, CreatedAt: base},
				{ID: "group-c", MemberCount: 25, CreatedAt: base},
			}, nil
		}
		stubs.hashtags.searchHashtags = func(context.Context, persist.SearchHashtagsParams) ([]persist.Hashtag, error) {
			return []persist.Hashtag{
				{Name: "tag-a", UsageCount: 7},
				{Name: "tag-b", UsageCount: 7},
				{Name: "tag-c", UsageCount: 9},
			}, nil
		}
		return newTestSearchAPI(stubs)
	}

	resultOrder := func(envelope SearchResultEnvelope) []string {
		var order []string
		for _, u := range envelope.Users.Results {
			order = append(order, u.User.ID.String())
		}
		for _, g := range envelope.Groups.Results {
			order = append(order, g.Group.ID.String())
		}
		for _, h := range envelope.Hashtags.Results {
			order = append(order, h.Name)
		}
		return order
	}

	for _, sortBy := range []SearchSort{SearchSortRecent, SearchSortPopular} {
		t.Run(string(sortBy)+" re-runs return identical order", func(t *testing.T) {
			query := SearchQuery{Term: "golang", Sort: sortBy}

			first, err := newFixedAPI().Search(ctx, query)
			require.NoError(t, err)

			second, err := newFixedAPI().Search(ctx, query)
			require.NoError(t, err)

			assert.Equal(t, resultOrder(first), resultOrder(second))
			assert.NotEmpty(t, resultOrder(first))
		})
	}
}

func TestContentSnippet(t *testing.T) {
	t.Run("short content passes through untouched", func(t *testing.T) {
		assert.Equal(t, "a short post", contentSnippet("a short post", "short"))
	})

	t.Run("content at exactly the limit passes through", func(t *testing.T) {
		content := strings.Repeat("a", snippetMaxLength)
		assert.Equal(t, content, contentSnippet(content, "aaa"))
	})

	t.Run("long content anchors ahead of the match", func(t *testing.T) {
		content := strings.Repeat("x", 120) + "Golang" + strings.Repeat("y", 150)

		snippet := contentSnippet(content, "golang")

		assert.True(t, strings.HasPrefix(snippet, snippetEllipsis))
		assert.True(t, strings.HasSuffix(snippet, snippetEllipsis))

		body := strings.TrimSuffix(strings.TrimPrefix(snippet, snippetEllipsis), snippetEllipsis)
		assert.Len(t, body, snippetMaxLength)

		// The excerpt starts snippetLeadIn characters before the match
		start := 120 - snippetLeadIn
		assert.Equal(t, content[start:start+snippetMaxLength], body)
		assert.Contains(t, body, "Golang")
	})

	t.Run("match near the start keeps the head without a leading ellipsis", func(t *testing.T) {
		content := "golang " + strings.Repeat("z", 300)

		snippet := contentSnippet(content, "golang")

		assert.True(t, strings.HasPrefix(snippet, "golang"))
		assert.True(t, strings.HasSuffix(snippet, snippetEllipsis))
		assert.Len(t, snippet, snippetMaxLength+len(snippetEllipsis))
	})

	t.Run("term missing from content truncates from the head", func(t *testing.T) {
		content := strings.Repeat("q", 300)

		snippet := contentSnippet(content, "golang")

		assert.False(t, strings.HasPrefix(snippet, snippetEllipsis))
		assert.Len(t, snippet, snippetMaxLength+len(snippetEllipsis))
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		content := strings.Repeat("x", 100) + "GOLANG" + strings.Repeat("y", 150)
		snippet := contentSnippet(content, "golang")
		assert.Contains(t, snippet, "GOLANG")
	})

	t.Run("multibyte content is never cut mid-rune", func(t *testing.T) {
		content := strings.Repeat("héllo wörld ", 30)

		snippet := contentSnippet(content, "golang")

		assert.True(t, utf8.ValidString(snippet))
		assert.Equal(t, snippetMaxLength, utf8.RuneCountInString(strings.TrimSuffix(snippet, snippetEllipsis)))
	})

	t.Run("multibyte content at the character limit passes through", func(t *testing.T) {
		// Two hundred characters but well over two hundred bytes
		content := strings.Repeat("日", snippetMaxLength)
		assert.Equal(t, content, contentSnippet(content, "日日"))
	})

	t.Run("anchoring counts characters, not bytes, around a multibyte match", func(t *testing.T) {
		content := strings.Repeat("日", 120) + "Golang" + strings.Repeat("本", 150)

		snippet := contentSnippet(content, "golang")

		require.True(t, utf8.ValidString(snippet))
		assert.True(t, strings.HasPrefix(snippet, snippetEllipsis))
		assert.Contains(t, snippet, "Golang")

		body := strings.TrimSuffix(strings.TrimPrefix(snippet, snippetEllipsis), snippetEllipsis)
		assert.Equal(t, snippetMaxLength, utf8.RuneCountInString(body))

		// The excerpt starts snippetLeadIn characters before the match
		assert.True(t, strings.HasPrefix(body, strings.Repeat("日", snippetLeadIn)+"Golang"))
	})
}
