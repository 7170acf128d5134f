package publicapi

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/circleapp/go-circle/service/logger"
	"github.com/circleapp/go-circle/service/persist"
	"github.com/circleapp/go-circle/service/socialgraph"
	"github.com/circleapp/go-circle/validate"
)

const (
	defaultSearchLimit = 20

	// combinedTypeLimit caps each section when every entity type is
	// requested at once, to keep the combined envelope small
	combinedTypeLimit = 5
)

type SearchAPI struct {
	repos     *persist.Repositories
	graph     *socialgraph.Resolver
	validator *validator.Validate
	caps      persist.StoreCapabilities
}

// graphContext is the requester's social-graph state fetched once per search
// request and shared by every sub-search
type graphContext struct {
	requesterID     persist.DBID
	edges           []persist.SocialEdge
	friendIDs       map[persist.DBID]bool
	memberships     map[persist.DBID]persist.GroupRole
	pendingRequests map[persist.DBID]bool
}

// Search runs the requested sub-searches in parallel and merges them into a
// single counted envelope. A failure in any sub-search's primary query fails
// the whole request; enrichment failures degrade to neutral values.
func (api SearchAPI) Search(ctx context.Context, query SearchQuery) (SearchResultEnvelope, error) {
	requesterID, err := getAuthenticatedUserID(ctx)
	if err != nil {
		return SearchResultEnvelope{}, err
	}

	query.Term = trimmedTerm(query.Term)
	if query.Sort == "" {
		query.Sort = SearchSortRelevance
	}
	if query.Limit == 0 {
		query.Limit = defaultSearchLimit
	}

	if err := validate.ValidateFields(api.validator, validate.ValidationMap{
		"term":   validate.WithTag(query.Term, "required,min=2,max=256"),
		"limit":  validate.WithTag(query.Limit, "gte=1,lte=50"),
		"offset": validate.WithTag(query.Offset, "gte=0"),
		"sort":   validate.WithTag(string(query.Sort), "oneof=relevance recent popular"),
	}); err != nil {
		return SearchResultEnvelope{}, err
	}

	for _, entityType := range query.EntityTypes {
		if err := validate.ValidateFields(api.validator, validate.ValidationMap{
			"types": validate.WithTag(string(entityType), "oneof=users posts groups hashtags"),
		}); err != nil {
			return SearchResultEnvelope{}, err
		}
	}

	graph, err := api.loadGraphContext(ctx, requesterID)
	if err != nil {
		return SearchResultEnvelope{}, err
	}

	// When every type is requested, each section gets a small fixed cap and
	// offsets don't apply; a single-type search gets the full page window.
	limit, offset := combinedTypeLimit, 0
	if query.singleType() {
		limit, offset = query.Limit, query.Offset
	}

	var envelope SearchResultEnvelope

	eg, gctx := errgroup.WithContext(ctx)

	if query.wantsType(SearchEntityUsers) {
		eg.Go(func() error {
			section, err := api.searchUsers(gctx, query, graph, limit, offset)
			if err != nil {
				return err
			}
			envelope.Users = section
			return nil
		})
	}

	if query.wantsType(SearchEntityPosts) {
		eg.Go(func() error {
			section, err := api.searchPosts(gctx, query, graph, limit, offset)
			if err != nil {
				return err
			}
			envelope.Posts = section
			return nil
		})
	}

	if query.wantsType(SearchEntityGroups) {
		eg.Go(func() error {
			section, err := api.searchGroups(gctx, query, graph, limit, offset)
			if err != nil {
				return err
			}
			envelope.Groups = section
			return nil
		})
	}

	if query.wantsType(SearchEntityHashtags) {
		eg.Go(func() error {
			section, err := api.searchHashtags(gctx, query, limit, offset)
			if err != nil {
				return err
			}
			envelope.Hashtags = section
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return SearchResultEnvelope{}, err
	}

	if envelope.Users.Results == nil {
		envelope.Users.Results = []UserResult{}
	}
	if envelope.Posts.Results == nil {
		envelope.Posts.Results = []PostResult{}
	}
	if envelope.Groups.Results == nil {
		envelope.Groups.Results = []GroupResult{}
	}
	if envelope.Hashtags.Results == nil {
		envelope.Hashtags.Results = []persist.Hashtag{}
	}

	envelope.TotalResults = envelope.Users.Total + envelope.Posts.Total + envelope.Groups.Total + envelope.Hashtags.Total

	return envelope, nil
}

// loadGraphContext fetches the requester's edges, memberships, and open join
// requests concurrently. Visibility filtering needs these before any content
// fetch, so this completes before the sub-searches start.
func (api SearchAPI) loadGraphContext(ctx context.Context, requesterID persist.DBID) (graphContext, error) {
	graph := graphContext{requesterID: requesterID}

	eg, gctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		edges, err := api.repos.SocialRepository.EdgesTouching(gctx, requesterID)
		if err != nil {
			return err
		}
		graph.edges = edges
		graph.friendIDs = socialgraph.FriendSet(requesterID, edges)
		return nil
	})

	eg.Go(func() error {
		memberships, err := api.graph.MembershipsFor(gctx, requesterID)
		if err != nil {
			return err
		}
		graph.memberships = memberships
		return nil
	})

	eg.Go(func() error {
		pending, err := api.repos.GroupRepository.PendingJoinRequestsForUser(gctx, requesterID)
		if err != nil {
			// Join requests only refine membership display; degrade to none.
			logger.For(gctx).Warnf("search: pending join request lookup failed: %s", err)
			graph.pendingRequests = map[persist.DBID]bool{}
			return nil
		}
		graph.pendingRequests = persist.DBIDSet(pending)
		return nil
	})

	if err := eg.Wait(); err != nil {
		return graphContext{}, err
	}

	return graph, nil
}

func (api SearchAPI) caseSensitive() bool {
	return !api.caps.SupportsCaseInsensitiveContains
}

func (api SearchAPI) searchUsers(ctx context.Context, query SearchQuery, graph graphContext, limit, offset int) (ResultSection[UserResult], error) {
	var section ResultSection[UserResult]

	params := persist.SearchUsersParams{
		Term:          query.Term,
		CaseSensitive: api.caseSensitive(),
		Limit:         int32(limit) + 1,
		Offset:        int32(offset),
	}

	var users []persist.User
	eg, gctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		users, err = api.repos.UserRepository.SearchUsers(gctx, params)
		return err
	})

	eg.Go(func() error {
		var err error
		section.Total, err = api.repos.UserRepository.CountSearchUsers(gctx, params)
		return err
	})

	if err := eg.Wait(); err != nil {
		return section, err
	}

	page, hasMore := pageSlice(users, limit)
	section.HasMore = hasMore

	// One batch edge fetch covers every candidate's friend set; mutual
	// counts are then in-memory intersections instead of a round trip per
	// candidate.
	candidateIDs := make(persist.DBIDList, len(page))
	for i, u := range page {
		candidateIDs[i] = u.ID
	}

	var candidateEdges []persist.SocialEdge
	if len(candidateIDs) > 0 {
		var err error
		candidateEdges, err = api.repos.SocialRepository.EdgesTouchingMany(ctx, candidateIDs)
		if err != nil {
			logger.For(ctx).Warnf("search: mutual connection lookup failed, defaulting to zero: %s", err)
			candidateEdges = nil
		}
	}

	section.Results = make([]UserResult, len(page))
	for i, u := range page {
		candidateFriends := socialgraph.FriendSet(u.ID, candidateEdges)
		section.Results[i] = UserResult{
			User:              u,
			ConnectionStatus:  socialgraph.StatusBetween(graph.requesterID, u.ID, graph.edges),
			MutualConnections: socialgraph.MutualCount(graph.friendIDs, candidateFriends),
			TotalConnections:  len(candidateFriends),
		}
	}

	switch query.Sort {
	case SearchSortRecent:
		sort.SliceStable(section.Results, func(i, j int) bool {
			return section.Results[i].User.CreatedAt.After(section.Results[j].User.CreatedAt)
		})
	default:
		// relevance and popular both rank by connectedness to the requester
		sort.SliceStable(section.Results, func(i, j int) bool {
			return userRelevance(section.Results[i]) > userRelevance(section.Results[j])
		})
	}

	return section, nil
}

func userRelevance(r UserResult) int {
	return r.MutualConnections*10 + r.TotalConnections
}

func (api SearchAPI) searchPosts(ctx context.Context, query SearchQuery, graph graphContext, limit, offset int) (ResultSection[PostResult], error) {
	var section ResultSection[PostResult]

	friendIDs := make(persist.DBIDList, 0, len(graph.friendIDs))
	for id := range graph.friendIDs {
		friendIDs = append(friendIDs, id)
	}

	params := persist.SearchPostsParams{
		Term:          query.Term,
		CaseSensitive: api.caseSensitive(),
		VisibleToID:   graph.requesterID,
		FriendIDs:     friendIDs,
		Kind:          query.PostKind,
		HasMedia:      query.HasMedia,
		Sort:          searchSortToPostSort(query.Sort),
		Limit:         int32(limit) + 1,
		Offset:        int32(offset),
	}
	if query.DateFrom != nil {
		params.CreatedWithin.From = *query.DateFrom
	}
	if query.DateTo != nil {
		params.CreatedWithin.To = *query.DateTo
	}

	var posts []persist.Post
	eg, gctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		posts, err = api.repos.PostRepository.SearchPosts(gctx, params)
		return err
	})

	eg.Go(func() error {
		var err error
		section.Total, err = api.repos.PostRepository.CountSearchPosts(gctx, params)
		return err
	})

	if err := eg.Wait(); err != nil {
		return section, err
	}

	// The store already applied the eligibility rule, but nothing leaves
	// this function without passing it here too.
	posts = api.filterVisible(ctx, posts, graph)

	page, hasMore := pageSlice(posts, limit)
	section.HasMore = hasMore

	postIDs := make(persist.DBIDList, len(page))
	for i, p := range page {
		postIDs[i] = p.ID
	}

	saved, reactions := api.postEngagement(ctx, graph.requesterID, postIDs)

	section.Results = make([]PostResult, len(page))
	for i, p := range page {
		section.Results[i] = PostResult{
			Post:                p,
			Snippet:             contentSnippet(p.Content, query.Term),
			IsSaved:             saved[p.ID],
			CurrentUserReaction: reactions[p.ID],
		}
	}

	return section, nil
}

// filterVisible drops anything the requester may not see. Posts in groups
// need the group's privacy, fetched in one batch; a group that can't be
// resolved leaves its posts hidden unless the requester is a member.
func (api SearchAPI) filterVisible(ctx context.Context, posts []persist.Post, graph graphContext) []persist.Post {
	groupIDs := make(persist.DBIDList, 0)
	seen := map[persist.DBID]bool{}
	for _, p := range posts {
		if p.GroupID != "" && !seen[p.GroupID] {
			seen[p.GroupID] = true
			groupIDs = append(groupIDs, p.GroupID)
		}
	}

	groupPrivacy := map[persist.DBID]persist.GroupPrivacy{}
	if len(groupIDs) > 0 {
		groups, err := api.repos.GroupRepository.GetByIDs(ctx, groupIDs)
		if err != nil {
			logger.For(ctx).Warnf("search: group privacy lookup failed, treating groups as private: %s", err)
		} else {
			for _, g := range groups {
				groupPrivacy[g.ID] = g.Privacy
			}
		}
	}

	memberGroupIDs := make(map[persist.DBID]bool, len(graph.memberships))
	for id := range graph.memberships {
		memberGroupIDs[id] = true
	}

	in := socialgraph.VisibilityInputs{
		RequesterID:    graph.requesterID,
		FriendIDs:      graph.friendIDs,
		MemberGroupIDs: memberGroupIDs,
		GroupPrivacy:   groupPrivacy,
	}

	visible := posts[:0]
	for _, p := range posts {
		if socialgraph.IsVisible(p, in) {
			visible = append(visible, p)
		}
	}
	return visible
}

// postEngagement looks up saved/reaction state for the page. Both lookups
// are enrichment; failures log and fall back to neutral values.
func (api SearchAPI) postEngagement(ctx context.Context, requesterID persist.DBID, postIDs persist.DBIDList) (map[persist.DBID]bool, map[persist.DBID]persist.Reaction) {
	saved := map[persist.DBID]bool{}
	reactions := map[persist.DBID]persist.Reaction{}

	if len(postIDs) == 0 {
		return saved, reactions
	}

	savedIDs, err := api.repos.EngagementRepository.SavedPostIDs(ctx, requesterID, postIDs)
	if err != nil {
		logger.For(ctx).Warnf("search: saved post lookup failed: %s", err)
	} else {
		saved = persist.DBIDSet(savedIDs)
	}

	reactions, err = api.repos.EngagementRepository.ReactionsToPosts(ctx, requesterID, postIDs)
	if err != nil {
		logger.For(ctx).Warnf("search: reaction lookup failed: %s", err)
		reactions = map[persist.DBID]persist.Reaction{}
	}

	return saved, reactions
}

func searchSortToPostSort(sort SearchSort) persist.PostSort {
	switch sort {
	case SearchSortRecent:
		return persist.PostSortRecent
	case SearchSortPopular:
		return persist.PostSortPopular
	default:
		return persist.PostSortRelevance
	}
}

func (api SearchAPI) searchGroups(ctx context.Context, query SearchQuery, graph graphContext, limit, offset int) (ResultSection[GroupResult], error) {
	var section ResultSection[GroupResult]

	memberGroupIDs := make(persist.DBIDList, 0, len(graph.memberships))
	for id := range graph.memberships {
		memberGroupIDs = append(memberGroupIDs, id)
	}

	params := persist.SearchGroupsParams{
		Term:           query.Term,
		CaseSensitive:  api.caseSensitive(),
		VisibleToID:    graph.requesterID,
		MemberGroupIDs: memberGroupIDs,
		Privacy:        query.GroupPrivacy,
		Limit:          int32(limit) + 1,
		Offset:         int32(offset),
	}

	var groups []persist.Group
	eg, gctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		groups, err = api.repos.GroupRepository.SearchGroups(gctx, params)
		return err
	})

	eg.Go(func() error {
		var err error
		section.Total, err = api.repos.GroupRepository.CountSearchGroups(gctx, params)
		return err
	})

	if err := eg.Wait(); err != nil {
		return section, err
	}

	page, hasMore := pageSlice(groups, limit)
	section.HasMore = hasMore

	section.Results = make([]GroupResult, len(page))
	for i, g := range page {
		section.Results[i] = GroupResult{
			Group:            g,
			MembershipStatus: membershipStatus(g.ID, graph),
		}
	}

	switch query.Sort {
	case SearchSortRecent:
		sort.SliceStable(section.Results, func(i, j int) bool {
			return section.Results[i].Group.CreatedAt.After(section.Results[j].Group.CreatedAt)
		})
	default:
		// The store can't order by a derived member count, so the fetched
		// page is sorted here.
		sort.SliceStable(section.Results, func(i, j int) bool {
			return section.Results[i].Group.MemberCount > section.Results[j].Group.MemberCount
		})
	}

	return section, nil
}

func membershipStatus(groupID persist.DBID, graph graphContext) MembershipStatus {
	if role, ok := graph.memberships[groupID]; ok {
		switch role {
		case persist.GroupRoleAdmin:
			return MembershipAdmin
		case persist.GroupRoleModerator:
			return MembershipModerator
		default:
			return MembershipMember
		}
	}
	if graph.pendingRequests[groupID] {
		return MembershipPending
	}
	return MembershipNone
}

func (api SearchAPI) searchHashtags(ctx context.Context, query SearchQuery, limit, offset int) (ResultSection[persist.Hashtag], error) {
	var section ResultSection[persist.Hashtag]

	params := persist.SearchHashtagsParams{
		Term:          query.Term,
		CaseSensitive: api.caseSensitive(),
		Limit:         int32(limit) + 1,
		Offset:        int32(offset),
	}

	var tags []persist.Hashtag
	eg, gctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		tags, err = api.repos.HashtagRepository.SearchHashtags(gctx, params)
		return err
	})

	eg.Go(func() error {
		var err error
		section.Total, err = api.repos.HashtagRepository.CountSearchHashtags(gctx, params)
		return err
	})

	if err := eg.Wait(); err != nil {
		return section, err
	}

	page, hasMore := pageSlice(tags, limit)
	section.HasMore = hasMore

	if query.Sort != SearchSortRecent {
		sort.SliceStable(page, func(i, j int) bool {
			return page[i].UsageCount > page[j].UsageCount
		})
	}

	section.Results = page
	return section, nil
}

const (
	snippetMaxLength = 200
	snippetLeadIn    = 50
	snippetEllipsis  = "..."
)

// contentSnippet produces the display excerpt for a post hit. Content at or
// under the max length passes through untouched. Otherwise the excerpt is
// anchored just ahead of the first case-insensitive occurrence of the term,
// with leading and trailing ellipses marking the cut edges. Lengths are
// counted in runes so multibyte content is never cut mid-character.
func contentSnippet(content, term string) string {
	runes := []rune(content)
	if len(runes) <= snippetMaxLength {
		return content
	}

	idx := strings.Index(strings.ToLower(content), strings.ToLower(term))

	start, prefix := 0, ""
	if idx > 0 {
		matchStart := utf8.RuneCountInString(content[:idx])
		if matchStart > snippetLeadIn {
			start = matchStart - snippetLeadIn
			prefix = snippetEllipsis
		}
	}

	snippet := runes[start:]
	suffix := ""
	if len(snippet) > snippetMaxLength {
		snippet = snippet[:snippetMaxLength]
		suffix = snippetEllipsis
	}

	return prefix + string(snippet) + suffix
}
