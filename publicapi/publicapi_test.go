package publicapi

import (
	"context"
	"math/rand"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/circleapp/go-circle/service/auth"
	"github.com/circleapp/go-circle/service/persist"
	"github.com/circleapp/go-circle/service/socialgraph"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// authedContext returns a context carrying the given requester identity, the
// way the auth middleware would set it up for a real request
func authedContext(t *testing.T, userID persist.DBID) context.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	auth.SetAuthStateForCtx(c, userID, nil)
	return c
}

func unauthedContext(t *testing.T) context.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	auth.SetAuthStateForCtx(c, "", auth.ErrNoIdentity)
	return c
}

// Stub gateways with overridable function fields. Methods without an override
// return empty results so tests only wire up what they exercise.

type stubUserRepo struct {
	searchUsers      func(context.Context, persist.SearchUsersParams) ([]persist.User, error)
	countSearchUsers func(context.Context, persist.SearchUsersParams) (int, error)
}

func (s *stubUserRepo) GetByID(ctx context.Context, id persist.DBID) (persist.User, error) {
	return persist.User{}, persist.ErrUserNotFound{UserID: id}
}

func (s *stubUserRepo) GetByIDs(ctx context.Context, ids []persist.DBID) ([]persist.User, error) {
	return []persist.User{}, nil
}

func (s *stubUserRepo) SearchUsers(ctx context.Context, p persist.SearchUsersParams) ([]persist.User, error) {
	if s.searchUsers != nil {
		return s.searchUsers(ctx, p)
	}
	return []persist.User{}, nil
}

func (s *stubUserRepo) CountSearchUsers(ctx context.Context, p persist.SearchUsersParams) (int, error) {
	if s.countSearchUsers != nil {
		return s.countSearchUsers(ctx, p)
	}
	return 0, nil
}

type stubPostRepo struct {
	searchPosts       func(context.Context, persist.SearchPostsParams) ([]persist.Post, error)
	countSearchPosts  func(context.Context, persist.SearchPostsParams) (int, error)
	getDiscoveryReels func(context.Context, persist.DiscoveryReelsParams) ([]persist.Post, error)
	getFollowingReels func(context.Context, persist.FollowingReelsParams) ([]persist.Post, error)
	getHashtagReels   func(context.Context, persist.HashtagReelsParams) ([]persist.Post, error)
}

func (s *stubPostRepo) GetByID(ctx context.Context, id persist.DBID) (persist.Post, error) {
	return persist.Post{}, persist.ErrPostNotFound{PostID: id}
}

func (s *stubPostRepo) SearchPosts(ctx context.Context, p persist.SearchPostsParams) ([]persist.Post, error) {
	if s.searchPosts != nil {
		return s.searchPosts(ctx, p)
	}
	return []persist.Post{}, nil
}

func (s *stubPostRepo) CountSearchPosts(ctx context.Context, p persist.SearchPostsParams) (int, error) {
	if s.countSearchPosts != nil {
		return s.countSearchPosts(ctx, p)
	}
	return 0, nil
}

func (s *stubPostRepo) GetDiscoveryReels(ctx context.Context, p persist.DiscoveryReelsParams) ([]persist.Post, error) {
	if s.getDiscoveryReels != nil {
		return s.getDiscoveryReels(ctx, p)
	}
	return []persist.Post{}, nil
}

func (s *stubPostRepo) GetFollowingReels(ctx context.Context, p persist.FollowingReelsParams) ([]persist.Post, error) {
	if s.getFollowingReels != nil {
		return s.getFollowingReels(ctx, p)
	}
	return []persist.Post{}, nil
}

func (s *stubPostRepo) GetHashtagReels(ctx context.Context, p persist.HashtagReelsParams) ([]persist.Post, error) {
	if s.getHashtagReels != nil {
		return s.getHashtagReels(ctx, p)
	}
	return []persist.Post{}, nil
}

type stubSocialRepo struct {
	edgesTouching     func(context.Context, persist.DBID) ([]persist.SocialEdge, error)
	edgesTouchingMany func(context.Context, persist.DBIDList) ([]persist.SocialEdge, error)
}

func (s *stubSocialRepo) EdgesTouching(ctx context.Context, id persist.DBID) ([]persist.SocialEdge, error) {
	if s.edgesTouching != nil {
		return s.edgesTouching(ctx, id)
	}
	return []persist.SocialEdge{}, nil
}

func (s *stubSocialRepo) EdgesTouchingMany(ctx context.Context, ids persist.DBIDList) ([]persist.SocialEdge, error) {
	if s.edgesTouchingMany != nil {
		return s.edgesTouchingMany(ctx, ids)
	}
	return []persist.SocialEdge{}, nil
}

type stubGroupRepo struct {
	getByIDs          func(context.Context, []persist.DBID) ([]persist.Group, error)
	searchGroups      func(context.Context, persist.SearchGroupsParams) ([]persist.Group, error)
	countSearchGroups func(context.Context, persist.SearchGroupsParams) (int, error)
	memberships       func(context.Context, persist.DBID) ([]persist.GroupMembership, error)
	pendingRequests   func(context.Context, persist.DBID) (persist.DBIDList, error)
}

func (s *stubGroupRepo) GetByID(ctx context.Context, id persist.DBID) (persist.Group, error) {
	return persist.Group{}, persist.ErrGroupNotFound{GroupID: id}
}

func (s *stubGroupRepo) GetByIDs(ctx context.Context, ids []persist.DBID) ([]persist.Group, error) {
	if s.getByIDs != nil {
		return s.getByIDs(ctx, ids)
	}
	return []persist.Group{}, nil
}

func (s *stubGroupRepo) SearchGroups(ctx context.Context, p persist.SearchGroupsParams) ([]persist.Group, error) {
	if s.searchGroups != nil {
		return s.searchGroups(ctx, p)
	}
	return []persist.Group{}, nil
}

func (s *stubGroupRepo) CountSearchGroups(ctx context.Context, p persist.SearchGroupsParams) (int, error) {
	if s.countSearchGroups != nil {
		return s.countSearchGroups(ctx, p)
	}
	return 0, nil
}

func (s *stubGroupRepo) MembershipsForUser(ctx context.Context, id persist.DBID) ([]persist.GroupMembership, error) {
	if s.memberships != nil {
		return s.memberships(ctx, id)
	}
	return []persist.GroupMembership{}, nil
}

func (s *stubGroupRepo) PendingJoinRequestsForUser(ctx context.Context, id persist.DBID) (persist.DBIDList, error) {
	if s.pendingRequests != nil {
		return s.pendingRequests(ctx, id)
	}
	return persist.DBIDList{}, nil
}

type stubHashtagRepo struct {
	searchHashtags      func(context.Context, persist.SearchHashtagsParams) ([]persist.Hashtag, error)
	countSearchHashtags func(context.Context, persist.SearchHashtagsParams) (int, error)
	trendingHashtags    func(context.Context, int32) ([]persist.Hashtag, error)
}

func (s *stubHashtagRepo) SearchHashtags(ctx context.Context, p persist.SearchHashtagsParams) ([]persist.Hashtag, error) {
	if s.searchHashtags != nil {
		return s.searchHashtags(ctx, p)
	}
	return []persist.Hashtag{}, nil
}

func (s *stubHashtagRepo) CountSearchHashtags(ctx context.Context, p persist.SearchHashtagsParams) (int, error) {
	if s.countSearchHashtags != nil {
		return s.countSearchHashtags(ctx, p)
	}
	return 0, nil
}

func (s *stubHashtagRepo) TrendingHashtags(ctx context.Context, limit int32) ([]persist.Hashtag, error) {
	if s.trendingHashtags != nil {
		return s.trendingHashtags(ctx, limit)
	}
	return []persist.Hashtag{}, nil
}

type stubEngagementRepo struct {
	recentLikedAuthorIDs func(context.Context, persist.DBID, int32) (persist.DBIDList, error)
	savedPostIDs         func(context.Context, persist.DBID, persist.DBIDList) (persist.DBIDList, error)
	reactionsToPosts     func(context.Context, persist.DBID, persist.DBIDList) (map[persist.DBID]persist.Reaction, error)
}

func (s *stubEngagementRepo) RecentLikedAuthorIDs(ctx context.Context, userID persist.DBID, limit int32) (persist.DBIDList, error) {
	if s.recentLikedAuthorIDs != nil {
		return s.recentLikedAuthorIDs(ctx, userID, limit)
	}
	return persist.DBIDList{}, nil
}

func (s *stubEngagementRepo) SavedPostIDs(ctx context.Context, userID persist.DBID, postIDs persist.DBIDList) (persist.DBIDList, error) {
	if s.savedPostIDs != nil {
		return s.savedPostIDs(ctx, userID, postIDs)
	}
	return persist.DBIDList{}, nil
}

func (s *stubEngagementRepo) ReactionsToPosts(ctx context.Context, userID persist.DBID, postIDs persist.DBIDList) (map[persist.DBID]persist.Reaction, error) {
	if s.reactionsToPosts != nil {
		return s.reactionsToPosts(ctx, userID, postIDs)
	}
	return map[persist.DBID]persist.Reaction{}, nil
}

// stubRepositories wires fresh stubs into a Repositories the APIs accept
type stubRepositories struct {
	users      *stubUserRepo
	posts      *stubPostRepo
	social     *stubSocialRepo
	groups     *stubGroupRepo
	hashtags   *stubHashtagRepo
	engagement *stubEngagementRepo
}

func newStubRepositories() stubRepositories {
	return stubRepositories{
		users:      &stubUserRepo{},
		posts:      &stubPostRepo{},
		social:     &stubSocialRepo{},
		groups:     &stubGroupRepo{},
		hashtags:   &stubHashtagRepo{},
		engagement: &stubEngagementRepo{},
	}
}

func (s stubRepositories) repositories() *persist.Repositories {
	return &persist.Repositories{
		UserRepository:       s.users,
		PostRepository:       s.posts,
		SocialRepository:     s.social,
		GroupRepository:      s.groups,
		HashtagRepository:    s.hashtags,
		EngagementRepository: s.engagement,
	}
}

func newTestFeedAPI(stubs stubRepositories, seed int64) FeedAPI {
	repos := stubs.repositories()
	return FeedAPI{
		repos:     repos,
		graph:     socialgraph.NewResolver(repos.SocialRepository, repos.GroupRepository),
		validator: newValidator(),
		rand:      rand.New(rand.NewSource(seed)),
	}
}

func newTestSearchAPI(stubs stubRepositories) SearchAPI {
	repos := stubs.repositories()
	return SearchAPI{
		repos:     repos,
		graph:     socialgraph.NewResolver(repos.SocialRepository, repos.GroupRepository),
		validator: newValidator(),
		caps:      persist.StoreCapabilities{SupportsCaseInsensitiveContains: true},
	}
}
