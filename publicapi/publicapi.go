package publicapi

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/circleapp/go-circle/service/auth"
	"github.com/circleapp/go-circle/service/persist"
	"github.com/circleapp/go-circle/service/redis"
	"github.com/circleapp/go-circle/service/socialgraph"
	"github.com/circleapp/go-circle/util"
	"github.com/circleapp/go-circle/validate"
)

const apiContextKey = "publicapi.api"

type PublicAPI struct {
	repos     *persist.Repositories
	validator *validator.Validate
	Feed      *FeedAPI
	Search    *SearchAPI
}

// AddTo constructs a request-scoped PublicAPI and attaches it to the gin context
func AddTo(ctx *gin.Context, repos *persist.Repositories, caps persist.StoreCapabilities, cache *redis.Cache) {
	validator := newValidator()
	graph := socialgraph.NewResolver(repos.SocialRepository, repos.GroupRepository)

	api := &PublicAPI{
		repos:     repos,
		validator: validator,
		Feed:      &FeedAPI{repos: repos, graph: graph, validator: validator, cache: cache, rand: rand.New(rand.NewSource(time.Now().UnixNano()))},
		Search:    &SearchAPI{repos: repos, graph: graph, validator: validator, caps: caps},
	}

	ctx.Set(apiContextKey, api)
}

func For(ctx context.Context) *PublicAPI {
	gc := util.GinContextFromContext(ctx)
	return gc.Value(apiContextKey).(*PublicAPI)
}

func newValidator() *validator.Validate {
	v := validator.New()
	validate.RegisterCustomValidators(v)
	return v
}

func getAuthenticatedUserID(ctx context.Context) (persist.DBID, error) {
	gc := util.GinContextFromContext(ctx)

	if err := auth.GetAuthErrorFromCtx(gc); err != nil {
		return "", err
	}

	return auth.GetUserIDFromCtx(gc), nil
}

func trimmedTerm(term string) string {
	return strings.TrimSpace(validate.SanitizationPolicy.Sanitize(term))
}
