package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/circleapp/go-circle/service/auth"
	"github.com/circleapp/go-circle/service/logger"
	"github.com/circleapp/go-circle/service/persist"
	sentryutil "github.com/circleapp/go-circle/service/sentry"
	"github.com/circleapp/go-circle/util"
)

// requesterIDHeader is set by the identity layer in front of this service
const requesterIDHeader = "X-Requester-ID"

// AddAuthToContext resolves the requester identity delivered by the identity
// layer and rejects banned requesters. Ban state is re-read per request;
// moderation actions must take effect immediately.
func AddAuthToContext(users persist.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		requesterID := persist.DBID(c.GetHeader(requesterIDHeader))

		if requesterID == "" {
			auth.SetAuthStateForCtx(c, "", auth.ErrNoIdentity)
			c.Next()
			return
		}

		user, err := users.GetByID(c.Request.Context(), requesterID)
		if err != nil {
			// An unknown requester is an identity problem; a store failure
			// is ours and must not masquerade as one.
			var notFound persist.ErrUserNotFound
			if errors.As(err, &notFound) {
				auth.SetAuthStateForCtx(c, "", auth.ErrNoIdentity)
				c.Next()
				return
			}
			c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, util.ErrorResponse{Error: "something went wrong"})
			return
		}

		if user.IsBanned {
			auth.SetAuthStateForCtx(c, "", auth.ErrUserBanned)
			c.Next()
			return
		}

		auth.SetAuthStateForCtx(c, requesterID, nil)

		// Add the requester to all subsequent logging for this request
		loggerCtx := logger.NewContextWithFields(c.Request.Context(), logrus.Fields{
			"requesterId": requesterID,
		})
		c.Request = c.Request.WithContext(loggerCtx)

		c.Next()
	}
}

// AuthRequired aborts with a 401 when no requester identity resolved
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.GetAuthErrorFromCtx(c); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, util.ErrorResponse{Error: err.Error()})
			return
		}
		c.Next()
	}
}

// GinContextToContext adds the gin context to the request context so it can
// be retrieved downstream
func GinContextToContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), util.GinContextKey, c)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ErrLogger is a middleware that logs errors
func ErrLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.For(c).Errorf("%s %s %s %s", c.Request.Method, c.Request.URL, c.ClientIP(), c.Errors.JSON())
		}
	}
}

// Sentry clones a hub per request and reports gin errors after the handler chain
func Sentry(reportGinErrors bool) gin.HandlerFunc {
	handler := sentrygin.New(sentrygin.Options{Repanic: true})

	return func(c *gin.Context) {
		hub := sentry.CurrentHub().Clone()
		c.Request = c.Request.WithContext(sentry.SetHubOnContext(c.Request.Context(), hub))

		// sentrygin calls c.Next() for us
		handler(c)

		if reportGinErrors {
			for _, err := range c.Errors {
				sentryutil.ReportError(c.Request.Context(), err)
			}
		}
	}
}
