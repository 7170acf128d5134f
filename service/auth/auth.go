// Package auth carries the requester identity contract. Session mechanics
// live in the surrounding platform; this core only needs the requester id
// and whether it resolved, delivered by middleware from the identity layer.
package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/circleapp/go-circle/service/persist"
)

const (
	userIDContextKey    = "auth.auth_user_id"
	authErrorContextKey = "auth.auth_error"
)

// ErrNoIdentity is returned when the request carries no requester identity
var ErrNoIdentity = errors.New("no requester identity on request")

// ErrUserBanned is returned when the identity layer flags the requester as banned
var ErrUserBanned = errors.New("requester is banned")

// SetAuthStateForCtx stores the resolved identity (or the resolution error)
// on the gin context
func SetAuthStateForCtx(c *gin.Context, userID persist.DBID, err error) {
	c.Set(userIDContextKey, userID)
	c.Set(authErrorContextKey, err)
}

// GetUserIDFromCtx returns the requester id resolved by the auth middleware
func GetUserIDFromCtx(c *gin.Context) persist.DBID {
	return c.MustGet(userIDContextKey).(persist.DBID)
}

// GetAuthErrorFromCtx returns the auth resolution error, nil when authenticated
func GetAuthErrorFromCtx(c *gin.Context) error {
	err := c.MustGet(authErrorContextKey)
	if err == nil {
		return nil
	}
	return err.(error)
}
