package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/circleapp/go-circle/service/auth"
	"github.com/circleapp/go-circle/util"
	"github.com/circleapp/go-circle/validate"
)

// errGeneric is what upstream failures surface as; internal detail stays in
// the logs, not the response
var errGeneric = errors.New("something went wrong")

// respondWithError maps core errors onto status codes. Validation and auth
// failures carry their message through; anything else is a store failure and
// returns a generic 500.
func respondWithError(c *gin.Context, err error) {
	var invalid validate.ErrInvalidFields

	switch {
	case errors.As(err, &invalid):
		util.ErrResponse(c, http.StatusBadRequest, err)
	case errors.Is(err, auth.ErrNoIdentity), errors.Is(err, auth.ErrUserBanned):
		util.ErrResponse(c, http.StatusUnauthorized, err)
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, util.ErrorResponse{Error: errGeneric.Error()})
	}
}
