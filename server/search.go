package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/circleapp/go-circle/publicapi"
	"github.com/circleapp/go-circle/service/persist"
	"github.com/circleapp/go-circle/util"
)

type searchInput struct {
	Term         string `form:"q"`
	Types        string `form:"types"`
	Sort         string `form:"sort,default=relevance"`
	Limit        int    `form:"limit,default=20"`
	Offset       int    `form:"offset"`
	DateFrom     string `form:"date_from" time_format:"2006-01-02"`
	DateTo       string `form:"date_to" time_format:"2006-01-02"`
	PostKind     string `form:"post_kind"`
	HasMedia     *bool  `form:"has_media"`
	GroupPrivacy string `form:"group_privacy"`
}

func search(c *gin.Context) {
	input := searchInput{}
	if err := c.ShouldBindQuery(&input); err != nil {
		util.ErrResponse(c, http.StatusBadRequest, err)
		return
	}

	query := publicapi.SearchQuery{
		Term:     input.Term,
		Sort:     publicapi.SearchSort(input.Sort),
		Limit:    input.Limit,
		Offset:   input.Offset,
		HasMedia: input.HasMedia,
	}

	if input.Types != "" {
		for _, t := range strings.Split(input.Types, ",") {
			query.EntityTypes = append(query.EntityTypes, publicapi.SearchEntityType(strings.TrimSpace(t)))
		}
	}

	if input.DateFrom != "" {
		from, err := time.Parse("2006-01-02", input.DateFrom)
		if err != nil {
			util.ErrResponse(c, http.StatusBadRequest, err)
			return
		}
		query.DateFrom = &from
	}

	if input.DateTo != "" {
		to, err := time.Parse("2006-01-02", input.DateTo)
		if err != nil {
			util.ErrResponse(c, http.StatusBadRequest, err)
			return
		}
		query.DateTo = &to
	}

	if input.PostKind != "" {
		kind := persist.PostKind(input.PostKind)
		query.PostKind = &kind
	}

	if input.GroupPrivacy != "" {
		privacy := persist.GroupPrivacy(strings.ToUpper(input.GroupPrivacy))
		query.GroupPrivacy = &privacy
	}

	envelope, err := publicapi.For(c).Search.Search(c, query)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope)
}
