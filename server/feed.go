package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/circleapp/go-circle/publicapi"
	"github.com/circleapp/go-circle/service/persist"
	"github.com/circleapp/go-circle/util"
)

type reelFeedInput struct {
	Mode      string `form:"mode"`
	Skip      int    `form:"skip"`
	Take      int    `form:"take,default=10"`
	StartFrom string `form:"start_from"`
}

func getReelFeed(c *gin.Context) {
	input := reelFeedInput{}
	if err := c.ShouldBindQuery(&input); err != nil {
		util.ErrResponse(c, http.StatusBadRequest, err)
		return
	}

	api := publicapi.For(c)

	var (
		page publicapi.FeedPage
		err  error
	)

	switch publicapi.FeedMode(input.Mode) {
	case publicapi.FeedModeFollowing:
		page, err = api.Feed.PaginateFollowingFeed(c, input.Skip, input.Take)
	default:
		var startFrom *persist.DBID
		if input.StartFrom != "" {
			id := persist.DBID(input.StartFrom)
			startFrom = &id
		}
		page, err = api.Feed.PaginateDiscoveryFeed(c, input.Skip, input.Take, startFrom)
	}

	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

type hashtagReelsInput struct {
	Before *string `form:"before"`
	After  *string `form:"after"`
	First  *int    `form:"first"`
	Last   *int    `form:"last"`
}

type hashtagReelsOutput struct {
	Reels    []any              `json:"reels"`
	PageInfo publicapi.PageInfo `json:"page_info"`
}

func getHashtagReels(c *gin.Context) {
	input := hashtagReelsInput{}
	if err := c.ShouldBindQuery(&input); err != nil {
		util.ErrResponse(c, http.StatusBadRequest, err)
		return
	}

	reels, pageInfo, err := publicapi.For(c).Feed.PaginateHashtagReels(c, c.Param("tag"), input.Before, input.After, input.First, input.Last)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, hashtagReelsOutput{Reels: reels, PageInfo: pageInfo})
}

type trendingHashtagsInput struct {
	Limit int `form:"limit,default=10"`
}

type trendingHashtagsOutput struct {
	Hashtags []persist.Hashtag `json:"hashtags"`
}

func getTrendingHashtags(c *gin.Context) {
	input := trendingHashtagsInput{}
	if err := c.ShouldBindQuery(&input); err != nil {
		util.ErrResponse(c, http.StatusBadRequest, err)
		return
	}

	tags, err := publicapi.For(c).Feed.TrendingHashtags(c, input.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, trendingHashtagsOutput{Hashtags: tags})
}
