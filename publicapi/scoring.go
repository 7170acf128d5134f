package publicapi

import (
	"math"
	"time"

	"github.com/circleapp/go-circle/service/persist"
)

const (
	// decayHalfLifeHours controls how fast a reel's score fades with age
	decayHalfLifeHours = 72

	// affinityBonus is a flat addition when the requester has previously
	// liked any content by the reel's author. Presence, not magnitude.
	affinityBonus = 20
)

// affinitySet is the set of author ids the requester has recently liked,
// bounded upstream so the lookup stays a constant-time check per candidate.
type affinitySet map[persist.DBID]bool

// engagementScore ranks a reel for the discovery feed. Pure and
// deterministic given its inputs; any randomization happens in the caller.
func engagementScore(post persist.Post, hasAffinity bool, now time.Time) float64 {
	likes := clampCount(post.Likes)
	comments := clampCount(post.Comments)
	shares := clampCount(post.Shares)
	views := clampCount(post.Views)

	ageHours := now.Sub(post.CreatedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}

	decay := math.Exp(-ageHours / decayHalfLifeHours)

	weighted := likes*2 + comments*3 + shares*4

	// Zero-view items take a flat /10 penalty instead of dividing by zero:
	// they aren't starved to exactly zero, but they can't outrank items with
	// real view-normalized performance either.
	var rate float64
	if views > 0 {
		rate = weighted / views
	} else {
		rate = weighted / 10
	}

	var completionBonus float64
	if post.AvgCompletionRatio != nil {
		ratio := *post.AvgCompletionRatio
		if ratio < 0 {
			ratio = 0
		}
		if ratio > 1 {
			ratio = 1
		}
		completionBonus = ratio * 50
	}

	var velocity float64
	if ageHours > 0 {
		velocity = (likes + comments*2 + shares*3) / ageHours
	}

	var bonus float64
	if hasAffinity {
		bonus = affinityBonus
	}

	score := (rate*100 + velocity*10 + completionBonus + bonus) * decay
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return score
}

func clampCount(n int) float64 {
	if n < 0 {
		return 0
	}
	return float64(n)
}
