// Package socialgraph resolves per-request friend and membership sets and
// decides whether a requester may see a piece of content. Sets are computed
// once per request and never cached across requests; moderation and edge
// state are treated as point-in-time facts.
package socialgraph

import (
	"context"

	"github.com/circleapp/go-circle/service/persist"
)

// ConnectionStatus is the requester-relative state of a social edge
type ConnectionStatus string

const (
	NotConnected    ConnectionStatus = "NOT_CONNECTED"
	SentPending     ConnectionStatus = "SENT_PENDING"
	ReceivedPending ConnectionStatus = "RECEIVED_PENDING"
	Connected       ConnectionStatus = "CONNECTED"
)

// Resolver computes visibility inputs from the social graph
type Resolver struct {
	social persist.SocialEdgeRepository
	groups persist.GroupRepository
}

func NewResolver(social persist.SocialEdgeRepository, groups persist.GroupRepository) *Resolver {
	return &Resolver{social: social, groups: groups}
}

// FriendIDsFor returns the set of users connected to userID by an ACCEPTED
// edge. An accepted edge is undirected, so the far side is a friend no
// matter who initiated.
func (r *Resolver) FriendIDsFor(ctx context.Context, userID persist.DBID) (map[persist.DBID]bool, error) {
	edges, err := r.social.EdgesTouching(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FriendSet(userID, edges), nil
}

// MembershipsFor returns the requester's group roles keyed by group id
func (r *Resolver) MembershipsFor(ctx context.Context, userID persist.DBID) (map[persist.DBID]persist.GroupRole, error) {
	memberships, err := r.groups.MembershipsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles := make(map[persist.DBID]persist.GroupRole, len(memberships))
	for _, m := range memberships {
		roles[m.GroupID] = m.Role
	}
	return roles, nil
}

// FriendSet derives the accepted-friend set of userID from a batch of edges.
// Edges not touching userID are ignored, so callers can feed it a mixed
// batch fetched for several users at once.
func FriendSet(userID persist.DBID, edges []persist.SocialEdge) map[persist.DBID]bool {
	friends := map[persist.DBID]bool{}
	for _, e := range edges {
		if e.Status == persist.EdgeStatusAccepted && e.Touches(userID) {
			friends[e.OtherSide(userID)] = true
		}
	}
	return friends
}

// StatusBetween derives the requester-relative connection status toward
// otherID from the requester's own edge batch
func StatusBetween(requesterID, otherID persist.DBID, edges []persist.SocialEdge) ConnectionStatus {
	for _, e := range edges {
		if !e.Touches(requesterID) || e.OtherSide(requesterID) != otherID {
			continue
		}
		switch e.Status {
		case persist.EdgeStatusAccepted:
			return Connected
		case persist.EdgeStatusPending:
			if e.SenderID == requesterID {
				return SentPending
			}
			return ReceivedPending
		}
	}
	return NotConnected
}

// MutualCount is the size of the intersection of two friend sets
func MutualCount(a, b map[persist.DBID]bool) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for id := range a {
		if b[id] {
			count++
		}
	}
	return count
}

// VisibilityInputs carries the per-request sets IsVisible needs. Group
// privacy is looked up from the map; a group absent from the map is treated
// as not visible unless the requester is a member.
type VisibilityInputs struct {
	RequesterID    persist.DBID
	FriendIDs      map[persist.DBID]bool
	MemberGroupIDs map[persist.DBID]bool
	GroupPrivacy   map[persist.DBID]persist.GroupPrivacy
}

// IsVisible decides whether the requester may see the post. The rule is an
// OR over: requester is the author; the post is PUBLIC; FRIENDS and the
// author is a friend; SPECIFIC_FRIENDS and the requester is allowed; the
// post belongs to a group the requester can see into (public group, or
// private group the requester is a member of). PRIVATE posts are visible to
// the author only, regardless of any group clause.
func IsVisible(post persist.Post, in VisibilityInputs) bool {
	if post.AuthorID == in.RequesterID {
		return true
	}

	if post.Visibility == persist.VisibilityPrivate {
		return false
	}

	if post.GroupID != "" {
		if in.MemberGroupIDs[post.GroupID] {
			return true
		}
		if in.GroupPrivacy[post.GroupID] == persist.GroupPrivacyPublic {
			return true
		}
	}

	switch post.Visibility {
	case persist.VisibilityPublic:
		return true
	case persist.VisibilityFriends:
		return in.FriendIDs[post.AuthorID]
	case persist.VisibilitySpecificFriends:
		for _, id := range post.SpecificViewerIDs {
			if id == in.RequesterID {
				return true
			}
		}
	}

	return false
}
