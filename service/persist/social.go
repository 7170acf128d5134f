package persist

import (
	"context"
	"time"
)

// EdgeStatus is the lifecycle of a connection request
type EdgeStatus string

const (
	EdgeStatusPending  EdgeStatus = "PENDING"
	EdgeStatusAccepted EdgeStatus = "ACCEPTED"
	EdgeStatusRejected EdgeStatus = "REJECTED"
)

// SocialEdge is a connection between two users. PENDING edges are directional
// (sender asked receiver); an ACCEPTED edge is undirected regardless of who
// initiated it.
type SocialEdge struct {
	SenderID   DBID       `json:"sender_id"`
	ReceiverID DBID       `json:"receiver_id"`
	Status     EdgeStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}

// OtherSide returns the id on the far end of the edge from the given user
func (e SocialEdge) OtherSide(userID DBID) DBID {
	if e.SenderID == userID {
		return e.ReceiverID
	}
	return e.SenderID
}

// Touches reports whether the edge involves the given user
func (e SocialEdge) Touches(userID DBID) bool {
	return e.SenderID == userID || e.ReceiverID == userID
}

// SocialEdgeRepository represents the interface for interacting with the persisted social graph
type SocialEdgeRepository interface {
	// EdgesTouching returns every edge (any status) involving the user
	EdgesTouching(context.Context, DBID) ([]SocialEdge, error)
	// EdgesTouchingMany returns every edge involving any of the users, so
	// callers can build friend sets for a batch of candidates in one trip
	EdgesTouchingMany(context.Context, DBIDList) ([]SocialEdge, error)
}
