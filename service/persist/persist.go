package persist

import (
	"time"

	"github.com/segmentio/ksuid"
)

// DBID represents a database ID
type DBID string

// DBIDList is a slice of DBIDs
type DBIDList []DBID

// GenerateID generates an application-wide unique ID
func GenerateID() DBID {
	id, err := ksuid.NewRandom()
	if err != nil {
		panic(err)
	}
	return DBID(id.String())
}

func (d DBID) String() string {
	return string(d)
}

// DBIDSet turns a list of IDs into a set for membership checks
func DBIDSet(ids []DBID) map[DBID]bool {
	set := make(map[DBID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// Repositories is the set of backing-store gateways consumed by the core.
// The store itself is external; these interfaces cover the filter/sort/count
// primitives it exposes and nothing more.
type Repositories struct {
	UserRepository       UserRepository
	PostRepository       PostRepository
	SocialRepository     SocialEdgeRepository
	GroupRepository      GroupRepository
	HashtagRepository    HashtagRepository
	EngagementRepository EngagementRepository
}

// StoreCapabilities describes behavior the underlying store may or may not
// support. The search layer consults these instead of hard-coding per-store
// differences.
type StoreCapabilities struct {
	SupportsCaseInsensitiveContains bool
}

// Window bounds a time range filter. Zero values mean unbounded.
type Window struct {
	From time.Time
	To   time.Time
}
