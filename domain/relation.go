package domain

import (
	"time"

	"github.com/google/uuid"
)

// Follow represents a follow edge. (FollowerId, FollowingId) is the
// natural key; Approved stays nil while the request is pending.
type Follow struct {
	FollowerId  uuid.UUID
	FollowingId uuid.UUID
	IRI         string // Follow activity URI (empty for rows restored from an archive)
	Shares      bool   // Whether boosts from this account show up
	Notify      bool
	Languages   []string
	Approved    *time.Time
	CreatedAt   time.Time
}

// Like represents a favourite. (AccountId, PostId) is the natural key.
type Like struct {
	AccountId uuid.UUID
	PostId    uuid.UUID
	CreatedAt time.Time
}

// Bookmark represents a saved post. (AccountOwnerId, PostId) is the natural key.
type Bookmark struct {
	AccountOwnerId uuid.UUID
	PostId         uuid.UUID
	CreatedAt      time.Time
}

// Mute hides another account. (AccountId, MutedAccountId) is the natural key.
type Mute struct {
	Id              uuid.UUID
	AccountId       uuid.UUID
	MutedAccountId  uuid.UUID
	Notifications   bool   // Also mute notifications
	DurationSeconds *int64 // nil means indefinite
	CreatedAt       time.Time
}

// Block severs another account. (AccountId, BlockedAccountId) is the natural key.
type Block struct {
	AccountId        uuid.UUID
	BlockedAccountId uuid.UUID
	CreatedAt        time.Time
}

// List represents a curated timeline owned by a local account
type List struct {
	Id             uuid.UUID
	AccountOwnerId uuid.UUID
	Title          string
	RepliesPolicy  string // none, list, followed
	Exclusive      bool   // Members are hidden from the home timeline
	CreatedAt      time.Time
}
