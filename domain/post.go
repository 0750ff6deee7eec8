package domain

import (
	"time"

	"github.com/google/uuid"
)

// Post represents a status row. IRI is the natural key for upserts,
// Id is content-addressed on import.
type Post struct {
	Id            uuid.UUID
	IRI           string // ActivityPub object URI, unique
	Type          string // Note, Article, Question
	AccountId     uuid.UUID
	ReplyTargetId *uuid.UUID // nil when not a reply
	Visibility    string     // public, unlisted, followers, direct
	Summary       *string    // Content warning, nil means none was ever set
	ContentHtml   string
	Language      string
	URL           string // Human-facing permalink, empty falls back to the IRI
	Sensitive     bool
	RepliesCount  int
	SharesCount   int
	LikesCount    int
	Published     time.Time
	Updated       time.Time
}

// MediaAttachment represents a file attached to a post
type MediaAttachment struct {
	Id          uuid.UUID
	PostId      uuid.UUID
	Type        string // Image, Video, Document
	URL         string
	ContentType string
	Description string
	Width       int
	Height      int
	CreatedAt   time.Time
}
