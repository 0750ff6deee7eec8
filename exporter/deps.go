package exporter

import (
	"github.com/deemkeen/trunk/domain"
	"github.com/google/uuid"
)

// Database defines the read operations required to assemble an export.
// This interface allows for dependency injection and testing with mock
// implementations.
type Database interface {
	ReadAccById(id uuid.UUID) (error, *domain.Account)
	ReadOwnerById(id uuid.UUID) (error, *domain.AccountOwner)
	ReadPostsByAccountId(accountId uuid.UUID) (error, *[]domain.Post)
	ReadMediaByPostId(postId uuid.UUID) (error, *[]domain.MediaAttachment)
	ReadFollowersByAccountId(accountId uuid.UUID) (error, *[]domain.Follow)
	ReadFollowingByAccountId(accountId uuid.UUID) (error, *[]domain.Follow)
	ReadLikesByAccountId(accountId uuid.UUID) (error, *[]domain.Like)
	ReadBookmarksByOwnerId(ownerId uuid.UUID) (error, *[]domain.Bookmark)
	ReadMutesByAccountId(accountId uuid.UUID) (error, *[]domain.Mute)
	ReadBlocksByAccountId(accountId uuid.UUID) (error, *[]domain.Block)
	ReadListsByOwnerId(ownerId uuid.UUID) (error, *[]domain.List)
}
