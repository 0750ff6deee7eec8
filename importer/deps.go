package importer

import (
	"github.com/deemkeen/trunk/domain"
	"github.com/google/uuid"
)

// Database defines the database operations required by the importer.
// This interface allows for dependency injection and testing with mock
// implementations.
type Database interface {
	ReadAccById(id uuid.UUID) (error, *domain.Account)
	SwapAccountIdentity(oldId uuid.UUID, acc *domain.Account) error
	UpsertPostByIRI(post *domain.Post) error
	CreateMediaAttachment(media *domain.MediaAttachment) error
	UpsertFollow(follow *domain.Follow) error
	UpsertLike(like *domain.Like) error
	UpsertBookmark(bookmark *domain.Bookmark) error
	UpsertMute(mute *domain.Mute) error
	UpsertBlock(block *domain.Block) error
	UpsertList(list *domain.List) error
	CountPostsByAccountId(accountId uuid.UUID) (error, int)
	CountFollowersByAccountId(accountId uuid.UUID) (error, int)
	CountFollowingByAccountId(accountId uuid.UUID) (error, int)
	UpdateAccountCounts(id uuid.UUID, followers, following, posts int) error
}
