package importer

import (
	"github.com/deemkeen/trunk/db"
	"github.com/deemkeen/trunk/domain"
	"github.com/google/uuid"
)

// DBWrapper wraps the real database to implement the Database interface.
// This adapter allows the production code to use the existing db.GetDB() singleton
// while also supporting dependency injection for tests.
type DBWrapper struct {
	db *db.DB
}

// NewDBWrapper creates a new database wrapper around the singleton database
func NewDBWrapper() *DBWrapper {
	return &DBWrapper{db: db.GetDB()}
}

var _ Database = (*DBWrapper)(nil)

func (w *DBWrapper) ReadAccById(id uuid.UUID) (error, *domain.Account) {
	return w.db.ReadAccById(id)
}

func (w *DBWrapper) SwapAccountIdentity(oldId uuid.UUID, acc *domain.Account) error {
	return w.db.SwapAccountIdentity(oldId, acc)
}

func (w *DBWrapper) UpsertPostByIRI(post *domain.Post) error {
	return w.db.UpsertPostByIRI(post)
}

func (w *DBWrapper) CreateMediaAttachment(media *domain.MediaAttachment) error {
	return w.db.CreateMediaAttachment(media)
}

func (w *DBWrapper) UpsertFollow(follow *domain.Follow) error {
	return w.db.UpsertFollow(follow)
}

func (w *DBWrapper) UpsertLike(like *domain.Like) error {
	return w.db.UpsertLike(like)
}

func (w *DBWrapper) UpsertBookmark(bookmark *domain.Bookmark) error {
	return w.db.UpsertBookmark(bookmark)
}

func (w *DBWrapper) UpsertMute(mute *domain.Mute) error {
	return w.db.UpsertMute(mute)
}

func (w *DBWrapper) UpsertBlock(block *domain.Block) error {
	return w.db.UpsertBlock(block)
}

func (w *DBWrapper) UpsertList(list *domain.List) error {
	return w.db.UpsertList(list)
}

func (w *DBWrapper) CountPostsByAccountId(accountId uuid.UUID) (error, int) {
	return w.db.CountPostsByAccountId(accountId)
}

func (w *DBWrapper) CountFollowersByAccountId(accountId uuid.UUID) (error, int) {
	return w.db.CountFollowersByAccountId(accountId)
}

func (w *DBWrapper) CountFollowingByAccountId(accountId uuid.UUID) (error, int) {
	return w.db.CountFollowingByAccountId(accountId)
}

func (w *DBWrapper) UpdateAccountCounts(id uuid.UUID, followers, following, posts int) error {
	return w.db.UpdateAccountCounts(id, followers, following, posts)
}
