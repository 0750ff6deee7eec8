package exporter

import (
	"database/sql"
	"sync"

	"github.com/deemkeen/trunk/domain"
	"github.com/google/uuid"
)

// MockDatabase is a mock implementation of the Database interface for
// testing
type MockDatabase struct {
	mu sync.RWMutex

	Accounts  map[uuid.UUID]*domain.Account
	Owners    map[uuid.UUID]*domain.AccountOwner
	Posts     map[uuid.UUID][]domain.Post
	Media     map[uuid.UUID][]domain.MediaAttachment
	Followers map[uuid.UUID][]domain.Follow
	Following map[uuid.UUID][]domain.Follow
	Likes     map[uuid.UUID][]domain.Like
	Bookmarks map[uuid.UUID][]domain.Bookmark
	Mutes     map[uuid.UUID][]domain.Mute
	Blocks    map[uuid.UUID][]domain.Block
	Lists     map[uuid.UUID][]domain.List

	// ForceError causes the named loader to fail
	ForceError map[string]error
}

func NewMockDatabase() *MockDatabase {
	return &MockDatabase{
		Accounts:   make(map[uuid.UUID]*domain.Account),
		Owners:     make(map[uuid.UUID]*domain.AccountOwner),
		Posts:      make(map[uuid.UUID][]domain.Post),
		Media:      make(map[uuid.UUID][]domain.MediaAttachment),
		Followers:  make(map[uuid.UUID][]domain.Follow),
		Following:  make(map[uuid.UUID][]domain.Follow),
		Likes:      make(map[uuid.UUID][]domain.Like),
		Bookmarks:  make(map[uuid.UUID][]domain.Bookmark),
		Mutes:      make(map[uuid.UUID][]domain.Mute),
		Blocks:     make(map[uuid.UUID][]domain.Block),
		Lists:      make(map[uuid.UUID][]domain.List),
		ForceError: make(map[string]error),
	}
}

var _ Database = (*MockDatabase)(nil)

func (m *MockDatabase) ReadAccById(id uuid.UUID) (error, *domain.Account) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.ForceError["account"]; err != nil {
		return err, nil
	}
	acc, ok := m.Accounts[id]
	if !ok {
		return sql.ErrNoRows, nil
	}
	return nil, acc
}

func (m *MockDatabase) ReadOwnerById(id uuid.UUID) (error, *domain.AccountOwner) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owner, ok := m.Owners[id]
	if !ok {
		return sql.ErrNoRows, nil
	}
	return nil, owner
}

func (m *MockDatabase) ReadPostsByAccountId(accountId uuid.UUID) (error, *[]domain.Post) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.ForceError["posts"]; err != nil {
		return err, nil
	}
	posts := m.Posts[accountId]
	return nil, &posts
}

func (m *MockDatabase) ReadMediaByPostId(postId uuid.UUID) (error, *[]domain.MediaAttachment) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	media := m.Media[postId]
	return nil, &media
}

func (m *MockDatabase) ReadFollowersByAccountId(accountId uuid.UUID) (error, *[]domain.Follow) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.ForceError["followers"]; err != nil {
		return err, nil
	}
	followers := m.Followers[accountId]
	return nil, &followers
}

func (m *MockDatabase) ReadFollowingByAccountId(accountId uuid.UUID) (error, *[]domain.Follow) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	following := m.Following[accountId]
	return nil, &following
}

func (m *MockDatabase) ReadLikesByAccountId(accountId uuid.UUID) (error, *[]domain.Like) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	likes := m.Likes[accountId]
	return nil, &likes
}

func (m *MockDatabase) ReadBookmarksByOwnerId(ownerId uuid.UUID) (error, *[]domain.Bookmark) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bookmarks := m.Bookmarks[ownerId]
	return nil, &bookmarks
}

func (m *MockDatabase) ReadMutesByAccountId(accountId uuid.UUID) (error, *[]domain.Mute) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mutes := m.Mutes[accountId]
	return nil, &mutes
}

func (m *MockDatabase) ReadBlocksByAccountId(accountId uuid.UUID) (error, *[]domain.Block) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blocks := m.Blocks[accountId]
	return nil, &blocks
}

func (m *MockDatabase) ReadListsByOwnerId(ownerId uuid.UUID) (error, *[]domain.List) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lists := m.Lists[ownerId]
	return nil, &lists
}
