package importer

import (
	"database/sql"
	"sync"

	"github.com/deemkeen/trunk/domain"
	"github.com/google/uuid"
)

type followKey struct {
	follower  uuid.UUID
	following uuid.UUID
}

type likeKey struct {
	account uuid.UUID
	post    uuid.UUID
}

// MockDatabase is a mock implementation of the Database interface for
// testing
type MockDatabase struct {
	mu sync.RWMutex

	Accounts  map[uuid.UUID]*domain.Account
	Owners    map[uuid.UUID]*domain.AccountOwner
	Posts     map[string]*domain.Post
	Media     map[uuid.UUID]*domain.MediaAttachment
	Follows   map[followKey]*domain.Follow
	Likes     map[likeKey]*domain.Like
	Bookmarks map[likeKey]*domain.Bookmark
	Mutes     map[likeKey]*domain.Mute
	Blocks    map[likeKey]*domain.Block
	Lists     map[uuid.UUID]*domain.List

	// SwapCalls counts identity swaps, PostUpserts post writes
	SwapCalls   int
	PostUpserts int

	// ForceError causes the named operation to fail
	ForceError map[string]error
}

func NewMockDatabase() *MockDatabase {
	return &MockDatabase{
		Accounts:   make(map[uuid.UUID]*domain.Account),
		Owners:     make(map[uuid.UUID]*domain.AccountOwner),
		Posts:      make(map[string]*domain.Post),
		Media:      make(map[uuid.UUID]*domain.MediaAttachment),
		Follows:    make(map[followKey]*domain.Follow),
		Likes:      make(map[likeKey]*domain.Like),
		Bookmarks:  make(map[likeKey]*domain.Bookmark),
		Mutes:      make(map[likeKey]*domain.Mute),
		Blocks:     make(map[likeKey]*domain.Block),
		Lists:      make(map[uuid.UUID]*domain.List),
		ForceError: make(map[string]error),
	}
}

var _ Database = (*MockDatabase)(nil)

func (m *MockDatabase) ReadAccById(id uuid.UUID) (error, *domain.Account) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.Accounts[id]
	if !ok {
		return sql.ErrNoRows, nil
	}
	return nil, acc
}

func (m *MockDatabase) SwapAccountIdentity(oldId uuid.UUID, acc *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ForceError["swap"]; err != nil {
		return err
	}

	owner, ok := m.Owners[oldId]
	if !ok {
		return domain.ErrOwnerNotFound
	}

	delete(m.Accounts, oldId)
	delete(m.Owners, oldId)

	m.Accounts[acc.Id] = acc
	moved := *owner
	moved.Id = acc.Id
	moved.Handle = acc.Handle
	m.Owners[acc.Id] = &moved

	m.SwapCalls++
	return nil
}

func (m *MockDatabase) UpsertPostByIRI(post *domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ForceError["post"]; err != nil {
		return err
	}

	m.PostUpserts++
	if existing, ok := m.Posts[post.IRI]; ok {
		existing.ContentHtml = post.ContentHtml
		existing.AccountId = post.AccountId
		return nil
	}
	copied := *post
	m.Posts[post.IRI] = &copied
	return nil
}

func (m *MockDatabase) CreateMediaAttachment(media *domain.MediaAttachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Media[media.Id]; ok {
		return nil
	}
	copied := *media
	m.Media[media.Id] = &copied
	return nil
}

func (m *MockDatabase) UpsertFollow(follow *domain.Follow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *follow
	m.Follows[followKey{follow.FollowerId, follow.FollowingId}] = &copied
	return nil
}

func (m *MockDatabase) UpsertLike(like *domain.Like) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *like
	m.Likes[likeKey{like.AccountId, like.PostId}] = &copied
	return nil
}

func (m *MockDatabase) UpsertBookmark(bookmark *domain.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *bookmark
	m.Bookmarks[likeKey{bookmark.AccountOwnerId, bookmark.PostId}] = &copied
	return nil
}

func (m *MockDatabase) UpsertMute(mute *domain.Mute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *mute
	m.Mutes[likeKey{mute.AccountId, mute.MutedAccountId}] = &copied
	return nil
}

func (m *MockDatabase) UpsertBlock(block *domain.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *block
	m.Blocks[likeKey{block.AccountId, block.BlockedAccountId}] = &copied
	return nil
}

func (m *MockDatabase) UpsertList(list *domain.List) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *list
	m.Lists[list.Id] = &copied
	return nil
}

func (m *MockDatabase) CountPostsByAccountId(accountId uuid.UUID) (error, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, post := range m.Posts {
		if post.AccountId == accountId {
			count++
		}
	}
	return nil, count
}

func (m *MockDatabase) CountFollowersByAccountId(accountId uuid.UUID) (error, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for key := range m.Follows {
		if key.following == accountId {
			count++
		}
	}
	return nil, count
}

func (m *MockDatabase) CountFollowingByAccountId(accountId uuid.UUID) (error, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for key := range m.Follows {
		if key.follower == accountId {
			count++
		}
	}
	return nil, count
}

func (m *MockDatabase) UpdateAccountCounts(id uuid.UUID, followers, following, posts int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.Accounts[id]; ok {
		acc.FollowersCount = followers
		acc.FollowingCount = following
		acc.PostsCount = posts
	}
	return nil
}
