package exporter

import (
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/deemkeen/trunk/domain"
	"github.com/deemkeen/trunk/importer"
	"github.com/google/uuid"
)

// targetDB is a minimal import-side database for round-trip tests
type targetDB struct {
	mu sync.Mutex

	accounts  map[uuid.UUID]*domain.Account
	owners    map[uuid.UUID]*domain.AccountOwner
	posts     map[string]*domain.Post
	media     map[uuid.UUID]*domain.MediaAttachment
	follows   []*domain.Follow
	likes     []*domain.Like
	bookmarks []*domain.Bookmark
	mutes     []*domain.Mute
	blocks    []*domain.Block
	lists     []*domain.List
}

func newTargetDB() *targetDB {
	return &targetDB{
		accounts: make(map[uuid.UUID]*domain.Account),
		owners:   make(map[uuid.UUID]*domain.AccountOwner),
		posts:    make(map[string]*domain.Post),
		media:    make(map[uuid.UUID]*domain.MediaAttachment),
	}
}

var _ importer.Database = (*targetDB)(nil)

func (d *targetDB) ReadAccById(id uuid.UUID) (error, *domain.Account) {
	d.mu.Lock()
	defer d.mu.Unlock()
	acc, ok := d.accounts[id]
	if !ok {
		return sql.ErrNoRows, nil
	}
	return nil, acc
}

func (d *targetDB) SwapAccountIdentity(oldId uuid.UUID, acc *domain.Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	owner, ok := d.owners[oldId]
	if !ok {
		return domain.ErrOwnerNotFound
	}
	delete(d.accounts, oldId)
	delete(d.owners, oldId)
	d.accounts[acc.Id] = acc
	moved := *owner
	moved.Id = acc.Id
	moved.Handle = acc.Handle
	d.owners[acc.Id] = &moved
	return nil
}

func (d *targetDB) UpsertPostByIRI(post *domain.Post) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.posts[post.IRI]; ok {
		existing.ContentHtml = post.ContentHtml
		existing.AccountId = post.AccountId
		return nil
	}
	copied := *post
	d.posts[post.IRI] = &copied
	return nil
}

func (d *targetDB) CreateMediaAttachment(media *domain.MediaAttachment) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.media[media.Id]; !ok {
		copied := *media
		d.media[media.Id] = &copied
	}
	return nil
}

func (d *targetDB) UpsertFollow(follow *domain.Follow) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := *follow
	d.follows = append(d.follows, &copied)
	return nil
}

func (d *targetDB) UpsertLike(like *domain.Like) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := *like
	d.likes = append(d.likes, &copied)
	return nil
}

func (d *targetDB) UpsertBookmark(bookmark *domain.Bookmark) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := *bookmark
	d.bookmarks = append(d.bookmarks, &copied)
	return nil
}

func (d *targetDB) UpsertMute(mute *domain.Mute) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := *mute
	d.mutes = append(d.mutes, &copied)
	return nil
}

func (d *targetDB) UpsertBlock(block *domain.Block) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := *block
	d.blocks = append(d.blocks, &copied)
	return nil
}

func (d *targetDB) UpsertList(list *domain.List) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := *list
	d.lists = append(d.lists, &copied)
	return nil
}

func (d *targetDB) CountPostsByAccountId(accountId uuid.UUID) (error, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	for _, post := range d.posts {
		if post.AccountId == accountId {
			count++
		}
	}
	return nil, count
}

func (d *targetDB) CountFollowersByAccountId(accountId uuid.UUID) (error, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	for _, follow := range d.follows {
		if follow.FollowingId == accountId {
			count++
		}
	}
	return nil, count
}

func (d *targetDB) CountFollowingByAccountId(accountId uuid.UUID) (error, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	for _, follow := range d.follows {
		if follow.FollowerId == accountId {
			count++
		}
	}
	return nil, count
}

func (d *targetDB) UpdateAccountCounts(id uuid.UUID, followers, following, posts int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if acc, ok := d.accounts[id]; ok {
		acc.FollowersCount = followers
		acc.FollowingCount = following
		acc.PostsCount = posts
	}
	return nil
}

// TestExportImportRoundTrip feeds a real exported archive into the
// importer: row counts survive, replies re-link to the derived ids and
// likes re-point at the imported posts.
func TestExportImportRoundTrip(t *testing.T) {
	source := NewMockDatabase()
	aliceId := seedAccount(source)
	follower := uuid.New()
	followed := uuid.New()

	published := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	post1 := domain.Post{
		Id: uuid.New(), IRI: "https://trunk.example.com/notes/1", Type: "Note",
		AccountId: aliceId, ContentHtml: "<p>root</p>", Visibility: "public",
		Published: published,
	}
	post2 := domain.Post{
		Id: uuid.New(), IRI: "https://trunk.example.com/notes/2", Type: "Note",
		AccountId: aliceId, ContentHtml: "<p>reply</p>", Visibility: "public",
		ReplyTargetId: &post1.Id, Published: published.Add(time.Hour),
	}
	post3 := domain.Post{
		Id: uuid.New(), IRI: "https://trunk.example.com/notes/3", Type: "Note",
		AccountId: aliceId, ContentHtml: "<p>reply too</p>", Visibility: "public",
		ReplyTargetId: &post1.Id, Published: published.Add(2 * time.Hour),
	}
	source.Posts[aliceId] = []domain.Post{post1, post2, post3}
	source.Media[post1.Id] = []domain.MediaAttachment{{
		Id: uuid.New(), PostId: post1.Id, Type: "Image",
		URL: "https://cdn.example.com/unreachable.png", ContentType: "image/png",
	}}
	source.Followers[aliceId] = []domain.Follow{{FollowerId: follower, FollowingId: aliceId}}
	source.Following[aliceId] = []domain.Follow{{FollowerId: aliceId, FollowingId: followed}}
	source.Likes[aliceId] = []domain.Like{{AccountId: aliceId, PostId: post1.Id}}
	source.Bookmarks[aliceId] = []domain.Bookmark{{AccountOwnerId: aliceId, PostId: post2.Id}}

	e := NewAccountExporter(source, &mockHTTP{}, nil, exportConf())
	stream, err := e.ExportData(aliceId)
	if err != nil {
		t.Fatalf("ExportData failed: %v", err)
	}
	defer stream.Close()

	target := newTargetDB()
	localId := uuid.New()
	target.accounts[localId] = &domain.Account{Id: localId}
	target.owners[localId] = &domain.AccountOwner{Id: localId, RsaPrivateKeyPem: "pem"}
	target.accounts[follower] = &domain.Account{Id: follower}
	target.accounts[followed] = &domain.Account{Id: followed}

	imp := importer.NewAccountImporter(target, exportConf())
	result, err := imp.ImportData(localId, stream)
	if err != nil {
		t.Fatalf("ImportData failed: %v", err)
	}

	wantCounts := map[importer.Section]int{
		importer.SectionActor:     1,
		importer.SectionOutbox:    3,
		importer.SectionFollowers: 1,
		importer.SectionFollowing: 1,
		importer.SectionLikes:     1,
		importer.SectionBookmarks: 1,
	}
	for section, want := range wantCounts {
		res := result.Sections[section]
		if res.Imported != want || res.Skipped != 0 {
			t.Errorf("%s section = %+v, want %d imported", section, res, want)
		}
	}

	if len(target.posts) != 3 {
		t.Fatalf("posts = %d, want 3", len(target.posts))
	}
	rootId := target.posts[post1.IRI].Id
	for _, iri := range []string{post2.IRI, post3.IRI} {
		reply := target.posts[iri]
		if reply.ReplyTargetId == nil || *reply.ReplyTargetId != rootId {
			t.Errorf("%s reply target = %v, want %s", iri, reply.ReplyTargetId, rootId)
		}
	}

	if len(target.likes) != 1 || target.likes[0].PostId != rootId {
		t.Errorf("like should point at the imported root post, have %+v", target.likes)
	}
	if len(target.bookmarks) != 1 || target.bookmarks[0].PostId != target.posts[post2.IRI].Id {
		t.Errorf("bookmark should point at the imported reply, have %+v", target.bookmarks)
	}
	if len(target.media) != 1 {
		t.Errorf("media rows = %d, want 1", len(target.media))
	}

	acc := target.accounts[result.AccountId]
	if acc == nil {
		t.Fatal("imported account missing")
	}
	if acc.PostsCount != 3 || acc.FollowersCount != 1 || acc.FollowingCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/1/1",
			acc.PostsCount, acc.FollowersCount, acc.FollowingCount)
	}
}
