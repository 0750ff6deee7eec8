// Package exporter assembles a complete account archive: profile,
// posts, social graph and media blobs, streamed as a tar container.
package exporter

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/deemkeen/trunk/activitypub"
	"github.com/deemkeen/trunk/archive"
	"github.com/deemkeen/trunk/domain"
	"github.com/deemkeen/trunk/util"
	"github.com/google/uuid"
)

// AccountExporter loads an account's data and writes archives
type AccountExporter struct {
	db   Database
	http activitypub.HTTPClient
	ap   *activitypub.Client
	conf *util.AppConfig
}

// NewAccountExporter creates an exporter. The federation client is
// optional and only needed for live outbox capture.
func NewAccountExporter(db Database, httpClient activitypub.HTTPClient, ap *activitypub.Client, conf *util.AppConfig) *AccountExporter {
	return &AccountExporter{db: db, http: httpClient, ap: ap, conf: conf}
}

// accountData is everything the loaders gather for one account
type accountData struct {
	account   *domain.Account
	owner     *domain.AccountOwner
	posts     []domain.Post
	postMedia map[uuid.UUID][]domain.MediaAttachment
	followers []domain.Follow
	following []domain.Follow
	likes     []domain.Like
	bookmarks []domain.Bookmark
	mutes     []domain.Mute
	blocks    []domain.Block
	lists     []domain.List
}

// ExportData streams the account archive. The returned reader must be
// consumed; closing it tears down the producing goroutine.
func (e *AccountExporter) ExportData(actorId uuid.UUID) (io.ReadCloser, error) {
	data, err := e.load(actorId)
	if err != nil {
		return nil, err
	}
	return e.assemble(data, nil), nil
}

// ExportDataLive is ExportData with the outbox captured from the
// fediverse instead of local rows
func (e *AccountExporter) ExportDataLive(actorId uuid.UUID) (io.ReadCloser, error) {
	data, err := e.load(actorId)
	if err != nil {
		return nil, err
	}

	liveOutbox, err := e.CaptureOutbox(data.account.Handle)
	if err != nil {
		return nil, err
	}
	return e.assemble(data, liveOutbox), nil
}

// CaptureOutbox walks the live outbox of handle and renders it as an
// archive outbox document
func (e *AccountExporter) CaptureOutbox(handle string) (*domain.Document, error) {
	if e.ap == nil {
		return nil, fmt.Errorf("no federation client configured")
	}

	actor, err := e.ap.ResolveActor(handle)
	if err != nil {
		return nil, err
	}

	activities, err := e.ap.WalkOutbox(actor)
	if err != nil {
		return nil, err
	}

	var items []*domain.Document
	for i := range activities {
		items = append(items, activitypub.ActivityDocument(&activities[i]))
	}
	log.Printf("Export: captured %d live activities for %s", len(items), handle)
	return serializeCollection(items), nil
}

// load gathers all rows for the account. The account itself is the
// only fatal lookup; every relation loader degrades to an empty slice.
func (e *AccountExporter) load(actorId uuid.UUID) (*accountData, error) {
	err, acc := e.db.ReadAccById(actorId)
	if err == sql.ErrNoRows {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", actorId, err)
	}

	data := &accountData{
		account:   acc,
		postMedia: make(map[uuid.UUID][]domain.MediaAttachment),
	}

	if err, owner := e.db.ReadOwnerById(actorId); err == nil {
		data.owner = owner
	}

	var wg sync.WaitGroup
	loaders := []func(){
		func() {
			err, posts := e.db.ReadPostsByAccountId(actorId)
			if err != nil {
				log.Printf("Export: posts loader failed: %v", err)
				return
			}
			data.posts = *posts
		},
		func() {
			err, followers := e.db.ReadFollowersByAccountId(actorId)
			if err != nil {
				log.Printf("Export: followers loader failed: %v", err)
				return
			}
			data.followers = *followers
		},
		func() {
			err, following := e.db.ReadFollowingByAccountId(actorId)
			if err != nil {
				log.Printf("Export: following loader failed: %v", err)
				return
			}
			data.following = *following
		},
		func() {
			err, likes := e.db.ReadLikesByAccountId(actorId)
			if err != nil {
				log.Printf("Export: likes loader failed: %v", err)
				return
			}
			data.likes = *likes
		},
		func() {
			err, bookmarks := e.db.ReadBookmarksByOwnerId(actorId)
			if err != nil {
				log.Printf("Export: bookmarks loader failed: %v", err)
				return
			}
			data.bookmarks = *bookmarks
		},
		func() {
			err, mutes := e.db.ReadMutesByAccountId(actorId)
			if err != nil {
				log.Printf("Export: mutes loader failed: %v", err)
				return
			}
			data.mutes = *mutes
		},
		func() {
			err, blocks := e.db.ReadBlocksByAccountId(actorId)
			if err != nil {
				log.Printf("Export: blocks loader failed: %v", err)
				return
			}
			data.blocks = *blocks
		},
		func() {
			err, lists := e.db.ReadListsByOwnerId(actorId)
			if err != nil {
				log.Printf("Export: lists loader failed: %v", err)
				return
			}
			data.lists = *lists
		},
	}

	for _, loader := range loaders {
		wg.Add(1)
		go func(f func()) {
			defer wg.Done()
			f()
		}(loader)
	}
	wg.Wait()

	// Media rows hang off the loaded posts
	for _, post := range data.posts {
		err, media := e.db.ReadMediaByPostId(post.Id)
		if err != nil {
			log.Printf("Export: media loader for post %s failed: %v", post.Id, err)
			continue
		}
		if len(*media) > 0 {
			data.postMedia[post.Id] = *media
		}
	}

	return data, nil
}

// assemble streams the archive through a pipe. liveOutbox, when
// non-nil, replaces the locally built outbox document.
func (e *AccountExporter) assemble(data *accountData, liveOutbox *domain.Document) io.ReadCloser {
	base := e.conf.BaseURL()
	pr, pw := io.Pipe()

	go func() {
		w := archive.NewWriter(pw)

		err := func() error {
			if err := w.AddDocument(archive.EntryActor, serializeAccount(data.account, data.owner, base)); err != nil {
				return err
			}

			outbox := liveOutbox
			if outbox == nil {
				var items []*domain.Document
				for i := range data.posts {
					post := &data.posts[i]
					items = append(items, serializePost(post, data.postMedia[post.Id], data.account.IRI, base))
				}
				outbox = serializeCollection(items)
			}
			if err := w.AddDocument(archive.EntryOutbox, outbox); err != nil {
				return err
			}

			sections := []struct {
				entry string
				docs  []*domain.Document
			}{
				{archive.EntryFollowers, serializeAll(data.followers, serializeFollow)},
				{archive.EntryFollowing, serializeAll(data.following, serializeFollow)},
				{archive.EntryBookmarks, serializeAll(data.bookmarks, serializeBookmark)},
				{archive.EntryLists, serializeAll(data.lists, serializeList)},
				{archive.EntryLikes, serializeAll(data.likes, serializeLike)},
				{archive.EntryBlocks, serializeAll(data.blocks, serializeBlock)},
				{archive.EntryMutes, serializeAll(data.mutes, serializeMute)},
			}
			for _, section := range sections {
				if err := w.AddDocument(section.entry, serializeCollection(section.docs)); err != nil {
					return err
				}
			}

			var attachments []domain.MediaAttachment
			for _, media := range data.postMedia {
				attachments = append(attachments, media...)
			}
			for _, blob := range e.downloadMedia(attachments) {
				if err := w.AddMedia(blob.Filename, blob.Data); err != nil {
					return err
				}
			}

			return w.Close()
		}()

		if err != nil {
			log.Printf("Export: archive stream for %s failed: %v", data.account.Id, err)
			pw.CloseWithError(err)
			return
		}
		pw.Close()
	}()

	return pr
}

func serializeAll[T any](items []T, serialize func(*T) *domain.Document) []*domain.Document {
	var docs []*domain.Document
	for i := range items {
		docs = append(docs, serialize(&items[i]))
	}
	return docs
}
