package importer

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/deemkeen/trunk/archive"
	"github.com/deemkeen/trunk/domain"
	"github.com/google/uuid"
)

// importRelation drives one relationship section: per-item goroutines
// bounded by the worker semaphore, each failure isolated and logged
func (i *AccountImporter) importRelation(working uuid.UUID, arc *archive.Archive, entry, name string, refs map[string]uuid.UUID, importItem func(uuid.UUID, map[string]any, map[string]uuid.UUID) error) SectionResult {
	items, err := arc.OrderedItems(entry)
	if err != nil {
		log.Printf("Import: %s section unreadable, skipping: %v", name, err)
		return SectionResult{}
	}

	var result SectionResult
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, importWorkers)

	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			result.Skipped++
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(item map[string]any) {
			defer wg.Done()
			defer func() { <-sem }()

			err := importItem(working, item, refs)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("Import: %s item failed, skipping: %v", name, err)
				result.Skipped++
				return
			}
			result.Imported++
		}(item)
	}
	wg.Wait()

	return result
}

func (i *AccountImporter) importFollower(working uuid.UUID, item map[string]any, _ map[string]uuid.UUID) error {
	counterpart, err := uuidField(item, "followerId")
	if err != nil {
		return err
	}
	return i.upsertFollow(item, counterpart, working)
}

func (i *AccountImporter) importFollowing(working uuid.UUID, item map[string]any, _ map[string]uuid.UUID) error {
	counterpart, err := uuidField(item, "followingId")
	if err != nil {
		return err
	}
	return i.upsertFollow(item, working, counterpart)
}

// upsertFollow writes one follow edge. The counterpart side must
// already exist locally; a follow pointing at an unknown account fails
// as a single item.
func (i *AccountImporter) upsertFollow(item map[string]any, followerId, followingId uuid.UUID) error {
	for _, id := range []uuid.UUID{followerId, followingId} {
		if err, _ := i.db.ReadAccById(id); err != nil {
			return fmt.Errorf("counterpart account %s not present: %w", id, err)
		}
	}

	follow := &domain.Follow{
		FollowerId:  followerId,
		FollowingId: followingId,
		IRI:         stringField(item, "iri"),
		Shares:      boolField(item, "shares"),
		Notify:      boolField(item, "notify"),
		Languages:   stringListField(item, "languages"),
		CreatedAt:   createdAt(item),
	}
	if approved := timeField(item, "approved"); !approved.IsZero() {
		follow.Approved = &approved
	}
	return i.db.UpsertFollow(follow)
}

func (i *AccountImporter) importLike(working uuid.UUID, item map[string]any, refs map[string]uuid.UUID) error {
	postId := resolveRef(refs, stringField(item, "postId"))
	if postId == nil {
		return fmt.Errorf("like references unknown post %q", stringField(item, "postId"))
	}
	return i.db.UpsertLike(&domain.Like{
		AccountId: working,
		PostId:    *postId,
		CreatedAt: createdAt(item),
	})
}

func (i *AccountImporter) importBookmark(working uuid.UUID, item map[string]any, refs map[string]uuid.UUID) error {
	postId := resolveRef(refs, stringField(item, "postId"))
	if postId == nil {
		return fmt.Errorf("bookmark references unknown post %q", stringField(item, "postId"))
	}
	return i.db.UpsertBookmark(&domain.Bookmark{
		AccountOwnerId: working,
		PostId:         *postId,
		CreatedAt:      createdAt(item),
	})
}

func (i *AccountImporter) importMute(working uuid.UUID, item map[string]any, _ map[string]uuid.UUID) error {
	muted, err := uuidField(item, "mutedAccountId")
	if err != nil {
		return err
	}

	mute := &domain.Mute{
		Id:             uuid.New(),
		AccountId:      working,
		MutedAccountId: muted,
		Notifications:  boolField(item, "notifications"),
		CreatedAt:      createdAt(item),
	}
	if id, err := uuidField(item, "id"); err == nil {
		mute.Id = id
	}
	if raw, ok := item["duration"]; ok {
		if f, ok := raw.(float64); ok {
			seconds := int64(f)
			mute.DurationSeconds = &seconds
		}
	}
	return i.db.UpsertMute(mute)
}

func (i *AccountImporter) importBlock(working uuid.UUID, item map[string]any, _ map[string]uuid.UUID) error {
	blocked, err := uuidField(item, "blockedAccountId")
	if err != nil {
		return err
	}
	return i.db.UpsertBlock(&domain.Block{
		AccountId:        working,
		BlockedAccountId: blocked,
		CreatedAt:        createdAt(item),
	})
}

func (i *AccountImporter) importList(working uuid.UUID, item map[string]any, _ map[string]uuid.UUID) error {
	title := stringField(item, "title")
	if title == "" {
		return fmt.Errorf("list item carries no title")
	}

	list := &domain.List{
		Id:             uuid.New(),
		AccountOwnerId: working,
		Title:          title,
		RepliesPolicy:  "list",
		Exclusive:      boolField(item, "exclusive"),
		CreatedAt:      createdAt(item),
	}
	if id, err := uuidField(item, "id"); err == nil {
		list.Id = id
	}
	if policy := stringField(item, "repliesPolicy"); policy != "" {
		list.RepliesPolicy = policy
	}
	return i.db.UpsertList(list)
}

func createdAt(item map[string]any) time.Time {
	if t := timeField(item, "created"); !t.IsZero() {
		return t
	}
	return time.Now().UTC()
}
