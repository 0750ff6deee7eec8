package importer

import (
	"log"
	"sync"
	"time"

	"github.com/deemkeen/trunk/archive"
	"github.com/deemkeen/trunk/canonical"
	"github.com/deemkeen/trunk/domain"
	"github.com/deemkeen/trunk/util"
	"github.com/google/uuid"
)

// OutboxShape tags how outbox entries are laid out: wrapped in
// activities or already flattened to bare note objects. The shape is
// resolved once per archive, never per item.
type OutboxShape int

const (
	ShapeActivities OutboxShape = iota
	ShapeFlatPosts
)

// parsedPost is one outbox entry after validation and id derivation
type parsedPost struct {
	id          uuid.UUID
	iri         string
	postType    string
	url         string
	content     string
	summary     *string
	language    string
	sensitive   bool
	visibility  string
	inReplyTo   string
	published   time.Time
	attachments []map[string]any
	replies     int
	shares      int
	likes       int
}

// importOutbox merges the archived posts. The first pass derives ids
// and registers every way a sibling post may reference them; the
// second pass resolves reply targets against that map and upserts.
func (i *AccountImporter) importOutbox(working uuid.UUID, arc *archive.Archive, refs map[string]uuid.UUID) SectionResult {
	items, err := arc.OrderedItems(archive.EntryOutbox)
	if err != nil {
		log.Printf("Import: outbox section unreadable, skipping: %v", err)
		return SectionResult{}
	}
	if len(items) == 0 {
		return SectionResult{}
	}

	shape := resolveOutboxShape(items)

	var result SectionResult
	var posts []*parsedPost
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			result.Skipped++
			continue
		}
		post := parseOutboxItem(item, shape)
		if post == nil {
			log.Printf("Import: outbox item missing required fields, skipping")
			result.Skipped++
			continue
		}

		post.id = canonical.DeriveId(working.String(), map[string]string{
			"uri":       post.iri,
			"createdAt": post.published.UTC().Format(time.RFC3339),
		})
		registerRefs(refs, post)
		posts = append(posts, post)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, importWorkers)
	for _, post := range posts {
		wg.Add(1)
		sem <- struct{}{}
		go func(p *parsedPost) {
			defer wg.Done()
			defer func() { <-sem }()

			err := i.upsertPost(working, p, refs)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("Import: post %s failed, skipping: %v", p.iri, err)
				result.Skipped++
				return
			}
			result.Imported++
		}(post)
	}
	wg.Wait()

	return result
}

// resolveOutboxShape inspects the first usable entry: an object with a
// nested "object" is an activity stream, anything else is flat posts
func resolveOutboxShape(items []any) OutboxShape {
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := item["object"].(map[string]any); ok {
			return ShapeActivities
		}
		return ShapeFlatPosts
	}
	return ShapeActivities
}

// parseOutboxItem validates one entry and extracts its fields. Entries
// missing any of id, type, published or content yield nil.
func parseOutboxItem(item map[string]any, shape OutboxShape) *parsedPost {
	// Addressing always sits on the outer item; for the activity shape
	// the note fields sit one level down
	to := stringListField(item, "to")
	cc := stringListField(item, "cc")

	note := item
	if shape == ShapeActivities {
		obj, ok := item["object"].(map[string]any)
		if !ok {
			return nil
		}
		note = obj
	}

	iri := stringField(note, "id")
	postType := stringField(note, "type")
	content := stringField(note, "content")
	published := timeField(note, "published")
	if iri == "" || postType == "" || content == "" || published.IsZero() {
		return nil
	}

	post := &parsedPost{
		iri:        iri,
		postType:   postType,
		url:        stringField(note, "url"),
		content:    content,
		sensitive:  boolField(note, "sensitive"),
		visibility: visibilityOf(to, cc),
		inReplyTo:  stringField(note, "inReplyTo"),
		published:  published,
		replies:    collectionTotal(note, "replies"),
		shares:     collectionTotal(note, "shares"),
		likes:      collectionTotal(note, "likes"),
	}

	if raw, ok := note["summary"]; ok {
		if s, ok := raw.(string); ok {
			post.summary = &s
		}
	}
	if cm, ok := note["contentMap"].(map[string]any); ok {
		for lang := range cm {
			post.language = lang
			break
		}
	}
	if atts, ok := note["attachment"].([]any); ok {
		for _, raw := range atts {
			if att, ok := raw.(map[string]any); ok {
				post.attachments = append(post.attachments, att)
			}
		}
	}

	return post
}

// registerRefs records every string a sibling entry may use to point
// at this post: the full iri, the full url, and their path tails. The
// url tail carries the exporting side's post id.
func registerRefs(refs map[string]uuid.UUID, post *parsedPost) {
	refs[post.iri] = post.id
	if tail := util.LastPathSegment(post.iri); tail != "" {
		refs[tail] = post.id
	}
	if post.url != "" {
		refs[post.url] = post.id
		if tail := util.LastPathSegment(post.url); tail != "" {
			refs[tail] = post.id
		}
	}
}

// resolveRef turns an archive post reference into a local post id,
// strictly through the refs map: a reference that does not name a post
// carried by this archive yields nil, never an error. Parsing an id
// out of the reference itself would point rows at posts that do not
// exist locally.
func resolveRef(refs map[string]uuid.UUID, ref string) *uuid.UUID {
	if ref == "" {
		return nil
	}
	if id, ok := refs[ref]; ok {
		return &id
	}
	if id, ok := refs[util.LastPathSegment(ref)]; ok {
		return &id
	}
	return nil
}

func (i *AccountImporter) upsertPost(working uuid.UUID, p *parsedPost, refs map[string]uuid.UUID) error {
	post := &domain.Post{
		Id:            p.id,
		IRI:           p.iri,
		Type:          p.postType,
		AccountId:     working,
		ReplyTargetId: resolveRef(refs, p.inReplyTo),
		Visibility:    p.visibility,
		Summary:       p.summary,
		ContentHtml:   p.content,
		Language:      p.language,
		URL:           p.url,
		Sensitive:     p.sensitive,
		RepliesCount:  p.replies,
		SharesCount:   p.shares,
		LikesCount:    p.likes,
		Published:     p.published,
	}
	if err := i.db.UpsertPostByIRI(post); err != nil {
		return err
	}

	for _, att := range p.attachments {
		u := stringField(att, "url")
		if u == "" {
			continue
		}
		media := &domain.MediaAttachment{
			Id:          canonical.DeriveId(p.id.String(), map[string]string{"url": u}),
			PostId:      p.id,
			Type:        stringField(att, "type"),
			URL:         u,
			ContentType: stringField(att, "mediaType"),
			Description: stringField(att, "name"),
			Width:       intField(att, "width"),
			Height:      intField(att, "height"),
			CreatedAt:   p.published,
		}
		if err := i.db.CreateMediaAttachment(media); err != nil {
			log.Printf("Import: attachment %s for post %s failed, skipping: %v", u, p.iri, err)
		}
	}

	return nil
}

// visibilityOf inverts the audience addressing back into the local
// visibility enum
func visibilityOf(to, cc []string) string {
	public := "https://www.w3.org/ns/activitystreams#Public"
	for _, t := range to {
		if t == public {
			return "public"
		}
	}
	for _, c := range cc {
		if c == public {
			return "unlisted"
		}
	}
	if len(to) > 0 {
		return "followers"
	}
	return "direct"
}
