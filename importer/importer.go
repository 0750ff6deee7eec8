// Package importer merges an account archive into the local database:
// identity swap for the account, upsert-by-natural-key for posts and
// relationship rows. Re-importing the same archive is a no-op.
package importer

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/deemkeen/trunk/archive"
	"github.com/deemkeen/trunk/canonical"
	"github.com/deemkeen/trunk/domain"
	"github.com/deemkeen/trunk/util"
	"github.com/google/uuid"
)

// Section names one importable archive section
type Section string

const (
	SectionActor     Section = "actor"
	SectionOutbox    Section = "outbox"
	SectionFollowers Section = "followers"
	SectionFollowing Section = "following"
	SectionBookmarks Section = "bookmarks"
	SectionLists     Section = "lists"
	SectionLikes     Section = "likes"
	SectionBlocks    Section = "blocks"
	SectionMutes     Section = "mutes"
)

// importWorkers bounds per-item goroutines inside one section
const importWorkers = 8

// ImportOptions selects which sections a run processes. A nil Sections
// set means all of them.
type ImportOptions struct {
	Sections map[Section]bool
}

func AllSections() map[Section]bool {
	return map[Section]bool{
		SectionActor:     true,
		SectionOutbox:    true,
		SectionFollowers: true,
		SectionFollowing: true,
		SectionBookmarks: true,
		SectionLists:     true,
		SectionLikes:     true,
		SectionBlocks:    true,
		SectionMutes:     true,
	}
}

// SectionResult counts what happened inside one section
type SectionResult struct {
	Imported int
	Skipped  int
}

// ImportResult is the outcome of one import run. AccountId is the
// working actor id after the identity swap.
type ImportResult struct {
	AccountId uuid.UUID
	Sections  map[Section]SectionResult
}

// AccountImporter merges archives into the database
type AccountImporter struct {
	db   Database
	conf *util.AppConfig
}

func NewAccountImporter(db Database, conf *util.AppConfig) *AccountImporter {
	return &AccountImporter{db: db, conf: conf}
}

// ImportData imports every section of the archive read from r into the
// account currently known as actorId
func (i *AccountImporter) ImportData(actorId uuid.UUID, r io.Reader) (*ImportResult, error) {
	return i.ImportDataWithOptions(actorId, r, ImportOptions{})
}

// ImportDataWithOptions runs the import pipeline. Sections run in
// dependency order; the working actor id produced by the account
// section is threaded through all later sections.
func (i *AccountImporter) ImportDataWithOptions(actorId uuid.UUID, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	arc, err := archive.Read(r)
	if err != nil {
		return nil, err
	}
	if err := arc.Validate(); err != nil {
		return nil, err
	}

	enabled := opts.Sections
	if enabled == nil {
		enabled = AllSections()
	}

	result := &ImportResult{
		AccountId: actorId,
		Sections:  make(map[Section]SectionResult),
	}
	working := actorId

	if enabled[SectionActor] {
		newId, res, err := i.importAccount(working, arc)
		if err != nil {
			return nil, err
		}
		working = newId
		result.AccountId = newId
		result.Sections[SectionActor] = res
	}

	// refs maps archive post references to locally derived post ids,
	// filled by the outbox section and consumed by likes and bookmarks
	refs := make(map[string]uuid.UUID)

	if enabled[SectionOutbox] {
		result.Sections[SectionOutbox] = i.importOutbox(working, arc, refs)
	}

	relations := []struct {
		section Section
		entry   string
		item    func(working uuid.UUID, item map[string]any, refs map[string]uuid.UUID) error
	}{
		{SectionFollowers, archive.EntryFollowers, i.importFollower},
		{SectionFollowing, archive.EntryFollowing, i.importFollowing},
		{SectionBookmarks, archive.EntryBookmarks, i.importBookmark},
		{SectionLists, archive.EntryLists, i.importList},
		{SectionLikes, archive.EntryLikes, i.importLike},
		{SectionBlocks, archive.EntryBlocks, i.importBlock},
		{SectionMutes, archive.EntryMutes, i.importMute},
	}
	for _, rel := range relations {
		if !enabled[rel.section] {
			continue
		}
		result.Sections[rel.section] = i.importRelation(working, arc, rel.entry, string(rel.section), refs, rel.item)
	}

	i.refreshCounts(working, enabled)

	log.Printf("Import: run for %s finished, account id %s", actorId, working)
	return result, nil
}

// importAccount derives the stable account id from the archived
// profile and swaps the local account identity over to it. A profile
// that was already imported is left untouched.
func (i *AccountImporter) importAccount(oldId uuid.UUID, arc *archive.Archive) (uuid.UUID, SectionResult, error) {
	doc, err := arc.Document(archive.EntryActor)
	if err != nil {
		return uuid.Nil, SectionResult{}, err
	}

	iri := stringField(doc, "id")
	if iri == "" {
		iri = stringField(doc, "url")
	}
	if iri == "" {
		return uuid.Nil, SectionResult{}, fmt.Errorf("%w: actor document carries no id", domain.ErrIdentityMismatch)
	}

	host, err := util.HostOf(iri)
	if err != nil {
		return uuid.Nil, SectionResult{}, fmt.Errorf("%w: actor id %q has no host", domain.ErrIdentityMismatch, iri)
	}

	user := stringField(doc, "preferredUsername")
	if user == "" {
		return uuid.Nil, SectionResult{}, fmt.Errorf("%w: actor document carries no preferredUsername", domain.ErrIdentityMismatch)
	}
	handle := user + "@" + host
	name := stringField(doc, "name")

	newId := canonical.DeriveId(iri, map[string]string{
		"url":         iri,
		"handle":      handle,
		"displayName": name,
	})

	if err, _ := i.db.ReadAccById(newId); err == nil {
		log.Printf("Import: account %s already present as %s, skipping profile", handle, newId)
		return newId, SectionResult{Skipped: 1}, nil
	}

	acc := &domain.Account{
		Id:           newId,
		IRI:          iri,
		Handle:       handle,
		DisplayName:  name,
		Bio:          stringField(doc, "summary"),
		AvatarURL:    imageURL(doc, "icon"),
		CoverURL:     imageURL(doc, "image"),
		Protected:    boolField(doc, "manuallyApprovesFollowers"),
		InstanceHost: host,
		FieldHtmls:   propertyValues(doc),
		Published:    timeField(doc, "published"),
		CreatedAt:    time.Now().UTC(),
	}

	if err := i.db.SwapAccountIdentity(oldId, acc); err != nil {
		return uuid.Nil, SectionResult{}, fmt.Errorf("failed to swap account identity: %w", err)
	}

	log.Printf("Import: account %s migrated from %s to %s", handle, oldId, newId)
	return newId, SectionResult{Imported: 1}, nil
}

// refreshCounts recomputes the denormalized counters from database
// totals after a run that touched the relevant sections. Run counts
// would understate accounts that already held rows.
func (i *AccountImporter) refreshCounts(working uuid.UUID, enabled map[Section]bool) {
	if !enabled[SectionOutbox] && !enabled[SectionFollowers] && !enabled[SectionFollowing] {
		return
	}

	err, posts := i.db.CountPostsByAccountId(working)
	if err != nil {
		log.Printf("Import: failed to count posts for %s: %v", working, err)
		return
	}
	err, followers := i.db.CountFollowersByAccountId(working)
	if err != nil {
		log.Printf("Import: failed to count followers for %s: %v", working, err)
		return
	}
	err, following := i.db.CountFollowingByAccountId(working)
	if err != nil {
		log.Printf("Import: failed to count following for %s: %v", working, err)
		return
	}

	if err := i.db.UpdateAccountCounts(working, followers, following, posts); err != nil {
		log.Printf("Import: failed to refresh counts for %s: %v", working, err)
	}
}
