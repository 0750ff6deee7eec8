// Package archive reads and writes the tar container an account
// export travels in. Every section is a JSON document at a fixed entry
// name; media blobs live under media/.
package archive

import (
	"archive/tar"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/deemkeen/trunk/domain"
)

const (
	EntryActor     = "actor.json"
	EntryOutbox    = "outbox.json"
	EntryFollowers = "followers.json"
	EntryFollowing = "following.json"
	EntryBookmarks = "bookmarks.json"
	EntryLists     = "lists.json"
	EntryLikes     = "likes.json"
	EntryBlocks    = "blocks.json"
	EntryMutes     = "mutes.json"
	MediaPrefix    = "media/"
)

// Writer streams archive entries into a tar stream
type Writer struct {
	tw *tar.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{tw: tar.NewWriter(w)}
}

// AddDocument marshals doc and writes it at name
func (w *Writer) AddDocument(name string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return w.addEntry(name, data)
}

// AddMedia writes a media blob under media/
func (w *Writer) AddMedia(filename string, data []byte) error {
	return w.addEntry(MediaPrefix+filename, data)
}

func (w *Writer) addEntry(name string, data []byte) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", name, err)
	}
	if _, err := w.tw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.tw.Close()
}

// Archive is a fully read account archive
type Archive struct {
	Entries map[string][]byte
	Media   map[string][]byte
}

// Read consumes a tar stream into an Archive. Unknown entries are kept
// so that foreign exporters' extras survive a round trip unread.
func Read(r io.Reader) (*Archive, error) {
	arc := &Archive{
		Entries: make(map[string][]byte),
		Media:   make(map[string][]byte),
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArchive, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrInvalidArchive, hdr.Name, err)
		}

		name := strings.TrimPrefix(hdr.Name, "./")
		if strings.HasPrefix(name, MediaPrefix) {
			arc.Media[strings.TrimPrefix(name, MediaPrefix)] = data
		} else {
			arc.Entries[name] = data
		}
	}

	return arc, nil
}

// Validate checks that the archive can be imported: the actor document
// must be present and every JSON entry must parse.
func (a *Archive) Validate() error {
	if _, ok := a.Entries[EntryActor]; !ok {
		return fmt.Errorf("%w: missing %s", domain.ErrInvalidArchive, EntryActor)
	}
	for name, data := range a.Entries {
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		if !json.Valid(data) {
			return fmt.Errorf("%w: %s is not valid JSON", domain.ErrInvalidArchive, name)
		}
	}
	return nil
}

// Document parses the entry at name into a generic JSON object
func (a *Archive) Document(name string) (map[string]any, error) {
	data, ok := a.Entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidArchive, name)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidArchive, name, err)
	}
	return doc, nil
}

// OrderedItems returns the orderedItems array of the collection entry
// at name. A missing entry yields an empty slice, a present but
// malformed one an error.
func (a *Archive) OrderedItems(name string) ([]any, error) {
	if _, ok := a.Entries[name]; !ok {
		return nil, nil
	}
	doc, err := a.Document(name)
	if err != nil {
		return nil, err
	}
	raw, ok := doc["orderedItems"]
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s orderedItems is not an array", domain.ErrInvalidArchive, name)
	}
	return items, nil
}

// IsInvalid reports whether err stems from a broken archive
func IsInvalid(err error) bool {
	return errors.Is(err, domain.ErrInvalidArchive)
}
