package archive

import (
	"bytes"
	"errors"
	"testing"

	"github.com/deemkeen/trunk/domain"
)

func buildTestArchive(t *testing.T) []byte {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	actor := domain.NewDocument().
		Set("id", "https://example.com/@alice").
		Set("type", "Person").
		Set("preferredUsername", "alice")
	if err := w.AddDocument(EntryActor, actor); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}

	outbox := domain.NewDocument().
		Set("type", "OrderedCollection").
		Set("totalItems", 0).
		Set("orderedItems", []any{})
	if err := w.AddDocument(EntryOutbox, outbox); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}

	if err := w.AddMedia("avatar.png", []byte{0x89, 'P', 'N', 'G'}); err != nil {
		t.Fatalf("AddMedia failed: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return buf.Bytes()
}

func TestWriteReadRoundTrip(t *testing.T) {
	data := buildTestArchive(t)

	arc, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(arc.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(arc.Entries))
	}
	if len(arc.Media) != 1 {
		t.Errorf("media = %d, want 1", len(arc.Media))
	}
	if !bytes.Equal(arc.Media["avatar.png"], []byte{0x89, 'P', 'N', 'G'}) {
		t.Error("media bytes corrupted")
	}

	doc, err := arc.Document(EntryActor)
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if doc["preferredUsername"] != "alice" {
		t.Errorf("preferredUsername = %v", doc["preferredUsername"])
	}
}

func TestValidate(t *testing.T) {
	arc, err := Read(bytes.NewReader(buildTestArchive(t)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if err := arc.Validate(); err != nil {
		t.Errorf("Validate failed on a good archive: %v", err)
	}
}

func TestValidateRejectsMissingActor(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.AddDocument(EntryOutbox, domain.NewDocument().Set("type", "OrderedCollection")); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	w.Close()

	arc, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if err := arc.Validate(); !errors.Is(err, domain.ErrInvalidArchive) {
		t.Errorf("expected ErrInvalidArchive, got %v", err)
	}
}

func TestValidateRejectsBrokenJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.AddMedia("x.bin", []byte("not json, and that is fine")); err != nil {
		t.Fatalf("AddMedia failed: %v", err)
	}
	if err := w.addEntry(EntryActor, []byte("{broken")); err != nil {
		t.Fatalf("addEntry failed: %v", err)
	}
	w.Close()

	arc, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if err := arc.Validate(); !errors.Is(err, domain.ErrInvalidArchive) {
		t.Errorf("expected ErrInvalidArchive, got %v", err)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("definitely not a tar stream")))
	if !errors.Is(err, domain.ErrInvalidArchive) {
		t.Errorf("expected ErrInvalidArchive, got %v", err)
	}
}

func TestOrderedItems(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.AddDocument(EntryActor, domain.NewDocument().Set("id", "x"))
	w.AddDocument(EntryLikes, domain.NewDocument().
		Set("type", "OrderedCollection").
		Set("orderedItems", []any{"a", "b"}))
	w.Close()

	arc, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	items, err := arc.OrderedItems(EntryLikes)
	if err != nil {
		t.Fatalf("OrderedItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}

	// Absent sections are just empty
	items, err = arc.OrderedItems(EntryMutes)
	if err != nil {
		t.Fatalf("OrderedItems on absent entry failed: %v", err)
	}
	if items != nil {
		t.Errorf("absent section should yield nil, got %v", items)
	}
}
