package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ewalsh/admitdb/internal/gradcafe"
	"github.com/ewalsh/admitdb/internal/standardize"
	"github.com/ewalsh/admitdb/internal/storage"
)

type passthroughStandardizer struct{}

func (passthroughStandardizer) Standardize(_ context.Context, text string) standardize.Result {
	return standardize.Result{Program: text, University: "Unknown"}
}

// memStore keeps inserted applications keyed by URL and mimics the
// conflict-skip behavior of the real database.
type memStore struct {
	apps    map[string]storage.Application
	failURL string
}

func newMemStore() *memStore {
	return &memStore{apps: make(map[string]storage.Application)}
}

func (m *memStore) InsertApplication(_ context.Context, app storage.Application) (bool, error) {
	if app.URL == m.failURL {
		return false, errors.New("disk full")
	}
	if _, exists := m.apps[app.URL]; exists {
		return false, nil
	}
	m.apps[app.URL] = app
	return true, nil
}

func rawRecord(seq int, text, url string) gradcafe.RawRecord {
	return gradcafe.RawRecord{
		Seq:        seq,
		University: "Yale University",
		Program:    "Physics PhD",
		DateAdded:  "February 12, 2026",
		Decision:   "Accepted on 12 Feb 2026",
		FullText:   text,
		Page:       1,
		URL:        url,
	}
}

func TestSync_StopsAtMarker(t *testing.T) {
	store := newMemStore()
	l := New(passthroughStandardizer{}, store, nil)

	fetched := []gradcafe.RawRecord{
		rawRecord(1, "newest entry", "u1"),
		rawRecord(2, "second entry", "u2"),
		rawRecord(3, "already loaded", "u3"),
		rawRecord(4, "even older", "u4"),
	}

	n := l.Sync(context.Background(), "already loaded", fetched)

	if n != 2 {
		t.Errorf("inserted %d, want 2", n)
	}
	if _, ok := store.apps["u3"]; ok {
		t.Error("marker record should not be inserted")
	}
	if _, ok := store.apps["u4"]; ok {
		t.Error("records after the marker should not be inserted")
	}
}

func TestSync_EmptyMarkerLoadsEverything(t *testing.T) {
	store := newMemStore()
	l := New(passthroughStandardizer{}, store, nil)

	fetched := []gradcafe.RawRecord{
		rawRecord(1, "", "u1"),
		rawRecord(2, "entry text", "u2"),
	}

	if n := l.Sync(context.Background(), "", fetched); n != 2 {
		t.Errorf("inserted %d, want 2", n)
	}
}

func TestSync_IsIdempotent(t *testing.T) {
	store := newMemStore()
	l := New(passthroughStandardizer{}, store, nil)

	fetched := []gradcafe.RawRecord{rawRecord(1, "entry text", "u1")}

	if n := l.Sync(context.Background(), "", fetched); n != 1 {
		t.Fatalf("first sync inserted %d, want 1", n)
	}
	if n := l.Sync(context.Background(), "", fetched); n != 0 {
		t.Errorf("second sync inserted %d, want 0", n)
	}
}

func TestSync_SkipsFailingInsert(t *testing.T) {
	store := newMemStore()
	store.failURL = "u1"
	l := New(passthroughStandardizer{}, store, nil)

	fetched := []gradcafe.RawRecord{
		rawRecord(1, "first", "u1"),
		rawRecord(2, "second", "u2"),
	}

	if n := l.Sync(context.Background(), "", fetched); n != 1 {
		t.Errorf("inserted %d, want 1", n)
	}
	if _, ok := store.apps["u2"]; !ok {
		t.Error("record after the failing insert should still load")
	}
}

func TestSync_CombinesUniversityAndProgram(t *testing.T) {
	store := newMemStore()
	l := New(passthroughStandardizer{}, store, nil)

	l.Sync(context.Background(), "", []gradcafe.RawRecord{rawRecord(1, "entry", "u1")})

	app, ok := store.apps["u1"]
	if !ok {
		t.Fatal("record not inserted")
	}
	if app.Program != "Yale University - Physics PhD" {
		t.Errorf("program = %q, want Yale University - Physics PhD", app.Program)
	}
}

func TestLoadFile_ListAndKeyedForms(t *testing.T) {
	dir := t.TempDir()

	listPath := filepath.Join(dir, "list.json")
	list := `[{"Program Name": "Physics PhD", "University": "Yale University", "URL": "u1"}]`
	if err := os.WriteFile(listPath, []byte(list), 0o644); err != nil {
		t.Fatal(err)
	}

	keyedPath := filepath.Join(dir, "keyed.json")
	keyed := `{"2": {"Program Name": "History PhD", "URL": "u3"},
	           "10": {"Program Name": "English PhD", "URL": "u4"},
	           "1": {"Program Name": "Biology PhD", "URL": "u2"}}`
	if err := os.WriteFile(keyedPath, []byte(keyed), 0o644); err != nil {
		t.Fatal(err)
	}

	store := newMemStore()
	l := New(passthroughStandardizer{}, store, nil)

	if n, err := l.LoadFile(context.Background(), listPath); err != nil || n != 1 {
		t.Errorf("list form: n=%d err=%v", n, err)
	}
	if n, err := l.LoadFile(context.Background(), keyedPath); err != nil || n != 3 {
		t.Errorf("keyed form: n=%d err=%v", n, err)
	}
	if len(store.apps) != 4 {
		t.Errorf("store holds %d rows, want 4", len(store.apps))
	}
}

func TestLoadFile_MissingAndMalformed(t *testing.T) {
	store := newMemStore()
	l := New(passthroughStandardizer{}, store, nil)

	if n, err := l.LoadFile(context.Background(), filepath.Join(t.TempDir(), "absent.json")); err != nil || n != 0 {
		t.Errorf("missing file: n=%d err=%v", n, err)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if n, err := l.LoadFile(context.Background(), bad); err != nil || n != 0 {
		t.Errorf("malformed file: n=%d err=%v", n, err)
	}
}
