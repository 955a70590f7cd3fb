package cache

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

const sample = `var documenterSearchIndex = {"docs":
[{"location":"index.html","page":"Home","title":"Home","text":"","category":"page"}]
}
`

func TestWriteRead(t *testing.T) {
	store := New(t.TempDir())

	meta, err := store.Write([]byte(sample), "https://example.org/search_index.js", 1)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if meta.SHA256 != Hash([]byte(sample)) {
		t.Errorf("SHA256 = %s, want %s", meta.SHA256, Hash([]byte(sample)))
	}
	if meta.Entries != 1 || meta.Size != len(sample) {
		t.Errorf("meta = %+v", meta)
	}

	got, err := store.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, []byte(sample)) {
		t.Errorf("Read returned %q, want %q", got, sample)
	}

	// Stored bytes are compressed, not the raw source
	raw, err := os.ReadFile(store.SourcePath())
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(raw, []byte("documenterSearchIndex")) {
		t.Error("cached source was stored uncompressed")
	}

	loaded, err := store.Meta()
	if err != nil {
		t.Fatalf("Meta failed: %v", err)
	}
	if loaded.SHA256 != meta.SHA256 || loaded.Source != meta.Source || !loaded.LastUpdate.Equal(meta.LastUpdate) {
		t.Errorf("Meta() = %+v, want %+v", loaded, meta)
	}
}

func TestEmptyStore(t *testing.T) {
	store := New(t.TempDir())

	if _, err := store.Read(); !errors.Is(err, ErrNoCache) {
		t.Errorf("Read() error = %v, want ErrNoCache", err)
	}
	if _, err := store.Meta(); !errors.Is(err, ErrNoCache) {
		t.Errorf("Meta() error = %v, want ErrNoCache", err)
	}
	if !store.IsStale(time.Hour) {
		t.Error("empty store should be stale")
	}
	if !store.IsStale(0) {
		t.Error("empty store should be stale even with zero TTL")
	}
	if store.Unchanged([]byte(sample)) {
		t.Error("empty store should never report unchanged")
	}
}

func TestUnchanged(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Write([]byte(sample), "file", 1); err != nil {
		t.Fatal(err)
	}

	if !store.Unchanged([]byte(sample)) {
		t.Error("same bytes should be unchanged")
	}
	if store.Unchanged([]byte(strings.Replace(sample, "Home", "Start", 1))) {
		t.Error("different bytes should be changed")
	}
}

func TestIsStale(t *testing.T) {
	store := New(t.TempDir())
	meta, err := store.Write([]byte(sample), "file", 1)
	if err != nil {
		t.Fatal(err)
	}

	if store.IsStale(time.Hour) {
		t.Error("fresh cache reported stale")
	}

	// Backdate the metadata
	meta.LastUpdate = time.Now().Add(-48 * time.Hour)
	if err := store.writeMeta(meta); err != nil {
		t.Fatal(err)
	}

	if !store.IsStale(24 * time.Hour) {
		t.Error("two-day-old cache should be stale with 24h TTL")
	}
	if store.IsStale(0) {
		t.Error("zero TTL should never expire")
	}

	touched, err := store.Touch("https://example.org/search_index.js")
	if err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	if store.IsStale(24 * time.Hour) {
		t.Error("touched cache should be fresh")
	}
	if touched.SHA256 != meta.SHA256 {
		t.Error("Touch must not change the hash")
	}

	reread, err := store.Meta()
	if err != nil {
		t.Fatal(err)
	}
	if reread.Source != "https://example.org/search_index.js" {
		t.Errorf("Source = %q after Touch", reread.Source)
	}
}

func TestMetaFileFormat(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Write([]byte(sample), "local.js", 1); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(store.MetaPath())
	if err != nil {
		t.Fatal(err)
	}

	var fields map[string]interface{}
	if err := yaml.Unmarshal(data, &fields); err != nil {
		t.Fatalf("meta file is not YAML: %v", err)
	}
	for _, key := range []string{"sha256", "source", "entries", "size", "last_update"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("meta file missing %q", key)
		}
	}
}

func TestCorruptMeta(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Write([]byte(sample), "file", 1); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.MetaPath(), []byte("sha256: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Meta(); err == nil || errors.Is(err, ErrNoCache) {
		t.Errorf("Meta() error = %v, want parse error", err)
	}
	if !store.IsStale(time.Hour) {
		t.Error("corrupt metadata should be treated as stale")
	}
}
