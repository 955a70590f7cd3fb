package cache

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

const (
	sourceFile = "docs/search_index.js.zst"
	metaFile   = "docs/cache.meta"
)

// ErrNoCache is returned by Read when nothing has been stored yet
var ErrNoCache = errors.New("no cached search index")

// Meta describes the cached source
type Meta struct {
	SHA256     string    `yaml:"sha256"`
	Source     string    `yaml:"source"`
	Entries    int       `yaml:"entries"`
	Size       int       `yaml:"size"`
	LastUpdate time.Time `yaml:"last_update"`
}

// Store keeps the most recently fetched search_index.js under a data directory
type Store struct {
	dir string
}

// New returns the store rooted at dataDir
func New(dataDir string) *Store {
	return &Store{dir: dataDir}
}

// SourcePath is the compressed search_index.js
func (s *Store) SourcePath() string {
	return filepath.Join(s.dir, sourceFile)
}

// MetaPath is the YAML metadata file
func (s *Store) MetaPath() string {
	return filepath.Join(s.dir, metaFile)
}

// Hash returns the hex SHA-256 of data
func Hash(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// Write compresses data into the store and records its metadata. The
// returned Meta has LastUpdate set to now.
func (s *Store) Write(data []byte, source string, entries int) (Meta, error) {
	meta := Meta{
		SHA256:     Hash(data),
		Source:     source,
		Entries:    entries,
		Size:       len(data),
		LastUpdate: time.Now().UTC().Truncate(time.Second),
	}

	if err := os.MkdirAll(filepath.Dir(s.SourcePath()), 0755); err != nil {
		return Meta{}, fmt.Errorf("creating cache directory: %w", err)
	}

	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return Meta{}, fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return Meta{}, fmt.Errorf("compressing search index: %w", err)
	}
	if err := w.Close(); err != nil {
		return Meta{}, fmt.Errorf("closing zstd writer: %w", err)
	}

	if err := writeFileAtomic(s.SourcePath(), buf.Bytes()); err != nil {
		return Meta{}, fmt.Errorf("writing cached search index: %w", err)
	}

	if err := s.writeMeta(meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// Read returns the decompressed cached source
func (s *Store) Read() ([]byte, error) {
	f, err := os.Open(s.SourcePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCache
		}
		return nil, fmt.Errorf("opening cached search index: %w", err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing cached search index: %w", err)
	}
	return data, nil
}

// Meta returns the stored metadata, or ErrNoCache
func (s *Store) Meta() (Meta, error) {
	data, err := os.ReadFile(s.MetaPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, ErrNoCache
		}
		return Meta{}, fmt.Errorf("reading cache metadata: %w", err)
	}

	var meta Meta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return Meta{}, fmt.Errorf("parsing cache metadata: %w", err)
	}
	return meta, nil
}

// Unchanged reports whether data matches the cached source
func (s *Store) Unchanged(data []byte) bool {
	meta, err := s.Meta()
	if err != nil {
		return false
	}
	return meta.SHA256 == Hash(data)
}

// Touch bumps LastUpdate and records source without rewriting the content
func (s *Store) Touch(source string) (Meta, error) {
	meta, err := s.Meta()
	if err != nil {
		return Meta{}, err
	}
	meta.Source = source
	meta.LastUpdate = time.Now().UTC().Truncate(time.Second)
	if err := s.writeMeta(meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// IsStale reports whether the cache is missing or older than ttl.
// A ttl of zero never expires.
func (s *Store) IsStale(ttl time.Duration) bool {
	meta, err := s.Meta()
	if err != nil {
		return true
	}
	if ttl == 0 {
		return false
	}
	return time.Since(meta.LastUpdate) > ttl
}

func (s *Store) writeMeta(meta Meta) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding cache metadata: %w", err)
	}
	if err := writeFileAtomic(s.MetaPath(), data); err != nil {
		return fmt.Errorf("writing cache metadata: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
