package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/ontology/internal/vocab"
)

// DefaultKey is the object key of the vocabulary snapshot.
const DefaultKey = "vocabulary.json"

// Options selects and configures a blob driver.
type Options struct {
	Driver Driver
	// Path is the root directory for the fs driver.
	Path string
	// Key overrides DefaultKey.
	Key string
	S3  S3Config
}

// Store reads and writes the vocabulary snapshot.
type Store struct {
	blob Blob
	key  string
}

// New wraps blob. An empty key means DefaultKey.
func New(blob Blob, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{blob: blob, key: key}
}

// Open builds a Store for opts. Driver none (or empty) returns nil, nil.
func Open(ctx context.Context, opts Options) (*Store, error) {
	var (
		blob Blob
		err  error
	)
	switch opts.Driver {
	case "", DriverNone:
		return nil, nil
	case DriverFilesystem:
		blob, err = NewFilesystem(opts.Path)
	case DriverS3:
		blob, err = NewS3(ctx, opts.S3)
	case DriverMemory:
		blob = NewMemory()
	default:
		return nil, fmt.Errorf("unknown snapshot driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	return New(blob, opts.Key), nil
}

// Key returns the snapshot's object key.
func (s *Store) Key() string {
	return s.key
}

// Load reads the snapshot. ok is false when no snapshot exists.
func (s *Store) Load(ctx context.Context) (vocab.Vocabulary, bool, error) {
	data, ok, err := s.blob.Get(ctx, s.key)
	if err != nil || !ok {
		return vocab.Vocabulary{}, false, err
	}
	var v vocab.Vocabulary
	if err := json.Unmarshal(data, &v); err != nil {
		return vocab.Vocabulary{}, false, fmt.Errorf("decode snapshot %s: %w", s.key, err)
	}
	return v, true, nil
}

// Save writes v as indented JSON, preserving section and category order.
func (s *Store) Save(ctx context.Context, v vocab.Vocabulary) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.blob.Put(ctx, s.key, append(data, '\n'))
}
