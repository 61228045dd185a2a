package personality

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/becomeliminal/astra/logging"
)

// ErrStore marks a trait store that could not be read or written for reasons
// other than an absent or corrupt file.
var ErrStore = errors.New("trait store unavailable")

// Store persists the trait map. Load never fails on missing or unparsable
// data; it returns an empty map instead.
// Implementations: JSONFileStore, SQLiteStore.
type Store interface {
	Load(ctx context.Context) (TraitMap, error)
	Save(ctx context.Context, traits TraitMap) error
}

// JSONFileStore keeps the trait map as a JSON object in a single file.
type JSONFileStore struct {
	path string
}

// NewJSONFileStore returns a store backed by path. The file is created on
// first Save.
func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

// Path returns the backing file.
func (s *JSONFileStore) Path() string {
	return s.path
}

// Load reads the trait map. An absent or corrupt file yields an empty map.
func (s *JSONFileStore) Load(ctx context.Context) (TraitMap, error) {
	log := logging.For("personality")

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return TraitMap{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStore, s.path, err)
	}

	traits := TraitMap{}
	if err := json.Unmarshal(data, &traits); err != nil {
		log.WithError(err).WithField("path", s.path).Warn("trait file unparsable, starting empty")
		return TraitMap{}, nil
	}
	if traits == nil {
		return TraitMap{}, nil
	}
	if n := traits.Sanitize(); n > 0 {
		log.WithField("dropped", n).Warn("trait file held out-of-range strengths")
	}
	return traits, nil
}

// Save overwrites the file with traits. The write goes through a temporary
// file and a rename so a crash never leaves a half-written map.
func (s *JSONFileStore) Save(ctx context.Context, traits TraitMap) error {
	if traits == nil {
		traits = TraitMap{}
	}
	data, err := json.MarshalIndent(traits, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode traits: %w", ErrStore, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create dir %s: %w", ErrStore, dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".traits-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrStore, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write traits: %w", ErrStore, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %w", ErrStore, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: replace %s: %w", ErrStore, s.path, err)
	}
	return nil
}
