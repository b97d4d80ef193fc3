package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sanctuarysoundapp/mixerlink-go/pkg/snapshot"
)

// recordExt is the file extension for saved snapshot records.
const recordExt = ".snap"

// ErrNotFound indicates no record exists for the requested ID.
var ErrNotFound = errors.New("snapshot record not found")

// Store manages saved snapshot records in a directory, one CBOR file
// per record. Safe for concurrent use.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on
// first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save persists a record to disk, overwriting any record with the same ID.
func (s *Store) Save(rec *snapshot.Saved) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	data, err := rec.Encode()
	if err != nil {
		return err
	}

	path := s.recordPath(rec.ID)
	// Write-then-rename so a crash cannot leave a torn record.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads one record by ID.
func (s *Store) Load(id string) (*snapshot.Saved, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.recordPath(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return snapshot.DecodeSaved(data)
}

// List returns all records, newest first. Unreadable files are skipped.
func (s *Store) List() ([]*snapshot.Saved, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []*snapshot.Saved
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		rec, err := snapshot.DecodeSaved(data)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CapturedAt.After(out[j].CapturedAt)
	})
	return out, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.recordPath(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.dir, id+recordExt)
}
