package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Sync pushes document-store records into a derived index after a mutation.
// The production implementation lives in pkg/mirror; a nil Sync disables
// mirroring (read-only tooling, tests).
type Sync interface {
	SyncRecords(ctx context.Context, records []DatasetRecord) error
}

// DocumentStore is the authoritative store: a single JSON array of
// DatasetRecord, insertion-ordered. All mutations run under an exclusive
// lock held through the mirror sync.
type DocumentStore struct {
	path   string
	mu     sync.Mutex
	syncer Sync
}

// NewDocumentStore opens (and if necessary bootstraps) the document at path.
// The parent directory is created when missing; an absent document is
// initialized to an empty array.
func NewDocumentStore(path string, syncer Sync) (*DocumentStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create document directory: %w", err)
		}
	}
	s := &DocumentStore{path: path, syncer: syncer}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := s.writeLocked([]DatasetRecord{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat document file: %w", err)
	}
	return s, nil
}

// Path returns the location of the backing document file.
func (s *DocumentStore) Path() string {
	return s.path
}

// ReadAll returns every record in document order.
func (s *DocumentStore) ReadAll(ctx context.Context) ([]DatasetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

// Get returns the record with the given id, or ErrNotFound.
func (s *DocumentStore) Get(ctx context.Context, id string) (*DatasetRecord, error) {
	records, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			rec := records[i]
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

// Upsert validates the record, replaces an existing record with the same id
// in place (original position preserved) or appends a new one, persists the
// document, and synchronously pushes the result into the search mirror. The
// whole sequence is exclusive with respect to other upserts on this store.
func (s *DocumentStore) Upsert(ctx context.Context, record DatasetRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	record.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readLocked()
	if err != nil {
		return err
	}

	replaced := false
	for i := range records {
		if records[i].ID == record.ID {
			records[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, record)
	}

	if err := s.writeLocked(records); err != nil {
		return err
	}

	if s.syncer != nil {
		if err := s.syncer.SyncRecords(ctx, records); err != nil {
			return fmt.Errorf("failed to sync search mirror: %w", err)
		}
	}
	return nil
}

// QueryLatest returns up to n records ordered by Updated descending. Records
// without Updated sort as the empty string, that is last; ties keep document
// order (stable sort). n must be at least 1.
func (s *DocumentStore) QueryLatest(ctx context.Context, n int) ([]DatasetRecord, error) {
	if n < 1 {
		return nil, &ValidationError{Field: "n", Reason: "must be >= 1"}
	}
	records, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Updated > records[j].Updated
	})
	if n < len(records) {
		records = records[:n]
	}
	return records, nil
}

// Probe verifies the document is present and parseable. Used by health
// checks.
func (s *DocumentStore) Probe(ctx context.Context) error {
	_, err := s.ReadAll(ctx)
	return err
}

func (s *DocumentStore) readLocked() ([]DatasetRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		// Deleted out from under us; bootstrap again.
		if err := s.writeLocked([]DatasetRecord{}); err != nil {
			return nil, err
		}
		return []DatasetRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document file: %w", err)
	}

	var records []DatasetRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &CorruptionError{Path: s.path, Err: err}
	}
	return records, nil
}

func (s *DocumentStore) writeLocked(records []DatasetRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write document file: %w", err)
	}
	return nil
}
