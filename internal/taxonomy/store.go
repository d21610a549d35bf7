package taxonomy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists the taxonomy as a JSON document on disk and serves
// copy-on-write snapshots to concurrent readers.
//
// Saves replace the whole document atomically: the new content is written to
// a temp file in the same directory and renamed over the old one, so a reader
// (or a crash) never observes a half-written document. The in-memory copy is
// swapped under the same lock.
type Store struct {
	path string

	mu  sync.RWMutex
	tax Taxonomy
}

// Open loads the taxonomy document at path. A missing file is not an error;
// it yields an empty taxonomy that materializes on the first save.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read taxonomy document: %w", err)
	}

	var tax Taxonomy
	if err := json.Unmarshal(data, &tax); err != nil {
		return nil, fmt.Errorf("parse taxonomy document: %w", err)
	}
	if err := tax.Validate(); err != nil {
		return nil, err
	}

	s.tax = tax
	return s, nil
}

// Snapshot returns a deep copy of the current taxonomy. Callers may hold it
// across a concurrent Save without observing partial state.
func (s *Store) Snapshot() Taxonomy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tax.clone()
}

// Save validates and persists a replacement document.
func (s *Store) Save(tax Taxonomy) error {
	if err := tax.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeLocked(tax); err != nil {
		return err
	}
	s.tax = tax.clone()
	return nil
}

// AssignLocation points a branch's default storage location at location and
// returns the branch rule as stored. Assigning the location a branch already
// has is a no-op success; any other current value is overwritten.
func (s *Store) AssignLocation(typeName, branchName, location string) (BranchRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	br := s.findLocked(typeName, branchName)
	if br == nil {
		return BranchRule{}, ErrNotFound
	}
	if br.StoragePlace == location {
		return *br, nil
	}

	next := s.tax.clone()
	nb := findBranch(&next, typeName, branchName)
	nb.StoragePlace = location
	if err := s.writeLocked(next); err != nil {
		return BranchRule{}, err
	}
	s.tax = next
	return *nb, nil
}

// ClearLocation removes a branch's location only if it currently equals the
// supplied one; otherwise the call is a no-op.
func (s *Store) ClearLocation(typeName, branchName, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	br := s.findLocked(typeName, branchName)
	if br == nil {
		return ErrNotFound
	}
	if br.StoragePlace != location {
		return nil
	}

	next := s.tax.clone()
	findBranch(&next, typeName, branchName).StoragePlace = ""
	if err := s.writeLocked(next); err != nil {
		return err
	}
	s.tax = next
	return nil
}

// ClearAllLocations removes every branch's default storage location.
func (s *Store) ClearAllLocations() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.tax.clone()
	for i := range next.Types {
		for j := range next.Types[i].Branches {
			next.Types[i].Branches[j].StoragePlace = ""
		}
	}
	if err := s.writeLocked(next); err != nil {
		return err
	}
	s.tax = next
	return nil
}

func (s *Store) findLocked(typeName, branchName string) *BranchRule {
	return findBranch(&s.tax, typeName, branchName)
}

func findBranch(t *Taxonomy, typeName, branchName string) *BranchRule {
	for i := range t.Types {
		if t.Types[i].Name != typeName {
			continue
		}
		for j := range t.Types[i].Branches {
			if t.Types[i].Branches[j].Name == branchName {
				return &t.Types[i].Branches[j]
			}
		}
	}
	return nil
}

// writeLocked persists tax with an atomic rename. Caller holds s.mu.
func (s *Store) writeLocked(tax Taxonomy) error {
	data, err := json.MarshalIndent(tax, "", "  ")
	if err != nil {
		return fmt.Errorf("encode taxonomy document: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".taxonomy-*.json")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace taxonomy document: %w", err)
	}
	return nil
}
