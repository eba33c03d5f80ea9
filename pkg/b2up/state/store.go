// Package state provides a Badger-backed store of per-file upload
// fingerprints, used by the native engine to skip unchanged files.
package state

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// prefixFingerprint namespaces fingerprint keys within the database.
const prefixFingerprint = "fp:"

// Store is the upload state index.
type Store struct {
	db *badger.DB
}

// Open opens or creates a store at the given path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Fingerprint returns the stored fingerprint for the slash-separated
// relative path, and whether one exists.
func (s *Store) Fingerprint(rel string) (string, bool) {
	var fp string

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixFingerprint + rel))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			fp = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false
	}

	return fp, true
}

// SetFingerprint stores the fingerprint for one relative path.
func (s *Store) SetFingerprint(rel, fp string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixFingerprint+rel), []byte(fp))
	})
}

// SetFingerprints stores many fingerprints in one write batch.
func (s *Store) SetFingerprints(fps map[string]string) error {
	if len(fps) == 0 {
		return nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for rel, fp := range fps {
		if err := wb.Set([]byte(prefixFingerprint+rel), []byte(fp)); err != nil {
			return fmt.Errorf("batching fingerprint for %s: %w", rel, err)
		}
	}

	return wb.Flush()
}

// Clear removes every stored fingerprint.
func (s *Store) Clear() error {
	return s.db.DropPrefix([]byte(prefixFingerprint))
}
