package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/hailam/chesstactics/internal/review"
)

// ErrNotFound is returned when no review has the requested id.
var ErrNotFound = errors.New("review not found")

const reviewPrefix = "review/"

func reviewKey(id string) []byte {
	return []byte(reviewPrefix + id)
}

// Summary is the listing entry for a stored review.
type Summary struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"created_at"`
	Tags         map[string]string `json:"tags,omitempty"`
	Plies        int               `json:"plies"`
	HangingPlies review.Tally      `json:"hanging_plies"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// Open opens (or creates) the review database in dir, creating dir and its
// parents as needed.
func Open(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("storage: creating %s: %w", dir, err)
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging
	return open(opts)
}

// OpenInMemory opens a database that lives only as long as the Storage.
func OpenInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Storage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: opening database: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores rv under a new id, which is also written to rv.ID.
func (s *Storage) Save(rv *review.Review) (string, error) {
	rv.ID = uuid.NewString()
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = time.Now()
	}

	data, err := json.Marshal(rv)
	if err != nil {
		return "", fmt.Errorf("storage: encoding review: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(reviewKey(rv.ID), data)
	})
	if err != nil {
		return "", fmt.Errorf("storage: saving review: %w", err)
	}
	return rv.ID, nil
}

// Load returns the review with the given id.
func (s *Storage) Load(id string) (*review.Review, error) {
	rv := &review.Review{}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(reviewKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, rv)
		})
	})
	if err != nil {
		return nil, err
	}

	return rv, nil
}

// Delete removes the review with the given id.
func (s *Storage) Delete(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(reviewKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return err
		}
		return txn.Delete(reviewKey(id))
	})
}

// List returns a summary of every stored review, newest first.
func (s *Storage) List() ([]Summary, error) {
	var summaries []Summary

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(reviewPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rv review.Review
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rv)
			})
			if err != nil {
				return err
			}
			summaries = append(summaries, Summary{
				ID:           rv.ID,
				CreatedAt:    rv.CreatedAt,
				Tags:         rv.Tags,
				Plies:        len(rv.Plies),
				HangingPlies: rv.HangingPlies,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: listing reviews: %w", err)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}
