package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
)

var (
	// ErrNotFound is returned by Get when no analysis is stored for a position.
	ErrNotFound = errors.New("analysis not found")

	// ErrCorrupt is returned when a stored record fails its checksum.
	ErrCorrupt = errors.New("analysis record corrupt")
)

// Keys are the prefix followed by the 8-byte big-endian position hash.
var analysisPrefix = []byte("a/")

// Analysis is the stored result of searching one position.
type Analysis struct {
	FEN      string    `json:"fen"`
	BestMove string    `json:"best_move"`
	Score    int       `json:"score"`
	Depth    int       `json:"depth"`
	Nodes    uint64    `json:"nodes"`
	Updated  time.Time `json:"updated"`
}

// AnalysisStore caches Analysis records in BadgerDB, keyed by the Zobrist
// hash of the position.
type AnalysisStore struct {
	db *badger.DB
}

// Open opens or creates the store in dir. An empty dir selects the default
// data directory.
func Open(dir string) (*AnalysisStore, error) {
	if dir == "" {
		var err error
		if dir, err = AnalysisDir(); err != nil {
			return nil, err
		}
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging
	return open(opts)
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*AnalysisStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*AnalysisStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open analysis store: %w", err)
	}
	return &AnalysisStore{db: db}, nil
}

// Close closes the database
func (s *AnalysisStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func analysisKey(hash uint64) []byte {
	key := make([]byte, len(analysisPrefix)+8)
	copy(key, analysisPrefix)
	binary.BigEndian.PutUint64(key[len(analysisPrefix):], hash)
	return key
}

// encode prefixes the JSON body with its xxhash checksum.
func encode(a *Analysis) ([]byte, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 8, 8+len(body))
	binary.LittleEndian.PutUint64(buf, xxhash.Sum64(body))
	return append(buf, body...), nil
}

func decode(val []byte) (*Analysis, error) {
	if len(val) < 8 {
		return nil, ErrCorrupt
	}
	body := val[8:]
	if binary.LittleEndian.Uint64(val[:8]) != xxhash.Sum64(body) {
		return nil, ErrCorrupt
	}
	var a Analysis
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &a, nil
}

// Get returns the analysis stored for the position hash.
func (s *AnalysisStore) Get(hash uint64) (*Analysis, error) {
	var a *Analysis
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(analysisKey(hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			a, err = decode(val)
			return err
		})
	})
	return a, err
}

// Put stores a unless a deeper analysis of the same position is already
// present. It reports whether a was written. A corrupt record is always
// replaced.
func (s *AnalysisStore) Put(hash uint64, a *Analysis) (bool, error) {
	written := false
	err := s.db.Update(func(txn *badger.Txn) error {
		key := analysisKey(hash)
		item, err := txn.Get(key)
		switch {
		case err == nil:
			var old *Analysis
			if err := item.Value(func(val []byte) error {
				old, _ = decode(val)
				return nil
			}); err != nil {
				return err
			}
			if old != nil && old.Depth > a.Depth {
				return nil
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if a.Updated.IsZero() {
			a.Updated = time.Now()
		}
		data, err := encode(a)
		if err != nil {
			return err
		}
		written = true
		return txn.Set(key, data)
	})
	if err != nil {
		return false, err
	}
	return written, nil
}

// Delete removes the analysis for the position hash. Deleting a missing
// key is not an error.
func (s *AnalysisStore) Delete(hash uint64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(analysisKey(hash))
	})
}

// Count returns the number of stored analyses.
func (s *AnalysisStore) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = analysisPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
