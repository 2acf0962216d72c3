package store

import (
	"encoding/json"
	"time"

	"elmdiag/internal/scan"

	bolt "go.etcd.io/bbolt"
)

const bucketSweeps = "sweeps"

// Store keeps past sweeps in a bbolt file, readings JSON keyed by the
// sweep's timestamp.
type Store struct {
	db *bolt.DB
}

// Entry is one recorded sweep.
type Entry struct {
	At       time.Time
	Readings []scan.Reading
}

// Open opens (or creates) the history database and ensures the bucket
// exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSweeps))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// SaveSweep records a completed (or aborted) sweep's readings.
func (s *Store) SaveSweep(at time.Time, readings []scan.Reading) error {
	data, err := json.Marshal(readings)
	if err != nil {
		return err
	}
	key := []byte(at.UTC().Format(time.RFC3339Nano))
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSweeps)).Put(key, data)
	})
}

// Recent returns up to n sweeps, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketSweeps)).Cursor()
		for k, v := c.Last(); k != nil && len(entries) < n; k, v = c.Prev() {
			at, err := time.Parse(time.RFC3339Nano, string(k))
			if err != nil {
				continue
			}
			var readings []scan.Reading
			if err := json.Unmarshal(v, &readings); err != nil {
				return err
			}
			entries = append(entries, Entry{At: at, Readings: readings})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
