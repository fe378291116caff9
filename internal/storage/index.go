package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// runsBucket holds one metadata JSON blob per run ID.
var runsBucket = []byte("runs")

const indexFile = "runs.db"

func (s *Store) openIndex() (*bolt.DB, error) {
	return bolt.Open(filepath.Join(s.baseDir, indexFile), 0600, &bolt.Options{Timeout: time.Second})
}

func (s *Store) indexExists() bool {
	_, err := os.Stat(filepath.Join(s.baseDir, indexFile))
	return err == nil
}

func (s *Store) putIndex(meta *RunMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	db, err := s.openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(runsBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(meta.ID), data)
	})
}

func (s *Store) getIndex(runID string) ([]byte, error) {
	if !s.indexExists() {
		return nil, nil
	}
	db, err := s.openIndex()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var data []byte
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(runsBucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(runID)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	return data, err
}

func (s *Store) scanIndex(fn func(id string, data []byte) error) error {
	if !s.indexExists() {
		return nil
	}
	db, err := s.openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	return db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(runsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			return fn(string(k), v)
		})
	})
}
