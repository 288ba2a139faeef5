package persistence

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var snapshotsBucket = []byte("estimator_snapshots")

// Writer persists estimator state. Format is opaque to the scheduler core;
// only the estimator and this package agree on it.
type Writer interface {
	Save(path string, snapshot map[string]float64) error
	Load(path string) (map[string]float64, error)
	Close() error
}

// BoltWriter stores estimator snapshots as JSON blobs in a bbolt bucket,
// one entry per save path.
type BoltWriter struct {
	db *bolt.DB
}

// NewBoltWriter opens (creating if necessary) a bbolt database at dbPath
// and ensures the snapshot bucket exists.
func NewBoltWriter(dbPath string) (*BoltWriter, error) {
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshot bucket: %w", err)
	}

	return &BoltWriter{db: db}, nil
}

// Save marshals snapshot as JSON and stores it under path.
func (w *BoltWriter) Save(path string, snapshot map[string]float64) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	return w.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotsBucket).Put([]byte(path), data)
	})
}

// Load retrieves and unmarshals the snapshot stored under path.
func (w *BoltWriter) Load(path string) (map[string]float64, error) {
	var snapshot map[string]float64

	err := w.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(snapshotsBucket).Get([]byte(path))
		if data == nil {
			return fmt.Errorf("no snapshot at %q", path)
		}
		return json.Unmarshal(data, &snapshot)
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// Close releases the underlying bbolt database.
func (w *BoltWriter) Close() error {
	return w.db.Close()
}
