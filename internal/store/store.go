// Package store keeps small pieces of local client state in a bbolt file.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var bucketSeen = []byte("SeenNotifications")

// Store wraps the bbolt database
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the state file at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSeen)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the state file
func (s *Store) Close() error {
	return s.db.Close()
}

// Seen reports whether the notification was already surfaced to userID
func (s *Store) Seen(userID, notificationID string) (bool, error) {
	var seen bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSeen)
		if b == nil {
			return fmt.Errorf("seen bucket not found")
		}
		user := b.Bucket([]byte(userID))
		seen = user != nil && user.Get([]byte(notificationID)) != nil
		return nil
	})
	return seen, err
}

// MarkSeen records notification ids for userID in a single transaction.
// Each user has a nested bucket keyed by notification id.
func (s *Store) MarkSeen(userID string, notificationIDs ...string) error {
	if len(notificationIDs) == 0 {
		return nil
	}
	if userID == "" {
		return fmt.Errorf("user id required")
	}
	stamp := []byte(time.Now().UTC().Format(time.RFC3339))
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSeen)
		if b == nil {
			return fmt.Errorf("seen bucket not found")
		}
		user, err := b.CreateBucketIfNotExists([]byte(userID))
		if err != nil {
			return err
		}
		for _, id := range notificationIDs {
			if id == "" {
				continue
			}
			if err := user.Put([]byte(id), stamp); err != nil {
				return err
			}
		}
		return nil
	})
}

// CountSeen returns how many notifications were recorded for userID
func (s *Store) CountSeen(userID string) (int, error) {
	n := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSeen)
		if b == nil {
			return fmt.Errorf("seen bucket not found")
		}
		user := b.Bucket([]byte(userID))
		if user == nil {
			return nil
		}
		return user.ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	})
	return n, err
}
