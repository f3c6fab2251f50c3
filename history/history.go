// Package history persists past run reports in a bbolt database so earlier runs can be
// listed and compared.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/plugtest/plugtest/report"
	"github.com/plugtest/plugtest/where"
	"go.etcd.io/bbolt"
)

const (
	dbFileMode = 0o600
	dbDirMode  = 0o755

	// keyTimeLayout is fixed width so byte order matches chronological order.
	keyTimeLayout = "2006-01-02T15:04:05.000000000Z"
)

var (
	reportsBucket = []byte("reports")
	runsBucket    = []byte("runs")
)

var (
	// ErrNotFound is returned when no stored run matches.
	ErrNotFound = errors.New("run not found")
	// ErrAmbiguous is returned when a run id prefix matches several runs.
	ErrAmbiguous = errors.New("run id prefix is ambiguous")
)

// Store is a bbolt-backed archive of reports, newest last in key order.
type Store struct {
	db *bbolt.DB
}

// Open opens the store at path, creating it if needed. An empty path means where.HistoryDB().
func Open(path string) (*Store, error) {
	if path == "" {
		path = where.HistoryDB()
	}

	if err := os.MkdirAll(filepath.Dir(path), dbDirMode); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bbolt.Open(path, dbFileMode, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{reportsBucket, runsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func reportKey(r *report.Report) []byte {
	return []byte(r.StartedAt.UTC().Format(keyTimeLayout) + "/" + r.RunID.String())
}

// Save stores a report, replacing any earlier copy of the same run.
func (s *Store) Save(r *report.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		runs := tx.Bucket(runsBucket)
		reports := tx.Bucket(reportsBucket)

		runID := []byte(r.RunID.String())
		if old := runs.Get(runID); old != nil {
			if err := reports.Delete(old); err != nil {
				return err
			}
		}

		key := reportKey(r)
		if err := reports.Put(key, data); err != nil {
			return err
		}
		return runs.Put(runID, key)
	})
}

func decode(data []byte) (*report.Report, error) {
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}

// List returns up to limit reports, newest first. A limit below 1 returns all of them.
func (s *Store) List(limit int) ([]*report.Report, error) {
	var reports []*report.Report

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(reportsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(reports) >= limit {
				break
			}

			r, err := decode(v)
			if err != nil {
				return err
			}
			reports = append(reports, r)
		}
		return nil
	})

	return reports, err
}

// Get returns the run whose id starts with prefix.
func (s *Store) Get(prefix string) (*report.Report, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, ErrNotFound
	}

	var found *report.Report

	err := s.db.View(func(tx *bbolt.Tx) error {
		var key []byte
		c := tx.Bucket(runsBucket).Cursor()
		for k, v := c.Seek([]byte(prefix)); k != nil && bytes.HasPrefix(k, []byte(prefix)); k, v = c.Next() {
			if key != nil {
				return ErrAmbiguous
			}
			key = v
		}

		if key == nil {
			return ErrNotFound
		}

		data := tx.Bucket(reportsBucket).Get(key)
		if data == nil {
			return ErrNotFound
		}

		r, err := decode(data)
		found = r
		return err
	})

	return found, err
}

// Len is the number of stored runs.
func (s *Store) Len() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(reportsBucket).Stats().KeyN
		return nil
	})
	return n, err
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (s *Store) Prune(keep int) (int, error) {
	var removed int

	err := s.db.Update(func(tx *bbolt.Tx) error {
		reports := tx.Bucket(reportsBucket)
		runs := tx.Bucket(runsBucket)

		var stale [][]byte
		seen := 0
		c := reports.Cursor()
		for k, _ := c.Last(); k != nil; k, _ = c.Prev() {
			seen++
			if seen > max(keep, 0) {
				stale = append(stale, bytes.Clone(k))
			}
		}

		for _, k := range stale {
			if err := reports.Delete(k); err != nil {
				return err
			}
			if i := bytes.LastIndexByte(k, '/'); i >= 0 {
				if err := runs.Delete(k[i+1:]); err != nil {
					return err
				}
			}
			removed++
		}
		return nil
	})

	return removed, err
}

// Clear removes every stored run.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{reportsBucket, runsBucket} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}
