package counter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"sportsuid/internal/uid/models"
	"sportsuid/pkg/platform/sentinel"
)

// FileStore keeps all counters in one JSON document:
//
//	{"counters": {"a:MH:03:2025": 17}}
//
// Every operation holds an exclusive flock on "<path>.lock" across its whole
// read-modify-write, so several processes on one host can share the file. The
// mutex serialises goroutines, since a flock handle does not exclude its own
// process.
type FileStore struct {
	path      string
	mu        sync.Mutex
	lock      *flock.Flock
	retryWait time.Duration
}

type fileData struct {
	Counters map[string]int `json:"counters"`
}

// NewFile returns a store backed by path. The file is created on first write.
func NewFile(path string, retryWait time.Duration) *FileStore {
	if retryWait <= 0 {
		retryWait = 10 * time.Millisecond
	}
	return &FileStore{
		path:      path,
		lock:      flock.New(path + ".lock"),
		retryWait: retryWait,
	}
}

func (s *FileStore) Increment(ctx context.Context, key models.PartitionKey) (int, error) {
	var value int
	err := s.update(ctx, func(d *fileData) (bool, error) {
		k := key.String()
		cur := d.Counters[k]
		if cur >= key.Capacity() {
			return false, sentinel.ErrExhausted
		}
		value = cur + 1
		d.Counters[k] = value
		return true, nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", key, err)
	}
	return value, nil
}

func (s *FileStore) Current(ctx context.Context, key models.PartitionKey) (int, error) {
	var value int
	err := s.update(ctx, func(d *fileData) (bool, error) {
		value = d.Counters[key.String()]
		return false, nil
	})
	if err != nil {
		return 0, fmt.Errorf("current %s: %w", key, err)
	}
	return value, nil
}

func (s *FileStore) Seed(ctx context.Context, key models.PartitionKey, floor int) error {
	err := s.update(ctx, func(d *fileData) (bool, error) {
		k := key.String()
		if f := clampFloor(key, floor); f > d.Counters[k] {
			d.Counters[k] = f
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return fmt.Errorf("seed %s: %w", key, err)
	}
	return nil
}

// update runs fn on the current document under both locks and writes the
// document back when fn reports a change.
func (s *FileStore) update(ctx context.Context, fn func(*fileData) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, s.retryWait)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return errors.Join(sentinel.ErrUnavailable, fmt.Errorf("acquire file lock: %w", err))
	}
	if !locked {
		return fmt.Errorf("could not acquire file lock: %w", sentinel.ErrUnavailable)
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := s.load()
	if err != nil {
		return err
	}
	changed, err := fn(data)
	if err != nil || !changed {
		return err
	}
	return s.save(data)
}

func (s *FileStore) load() (*fileData, error) {
	d := &fileData{Counters: make(map[string]int)}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read counter file: %w", err)
	}
	if len(raw) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("parse counter file: %w", err)
	}
	if d.Counters == nil {
		d.Counters = make(map[string]int)
	}
	return d, nil
}

// save writes to a temp file, syncs it and renames it over the original so a
// crash never leaves a half-written document.
func (s *FileStore) save(d *fileData) error {
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal counter file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename counter file: %w", err)
	}
	return nil
}
