package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/shared"
	"github.com/gofrs/flock"
)

const backupTimeFormat = "20060102T150405.000000000Z"

// Store is a handle on a JSON track store file.
type Store struct {
	path   string
	now    func() time.Time
	logger *log.Logger
}

// Option configures a [Store].
type Option func(*Store)

// WithClock replaces the time source used for backups and metadata.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = shared.WithLogger(l, "component", "store") }
}

// New returns a handle for the store at path. Nothing is read until [Store.Load].
func New(path string, opts ...Option) *Store {
	s := &Store{path: path, now: time.Now, logger: shared.NopLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the store file path.
func (s *Store) Path() string { return s.path }

// Load reads the store. A missing file yields an empty document.
func (s *Store) Load() (*models.Database, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &models.Database{MusicTracks: []models.TrackRecord{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnwritable, err)
	}

	var db models.Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrCorruptedStore, s.path, err)
	}
	if db.MusicTracks == nil {
		db.MusicTracks = []models.TrackRecord{}
	}
	return &db, nil
}

// Save stamps metadata and atomically replaces the store file.
func (s *Store) Save(db *models.Database) error {
	if db.MusicTracks == nil {
		db.MusicTracks = []models.TrackRecord{}
	}
	db.Metadata.TotalTracks = len(db.MusicTracks)
	db.Metadata.LastUpdated = s.now().UTC()

	data, err := shared.MarshalJSON(db, true)
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnwritable, err)
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnwritable, err)
	}

	s.logger.Debug("store saved", "path", s.path, "tracks", db.Metadata.TotalTracks)
	return nil
}

// Backup copies the current store file to a timestamped sibling and returns its path. A
// missing store has nothing to back up and returns "".
func (s *Store) Backup() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read store for backup: %w", err)
	}

	backupPath := s.path + ".backup-" + s.now().UTC().Format(backupTimeFormat)
	f, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(backupPath)
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(backupPath)
		return "", fmt.Errorf("failed to sync backup: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(backupPath)
		return "", fmt.Errorf("failed to close backup: %w", err)
	}

	s.logger.Info("store backed up", "path", backupPath, "bytes", len(data))
	return backupPath, nil
}

// Backups lists existing backups, oldest first.
func (s *Store) Backups() ([]string, error) {
	matches, err := filepath.Glob(s.path + ".backup-*")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Lock takes the store's advisory lock without blocking. The returned func releases it.
func (s *Store) Lock() (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnwritable, err)
	}

	lock := flock.New(s.path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrStoreLocked, lock.Path())
	}
	return lock.Unlock, nil
}

// CheckWritable verifies that the store can be written at path: the directory must be
// creatable and writable, and an existing file must be openable for writing.
func CheckWritable(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: empty store path", shared.ErrStoreUnwritable)
	}

	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", shared.ErrStoreUnwritable, path)
		}
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrStoreUnwritable, err)
		}
		f.Close()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnwritable, err)
	}
	probe, err := os.CreateTemp(dir, ".v4vx-probe-*")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnwritable, err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
