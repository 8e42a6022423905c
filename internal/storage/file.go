package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const fileSuffix = ".json"

// File keeps one JSON document per key inside a directory. Writes go through
// a temporary file and a rename so readers never see partial content.
type File struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

type fileEnvelope struct {
	Revision  int64     `json:"revision"`
	UpdatedAt time.Time `json:"updatedAt"`
	Value     []byte    `json:"value"`
}

// NewFile creates the directory when missing.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("storage: file backend needs a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}
	return &File{dir: dir, now: time.Now}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+fileSuffix)
}

func (f *File) read(key string) (fileEnvelope, bool, error) {
	raw, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return fileEnvelope{}, false, nil
	}
	if err != nil {
		return fileEnvelope{}, false, fmt.Errorf("storage: read %s: %w", key, err)
	}
	var env fileEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// An unreadable envelope is handed back as revision 0 with the raw
		// bytes, so callers see a corrupt value and the next write replaces it.
		var mtime time.Time
		if info, statErr := os.Stat(f.path(key)); statErr == nil {
			mtime = info.ModTime().UTC()
		}
		return fileEnvelope{Value: raw, UpdatedAt: mtime}, true, nil
	}
	return env, true, nil
}

// Get implements KV.
func (f *File) Get(_ context.Context, key string) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	env, ok, err := f.read(key)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrNotFound
	}
	return Record{Value: env.Value, Revision: env.Revision, UpdatedAt: env.UpdatedAt}, nil
}

// Put implements KV.
func (f *File) Put(_ context.Context, key string, value []byte, expected int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, exists, err := f.read(key)
	if err != nil {
		return 0, err
	}
	if err := checkRevision(key, current.Revision, exists, expected); err != nil {
		return 0, err
	}
	env := fileEnvelope{Revision: current.Revision + 1, UpdatedAt: f.now().UTC(), Value: value}
	raw, err := json.Marshal(env)
	if err != nil {
		return 0, fmt.Errorf("storage: encode %s: %w", key, err)
	}
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("storage: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("storage: close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return 0, fmt.Errorf("storage: rename %s: %w", key, err)
	}
	return env.Revision, nil
}

// Delete implements KV.
func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// Keys implements KV.
func (f *File) Keys(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileSuffix))
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close implements KV.
func (f *File) Close() error { return nil }
