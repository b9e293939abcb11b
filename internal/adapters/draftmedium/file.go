package draftmedium

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const snapshotVersion = 1

type snapshot struct {
	Version   int               `json:"version"`
	Entries   map[string]string `json:"entries"`
	UpdatedAt string            `json:"updated_at,omitempty"`
}

// File is a medium persisted as a JSON snapshot. Every mutation rewrites
// the whole file through a temp file + rename, so a crash mid-write leaves
// the previous snapshot intact. Draft payloads are a few hundred bytes of
// text at most, so rewriting is cheap enough for per-keystroke saves.
type File struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
}

// OpenFile loads the snapshot at path, treating a missing file as empty.
func OpenFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("draft snapshot path is empty")
	}

	f := &File{path: path, entries: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if snap.Version != 0 && snap.Version != snapshotVersion {
		return nil, errors.New("unsupported draft snapshot version")
	}

	for k, v := range snap.Entries {
		f.entries[k] = v
	}
	return f, nil
}

func (f *File) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.entries[key]
	return v, ok
}

func (f *File) Set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries[key] = value
	f.persistLocked()
}

func (f *File) Delete(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.entries[key]; !ok {
		return
	}
	delete(f.entries, key)
	f.persistLocked()
}

// persistLocked writes the snapshot atomically. Persistence failures are
// swallowed: losing a draft write must never break typing, and the next
// keystroke retries anyway.
func (f *File) persistLocked() {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return
	}

	snap := snapshot{
		Version:   snapshotVersion,
		Entries:   f.entries,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
	}
}
