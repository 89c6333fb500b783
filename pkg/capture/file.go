package capture

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore keeps one container file per record in a directory.
type FileStore struct {
	dir         string
	compression Compression
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string, c Compression) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, compression: c}, nil
}

// Dir returns the directory records are stored in.
func (s *FileStore) Dir() string {
	return s.dir
}

// Put writes r to <key>.gwc. The file is written under a temporary name
// and renamed, so readers never observe a partial container.
func (s *FileStore) Put(ctx context.Context, r *Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := r.Key()
	path := s.path(key)
	if _, err := os.Stat(path); err == nil {
		return key, nil
	}

	data, err := Marshal(r, s.compression)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return key, nil
}

// Get reads the record stored under key.
func (s *FileStore) Get(ctx context.Context, key string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validKey(key) {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return load(key, data)
}

// List returns the keys of every stored record.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		if key := strings.TrimSuffix(name, fileExt); validKey(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}
