package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a key has no stored record.
var ErrNotFound = errors.New("capture: record not found")

// Store persists records by content key.
//
// Put is idempotent: storing a record whose key already exists succeeds
// and leaves the stored copy in place. List returns keys in ascending
// order.
type Store interface {
	Put(ctx context.Context, r *Record) (string, error)
	Get(ctx context.Context, key string) (*Record, error)
	List(ctx context.Context) ([]string, error)
}

// fileExt is appended to keys by the file and S3 stores.
const fileExt = ".gwc"

// validKey reports whether key looks like a hex BLAKE3-256 digest. Keys
// become file names and object keys, so nothing else is accepted.
func validKey(key string) bool {
	if len(key) != 64 {
		return false
	}
	return strings.IndexFunc(key, func(r rune) bool {
		return !('0' <= r && r <= '9' || 'a' <= r && r <= 'f')
	}) < 0
}

// load parses a stored container and checks it against its key.
func load(key string, data []byte) (*Record, error) {
	r, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("capture: record %s: %w", key, err)
	}
	if got := r.Key(); got != key {
		return nil, fmt.Errorf("capture: record %s: %w: content hashes to %s", key, ErrCorrupt, got)
	}
	return r, nil
}
