package capture

import (
	"context"
	"time"

	"go.etcd.io/bbolt"
)

var recordsBucket = []byte("records")

// BoltOptions configures OpenBoltStore.
type BoltOptions struct {
	// Timeout bounds how long Open waits for the file lock. Zero waits
	// one second.
	Timeout time.Duration

	// NoSync skips fsync after each commit. Only for tests.
	NoSync bool
}

// BoltStore keeps records in a single bbolt database file. It suits
// captures with many small frames, where one file per record is wasteful.
type BoltStore struct {
	db          *bbolt.DB
	compression Compression
}

// OpenBoltStore opens or creates the database at path.
func OpenBoltStore(path string, c Compression, opts BoltOptions) (*BoltStore, error) {
	if opts.Timeout == 0 {
		opts.Timeout = time.Second
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: opts.Timeout,
		NoSync:  opts.NoSync,
	})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db, compression: c}, nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Put(ctx context.Context, r *Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := r.Key()
	data, err := Marshal(r, s.compression)
	if err != nil {
		return "", err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		if b.Get([]byte(key)) != nil {
			return nil
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *BoltStore) Get(ctx context.Context, key string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		// Values are only valid inside the transaction.
		if v := tx.Bucket(recordsBucket).Get([]byte(key)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNotFound
	}
	return load(key, data)
}

// List returns keys in bbolt's byte order, which for hex keys is
// ascending.
func (s *BoltStore) List(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(recordsBucket).ForEach(func(k, _ []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
