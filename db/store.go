package db

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Store wraps a LevelDB instance holding forged genesis documents.
type Store struct {
	db *leveldb.DB
}

// Open creates or reopens the store at the given path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{ErrorIfMissing: false})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Put stores a key-value pair in the database.
func (s *Store) Put(key, value []byte) error {
	return s.db.Put(key, value, nil)
}

// Get retrieves a value by key from the database. A missing key is not an
// error, it comes back as a nil value.
func (s *Store) Get(key []byte) ([]byte, error) {
	data, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	return data, err
}

// Close shuts down the database.
func (s *Store) Close() error {
	return s.db.Close()
}
