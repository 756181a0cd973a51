package chain

import (
	"github.com/dgraph-io/badger/v4"
)

// cache entries distinguish "key is absent on chain" from "not cached yet",
// so values carry a one byte presence marker.
const (
	markerAbsent  byte = 0
	markerPresent byte = 1
)

// Cache is an on-disk store of remote storage reads keyed by block hash and
// storage key. Entries never expire: storage pinned at a block hash is
// immutable.
type Cache struct {
	db *badger.DB
}

func NewCache(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached value and whether the key was cached at all. A nil
// value with ok true means the key is known to be absent on chain.
func (c *Cache) Get(key []byte) (value *string, ok bool) {
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		ok = true
		if len(raw) > 0 && raw[0] == markerPresent {
			stored := string(raw[1:])
			value = &stored
		}
		return nil
	})
	if err != nil {
		return nil, false
	}
	return value, ok
}

func (c *Cache) Set(key []byte, value *string) error {
	raw := []byte{markerAbsent}
	if value != nil {
		raw = append([]byte{markerPresent}, []byte(*value)...)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, raw)
	})
}
