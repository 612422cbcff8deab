// Package store provides the BadgerDB-backed account state store used by
// the settlement harness. It holds the off-chain mirror of the accounts a
// settlement touches: messages, the record, mints, token accounts, sysvars.
//
// Accounts are stored under their pubkey with a compact binary encoding and
// a blake3 checksum so a corrupted value log never feeds silent garbage
// into a replay.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/fortiblox/X1-Conduit/internal/types"
	"github.com/fortiblox/X1-Conduit/pkg/runtime"
)

var (
	// ErrAccountNotFound is returned when an account doesn't exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrCorrupted is returned when a stored value fails its checksum.
	ErrCorrupted = errors.New("stored account corrupted")

	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("store closed")
)

// Key prefixes. Prefixes keep account values and metadata iterable
// separately.
var (
	// prefixAccount + pubkey (32 bytes)
	prefixAccount = []byte{0x01}

	// prefixMeta + key name
	prefixMeta = []byte{0x02}

	metaAccountsCount = append(prefixMeta, []byte("count")...)
)

// Config contains configuration for the store.
type Config struct {
	// Path is the directory path for the database.
	Path string

	// InMemory runs the database in memory (for testing).
	InMemory bool

	// SyncWrites ensures writes are synced to disk.
	SyncWrites bool

	// Logger is an optional badger logger. Nil disables logging.
	Logger badger.Logger
}

// DefaultConfig returns default configuration.
func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		SyncWrites: false,
		Logger:     nil,
	}
}

// Store is the BadgerDB-backed account store.
type Store struct {
	db *badger.DB

	count  atomic.Uint64
	mu     sync.Mutex
	closed atomic.Bool
}

// Open opens (or creates) a store.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(cfg.Logger)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	s := &Store{db: db}
	if err := s.loadCount(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	return s, nil
}

func (s *Store) loadCount() error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaAccountsCount)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) >= 8 {
				s.count.Store(binary.LittleEndian.Uint64(val))
			}
			return nil
		})
	})
}

func accountKey(pubkey types.Pubkey) []byte {
	key := make([]byte, 1+types.PubkeySize)
	key[0] = prefixAccount[0]
	copy(key[1:], pubkey[:])
	return key
}

// Get retrieves an account by public key.
func (s *Store) Get(pubkey types.Pubkey) (*Account, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var account *Account
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountKey(pubkey))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			account, err = Deserialize(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Put stores an account. A zero account (no lamports, no data) is removed
// instead.
func (s *Store) Put(pubkey types.Pubkey, account *Account) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.has(pubkey)
	if err != nil {
		return err
	}

	if account.IsZero() {
		if !exists {
			return nil
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(accountKey(pubkey))
		})
		if err != nil {
			return err
		}
		s.count.Add(^uint64(0))
		return nil
	}

	data := account.Serialize()
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(accountKey(pubkey), data)
	})
	if err != nil {
		return err
	}
	if !exists {
		s.count.Add(1)
	}
	return nil
}

// Delete removes an account. Missing accounts are a no-op.
func (s *Store) Delete(pubkey types.Pubkey) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.has(pubkey)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(accountKey(pubkey))
	})
	if err != nil {
		return err
	}
	s.count.Add(^uint64(0))
	return nil
}

// Has checks if an account exists.
func (s *Store) Has(pubkey types.Pubkey) (bool, error) {
	if s.closed.Load() {
		return false, ErrClosed
	}
	return s.has(pubkey)
}

func (s *Store) has(pubkey types.Pubkey) (bool, error) {
	var exists bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(accountKey(pubkey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	return exists, err
}

// Count returns the number of stored accounts.
func (s *Store) Count() uint64 {
	return s.count.Load()
}

// Iterate visits every account in sorted pubkey order. Returning an error
// from the callback stops iteration.
func (s *Store) Iterate(fn func(pubkey types.Pubkey, account *Account) error) error {
	if s.closed.Load() {
		return ErrClosed
	}

	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefixAccount
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.Key()
			if len(key) != 1+types.PubkeySize {
				continue
			}
			var pubkey types.Pubkey
			copy(pubkey[:], key[1:])

			err := item.Value(func(val []byte) error {
				account, err := Deserialize(val)
				if err != nil {
					return err
				}
				return fn(pubkey, account)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadAccountInfo materializes a stored account as a runtime account.
func (s *Store) LoadAccountInfo(pubkey types.Pubkey) (*runtime.AccountInfo, error) {
	account, err := s.Get(pubkey)
	if err != nil {
		return nil, err
	}
	return account.AccountInfo(pubkey), nil
}

// SaveAccountInfo persists a runtime account after an execution mutated it.
func (s *Store) SaveAccountInfo(acc *runtime.AccountInfo) error {
	return s.Put(acc.Key, FromAccountInfo(acc))
}

// Commit persists metadata.
func (s *Store) Commit() error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked()
}

func (s *Store) commitLocked() error {
	return s.db.Update(func(txn *badger.Txn) error {
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, s.count.Load())
		return txn.Set(metaAccountsCount, buf)
	})
}

// Close commits and closes the store.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return ErrClosed
	}

	s.mu.Lock()
	err := s.commitLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.db.Close()
}
