// Package journal provides a persistent audit trail of settlement
// lifecycle transitions. The harness appends one event per executed
// operation so a record's full history survives restarts and can be
// replayed or inspected later.
package journal

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fortiblox/X1-Conduit/internal/types"
	bolt "go.etcd.io/bbolt"
)

// Bucket names.
var (
	// bucketEvents stores events under recordKey ‖ big-endian counter.
	bucketEvents = []byte("events")

	// bucketLatest maps recordKey -> most recent event.
	bucketLatest = []byte("latest")
)

// ErrNoHistory is returned when a record has no journaled events.
var ErrNoHistory = errors.New("no journal history for record")

// Event is one lifecycle transition of a settlement record.
type Event struct {
	// Record is the settlement record account.
	Record types.Pubkey

	// Op is the executed opcode.
	Op uint8

	// State is the record state after the operation.
	State uint8

	// Amount is the record's amount slot after the operation.
	Amount uint64

	// Sequence is the outbound transfer sequence, when one was assigned.
	Sequence uint64

	// Code is the numeric result of the operation (0 = success).
	Code int

	// Time is when the harness executed the operation.
	Time time.Time
}

// Journal is a bbolt-backed append-only event log.
type Journal struct {
	db *bolt.DB
	mu sync.Mutex
}

// Open opens (or creates) a journal file.
func Open(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketEvents, bucketLatest} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

// eventKey builds the per-record monotonic key: pubkey ‖ be64 counter.
func eventKey(record types.Pubkey, n uint64) []byte {
	key := make([]byte, types.PubkeySize+8)
	copy(key, record[:])
	binary.BigEndian.PutUint64(key[types.PubkeySize:], n)
	return key
}

// Append journals one event.
func (j *Journal) Append(ev Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&ev); err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	return j.db.Update(func(tx *bolt.Tx) error {
		events := tx.Bucket(bucketEvents)

		// Next counter = number of existing events for this record.
		var n uint64
		c := events.Cursor()
		prefix := ev.Record[:]
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			n++
		}

		if err := events.Put(eventKey(ev.Record, n), buf.Bytes()); err != nil {
			return err
		}
		return tx.Bucket(bucketLatest).Put(ev.Record[:], buf.Bytes())
	})
}

// History returns every journaled event for a record, oldest first.
func (j *Journal) History(record types.Pubkey) ([]Event, error) {
	var events []Event

	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		prefix := record[:]
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var ev Event
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&ev); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoHistory, record)
	}
	return events, nil
}

// Latest returns the most recent event for a record.
func (j *Journal) Latest(record types.Pubkey) (*Event, error) {
	var ev *Event

	err := j.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketLatest).Get(record[:])
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNoHistory, record)
		}
		ev = &Event{}
		return gob.NewDecoder(bytes.NewReader(v)).Decode(ev)
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// Records visits every record with journaled history.
func (j *Journal) Records(fn func(record types.Pubkey, latest Event) error) error {
	return j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLatest).ForEach(func(k, v []byte) error {
			if len(k) != types.PubkeySize {
				return nil
			}
			var record types.Pubkey
			copy(record[:], k)

			var ev Event
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&ev); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			return fn(record, ev)
		})
	})
}

// Close closes the journal.
func (j *Journal) Close() error {
	return j.db.Close()
}
