package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fortiblox/X1-Conduit/internal/types"
	"github.com/klauspost/compress/zstd"
)

// Snapshot format:
//   - Magic (4 bytes): "CDSN"
//   - Version (4 bytes, little-endian)
//   - AccountsCount (8 bytes, little-endian)
//   - Accounts stream (zstd compressed), per account:
//   - Pubkey (32 bytes)
//   - Size (4 bytes, little-endian)
//   - Serialized account (checksummed encoding)
const snapshotVersion uint32 = 1

var snapshotMagic = []byte{'C', 'D', 'S', 'N'}

// ErrSnapshotNotFound is returned when a snapshot file doesn't exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

const maxSnapshotEntrySize = 10*1024*1024 + 128

// Export writes every account to a zstd-compressed snapshot file.
func (s *Store) Export(path string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer file.Close()

	header := make([]byte, 16)
	copy(header, snapshotMagic)
	binary.LittleEndian.PutUint32(header[4:], snapshotVersion)
	binary.LittleEndian.PutUint64(header[8:], s.count.Load())
	if _, err := file.Write(header); err != nil {
		return err
	}

	zw, err := zstd.NewWriter(file)
	if err != nil {
		return fmt.Errorf("init zstd writer: %w", err)
	}

	err = s.Iterate(func(pubkey types.Pubkey, account *Account) error {
		if _, err := zw.Write(pubkey[:]); err != nil {
			return err
		}
		data := account.Serialize()
		sizeBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(sizeBuf, uint32(len(data)))
		if _, err := zw.Write(sizeBuf); err != nil {
			return err
		}
		_, err := zw.Write(data)
		return err
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("write accounts: %w", err)
	}
	return zw.Close()
}

// Import loads a snapshot file into the store, replacing nothing: existing
// accounts not named in the snapshot are left alone.
func (s *Store) Import(path string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSnapshotNotFound, path)
		}
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer file.Close()

	header := make([]byte, 16)
	if _, err := io.ReadFull(file, header); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if string(header[:4]) != string(snapshotMagic) {
		return fmt.Errorf("invalid snapshot magic: %x", header[:4])
	}
	if v := binary.LittleEndian.Uint32(header[4:]); v != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %d", v)
	}
	count := binary.LittleEndian.Uint64(header[8:])

	zr, err := zstd.NewReader(file)
	if err != nil {
		return fmt.Errorf("init zstd reader: %w", err)
	}
	defer zr.Close()

	for i := uint64(0); i < count; i++ {
		var pubkey types.Pubkey
		if _, err := io.ReadFull(zr, pubkey[:]); err != nil {
			return fmt.Errorf("read pubkey: %w", err)
		}

		sizeBuf := make([]byte, 4)
		if _, err := io.ReadFull(zr, sizeBuf); err != nil {
			return fmt.Errorf("read size: %w", err)
		}
		size := binary.LittleEndian.Uint32(sizeBuf)
		if size > maxSnapshotEntrySize {
			return fmt.Errorf("snapshot entry %d exceeds maximum %d", size, maxSnapshotEntrySize)
		}

		raw := make([]byte, size)
		if _, err := io.ReadFull(zr, raw); err != nil {
			return fmt.Errorf("read account: %w", err)
		}
		account, err := Deserialize(raw)
		if err != nil {
			return fmt.Errorf("decode account %s: %w", pubkey, err)
		}
		if err := s.Put(pubkey, account); err != nil {
			return fmt.Errorf("store account %s: %w", pubkey, err)
		}
	}
	return nil
}
