package store

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/fortiblox/X1-Conduit/internal/types"
	"github.com/fortiblox/X1-Conduit/pkg/runtime"
	"github.com/zeebo/blake3"
)

// Account is the stored form of an on-chain account.
type Account struct {
	Lamports   uint64
	Data       []byte
	Owner      types.Pubkey
	Executable bool
	RentEpoch  uint64
}

const (
	checksumSize = 32

	// lamports (8) + data_len (8) + owner (32) + executable (1) + rent_epoch (8)
	fixedEncodedSize = 8 + 8 + 32 + 1 + 8
)

// IsZero reports whether the account holds nothing worth storing.
func (a *Account) IsZero() bool {
	return a.Lamports == 0 && len(a.Data) == 0
}

// Clone deep-copies the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	data := make([]byte, len(a.Data))
	copy(data, a.Data)
	c := *a
	c.Data = data
	return &c
}

// AccountInfo materializes the account at a key for execution.
func (a *Account) AccountInfo(pubkey types.Pubkey) *runtime.AccountInfo {
	c := a.Clone()
	return &runtime.AccountInfo{
		Key:        pubkey,
		Owner:      c.Owner,
		Lamports:   c.Lamports,
		Data:       c.Data,
		Executable: c.Executable,
		RentEpoch:  c.RentEpoch,
	}
}

// FromAccountInfo captures a runtime account for storage.
func FromAccountInfo(acc *runtime.AccountInfo) *Account {
	data := make([]byte, len(acc.Data))
	copy(data, acc.Data)
	return &Account{
		Lamports:   acc.Lamports,
		Data:       data,
		Owner:      acc.Owner,
		Executable: acc.Executable,
		RentEpoch:  acc.RentEpoch,
	}
}

// Serialize encodes the account with a trailing blake3 checksum.
// Format: lamports (8) + data_len (8) + data + owner (32) + executable (1) +
// rent_epoch (8) + checksum (32).
func (a *Account) Serialize() []byte {
	buf := make([]byte, fixedEncodedSize+len(a.Data)+checksumSize)
	offset := 0

	binary.LittleEndian.PutUint64(buf[offset:], a.Lamports)
	offset += 8
	binary.LittleEndian.PutUint64(buf[offset:], uint64(len(a.Data)))
	offset += 8
	copy(buf[offset:], a.Data)
	offset += len(a.Data)
	copy(buf[offset:], a.Owner[:])
	offset += 32
	if a.Executable {
		buf[offset] = 1
	}
	offset++
	binary.LittleEndian.PutUint64(buf[offset:], a.RentEpoch)
	offset += 8

	sum := blake3.Sum256(buf[:offset])
	copy(buf[offset:], sum[:])
	return buf
}

// Deserialize decodes a stored account, verifying its checksum.
func Deserialize(raw []byte) (*Account, error) {
	if len(raw) < fixedEncodedSize+checksumSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorrupted, len(raw))
	}

	body := raw[:len(raw)-checksumSize]
	sum := blake3.Sum256(body)
	if !bytes.Equal(sum[:], raw[len(raw)-checksumSize:]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupted)
	}

	offset := 0
	lamports := binary.LittleEndian.Uint64(body[offset:])
	offset += 8
	dataLen := binary.LittleEndian.Uint64(body[offset:])
	offset += 8

	if uint64(len(body)-fixedEncodedSize) != dataLen {
		return nil, fmt.Errorf("%w: data length %d", ErrCorrupted, dataLen)
	}

	data := make([]byte, dataLen)
	copy(data, body[offset:])
	offset += int(dataLen)

	var owner types.Pubkey
	copy(owner[:], body[offset:])
	offset += 32
	executable := body[offset] != 0
	offset++
	rentEpoch := binary.LittleEndian.Uint64(body[offset:])

	return &Account{
		Lamports:   lamports,
		Data:       data,
		Owner:      owner,
		Executable: executable,
		RentEpoch:  rentEpoch,
	}, nil
}
