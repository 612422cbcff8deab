package wormhole

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"github.com/fortiblox/X1-Conduit/internal/types"
	"github.com/fortiblox/X1-Conduit/pkg/runtime"
)

// ContentHash computes the keccak-256 digest the bridge derives posted
// message addresses from: timestamp, nonce, emitter chain and address,
// sequence, consistency level, payload. Offline tooling uses this to
// recover a message's account address without the bridge.
func ContentHash(timestamp uint32, nonce uint32, chainID uint16, emitter []byte, sequence uint64, consistency uint8, payload []byte) []byte {
	buf := make([]byte, 0, 51+len(payload))
	buf = binary.BigEndian.AppendUint32(buf, timestamp)
	buf = binary.BigEndian.AppendUint32(buf, nonce)
	buf = binary.BigEndian.AppendUint16(buf, chainID)
	buf = append(buf, emitter...)
	buf = binary.BigEndian.AppendUint64(buf, sequence)
	buf = append(buf, consistency)
	buf = append(buf, payload...)

	h := sha3.NewLegacyKeccak256()
	h.Write(buf)
	return h.Sum(nil)
}

// Digest recomputes the message's content hash from the fields stored in
// its account data.
func (m Message) Digest() ([]byte, error) {
	consistency, err := m.ConsistencyLevel()
	if err != nil {
		return nil, err
	}
	timestamp, err := m.Timestamp()
	if err != nil {
		return nil, err
	}
	nonce, err := m.Nonce()
	if err != nil {
		return nil, err
	}
	sequence, err := m.Sequence()
	if err != nil {
		return nil, err
	}
	chainID, err := m.ChainID()
	if err != nil {
		return nil, err
	}
	emitter, err := m.Emitter()
	if err != nil {
		return nil, err
	}
	payload, err := m.Payload()
	if err != nil {
		return nil, err
	}
	return ContentHash(timestamp, nonce, chainID, emitter, sequence, consistency, payload), nil
}

// FindMessageAddress recovers the account address the bridge posted the
// message under, from the message content alone.
func FindMessageAddress(m Message) (types.Pubkey, uint8, error) {
	hash, err := m.Digest()
	if err != nil {
		return types.Pubkey{}, 0, err
	}
	return runtime.FindProgramAddress([][]byte{postedMessageSeed, hash}, types.BridgeCoreAddr)
}
