// Package wormhole consumes attested cross-chain messages and builds the
// bridge sub-instructions that move value back out.
//
// A message account is opaque, bridge-owned storage: a header (sequence,
// source chain, emitter, payload tag) followed by a payload. Two payload
// shapes are consumed here: the bridge's token-transfer payload and the
// swap-order payload that references it. All header integers are
// little-endian; payload economics are big-endian, as written by the
// remote-chain contracts.
package wormhole

import (
	"encoding/binary"
	"fmt"

	"github.com/fortiblox/X1-Conduit/pkg/runtime"
)

// Message sizes.
const (
	// MinMessageLen covers the header through the payload tag.
	MinMessageLen = 96

	// OrderMessageLen is the exact size of a swap-order message.
	OrderMessageLen = 396
)

// Payload tags.
const (
	// TagTokenTransfer marks an inbound asset-transfer payload.
	TagTokenTransfer = 1

	// TagSwapOrder marks a swap-order payload.
	TagSwapOrder = 1
)

// Header offsets.
const (
	offConsistency = 4
	offTimestamp   = 5
	offNonce       = 45
	offSequence    = 49
	offChainID     = 57
	offEmitter     = 59
	offPayload     = 95
	offPayloadTag  = 95
)

// Transfer payload offsets.
const (
	offTransferTokenAddr  = 128
	offTransferTokenChain = 160
)

// Order payload offsets. The 256-bit economic fields carry their value in
// the low 8 bytes; the offsets below point at that u64 directly.
const (
	offOrderAmount     = 120
	offOrderTokenAddr  = 128
	offOrderTokenChain = 160
	offOrderDestAddr   = 162
	offOrderDestChain  = 194
	offOrderFeeSwap    = 220
	offOrderFeeReturn  = 252
	offOrderMarket1    = 260
	offOrderMarket2    = 292
	offOrderAmountMin  = 348
	offOrderRefSeq     = 356
	offOrderDeadline   = 388
)

// Message is a raw attested-message buffer.
type Message []byte

// checkLen verifies the buffer reaches through end.
func (m Message) checkLen(end int, field string) error {
	if len(m) < end {
		return fmt.Errorf("%w: message holds %d bytes, %s needs %d", runtime.ErrSizeTooSmall, len(m), field, end)
	}
	return nil
}

// ConsistencyLevel returns the finality level the attestation was made at.
func (m Message) ConsistencyLevel() (uint8, error) {
	if err := m.checkLen(offConsistency+1, "consistency level"); err != nil {
		return 0, err
	}
	return m[offConsistency], nil
}

// Timestamp returns the attestation time, unix seconds.
func (m Message) Timestamp() (uint32, error) {
	if err := m.checkLen(offTimestamp+4, "timestamp"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m[offTimestamp:]), nil
}

// Nonce returns the emitter-chosen message nonce.
func (m Message) Nonce() (uint32, error) {
	if err := m.checkLen(offNonce+4, "nonce"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m[offNonce:]), nil
}

// Payload returns the raw payload bytes following the header.
func (m Message) Payload() ([]byte, error) {
	if err := m.checkLen(offPayload, "payload"); err != nil {
		return nil, err
	}
	return m[offPayload:], nil
}

// Sequence returns the message's monotonically increasing sequence number.
func (m Message) Sequence() (uint64, error) {
	if err := m.checkLen(offSequence+8, "sequence"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m[offSequence:]), nil
}

// ChainID returns the source chain id.
func (m Message) ChainID() (uint16, error) {
	if err := m.checkLen(offChainID+2, "chain id"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m[offChainID:]), nil
}

// Emitter returns the 32-byte emitter address.
func (m Message) Emitter() ([]byte, error) {
	if err := m.checkLen(offEmitter+32, "emitter"); err != nil {
		return nil, err
	}
	return m[offEmitter : offEmitter+32], nil
}

// PayloadTag returns the first payload byte.
func (m Message) PayloadTag() (uint8, error) {
	if err := m.checkLen(offPayloadTag+1, "payload tag"); err != nil {
		return 0, err
	}
	return m[offPayloadTag], nil
}

// TransferTokenAddr returns the transferred token's origin address.
func (m Message) TransferTokenAddr() ([]byte, error) {
	if err := m.checkLen(offTransferTokenAddr+32, "token address"); err != nil {
		return nil, err
	}
	return m[offTransferTokenAddr : offTransferTokenAddr+32], nil
}

// TransferTokenChain returns the transferred token's origin chain.
func (m Message) TransferTokenChain() (uint16, error) {
	if err := m.checkLen(offTransferTokenChain+2, "token chain"); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(m[offTransferTokenChain:]), nil
}

// Order wraps the swap-order payload accessors. The exact-length check in
// ValidatePair guarantees every offset below is in range, so these do not
// re-check.
type Order struct {
	m Message
}

// AsOrder views the message as a swap order. Fails unless the buffer has
// the exact order-message length.
func (m Message) AsOrder() (Order, error) {
	if len(m) != OrderMessageLen {
		return Order{}, fmt.Errorf("%w: order message is %d bytes, want %d", runtime.ErrSizeTooSmall, len(m), OrderMessageLen)
	}
	return Order{m: m}, nil
}

// Amount returns the gross source amount, in the canonical 8-decimal
// cross-chain representation.
func (o Order) Amount() uint64 {
	return binary.BigEndian.Uint64(o.m[offOrderAmount:])
}

// AmountMin returns the minimum acceptable destination amount.
func (o Order) AmountMin() uint64 {
	return binary.BigEndian.Uint64(o.m[offOrderAmountMin:])
}

// TokenAddr returns the destination token's origin address.
func (o Order) TokenAddr() []byte {
	return o.m[offOrderTokenAddr : offOrderTokenAddr+32]
}

// TokenChain returns the destination token's origin chain.
func (o Order) TokenChain() uint16 {
	return binary.BigEndian.Uint16(o.m[offOrderTokenChain:])
}

// DestAddr returns the recipient address on the destination chain.
func (o Order) DestAddr() []byte {
	return o.m[offOrderDestAddr : offOrderDestAddr+32]
}

// DestChain returns the destination chain id.
func (o Order) DestChain() uint16 {
	return binary.BigEndian.Uint16(o.m[offOrderDestChain:])
}

// FeeSwap returns the relayer's swap fee.
func (o Order) FeeSwap() uint64 {
	return binary.BigEndian.Uint64(o.m[offOrderFeeSwap:])
}

// FeeReturn returns the relayer's return-transfer fee.
func (o Order) FeeReturn() uint64 {
	return binary.BigEndian.Uint64(o.m[offOrderFeeReturn:])
}

// Market1 returns the first market key.
func (o Order) Market1() []byte {
	return o.m[offOrderMarket1 : offOrderMarket1+32]
}

// Market2 returns the second market key (all zeros for single-leg orders).
func (o Order) Market2() []byte {
	return o.m[offOrderMarket2 : offOrderMarket2+32]
}

// RefSequence returns the sequence number of the transfer message this
// order is bound to.
func (o Order) RefSequence() uint64 {
	return binary.BigEndian.Uint64(o.m[offOrderRefSeq:])
}

// Deadline returns the order deadline, unix seconds.
func (o Order) Deadline() uint64 {
	return binary.BigEndian.Uint64(o.m[offOrderDeadline:])
}

// SequenceFromAccount reads the outbound sequence number the bridge wrote
// into its sequence-tracking account. The account must hold exactly 8 bytes.
func SequenceFromAccount(acc *runtime.AccountInfo) (uint64, error) {
	if len(acc.Data) != 8 {
		return 0, fmt.Errorf("%w: sequence account %s holds %d bytes", runtime.ErrSizeTooSmall, acc.Key, len(acc.Data))
	}
	return binary.LittleEndian.Uint64(acc.Data), nil
}
