package settlement

import (
	"encoding/binary"
	"fmt"

	"github.com/fortiblox/X1-Conduit/pkg/runtime"
)

// State is the lifecycle position of a settlement record.
type State uint8

const (
	StateNotInitialized State = iota
	StateClaimed
	StateSwapDone
	StateSwapCanceled
	StateDoneSwapped
	StateDoneNotSwapped
)

func (s State) String() string {
	switch s {
	case StateNotInitialized:
		return "not-initialized"
	case StateClaimed:
		return "claimed"
	case StateSwapDone:
		return "swap-done"
	case StateSwapCanceled:
		return "swap-canceled"
	case StateDoneSwapped:
		return "done-swapped"
	case StateDoneNotSwapped:
		return "done-not-swapped"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Record layout. The rate slot is reused for the outbound sequence once a
// transfer finalizes; the allocation carries tail slack for appended fields.
const (
	RecordSize      = 284
	RecordAllocSize = RecordSize + 20

	offState     = 0
	offMsg1      = 1
	offMsg2      = 33
	offAmount    = 65
	offDecimals  = 73
	offRate      = 74
	offSequence  = 74
	offMintFrom  = 82
	offMintTo    = 114
	offToAddr    = 146
	offToChain   = 178
	offMarket1   = 180
	offMarket2   = 212
	offFeeSwap   = 244
	offFeeCancel = 252
	offFeeReturn = 260
	offDeadline  = 268
	offAmountMin = 276
)

// Record is the decoded settlement record. Msg1/Msg2 are the account
// addresses of the attested message pair; amounts are in the native
// precision of their mint.
type Record struct {
	State     State
	Msg1      [32]byte
	Msg2      [32]byte
	Amount    uint64
	Decimals  uint8
	Rate      uint64
	MintFrom  [32]byte
	MintTo    [32]byte
	ToAddr    [32]byte
	ToChain   uint16
	Market1   [32]byte
	Market2   [32]byte
	FeeSwap   uint64
	FeeCancel uint64
	FeeReturn uint64
	Deadline  uint64
	AmountMin uint64
}

// DecodeRecord reads a record out of account data.
func DecodeRecord(data []byte) (*Record, error) {
	if len(data) < RecordSize {
		return nil, fmt.Errorf("%w: record holds %d bytes", runtime.ErrSizeTooSmall, len(data))
	}

	r := &Record{
		State:     State(data[offState]),
		Amount:    binary.LittleEndian.Uint64(data[offAmount:]),
		Decimals:  data[offDecimals],
		Rate:      binary.LittleEndian.Uint64(data[offRate:]),
		ToChain:   binary.LittleEndian.Uint16(data[offToChain:]),
		FeeSwap:   binary.LittleEndian.Uint64(data[offFeeSwap:]),
		FeeCancel: binary.LittleEndian.Uint64(data[offFeeCancel:]),
		FeeReturn: binary.LittleEndian.Uint64(data[offFeeReturn:]),
		Deadline:  binary.LittleEndian.Uint64(data[offDeadline:]),
		AmountMin: binary.LittleEndian.Uint64(data[offAmountMin:]),
	}
	copy(r.Msg1[:], data[offMsg1:])
	copy(r.Msg2[:], data[offMsg2:])
	copy(r.MintFrom[:], data[offMintFrom:])
	copy(r.MintTo[:], data[offMintTo:])
	copy(r.ToAddr[:], data[offToAddr:])
	copy(r.Market1[:], data[offMarket1:])
	copy(r.Market2[:], data[offMarket2:])
	return r, nil
}

// EncodeTo writes the record into account data in place.
func (r *Record) EncodeTo(data []byte) error {
	if len(data) < RecordSize {
		return fmt.Errorf("%w: record target holds %d bytes", runtime.ErrSizeTooSmall, len(data))
	}

	data[offState] = uint8(r.State)
	copy(data[offMsg1:], r.Msg1[:])
	copy(data[offMsg2:], r.Msg2[:])
	binary.LittleEndian.PutUint64(data[offAmount:], r.Amount)
	data[offDecimals] = r.Decimals
	binary.LittleEndian.PutUint64(data[offRate:], r.Rate)
	copy(data[offMintFrom:], r.MintFrom[:])
	copy(data[offMintTo:], r.MintTo[:])
	copy(data[offToAddr:], r.ToAddr[:])
	binary.LittleEndian.PutUint16(data[offToChain:], r.ToChain)
	copy(data[offMarket1:], r.Market1[:])
	copy(data[offMarket2:], r.Market2[:])
	binary.LittleEndian.PutUint64(data[offFeeSwap:], r.FeeSwap)
	binary.LittleEndian.PutUint64(data[offFeeCancel:], r.FeeCancel)
	binary.LittleEndian.PutUint64(data[offFeeReturn:], r.FeeReturn)
	binary.LittleEndian.PutUint64(data[offDeadline:], r.Deadline)
	binary.LittleEndian.PutUint64(data[offAmountMin:], r.AmountMin)
	return nil
}

// In-place mutators. Handlers update the live account buffer without a full
// re-encode, keeping the rest of the record byte-stable.

// SetState stamps a new lifecycle state into record data.
func SetState(data []byte, s State) { data[offState] = uint8(s) }

// SetAmount overwrites the amount slot with the realized swap output.
func SetAmount(data []byte, amount uint64) {
	binary.LittleEndian.PutUint64(data[offAmount:], amount)
}

// SetSequence persists the outbound transfer sequence, displacing the rate
// which has no further use once the transfer is on its way.
func SetSequence(data []byte, seq uint64) {
	binary.LittleEndian.PutUint64(data[offSequence:], seq)
}

// Sequence reads back what SetSequence stored.
func Sequence(data []byte) uint64 {
	return binary.LittleEndian.Uint64(data[offSequence:])
}

// StateOf reads the record state, tolerating short data for emptiness
// probes: anything under a full record reads as not initialized.
func StateOf(data []byte) State {
	if len(data) < RecordSize {
		return StateNotInitialized
	}
	return State(data[offState])
}
