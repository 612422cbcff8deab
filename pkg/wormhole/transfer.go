package wormhole

import (
	"encoding/binary"

	"github.com/fortiblox/X1-Conduit/internal/types"
	"github.com/fortiblox/X1-Conduit/pkg/runtime"
)

// Bridge transfer operation codes.
const (
	opTransferWrapped = 4
	opTransferNative  = 5
)

const transferDataLen = 55

// Transfer gathers everything the token bridge needs to post an outbound
// transfer. The account set differs by asset custody model: a native asset
// moves into a bridge custody vault, a wrapped asset is burned against its
// origin metadata. Wrapped() reports which shape was parsed.
type Transfer struct {
	Config          *runtime.AccountInfo
	AuthoritySigner *runtime.AccountInfo
	CustodySigner   *runtime.AccountInfo // native only
	Emitter         *runtime.AccountInfo
	BridgeConfig    *runtime.AccountInfo
	SequenceKey     *runtime.AccountInfo
	FeeCollector    *runtime.AccountInfo
	Mint            *runtime.AccountInfo
	Custody         *runtime.AccountInfo // native only
	Meta            *runtime.AccountInfo // wrapped only
	TokenAccount    *runtime.AccountInfo
	NewMessage      *runtime.AccountInfo

	// Payer funds the posted message; Owner is the authority holding the
	// source token account. Both are filled by the caller after parsing.
	Payer types.Pubkey
	Owner types.Pubkey

	// Nonce and Fee come from instruction data; the remaining payload
	// fields are filled from the settlement record.
	Nonce      uint32
	Fee        uint64
	Amount     uint64
	RelayerFee uint64
	DestAddr   []byte
	DestChain  uint16

	wrapped bool
}

// Wrapped reports whether the transfer targets a wrapped asset.
func (t *Transfer) Wrapped() bool { return t.wrapped }

// ParseTransfer reads the bridge account run and trailing (nonce, fee)
// instruction data off the context cursor. The two custody models share one
// ordering with the custody pair swapped for a metadata account.
func ParseTransfer(ctx *runtime.Context, wrapped bool) (*Transfer, error) {
	t := &Transfer{wrapped: wrapped}

	var err error
	read := func(dst **runtime.AccountInfo) {
		if err != nil {
			return
		}
		*dst, err = ctx.NextAccount()
	}

	read(&t.Config)
	read(&t.AuthoritySigner)
	if !wrapped {
		read(&t.CustodySigner)
	}
	read(&t.Emitter)
	read(&t.BridgeConfig)
	read(&t.SequenceKey)
	read(&t.FeeCollector)
	read(&t.Mint)
	if wrapped {
		read(&t.Meta)
	} else {
		read(&t.Custody)
	}
	read(&t.TokenAccount)
	read(&t.NewMessage)
	if err != nil {
		return nil, err
	}

	if t.Nonce, err = ctx.ReadU32(); err != nil {
		return nil, err
	}
	if t.Fee, err = ctx.ReadU64(); err != nil {
		return nil, err
	}
	return t, nil
}

// BuildInstruction assembles the token bridge transfer call. Both shapes
// carry 17 account metas and a 55-byte payload; only the opcode and the
// custody-model accounts differ.
func (t *Transfer) BuildInstruction() *runtime.Instruction {
	data := make([]byte, 0, transferDataLen)
	if t.wrapped {
		data = append(data, opTransferWrapped)
	} else {
		data = append(data, opTransferNative)
	}
	data = binary.LittleEndian.AppendUint32(data, t.Nonce)
	data = binary.LittleEndian.AppendUint64(data, t.Amount)
	data = binary.LittleEndian.AppendUint64(data, t.RelayerFee)
	data = append(data, t.DestAddr...)
	data = binary.LittleEndian.AppendUint16(data, t.DestChain)

	metas := make([]runtime.AccountMeta, 0, 17)
	metas = append(metas,
		runtime.Meta(t.Payer, true, true),
		runtime.Meta(t.Config.Key, false, false),
		runtime.Meta(t.TokenAccount.Key, true, false),
	)
	if t.wrapped {
		metas = append(metas,
			runtime.Meta(t.Owner, false, true),
			runtime.Meta(t.Mint.Key, true, false),
			runtime.Meta(t.Meta.Key, false, false),
			runtime.Meta(t.AuthoritySigner.Key, false, false),
		)
	} else {
		metas = append(metas,
			runtime.Meta(t.Mint.Key, true, false),
			runtime.Meta(t.Custody.Key, true, false),
			runtime.Meta(t.AuthoritySigner.Key, false, false),
			runtime.Meta(t.CustodySigner.Key, false, false),
		)
	}
	metas = append(metas,
		runtime.Meta(t.BridgeConfig.Key, true, false),
		runtime.Meta(t.NewMessage.Key, true, true),
		runtime.Meta(t.Emitter.Key, false, false),
		runtime.Meta(t.SequenceKey.Key, true, false),
		runtime.Meta(t.FeeCollector.Key, true, false),

		runtime.Meta(types.SysvarClockAddr, false, false),
		runtime.Meta(types.SysvarRentAddr, false, false),

		runtime.Meta(types.SystemProgramAddr, false, false),
		runtime.Meta(types.BridgeCoreAddr, false, false),
		runtime.Meta(types.TokenProgramAddr, false, false),
	)

	return &runtime.Instruction{
		ProgramID: types.TokenBridgeAddr,
		Accounts:  metas,
		Data:      data,
	}
}
