package dex

import (
	"encoding/binary"

	"github.com/fortiblox/X1-Conduit/internal/types"
	"github.com/fortiblox/X1-Conduit/pkg/runtime"
)

// Router method discriminators.
var (
	discSwapTransitive = [8]byte{129, 109, 254, 207, 31, 192, 47, 51}
	discSwapSimple     = [8]byte{248, 198, 158, 145, 225, 117, 135, 200}
)

// SwapAccounts names the trader-side accounts of a swap: the settlement
// authority that signs, the source and destination token accounts, and for
// two-leg routes the intermediate account the first leg pays into.
type SwapAccounts struct {
	Authority    types.Pubkey
	From         types.Pubkey
	To           types.Pubkey
	Intermediate types.Pubkey

	// Base and Quote are the simple-swap wallet slots; the caller assigns
	// From/To to them according to the selected side.
	Base  types.Pubkey
	Quote types.Pubkey
}

func marketMetas(m *Market, wallet types.Pubkey) []runtime.AccountMeta {
	return []runtime.AccountMeta{
		runtime.Meta(m.Market.Key, true, false),
		runtime.Meta(m.OpenOrders.Key, true, false),
		runtime.Meta(m.ReqQueue.Key, true, false),
		runtime.Meta(m.EventQueue.Key, true, false),
		runtime.Meta(m.Bids.Key, true, false),
		runtime.Meta(m.Asks.Key, true, false),
		runtime.Meta(wallet, true, false),
		runtime.Meta(m.BaseVault.Key, true, false),
		runtime.Meta(m.QuoteVault.Key, true, false),
		runtime.Meta(m.VaultSigner.Key, false, false),
	}
}

func swapData(disc [8]byte, side *Side, amount, rate uint64, decimals uint8) []byte {
	n := 27
	if side != nil {
		n = 28
	}
	data := make([]byte, 0, n)
	data = append(data, disc[:]...)
	if side != nil {
		data = append(data, byte(*side))
	}
	data = binary.LittleEndian.AppendUint64(data, amount)
	data = binary.LittleEndian.AppendUint64(data, rate)
	data = append(data, decimals, 0, 1)
	return data
}

// BuildSimpleSwap assembles a one-leg swap against a single market.
func BuildSimpleSwap(m *Market, acc *SwapAccounts, side Side, amount, rate uint64, decimals uint8) *runtime.Instruction {
	metas := marketMetas(m, acc.From)
	metas = append(metas,
		runtime.Meta(acc.Base, true, false),
		runtime.Meta(acc.Authority, false, true),
		runtime.Meta(acc.Quote, true, false),

		runtime.Meta(types.DexProgramAddr, false, false),
		runtime.Meta(types.TokenProgramAddr, false, false),
		runtime.Meta(types.SysvarRentAddr, false, false),
	)

	return &runtime.Instruction{
		ProgramID: types.SwapProgramAddr,
		Accounts:  metas,
		Data:      swapData(discSwapSimple, &side, amount, rate, decimals),
	}
}

// BuildTransitiveSwap assembles a two-leg swap: sell the source asset on the
// first market into the intermediate account, then spend the intermediate on
// the second market into the destination account.
func BuildTransitiveSwap(m1, m2 *Market, acc *SwapAccounts, amount, rate uint64, decimals uint8) *runtime.Instruction {
	metas := marketMetas(m1, acc.From)
	metas = append(metas, runtime.Meta(acc.From, true, false))

	metas = append(metas, marketMetas(m2, acc.Intermediate)...)
	metas = append(metas, runtime.Meta(acc.To, true, false))

	metas = append(metas,
		runtime.Meta(acc.Authority, false, true),
		runtime.Meta(acc.Intermediate, true, false),

		runtime.Meta(types.DexProgramAddr, false, false),
		runtime.Meta(types.TokenProgramAddr, false, false),
		runtime.Meta(types.SysvarRentAddr, false, false),
	)

	return &runtime.Instruction{
		ProgramID: types.SwapProgramAddr,
		Accounts:  metas,
		Data:      swapData(discSwapTransitive, nil, amount, rate, decimals),
	}
}
