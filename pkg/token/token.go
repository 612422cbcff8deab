// Package token builds the SPL Token and System Program sub-instructions
// the settlement engine invokes, and reads the token account fields it
// depends on. Wire layouts match the deployed programs byte for byte.
package token

import (
	"encoding/binary"
	"fmt"

	"github.com/fortiblox/X1-Conduit/internal/types"
	"github.com/fortiblox/X1-Conduit/pkg/runtime"
)

// SPL Token instruction discriminators used here.
const instructionApprove = 4

// Token account layout offsets.
const (
	tokenAccountMintOffset    = 0
	tokenAccountAmountOffset  = 64
	tokenAccountMinLen        = 72
	mintAccountDecimalsOffset = 44
	mintAccountMinLen         = 45
)

// Approve builds an SPL approve: delegate may move up to amount out of
// source, authorized by owner (a derived address signing via seeds).
func Approve(source, delegate, owner types.Pubkey, amount uint64) *runtime.Instruction {
	data := make([]byte, 9)
	data[0] = instructionApprove
	binary.LittleEndian.PutUint64(data[1:], amount)

	return &runtime.Instruction{
		ProgramID: types.TokenProgramAddr,
		Accounts: []runtime.AccountMeta{
			runtime.Meta(source, true, false),
			runtime.Meta(delegate, false, false),
			runtime.Meta(owner, false, true),
		},
		Data: data,
	}
}

// Balance reads the u64 balance of an SPL token account.
func Balance(acc *runtime.AccountInfo) (uint64, error) {
	if len(acc.Data) < tokenAccountMinLen {
		return 0, fmt.Errorf("%w: token account %s holds %d bytes", runtime.ErrSizeTooSmall, acc.Key, len(acc.Data))
	}
	return binary.LittleEndian.Uint64(acc.Data[tokenAccountAmountOffset:]), nil
}

// Mint reads the mint key of an SPL token account.
func Mint(acc *runtime.AccountInfo) ([]byte, error) {
	if len(acc.Data) < types.PubkeySize {
		return nil, fmt.Errorf("%w: token account %s holds %d bytes", runtime.ErrSizeTooSmall, acc.Key, len(acc.Data))
	}
	return acc.Data[tokenAccountMintOffset : tokenAccountMintOffset+types.PubkeySize], nil
}

// Decimals reads the decimal count of a mint account. A short buffer reads
// as zero decimals rather than failing; callers treat the amount as already
// being in native units in that case.
func Decimals(mint *runtime.AccountInfo) uint8 {
	if len(mint.Data) < mintAccountMinLen {
		return 0
	}
	return mint.Data[mintAccountDecimalsOffset]
}
