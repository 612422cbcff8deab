// Package types provides the well-known program addresses the settlement
// engine depends on.
package types

import "fmt"

// Native program and sysvar addresses.
// These are the same across Solana mainnet and X1.
var (
	// SystemProgramAddr is the System Program address (all zeros).
	SystemProgramAddr = MustPubkeyFromBase58("11111111111111111111111111111111")

	// TokenProgramAddr is the SPL Token Program address.
	TokenProgramAddr = MustPubkeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// SysvarRentAddr is the Rent sysvar address.
	SysvarRentAddr = MustPubkeyFromBase58("SysvarRent111111111111111111111111111111111")

	// SysvarClockAddr is the Clock sysvar address.
	SysvarClockAddr = MustPubkeyFromBase58("SysvarC1ock11111111111111111111111111111111")
)

// Bridge and venue addresses, pinned as raw bytes so the derivations below
// are byte-exact against already-deployed accounts.
var (
	// BridgeCoreAddr is the cross-chain bridge core program. Attested
	// message accounts are owned by and derived under this program.
	BridgeCoreAddr = Pubkey{
		14, 10, 88, 154, 65, 165, 95, 189, 102, 197, 42, 71, 95, 45, 146, 166,
		211, 220, 155, 71, 71, 17, 76, 185, 175, 130, 90, 152, 181, 69, 211, 206,
	}

	// TokenBridgeAddr is the bridge's token-transfer program. Claim records
	// and wrapped mints are derived under this program, and outbound
	// transfers are invoked against it.
	TokenBridgeAddr = Pubkey{
		14, 10, 88, 158, 100, 136, 20, 122, 148, 220, 250, 89, 43, 144, 253, 212,
		17, 82, 187, 44, 167, 123, 246, 1, 103, 88, 166, 244, 223, 157, 33, 180,
	}

	// DexProgramAddr is the order-book venue program referenced by swap
	// instructions.
	DexProgramAddr = Pubkey{
		133, 15, 45, 110, 2, 164, 122, 248, 36, 208, 154, 182, 157, 196, 45, 112,
		203, 40, 203, 250, 36, 159, 183, 238, 87, 185, 210, 86, 193, 39, 98, 239,
	}

	// SwapProgramAddr is the swap router invoked for both the single-leg
	// and the transitive swap forms.
	SwapProgramAddr = Pubkey{
		15, 64, 97, 8, 49, 70, 197, 30, 250, 81, 166, 230, 52, 144, 92, 204,
		10, 35, 233, 104, 95, 215, 2, 103, 44, 57, 150, 188, 186, 245, 81, 58,
	}
)

// MustPubkeyFromBase58 parses a base58 pubkey or panics.
// Only use for compile-time constants.
func MustPubkeyFromBase58(s string) Pubkey {
	p, err := PubkeyFromBase58(s)
	if err != nil {
		panic(fmt.Sprintf("invalid pubkey constant %q: %v", s, err))
	}
	return p
}
