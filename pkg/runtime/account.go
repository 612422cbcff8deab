// Package runtime models the host-runtime surface a native program executes
// against: the ordered account list, the instruction payload, program
// derived addresses and the sysvar snapshots.
//
// Parsing is cursor based: an execution context owns an index over the
// account list and over the instruction data, and every read returns an
// error when the caller supplied fewer accounts or bytes than the operation
// needs. No read ever walks past the end of a buffer.
package runtime

import "github.com/fortiblox/X1-Conduit/internal/types"

// AccountInfo is one entry of the ordered account list supplied by the host
// for a single call. Data and Lamports are shared with the host: mutations
// made by the program (or by a sub-invocation) are visible through the same
// AccountInfo for the rest of the call.
type AccountInfo struct {
	Key        types.Pubkey
	Owner      types.Pubkey
	Lamports   uint64
	Data       []byte
	Executable bool
	RentEpoch  uint64
	IsSigner   bool
	IsWritable bool
}

// AccountMeta describes an account referenced by a built instruction.
type AccountMeta struct {
	Pubkey     types.Pubkey
	IsWritable bool
	IsSigner   bool
}

// Meta builds an AccountMeta for a key.
func Meta(key types.Pubkey, writable, signer bool) AccountMeta {
	return AccountMeta{Pubkey: key, IsWritable: writable, IsSigner: signer}
}

// Instruction is a sub-instruction handed to the host for invocation.
type Instruction struct {
	ProgramID types.Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

// Invoker is the host primitive that executes a sub-instruction. When
// signerSeeds is non-empty the host asserts authority over every derived
// address reproducible from one of the seed groups, exactly as if that
// address had signed the transaction.
//
// The host provides all-or-nothing semantics per top-level call: if the
// invocation fails, every mutation of the failed sub-call is discarded and
// the error is propagated to the program.
type Invoker interface {
	Invoke(ix *Instruction, signerSeeds [][][]byte) error
}
