package token

import (
	"encoding/binary"

	"github.com/fortiblox/X1-Conduit/internal/types"
	"github.com/fortiblox/X1-Conduit/pkg/runtime"
)

// System Program instruction discriminators used here.
const (
	systemInstructionCreateAccount = 0
	systemInstructionTransfer      = 2
)

// SystemTransfer builds a lamport transfer from one account to another.
// The payer is an explicit parameter; nothing here reads ambient state.
func SystemTransfer(from, to types.Pubkey, lamports uint64) *runtime.Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:], systemInstructionTransfer)
	binary.LittleEndian.PutUint64(data[4:], lamports)

	return &runtime.Instruction{
		ProgramID: types.SystemProgramAddr,
		Accounts: []runtime.AccountMeta{
			runtime.Meta(from, true, true),
			runtime.Meta(to, true, false),
		},
		Data: data,
	}
}

// CreateAccount builds a system create-account: payer funds a new account
// of the given size, owned by owner. Both payer and the new account sign;
// a derived new account signs via its seeds on the invocation.
func CreateAccount(payer, newAccount, owner types.Pubkey, lamports, space uint64) *runtime.Instruction {
	data := make([]byte, 52)
	binary.LittleEndian.PutUint32(data[0:], systemInstructionCreateAccount)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	binary.LittleEndian.PutUint64(data[12:], space)
	copy(data[20:], owner[:])

	return &runtime.Instruction{
		ProgramID: types.SystemProgramAddr,
		Accounts: []runtime.AccountMeta{
			runtime.Meta(payer, true, true),
			runtime.Meta(newAccount, true, true),
		},
		Data: data,
	}
}
