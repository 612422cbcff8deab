package settlement

import (
	"errors"

	"github.com/fortiblox/X1-Conduit/pkg/dex"
	"github.com/fortiblox/X1-Conduit/pkg/runtime"
	"github.com/fortiblox/X1-Conduit/pkg/wormhole"
)

// Settlement failure taxonomy. Handlers wrap these with fmt.Errorf("%w: ...")
// context; the dispatcher maps them to stable numeric codes for callers that
// only see an exit status.
var (
	ErrUnknownInstruction  = errors.New("unknown instruction")
	ErrAlreadyInitialized  = errors.New("record already initialized")
	ErrStateMismatch       = errors.New("record state does not permit this operation")
	ErrSlippageViolation   = errors.New("swap output below minimum")
	ErrFeeExceedsPrincipal = errors.New("fee consumes the whole principal")
	ErrDeadlineNotReached  = errors.New("cancellation before deadline")
)

// Numeric codes for the failure families, reported by tooling that cannot
// carry a Go error across a process boundary.
const (
	CodeOK = iota
	CodeUnknownInstruction
	CodeNotEnoughAccounts
	CodeNotEnoughData
	CodeAddressMismatch
	CodeSizeTooSmall
	CodeMissingSignature
	CodeAlreadyInitialized
	CodeStateMismatch
	CodeInvalidMessage
	CodeWrongEmitter
	CodeUnknownChain
	CodeNotClaimed
	CodeSlippageViolation
	CodeFeeExceedsPrincipal
	CodeDeadlineNotReached
	CodeVaultMint
	CodeInvocationFailed
	CodeInternal
)

var errorCodes = []struct {
	err  error
	code int
}{
	{ErrUnknownInstruction, CodeUnknownInstruction},
	{runtime.ErrNotEnoughAccounts, CodeNotEnoughAccounts},
	{runtime.ErrNotEnoughData, CodeNotEnoughData},
	{runtime.ErrAddressMismatch, CodeAddressMismatch},
	{runtime.ErrIncorrectSysvar, CodeAddressMismatch},
	{runtime.ErrSizeTooSmall, CodeSizeTooSmall},
	{runtime.ErrMissingSignature, CodeMissingSignature},
	{ErrAlreadyInitialized, CodeAlreadyInitialized},
	{ErrStateMismatch, CodeStateMismatch},
	{wormhole.ErrInvalidMessage, CodeInvalidMessage},
	{wormhole.ErrWrongEmitter, CodeWrongEmitter},
	{wormhole.ErrUnknownChain, CodeUnknownChain},
	{wormhole.ErrNotClaimed, CodeNotClaimed},
	{ErrSlippageViolation, CodeSlippageViolation},
	{ErrFeeExceedsPrincipal, CodeFeeExceedsPrincipal},
	{ErrDeadlineNotReached, CodeDeadlineNotReached},
	{dex.ErrVaultMint, CodeVaultMint},
	{runtime.ErrInvocationFailed, CodeInvocationFailed},
}

// Code maps an execution error to its numeric family. Unrecognized errors
// collapse to CodeInternal; nil maps to CodeOK.
func Code(err error) int {
	if err == nil {
		return CodeOK
	}
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return CodeInternal
}
