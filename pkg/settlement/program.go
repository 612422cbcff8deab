// Package settlement implements the on-chain settlement engine for relayed
// cross-chain swaps: claim an attested message pair into a record, execute
// the order-book swap, and re-emit the proceeds (or refund after the
// deadline) through the token bridge.
package settlement

import (
	"fmt"

	"github.com/fortiblox/X1-Conduit/pkg/runtime"
	"github.com/fortiblox/X1-Conduit/pkg/wormhole"
)

// Instruction opcodes.
const (
	OpSweep           = 50
	OpClaim           = 100
	OpSwapTransitive  = 110
	OpSwapSimple      = 111
	OpTransferNative  = 120
	OpTransferWrapped = 121
)

// Config carries the deployment-specific tables the engine consults.
type Config struct {
	// Emitters maps source chains to their trusted bridge emitters.
	Emitters *wormhole.EmitterRegistry
}

// DefaultConfig returns the production emitter table.
func DefaultConfig() Config {
	return Config{Emitters: wormhole.DefaultRegistry()}
}

// Program is the settlement engine. It is stateless between calls; all
// persistent state lives in the record account.
type Program struct {
	cfg Config
}

// New builds a Program. A nil emitter registry falls back to the default
// table.
func New(cfg Config) *Program {
	if cfg.Emitters == nil {
		cfg.Emitters = wormhole.DefaultRegistry()
	}
	return &Program{cfg: cfg}
}

// Execute dispatches one instruction. The first payload byte selects the
// operation; everything after it belongs to the handler. A non-nil return
// means the whole call had no effect as far as this program is concerned.
func (p *Program) Execute(ctx *runtime.Context) error {
	op, err := ctx.ReadU8()
	if err != nil {
		return err
	}

	switch op {
	case OpSweep:
		return p.sweep(ctx)
	case OpClaim:
		return p.claim(ctx)
	case OpSwapTransitive:
		return p.swap(ctx, true)
	case OpSwapSimple:
		return p.swap(ctx, false)
	case OpTransferNative:
		return p.transfer(ctx, false)
	case OpTransferWrapped:
		return p.transfer(ctx, true)
	default:
		return fmt.Errorf("%w: opcode %d", ErrUnknownInstruction, op)
	}
}
