package wormhole

import (
	"errors"
	"fmt"

	"github.com/fortiblox/X1-Conduit/internal/types"
)

// ChainIDLocal is this chain's own id in the bridge's numbering. Assets
// whose origin chain is local need no wrapped-mint derivation.
const ChainIDLocal = 1

// Emitter errors.
var (
	// ErrUnknownChain is returned when a chain id has no registered
	// emitters.
	ErrUnknownChain = errors.New("unknown chain id")

	// ErrWrongEmitter is returned when a message's emitter is not the
	// registered contract for its chain.
	ErrWrongEmitter = errors.New("unexpected message emitter")
)

// ChainEmitters holds the registered emitter contracts for one remote
// chain: the bridge's token-transfer contract and the swap-order contract.
type ChainEmitters struct {
	TokenBridge types.Pubkey
	SwapBridge  types.Pubkey
}

// EmitterRegistry maps chain ids to their registered emitters. Loaded once
// at startup and read-only afterwards.
type EmitterRegistry struct {
	chains map[uint16]ChainEmitters
}

// NewEmitterRegistry builds a registry from an explicit table.
func NewEmitterRegistry(chains map[uint16]ChainEmitters) *EmitterRegistry {
	r := &EmitterRegistry{chains: make(map[uint16]ChainEmitters, len(chains))}
	for id, e := range chains {
		r.chains[id] = e
	}
	return r
}

// DefaultRegistry returns the production emitter table.
func DefaultRegistry() *EmitterRegistry {
	return NewEmitterRegistry(map[uint16]ChainEmitters{
		// BSC
		4: {
			TokenBridge: types.Pubkey{
				0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 182, 246, 216, 106,
				143, 152, 121, 169, 200, 127, 100, 55, 104, 217, 239, 195, 140, 29, 166, 231,
			},
			SwapBridge: types.Pubkey{
				0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 215, 147, 245, 20,
				205, 227, 116, 67, 223, 200, 14, 57, 216, 228, 14, 147, 35, 166, 60, 171,
			},
		},
		// Polygon
		5: {
			TokenBridge: types.Pubkey{
				0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 90, 88, 80, 90,
				150, 209, 219, 248, 223, 145, 203, 33, 181, 68, 25, 252, 54, 233, 63, 222,
			},
			SwapBridge: types.Pubkey{
				0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 208, 248, 138, 236,
				92, 77, 226, 12, 201, 112, 223, 209, 115, 86, 76, 177, 132, 37, 225, 238,
			},
		},
	})
}

// TokenBridgeEmitter returns the token-bridge emitter for a chain.
func (r *EmitterRegistry) TokenBridgeEmitter(chainID uint16) (types.Pubkey, error) {
	e, ok := r.chains[chainID]
	if !ok {
		return types.Pubkey{}, fmt.Errorf("%w: %d", ErrUnknownChain, chainID)
	}
	return e.TokenBridge, nil
}

// SwapBridgeEmitter returns the swap-bridge emitter for a chain.
func (r *EmitterRegistry) SwapBridgeEmitter(chainID uint16) (types.Pubkey, error) {
	e, ok := r.chains[chainID]
	if !ok {
		return types.Pubkey{}, fmt.Errorf("%w: %d", ErrUnknownChain, chainID)
	}
	return e.SwapBridge, nil
}

// Chains returns the registered chain ids, for enumeration in tests and
// tooling.
func (r *EmitterRegistry) Chains() []uint16 {
	ids := make([]uint16, 0, len(r.chains))
	for id := range r.chains {
		ids = append(ids, id)
	}
	return ids
}
