package wormhole

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fortiblox/X1-Conduit/internal/types"
	"github.com/fortiblox/X1-Conduit/pkg/runtime"
)

// Authentication errors.
var (
	// ErrInvalidMessage is returned when a message pair fails a content
	// check: mismatched chains, a broken sequence reference, or a wrong
	// payload tag.
	ErrInvalidMessage = errors.New("invalid attested message")

	// ErrNotClaimed is returned when the bridge-side claim flag for the
	// transfer is not set.
	ErrNotClaimed = errors.New("transfer not claimed by bridge")
)

// Derivation seed prefixes under the bridge programs.
var (
	postedMessageSeed = []byte("PostedVAA")
	wrappedMintSeed   = []byte("wrapped")
)

// ValidatePair proves a (transfer, order) message pair is matched and
// trustworthy. Checks run in order and abort on first failure:
// sizes, equal source chains, the order's reference sequence against the
// transfer's sequence, both registered emitters, both payload tags.
func ValidatePair(transfer, order Message, reg *EmitterRegistry) error {
	if len(transfer) < MinMessageLen {
		return fmt.Errorf("%w: transfer message holds %d bytes", runtime.ErrSizeTooSmall, len(transfer))
	}
	ord, err := order.AsOrder()
	if err != nil {
		return err
	}

	chain1, err := transfer.ChainID()
	if err != nil {
		return err
	}
	chain2, err := Message(order).ChainID()
	if err != nil {
		return err
	}
	if chain1 != chain2 {
		return fmt.Errorf("%w: source chains differ (%d vs %d)", ErrInvalidMessage, chain1, chain2)
	}

	seq, err := transfer.Sequence()
	if err != nil {
		return err
	}
	if ref := ord.RefSequence(); ref != seq {
		return fmt.Errorf("%w: order references sequence %d, transfer carries %d", ErrInvalidMessage, ref, seq)
	}

	tokenEmitter, err := reg.TokenBridgeEmitter(chain1)
	if err != nil {
		return err
	}
	emitter1, err := transfer.Emitter()
	if err != nil {
		return err
	}
	if !tokenEmitter.EqualsBytes(emitter1) {
		return fmt.Errorf("%w: transfer emitter is not the chain %d token bridge", ErrWrongEmitter, chain1)
	}

	swapEmitter, err := reg.SwapBridgeEmitter(chain1)
	if err != nil {
		return err
	}
	emitter2, err := Message(order).Emitter()
	if err != nil {
		return err
	}
	if !swapEmitter.EqualsBytes(emitter2) {
		return fmt.Errorf("%w: order emitter is not the chain %d swap bridge", ErrWrongEmitter, chain1)
	}

	tag1, err := transfer.PayloadTag()
	if err != nil {
		return err
	}
	if tag1 != TagTokenTransfer {
		return fmt.Errorf("%w: transfer payload tag %d", ErrInvalidMessage, tag1)
	}
	tag2, err := Message(order).PayloadTag()
	if err != nil {
		return err
	}
	if tag2 != TagSwapOrder {
		return fmt.Errorf("%w: order payload tag %d", ErrInvalidMessage, tag2)
	}

	return nil
}

// VerifyMessageAddress re-derives the on-chain address of an attested
// message from its content hash and nonce, binding the presented account to
// the message the bridge actually attested.
func VerifyMessageAddress(presented types.Pubkey, contentHash []byte, nonce uint8) error {
	addr, err := runtime.CreateProgramAddress(
		[][]byte{postedMessageSeed, contentHash, {nonce}},
		types.BridgeCoreAddr,
	)
	if err != nil {
		return err
	}
	if !addr.Equals(presented) {
		return fmt.Errorf("%w: message account %s", runtime.ErrAddressMismatch, presented)
	}
	return nil
}

// VerifyClaimed re-derives the bridge-side claim address for a transfer
// message and requires the presented claim account to carry the claimed
// flag. This is the sole replay gate: once claimed, the same transfer can
// never seed a second settlement record.
func VerifyClaimed(transfer Message, nonce uint8, claim *runtime.AccountInfo, reg *EmitterRegistry) error {
	chainID, err := transfer.ChainID()
	if err != nil {
		return err
	}
	seq, err := transfer.Sequence()
	if err != nil {
		return err
	}
	emitter, err := reg.TokenBridgeEmitter(chainID)
	if err != nil {
		return err
	}

	// Claim seeds: emitter, big-endian chain id followed by big-endian
	// sequence, bump nonce.
	var idSeq [10]byte
	binary.BigEndian.PutUint16(idSeq[0:], chainID)
	binary.BigEndian.PutUint64(idSeq[2:], seq)

	addr, err := runtime.CreateProgramAddress(
		[][]byte{emitter[:], idSeq[:], {nonce}},
		types.TokenBridgeAddr,
	)
	if err != nil {
		return err
	}
	if !addr.Equals(claim.Key) {
		return fmt.Errorf("%w: claim account %s", runtime.ErrAddressMismatch, claim.Key)
	}

	if len(claim.Data) < 1 {
		return fmt.Errorf("%w: claim account is empty", runtime.ErrSizeTooSmall)
	}
	if claim.Data[0] != 1 {
		return fmt.Errorf("%w: claim flag is %d", ErrNotClaimed, claim.Data[0])
	}
	return nil
}

// WrappedMint derives the local mint for an asset by origin address and
// chain. A locally-native asset (origin chain is local) is its own mint;
// anything else maps to the bridge's wrapped mint for that asset.
func WrappedMint(tokenAddr []byte, chainID uint16, nonce uint8) (types.Pubkey, error) {
	if chainID == ChainIDLocal {
		return types.PubkeyFromBytes(tokenAddr)
	}

	var cid [2]byte
	binary.BigEndian.PutUint16(cid[:], chainID)

	return runtime.CreateProgramAddress(
		[][]byte{wrappedMintSeed, cid[:], tokenAddr, {nonce}},
		types.TokenBridgeAddr,
	)
}
