package settlement

import (
	"fmt"

	"github.com/fortiblox/X1-Conduit/pkg/runtime"
	"github.com/fortiblox/X1-Conduit/pkg/token"
	"github.com/fortiblox/X1-Conduit/pkg/wormhole"
)

// claim turns an attested (transfer, order) message pair into a fresh
// settlement record. Account order: owner (signer, pays the record rent),
// the two messages, the finalization receipt, the record, the authority,
// source and destination mints, the bridge claim account, rent. Data:
// receipt/record/authority/mint-from/mint-to nonces, the two message bump
// nonces and content hashes, the claim nonce.
func (p *Program) claim(ctx *runtime.Context) error {
	owner, err := ctx.NextAccount()
	if err != nil {
		return err
	}
	msg1Acc, err := ctx.NextAccount()
	if err != nil {
		return err
	}
	msg2Acc, err := ctx.NextAccount()
	if err != nil {
		return err
	}
	receiptAcc, err := ctx.NextAccount()
	if err != nil {
		return err
	}
	recordAcc, err := ctx.NextAccount()
	if err != nil {
		return err
	}
	authorityAcc, err := ctx.NextAccount()
	if err != nil {
		return err
	}
	mintFrom, err := ctx.NextAccount()
	if err != nil {
		return err
	}
	mintTo, err := ctx.NextAccount()
	if err != nil {
		return err
	}

	receiptNonce, err := ctx.ReadU8()
	if err != nil {
		return err
	}
	recordNonce, err := ctx.ReadU8()
	if err != nil {
		return err
	}
	authorityNonce, err := ctx.ReadU8()
	if err != nil {
		return err
	}
	mintFromNonce, err := ctx.ReadU8()
	if err != nil {
		return err
	}
	mintToNonce, err := ctx.ReadU8()
	if err != nil {
		return err
	}

	if !owner.IsSigner {
		return fmt.Errorf("%w: owner %s", runtime.ErrMissingSignature, owner.Key)
	}

	if len(recordAcc.Data) != 0 {
		return fmt.Errorf("%w: record %s", ErrAlreadyInitialized, recordAcc.Key)
	}
	if len(receiptAcc.Data) != 0 {
		return fmt.Errorf("%w: receipt %s", ErrAlreadyInitialized, receiptAcc.Key)
	}

	msg1Key := msg1Acc.Key.Bytes()
	msg2Key := msg2Acc.Key.Bytes()

	recordSeeds := RecordSeeds(msg1Key, msg2Key, recordNonce)
	authoritySeeds := AuthoritySeeds(authorityNonce)
	ctx.SetSignerSeeds(recordSeeds, authoritySeeds)

	if err := verifySeeds(recordSeeds, ctx.ProgramID, recordAcc.Key); err != nil {
		return err
	}
	if err := verifySeeds(authoritySeeds, ctx.ProgramID, authorityAcc.Key); err != nil {
		return err
	}

	msg1 := wormhole.Message(msg1Acc.Data)
	msg2 := wormhole.Message(msg2Acc.Data)

	if err := p.validateMints(msg1, msg2, mintFrom, mintTo, mintFromNonce, mintToNonce); err != nil {
		return err
	}
	if err := verifySeeds(ReceiptSeeds(msg1Key, msg2Key, receiptNonce), ctx.ProgramID, receiptAcc.Key); err != nil {
		return err
	}

	msgNonce1, err := ctx.ReadU8()
	if err != nil {
		return err
	}
	msgNonce2, err := ctx.ReadU8()
	if err != nil {
		return err
	}
	hash1, err := ctx.ReadBytes(32)
	if err != nil {
		return err
	}
	hash2, err := ctx.ReadBytes(32)
	if err != nil {
		return err
	}

	claimAcc, err := ctx.NextAccount()
	if err != nil {
		return err
	}
	claimNonce, err := ctx.ReadU8()
	if err != nil {
		return err
	}

	rentAcc, err := ctx.NextAccount()
	if err != nil {
		return err
	}
	if ctx.Rent, err = runtime.ParseRent(rentAcc); err != nil {
		return err
	}

	if err := wormhole.ValidatePair(msg1, msg2, p.cfg.Emitters); err != nil {
		return err
	}
	if err := wormhole.VerifyMessageAddress(msg1Acc.Key, hash1, msgNonce1); err != nil {
		return err
	}
	if err := wormhole.VerifyMessageAddress(msg2Acc.Key, hash2, msgNonce2); err != nil {
		return err
	}
	if err := wormhole.VerifyClaimed(msg1, claimNonce, claimAcc, p.cfg.Emitters); err != nil {
		return err
	}

	ctx.Log("claim: pair verified, initializing record")
	return p.initRecord(ctx, owner, msg1Acc, msg2Acc, recordAcc, mintFrom, mintTo)
}

// validateMints re-derives both mints from the message payloads and
// requires the presented mint accounts to match.
func (p *Program) validateMints(msg1, msg2 wormhole.Message, mintFrom, mintTo *runtime.AccountInfo, nonceFrom, nonceTo uint8) error {
	addrFrom, err := msg1.TransferTokenAddr()
	if err != nil {
		return err
	}
	chainFrom, err := msg1.TransferTokenChain()
	if err != nil {
		return err
	}
	derived, err := wormhole.WrappedMint(addrFrom, chainFrom, nonceFrom)
	if err != nil {
		return err
	}
	if !derived.Equals(mintFrom.Key) {
		return fmt.Errorf("%w: source mint %s", runtime.ErrAddressMismatch, mintFrom.Key)
	}

	order, err := msg2.AsOrder()
	if err != nil {
		return err
	}
	derived, err = wormhole.WrappedMint(order.TokenAddr(), order.TokenChain(), nonceTo)
	if err != nil {
		return err
	}
	if !derived.Equals(mintTo.Key) {
		return fmt.Errorf("%w: destination mint %s", runtime.ErrAddressMismatch, mintTo.Key)
	}
	return nil
}

// initRecord creates the record account and writes the initial claimed
// state. Economics come off the order payload denormalized into each mint's
// native precision; the rate is fixed here and drives the swap's limit.
func (p *Program) initRecord(ctx *runtime.Context, owner, msg1Acc, msg2Acc, recordAcc, mintFrom, mintTo *runtime.AccountInfo) error {
	lamports := ctx.Rent.MinimumBalance(RecordAllocSize)
	create := token.CreateAccount(owner.Key, recordAcc.Key, ctx.ProgramID, lamports, RecordAllocSize)
	if err := ctx.Invoke(create); err != nil {
		return err
	}

	order, err := wormhole.Message(msg2Acc.Data).AsOrder()
	if err != nil {
		return err
	}

	decimalsFrom := token.Decimals(mintFrom)
	decimalsTo := token.Decimals(mintTo)

	amount := Denormalize(order.Amount(), decimalsFrom)
	amountMin := Denormalize(order.AmountMin(), decimalsTo)
	if amount == 0 {
		return fmt.Errorf("%w: order amount is zero", wormhole.ErrInvalidMessage)
	}

	rec := &Record{
		State:     StateClaimed,
		Amount:    amount,
		Decimals:  decimalsFrom,
		Rate:      amountMin * Pow10(decimalsFrom) / amount,
		ToChain:   order.DestChain(),
		FeeSwap:   Denormalize(order.FeeSwap(), decimalsFrom),
		FeeCancel: 0,
		FeeReturn: Denormalize(order.FeeReturn(), decimalsTo),
		Deadline:  order.Deadline(),
		AmountMin: amountMin,
	}
	copy(rec.Msg1[:], msg1Acc.Key.Bytes())
	copy(rec.Msg2[:], msg2Acc.Key.Bytes())
	copy(rec.MintFrom[:], mintFrom.Key.Bytes())
	copy(rec.MintTo[:], mintTo.Key.Bytes())
	copy(rec.ToAddr[:], order.DestAddr())
	copy(rec.Market1[:], order.Market1())
	copy(rec.Market2[:], order.Market2())

	return rec.EncodeTo(recordAcc.Data)
}
