package settlement

import (
	"fmt"

	"github.com/fortiblox/X1-Conduit/pkg/runtime"
	"github.com/fortiblox/X1-Conduit/pkg/token"
	"github.com/fortiblox/X1-Conduit/pkg/wormhole"
)

// transfer re-emits the settled funds through the token bridge, then stamps
// the record terminal. Account order: owner (signer, pays the bridge fee),
// record, authority, the bridge account run, rent, clock. Data: record
// nonce, authority nonce, then the bridge nonce and flat fee consumed by
// the transfer parser.
//
// A swap-done record ships the destination asset to the trader for the
// return fee. A still-claimed record is a refund path: it only opens once
// the deadline has passed, ships the source asset back, and charges the
// cancel fee.
func (p *Program) transfer(ctx *runtime.Context, wrapped bool) error {
	owner, err := ctx.NextAccount()
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

	recordNonce, err := ctx.ReadU8()
	if err != nil {
		return err
	}
	authorityNonce, err := ctx.ReadU8()
	if err != nil {
		return err
	}

	t, err := wormhole.ParseTransfer(ctx, wrapped)
	if err != nil {
		return err
	}

	rec, err := DecodeRecord(recordAcc.Data)
	if err != nil {
		return err
	}
	if rec.State != StateSwapDone && rec.State != StateClaimed {
		return fmt.Errorf("%w: record is %s", ErrStateMismatch, rec.State)
	}
	refund := rec.State != StateSwapDone

	recordSeeds := RecordSeeds(rec.Msg1[:], rec.Msg2[:], recordNonce)
	authoritySeeds := AuthoritySeeds(authorityNonce)
	ctx.SetSignerSeeds(recordSeeds, authoritySeeds)

	if err := verifySeeds(recordSeeds, ctx.ProgramID, recordAcc.Key); err != nil {
		return err
	}
	if err := verifySeeds(authoritySeeds, ctx.ProgramID, authorityAcc.Key); err != nil {
		return err
	}

	// The asset going out: forward path ships what the swap bought,
	// refund path ships what originally arrived.
	mintRef := rec.MintTo[:]
	if refund {
		mintRef = rec.MintFrom[:]
	}
	if !t.Mint.Key.EqualsBytes(mintRef) {
		return fmt.Errorf("%w: outbound mint %s", runtime.ErrAddressMismatch, t.Mint.Key)
	}

	t.Payer = owner.Key
	t.Owner = authorityAcc.Key
	t.Amount = rec.Amount
	t.RelayerFee = rec.FeeReturn
	if refund {
		t.RelayerFee = rec.FeeCancel
	}
	t.DestAddr = rec.ToAddr[:]
	t.DestChain = rec.ToChain

	rentAcc, err := ctx.NextAccount()
	if err != nil {
		return err
	}
	if ctx.Rent, err = runtime.ParseRent(rentAcc); err != nil {
		return err
	}
	clockAcc, err := ctx.NextAccount()
	if err != nil {
		return err
	}
	if ctx.Clock, err = runtime.ParseClock(clockAcc); err != nil {
		return err
	}

	if refund && ctx.Clock.UnixTimestamp <= rec.Deadline {
		return fmt.Errorf("%w: now %d, deadline %d", ErrDeadlineNotReached, ctx.Clock.UnixTimestamp, rec.Deadline)
	}

	// Bridge flat fee first, then delegate the principal to the bridge
	// authority, then the transfer itself.
	if err := ctx.Invoke(token.SystemTransfer(owner.Key, t.FeeCollector.Key, t.Fee)); err != nil {
		return err
	}
	approve := token.Approve(t.TokenAccount.Key, t.AuthoritySigner.Key, authorityAcc.Key, t.Amount)
	if err := ctx.Invoke(approve); err != nil {
		return err
	}
	if err := ctx.Invoke(t.BuildInstruction()); err != nil {
		return err
	}

	seq, err := wormhole.SequenceFromAccount(t.SequenceKey)
	if err != nil {
		return err
	}
	ctx.Logf("transfer: sequence %d (refund=%v)", seq, refund)

	final := StateDoneSwapped
	if refund {
		final = StateDoneNotSwapped
	}
	SetState(recordAcc.Data, final)
	SetSequence(recordAcc.Data, seq)
	return nil
}
