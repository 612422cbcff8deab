package settlement

import (
	"fmt"

	"github.com/fortiblox/X1-Conduit/pkg/dex"
	"github.com/fortiblox/X1-Conduit/pkg/runtime"
	"github.com/fortiblox/X1-Conduit/pkg/token"
)

// swap executes the claimed order against the books. Account order: record,
// authority, first market bundle, second market bundle (transitive only),
// source and destination token accounts, intermediate token account
// (transitive only), rent. Data: record nonce, authority nonce.
//
// The swap fee is carved off the principal before the trade; the realized
// output must clear the order's minimum or the whole call is void.
func (p *Program) swap(ctx *runtime.Context, transitive bool) error {
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

	m1, err := dex.ParseMarket(ctx)
	if err != nil {
		return err
	}
	var m2 *dex.Market
	if transitive {
		if m2, err = dex.ParseMarket(ctx); err != nil {
			return err
		}
	}

	from, err := ctx.NextAccount()
	if err != nil {
		return err
	}
	to, err := ctx.NextAccount()
	if err != nil {
		return err
	}
	acc := &dex.SwapAccounts{
		Authority: authorityAcc.Key,
		From:      from.Key,
		To:        to.Key,
	}
	if transitive {
		tmp, err := ctx.NextAccount()
		if err != nil {
			return err
		}
		acc.Intermediate = tmp.Key
	}

	rec, err := DecodeRecord(recordAcc.Data)
	if err != nil {
		return err
	}
	if rec.State != StateClaimed {
		return fmt.Errorf("%w: record is %s, want claimed", ErrStateMismatch, rec.State)
	}

	recordSeeds := RecordSeeds(rec.Msg1[:], rec.Msg2[:], recordNonce)
	authoritySeeds := AuthoritySeeds(authorityNonce)
	ctx.SetSignerSeeds(recordSeeds, authoritySeeds)

	if err := verifySeeds(recordSeeds, ctx.ProgramID, recordAcc.Key); err != nil {
		return err
	}
	if err := verifySeeds(authoritySeeds, ctx.ProgramID, authorityAcc.Key); err != nil {
		return err
	}

	if !m1.Market.Key.EqualsBytes(rec.Market1[:]) {
		return fmt.Errorf("%w: first market %s", runtime.ErrAddressMismatch, m1.Market.Key)
	}
	var side dex.Side
	if transitive {
		if !m2.Market.Key.EqualsBytes(rec.Market2[:]) {
			return fmt.Errorf("%w: second market %s", runtime.ErrAddressMismatch, m2.Market.Key)
		}
		if err := dex.CheckVaultMint(m1.BaseVault, rec.MintFrom[:]); err != nil {
			return err
		}
		if err := dex.CheckVaultMint(m2.BaseVault, rec.MintTo[:]); err != nil {
			return err
		}
	} else {
		if rec.Market2 != [32]byte{} {
			return fmt.Errorf("%w: single-leg order names a second market", runtime.ErrAddressMismatch)
		}
		if side, err = m1.SelectSide(rec.MintFrom[:], rec.MintTo[:]); err != nil {
			return err
		}
		if side == dex.SideAsk {
			acc.Base, acc.Quote = from.Key, to.Key
		} else {
			acc.Base, acc.Quote = to.Key, from.Key
		}
	}

	rentAcc, err := ctx.NextAccount()
	if err != nil {
		return err
	}
	if ctx.Rent, err = runtime.ParseRent(rentAcc); err != nil {
		return err
	}

	before, err := token.Balance(to)
	if err != nil {
		return err
	}

	if rec.FeeSwap >= rec.Amount {
		return fmt.Errorf("%w: fee %d against principal %d", ErrFeeExceedsPrincipal, rec.FeeSwap, rec.Amount)
	}
	amount := rec.Amount - rec.FeeSwap

	var ix *runtime.Instruction
	if transitive {
		ix = dex.BuildTransitiveSwap(m1, m2, acc, amount, rec.Rate, rec.Decimals)
	} else {
		ix = dex.BuildSimpleSwap(m1, acc, side, amount, rec.Rate, rec.Decimals)
	}
	if err := ctx.Invoke(ix); err != nil {
		return err
	}

	after, err := token.Balance(to)
	if err != nil {
		return err
	}
	diff := after - before
	ctx.Logf("swap: in %d out %d (min %d)", amount, diff, rec.AmountMin)

	if diff == 0 || diff < rec.AmountMin {
		return fmt.Errorf("%w: received %d, need %d", ErrSlippageViolation, diff, rec.AmountMin)
	}

	SetState(recordAcc.Data, StateSwapDone)
	SetAmount(recordAcc.Data, diff)
	return nil
}
