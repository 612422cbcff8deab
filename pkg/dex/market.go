// Package dex builds order-book swap invocations against the on-chain
// swap router and its underlying dex program.
package dex

import (
	"errors"
	"fmt"

	"github.com/fortiblox/X1-Conduit/pkg/runtime"
	"github.com/fortiblox/X1-Conduit/pkg/token"
)

// ErrVaultMint is returned when a market vault does not hold the asset a
// settlement record expects on that side of the trade.
var ErrVaultMint = errors.New("market vault holds unexpected mint")

// Side is the order-book side a simple swap submits to.
type Side uint8

const (
	SideBid Side = 0
	SideAsk Side = 1
)

// Market is one order-book market account bundle, in submission order.
type Market struct {
	Market      *runtime.AccountInfo
	OpenOrders  *runtime.AccountInfo
	ReqQueue    *runtime.AccountInfo
	EventQueue  *runtime.AccountInfo
	Bids        *runtime.AccountInfo
	Asks        *runtime.AccountInfo
	BaseVault   *runtime.AccountInfo
	QuoteVault  *runtime.AccountInfo
	VaultSigner *runtime.AccountInfo
}

// ParseMarket reads one market bundle off the context cursor.
func ParseMarket(ctx *runtime.Context) (*Market, error) {
	m := &Market{}

	var err error
	read := func(dst **runtime.AccountInfo) {
		if err != nil {
			return
		}
		*dst, err = ctx.NextAccount()
	}

	read(&m.Market)
	read(&m.OpenOrders)
	read(&m.ReqQueue)
	read(&m.EventQueue)
	read(&m.Bids)
	read(&m.Asks)
	read(&m.BaseVault)
	read(&m.QuoteVault)
	read(&m.VaultSigner)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CheckVaultMint requires a vault token account to hold the given mint.
func CheckVaultMint(vault *runtime.AccountInfo, mint []byte) error {
	held, err := token.Mint(vault)
	if err != nil {
		return err
	}
	for i := range held {
		if held[i] != mint[i] {
			return fmt.Errorf("%w: vault %s", ErrVaultMint, vault.Key)
		}
	}
	return nil
}

// SelectSide derives the submission side of a simple swap from which vault
// of the market holds the source asset: selling into the book when the base
// vault does, buying when the quote vault does. The opposite vault must hold
// the destination asset.
func (m *Market) SelectSide(mintFrom, mintTo []byte) (Side, error) {
	var side Side
	var ref *runtime.AccountInfo

	if err := CheckVaultMint(m.BaseVault, mintFrom); err == nil {
		side, ref = SideAsk, m.QuoteVault
	} else if err := CheckVaultMint(m.QuoteVault, mintFrom); err == nil {
		side, ref = SideBid, m.BaseVault
	} else {
		return 0, fmt.Errorf("%w: neither vault holds the source asset", ErrVaultMint)
	}

	if err := CheckVaultMint(ref, mintTo); err != nil {
		return 0, err
	}
	return side, nil
}
