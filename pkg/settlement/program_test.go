package settlement

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/fortiblox/X1-Conduit/internal/types"
	"github.com/fortiblox/X1-Conduit/pkg/runtime"
	"github.com/fortiblox/X1-Conduit/pkg/wormhole"
)

// mockHost stands in for the chain runtime on sub-invocations: it applies
// system transfers and creations to the tracked accounts, acknowledges
// approvals, credits a configured payout on swap calls, and stamps a
// sequence on bridge calls.
type mockHost struct {
	accounts map[types.Pubkey]*runtime.AccountInfo

	swapTo    types.Pubkey
	swapOut   uint64
	seqKey    types.Pubkey
	bridgeSeq uint64

	lastSeeds [][][]byte
}

func newMockHost() *mockHost {
	return &mockHost{accounts: make(map[types.Pubkey]*runtime.AccountInfo), bridgeSeq: 777}
}

func (h *mockHost) track(accs ...*runtime.AccountInfo) {
	for _, acc := range accs {
		h.accounts[acc.Key] = acc
	}
}

func (h *mockHost) Invoke(ix *runtime.Instruction, seeds [][][]byte) error {
	h.lastSeeds = seeds

	switch ix.ProgramID {
	case types.SystemProgramAddr:
		from := h.accounts[ix.Accounts[0].Pubkey]
		to := h.accounts[ix.Accounts[1].Pubkey]
		if from == nil || to == nil {
			return errors.New("system call names an untracked account")
		}
		lamports := binary.LittleEndian.Uint64(ix.Data[4:])
		if from.Lamports < lamports {
			return errors.New("underfunded")
		}
		from.Lamports -= lamports
		to.Lamports += lamports
		if binary.LittleEndian.Uint32(ix.Data) == 0 {
			space := binary.LittleEndian.Uint64(ix.Data[12:])
			to.Data = make([]byte, space)
			copy(to.Owner[:], ix.Data[20:52])
		}
		return nil

	case types.TokenProgramAddr:
		// Approve: delegation only, no balance movement.
		return nil

	case types.SwapProgramAddr:
		acc := h.accounts[h.swapTo]
		if acc == nil {
			return errors.New("swap destination untracked")
		}
		bal := binary.LittleEndian.Uint64(acc.Data[64:])
		binary.LittleEndian.PutUint64(acc.Data[64:], bal+h.swapOut)
		return nil

	case types.TokenBridgeAddr:
		acc := h.accounts[h.seqKey]
		if acc == nil {
			return errors.New("sequence account untracked")
		}
		acc.Data = make([]byte, 8)
		binary.LittleEndian.PutUint64(acc.Data, h.bridgeSeq)
		return nil
	}
	return fmt.Errorf("unexpected program %s", ix.ProgramID)
}

// Fixture economics, denominated in 6-decimal native units (at or below the
// bridge's 8-decimal normalization, so amounts pass through unscaled).
const (
	fxAmount    = 1_000_000
	fxAmountMin = 900_000
	fxFeeSwap   = 10_000
	fxFeeReturn = 5_000
	fxDeadline  = 1_700_000_000
	fxTimestamp = 1_699_990_000
	fxSequence  = 42
	fxChain     = 5
)

func fxKey(b byte) types.Pubkey {
	var k types.Pubkey
	k[0] = b
	k[1] = 0xF0
	return k
}

func tokenAccount(key types.Pubkey, mint types.Pubkey, balance uint64) *runtime.AccountInfo {
	data := make([]byte, 72)
	copy(data[0:32], mint[:])
	binary.LittleEndian.PutUint64(data[64:], balance)
	return &runtime.AccountInfo{Key: key, Data: data}
}

func mintAccount(key types.Pubkey, decimals uint8) *runtime.AccountInfo {
	data := make([]byte, 45)
	data[44] = decimals
	return &runtime.AccountInfo{Key: key, Data: data}
}

type fixture struct {
	program   *Program
	programID types.Pubkey
	host      *mockHost

	owner        *runtime.AccountInfo
	msg1Acc      *runtime.AccountInfo
	msg2Acc      *runtime.AccountInfo
	receiptAcc   *runtime.AccountInfo
	recordAcc    *runtime.AccountInfo
	authorityAcc *runtime.AccountInfo
	mintFromAcc  *runtime.AccountInfo
	mintToAcc    *runtime.AccountInfo
	claimAcc     *runtime.AccountInfo
	rentAcc      *runtime.AccountInfo
	clockAcc     *runtime.AccountInfo

	receiptNonce   uint8
	recordNonce    uint8
	authorityNonce uint8
	msgNonce1      uint8
	msgNonce2      uint8
	claimNonce     uint8
	hash1          []byte
	hash2          []byte

	market1 []*runtime.AccountInfo
	fromAcc *runtime.AccountInfo
	toAcc   *runtime.AccountInfo

	config        *runtime.AccountInfo
	authSigner    *runtime.AccountInfo
	custodySigner *runtime.AccountInfo
	emitterAcc    *runtime.AccountInfo
	bridgeConf    *runtime.AccountInfo
	seqKeyAcc     *runtime.AccountInfo
	feeCollector  *runtime.AccountInfo
	custodyAcc    *runtime.AccountInfo
	newMsgAcc     *runtime.AccountInfo
}

// marketBundle builds the nine market accounts with the two vaults holding
// the given mints, keyed from base upward.
func marketBundle(base byte, baseMint, quoteMint types.Pubkey) []*runtime.AccountInfo {
	accs := make([]*runtime.AccountInfo, 9)
	for i := range accs {
		accs[i] = &runtime.AccountInfo{Key: fxKey(base + byte(i))}
	}
	accs[6] = tokenAccount(fxKey(base+6), baseMint, 0)
	accs[7] = tokenAccount(fxKey(base+7), quoteMint, 0)
	return accs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		program:   New(DefaultConfig()),
		programID: fxKey(0x99),
		host:      newMockHost(),
	}
	reg := wormhole.DefaultRegistry()
	tbEmitter, err := reg.TokenBridgeEmitter(fxChain)
	if err != nil {
		t.Fatalf("TokenBridgeEmitter failed: %v", err)
	}
	sbEmitter, _ := reg.SwapBridgeEmitter(fxChain)

	mintFromKey := fxKey(0x51)
	mintToKey := fxKey(0x52)

	f.market1 = marketBundle(0x61, mintFromKey, mintToKey)

	// Transfer message: header plus token-transfer payload for a locally
	// native asset.
	msg1 := make([]byte, 256)
	msg1[4] = 1
	binary.LittleEndian.PutUint32(msg1[5:], fxTimestamp)
	binary.LittleEndian.PutUint64(msg1[49:], fxSequence)
	binary.LittleEndian.PutUint16(msg1[57:], fxChain)
	copy(msg1[59:91], tbEmitter[:])
	msg1[95] = wormhole.TagTokenTransfer
	copy(msg1[128:160], mintFromKey[:])
	binary.BigEndian.PutUint16(msg1[160:], wormhole.ChainIDLocal)

	// Order message referencing the transfer.
	msg2 := make([]byte, wormhole.OrderMessageLen)
	msg2[4] = 1
	binary.LittleEndian.PutUint32(msg2[5:], fxTimestamp)
	binary.LittleEndian.PutUint16(msg2[57:], fxChain)
	copy(msg2[59:91], sbEmitter[:])
	msg2[95] = wormhole.TagSwapOrder
	binary.BigEndian.PutUint64(msg2[120:], fxAmount)
	copy(msg2[128:160], mintToKey[:])
	binary.BigEndian.PutUint16(msg2[160:], wormhole.ChainIDLocal)
	copy(msg2[162:194], bytes.Repeat([]byte{0xDD}, 32))
	binary.BigEndian.PutUint16(msg2[194:], fxChain)
	binary.BigEndian.PutUint64(msg2[220:], fxFeeSwap)
	binary.BigEndian.PutUint64(msg2[252:], fxFeeReturn)
	copy(msg2[260:292], f.market1[0].Key[:])
	binary.BigEndian.PutUint64(msg2[348:], fxAmountMin)
	binary.BigEndian.PutUint64(msg2[356:], fxSequence)
	binary.BigEndian.PutUint64(msg2[388:], fxDeadline)

	// Message accounts derive from content hashes, so the keys bind to the
	// bytes above the same way the bridge binds them.
	f.hash1 = wormhole.ContentHash(fxTimestamp, 0, fxChain, tbEmitter[:], fxSequence, 1, msg1[95:])
	f.hash2 = wormhole.ContentHash(fxTimestamp, 0, fxChain, sbEmitter[:], 0, 1, msg2[95:])
	msg1Key, msgNonce1, err := runtime.FindProgramAddress([][]byte{[]byte("PostedVAA"), f.hash1}, types.BridgeCoreAddr)
	if err != nil {
		t.Fatalf("message address derivation failed: %v", err)
	}
	msg2Key, msgNonce2, err := runtime.FindProgramAddress([][]byte{[]byte("PostedVAA"), f.hash2}, types.BridgeCoreAddr)
	if err != nil {
		t.Fatalf("message address derivation failed: %v", err)
	}
	f.msgNonce1, f.msgNonce2 = msgNonce1, msgNonce2

	f.msg1Acc = &runtime.AccountInfo{Key: msg1Key, Data: msg1}
	f.msg2Acc = &runtime.AccountInfo{Key: msg2Key, Data: msg2}

	// Program derived accounts.
	recordKey, recordNonce, err := runtime.FindProgramAddress(
		[][]byte{[]byte("V2STATE"), msg1Key[:], msg2Key[:]}, f.programID)
	if err != nil {
		t.Fatalf("record derivation failed: %v", err)
	}
	receiptKey, receiptNonce, err := runtime.FindProgramAddress(
		[][]byte{[]byte("V3STATEf"), msg1Key[:], msg2Key[:]}, f.programID)
	if err != nil {
		t.Fatalf("receipt derivation failed: %v", err)
	}
	authorityKey, authorityNonce, err := runtime.FindProgramAddress(
		[][]byte{[]byte("MAIN")}, f.programID)
	if err != nil {
		t.Fatalf("authority derivation failed: %v", err)
	}
	f.recordNonce, f.receiptNonce, f.authorityNonce = recordNonce, receiptNonce, authorityNonce

	// Bridge-side claim for the transfer.
	var idSeq [10]byte
	binary.BigEndian.PutUint16(idSeq[0:], fxChain)
	binary.BigEndian.PutUint64(idSeq[2:], fxSequence)
	claimKey, claimNonce, err := runtime.FindProgramAddress(
		[][]byte{tbEmitter[:], idSeq[:]}, types.TokenBridgeAddr)
	if err != nil {
		t.Fatalf("claim derivation failed: %v", err)
	}
	f.claimNonce = claimNonce

	f.owner = &runtime.AccountInfo{Key: fxKey(0x01), IsSigner: true, Lamports: 10_000_000_000}
	f.recordAcc = &runtime.AccountInfo{Key: recordKey}
	f.receiptAcc = &runtime.AccountInfo{Key: receiptKey}
	f.authorityAcc = &runtime.AccountInfo{Key: authorityKey}
	f.mintFromAcc = mintAccount(mintFromKey, 6)
	f.mintToAcc = mintAccount(mintToKey, 6)
	f.claimAcc = &runtime.AccountInfo{Key: claimKey, Data: []byte{1}}

	rentData := make([]byte, 17)
	binary.LittleEndian.PutUint64(rentData[0:], 3480)
	binary.LittleEndian.PutUint64(rentData[8:], math.Float64bits(2.0))
	f.rentAcc = &runtime.AccountInfo{Key: types.SysvarRentAddr, Data: rentData}
	f.clockAcc = &runtime.AccountInfo{Key: types.SysvarClockAddr, Data: make([]byte, 40)}
	f.setClock(fxDeadline - 100)

	f.fromAcc = tokenAccount(fxKey(0x71), mintFromKey, fxAmount)
	f.toAcc = tokenAccount(fxKey(0x72), mintToKey, 0)

	f.config = &runtime.AccountInfo{Key: fxKey(0x81)}
	f.authSigner = &runtime.AccountInfo{Key: fxKey(0x82)}
	f.custodySigner = &runtime.AccountInfo{Key: fxKey(0x83)}
	f.emitterAcc = &runtime.AccountInfo{Key: fxKey(0x84)}
	f.bridgeConf = &runtime.AccountInfo{Key: fxKey(0x85)}
	f.seqKeyAcc = &runtime.AccountInfo{Key: fxKey(0x86)}
	f.feeCollector = &runtime.AccountInfo{Key: fxKey(0x87)}
	f.custodyAcc = &runtime.AccountInfo{Key: fxKey(0x88)}
	f.newMsgAcc = &runtime.AccountInfo{Key: fxKey(0x89)}

	f.host.track(f.owner, f.recordAcc, f.fromAcc, f.toAcc, f.feeCollector, f.seqKeyAcc)
	f.host.swapTo = f.toAcc.Key
	f.host.swapOut = 950_000
	f.host.seqKey = f.seqKeyAcc.Key
	return f
}

func (f *fixture) setClock(ts uint64) {
	binary.LittleEndian.PutUint64(f.clockAcc.Data[32:], ts)
}

func (f *fixture) run(data []byte, accounts []*runtime.AccountInfo) error {
	ctx := runtime.NewContext(f.programID, accounts, data, f.host)
	return f.program.Execute(ctx)
}

func (f *fixture) claimData() []byte {
	data := []byte{OpClaim, f.receiptNonce, f.recordNonce, f.authorityNonce, 0, 0, f.msgNonce1, f.msgNonce2}
	data = append(data, f.hash1...)
	data = append(data, f.hash2...)
	return append(data, f.claimNonce)
}

func (f *fixture) claimAccounts() []*runtime.AccountInfo {
	return []*runtime.AccountInfo{
		f.owner, f.msg1Acc, f.msg2Acc, f.receiptAcc, f.recordAcc, f.authorityAcc,
		f.mintFromAcc, f.mintToAcc, f.claimAcc, f.rentAcc,
	}
}

func (f *fixture) swapSimpleAccounts() []*runtime.AccountInfo {
	accs := []*runtime.AccountInfo{f.recordAcc, f.authorityAcc}
	accs = append(accs, f.market1...)
	return append(accs, f.fromAcc, f.toAcc, f.rentAcc)
}

func (f *fixture) transferNativeData(fee uint64) []byte {
	data := []byte{OpTransferNative, f.recordNonce, f.authorityNonce}
	data = binary.LittleEndian.AppendUint32(data, 7)
	return binary.LittleEndian.AppendUint64(data, fee)
}

func (f *fixture) transferNativeAccounts(mint, tokenAcc *runtime.AccountInfo) []*runtime.AccountInfo {
	return []*runtime.AccountInfo{
		f.owner, f.recordAcc, f.authorityAcc,
		f.config, f.authSigner, f.custodySigner, f.emitterAcc, f.bridgeConf,
		f.seqKeyAcc, f.feeCollector, mint, f.custodyAcc, tokenAcc, f.newMsgAcc,
		f.rentAcc, f.clockAcc,
	}
}

// seedRecord writes a claimed record directly, bypassing the claim path, so
// later stages can be exercised in isolation.
func (f *fixture) seedRecord(t *testing.T, mutate func(*Record)) {
	t.Helper()
	rec := &Record{
		State:     StateClaimed,
		Amount:    fxAmount,
		Decimals:  6,
		Rate:      900_000,
		ToChain:   fxChain,
		FeeSwap:   fxFeeSwap,
		FeeReturn: fxFeeReturn,
		Deadline:  fxDeadline,
		AmountMin: fxAmountMin,
	}
	copy(rec.Msg1[:], f.msg1Acc.Key[:])
	copy(rec.Msg2[:], f.msg2Acc.Key[:])
	copy(rec.MintFrom[:], f.mintFromAcc.Key[:])
	copy(rec.MintTo[:], f.mintToAcc.Key[:])
	copy(rec.ToAddr[:], bytes.Repeat([]byte{0xDD}, 32))
	copy(rec.Market1[:], f.market1[0].Key[:])
	if mutate != nil {
		mutate(rec)
	}
	f.recordAcc.Data = make([]byte, RecordAllocSize)
	if err := rec.EncodeTo(f.recordAcc.Data); err != nil {
		t.Fatalf("seed record failed: %v", err)
	}
}

func TestClaimSwapTransferLifecycle(t *testing.T) {
	f := newFixture(t)

	ownerBefore := f.owner.Lamports
	if err := f.run(f.claimData(), f.claimAccounts()); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	rec, err := DecodeRecord(f.recordAcc.Data)
	if err != nil {
		t.Fatalf("record unreadable after claim: %v", err)
	}
	if rec.State != StateClaimed {
		t.Fatalf("state after claim: %s", rec.State)
	}
	if rec.Amount != fxAmount || rec.AmountMin != fxAmountMin {
		t.Errorf("amounts: %d / %d", rec.Amount, rec.AmountMin)
	}
	if rec.Rate != fxAmountMin*Pow10(6)/fxAmount {
		t.Errorf("rate: got %d", rec.Rate)
	}
	if rec.Decimals != 6 || rec.FeeSwap != fxFeeSwap || rec.FeeCancel != 0 || rec.FeeReturn != fxFeeReturn {
		t.Errorf("economics misrecorded: %+v", rec)
	}
	if rec.Deadline != fxDeadline || rec.ToChain != fxChain {
		t.Errorf("destination misrecorded: %+v", rec)
	}
	if !bytes.Equal(rec.Market1[:], f.market1[0].Key[:]) || rec.Market2 != [32]byte{} {
		t.Error("markets misrecorded")
	}
	// Rent for the new record came out of the owner.
	if f.owner.Lamports >= ownerBefore {
		t.Error("owner did not pay record rent")
	}
	if f.recordAcc.Lamports == 0 {
		t.Error("record has no rent balance")
	}

	// Swap: 990k in after the fee, 950k out, clearing the 900k floor.
	if err := f.run([]byte{OpSwapSimple, f.recordNonce, f.authorityNonce}, f.swapSimpleAccounts()); err != nil {
		t.Fatalf("swap failed: %v", err)
	}
	if StateOf(f.recordAcc.Data) != StateSwapDone {
		t.Fatalf("state after swap: %s", StateOf(f.recordAcc.Data))
	}
	rec, _ = DecodeRecord(f.recordAcc.Data)
	if rec.Amount != 950_000 {
		t.Errorf("realized amount: got %d, want 950000", rec.Amount)
	}
	if len(f.host.lastSeeds) != 2 {
		t.Error("swap invoked without both signer seed groups")
	}

	// Transfer: ship the bought asset out, stamp terminal state + sequence.
	feeBefore := f.feeCollector.Lamports
	if err := f.run(f.transferNativeData(1000), f.transferNativeAccounts(f.mintToAcc, f.toAcc)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if StateOf(f.recordAcc.Data) != StateDoneSwapped {
		t.Fatalf("state after transfer: %s", StateOf(f.recordAcc.Data))
	}
	if Sequence(f.recordAcc.Data) != 777 {
		t.Errorf("sequence: got %d, want 777", Sequence(f.recordAcc.Data))
	}
	if f.feeCollector.Lamports != feeBefore+1000 {
		t.Error("flat bridge fee not collected")
	}
}

func TestClaimRejectsUnsignedOwner(t *testing.T) {
	f := newFixture(t)
	f.owner.IsSigner = false
	if err := f.run(f.claimData(), f.claimAccounts()); !errors.Is(err, runtime.ErrMissingSignature) {
		t.Errorf("Expected ErrMissingSignature, got %v", err)
	}
}

func TestClaimRejectsExistingRecord(t *testing.T) {
	f := newFixture(t)
	f.recordAcc.Data = make([]byte, 1)
	if err := f.run(f.claimData(), f.claimAccounts()); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("Expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestClaimRejectsUnclaimedTransfer(t *testing.T) {
	f := newFixture(t)
	f.claimAcc.Data = []byte{0}
	if err := f.run(f.claimData(), f.claimAccounts()); !errors.Is(err, wormhole.ErrNotClaimed) {
		t.Errorf("Expected ErrNotClaimed, got %v", err)
	}
}

func TestClaimRejectsBrokenSequenceRef(t *testing.T) {
	f := newFixture(t)
	binary.BigEndian.PutUint64(f.msg2Acc.Data[356:], fxSequence+1)
	if err := f.run(f.claimData(), f.claimAccounts()); !errors.Is(err, wormhole.ErrInvalidMessage) {
		t.Errorf("Expected ErrInvalidMessage, got %v", err)
	}
}

func TestClaimRejectsWrongMint(t *testing.T) {
	f := newFixture(t)
	f.mintFromAcc.Key[5] ^= 0xFF
	if err := f.run(f.claimData(), f.claimAccounts()); !errors.Is(err, runtime.ErrAddressMismatch) {
		t.Errorf("Expected ErrAddressMismatch, got %v", err)
	}
}

func TestUnknownOpcode(t *testing.T) {
	f := newFixture(t)
	if err := f.run([]byte{200}, nil); !errors.Is(err, ErrUnknownInstruction) {
		t.Errorf("Expected ErrUnknownInstruction, got %v", err)
	}
}

func TestSwapRequiresClaimedState(t *testing.T) {
	f := newFixture(t)
	f.seedRecord(t, func(r *Record) { r.State = StateSwapDone })
	err := f.run([]byte{OpSwapSimple, f.recordNonce, f.authorityNonce}, f.swapSimpleAccounts())
	if !errors.Is(err, ErrStateMismatch) {
		t.Errorf("Expected ErrStateMismatch, got %v", err)
	}
}

func TestSwapRejectsWrongMarket(t *testing.T) {
	f := newFixture(t)
	f.seedRecord(t, func(r *Record) { r.Market1[0] ^= 0xFF })
	err := f.run([]byte{OpSwapSimple, f.recordNonce, f.authorityNonce}, f.swapSimpleAccounts())
	if !errors.Is(err, runtime.ErrAddressMismatch) {
		t.Errorf("Expected ErrAddressMismatch, got %v", err)
	}
}

func TestSwapFeeConsumesPrincipal(t *testing.T) {
	f := newFixture(t)
	// Fee equal to the principal is already too much.
	f.seedRecord(t, func(r *Record) { r.FeeSwap = r.Amount })
	err := f.run([]byte{OpSwapSimple, f.recordNonce, f.authorityNonce}, f.swapSimpleAccounts())
	if !errors.Is(err, ErrFeeExceedsPrincipal) {
		t.Errorf("Expected ErrFeeExceedsPrincipal, got %v", err)
	}
}

func TestSwapSlippage(t *testing.T) {
	for _, out := range []uint64{0, fxAmountMin - 1} {
		f := newFixture(t)
		f.seedRecord(t, nil)
		f.host.swapOut = out
		err := f.run([]byte{OpSwapSimple, f.recordNonce, f.authorityNonce}, f.swapSimpleAccounts())
		if !errors.Is(err, ErrSlippageViolation) {
			t.Errorf("payout %d: expected ErrSlippageViolation, got %v", out, err)
		}
		if StateOf(f.recordAcc.Data) != StateClaimed {
			t.Errorf("payout %d: record state moved on a void swap", out)
		}
	}

	// Exactly the minimum clears.
	f := newFixture(t)
	f.seedRecord(t, nil)
	f.host.swapOut = fxAmountMin
	if err := f.run([]byte{OpSwapSimple, f.recordNonce, f.authorityNonce}, f.swapSimpleAccounts()); err != nil {
		t.Errorf("exact minimum rejected: %v", err)
	}
}

func TestTransitiveSwap(t *testing.T) {
	f := newFixture(t)
	// Two-leg routing: each market's base vault holds its leg's asset.
	market2 := marketBundle(0x30, f.mintToAcc.Key, f.mintFromAcc.Key)
	f.seedRecord(t, func(r *Record) { copy(r.Market2[:], market2[0].Key[:]) })

	intermediate := tokenAccount(fxKey(0x73), fxKey(0x53), 0)
	accs := []*runtime.AccountInfo{f.recordAcc, f.authorityAcc}
	accs = append(accs, f.market1...)
	accs = append(accs, market2...)
	accs = append(accs, f.fromAcc, f.toAcc, intermediate, f.rentAcc)

	if err := f.run([]byte{OpSwapTransitive, f.recordNonce, f.authorityNonce}, accs); err != nil {
		t.Fatalf("transitive swap failed: %v", err)
	}
	if StateOf(f.recordAcc.Data) != StateSwapDone {
		t.Errorf("state after swap: %s", StateOf(f.recordAcc.Data))
	}
	rec, _ := DecodeRecord(f.recordAcc.Data)
	if rec.Amount != 950_000 {
		t.Errorf("realized amount: got %d", rec.Amount)
	}
}

func TestTransferRejectsTerminalState(t *testing.T) {
	f := newFixture(t)
	f.seedRecord(t, func(r *Record) { r.State = StateDoneSwapped })
	err := f.run(f.transferNativeData(1000), f.transferNativeAccounts(f.mintToAcc, f.toAcc))
	if !errors.Is(err, ErrStateMismatch) {
		t.Errorf("Expected ErrStateMismatch, got %v", err)
	}
}

func TestTransferRejectsWrongMint(t *testing.T) {
	f := newFixture(t)
	f.seedRecord(t, func(r *Record) { r.State = StateSwapDone })
	// Forward path must ship the bought asset, not the source one.
	err := f.run(f.transferNativeData(1000), f.transferNativeAccounts(f.mintFromAcc, f.toAcc))
	if !errors.Is(err, runtime.ErrAddressMismatch) {
		t.Errorf("Expected ErrAddressMismatch, got %v", err)
	}
}

func TestRefundGatedByDeadline(t *testing.T) {
	f := newFixture(t)
	f.seedRecord(t, nil) // still claimed: refund path

	// At the deadline the refund stays closed.
	f.setClock(fxDeadline)
	err := f.run(f.transferNativeData(1000), f.transferNativeAccounts(f.mintFromAcc, f.fromAcc))
	if !errors.Is(err, ErrDeadlineNotReached) {
		t.Fatalf("Expected ErrDeadlineNotReached, got %v", err)
	}

	// One second past it opens.
	f.setClock(fxDeadline + 1)
	if err := f.run(f.transferNativeData(1000), f.transferNativeAccounts(f.mintFromAcc, f.fromAcc)); err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if StateOf(f.recordAcc.Data) != StateDoneNotSwapped {
		t.Errorf("state after refund: %s", StateOf(f.recordAcc.Data))
	}
	if Sequence(f.recordAcc.Data) != 777 {
		t.Errorf("sequence: got %d", Sequence(f.recordAcc.Data))
	}
}

func TestSweep(t *testing.T) {
	f := newFixture(t)
	f.recordAcc.Lamports = 3_000_000
	ownerBefore := f.owner.Lamports

	accs := []*runtime.AccountInfo{f.msg1Acc, f.msg2Acc, f.recordAcc, f.owner}
	if err := f.run([]byte{OpSweep, f.recordNonce}, accs); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if f.recordAcc.Lamports != 0 {
		t.Error("record still holds lamports")
	}
	if f.owner.Lamports != ownerBefore+3_000_000 {
		t.Errorf("owner balance: got %d", f.owner.Lamports)
	}
}

func TestSweepRequiresSigner(t *testing.T) {
	f := newFixture(t)
	f.owner.IsSigner = false
	accs := []*runtime.AccountInfo{f.msg1Acc, f.msg2Acc, f.recordAcc, f.owner}
	if err := f.run([]byte{OpSweep, f.recordNonce}, accs); !errors.Is(err, runtime.ErrMissingSignature) {
		t.Errorf("Expected ErrMissingSignature, got %v", err)
	}
}
