package runtime

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/fortiblox/X1-Conduit/internal/types"
)

func TestCreateProgramAddressDeterministic(t *testing.T) {
	program := types.MustPubkeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	seeds := [][]byte{[]byte("V2STATE"), {1, 2, 3}}

	addr, bump, err := FindProgramAddress(seeds, program)
	if err != nil {
		t.Fatalf("FindProgramAddress failed: %v", err)
	}

	withBump := append(append([][]byte{}, seeds...), []byte{bump})
	again, err := CreateProgramAddress(withBump, program)
	if err != nil {
		t.Fatalf("CreateProgramAddress failed: %v", err)
	}
	if !addr.Equals(again) {
		t.Errorf("Derivation not deterministic: %s vs %s", addr, again)
	}

	// A different program id must land on a different address.
	other := types.MustPubkeyFromBase58("11111111111111111111111111111111")
	otherAddr, _, err := FindProgramAddress(seeds, other)
	if err != nil {
		t.Fatalf("FindProgramAddress failed: %v", err)
	}
	if addr.Equals(otherAddr) {
		t.Error("Same address derived under different program ids")
	}
}

func TestCreateProgramAddressSeedLimits(t *testing.T) {
	program := types.MustPubkeyFromBase58("11111111111111111111111111111111")

	tooMany := make([][]byte, MaxSeeds+1)
	for i := range tooMany {
		tooMany[i] = []byte{byte(i)}
	}
	if _, err := CreateProgramAddress(tooMany, program); !errors.Is(err, ErrMaxSeedsExceeded) {
		t.Errorf("Expected ErrMaxSeedsExceeded, got %v", err)
	}

	tooLong := [][]byte{make([]byte, MaxSeedLen+1)}
	if _, err := CreateProgramAddress(tooLong, program); !errors.Is(err, ErrMaxSeedLengthExceeded) {
		t.Errorf("Expected ErrMaxSeedLengthExceeded, got %v", err)
	}

	// The bump search must surface the seed error directly instead of
	// exhausting all bumps and reporting ErrNoViableBump.
	if _, _, err := FindProgramAddress(tooLong, program); !errors.Is(err, ErrMaxSeedLengthExceeded) {
		t.Errorf("Expected ErrMaxSeedLengthExceeded from FindProgramAddress, got %v", err)
	}
}

func TestFindProgramAddressOffCurve(t *testing.T) {
	program := types.MustPubkeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// Whatever bump the search picks, the result must be off curve.
	addr, _, err := FindProgramAddress([][]byte{[]byte("MAIN")}, program)
	if err != nil {
		t.Fatalf("FindProgramAddress failed: %v", err)
	}
	if isOnCurve(addr[:]) {
		t.Error("Derived address lies on the ed25519 curve")
	}
}

func TestIsOnCurveKnownPoints(t *testing.T) {
	// The identity point (y=1) is on the curve.
	identity := make([]byte, 32)
	identity[0] = 1
	if !isOnCurve(identity) {
		t.Error("Identity point should be on curve")
	}

	// Real ed25519 public keys are on the curve; the system program id is
	// one such key (all zeros decodes to y=0, x=0).
	zero := make([]byte, 32)
	if !isOnCurve(zero) {
		t.Error("Zero point should be on curve")
	}
}

func TestContextAccountCursor(t *testing.T) {
	key := types.MustPubkeyFromBase58("SysvarRent111111111111111111111111111111111")
	accounts := []*AccountInfo{{Key: key}}
	ctx := NewContext(types.Pubkey{}, accounts, nil, nil)

	acc, err := ctx.NextAccount()
	if err != nil {
		t.Fatalf("NextAccount failed: %v", err)
	}
	if !acc.Key.Equals(key) {
		t.Errorf("Wrong account: got %s", acc.Key)
	}

	if _, err := ctx.NextAccount(); !errors.Is(err, ErrNotEnoughAccounts) {
		t.Errorf("Expected ErrNotEnoughAccounts, got %v", err)
	}
}

func TestContextDataCursor(t *testing.T) {
	data := make([]byte, 13)
	data[0] = 7
	binary.LittleEndian.PutUint32(data[1:], 0xCAFE)
	binary.LittleEndian.PutUint64(data[5:], 1<<40)

	ctx := NewContext(types.Pubkey{}, nil, data, nil)

	if v, err := ctx.ReadU8(); err != nil || v != 7 {
		t.Errorf("ReadU8: got %d, %v", v, err)
	}
	if v, err := ctx.ReadU32(); err != nil || v != 0xCAFE {
		t.Errorf("ReadU32: got %d, %v", v, err)
	}
	if v, err := ctx.ReadU64(); err != nil || v != 1<<40 {
		t.Errorf("ReadU64: got %d, %v", v, err)
	}

	// 13 bytes consumed; every further read fails with the data sentinel.
	if _, err := ctx.ReadU8(); !errors.Is(err, ErrNotEnoughData) {
		t.Errorf("Expected ErrNotEnoughData, got %v", err)
	}
	if _, err := ctx.ReadBytes(32); !errors.Is(err, ErrNotEnoughData) {
		t.Errorf("Expected ErrNotEnoughData, got %v", err)
	}
}

func TestContextReadBytesAliases(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	ctx := NewContext(types.Pubkey{}, nil, data, nil)

	b, err := ctx.ReadBytes(4)
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	if &b[0] != &data[0] {
		t.Error("ReadBytes should alias the instruction payload")
	}
}

func TestContextInvokeWithoutInvoker(t *testing.T) {
	ctx := NewContext(types.Pubkey{}, nil, nil, nil)
	if err := ctx.Invoke(&Instruction{}); !errors.Is(err, ErrNoInvoker) {
		t.Errorf("Expected ErrNoInvoker, got %v", err)
	}
}

type failingInvoker struct{}

func (failingInvoker) Invoke(*Instruction, [][][]byte) error {
	return errors.New("downstream rejected")
}

func TestContextInvokeWrapsFailure(t *testing.T) {
	ctx := NewContext(types.Pubkey{}, nil, nil, failingInvoker{})
	err := ctx.Invoke(&Instruction{})
	if !errors.Is(err, ErrInvocationFailed) {
		t.Errorf("Expected ErrInvocationFailed, got %v", err)
	}
}

func rentAccount(lamportsPerByteYear uint64, threshold float64) *AccountInfo {
	data := make([]byte, rentDataMinLen)
	binary.LittleEndian.PutUint64(data[0:], lamportsPerByteYear)
	binary.LittleEndian.PutUint64(data[8:], math.Float64bits(threshold))
	data[16] = 50
	return &AccountInfo{Key: types.SysvarRentAddr, Data: data}
}

func TestParseRent(t *testing.T) {
	rent, err := ParseRent(rentAccount(3480, 2.0))
	if err != nil {
		t.Fatalf("ParseRent failed: %v", err)
	}
	if rent.LamportsPerByteYear != 3480 {
		t.Errorf("LamportsPerByteYear: got %d, want 3480", rent.LamportsPerByteYear)
	}
	if rent.ExemptionThreshold != 2.0 {
		t.Errorf("ExemptionThreshold: got %f, want 2.0", rent.ExemptionThreshold)
	}
	if rent.BurnPercent != 50 {
		t.Errorf("BurnPercent: got %d, want 50", rent.BurnPercent)
	}

	// Wrong address.
	wrong := rentAccount(3480, 2.0)
	wrong.Key = types.SysvarClockAddr
	if _, err := ParseRent(wrong); !errors.Is(err, ErrIncorrectSysvar) {
		t.Errorf("Expected ErrIncorrectSysvar, got %v", err)
	}

	// Truncated data.
	short := &AccountInfo{Key: types.SysvarRentAddr, Data: make([]byte, 16)}
	if _, err := ParseRent(short); !errors.Is(err, ErrSizeTooSmall) {
		t.Errorf("Expected ErrSizeTooSmall, got %v", err)
	}
}

func TestParseClock(t *testing.T) {
	data := make([]byte, clockDataMinLen)
	binary.LittleEndian.PutUint64(data[32:], 1700000000)
	clock, err := ParseClock(&AccountInfo{Key: types.SysvarClockAddr, Data: data})
	if err != nil {
		t.Fatalf("ParseClock failed: %v", err)
	}
	if clock.UnixTimestamp != 1700000000 {
		t.Errorf("UnixTimestamp: got %d, want 1700000000", clock.UnixTimestamp)
	}

	if _, err := ParseClock(&AccountInfo{Key: types.SysvarRentAddr, Data: data}); !errors.Is(err, ErrIncorrectSysvar) {
		t.Errorf("Expected ErrIncorrectSysvar, got %v", err)
	}
}

func TestMinimumBalance(t *testing.T) {
	rent := Rent{LamportsPerByteYear: 3480, ExemptionThreshold: 2.0}

	// (304 + 128) * 3480 * 2.0
	want := uint64(float64((304+128)*3480) * 2.0)
	if got := rent.MinimumBalance(304); got != want {
		t.Errorf("MinimumBalance(304): got %d, want %d", got, want)
	}

	// The overhead constant applies even to zero-size accounts.
	want = uint64(float64(128*3480) * 2.0)
	if got := rent.MinimumBalance(0); got != want {
		t.Errorf("MinimumBalance(0): got %d, want %d", got, want)
	}
}
