package runtime

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/fortiblox/X1-Conduit/internal/types"
)

// Rent sysvar layout: lamports-per-byte-year u64 at 0, exemption threshold
// f64 at 8, burn percent u8 at 16.
const rentDataMinLen = 17

// Clock sysvar layout: the unix timestamp sits at offset 32.
const clockDataMinLen = 40

// accountStorageOverhead is the metadata padding the runtime charges rent
// for on top of an account's data size.
const accountStorageOverhead = 128

// Rent is a snapshot of the rent sysvar.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
	BurnPercent         uint8
}

// Clock is a snapshot of the clock sysvar.
type Clock struct {
	UnixTimestamp uint64
}

// ParseRent reads the rent sysvar from a caller-supplied account. The
// account must carry the fixed rent sysvar address.
func ParseRent(acc *AccountInfo) (Rent, error) {
	var r Rent
	if !acc.Key.Equals(types.SysvarRentAddr) {
		return r, fmt.Errorf("%w: rent sysvar expected, got %s", ErrIncorrectSysvar, acc.Key)
	}
	if len(acc.Data) < rentDataMinLen {
		return r, fmt.Errorf("%w: rent sysvar holds %d bytes", ErrSizeTooSmall, len(acc.Data))
	}
	r.LamportsPerByteYear = binary.LittleEndian.Uint64(acc.Data[0:8])
	r.ExemptionThreshold = math.Float64frombits(binary.LittleEndian.Uint64(acc.Data[8:16]))
	r.BurnPercent = acc.Data[16]
	return r, nil
}

// ParseClock reads the clock sysvar from a caller-supplied account. The
// account must carry the fixed clock sysvar address.
func ParseClock(acc *AccountInfo) (Clock, error) {
	var c Clock
	if !acc.Key.Equals(types.SysvarClockAddr) {
		return c, fmt.Errorf("%w: clock sysvar expected, got %s", ErrIncorrectSysvar, acc.Key)
	}
	if len(acc.Data) < clockDataMinLen {
		return c, fmt.Errorf("%w: clock sysvar holds %d bytes", ErrSizeTooSmall, len(acc.Data))
	}
	c.UnixTimestamp = binary.LittleEndian.Uint64(acc.Data[32:40])
	return c, nil
}

// MinimumBalance returns the rent-exempt minimum for an account of the
// given data size: ((size + 128) * lamports_per_byte_year) * threshold,
// truncated. The account-creation path must reproduce this exactly,
// including the 128-byte overhead constant.
func (r Rent) MinimumBalance(size uint64) uint64 {
	return uint64(float64((size+accountStorageOverhead)*r.LamportsPerByteYear) * r.ExemptionThreshold)
}
