package runtime

import (
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/fortiblox/X1-Conduit/internal/types"
)

// Seed limits for program derived addresses.
const (
	MaxSeeds   = 16
	MaxSeedLen = 32
)

// Marker appended to the hash input during derivation.
var pdaMarker = []byte("ProgramDerivedAddress")

// PDA errors.
var (
	ErrMaxSeedsExceeded      = errors.New("max seeds exceeded")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrInvalidSeeds          = errors.New("invalid seeds: derived address is on curve")
	ErrNoViableBump          = errors.New("unable to find a viable bump seed")
)

// CreateProgramAddress derives a program address from seeds and a program ID.
// The derivation has no inverse; holding the seeds is the only way to
// reproduce the address. Returns ErrInvalidSeeds if the derived point lies
// on the ed25519 curve, since such an address could have a private key.
func CreateProgramAddress(seeds [][]byte, programID types.Pubkey) (types.Pubkey, error) {
	var addr types.Pubkey

	if len(seeds) > MaxSeeds {
		return addr, ErrMaxSeedsExceeded
	}
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return addr, ErrMaxSeedLengthExceeded
		}
	}

	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write(pdaMarker)
	copy(addr[:], h.Sum(nil))

	if isOnCurve(addr[:]) {
		return types.Pubkey{}, ErrInvalidSeeds
	}
	return addr, nil
}

// FindProgramAddress finds a valid derived address by trying bump seeds
// from 255 down to 0. Used by off-chain tooling and tests; the program
// itself always receives nonces in instruction data and re-derives with
// CreateProgramAddress.
func FindProgramAddress(seeds [][]byte, programID types.Pubkey) (types.Pubkey, uint8, error) {
	if len(seeds) > MaxSeeds-1 {
		return types.Pubkey{}, 0, ErrMaxSeedsExceeded
	}

	for bump := uint8(255); ; bump-- {
		withBump := make([][]byte, len(seeds)+1)
		copy(withBump, seeds)
		withBump[len(seeds)] = []byte{bump}

		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, bump, nil
		}
		// Only the on-curve case is worth retrying with another bump;
		// seed limit errors hold for every bump.
		if !errors.Is(err, ErrInvalidSeeds) {
			return types.Pubkey{}, 0, err
		}
		if bump == 0 {
			break
		}
	}
	return types.Pubkey{}, 0, ErrNoViableBump
}

// isOnCurve reports whether the 32 bytes decode to a point on the ed25519
// curve (-x^2 + y^2 = 1 + d*x^2*y^2 over GF(2^255-19)). A compressed point
// stores y and the sign of x; the point is valid when x^2, solved from the
// curve equation, has a square root in the field.
func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}

	// p = 2^255 - 19
	p := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(19))

	// d = -121665/121666 mod p
	d := new(big.Int).Mul(big.NewInt(-121665), new(big.Int).ModInverse(big.NewInt(121666), p))
	d.Mod(d, p)

	// y is little-endian with the sign bit cleared.
	yBytes := make([]byte, 32)
	copy(yBytes, point)
	yBytes[31] &= 0x7F

	y := new(big.Int)
	for i := 31; i >= 0; i-- {
		y.Lsh(y, 8)
		y.Or(y, big.NewInt(int64(yBytes[i])))
	}
	if y.Cmp(p) >= 0 {
		return false
	}

	// x^2 = (y^2 - 1) / (d*y^2 + 1)
	y2 := new(big.Int).Mul(y, y)
	y2.Mod(y2, p)

	num := new(big.Int).Sub(y2, big.NewInt(1))
	num.Mod(num, p)

	den := new(big.Int).Mul(d, y2)
	den.Add(den, big.NewInt(1))
	den.Mod(den, p)

	denInv := new(big.Int).ModInverse(den, p)
	if denInv == nil {
		return false
	}
	x2 := new(big.Int).Mul(num, denInv)
	x2.Mod(x2, p)

	// Euler's criterion: x^2 is a quadratic residue iff x^2^((p-1)/2) = 1.
	exp := new(big.Int).Sub(p, big.NewInt(1))
	exp.Rsh(exp, 1)
	legendre := new(big.Int).Exp(x2, exp, p)

	return legendre.Cmp(big.NewInt(1)) == 0 || x2.Sign() == 0
}
