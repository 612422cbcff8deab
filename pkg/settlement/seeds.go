package settlement

import (
	"fmt"

	"github.com/fortiblox/X1-Conduit/internal/types"
	"github.com/fortiblox/X1-Conduit/pkg/runtime"
)

// Seed prefixes for the program's derived addresses. The record address
// binds a message pair to exactly one settlement; the authority signs token
// movements on the record's behalf; the receipt address reserves room for a
// finalization account alongside the record.
var (
	recordSeedPrefix    = []byte("V2STATE")
	authoritySeedPrefix = []byte("MAIN")
	receiptSeedPrefix   = []byte("V3STATEf")
)

// RecordSeeds builds the signer seeds of the settlement record for a
// message pair.
func RecordSeeds(msg1, msg2 []byte, nonce uint8) [][]byte {
	return [][]byte{recordSeedPrefix, msg1, msg2, {nonce}}
}

// AuthoritySeeds builds the signer seeds of the program's token authority.
func AuthoritySeeds(nonce uint8) [][]byte {
	return [][]byte{authoritySeedPrefix, {nonce}}
}

// ReceiptSeeds builds the signer seeds of the finalization receipt for a
// message pair.
func ReceiptSeeds(msg1, msg2 []byte, nonce uint8) [][]byte {
	return [][]byte{receiptSeedPrefix, msg1, msg2, {nonce}}
}

// verifySeeds re-derives an address from seeds under the program and
// requires it to match the presented key.
func verifySeeds(seeds [][]byte, programID, presented types.Pubkey) error {
	derived, err := runtime.CreateProgramAddress(seeds, programID)
	if err != nil {
		return err
	}
	if !derived.Equals(presented) {
		return fmt.Errorf("%w: derived account %s", runtime.ErrAddressMismatch, presented)
	}
	return nil
}
