package runtime

import (
	"encoding/binary"
	"fmt"

	"github.com/fortiblox/X1-Conduit/internal/types"
)

// Logger receives program log lines. The host decides where they go.
type Logger func(msg string)

// Context is the per-call execution context. It owns an index-based cursor
// over the account list and over the instruction payload, the resolved
// sysvar snapshots, and the signer-seed groups replayed on sub-invocations.
// A context lives for exactly one call.
type Context struct {
	ProgramID types.Pubkey

	// Sysvar snapshots, populated by the operation that parsed them.
	Rent  Rent
	Clock Clock

	accounts []*AccountInfo
	data     []byte
	accIdx   int
	dataIdx  int

	invoker Invoker
	logger  Logger

	// Seed groups asserted on signed invocations: the record ("state")
	// seeds and the signing-authority ("main") seeds.
	signerSeeds [][][]byte
}

// NewContext builds a context over the host-supplied account list and
// instruction payload.
func NewContext(programID types.Pubkey, accounts []*AccountInfo, data []byte, invoker Invoker) *Context {
	return &Context{
		ProgramID: programID,
		accounts:  accounts,
		data:      data,
		invoker:   invoker,
	}
}

// SetLogger installs a log sink. A nil logger silences program logs.
func (c *Context) SetLogger(l Logger) {
	c.logger = l
}

// Log records a program log line.
func (c *Context) Log(msg string) {
	if c.logger != nil {
		c.logger(msg)
	}
}

// Logf records a formatted program log line.
func (c *Context) Logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger(fmt.Sprintf(format, args...))
	}
}

// NextAccount returns the next account in the caller-supplied order.
func (c *Context) NextAccount() (*AccountInfo, error) {
	if c.accIdx >= len(c.accounts) {
		return nil, fmt.Errorf("%w: need account %d, have %d", ErrNotEnoughAccounts, c.accIdx+1, len(c.accounts))
	}
	acc := c.accounts[c.accIdx]
	c.accIdx++
	return acc, nil
}

// ReadU8 consumes one byte of instruction data.
func (c *Context) ReadU8() (uint8, error) {
	if c.dataIdx+1 > len(c.data) {
		return 0, fmt.Errorf("%w: u8 at offset %d", ErrNotEnoughData, c.dataIdx)
	}
	v := c.data[c.dataIdx]
	c.dataIdx++
	return v, nil
}

// ReadU32 consumes a little-endian u32 of instruction data.
func (c *Context) ReadU32() (uint32, error) {
	if c.dataIdx+4 > len(c.data) {
		return 0, fmt.Errorf("%w: u32 at offset %d", ErrNotEnoughData, c.dataIdx)
	}
	v := binary.LittleEndian.Uint32(c.data[c.dataIdx:])
	c.dataIdx += 4
	return v, nil
}

// ReadU64 consumes a little-endian u64 of instruction data.
func (c *Context) ReadU64() (uint64, error) {
	if c.dataIdx+8 > len(c.data) {
		return 0, fmt.Errorf("%w: u64 at offset %d", ErrNotEnoughData, c.dataIdx)
	}
	v := binary.LittleEndian.Uint64(c.data[c.dataIdx:])
	c.dataIdx += 8
	return v, nil
}

// ReadBytes consumes n bytes of instruction data. The returned slice
// aliases the payload; callers must not mutate it.
func (c *Context) ReadBytes(n int) ([]byte, error) {
	if c.dataIdx+n > len(c.data) {
		return nil, fmt.Errorf("%w: %d bytes at offset %d", ErrNotEnoughData, n, c.dataIdx)
	}
	b := c.data[c.dataIdx : c.dataIdx+n]
	c.dataIdx += n
	return b, nil
}

// SetSignerSeeds installs the seed groups replayed on signed invocations.
func (c *Context) SetSignerSeeds(stateSeeds, mainSeeds [][]byte) {
	c.signerSeeds = [][][]byte{stateSeeds, mainSeeds}
}

// Invoke executes a sub-instruction through the host, asserting the
// installed seed groups as signing authority when present. A downstream
// failure propagates verbatim, wrapped as ErrInvocationFailed.
func (c *Context) Invoke(ix *Instruction) error {
	if c.invoker == nil {
		return ErrNoInvoker
	}
	if err := c.invoker.Invoke(ix, c.signerSeeds); err != nil {
		return fmt.Errorf("%w: %s", ErrInvocationFailed, err)
	}
	return nil
}
