// X1-Conduit: offline harness and inspector for the cross-chain settlement
// engine.
//
// The harness keeps a local mirror of the accounts a settlement touches,
// executes settlement instructions against that mirror, and journals every
// lifecycle transition. Sub-invocations that only move local state (system
// create/transfer, token approve) are applied directly; anything that needs
// a live order book or bridge is out of reach offline and reported as such.
package main

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fortiblox/X1-Conduit/internal/types"
	"github.com/fortiblox/X1-Conduit/pkg/journal"
	"github.com/fortiblox/X1-Conduit/pkg/runtime"
	"github.com/fortiblox/X1-Conduit/pkg/settlement"
	"github.com/fortiblox/X1-Conduit/pkg/store"
	"github.com/fortiblox/X1-Conduit/pkg/wormhole"
)

// Version information
var (
	Version   = "0.1.0"
	GitCommit = "dev"
)

// Configuration flags
var (
	dataDir     = flag.String("data-dir", "conduit-data", "Data directory for the account store and journal")
	inMemory    = flag.Bool("in-memory", false, "Run the account store in memory")
	programID   = flag.String("program", "", "Settlement program id (base58, required for -execute and -inspect)")
	importPath  = flag.String("import", "", "Import an account snapshot and exit")
	exportPath  = flag.String("export", "", "Export an account snapshot and exit")
	inspectKey  = flag.String("inspect", "", "Print a settlement record and its journal history")
	digestKey   = flag.String("digest", "", "Recompute a posted message's content hash and derived address")
	listRecords = flag.Bool("list", false, "List journaled settlement records")
	execData    = flag.String("ix-data", "", "Instruction data (hex) to execute")
	execAccs    = flag.String("ix-accounts", "", "Comma-separated account keys, signers marked with a + prefix, writable with *")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("X1-Conduit %s (%s)\n", Version, GitCommit)
		os.Exit(0)
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := store.DefaultConfig(*dataDir + "/accounts")
	cfg.InMemory = *inMemory
	db, err := store.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open account store: %v", err)
	}
	defer db.Close()

	switch {
	case *importPath != "":
		if err := db.Import(*importPath); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		log.Printf("Imported snapshot %s (%d accounts)", *importPath, db.Count())

	case *exportPath != "":
		if err := db.Export(*exportPath); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		log.Printf("Exported %d accounts to %s", db.Count(), *exportPath)

	case *inspectKey != "":
		if err := inspect(db, *inspectKey); err != nil {
			log.Fatalf("Inspect failed: %v", err)
		}

	case *digestKey != "":
		if err := digest(db, *digestKey); err != nil {
			log.Fatalf("Digest failed: %v", err)
		}

	case *listRecords:
		if err := list(); err != nil {
			log.Fatalf("List failed: %v", err)
		}

	case *execData != "":
		if err := execute(db); err != nil {
			log.Fatalf("Execute failed: %v", err)
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func openJournal() (*journal.Journal, error) {
	return journal.Open(*dataDir + "/journal.db")
}

// inspect prints the decoded record plus its journaled history.
func inspect(db *store.Store, key string) error {
	pubkey, err := types.PubkeyFromBase58(key)
	if err != nil {
		return fmt.Errorf("parse record key: %w", err)
	}

	acc, err := db.Get(pubkey)
	if err != nil {
		return err
	}
	rec, err := settlement.DecodeRecord(acc.Data)
	if err != nil {
		return err
	}

	fmt.Printf("record %s\n", pubkey)
	fmt.Printf("  state      %s\n", rec.State)
	fmt.Printf("  amount     %d (min %d, decimals %d)\n", rec.Amount, rec.AmountMin, rec.Decimals)
	fmt.Printf("  mint from  %s\n", types.Pubkey(rec.MintFrom))
	fmt.Printf("  mint to    %s\n", types.Pubkey(rec.MintTo))
	fmt.Printf("  dest       chain %d, addr %s\n", rec.ToChain, hex.EncodeToString(rec.ToAddr[:]))
	fmt.Printf("  fees       swap %d, cancel %d, return %d\n", rec.FeeSwap, rec.FeeCancel, rec.FeeReturn)
	fmt.Printf("  deadline   %d\n", rec.Deadline)
	if rec.State == settlement.StateDoneSwapped || rec.State == settlement.StateDoneNotSwapped {
		fmt.Printf("  sequence   %d\n", settlement.Sequence(acc.Data))
	}

	jnl, err := openJournal()
	if err != nil {
		return err
	}
	defer jnl.Close()

	events, err := jnl.History(pubkey)
	if err != nil {
		log.Printf("No journal history: %v", err)
		return nil
	}
	fmt.Println("history:")
	for _, ev := range events {
		fmt.Printf("  %s op=%d state=%d amount=%d seq=%d code=%d\n",
			ev.Time.Format("2006-01-02T15:04:05Z"), ev.Op, ev.State, ev.Amount, ev.Sequence, ev.Code)
	}
	return nil
}

// digest recomputes a stored message's content hash and the account address
// the bridge would post it under, flagging a key that does not bind to the
// stored bytes.
func digest(db *store.Store, key string) error {
	pubkey, err := types.PubkeyFromBase58(key)
	if err != nil {
		return fmt.Errorf("parse message key: %w", err)
	}

	acc, err := db.Get(pubkey)
	if err != nil {
		return err
	}
	msg := wormhole.Message(acc.Data)

	hash, err := msg.Digest()
	if err != nil {
		return err
	}
	derived, nonce, err := wormhole.FindMessageAddress(msg)
	if err != nil {
		return err
	}

	seq, _ := msg.Sequence()
	chain, _ := msg.ChainID()
	fmt.Printf("message %s\n", pubkey)
	fmt.Printf("  chain    %d\n", chain)
	fmt.Printf("  sequence %d\n", seq)
	fmt.Printf("  digest   %s\n", hex.EncodeToString(hash))
	fmt.Printf("  derived  %s (nonce %d)\n", derived, nonce)
	if !derived.Equals(pubkey) {
		fmt.Println("  stored key does not match the derived address")
	}
	return nil
}

// list prints the latest journaled event for every known record.
func list() error {
	jnl, err := openJournal()
	if err != nil {
		return err
	}
	defer jnl.Close()

	return jnl.Records(func(record types.Pubkey, latest journal.Event) error {
		fmt.Printf("%s  state=%d amount=%d seq=%d (%s)\n",
			record, latest.State, latest.Amount, latest.Sequence,
			latest.Time.Format("2006-01-02T15:04:05Z"))
		return nil
	})
}

// execute runs one settlement instruction against the stored accounts.
func execute(db *store.Store) error {
	if *programID == "" {
		return fmt.Errorf("-program is required for -execute")
	}
	progKey, err := types.PubkeyFromBase58(*programID)
	if err != nil {
		return fmt.Errorf("parse program id: %w", err)
	}

	data, err := hex.DecodeString(*execData)
	if err != nil {
		return fmt.Errorf("parse -ix-data: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("empty instruction data")
	}

	accounts, err := loadAccounts(db, *execAccs)
	if err != nil {
		return err
	}

	host := &localHost{accounts: accountsByKey(accounts)}
	ctx := runtime.NewContext(progKey, accounts, data, host)
	ctx.SetLogger(func(msg string) { log.Printf("program: %s", msg) })

	prog := settlement.New(settlement.DefaultConfig())
	execErr := prog.Execute(ctx)
	code := settlement.Code(execErr)
	if execErr != nil {
		log.Printf("Execution failed (code %d): %v", code, execErr)
	} else {
		log.Printf("Execution succeeded")
		for _, acc := range accounts {
			if err := db.SaveAccountInfo(acc); err != nil {
				return fmt.Errorf("persist account %s: %w", acc.Key, err)
			}
		}
	}

	journalOutcome(accounts, progKey, data[0], code)
	if execErr != nil {
		db.Close()
		os.Exit(1)
	}
	return nil
}

// journalOutcome appends one event for the record touched by the
// instruction. The record is the program-owned account carrying an
// initialized state; ownership keeps unrelated large accounts in the list
// from being mistaken for it.
func journalOutcome(accounts []*runtime.AccountInfo, progKey types.Pubkey, op uint8, code int) {
	var target *runtime.AccountInfo
	var rec *settlement.Record
	for _, acc := range accounts {
		if !acc.Owner.Equals(progKey) {
			continue
		}
		if settlement.StateOf(acc.Data) == settlement.StateNotInitialized {
			continue
		}
		decoded, err := settlement.DecodeRecord(acc.Data)
		if err != nil {
			continue
		}
		target, rec = acc, decoded
		break
	}
	if target == nil {
		return
	}

	jnl, err := openJournal()
	if err != nil {
		log.Printf("Journal unavailable: %v", err)
		return
	}
	defer jnl.Close()

	ev := journal.Event{
		Record: target.Key,
		Op:     op,
		State:  uint8(rec.State),
		Amount: rec.Amount,
		Code:   code,
	}
	if rec.State == settlement.StateDoneSwapped || rec.State == settlement.StateDoneNotSwapped {
		ev.Sequence = settlement.Sequence(target.Data)
	}
	if err := jnl.Append(ev); err != nil {
		log.Printf("Journal append failed: %v", err)
	}
}

// loadAccounts parses the -ix-accounts list and pulls each account from the
// store. A + prefix marks a signer, a * prefix marks writable; missing
// accounts materialize empty.
func loadAccounts(db *store.Store, list string) ([]*runtime.AccountInfo, error) {
	if list == "" {
		return nil, fmt.Errorf("-ix-accounts is required for -execute")
	}

	parts := strings.Split(list, ",")
	accounts := make([]*runtime.AccountInfo, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		var signer, writable bool
		for len(part) > 0 {
			if part[0] == '+' {
				signer = true
				part = part[1:]
				continue
			}
			if part[0] == '*' {
				writable = true
				part = part[1:]
				continue
			}
			break
		}

		pubkey, err := types.PubkeyFromBase58(part)
		if err != nil {
			return nil, fmt.Errorf("parse account %q: %w", part, err)
		}

		acc, err := db.LoadAccountInfo(pubkey)
		if err != nil {
			if !errors.Is(err, store.ErrAccountNotFound) {
				return nil, err
			}
			acc = &runtime.AccountInfo{Key: pubkey}
		}
		acc.IsSigner = signer
		acc.IsWritable = writable
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

func accountsByKey(accounts []*runtime.AccountInfo) map[types.Pubkey]*runtime.AccountInfo {
	m := make(map[types.Pubkey]*runtime.AccountInfo, len(accounts))
	for _, acc := range accounts {
		m[acc.Key] = acc
	}
	return m
}

// localHost applies sub-invocations the harness can satisfy without a live
// cluster: system create/transfer and token approve. Anything else needs
// real on-chain programs and fails with a clear message.
type localHost struct {
	accounts map[types.Pubkey]*runtime.AccountInfo
}

func (h *localHost) Invoke(ix *runtime.Instruction, _ [][][]byte) error {
	switch ix.ProgramID {
	case types.SystemProgramAddr:
		return h.system(ix)
	case types.TokenProgramAddr:
		return h.token(ix)
	default:
		return fmt.Errorf("program %s is not available offline", ix.ProgramID)
	}
}

func (h *localHost) account(key types.Pubkey) (*runtime.AccountInfo, error) {
	acc, ok := h.accounts[key]
	if !ok {
		return nil, fmt.Errorf("invoked account %s not supplied", key)
	}
	return acc, nil
}

func (h *localHost) system(ix *runtime.Instruction) error {
	if len(ix.Data) < 4 {
		return fmt.Errorf("short system instruction")
	}
	switch binary.LittleEndian.Uint32(ix.Data) {
	case 0: // create account
		if len(ix.Data) < 52 || len(ix.Accounts) < 2 {
			return fmt.Errorf("malformed create")
		}
		lamports := binary.LittleEndian.Uint64(ix.Data[4:])
		space := binary.LittleEndian.Uint64(ix.Data[12:])

		payer, err := h.account(ix.Accounts[0].Pubkey)
		if err != nil {
			return err
		}
		target, err := h.account(ix.Accounts[1].Pubkey)
		if err != nil {
			return err
		}
		if payer.Lamports < lamports {
			return fmt.Errorf("payer %s underfunded", payer.Key)
		}
		payer.Lamports -= lamports
		target.Lamports += lamports
		target.Data = make([]byte, space)
		copy(target.Owner[:], ix.Data[20:52])
		return nil

	case 2: // transfer
		if len(ix.Data) < 12 || len(ix.Accounts) < 2 {
			return fmt.Errorf("malformed transfer")
		}
		lamports := binary.LittleEndian.Uint64(ix.Data[4:])

		from, err := h.account(ix.Accounts[0].Pubkey)
		if err != nil {
			return err
		}
		to, err := h.account(ix.Accounts[1].Pubkey)
		if err != nil {
			return err
		}
		if from.Lamports < lamports {
			return fmt.Errorf("account %s underfunded", from.Key)
		}
		from.Lamports -= lamports
		to.Lamports += lamports
		return nil

	default:
		return fmt.Errorf("unsupported system instruction")
	}
}

func (h *localHost) token(ix *runtime.Instruction) error {
	if len(ix.Data) < 1 || ix.Data[0] != 4 {
		return fmt.Errorf("unsupported token instruction")
	}
	// Approve only moves delegation; balances are untouched.
	if len(ix.Accounts) < 3 {
		return fmt.Errorf("malformed approve")
	}
	_, err := h.account(ix.Accounts[0].Pubkey)
	return err
}
