package vault

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

var prefixAccount = []byte("acct/") // acct/<addr(20)> -> amount(32)

// ErrForeignBatch is returned when a batch does not share the ledger's root.
var ErrForeignBatch = errors.New("batch does not share the ledger's database")

// Ledger keeps account balances on the node and receives withdrawals.
// It implements Payout.
type Ledger struct {
	mu sync.Mutex
	db storage.DB
}

// AccountBalance pairs an account with its balance.
type AccountBalance struct {
	Address types.Address `json:"address"`
	Balance types.Amount  `json:"balance"`
}

// NewLedger creates an account ledger over db.
func NewLedger(db storage.DB) *Ledger {
	return &Ledger{db: db}
}

// Balance returns the balance of addr.
func (l *Ledger) Balance(addr types.Address) (types.Amount, error) {
	data, err := l.db.Get(accountKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return types.Amount{}, nil
	}
	if err != nil {
		return types.Amount{}, fmt.Errorf("ledger get: %w", err)
	}
	return types.AmountFromBytes(data)
}

// Pay credits amount to to.
func (l *Ledger) Pay(to types.Address, amount types.Amount) error {
	if to.IsZero() {
		return fmt.Errorf("ledger pay: zero recipient")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	bal, err := l.Balance(to)
	if err != nil {
		return err
	}
	sum, ok := bal.Add(amount)
	if !ok {
		return fmt.Errorf("ledger pay: balance overflow for %s", to)
	}
	if err := l.db.Put(accountKey(to), sum.Bytes()); err != nil {
		return fmt.Errorf("ledger put: %w", err)
	}
	return nil
}

// StagePay stages the credit of amount to to into w, which must be a
// batch sharing the ledger's root. Credits to one account must not be
// staged concurrently; CommitPay serializes them.
func (l *Ledger) StagePay(w storage.Writer, to types.Address, amount types.Amount) error {
	if to.IsZero() {
		return fmt.Errorf("ledger pay: zero recipient")
	}
	lw, ok := storage.Within(w, l.db)
	if !ok {
		return ErrForeignBatch
	}
	bal, err := l.Balance(to)
	if err != nil {
		return err
	}
	sum, ok := bal.Add(amount)
	if !ok {
		return fmt.Errorf("ledger pay: balance overflow for %s", to)
	}
	if err := lw.Put(accountKey(to), sum.Bytes()); err != nil {
		return fmt.Errorf("ledger put: %w", err)
	}
	return nil
}

// CommitPay stages the credit into b and commits b with everything it
// already holds.
func (l *Ledger) CommitPay(b storage.Batch, to types.Address, amount types.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.StagePay(b, to, amount); err != nil {
		return err
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("ledger commit: %w", err)
	}
	return nil
}

// Accounts returns every account with a recorded balance.
func (l *Ledger) Accounts() ([]AccountBalance, error) {
	out := []AccountBalance{}
	err := l.db.ForEach(prefixAccount, func(key, value []byte) error {
		if len(key) != len(prefixAccount)+types.AddressSize {
			return nil // Malformed key, skip.
		}
		amt, err := types.AmountFromBytes(value)
		if err != nil {
			return nil
		}
		var addr types.Address
		copy(addr[:], key[len(prefixAccount):])
		out = append(out, AccountBalance{Address: addr, Balance: amt})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ledger scan: %w", err)
	}
	return out, nil
}

func accountKey(addr types.Address) []byte {
	key := make([]byte, 0, len(prefixAccount)+types.AddressSize)
	key = append(key, prefixAccount...)
	return append(key, addr[:]...)
}
