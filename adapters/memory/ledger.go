package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/openescrow/core"
)

// Ledger is an in-memory fungible-token contract with ERC-20 balance and
// allowance semantics.
type Ledger struct {
	mu         sync.Mutex
	address    core.Address
	balances   map[core.Address]decimal.Decimal
	allowances map[core.Address]map[core.Address]decimal.Decimal // owner -> spender -> remaining
}

// NewLedger creates an empty ledger deployed at address.
func NewLedger(address core.Address) *Ledger {
	return &Ledger{
		address:    address,
		balances:   make(map[core.Address]decimal.Decimal),
		allowances: make(map[core.Address]map[core.Address]decimal.Decimal),
	}
}

// Address returns the contract address of the ledger.
func (l *Ledger) Address() core.Address {
	return l.address
}

// Mint credits amount to account.
func (l *Ledger) Mint(account core.Address, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[account] = l.balances[account].Add(amount)
	return nil
}

// Approve sets the amount spender may move out of owner's balance.
func (l *Ledger) Approve(owner, spender core.Address, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[core.Address]decimal.Decimal)
	}
	l.allowances[owner][spender] = amount
	return nil
}

// Allowance returns what spender may still move out of owner's balance.
func (l *Ledger) Allowance(_ context.Context, owner, spender core.Address) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[owner][spender], nil
}

func (l *Ledger) BalanceOf(_ context.Context, account core.Address) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account], nil
}

func (l *Ledger) Transfer(_ context.Context, from, to core.Address, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

func (l *Ledger) TransferFrom(_ context.Context, spender, from, to core.Address, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	allowance := l.allowances[from][spender]
	if allowance.LessThan(amount) {
		return fmt.Errorf("%w: %s may spend %s of %s, requested %s", ErrInsufficientAllowance, spender, allowance, from, amount)
	}
	if err := l.move(from, to, amount); err != nil {
		return err
	}
	if spenders := l.allowances[from]; spenders != nil {
		spenders[spender] = allowance.Sub(amount)
	}
	return nil
}

// move must be called with l.mu held.
func (l *Ledger) move(from, to core.Address, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if to.IsZero() {
		return ErrInvalidRecipient
	}
	balance := l.balances[from]
	if balance.LessThan(amount) {
		return fmt.Errorf("%w: %s holds %s, requested %s", ErrInsufficientBalance, from, balance, amount)
	}
	l.balances[from] = balance.Sub(amount)
	l.balances[to] = l.balances[to].Add(amount)
	return nil
}
