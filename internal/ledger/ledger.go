package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ghazistore/backend/internal/domain"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrEmptyBill = errors.New("bill has no lines")
)

// ValidationError reports malformed, missing or out-of-range input. The
// caller can retry with corrected input; nothing was mutated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// StockError reports insufficient live quantity at commit time. It is also
// raised when the referenced item no longer exists (Available is 0).
type StockError struct {
	ItemID    string
	Name      string
	Batch     string
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("not enough stock for %s (batch %s): available %d, requested %d",
		e.Name, e.Batch, e.Available, e.Requested)
}

// ExpiredStockError reports an attempted sale of expired stock.
type ExpiredStockError struct {
	ItemID     string
	Name       string
	Batch      string
	ExpiryDate string
}

func (e *ExpiredStockError) Error() string {
	return fmt.Sprintf("cannot sell expired stock %s (batch %s): expired on %s",
		e.Name, e.Batch, e.ExpiryDate)
}

// Ledger owns the four record collections. Items are never deleted, only
// quantity-adjusted. List filters take inclusive YYYY-MM-DD bounds; empty
// bounds mean unbounded.
//
// CommitSale is the transactional heart: it validates the candidate sale
// line-by-line against live items (existence, stock sufficiency, expiry as of
// asOf) and, only if every line passes, decrements stock and appends the sale.
// Lines referencing the same item are checked against their cumulative
// requested quantity, so a committed sale can never take stock below zero.
// Validation failures are short-circuit and leave the ledger untouched. Both
// passes run under exclusive access; no live quantity is re-read between them.
type Ledger interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	SearchItems(ctx context.Context, term string) ([]domain.Item, error)
	CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	RestockItem(ctx context.Context, id string, qty int) (*domain.Item, error)

	CommitSale(ctx context.Context, sale domain.Sale, asOf time.Time) (*domain.Sale, error)
	ListSales(ctx context.Context, from string, to string) ([]domain.Sale, error)

	CreateRecovery(ctx context.Context, rec domain.Recovery) (*domain.Recovery, error)
	ListRecoveries(ctx context.Context, from string, to string) ([]domain.Recovery, error)

	CreateExpense(ctx context.Context, exp domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context, from string, to string) ([]domain.Expense, error)
}
