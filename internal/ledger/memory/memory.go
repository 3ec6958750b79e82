// Package memory implements the ledger on plain in-memory collections guarded
// by a single mutex, matching the single-writer discipline: every mutating
// call, CommitSale included, runs start to finish under the write lock.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ghazistore/backend/internal/domain"
	"ghazistore/backend/internal/ledger"
	"ghazistore/backend/internal/rules"
	"ghazistore/backend/internal/xid"
)

type Store struct {
	mu         sync.RWMutex
	items      []domain.Item
	itemIndex  map[string]int
	sales      []domain.Sale
	recoveries []domain.Recovery
	expenses   []domain.Expense
}

func New() *Store {
	return &Store{
		itemIndex: make(map[string]int),
	}
}

// NewFromRecords builds a store preloaded with previously persisted
// collections. Records are kept in the given order; items with duplicate or
// empty ids or a negative quantity are dropped, as are recoveries and
// expenses without a positive amount, so a tampered snapshot cannot seed the
// store in an invariant-violating state.
func NewFromRecords(items []domain.Item, sales []domain.Sale, recoveries []domain.Recovery, expenses []domain.Expense) *Store {
	s := New()
	for _, item := range items {
		if item.ID == "" || item.Quantity < 0 {
			continue
		}
		if _, exists := s.itemIndex[item.ID]; exists {
			continue
		}
		s.itemIndex[item.ID] = len(s.items)
		s.items = append(s.items, item)
	}
	s.sales = append(s.sales, sales...)
	for _, rec := range recoveries {
		if rec.Amount.Sign() <= 0 {
			continue
		}
		s.recoveries = append(s.recoveries, rec)
	}
	for _, exp := range expenses {
		if exp.Amount.Sign() <= 0 {
			continue
		}
		s.expenses = append(s.expenses, exp)
	}
	return s
}

func (s *Store) ListItems(_ context.Context) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.Item, len(s.items))
	copy(items, s.items)
	slices.SortFunc(items, func(a, b domain.Item) int {
		if a.Name == b.Name {
			return cmpString(a.Batch, b.Batch)
		}
		return cmpString(a.Name, b.Name)
	})
	return items, nil
}

func (s *Store) GetItem(_ context.Context, id string) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.itemIndex[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	item := s.items[idx]
	return &item, nil
}

func (s *Store) SearchItems(_ context.Context, term string) ([]domain.Item, error) {
	needle := strings.ToLower(strings.TrimSpace(term))

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]domain.Item, 0)
	for _, item := range s.items {
		if needle == "" ||
			strings.Contains(strings.ToLower(item.Name), needle) ||
			strings.Contains(strings.ToLower(item.Batch), needle) {
			matches = append(matches, item)
		}
	}
	slices.SortFunc(matches, func(a, b domain.Item) int {
		if a.Name == b.Name {
			return cmpString(a.Batch, b.Batch)
		}
		return cmpString(a.Name, b.Name)
	})
	return matches, nil
}

func (s *Store) CreateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.Name == "" || item.Batch == "" || item.Quantity < 0 {
		return nil, &ledger.ValidationError{Field: "item", Reason: "invalid item record"}
	}
	if item.ID == "" {
		item.ID = xid.New("item")
	}
	if _, exists := s.itemIndex[item.ID]; exists {
		return nil, &ledger.ValidationError{Field: "id", Reason: "already exists"}
	}

	s.itemIndex[item.ID] = len(s.items)
	s.items = append(s.items, item)
	created := item
	return &created, nil
}

func (s *Store) RestockItem(_ context.Context, id string, qty int) (*domain.Item, error) {
	if qty < 1 {
		return nil, &ledger.ValidationError{Field: "quantity", Reason: "must be a positive number"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.itemIndex[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	s.items[idx].Quantity += qty
	updated := s.items[idx]
	return &updated, nil
}

// CommitSale runs both passes of the sale transaction under one lock:
// a read-only validation pass in line order, short-circuiting on the first
// failing line with the store untouched, then a commit pass that decrements
// stock and appends the immutable sale record.
func (s *Store) CommitSale(_ context.Context, sale domain.Sale, asOf time.Time) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(sale.Items) == 0 {
		return nil, ledger.ErrEmptyBill
	}

	// Validation pass. Requested quantities accumulate across lines that
	// reference the same item, so duplicates cannot slip past the stock check.
	requested := make(map[string]int, len(sale.Items))
	for _, line := range sale.Items {
		if line.Quantity < 1 {
			return nil, &ledger.ValidationError{Field: "quantity", Reason: "must be a positive integer"}
		}
		idx, ok := s.itemIndex[line.ItemID]
		if !ok {
			return nil, &ledger.StockError{
				ItemID:    line.ItemID,
				Name:      line.Name,
				Batch:     line.Batch,
				Available: 0,
				Requested: line.Quantity,
			}
		}
		live := s.items[idx]
		requested[line.ItemID] += line.Quantity
		if live.Quantity < requested[line.ItemID] {
			return nil, &ledger.StockError{
				ItemID:    live.ID,
				Name:      live.Name,
				Batch:     live.Batch,
				Available: live.Quantity,
				Requested: requested[line.ItemID],
			}
		}
		if rules.IsExpired(live, asOf) {
			return nil, &ledger.ExpiredStockError{
				ItemID:     live.ID,
				Name:       live.Name,
				Batch:      live.Batch,
				ExpiryDate: live.ExpiryDate,
			}
		}
	}

	// Commit pass.
	grandTotal := decimal.Zero
	for _, line := range sale.Items {
		idx := s.itemIndex[line.ItemID]
		s.items[idx].Quantity -= line.Quantity
		grandTotal = grandTotal.Add(line.Total)
	}

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.Date == "" {
		sale.Date = rules.DateOf(asOf)
	}
	sale.GrandTotal = grandTotal
	sale.Items = slices.Clone(sale.Items)

	s.sales = append(s.sales, sale)
	committed := cloneSale(sale)
	return &committed, nil
}

func (s *Store) ListSales(_ context.Context, from string, to string) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if !dateInRange(sale.Date, from, to) {
			continue
		}
		sales = append(sales, cloneSale(sale))
	}
	return sales, nil
}

func (s *Store) CreateRecovery(_ context.Context, rec domain.Recovery) (*domain.Recovery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Source == "" || rec.Amount.Sign() <= 0 {
		return nil, &ledger.ValidationError{Field: "recovery", Reason: "invalid recovery record"}
	}
	if rec.ID == "" {
		rec.ID = xid.New("rcv")
	}
	s.recoveries = append(s.recoveries, rec)
	created := rec
	return &created, nil
}

func (s *Store) ListRecoveries(_ context.Context, from string, to string) ([]domain.Recovery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recoveries := make([]domain.Recovery, 0, len(s.recoveries))
	for _, rec := range s.recoveries {
		if !dateInRange(rec.Date, from, to) {
			continue
		}
		recoveries = append(recoveries, rec)
	}
	return recoveries, nil
}

func (s *Store) CreateExpense(_ context.Context, exp domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if exp.Category == "" || exp.Amount.Sign() <= 0 {
		return nil, &ledger.ValidationError{Field: "expense", Reason: "invalid expense record"}
	}
	if exp.ID == "" {
		exp.ID = xid.New("exp")
	}
	s.expenses = append(s.expenses, exp)
	created := exp
	return &created, nil
}

func (s *Store) ListExpenses(_ context.Context, from string, to string) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]domain.Expense, 0, len(s.expenses))
	for _, exp := range s.expenses {
		if !dateInRange(exp.Date, from, to) {
			continue
		}
		expenses = append(expenses, exp)
	}
	return expenses, nil
}

// dateInRange relies on ISO date strings comparing correctly as plain
// strings. Empty bounds are unbounded.
func dateInRange(date string, from string, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}

func cloneSale(sale domain.Sale) domain.Sale {
	cloned := sale
	cloned.Items = slices.Clone(sale.Items)
	return cloned
}

func cmpString(a, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
