package service

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"ghazistore/backend/internal/billing"
	"ghazistore/backend/internal/cache"
	"ghazistore/backend/internal/domain"
	"ghazistore/backend/internal/ledger"
	"ghazistore/backend/internal/persist"
	"ghazistore/backend/internal/report"
	"ghazistore/backend/internal/rules"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Saver persists the ledger collections after a successful mutation. Nil when
// the ledger is its own durable store.
type Saver interface {
	Save(c persist.Collections) error
}

const snapshotCacheKey = "snapshot:latest"

// Service turns display-surface intents into ledger operations. A single
// mutex serializes every mutating intent, bill edits included, which gives
// the single-logical-writer discipline the ledger requires.
type Service struct {
	mu          sync.Mutex
	ledger      ledger.Ledger
	saver       Saver
	cache       cache.SnapshotCache
	snapshotTTL time.Duration
	bill        domain.Bill
}

func New(lg ledger.Ledger, saver Saver, snapshotCache cache.SnapshotCache, snapshotTTL time.Duration) *Service {
	if snapshotCache == nil {
		snapshotCache = cache.NoopSnapshotCache{}
	}
	if snapshotTTL <= 0 {
		snapshotTTL = 15 * time.Second
	}
	return &Service{
		ledger:      lg,
		saver:       saver,
		cache:       snapshotCache,
		snapshotTTL: snapshotTTL,
	}
}

func (s *Service) ListItems(ctx context.Context) ([]domain.Item, error) {
	return s.ledger.ListItems(ctx)
}

func (s *Service) SearchItems(ctx context.Context, term string) ([]domain.Item, error) {
	if strings.TrimSpace(term) == "" {
		return s.ledger.ListItems(ctx)
	}
	return s.ledger.SearchItems(ctx, term)
}

func (s *Service) AddItem(ctx context.Context, req domain.ItemCreateRequest) (domain.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := rules.NewItem(req, time.Now().UTC())
	if err != nil {
		return domain.MutationResult{}, err
	}

	created, err := s.ledger.CreateItem(ctx, item)
	if err != nil {
		return domain.MutationResult{}, err
	}

	result, err := s.afterMutation(ctx, true)
	if err != nil {
		return domain.MutationResult{}, err
	}
	result.Item = created
	return result, nil
}

func (s *Service) RestockItem(ctx context.Context, itemID string, qty int) (domain.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.ledger.RestockItem(ctx, strings.TrimSpace(itemID), qty)
	if err != nil {
		return domain.MutationResult{}, err
	}

	result, err := s.afterMutation(ctx, true)
	if err != nil {
		return domain.MutationResult{}, err
	}
	result.Item = updated
	return result, nil
}

func (s *Service) CurrentBill() domain.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneBill(s.bill)
}

func (s *Service) AddBillLine(ctx context.Context, itemID string, qty int) (domain.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if qty == 0 {
		qty = 1
	}

	item, err := s.ledger.GetItem(ctx, strings.TrimSpace(itemID))
	if err != nil {
		return domain.MutationResult{}, err
	}
	if err := billing.AddLine(&s.bill, *item, qty); err != nil {
		return domain.MutationResult{}, err
	}

	return s.afterMutation(ctx, false)
}

func (s *Service) SetBillLineQuantity(ctx context.Context, itemID string, qty int) (domain.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := billing.SetLineQuantity(&s.bill, strings.TrimSpace(itemID), qty); err != nil {
		return domain.MutationResult{}, err
	}
	return s.afterMutation(ctx, false)
}

func (s *Service) RemoveBillLine(ctx context.Context, itemID string) (domain.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	billing.RemoveLine(&s.bill, strings.TrimSpace(itemID))
	return s.afterMutation(ctx, false)
}

// CommitSale drives the two-pass sale transaction. A rejection leaves both
// the ledger and the bill untouched so the caller can correct and resubmit.
func (s *Service) CommitSale(ctx context.Context) (domain.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	sale, err := billing.ProcessSale(ctx, s.ledger, &s.bill, rules.DateOf(now), now)
	if err != nil {
		return domain.MutationResult{}, err
	}

	if actor, ok := ActorFromContext(ctx); ok {
		log.Printf("[service] sale committed id=%s total=%s by=%s", sale.ID, sale.GrandTotal.String(), actor.Subject)
	} else {
		log.Printf("[service] sale committed id=%s total=%s", sale.ID, sale.GrandTotal.String())
	}

	result, err := s.afterMutation(ctx, true)
	if err != nil {
		return domain.MutationResult{}, err
	}
	result.Sale = sale
	return result, nil
}

func (s *Service) AddRecovery(ctx context.Context, req domain.RecoveryCreateRequest) (domain.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := rules.NewRecovery(req, time.Now().UTC())
	if err != nil {
		return domain.MutationResult{}, err
	}
	created, err := s.ledger.CreateRecovery(ctx, rec)
	if err != nil {
		return domain.MutationResult{}, err
	}

	result, err := s.afterMutation(ctx, true)
	if err != nil {
		return domain.MutationResult{}, err
	}
	result.Recovery = created
	return result, nil
}

func (s *Service) AddExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, err := rules.NewExpense(req, time.Now().UTC())
	if err != nil {
		return domain.MutationResult{}, err
	}
	created, err := s.ledger.CreateExpense(ctx, exp)
	if err != nil {
		return domain.MutationResult{}, err
	}

	result, err := s.afterMutation(ctx, true)
	if err != nil {
		return domain.MutationResult{}, err
	}
	result.Expense = created
	return result, nil
}

func (s *Service) ListRecoveries(ctx context.Context) ([]domain.Recovery, error) {
	return s.ledger.ListRecoveries(ctx, "", "")
}

func (s *Service) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	return s.ledger.ListExpenses(ctx, "", "")
}

func (s *Service) DailyReport(ctx context.Context, date string) (domain.DailySummary, error) {
	return report.Daily(ctx, s.ledger, date)
}

func (s *Service) RangeReport(ctx context.Context, start string, end string) (domain.RangeReport, error) {
	return report.Range(ctx, s.ledger, start, end)
}

// Snapshot returns the full display-surface state, served from the cache when
// fresh.
func (s *Service) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	cached, found, err := s.cache.Get(ctx, snapshotCacheKey)
	if err != nil {
		log.Printf("[service] WARN: snapshot cache read failed: %v", err)
	}
	if found && cached != nil {
		return *cached, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.buildSnapshot(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if err := s.cache.Set(ctx, snapshotCacheKey, &snapshot, s.snapshotTTL); err != nil {
		log.Printf("[service] WARN: snapshot cache write failed: %v", err)
	}
	return snapshot, nil
}

// afterMutation rebuilds the snapshot, refreshes the cache and, for ledger
// mutations, saves the collections. A save failure does not roll anything
// back; it comes back as a distinct warning on the result. Callers hold s.mu.
func (s *Service) afterMutation(ctx context.Context, persistLedger bool) (domain.MutationResult, error) {
	snapshot, err := s.buildSnapshot(ctx)
	if err != nil {
		return domain.MutationResult{}, err
	}

	warning := ""
	if persistLedger && s.saver != nil {
		err := s.saver.Save(persist.Collections{
			Items:      snapshot.Items,
			Sales:      snapshot.Sales,
			Recoveries: snapshot.Recoveries,
			Expenses:   snapshot.Expenses,
		})
		if err != nil {
			log.Printf("[service] WARN: ledger snapshot save failed: %v", err)
			warning = "change committed but saving the ledger snapshot failed"
		}
	}

	if err := s.cache.Set(ctx, snapshotCacheKey, &snapshot, s.snapshotTTL); err != nil {
		log.Printf("[service] WARN: snapshot cache write failed: %v", err)
	}

	return domain.MutationResult{Snapshot: snapshot, PersistWarning: warning}, nil
}

// buildSnapshot reads all four collections plus the current bill. Callers
// hold s.mu.
func (s *Service) buildSnapshot(ctx context.Context) (domain.Snapshot, error) {
	items, err := s.ledger.ListItems(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	sales, err := s.ledger.ListSales(ctx, "", "")
	if err != nil {
		return domain.Snapshot{}, err
	}
	recoveries, err := s.ledger.ListRecoveries(ctx, "", "")
	if err != nil {
		return domain.Snapshot{}, err
	}
	expenses, err := s.ledger.ListExpenses(ctx, "", "")
	if err != nil {
		return domain.Snapshot{}, err
	}

	return domain.Snapshot{
		Items:       items,
		Sales:       sales,
		Recoveries:  recoveries,
		Expenses:    expenses,
		CurrentBill: cloneBill(s.bill),
	}, nil
}

func cloneBill(bill domain.Bill) domain.Bill {
	lines := make([]domain.BillLine, len(bill.Lines))
	copy(lines, bill.Lines)
	return domain.Bill{Lines: lines}
}
