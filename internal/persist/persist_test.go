package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"ghazistore/backend/internal/domain"
)

func TestLoadMissingFileDegradesToEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	loaded := store.Load()
	if loaded.Items == nil || loaded.Sales == nil || loaded.Recoveries == nil || loaded.Expenses == nil {
		t.Fatalf("expected empty non-nil collections, got %+v", loaded)
	}
	if len(loaded.Items)+len(loaded.Sales)+len(loaded.Recoveries)+len(loaded.Expenses) != 0 {
		t.Fatalf("expected all collections empty")
	}
}

func TestLoadMalformedFileDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write fixture failed: %v", err)
	}

	loaded := NewFileStore(path).Load()
	if len(loaded.Items) != 0 || len(loaded.Sales) != 0 {
		t.Fatalf("expected malformed file to degrade to empty collections")
	}
}

func TestLoadMalformedCollectionKeepsOthers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	payload := `{
		"items": "this is not a list",
		"expenses": [{"id":"exp-1","date":"2024-05-10","amount":"50","category":"rent"}]
	}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write fixture failed: %v", err)
	}

	loaded := NewFileStore(path).Load()
	if len(loaded.Items) != 0 {
		t.Fatalf("expected malformed items collection to degrade to empty, got %d", len(loaded.Items))
	}
	if len(loaded.Expenses) != 1 || loaded.Expenses[0].ID != "exp-1" {
		t.Fatalf("expected intact expenses collection to survive, got %+v", loaded.Expenses)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	store := NewFileStore(path)

	saved := Collections{
		Items: []domain.Item{{
			ID:            "item-1",
			Name:          "Amoxicillin",
			Batch:         "B1",
			Quantity:      10,
			PurchasePrice: decimal.NewFromInt(30),
			SellingPrice:  decimal.NewFromInt(50),
			ExpiryDate:    "2099-01-01",
		}},
		Sales:      []domain.Sale{},
		Recoveries: []domain.Recovery{{ID: "rcv-1", Date: "2024-05-10", Amount: decimal.NewFromInt(100), Source: "Khan Medical"}},
		Expenses:   []domain.Expense{},
	}
	if err := store.Save(saved); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded := store.Load()
	if len(loaded.Items) != 1 || loaded.Items[0].Name != "Amoxicillin" {
		t.Fatalf("expected saved item back, got %+v", loaded.Items)
	}
	if loaded.Items[0].Quantity != 10 || !loaded.Items[0].SellingPrice.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected item fields to survive the round trip, got %+v", loaded.Items[0])
	}
	if len(loaded.Recoveries) != 1 || loaded.Recoveries[0].Source != "Khan Medical" {
		t.Fatalf("expected saved recovery back, got %+v", loaded.Recoveries)
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	store := NewFileStore(path)

	if err := store.Save(Collections{Expenses: []domain.Expense{{ID: "exp-1", Date: "2024-05-10", Amount: decimal.NewFromInt(1), Category: "rent"}}}); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := store.Save(Collections{Expenses: []domain.Expense{}}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	loaded := store.Load()
	if len(loaded.Expenses) != 0 {
		t.Fatalf("expected later snapshot to win, got %+v", loaded.Expenses)
	}
}
