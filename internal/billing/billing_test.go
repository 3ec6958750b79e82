package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ghazistore/backend/internal/domain"
	"ghazistore/backend/internal/ledger"
	"ghazistore/backend/internal/ledger/memory"
)

func testItem() domain.Item {
	return domain.Item{
		ID:            "item-1",
		Name:          "Amoxicillin",
		Batch:         "B1",
		Quantity:      10,
		PurchasePrice: decimal.NewFromInt(30),
		SellingPrice:  decimal.NewFromInt(50),
		ExpiryDate:    "2099-01-01",
	}
}

func TestAddLineAccumulates(t *testing.T) {
	var bill domain.Bill
	item := testItem()

	if err := AddLine(&bill, item, 1); err != nil {
		t.Fatalf("add line failed: %v", err)
	}
	if err := AddLine(&bill, item, 2); err != nil {
		t.Fatalf("add line failed: %v", err)
	}

	if len(bill.Lines) != 1 {
		t.Fatalf("expected one accumulated line, got %d", len(bill.Lines))
	}
	line := bill.Lines[0]
	if line.SoldQuantity != 3 {
		t.Fatalf("expected sold quantity 3, got %d", line.SoldQuantity)
	}
	if !line.Total.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected total 150, got %s", line.Total)
	}
}

func TestAddLineSnapshotsItemFields(t *testing.T) {
	var bill domain.Bill
	item := testItem()
	if err := AddLine(&bill, item, 1); err != nil {
		t.Fatalf("add line failed: %v", err)
	}

	item.Name = "Renamed"
	item.SellingPrice = decimal.NewFromInt(999)

	line := bill.Lines[0]
	if line.Name != "Amoxicillin" || !line.UnitPrice.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected snapshotted name and unit price, got %q / %s", line.Name, line.UnitPrice)
	}
}

func TestAddLineRejectsNonPositiveQuantity(t *testing.T) {
	var bill domain.Bill
	err := AddLine(&bill, testItem(), 0)
	var validationErr *ledger.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(bill.Lines) != 0 {
		t.Fatalf("expected bill untouched")
	}
}

func TestSetLineQuantity(t *testing.T) {
	var bill domain.Bill
	if err := AddLine(&bill, testItem(), 1); err != nil {
		t.Fatalf("add line failed: %v", err)
	}

	if err := SetLineQuantity(&bill, "item-1", 4); err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	if bill.Lines[0].SoldQuantity != 4 || !bill.Lines[0].Total.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected quantity 4 and total 200, got %d / %s", bill.Lines[0].SoldQuantity, bill.Lines[0].Total)
	}

	var validationErr *ledger.ValidationError
	if err := SetLineQuantity(&bill, "item-1", 0); !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
	if err := SetLineQuantity(&bill, "missing", 2); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected not found for absent line, got %v", err)
	}
}

func TestRemoveLineNoopWhenAbsent(t *testing.T) {
	var bill domain.Bill
	if err := AddLine(&bill, testItem(), 1); err != nil {
		t.Fatalf("add line failed: %v", err)
	}

	RemoveLine(&bill, "missing")
	if len(bill.Lines) != 1 {
		t.Fatalf("expected remove of absent line to be a no-op")
	}

	RemoveLine(&bill, "item-1")
	if len(bill.Lines) != 0 {
		t.Fatalf("expected line removed")
	}
}

func TestProcessSaleEmptyBill(t *testing.T) {
	var bill domain.Bill
	_, err := ProcessSale(context.Background(), nil, &bill, "2024-05-10", time.Now().UTC())
	if !errors.Is(err, ledger.ErrEmptyBill) {
		t.Fatalf("expected empty bill error, got %v", err)
	}
}

func TestProcessSaleCommitsAndClearsBill(t *testing.T) {
	lg := memory.NewFromRecords([]domain.Item{testItem()}, nil, nil, nil)
	var bill domain.Bill
	if err := AddLine(&bill, testItem(), 5); err != nil {
		t.Fatalf("add line failed: %v", err)
	}

	sale, err := ProcessSale(context.Background(), lg, &bill, "2024-05-10", time.Now().UTC())
	if err != nil {
		t.Fatalf("process sale failed: %v", err)
	}
	if !sale.GrandTotal.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("expected grand total 250, got %s", sale.GrandTotal)
	}
	if len(bill.Lines) != 0 {
		t.Fatalf("expected bill cleared after commit")
	}

	live, err := lg.GetItem(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if live.Quantity != 5 {
		t.Fatalf("expected stock decremented to 5, got %d", live.Quantity)
	}
}

func TestProcessSaleRejectionKeepsBill(t *testing.T) {
	lg := memory.NewFromRecords([]domain.Item{testItem()}, nil, nil, nil)
	var bill domain.Bill
	if err := AddLine(&bill, testItem(), 12); err != nil {
		t.Fatalf("add line failed: %v", err)
	}

	_, err := ProcessSale(context.Background(), lg, &bill, "2024-05-10", time.Now().UTC())
	var stockErr *ledger.StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected stock error, got %v", err)
	}
	if len(bill.Lines) != 1 {
		t.Fatalf("expected rejected bill to stay intact")
	}
}
