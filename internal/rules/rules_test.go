package rules

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ghazistore/backend/internal/domain"
	"ghazistore/backend/internal/ledger"
)

var asOf = time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)

func validItemRequest() domain.ItemCreateRequest {
	return domain.ItemCreateRequest{
		Name:          "Amoxicillin",
		Batch:         "B1",
		Quantity:      10,
		PurchasePrice: decimal.NewFromInt(30),
		SellingPrice:  decimal.NewFromInt(50),
		ExpiryDate:    "2099-01-01",
	}
}

func expectValidationError(t *testing.T, err error, field string) {
	t.Helper()
	var validationErr *ledger.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if validationErr.Field != field {
		t.Fatalf("expected validation error on %q, got %q", field, validationErr.Field)
	}
}

func TestNewItemRejectsMissingFields(t *testing.T) {
	req := validItemRequest()
	req.Name = "   "
	_, err := NewItem(req, asOf)
	expectValidationError(t, err, "name")

	req = validItemRequest()
	req.Batch = ""
	_, err = NewItem(req, asOf)
	expectValidationError(t, err, "batch")

	req = validItemRequest()
	req.ExpiryDate = ""
	_, err = NewItem(req, asOf)
	expectValidationError(t, err, "expiry_date")
}

func TestNewItemRejectsNonPositiveNumbers(t *testing.T) {
	req := validItemRequest()
	req.Quantity = 0
	_, err := NewItem(req, asOf)
	expectValidationError(t, err, "quantity")

	req = validItemRequest()
	req.PurchasePrice = decimal.Zero
	_, err = NewItem(req, asOf)
	expectValidationError(t, err, "purchase_price")

	req = validItemRequest()
	req.SellingPrice = decimal.NewFromInt(-5)
	_, err = NewItem(req, asOf)
	expectValidationError(t, err, "selling_price")
}

func TestNewItemRejectsPastExpiry(t *testing.T) {
	req := validItemRequest()
	req.ExpiryDate = "2024-05-09"
	_, err := NewItem(req, asOf)
	expectValidationError(t, err, "expiry_date")
}

func TestNewItemAcceptsExpiryToday(t *testing.T) {
	req := validItemRequest()
	req.ExpiryDate = "2024-05-10"
	item, err := NewItem(req, asOf)
	if err != nil {
		t.Fatalf("expected expiry on the current date to be accepted, got %v", err)
	}
	if item.ExpiryDate != "2024-05-10" {
		t.Fatalf("expected normalized expiry date, got %q", item.ExpiryDate)
	}
}

func TestNewItemNormalizes(t *testing.T) {
	req := validItemRequest()
	req.Name = "  Amoxicillin  "
	req.Batch = " B1 "

	item, err := NewItem(req, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ID == "" {
		t.Fatalf("expected a fresh id to be assigned")
	}
	if item.Name != "Amoxicillin" || item.Batch != "B1" {
		t.Fatalf("expected trimmed fields, got %q / %q", item.Name, item.Batch)
	}
	if item.Quantity != 10 {
		t.Fatalf("expected quantity 10, got %d", item.Quantity)
	}
}

func TestNewItemAssignsUniqueIDs(t *testing.T) {
	first, err := NewItem(validItemRequest(), asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NewItem(validItemRequest(), asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct ids, both were %q", first.ID)
	}
}

func TestIsExpired(t *testing.T) {
	item := domain.Item{ExpiryDate: "2024-05-09"}
	if !IsExpired(item, asOf) {
		t.Fatalf("expected item expired yesterday to be expired")
	}

	item.ExpiryDate = "2024-05-10"
	if IsExpired(item, asOf) {
		t.Fatalf("expected item expiring today to not be expired")
	}

	item.ExpiryDate = "2099-01-01"
	if IsExpired(item, asOf) {
		t.Fatalf("expected future expiry to not be expired")
	}
}

func TestNewRecoveryDefaultsDate(t *testing.T) {
	rec, err := NewRecovery(domain.RecoveryCreateRequest{
		Amount: decimal.NewFromInt(100),
		Source: "Khan Medical",
	}, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Date != "2024-05-10" {
		t.Fatalf("expected date to default to asOf, got %q", rec.Date)
	}
	if rec.ID == "" {
		t.Fatalf("expected a fresh id to be assigned")
	}
}

func TestNewRecoveryRejectsBadInput(t *testing.T) {
	_, err := NewRecovery(domain.RecoveryCreateRequest{Amount: decimal.NewFromInt(100)}, asOf)
	expectValidationError(t, err, "source")

	_, err = NewRecovery(domain.RecoveryCreateRequest{Amount: decimal.Zero, Source: "x"}, asOf)
	expectValidationError(t, err, "amount")

	_, err = NewRecovery(domain.RecoveryCreateRequest{Amount: decimal.NewFromInt(1), Source: "x", Date: "05/10/2024"}, asOf)
	expectValidationError(t, err, "date")
}

func TestNewExpenseRejectsBadInput(t *testing.T) {
	_, err := NewExpense(domain.ExpenseCreateRequest{Amount: decimal.NewFromInt(10)}, asOf)
	expectValidationError(t, err, "category")

	_, err = NewExpense(domain.ExpenseCreateRequest{Amount: decimal.NewFromInt(-1), Category: "rent"}, asOf)
	expectValidationError(t, err, "amount")
}

func TestNewExpenseNormalizes(t *testing.T) {
	exp, err := NewExpense(domain.ExpenseCreateRequest{
		Date:        "2024-05-01",
		Amount:      decimal.NewFromInt(50),
		Category:    " rent ",
		Description: " shop rent ",
	}, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp.Category != "rent" || exp.Description != "shop rent" {
		t.Fatalf("expected trimmed fields, got %q / %q", exp.Category, exp.Description)
	}
	if exp.Date != "2024-05-01" {
		t.Fatalf("expected given date kept, got %q", exp.Date)
	}
}
