// Package billing assembles in-progress bills and drives the sale commit.
// A bill is a draft: adding lines never touches ledger stock; stock is only
// checked and committed inside ProcessSale.
package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ghazistore/backend/internal/domain"
	"ghazistore/backend/internal/ledger"
	"ghazistore/backend/internal/xid"
)

// AddLine adds qty units of the item to the bill. Repeated additions of the
// same item accumulate into one line; name, batch, expiry and unit price are
// snapshotted from the item at first addition.
func AddLine(bill *domain.Bill, item domain.Item, qty int) error {
	if qty < 1 {
		return &ledger.ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}

	for i := range bill.Lines {
		if bill.Lines[i].ItemID != item.ID {
			continue
		}
		bill.Lines[i].SoldQuantity += qty
		bill.Lines[i].Total = lineTotal(bill.Lines[i].UnitPrice, bill.Lines[i].SoldQuantity)
		return nil
	}

	bill.Lines = append(bill.Lines, domain.BillLine{
		ItemID:       item.ID,
		Name:         item.Name,
		Batch:        item.Batch,
		ExpiryDate:   item.ExpiryDate,
		UnitPrice:    item.SellingPrice,
		SoldQuantity: qty,
		Total:        lineTotal(item.SellingPrice, qty),
	})
	return nil
}

// SetLineQuantity replaces the sold quantity of an existing line and
// recomputes its total.
func SetLineQuantity(bill *domain.Bill, itemID string, qty int) error {
	if qty < 1 {
		return &ledger.ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}

	for i := range bill.Lines {
		if bill.Lines[i].ItemID != itemID {
			continue
		}
		bill.Lines[i].SoldQuantity = qty
		bill.Lines[i].Total = lineTotal(bill.Lines[i].UnitPrice, qty)
		return nil
	}
	return ledger.ErrNotFound
}

// RemoveLine removes the line for itemID; it is a no-op when absent.
func RemoveLine(bill *domain.Bill, itemID string) {
	for i := range bill.Lines {
		if bill.Lines[i].ItemID == itemID {
			bill.Lines = append(bill.Lines[:i], bill.Lines[i+1:]...)
			return
		}
	}
}

// GrandTotal sums the snapshotted line totals.
func GrandTotal(bill domain.Bill) decimal.Decimal {
	total := decimal.Zero
	for _, line := range bill.Lines {
		total = total.Add(line.Total)
	}
	return total
}

// ProcessSale commits the bill against the ledger. The candidate sale carries
// the bill's snapshotted lines and totals; the ledger validates them against
// live stock and either rejects with the store untouched or commits. On
// success the bill is cleared. A rejected bill is left intact so the caller
// can correct and resubmit it.
func ProcessSale(ctx context.Context, lg ledger.Ledger, bill *domain.Bill, date string, asOf time.Time) (*domain.Sale, error) {
	if len(bill.Lines) == 0 {
		return nil, ledger.ErrEmptyBill
	}

	items := make([]domain.SaleItem, 0, len(bill.Lines))
	for _, line := range bill.Lines {
		items = append(items, domain.SaleItem{
			ItemID:    line.ItemID,
			Name:      line.Name,
			Batch:     line.Batch,
			Quantity:  line.SoldQuantity,
			UnitPrice: line.UnitPrice,
			Total:     line.Total,
		})
	}

	candidate := domain.Sale{
		ID:         xid.New("sale"),
		Date:       date,
		Items:      items,
		GrandTotal: GrandTotal(*bill),
	}

	committed, err := lg.CommitSale(ctx, candidate, asOf)
	if err != nil {
		return nil, err
	}

	bill.Lines = nil
	return committed, nil
}

func lineTotal(unitPrice decimal.Decimal, qty int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(qty)))
}
