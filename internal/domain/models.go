package domain

import "github.com/shopspring/decimal"

// Dates are exchanged as ISO calendar-date strings (YYYY-MM-DD) with no
// time-of-day component.

type Item struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Batch         string          `json:"batch"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	ExpiryDate    string          `json:"expiry_date"`
}

type ItemCreateRequest struct {
	Name          string          `json:"name"`
	Batch         string          `json:"batch"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	ExpiryDate    string          `json:"expiry_date"`
}

type RestockRequest struct {
	Quantity int `json:"quantity"`
}

type BillLineAddRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type BillLineUpdateRequest struct {
	Quantity int `json:"quantity"`
}

// BillLine is scoped to one in-progress sale. Name, batch, expiry and unit
// price are snapshots taken when the line was added; later item edits do not
// flow back into the line.
type BillLine struct {
	ItemID       string          `json:"item_id"`
	Name         string          `json:"name"`
	Batch        string          `json:"batch"`
	ExpiryDate   string          `json:"expiry_date"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	SoldQuantity int             `json:"sold_quantity"`
	Total        decimal.Decimal `json:"total"`
}

type Bill struct {
	Lines []BillLine `json:"lines"`
}

type SaleItem struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	Batch     string          `json:"batch"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// Sale is immutable once created; its item records are snapshots immune to
// later item edits.
type Sale struct {
	ID         string          `json:"id"`
	Date       string          `json:"date"`
	Items      []SaleItem      `json:"items"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

type Recovery struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Source      string          `json:"source"`
	Description string          `json:"description,omitempty"`
}

type RecoveryCreateRequest struct {
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Source      string          `json:"source"`
	Description string          `json:"description"`
}

type Expense struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
}

type ExpenseCreateRequest struct {
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

// Snapshot is what the display surface renders after every mutation.
type Snapshot struct {
	Items       []Item     `json:"items"`
	Sales       []Sale     `json:"sales"`
	Recoveries  []Recovery `json:"recoveries"`
	Expenses    []Expense  `json:"expenses"`
	CurrentBill Bill       `json:"current_bill"`
}

// MutationResult is returned by every store-mutating intent. PersistWarning
// is set when the post-commit save failed; the mutation itself stands.
type MutationResult struct {
	Snapshot       Snapshot  `json:"snapshot"`
	Item           *Item     `json:"item,omitempty"`
	Sale           *Sale     `json:"sale,omitempty"`
	Recovery       *Recovery `json:"recovery,omitempty"`
	Expense        *Expense  `json:"expense,omitempty"`
	PersistWarning string    `json:"persist_warning,omitempty"`
}

type DailySummary struct {
	Date            string          `json:"date"`
	SaleCount       int             `json:"sale_count"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalRecoveries decimal.Decimal `json:"total_recoveries"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	NetProfit       decimal.Decimal `json:"net_profit"`
}

type RangeReport struct {
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	Sales           []Sale          `json:"sales"`
	Recoveries      []Recovery      `json:"recoveries"`
	Expenses        []Expense       `json:"expenses"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalRecoveries decimal.Decimal `json:"total_recoveries"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
}

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Subject string
}
