// Package postgres implements the ledger on PostgreSQL via database/sql and
// the pgx stdlib driver. CommitSale runs a serializable transaction with row
// locks so both passes of the sale commit observe one consistent snapshot.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"ghazistore/backend/internal/domain"
	"ghazistore/backend/internal/ledger"
	"ghazistore/backend/internal/rules"
	"ghazistore/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, batch, quantity, purchase_price, selling_price, expiry_date
		FROM items
		ORDER BY name, batch
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

func (s *Store) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	var item domain.Item
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, batch, quantity, purchase_price, selling_price, expiry_date
		FROM items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.Batch, &item.Quantity, &item.PurchasePrice, &item.SellingPrice, &item.ExpiryDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) SearchItems(ctx context.Context, term string) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, batch, quantity, purchase_price, selling_price, expiry_date
		FROM items
		WHERE name ILIKE '%' || $1 || '%' OR batch ILIKE '%' || $1 || '%'
		ORDER BY name, batch
	`, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

func (s *Store) CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if item.Name == "" || item.Batch == "" || item.Quantity < 0 {
		return nil, &ledger.ValidationError{Field: "item", Reason: "invalid item record"}
	}
	if item.ID == "" {
		item.ID = xid.New("item")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, name, batch, quantity, purchase_price, selling_price, expiry_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now())
	`, item.ID, item.Name, item.Batch, item.Quantity, item.PurchasePrice, item.SellingPrice, item.ExpiryDate)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &ledger.ValidationError{Field: "id", Reason: "already exists"}
		}
		return nil, err
	}

	created := item
	return &created, nil
}

func (s *Store) RestockItem(ctx context.Context, id string, qty int) (*domain.Item, error) {
	if qty < 1 {
		return nil, &ledger.ValidationError{Field: "quantity", Reason: "must be a positive number"}
	}

	var item domain.Item
	err := s.db.QueryRowContext(ctx, `
		UPDATE items
		SET quantity = quantity + $2
		WHERE id = $1
		RETURNING id, name, batch, quantity, purchase_price, selling_price, expiry_date
	`, id, qty).Scan(&item.ID, &item.Name, &item.Batch, &item.Quantity, &item.PurchasePrice, &item.SellingPrice, &item.ExpiryDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) CommitSale(ctx context.Context, sale domain.Sale, asOf time.Time) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, ledger.ErrEmptyBill
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	ids := uniqueItemIDs(sale.Items)
	itemRows, err := pgTx.QueryContext(ctx, `
		SELECT id, name, batch, quantity, expiry_date
		FROM items
		WHERE id = ANY($1)
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, err
	}
	liveByID := make(map[string]domain.Item, len(ids))
	for itemRows.Next() {
		var item domain.Item
		if err := itemRows.Scan(&item.ID, &item.Name, &item.Batch, &item.Quantity, &item.ExpiryDate); err != nil {
			_ = itemRows.Close()
			return nil, err
		}
		liveByID[item.ID] = item
	}
	if err := itemRows.Err(); err != nil {
		_ = itemRows.Close()
		return nil, err
	}
	_ = itemRows.Close()

	// Validation pass, in line order, short-circuit on the first failure.
	// Requested quantities accumulate across lines that reference the same
	// item, so duplicates cannot slip past the stock check.
	grandTotal := decimal.Zero
	requested := make(map[string]int, len(sale.Items))
	for _, line := range sale.Items {
		if line.Quantity < 1 {
			return nil, &ledger.ValidationError{Field: "quantity", Reason: "must be a positive integer"}
		}
		live, exists := liveByID[line.ItemID]
		if !exists {
			return nil, &ledger.StockError{
				ItemID:    line.ItemID,
				Name:      line.Name,
				Batch:     line.Batch,
				Available: 0,
				Requested: line.Quantity,
			}
		}
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
		grandTotal = grandTotal.Add(line.Total)
	}

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.Date == "" {
		sale.Date = rules.DateOf(asOf)
	}
	sale.GrandTotal = grandTotal

	// Commit pass.
	for _, line := range sale.Items {
		if _, err := pgTx.ExecContext(ctx, `
			UPDATE items SET quantity = quantity - $2 WHERE id = $1
		`, line.ItemID, line.Quantity); err != nil {
			return nil, err
		}
	}

	if _, err := pgTx.ExecContext(ctx, `
		INSERT INTO sales (id, sale_date, grand_total, created_at)
		VALUES ($1,$2,$3,now())
	`, sale.ID, sale.Date, sale.GrandTotal); err != nil {
		return nil, err
	}
	for lineNo, line := range sale.Items {
		if _, err := pgTx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, line_no, item_id, name, batch, quantity, unit_price, total)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, sale.ID, lineNo, line.ItemID, line.Name, line.Batch, line.Quantity, line.UnitPrice, line.Total); err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	committed := sale
	return &committed, nil
}

func (s *Store) ListSales(ctx context.Context, from string, to string) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sale_date, grand_total
		FROM sales
		WHERE ($1 = '' OR sale_date >= $1) AND ($2 = '' OR sale_date <= $2)
		ORDER BY created_at
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.Date, &sale.GrandTotal); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sales {
		items, err := s.listSaleItems(ctx, sales[i].ID)
		if err != nil {
			return nil, err
		}
		sales[i].Items = items
	}
	return sales, nil
}

func (s *Store) listSaleItems(ctx context.Context, saleID string) ([]domain.SaleItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, name, batch, quantity, unit_price, total
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY line_no
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.SaleItem, 0, 8)
	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.ItemID, &item.Name, &item.Batch, &item.Quantity, &item.UnitPrice, &item.Total); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) CreateRecovery(ctx context.Context, rec domain.Recovery) (*domain.Recovery, error) {
	if rec.Source == "" || rec.Amount.Sign() <= 0 {
		return nil, &ledger.ValidationError{Field: "recovery", Reason: "invalid recovery record"}
	}
	if rec.ID == "" {
		rec.ID = xid.New("rcv")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recoveries (id, entry_date, amount, source, description, created_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, rec.ID, rec.Date, rec.Amount, rec.Source, rec.Description)
	if err != nil {
		return nil, err
	}

	created := rec
	return &created, nil
}

func (s *Store) ListRecoveries(ctx context.Context, from string, to string) ([]domain.Recovery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_date, amount, source, description
		FROM recoveries
		WHERE ($1 = '' OR entry_date >= $1) AND ($2 = '' OR entry_date <= $2)
		ORDER BY created_at
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recoveries := make([]domain.Recovery, 0, 32)
	for rows.Next() {
		var rec domain.Recovery
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Amount, &rec.Source, &rec.Description); err != nil {
			return nil, err
		}
		recoveries = append(recoveries, rec)
	}
	return recoveries, rows.Err()
}

func (s *Store) CreateExpense(ctx context.Context, exp domain.Expense) (*domain.Expense, error) {
	if exp.Category == "" || exp.Amount.Sign() <= 0 {
		return nil, &ledger.ValidationError{Field: "expense", Reason: "invalid expense record"}
	}
	if exp.ID == "" {
		exp.ID = xid.New("exp")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, entry_date, amount, category, description, created_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, exp.ID, exp.Date, exp.Amount, exp.Category, exp.Description)
	if err != nil {
		return nil, err
	}

	created := exp
	return &created, nil
}

func (s *Store) ListExpenses(ctx context.Context, from string, to string) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_date, amount, category, description
		FROM expenses
		WHERE ($1 = '' OR entry_date >= $1) AND ($2 = '' OR entry_date <= $2)
		ORDER BY created_at
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 32)
	for rows.Next() {
		var exp domain.Expense
		if err := rows.Scan(&exp.ID, &exp.Date, &exp.Amount, &exp.Category, &exp.Description); err != nil {
			return nil, err
		}
		expenses = append(expenses, exp)
	}
	return expenses, rows.Err()
}

func scanItems(rows *sql.Rows) ([]domain.Item, error) {
	items := make([]domain.Item, 0, 64)
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Batch, &item.Quantity, &item.PurchasePrice, &item.SellingPrice, &item.ExpiryDate); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func uniqueItemIDs(items []domain.SaleItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ItemID]; ok {
			continue
		}
		seen[item.ItemID] = struct{}{}
		ids = append(ids, item.ItemID)
	}
	return ids
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
