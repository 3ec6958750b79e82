// Package report aggregates ledger records into daily and date-range
// financial summaries. Recoveries deduct from net profit by the store's
// accounting convention.
package report

import (
	"context"

	"github.com/shopspring/decimal"

	"ghazistore/backend/internal/domain"
	"ghazistore/backend/internal/ledger"
	"ghazistore/backend/internal/rules"
)

// Daily sums sales, recoveries and expenses dated exactly on the given day
// and returns netProfit = totalSales - totalRecoveries - totalExpenses.
func Daily(ctx context.Context, lg ledger.Ledger, date string) (domain.DailySummary, error) {
	if _, err := rules.ParseDate(date); err != nil {
		return domain.DailySummary{}, &ledger.ValidationError{Field: "date", Reason: "must be a YYYY-MM-DD date"}
	}

	sales, err := lg.ListSales(ctx, date, date)
	if err != nil {
		return domain.DailySummary{}, err
	}
	recoveries, err := lg.ListRecoveries(ctx, date, date)
	if err != nil {
		return domain.DailySummary{}, err
	}
	expenses, err := lg.ListExpenses(ctx, date, date)
	if err != nil {
		return domain.DailySummary{}, err
	}

	totalSales := sumSales(sales)
	totalRecoveries := sumRecoveries(recoveries)
	totalExpenses := sumExpenses(expenses)

	return domain.DailySummary{
		Date:            date,
		SaleCount:       len(sales),
		TotalSales:      totalSales,
		TotalRecoveries: totalRecoveries,
		TotalExpenses:   totalExpenses,
		NetProfit:       totalSales.Sub(totalRecoveries).Sub(totalExpenses),
	}, nil
}

// Range returns the sales, recoveries and expenses dated within
// [start, end] inclusive, plus their totals.
func Range(ctx context.Context, lg ledger.Ledger, start string, end string) (domain.RangeReport, error) {
	startDate, err := rules.ParseDate(start)
	if err != nil {
		return domain.RangeReport{}, &ledger.ValidationError{Field: "start_date", Reason: "must be a YYYY-MM-DD date"}
	}
	endDate, err := rules.ParseDate(end)
	if err != nil {
		return domain.RangeReport{}, &ledger.ValidationError{Field: "end_date", Reason: "must be a YYYY-MM-DD date"}
	}
	if startDate.After(endDate) {
		return domain.RangeReport{}, &ledger.ValidationError{Field: "start_date", Reason: "must not be after end date"}
	}

	from := rules.DateOf(startDate)
	to := rules.DateOf(endDate)

	sales, err := lg.ListSales(ctx, from, to)
	if err != nil {
		return domain.RangeReport{}, err
	}
	recoveries, err := lg.ListRecoveries(ctx, from, to)
	if err != nil {
		return domain.RangeReport{}, err
	}
	expenses, err := lg.ListExpenses(ctx, from, to)
	if err != nil {
		return domain.RangeReport{}, err
	}

	return domain.RangeReport{
		StartDate:       from,
		EndDate:         to,
		Sales:           sales,
		Recoveries:      recoveries,
		Expenses:        expenses,
		TotalSales:      sumSales(sales),
		TotalRecoveries: sumRecoveries(recoveries),
		TotalExpenses:   sumExpenses(expenses),
	}, nil
}

func sumSales(sales []domain.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(sale.GrandTotal)
	}
	return total
}

func sumRecoveries(recoveries []domain.Recovery) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range recoveries {
		total = total.Add(rec.Amount)
	}
	return total
}

func sumExpenses(expenses []domain.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, exp := range expenses {
		total = total.Add(exp.Amount)
	}
	return total
}
