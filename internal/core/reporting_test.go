package core

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMonthlyResults(t *testing.T, store *memStore) {
	t.Helper()
	months := []struct {
		revenue int64
		expense int64
	}{
		{1000, 600}, {1200, 800}, {900, 500}, {1500, 700}, {1100, 650},
	}
	for i, m := range months {
		when := date(2024, time.Month(i+1), 28)
		posting := NewPosting(NewTxID(), when)
		posting.Debit(CashAccount, decimal.NewFromInt(m.revenue), "Sales receipt")
		posting.Credit(SalesAccount, decimal.NewFromInt(m.revenue), "Sales receipt")
		posting.Debit(ExpenseAccount, decimal.NewFromInt(m.expense), "Operating costs")
		posting.Credit(CashAccount, decimal.NewFromInt(m.expense), "Operating costs")
		require.True(t, posting.Balanced())
		require.NoError(t, store.InsertTransaction(context.Background(), posting.Entries()))
	}
}

func TestGetIncomeStatement(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedMonthlyResults(t, store)
	svc := NewReportingService(store)

	stmt, err := svc.GetIncomeStatement(ctx, "", "")
	require.NoError(t, err)

	assert.True(t, stmt.TotalRevenues.Equal(decimal.NewFromInt(5700)),
		"total revenues = %s", stmt.TotalRevenues)
	assert.True(t, stmt.TotalExpenses.Equal(decimal.NewFromInt(3250)),
		"total expenses = %s", stmt.TotalExpenses)
	assert.True(t, stmt.NetIncome.Equal(decimal.NewFromInt(2450)),
		"net income = %s", stmt.NetIncome)

	require.Len(t, stmt.Revenues, 1)
	assert.Equal(t, SalesAccount, stmt.Revenues[0].Account)
	require.Len(t, stmt.Expenses, 1)
	assert.Equal(t, ExpenseAccount, stmt.Expenses[0].Account)
}

func TestGetIncomeStatementDateRange(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedMonthlyResults(t, store)
	svc := NewReportingService(store)

	// Only the first two months fall inside the window.
	stmt, err := svc.GetIncomeStatement(ctx, "2024-01-01", "2024-02-29")
	require.NoError(t, err)
	assert.True(t, stmt.TotalRevenues.Equal(decimal.NewFromInt(2200)),
		"total revenues = %s", stmt.TotalRevenues)
	assert.True(t, stmt.TotalExpenses.Equal(decimal.NewFromInt(1400)),
		"total expenses = %s", stmt.TotalExpenses)
}

func TestReportDateRangeValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewReportingService(newMemStore())

	var validation *ValidationError

	_, err := svc.GetIncomeStatement(ctx, "01/01/2024", "")
	require.ErrorAs(t, err, &validation, "malformed from date")

	_, err = svc.GetBalanceSheet(ctx, "", "2024-13-40")
	require.ErrorAs(t, err, &validation, "malformed to date")

	_, err = svc.GetIncomeStatement(ctx, "2023-12-01", "2024-01-31")
	require.ErrorAs(t, err, &validation, "cross-year range")
}

func TestGetBalanceSheetAfterInvoiceReconciliation(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	po := seedMonthlyPO(t, store, 1000)

	// Owner funding and one cash sale.
	funding := NewPosting(NewTxID(), date(2024, time.January, 2))
	funding.Debit(CashAccount, decimal.NewFromInt(1000), "Owner investment")
	funding.Credit(OwnersEquity, decimal.NewFromInt(1000), "Owner investment")
	require.NoError(t, store.InsertTransaction(ctx, funding.Entries()))

	sale := NewPosting(NewTxID(), date(2024, time.January, 10))
	sale.Debit(CashAccount, decimal.NewFromInt(1000), "Cash sale")
	sale.Credit(SalesAccount, decimal.NewFromInt(1000), "Cash sale")
	require.NoError(t, store.InsertTransaction(ctx, sale.Entries()))

	// One accrued month, then the real invoice arrives unpaid.
	run, err := newTestEngine(store).
		RunAccrualCycle(ctx, date(2024, time.January, 31))
	require.NoError(t, err)
	require.Equal(t, 1, run.Posted)

	invoices := newTestInvoiceService(store, date(2024, time.February, 5))
	_, err = invoices.PostInvoice(ctx, PostInvoiceRequest{
		PurchaseOrderID: po.ID,
		Description:     "January services",
		IssuedDate:      date(2024, time.February, 5),
		Amount:          decimal.NewFromInt(900),
		ServiceStart:    date(2024, time.January, 1),
		ServiceEnd:      date(2024, time.January, 31),
		Status:          Unpaid,
	})
	require.NoError(t, err)

	sheet, err := NewReportingService(store).GetBalanceSheet(ctx, "", "")
	require.NoError(t, err)

	assert.True(t, sheet.TotalAssets.Equal(decimal.NewFromInt(2000)),
		"total assets = %s", sheet.TotalAssets)
	assert.True(t, sheet.TotalLiabilities.Equal(decimal.NewFromInt(900)),
		"total liabilities = %s", sheet.TotalLiabilities)
	assert.True(t, sheet.TotalEquity.Equal(decimal.NewFromInt(1100)),
		"total equity = %s", sheet.TotalEquity)

	balances := map[Account]decimal.Decimal{}
	for _, section := range [][]AccountBalance{sheet.Assets, sheet.Liabilities, sheet.Equity} {
		for _, b := range section {
			balances[b.Account] = b.Balance
		}
	}
	assert.True(t, balances[CashAccount].Equal(decimal.NewFromInt(2000)))
	assert.True(t, balances[AccountsPayable].Equal(decimal.NewFromInt(900)))
	assert.True(t, balances[AccruedLiabilities].IsZero(), "reversed accruals leave no liability")
	assert.True(t, balances[OwnersEquity].Equal(decimal.NewFromInt(1000)))
	assert.True(t, balances[RetainedEarnings].Equal(decimal.NewFromInt(100)),
		"retained earnings = %s", balances[RetainedEarnings])
}

// Any set of balanced transactions must satisfy the accounting equation once
// retained earnings fold net income into equity.
func TestBalanceSheetEquationHolds(t *testing.T) {
	accounts := []Account{
		CashAccount, ExpenseAccount, AccruedLiabilities, AccountsPayable,
		AdvancePayment, SalesAccount, OwnersEquity,
	}
	rng := rand.New(rand.NewSource(42))

	var entries []JournalEntry
	for i := 0; i < 200; i++ {
		debit := accounts[rng.Intn(len(accounts))]
		credit := accounts[rng.Intn(len(accounts))]
		amount := decimal.NewFromInt(int64(rng.Intn(9999) + 1)).Div(decimal.NewFromInt(100))

		posting := NewPosting(NewTxID(), date(2024, time.January, 1+rng.Intn(300)%28))
		posting.Debit(debit, amount, "random movement")
		posting.Credit(credit, amount, "random movement")
		require.True(t, posting.Balanced())
		entries = append(entries, posting.Entries()...)
	}

	sheet := buildBalanceSheet(entries)
	diff := sheet.TotalAssets.Sub(sheet.TotalLiabilities).Sub(sheet.TotalEquity)
	assert.True(t, diff.IsZero(),
		"assets %s != liabilities %s + equity %s",
		sheet.TotalAssets, sheet.TotalLiabilities, sheet.TotalEquity)
}

func TestGetAccountsTurnover(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedMonthlyResults(t, store)

	activities, err := NewReportingService(store).GetAccounts(ctx)
	require.NoError(t, err)

	byAccount := map[Account]AccountActivity{}
	for _, a := range activities {
		byAccount[a.Account] = a
	}

	cash := byAccount[CashAccount]
	assert.True(t, cash.Debit.Equal(decimal.NewFromInt(5700)))
	assert.True(t, cash.Credit.Equal(decimal.NewFromInt(3250)))

	sales := byAccount[SalesAccount]
	assert.True(t, sales.Debit.IsZero())
	assert.True(t, sales.Credit.Equal(decimal.NewFromInt(5700)))
}
