package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// AccountBalance is a single account line in a report, in the sign convention
// of its section: revenues, liabilities and equity are positive when they
// carry their normal credit balance.
type AccountBalance struct {
	Account Account         `json:"account"`
	Balance decimal.Decimal `json:"balance"`
}

type IncomeStatement struct {
	Revenues      []AccountBalance `json:"revenues"`
	Expenses      []AccountBalance `json:"expenses"`
	TotalRevenues decimal.Decimal  `json:"totalRevenues"`
	TotalExpenses decimal.Decimal  `json:"totalExpenses"`
	NetIncome     decimal.Decimal  `json:"netIncome"`
}

// BalanceSheet always carries a synthetic Retained Earnings equity line equal
// to the income statement's net income over the same date range.
type BalanceSheet struct {
	Assets           []AccountBalance `json:"assets"`
	Liabilities      []AccountBalance `json:"liabilities"`
	Equity           []AccountBalance `json:"equity"`
	TotalAssets      decimal.Decimal  `json:"totalAssets"`
	TotalLiabilities decimal.Decimal  `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal  `json:"totalEquity"`
}

// AccountActivity is the raw debit/credit turnover of one account.
type AccountActivity struct {
	Account Account         `json:"account"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
}

// ── Service ───────────────────────────────────────────────────────────────────

// ReportingService derives financial statements from the ledger. It is
// stateless: every call aggregates over the journal entries visible at call
// time.
type ReportingService struct {
	store Store
}

func NewReportingService(store Store) *ReportingService {
	return &ReportingService{store: store}
}

// parseDateRange validates an optional [from, to] filter. Empty strings mean
// unbounded; when both bounds are present they must fall in the same calendar
// year, since retained earnings are not carried across year boundaries.
func parseDateRange(from, to string) (*time.Time, *time.Time, error) {
	var fromT, toT *time.Time
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return nil, nil, Validationf("invalid from date %q", from)
		}
		fromT = &t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return nil, nil, Validationf("invalid to date %q", to)
		}
		toT = &t
	}
	if fromT != nil && toT != nil && fromT.Year() != toT.Year() {
		return nil, nil, Validationf("date range %s to %s spans different calendar years", from, to)
	}
	return fromT, toT, nil
}

func (s *ReportingService) entriesInRange(ctx context.Context, from, to string) ([]JournalEntry, error) {
	fromT, toT, err := parseDateRange(from, to)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListJournalEntries(ctx, EntryFilter{From: fromT, To: toT})
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	return entries, nil
}

// GetIncomeStatement builds the income statement over the optional date range.
func (s *ReportingService) GetIncomeStatement(ctx context.Context, from, to string) (*IncomeStatement, error) {
	entries, err := s.entriesInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return buildIncomeStatement(entries), nil
}

// GetBalanceSheet builds the balance sheet over the optional date range.
func (s *ReportingService) GetBalanceSheet(ctx context.Context, from, to string) (*BalanceSheet, error) {
	entries, err := s.entriesInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return buildBalanceSheet(entries), nil
}

// GetAccounts returns per-account debit and credit turnover, ordered by
// account name.
func (s *ReportingService) GetAccounts(ctx context.Context) ([]AccountActivity, error) {
	entries, err := s.store.ListJournalEntries(ctx, EntryFilter{})
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}

	byAccount := map[Account]*AccountActivity{}
	for _, e := range entries {
		a, ok := byAccount[e.Account]
		if !ok {
			a = &AccountActivity{Account: e.Account}
			byAccount[e.Account] = a
		}
		if e.EntryType == Debit {
			a.Debit = a.Debit.Add(e.Amount)
		} else {
			a.Credit = a.Credit.Add(e.Amount)
		}
	}

	activities := make([]AccountActivity, 0, len(byAccount))
	for _, a := range byAccount {
		activities = append(activities, *a)
	}
	sort.Slice(activities, func(i, j int) bool { return activities[i].Account < activities[j].Account })
	return activities, nil
}

// GetJournalEntries returns raw entries over the optional date range.
func (s *ReportingService) GetJournalEntries(ctx context.Context, from, to string) ([]JournalEntry, error) {
	return s.entriesInRange(ctx, from, to)
}

// ── Pure aggregation ──────────────────────────────────────────────────────────

type accountTotal struct {
	account  Account
	category Category
	net      decimal.Decimal // debits minus credits
}

// totalsByAccount folds entries into per-account net-debit positions. The
// category is taken from the entries themselves, so a report never needs a
// chart of accounts.
func totalsByAccount(entries []JournalEntry) []accountTotal {
	index := map[Account]int{}
	var totals []accountTotal
	for _, e := range entries {
		i, ok := index[e.Account]
		if !ok {
			i = len(totals)
			index[e.Account] = i
			totals = append(totals, accountTotal{account: e.Account, category: e.Category})
		}
		if e.EntryType == Debit {
			totals[i].net = totals[i].net.Add(e.Amount)
		} else {
			totals[i].net = totals[i].net.Sub(e.Amount)
		}
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].account < totals[j].account })
	return totals
}

func buildIncomeStatement(entries []JournalEntry) *IncomeStatement {
	stmt := &IncomeStatement{
		Revenues: []AccountBalance{},
		Expenses: []AccountBalance{},
	}
	for _, t := range totalsByAccount(entries) {
		switch t.category {
		case Revenue:
			// Revenue accounts carry credit balances, so flip the sign.
			bal := t.net.Neg()
			stmt.Revenues = append(stmt.Revenues, AccountBalance{Account: t.account, Balance: bal})
			stmt.TotalRevenues = stmt.TotalRevenues.Add(bal)
		case Expense:
			stmt.Expenses = append(stmt.Expenses, AccountBalance{Account: t.account, Balance: t.net})
			stmt.TotalExpenses = stmt.TotalExpenses.Add(t.net)
		}
	}
	stmt.NetIncome = stmt.TotalRevenues.Sub(stmt.TotalExpenses)
	return stmt
}

func buildBalanceSheet(entries []JournalEntry) *BalanceSheet {
	sheet := &BalanceSheet{
		Assets:      []AccountBalance{},
		Liabilities: []AccountBalance{},
		Equity:      []AccountBalance{},
	}
	for _, t := range totalsByAccount(entries) {
		switch t.category {
		case Asset:
			sheet.Assets = append(sheet.Assets, AccountBalance{Account: t.account, Balance: t.net})
			sheet.TotalAssets = sheet.TotalAssets.Add(t.net)
		case Liability:
			bal := t.net.Neg()
			sheet.Liabilities = append(sheet.Liabilities, AccountBalance{Account: t.account, Balance: bal})
			sheet.TotalLiabilities = sheet.TotalLiabilities.Add(bal)
		case Equity:
			bal := t.net.Neg()
			sheet.Equity = append(sheet.Equity, AccountBalance{Account: t.account, Balance: bal})
			sheet.TotalEquity = sheet.TotalEquity.Add(bal)
		}
	}

	// Retained earnings fold current-period net income into equity; without
	// this the sheet only balances once revenue and expense are closed out.
	netIncome := buildIncomeStatement(entries).NetIncome
	sheet.Equity = append(sheet.Equity, AccountBalance{Account: RetainedEarnings, Balance: netIncome})
	sheet.TotalEquity = sheet.TotalEquity.Add(netIncome)
	return sheet
}
