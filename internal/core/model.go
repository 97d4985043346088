package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	Debit  EntryType = "DEBIT"
	Credit EntryType = "CREDIT"
)

type Category string

const (
	Revenue   Category = "REVENUE"
	Expense   Category = "EXPENSE"
	Asset     Category = "ASSET"
	Liability Category = "LIABILITY"
	Equity    Category = "EQUITY"
)

// Account is a named ledger account. The set is closed: every posting path in
// the engine writes to one of these.
type Account string

const (
	CashAccount        Account = "Cash Account"
	ExpenseAccount     Account = "Expense Account"
	AccruedLiabilities Account = "Accrued Liabilities"
	AccountsPayable    Account = "Accounts Payable"
	AdvancePayment     Account = "Advance Payment"
	SalesAccount       Account = "Sales Account"
	OwnersEquity       Account = "Equity"

	// RetainedEarnings is synthetic: computed at report time, never persisted.
	RetainedEarnings Account = "Retained Earnings"
)

// Category returns the category an engine posting to this account carries.
func (a Account) Category() Category {
	switch a {
	case ExpenseAccount:
		return Expense
	case AccruedLiabilities, AccountsPayable:
		return Liability
	case SalesAccount:
		return Revenue
	case OwnersEquity, RetainedEarnings:
		return Equity
	}
	return Asset
}

type Frequency string

const (
	OneTime    Frequency = "ONE_TIME"
	Monthly    Frequency = "MONTHLY"
	Quarterly  Frequency = "QUARTERLY"
	BiAnnually Frequency = "BI_ANNUALLY"
	Annually   Frequency = "ANNUALLY"
)

type InvoiceStatus string

const (
	Unpaid      InvoiceStatus = "UNPAID"
	Paid        InvoiceStatus = "PAID"
	PartialPaid InvoiceStatus = "PARTIAL_PAID"
)

// JournalEntry is one immutable DEBIT or CREDIT posting. Entries sharing a
// TransactionID form one transaction group; the group is expected (but not
// enforced) to balance.
type JournalEntry struct {
	ID              int64           `json:"id"`
	Date            time.Time       `json:"date"`
	TransactionID   string          `json:"transaction_id"`
	Account         Account         `json:"account"`
	Amount          decimal.Decimal `json:"amount"`
	EntryType       EntryType       `json:"entry_type"`
	Category        Category        `json:"category"`
	Description     string          `json:"description"`
	InvoiceID       *int64          `json:"invoice_id,omitempty"`
	PurchaseOrderID *int64          `json:"purchase_order_id,omitempty"`

	// PeriodKey marks accrual entries with the billing period they cover
	// (e.g. "2026-03", "2026-Q1"). Nil on all non-accrual entries. The store
	// enforces uniqueness of (purchase_order_id, period_key, account) so the
	// same period can never be accrued twice.
	PeriodKey *string `json:"period_key,omitempty"`
}

type Invoice struct {
	ID              int64           `json:"id"`
	Description     string          `json:"description"`
	IssuedDate      time.Time       `json:"issued_date"`
	ServiceStart    time.Time       `json:"service_start"`
	ServiceEnd      time.Time       `json:"service_end"`
	Amount          decimal.Decimal `json:"amount"`
	Status          InvoiceStatus   `json:"status"`
	PurchaseOrderID int64           `json:"purchase_order_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

type PurchaseOrder struct {
	ID             int64           `json:"id"`
	VendorID       int64           `json:"vendor_id"`
	Description    string          `json:"description"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	AmountPerMonth decimal.Decimal `json:"amount_per_month"`
	Frequency      Frequency       `json:"frequency"`
	IsActive       bool            `json:"is_active"`
	AdvancePayment decimal.Decimal `json:"advance_payment"`
	CreatedAt      time.Time       `json:"created_at"`
}

type Vendor struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
