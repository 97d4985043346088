package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// The engine surfaces five error kinds to callers. All of them mean "nothing
// was posted" except InconsistentLedgerError, which aborts only the invoice
// posting it was raised from. Anything else that bubbles up is a persistence
// failure and stays a plain wrapped error.

// ValidationError reports missing or malformed input, including invalid or
// cross-year report date ranges.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown vendor, invoice, or purchase order, or the
// absence of an active purchase order where one is required.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// OverlapError reports an invoice whose service period collides with an
// existing invoice on the same purchase order.
type OverlapError struct {
	PurchaseOrderID   int64
	ExistingInvoiceID int64
	ServiceStart      time.Time
	ServiceEnd        time.Time
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("service period %s to %s overlaps invoice %d on purchase order %d",
		e.ServiceStart.Format("2006-01-02"), e.ServiceEnd.Format("2006-01-02"),
		e.ExistingInvoiceID, e.PurchaseOrderID)
}

// InconsistentLedgerError reports mismatched accrual credit / expense debit
// entry counts during invoice reconciliation.
type InconsistentLedgerError struct {
	PurchaseOrderID int64
	AccrualCredits  int
	ExpenseDebits   int
	Detail          string
}

func (e *InconsistentLedgerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("inconsistent ledger for purchase order %d: %s", e.PurchaseOrderID, e.Detail)
	}
	return fmt.Sprintf("inconsistent ledger for purchase order %d: %d accrued liability credits vs %d expense debits",
		e.PurchaseOrderID, e.AccrualCredits, e.ExpenseDebits)
}

// PaymentExceedsBalanceError reports a payment over the invoice total or its
// remaining unpaid balance.
type PaymentExceedsBalanceError struct {
	InvoiceID int64
	Requested decimal.Decimal
	Remaining decimal.Decimal
}

func (e *PaymentExceedsBalanceError) Error() string {
	return fmt.Sprintf("payment of %s exceeds remaining balance %s on invoice %d",
		e.Requested.StringFixed(2), e.Remaining.StringFixed(2), e.InvoiceID)
}
