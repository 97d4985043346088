package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// InvoiceService records real vendor invoices against purchase orders,
// reversing any accruals already booked for the covered periods, and applies
// payments to open invoices.
type InvoiceService struct {
	store Store
	clock Clock
	txID  TxIDSource
	log   zerolog.Logger
}

func NewInvoiceService(store Store, clock Clock, log zerolog.Logger) *InvoiceService {
	return &InvoiceService{store: store, clock: clock, txID: NewTxID, log: log}
}

// PostInvoiceRequest carries one invoice to record.
type PostInvoiceRequest struct {
	PurchaseOrderID int64
	Description     string
	IssuedDate      time.Time
	Amount          decimal.Decimal
	ServiceStart    time.Time
	ServiceEnd      time.Time
	Status          InvoiceStatus
}

func (r *PostInvoiceRequest) validate() error {
	if r.Description == "" {
		return Validationf("description is required")
	}
	if !r.Amount.IsPositive() {
		return Validationf("amount must be positive, got %s", r.Amount)
	}
	if r.IssuedDate.IsZero() || r.ServiceStart.IsZero() || r.ServiceEnd.IsZero() {
		return Validationf("issued_date, service_start and service_end are required")
	}
	if r.ServiceEnd.Before(r.ServiceStart) {
		return Validationf("service_end %s precedes service_start %s",
			r.ServiceEnd.Format("2006-01-02"), r.ServiceStart.Format("2006-01-02"))
	}
	switch r.Status {
	case Unpaid, Paid:
	default:
		return Validationf("status must be UNPAID or PAID, got %q", r.Status)
	}
	return nil
}

// PostInvoice records an invoice against an active purchase order. Any
// accruals standing between the fiscal-year start and the invoice's service
// end are reversed pair by pair, then the invoice's own expense entry is
// posted against Accounts Payable (UNPAID) or Cash (PAID).
func (s *InvoiceService) PostInvoice(ctx context.Context, req PostInvoiceRequest) (*Invoice, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	po, err := s.store.GetPurchaseOrder(ctx, req.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if !po.IsActive {
		return nil, &NotFoundError{Resource: "active purchase order", ID: po.ID}
	}

	if err := s.checkOverlap(ctx, po.ID, req.ServiceStart, req.ServiceEnd); err != nil {
		return nil, err
	}

	reversals, err := s.planReversals(ctx, po.ID, req.ServiceEnd)
	if err != nil {
		return nil, err
	}

	inv, err := s.store.InsertInvoice(ctx, &Invoice{
		Description:     req.Description,
		IssuedDate:      req.IssuedDate,
		ServiceStart:    req.ServiceStart,
		ServiceEnd:      req.ServiceEnd,
		Amount:          req.Amount,
		Status:          req.Status,
		PurchaseOrderID: po.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}

	for _, rev := range reversals {
		posting := NewPosting(s.txID(), req.IssuedDate).ForPurchaseOrder(po.ID)
		posting.Credit(ExpenseAccount, rev.expense.Amount,
			fmt.Sprintf("Reversing %q for PO %d", rev.expense.Description, po.ID))
		posting.Debit(AccruedLiabilities, rev.accrual.Amount,
			fmt.Sprintf("Reversing %q for PO %d", rev.accrual.Description, po.ID))
		if rev.advance != nil {
			// Restores the consumed advance so the balance is available again.
			posting.Debit(AdvancePayment, rev.advance.Amount,
				fmt.Sprintf("Reversing %q for PO %d", rev.advance.Description, po.ID))
		}
		if err := s.store.InsertTransaction(ctx, posting.Entries()); err != nil {
			return nil, fmt.Errorf("reverse accrual %s: %w", rev.accrual.TransactionID, err)
		}
	}

	posting := NewPosting(s.txID(), req.IssuedDate).
		ForPurchaseOrder(po.ID).
		ForInvoice(inv.ID)
	posting.Debit(ExpenseAccount, req.Amount, req.Description)
	if req.Status == Paid {
		posting.Credit(CashAccount, req.Amount, req.Description)
	} else {
		posting.Credit(AccountsPayable, req.Amount, req.Description)
	}
	if err := s.store.InsertTransaction(ctx, posting.Entries()); err != nil {
		return nil, fmt.Errorf("post invoice entries: %w", err)
	}

	s.log.Info().
		Int64("invoice_id", inv.ID).
		Int64("purchase_order_id", po.ID).
		Int("reversed_accruals", len(reversals)).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("invoice posted")
	return inv, nil
}

// checkOverlap rejects a service period that collides with an existing
// invoice on the same purchase order. Periods are inclusive on both ends:
// newStart <= existingEnd && newEnd >= existingStart.
func (s *InvoiceService) checkOverlap(ctx context.Context, poID int64, start, end time.Time) error {
	existing, err := s.store.ListInvoices(ctx, InvoiceFilter{PurchaseOrderID: &poID})
	if err != nil {
		return fmt.Errorf("list invoices: %w", err)
	}
	for _, inv := range existing {
		if !start.After(inv.ServiceEnd) && !end.Before(inv.ServiceStart) {
			return &OverlapError{
				PurchaseOrderID:   poID,
				ExistingInvoiceID: inv.ID,
				ServiceStart:      start,
				ServiceEnd:        end,
			}
		}
	}
	return nil
}

// reversalPair is one accrual posting to undo: the accrued-liability credit
// leg and the expense debit leg the engine booked together, plus the
// advance-payment credit leg when the accrual was partially netted against an
// advance.
type reversalPair struct {
	accrual JournalEntry
	expense JournalEntry
	advance *JournalEntry
}

// planReversals collects the accrual entries standing for this purchase order
// between the fiscal-year start (Jan 1 of the current year) and serviceEnd.
// The two legs of each accrual are matched positionally; a count mismatch
// means the ledger no longer holds the engine's matched pairs (for example
// because they were already reversed) and reconciliation refuses to guess.
func (s *InvoiceService) planReversals(ctx context.Context, poID int64, serviceEnd time.Time) ([]reversalPair, error) {
	fyStart := time.Date(s.clock.Now().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	// An accrued-liability debit with no invoice reference can only be a
	// reversal from an earlier reconciliation. Its presence means the window
	// no longer holds the engine's untouched matched pairs, so reconciling
	// again would double-reverse.
	accrued, debit := AccruedLiabilities, Debit
	priorReversals, err := s.store.ListJournalEntries(ctx, EntryFilter{
		PurchaseOrderID:   &poID,
		Account:           &accrued,
		EntryType:         &debit,
		From:              &fyStart,
		To:                &serviceEnd,
		UnlinkedToInvoice: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list prior reversals: %w", err)
	}
	if len(priorReversals) > 0 {
		return nil, &InconsistentLedgerError{
			PurchaseOrderID: poID,
			Detail:          fmt.Sprintf("%d accrual entries in the period were already reversed", len(priorReversals)),
		}
	}

	credit := Credit
	accrualCredits, err := s.store.ListJournalEntries(ctx, EntryFilter{
		PurchaseOrderID:   &poID,
		Account:           &accrued,
		EntryType:         &credit,
		From:              &fyStart,
		To:                &serviceEnd,
		UnlinkedToInvoice: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list accrued liability credits: %w", err)
	}

	expense := ExpenseAccount
	expenseDebits, err := s.store.ListJournalEntries(ctx, EntryFilter{
		PurchaseOrderID:   &poID,
		Account:           &expense,
		EntryType:         &debit,
		From:              &fyStart,
		To:                &serviceEnd,
		UnlinkedToInvoice: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list expense debits: %w", err)
	}

	if len(accrualCredits) != len(expenseDebits) {
		return nil, &InconsistentLedgerError{
			PurchaseOrderID: poID,
			AccrualCredits:  len(accrualCredits),
			ExpenseDebits:   len(expenseDebits),
		}
	}

	// An accrual netted against an advance carries a third leg, a credit to
	// Advance Payment in the same transaction group. It has to be reversed
	// with the pair or the group's netted amount vanishes from the ledger.
	advance := AdvancePayment
	advanceCredits, err := s.store.ListJournalEntries(ctx, EntryFilter{
		PurchaseOrderID:   &poID,
		Account:           &advance,
		EntryType:         &credit,
		From:              &fyStart,
		To:                &serviceEnd,
		UnlinkedToInvoice: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list advance payment credits: %w", err)
	}
	advanceByTx := make(map[string]JournalEntry, len(advanceCredits))
	for _, a := range advanceCredits {
		advanceByTx[a.TransactionID] = a
	}

	pairs := make([]reversalPair, len(accrualCredits))
	for i := range accrualCredits {
		pairs[i] = reversalPair{accrual: accrualCredits[i], expense: expenseDebits[i]}
		if a, ok := advanceByTx[accrualCredits[i].TransactionID]; ok {
			pairs[i].advance = &a
		}
	}
	return pairs, nil
}

// MakePayment applies a payment to an open invoice: CR Cash, DR Accounts
// Payable, and a status move to PARTIAL_PAID or PAID. The remaining balance
// is inferred from prior cash credits tagged with the invoice, not stored.
func (s *InvoiceService) MakePayment(ctx context.Context, invoiceID int64, amount decimal.Decimal, date time.Time) (*Invoice, error) {
	if !amount.IsPositive() {
		return nil, Validationf("payment amount must be positive, got %s", amount)
	}

	inv, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == Paid {
		return nil, Validationf("invoice %d is already paid", invoiceID)
	}

	remaining, err := s.remainingBalance(ctx, inv)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(inv.Amount) || amount.GreaterThan(remaining) {
		return nil, &PaymentExceedsBalanceError{
			InvoiceID: invoiceID,
			Requested: amount,
			Remaining: remaining,
		}
	}

	desc := fmt.Sprintf("Payment for invoice #%d", invoiceID)
	posting := NewPosting(s.txID(), date).
		ForPurchaseOrder(inv.PurchaseOrderID).
		ForInvoice(inv.ID)
	posting.Credit(CashAccount, amount, desc)
	posting.Debit(AccountsPayable, amount, desc)
	if err := s.store.InsertTransaction(ctx, posting.Entries()); err != nil {
		return nil, fmt.Errorf("post payment entries: %w", err)
	}

	status := Paid
	if amount.LessThan(remaining) {
		status = PartialPaid
	}
	if err := s.store.UpdateInvoiceStatus(ctx, inv.ID, status); err != nil {
		return nil, fmt.Errorf("update invoice status: %w", err)
	}
	inv.Status = status

	s.log.Info().
		Int64("invoice_id", inv.ID).
		Str("amount", amount.StringFixed(2)).
		Str("status", string(status)).
		Msg("payment applied")
	return inv, nil
}

// remainingBalance is the invoice amount minus all cash credits already
// posted against it.
func (s *InvoiceService) remainingBalance(ctx context.Context, inv *Invoice) (decimal.Decimal, error) {
	cash, credit := CashAccount, Credit
	payments, err := s.store.ListJournalEntries(ctx, EntryFilter{
		InvoiceID: &inv.ID,
		Account:   &cash,
		EntryType: &credit,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("list payment entries: %w", err)
	}

	remaining := inv.Amount
	for _, p := range payments {
		remaining = remaining.Sub(p.Amount)
	}
	return remaining, nil
}

// GetInvoice looks up a single invoice.
func (s *InvoiceService) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return s.store.GetInvoice(ctx, id)
}

// ListInvoices returns invoices matching the filter.
func (s *InvoiceService) ListInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, error) {
	return s.store.ListInvoices(ctx, f)
}
