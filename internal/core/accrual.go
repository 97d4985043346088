package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AccrualEngine posts period accruals for active purchase orders. It is the
// write-side counterpart of the monthly scheduler: each cycle scans every
// active purchase order and, for periods that have elapsed without a real
// invoice, books DR Expense / CR Advance Payment and-or Accrued Liabilities.
type AccrualEngine struct {
	store Store
	txID  TxIDSource
	log   zerolog.Logger
}

// NewAccrualEngine builds the engine. The cycle date is always supplied by
// the caller, so no clock is needed here; cmd/server resolves "now" through
// its injected Clock before invoking RunAccrualCycle.
func NewAccrualEngine(store Store, log zerolog.Logger) *AccrualEngine {
	return &AccrualEngine{store: store, txID: NewTxID, log: log}
}

// AccrualRun summarizes one cycle. Failures are per purchase order: a failed
// posting is recorded here and never aborts the remaining orders.
type AccrualRun struct {
	AsOf    time.Time `json:"as_of"`
	Posted  int       `json:"posted"`
	Skipped int       `json:"skipped"`
	Failed  int       `json:"failed"`

	Errors []string `json:"errors,omitempty"`
}

// RunAccrualCycle evaluates every active purchase order against asOf.
// Re-running for the same date is idempotent: each period is guarded by its
// period-key marker on the accrual entries, not by a stored processed flag.
func (e *AccrualEngine) RunAccrualCycle(ctx context.Context, asOf time.Time) (*AccrualRun, error) {
	orders, err := e.store.ListActivePurchaseOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active purchase orders: %w", err)
	}

	run := &AccrualRun{AsOf: asOf}
	for _, po := range orders {
		posted, err := e.accrueOne(ctx, &po, asOf)
		switch {
		case err != nil:
			run.Failed++
			run.Errors = append(run.Errors, fmt.Sprintf("purchase order %d: %v", po.ID, err))
			e.log.Error().Err(err).Int64("purchase_order_id", po.ID).Msg("accrual posting failed")
		case posted:
			run.Posted++
		default:
			run.Skipped++
		}
	}

	e.log.Info().
		Str("as_of", asOf.Format("2006-01-02")).
		Int("posted", run.Posted).
		Int("skipped", run.Skipped).
		Int("failed", run.Failed).
		Msg("accrual cycle complete")
	return run, nil
}

func (e *AccrualEngine) accrueOne(ctx context.Context, po *PurchaseOrder, asOf time.Time) (bool, error) {
	plan, due := planAccrual(po, asOf)
	if !due {
		return false, nil
	}

	// Period marker guard: an accrual already tagged with this period key
	// means a prior run (or a concurrent one that won the unique index race)
	// has posted it.
	existing, err := e.store.ListJournalEntries(ctx, EntryFilter{
		PurchaseOrderID: &po.ID,
		PeriodKey:       &plan.periodKey,
	})
	if err != nil {
		return false, fmt.Errorf("check period %s: %w", plan.periodKey, err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	if po.Frequency == Monthly {
		// A real invoice whose service period covers or extends past asOf
		// already carries this period's expense.
		covering, err := e.store.ListInvoices(ctx, InvoiceFilter{
			PurchaseOrderID:     &po.ID,
			ServiceEndOnOrAfter: &asOf,
		})
		if err != nil {
			return false, fmt.Errorf("check covering invoices: %w", err)
		}
		if len(covering) > 0 {
			return false, nil
		}
	}

	advance, err := e.advanceBalance(ctx, po.ID)
	if err != nil {
		return false, err
	}

	fromAdvance, remainder := netAgainstAdvance(plan.amount, advance)

	posting := NewPosting(e.txID(), asOf).
		ForPurchaseOrder(po.ID).
		WithPeriodKey(plan.periodKey)
	posting.Debit(ExpenseAccount, plan.amount, plan.description)
	if fromAdvance.IsPositive() {
		posting.Credit(AdvancePayment, fromAdvance, plan.description)
	}
	if remainder.IsPositive() {
		posting.Credit(AccruedLiabilities, remainder, plan.description)
	}

	if err := e.store.InsertTransaction(ctx, posting.Entries()); err != nil {
		return false, fmt.Errorf("post accrual for period %s: %w", plan.periodKey, err)
	}
	return true, nil
}

// advanceBalance returns the unconsumed advance-payment balance of a purchase
// order: Advance Payment debits minus credits across its journal entries.
func (e *AccrualEngine) advanceBalance(ctx context.Context, poID int64) (decimal.Decimal, error) {
	account := AdvancePayment
	entries, err := e.store.ListJournalEntries(ctx, EntryFilter{
		PurchaseOrderID: &poID,
		Account:         &account,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("advance balance: %w", err)
	}

	balance := decimal.Zero
	for _, entry := range entries {
		if entry.EntryType == Debit {
			balance = balance.Add(entry.Amount)
		} else {
			balance = balance.Sub(entry.Amount)
		}
	}
	return balance, nil
}

// accrualPlan is the pure outcome of the frequency dispatch: how much to
// accrue at asOf and under which period marker.
type accrualPlan struct {
	amount      decimal.Decimal
	periodKey   string
	description string
}

// planAccrual decides whether a purchase order owes an accrual at asOf.
// Returns due=false when asOf is outside the order's term or the frequency
// has no period ending in asOf's month.
func planAccrual(po *PurchaseOrder, asOf time.Time) (accrualPlan, bool) {
	if asOf.Before(po.StartDate) || asOf.After(po.EndDate) {
		return accrualPlan{}, false
	}

	year, month := asOf.Year(), int(asOf.Month())

	switch po.Frequency {
	case OneTime:
		return accrualPlan{
			amount:      po.TotalAmount,
			periodKey:   "one-time",
			description: fmt.Sprintf("One-time accrual for PO #%d", po.ID),
		}, true

	case Monthly:
		return accrualPlan{
			amount:      po.AmountPerMonth,
			periodKey:   asOf.Format("2006-01"),
			description: fmt.Sprintf("Monthly accrual for PO #%d", po.ID),
		}, true

	case Quarterly:
		if month%3 != 0 {
			return accrualPlan{}, false
		}
		return accrualPlan{
			amount:      po.TotalAmount.Div(decimal.NewFromInt(4)),
			periodKey:   fmt.Sprintf("%d-Q%d", year, month/3),
			description: fmt.Sprintf("Quarterly accrual for PO #%d", po.ID),
		}, true

	case BiAnnually:
		if month != 6 && month != 12 {
			return accrualPlan{}, false
		}
		return accrualPlan{
			amount:      po.TotalAmount.Div(decimal.NewFromInt(2)),
			periodKey:   fmt.Sprintf("%d-H%d", year, month/6),
			description: fmt.Sprintf("Bi-annual accrual for PO #%d", po.ID),
		}, true

	case Annually:
		if month != 12 {
			return accrualPlan{}, false
		}
		return accrualPlan{
			amount:      po.TotalAmount,
			periodKey:   fmt.Sprintf("%d", year),
			description: fmt.Sprintf("Annual accrual for PO #%d", po.ID),
		}, true
	}

	return accrualPlan{}, false
}

// netAgainstAdvance splits a period amount into the part consumed from the
// advance-payment balance and the remainder to accrue as a liability. When
// the advance covers the whole amount no liability leg is posted at all.
func netAgainstAdvance(amount, advance decimal.Decimal) (fromAdvance, remainder decimal.Decimal) {
	if !advance.IsPositive() {
		return decimal.Zero, amount
	}
	if advance.GreaterThanOrEqual(amount) {
		return amount, decimal.Zero
	}
	return advance, amount.Sub(advance)
}
