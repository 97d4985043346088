package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Posting accumulates the journal entries of one transaction group before
// they are handed to Store.InsertTransaction. Every entry added shares the
// posting's transaction ID, date, and reference tags.
type Posting struct {
	txID      string
	date      time.Time
	invoiceID *int64
	poID      *int64
	periodKey *string
	entries   []JournalEntry
}

// NewPosting starts an empty transaction group.
func NewPosting(txID string, date time.Time) *Posting {
	return &Posting{txID: txID, date: date}
}

// ForPurchaseOrder tags all subsequent entries with the purchase order.
func (p *Posting) ForPurchaseOrder(id int64) *Posting {
	p.poID = &id
	return p
}

// ForInvoice tags all subsequent entries with the invoice.
func (p *Posting) ForInvoice(id int64) *Posting {
	p.invoiceID = &id
	return p
}

// WithPeriodKey marks subsequent entries as accruals for the given period.
func (p *Posting) WithPeriodKey(key string) *Posting {
	p.periodKey = &key
	return p
}

// Debit appends a DEBIT leg to the group.
func (p *Posting) Debit(account Account, amount decimal.Decimal, description string) *Posting {
	return p.add(account, amount, Debit, description)
}

// Credit appends a CREDIT leg to the group.
func (p *Posting) Credit(account Account, amount decimal.Decimal, description string) *Posting {
	return p.add(account, amount, Credit, description)
}

func (p *Posting) add(account Account, amount decimal.Decimal, et EntryType, description string) *Posting {
	p.entries = append(p.entries, JournalEntry{
		Date:            p.date,
		TransactionID:   p.txID,
		Account:         account,
		Amount:          amount,
		EntryType:       et,
		Category:        account.Category(),
		Description:     description,
		InvoiceID:       p.invoiceID,
		PurchaseOrderID: p.poID,
		PeriodKey:       p.periodKey,
	})
	return p
}

// Entries returns the accumulated group.
func (p *Posting) Entries() []JournalEntry { return p.entries }

// Balanced reports whether total debits equal total credits. The store does
// not enforce this; callers use it as a sanity check.
func (p *Posting) Balanced() bool {
	var debits, credits decimal.Decimal
	for _, e := range p.entries {
		if e.EntryType == Debit {
			debits = debits.Add(e.Amount)
		} else {
			credits = credits.Add(e.Amount)
		}
	}
	return debits.Equal(credits)
}
