package core

import (
	"context"
	"time"
)

// EntryFilter narrows ListJournalEntries. Nil fields match everything.
type EntryFilter struct {
	PurchaseOrderID *int64
	InvoiceID       *int64
	Account         *Account
	EntryType       *EntryType
	PeriodKey       *string
	From            *time.Time
	To              *time.Time

	// UnlinkedToInvoice selects only entries with no invoice reference,
	// i.e. the accrual postings made before a real invoice arrived.
	UnlinkedToInvoice bool
}

// InvoiceFilter narrows ListInvoices.
type InvoiceFilter struct {
	PurchaseOrderID *int64
	VendorID        *int64
	Status          *InvoiceStatus

	// ServiceEndOnOrAfter selects invoices whose service period extends to or
	// past the given date.
	ServiceEndOnOrAfter *time.Time
}

// Store is the persistence boundary of the engine. Journal entries are
// append-only: one InsertTransaction call writes a whole transaction group
// atomically, and nothing ever updates or deletes an entry. Implementations
// return the typed errors from errors.go for missing records.
type Store interface {
	CreateVendor(ctx context.Context, name string) (*Vendor, error)
	GetVendor(ctx context.Context, id int64) (*Vendor, error)
	ListVendors(ctx context.Context) ([]Vendor, error)

	CreatePurchaseOrder(ctx context.Context, po *PurchaseOrder) (*PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, id int64) (*PurchaseOrder, error)
	ListActivePurchaseOrders(ctx context.Context) ([]PurchaseOrder, error)
	ListPurchaseOrdersByVendor(ctx context.Context, vendorID int64) ([]PurchaseOrder, error)
	SetPurchaseOrderActive(ctx context.Context, id int64, active bool) error

	InsertInvoice(ctx context.Context, inv *Invoice) (*Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	ListInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id int64, status InvoiceStatus) error

	// InsertTransaction appends all entries of one transaction group in a
	// single database transaction: either every leg lands or none do.
	InsertTransaction(ctx context.Context, entries []JournalEntry) error
	ListJournalEntries(ctx context.Context, f EntryFilter) ([]JournalEntry, error)
}
