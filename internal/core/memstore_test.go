package core

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory Store used by the service tests. It mirrors the
// Postgres implementation's semantics: typed not-found errors, ordered entry
// listings, and the unique accrual-period constraint.
type memStore struct {
	mu          sync.Mutex
	vendors     []Vendor
	orders      []PurchaseOrder
	invoices    []Invoice
	entries     []JournalEntry
	nextVendor  int64
	nextOrder   int64
	nextInvoice int64
	nextEntry   int64
}

func newMemStore() *memStore {
	return &memStore{nextVendor: 1, nextOrder: 1, nextInvoice: 1, nextEntry: 1}
}

func (m *memStore) CreateVendor(_ context.Context, name string) (*Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vendors {
		if v.Name == name {
			return nil, Validationf("vendor %q already exists", name)
		}
	}
	v := Vendor{ID: m.nextVendor, Name: name, CreatedAt: time.Now()}
	m.nextVendor++
	m.vendors = append(m.vendors, v)
	return &v, nil
}

func (m *memStore) GetVendor(_ context.Context, id int64) (*Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vendors {
		if v.ID == id {
			out := v
			return &out, nil
		}
	}
	return nil, &NotFoundError{Resource: "vendor", ID: id}
}

func (m *memStore) ListVendors(_ context.Context) ([]Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Vendor(nil), m.vendors...), nil
}

func (m *memStore) CreatePurchaseOrder(_ context.Context, po *PurchaseOrder) (*PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *po
	created.ID = m.nextOrder
	created.CreatedAt = time.Now()
	m.nextOrder++
	m.orders = append(m.orders, created)
	out := created
	return &out, nil
}

func (m *memStore) GetPurchaseOrder(_ context.Context, id int64) (*PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, po := range m.orders {
		if po.ID == id {
			out := po
			return &out, nil
		}
	}
	return nil, &NotFoundError{Resource: "purchase order", ID: id}
}

func (m *memStore) ListActivePurchaseOrders(_ context.Context) ([]PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PurchaseOrder
	for _, po := range m.orders {
		if po.IsActive {
			out = append(out, po)
		}
	}
	return out, nil
}

func (m *memStore) ListPurchaseOrdersByVendor(_ context.Context, vendorID int64) ([]PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PurchaseOrder
	for _, po := range m.orders {
		if po.VendorID == vendorID {
			out = append(out, po)
		}
	}
	return out, nil
}

func (m *memStore) SetPurchaseOrderActive(_ context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == id {
			m.orders[i].IsActive = active
			return nil
		}
	}
	return &NotFoundError{Resource: "purchase order", ID: id}
}

func (m *memStore) InsertInvoice(_ context.Context, inv *Invoice) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *inv
	created.ID = m.nextInvoice
	created.CreatedAt = time.Now()
	m.nextInvoice++
	m.invoices = append(m.invoices, created)
	out := created
	return &out, nil
}

func (m *memStore) GetInvoice(_ context.Context, id int64) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.ID == id {
			out := inv
			return &out, nil
		}
	}
	return nil, &NotFoundError{Resource: "invoice", ID: id}
}

func (m *memStore) ListInvoices(_ context.Context, f InvoiceFilter) ([]Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Invoice
	for _, inv := range m.invoices {
		if f.PurchaseOrderID != nil && inv.PurchaseOrderID != *f.PurchaseOrderID {
			continue
		}
		if f.Status != nil && inv.Status != *f.Status {
			continue
		}
		if f.ServiceEndOnOrAfter != nil && inv.ServiceEnd.Before(*f.ServiceEndOnOrAfter) {
			continue
		}
		if f.VendorID != nil {
			var vendorMatch bool
			for _, po := range m.orders {
				if po.ID == inv.PurchaseOrderID && po.VendorID == *f.VendorID {
					vendorMatch = true
					break
				}
			}
			if !vendorMatch {
				continue
			}
		}
		out = append(out, inv)
	}
	return out, nil
}

func (m *memStore) UpdateInvoiceStatus(_ context.Context, id int64, status InvoiceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.invoices {
		if m.invoices[i].ID == id {
			m.invoices[i].Status = status
			return nil
		}
	}
	return &NotFoundError{Resource: "invoice", ID: id}
}

func (m *memStore) InsertTransaction(_ context.Context, entries []JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if e.PeriodKey != nil && e.PurchaseOrderID != nil {
			for _, existing := range m.entries {
				if existing.PeriodKey != nil && existing.PurchaseOrderID != nil &&
					*existing.PeriodKey == *e.PeriodKey &&
					*existing.PurchaseOrderID == *e.PurchaseOrderID &&
					existing.Account == e.Account {
					return Validationf("period %s already accrued for purchase order %d",
						*e.PeriodKey, *e.PurchaseOrderID)
				}
			}
		}
	}
	for _, e := range entries {
		e.ID = m.nextEntry
		m.nextEntry++
		m.entries = append(m.entries, e)
	}
	return nil
}

func (m *memStore) ListJournalEntries(_ context.Context, f EntryFilter) ([]JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []JournalEntry
	for _, e := range m.entries {
		if f.PurchaseOrderID != nil && (e.PurchaseOrderID == nil || *e.PurchaseOrderID != *f.PurchaseOrderID) {
			continue
		}
		if f.InvoiceID != nil && (e.InvoiceID == nil || *e.InvoiceID != *f.InvoiceID) {
			continue
		}
		if f.Account != nil && e.Account != *f.Account {
			continue
		}
		if f.EntryType != nil && e.EntryType != *f.EntryType {
			continue
		}
		if f.PeriodKey != nil && (e.PeriodKey == nil || *e.PeriodKey != *f.PeriodKey) {
			continue
		}
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Date.After(*f.To) {
			continue
		}
		if f.UnlinkedToInvoice && e.InvoiceID != nil {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// fixedClock pins Now for deterministic fiscal-year windows.
type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
