package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookkeeper/internal/core"
)

// emptyStore satisfies core.Store with no data, enough to route requests
// through real services.
type emptyStore struct{}

func (emptyStore) CreateVendor(context.Context, string) (*core.Vendor, error) { return nil, nil }
func (emptyStore) GetVendor(_ context.Context, id int64) (*core.Vendor, error) {
	return nil, &core.NotFoundError{Resource: "vendor", ID: id}
}
func (emptyStore) ListVendors(context.Context) ([]core.Vendor, error) { return nil, nil }
func (emptyStore) CreatePurchaseOrder(context.Context, *core.PurchaseOrder) (*core.PurchaseOrder, error) {
	return nil, nil
}
func (emptyStore) GetPurchaseOrder(_ context.Context, id int64) (*core.PurchaseOrder, error) {
	return nil, &core.NotFoundError{Resource: "purchase order", ID: id}
}
func (emptyStore) ListActivePurchaseOrders(context.Context) ([]core.PurchaseOrder, error) {
	return nil, nil
}
func (emptyStore) ListPurchaseOrdersByVendor(context.Context, int64) ([]core.PurchaseOrder, error) {
	return nil, nil
}
func (emptyStore) SetPurchaseOrderActive(context.Context, int64, bool) error { return nil }
func (emptyStore) InsertInvoice(context.Context, *core.Invoice) (*core.Invoice, error) {
	return nil, nil
}
func (emptyStore) GetInvoice(_ context.Context, id int64) (*core.Invoice, error) {
	return nil, &core.NotFoundError{Resource: "invoice", ID: id}
}
func (emptyStore) ListInvoices(context.Context, core.InvoiceFilter) ([]core.Invoice, error) {
	return nil, nil
}
func (emptyStore) UpdateInvoiceStatus(context.Context, int64, core.InvoiceStatus) error { return nil }
func (emptyStore) InsertTransaction(context.Context, []core.JournalEntry) error         { return nil }
func (emptyStore) ListJournalEntries(context.Context, core.EntryFilter) ([]core.JournalEntry, error) {
	return nil, nil
}

type stubClock struct{ now time.Time }

func (c stubClock) Now() time.Time { return c.now }

func newTestRouter(clock core.Clock) http.Handler {
	store := emptyStore{}
	log := zerolog.Nop()
	h := NewHandler(
		core.NewVendorService(store, log),
		core.NewInvoiceService(store, clock, log),
		core.NewAccrualEngine(store, log),
		core.NewReportingService(store),
		clock,
		log,
	)
	return h.Router(nil)
}

func TestRunAccrualsDefaultsToClock(t *testing.T) {
	now := time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC)
	router := newTestRouter(stubClock{now: now})

	req := httptest.NewRequest(http.MethodPost, "/api/accruals/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var run core.AccrualRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.True(t, run.AsOf.Equal(now), "as_of = %s, want the injected clock's %s", run.AsOf, now)
}

func TestRunAccrualsDateOverride(t *testing.T) {
	router := newTestRouter(stubClock{now: time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)})

	req := httptest.NewRequest(http.MethodPost, "/api/accruals/run?date=2024-01-31", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var run core.AccrualRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.True(t, run.AsOf.Equal(time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)))
}

func TestNotFoundMapsTo404(t *testing.T) {
	router := newTestRouter(stubClock{now: time.Now()})

	req := httptest.NewRequest(http.MethodGet, "/api/vendors/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Code)
	assert.NotEmpty(t, resp.RequestID)
}
