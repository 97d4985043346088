package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"bookkeeper/internal/core"
)

// Handler wires the bookkeeping services to the HTTP surface.
type Handler struct {
	vendors   *core.VendorService
	invoices  *core.InvoiceService
	accruals  *core.AccrualEngine
	reporting *core.ReportingService
	clock     core.Clock
	log       zerolog.Logger
}

func NewHandler(
	vendors *core.VendorService,
	invoices *core.InvoiceService,
	accruals *core.AccrualEngine,
	reporting *core.ReportingService,
	clock core.Clock,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		vendors:   vendors,
		invoices:  invoices,
		accruals:  accruals,
		reporting: reporting,
		clock:     clock,
		log:       log,
	}
}

// Router assembles the full route tree with the standard middleware chain.
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(h.log))
	r.Use(Recoverer(h.log))
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.handleHealth)

	r.Route("/api/vendors", func(r chi.Router) {
		r.Post("/", h.handleCreateVendor)
		r.Get("/", h.handleListVendors)
		r.Get("/{id}", h.handleGetVendor)
		r.Post("/{id}/purchase-orders", h.handleCreatePurchaseOrder)
		r.Get("/{id}/purchase-orders", h.handleListPurchaseOrders)
	})

	r.Route("/api/purchase-orders", func(r chi.Router) {
		r.Post("/{id}/deactivate", h.handleDeactivatePurchaseOrder)
		r.Post("/{id}/invoices", h.handlePostInvoice)
	})

	r.Route("/api/invoices", func(r chi.Router) {
		r.Get("/", h.handleListInvoices)
		r.Get("/{id}", h.handleGetInvoice)
		r.Post("/{id}/payments", h.handleMakePayment)
	})

	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/income-statement", h.handleIncomeStatement)
		r.Get("/balance-sheet", h.handleBalanceSheet)
	})

	r.Get("/api/journal-entries", h.handleListJournalEntries)
	r.Get("/api/accounts", h.handleListAccounts)
	r.Post("/api/accruals/run", h.handleRunAccruals)

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// pathID parses the {id} URL parameter. A zero return means the error
// response was already written.
func pathID(w http.ResponseWriter, r *http.Request) int64 {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id in path: "+raw, "VALIDATION_ERROR", http.StatusBadRequest)
		return 0
	}
	return id
}
