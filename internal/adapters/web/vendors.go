package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"bookkeeper/internal/core"
)

type createVendorRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleCreateVendor(w http.ResponseWriter, r *http.Request) {
	var req createVendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	vendor, err := h.vendors.CreateVendor(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(vendor)
}

func (h *Handler) handleListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.vendors.ListVendors(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, vendors)
}

func (h *Handler) handleGetVendor(w http.ResponseWriter, r *http.Request) {
	id := pathID(w, r)
	if id == 0 {
		return
	}
	vendor, err := h.vendors.GetVendor(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, vendor)
}

type createPurchaseOrderRequest struct {
	Description    string          `json:"description"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	Frequency      string          `json:"frequency"`
	AdvancePayment decimal.Decimal `json:"advance_payment"`
}

func (h *Handler) handleCreatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	vendorID := pathID(w, r)
	if vendorID == 0 {
		return
	}
	var req createPurchaseOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, r, "invalid start_date: "+req.StartDate, "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, r, "invalid end_date: "+req.EndDate, "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	po, err := h.vendors.CreatePurchaseOrder(r.Context(), core.CreatePurchaseOrderRequest{
		VendorID:       vendorID,
		Description:    req.Description,
		TotalAmount:    req.TotalAmount,
		StartDate:      start,
		EndDate:        end,
		Frequency:      core.Frequency(req.Frequency),
		AdvancePayment: req.AdvancePayment,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(po)
}

func (h *Handler) handleListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	vendorID := pathID(w, r)
	if vendorID == 0 {
		return
	}
	orders, err := h.vendors.ListPurchaseOrders(r.Context(), vendorID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, orders)
}

func (h *Handler) handleDeactivatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id := pathID(w, r)
	if id == 0 {
		return
	}
	if err := h.vendors.DeactivatePurchaseOrder(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "deactivated"})
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
