package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"bookkeeper/internal/core"
)

type postInvoiceRequest struct {
	Description  string          `json:"description"`
	IssuedDate   string          `json:"issued_date"`
	Amount       decimal.Decimal `json:"amount"`
	ServiceStart string          `json:"service_start"`
	ServiceEnd   string          `json:"service_end"`
	Status       string          `json:"status"`
}

func (h *Handler) handlePostInvoice(w http.ResponseWriter, r *http.Request) {
	poID := pathID(w, r)
	if poID == 0 {
		return
	}
	var req postInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	issued, err := parseDate(req.IssuedDate)
	if err != nil {
		writeError(w, r, "invalid issued_date: "+req.IssuedDate, "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	start, err := parseDate(req.ServiceStart)
	if err != nil {
		writeError(w, r, "invalid service_start: "+req.ServiceStart, "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	end, err := parseDate(req.ServiceEnd)
	if err != nil {
		writeError(w, r, "invalid service_end: "+req.ServiceEnd, "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	inv, err := h.invoices.PostInvoice(r.Context(), core.PostInvoiceRequest{
		PurchaseOrderID: poID,
		Description:     req.Description,
		IssuedDate:      issued,
		Amount:          req.Amount,
		ServiceStart:    start,
		ServiceEnd:      end,
		Status:          core.InvoiceStatus(req.Status),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(inv)
}

func (h *Handler) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	var filter core.InvoiceFilter
	if raw := r.URL.Query().Get("purchase_order_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, r, "invalid purchase_order_id: "+raw, "VALIDATION_ERROR", http.StatusBadRequest)
			return
		}
		filter.PurchaseOrderID = &id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := core.InvoiceStatus(raw)
		filter.Status = &status
	}
	invoices, err := h.invoices.ListInvoices(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, invoices)
}

func (h *Handler) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id := pathID(w, r)
	if id == 0 {
		return
	}
	inv, err := h.invoices.GetInvoice(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, inv)
}

type makePaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

func (h *Handler) handleMakePayment(w http.ResponseWriter, r *http.Request) {
	id := pathID(w, r)
	if id == 0 {
		return
	}
	var req makePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, "invalid date: "+req.Date, "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	inv, err := h.invoices.MakePayment(r.Context(), id, req.Amount, date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, inv)
}
