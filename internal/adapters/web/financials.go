package web

import (
	"net/http"
)

func (h *Handler) handleIncomeStatement(w http.ResponseWriter, r *http.Request) {
	stmt, err := h.reporting.GetIncomeStatement(r.Context(),
		r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, stmt)
}

func (h *Handler) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.reporting.GetBalanceSheet(r.Context(),
		r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sheet)
}

func (h *Handler) handleListJournalEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.reporting.GetJournalEntries(r.Context(),
		r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, entries)
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.reporting.GetAccounts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, accounts)
}

// handleRunAccruals triggers an accrual cycle on demand. The optional date
// query parameter backdates the run, which is how a missed month gets
// caught up.
func (h *Handler) handleRunAccruals(w http.ResponseWriter, r *http.Request) {
	asOf := h.clock.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			writeError(w, r, "invalid date: "+raw, "VALIDATION_ERROR", http.StatusBadRequest)
			return
		}
		asOf = parsed
	}
	run, err := h.accruals.RunAccrualCycle(r.Context(), asOf)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, run)
}
