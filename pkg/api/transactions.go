package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/ledger"
)

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	ledger *ledger.Service
}

// NewTransactionsHandler creates a new TransactionsHandler.
func NewTransactionsHandler(l *ledger.Service) *TransactionsHandler {
	return &TransactionsHandler{ledger: l}
}

// EvidenceRequest is the body of the attachment endpoints.
type EvidenceRequest struct {
	Ref string `json:"ref"`
}

// List handles GET /api/v1/transactions with optional account_id and limit.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", -1)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit")
		return
	}

	txns, err := h.ledger.ListTransactions(r.Context(), r.URL.Query().Get("account_id"))
	if err != nil {
		writeServiceError(w, err, "Failed to list transactions")
		return
	}
	if limit >= 0 && len(txns) > limit {
		txns = txns[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txns})
}

// Create handles POST /api/v1/transactions.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ledger.Entry
	if !decodeJSON(w, r, &req) {
		return
	}
	txn, err := h.ledger.RecordTransaction(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Failed to record transaction")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"transaction": txn})
}

// Delete handles DELETE /api/v1/transactions/{id}. Unknown ids succeed.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AttachEvidence handles PUT /api/v1/transactions/{id}/evidence.
func (h *TransactionsHandler) AttachEvidence(w http.ResponseWriter, r *http.Request) {
	var req EvidenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	txn, err := h.ledger.AttachEvidence(r.Context(), chi.URLParam(r, "id"), req.Ref)
	if err != nil {
		writeServiceError(w, err, "Failed to attach evidence")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transaction": txn})
}
