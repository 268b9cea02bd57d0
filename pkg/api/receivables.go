package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/receivable"
)

// ReceivablesHandler handles invoice and client endpoints.
type ReceivablesHandler struct {
	receivables *receivable.Service
}

// NewReceivablesHandler creates a new ReceivablesHandler.
func NewReceivablesHandler(s *receivable.Service) *ReceivablesHandler {
	return &ReceivablesHandler{receivables: s}
}

// PaymentUpdateRequest is the body of PUT /receivables/{id}/payments/{index}.
// Date is YYYY-MM-DD.
type PaymentUpdateRequest struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// List handles GET /api/v1/receivables.
func (h *ReceivablesHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.receivables.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list receivables")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"receivables": list})
}

// Get handles GET /api/v1/receivables/{id}.
func (h *ReceivablesHandler) Get(w http.ResponseWriter, r *http.Request) {
	rc, err := h.receivables.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to get receivable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"receivable": rc})
}

// Create handles POST /api/v1/receivables.
func (h *ReceivablesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req receivable.Input
	if !decodeJSON(w, r, &req) {
		return
	}
	rc, err := h.receivables.Add(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Failed to create receivable")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"receivable": rc})
}

// Update handles PUT /api/v1/receivables/{id}.
func (h *ReceivablesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req receivable.Update
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	rc, err := h.receivables.Update(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Failed to update receivable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"receivable": rc})
}

// Delete handles DELETE /api/v1/receivables/{id}.
func (h *ReceivablesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.receivables.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to delete receivable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pay handles POST /api/v1/receivables/{id}/pay.
func (h *ReceivablesHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req PayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rc, err := h.receivables.Pay(r.Context(), chi.URLParam(r, "id"), req.AccountID, req.Amount, req.Proof)
	if err != nil {
		writeServiceError(w, err, "Failed to register collection")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"receivable": rc})
}

// UpdatePayment handles PUT /api/v1/receivables/{id}/payments/{index}.
func (h *ReceivablesHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid payment index")
		return
	}
	var req PaymentUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := time.Parse(model.DateLayout, req.Date)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid date")
		return
	}

	rc, err := h.receivables.UpdatePayment(r.Context(), chi.URLParam(r, "id"), index, date, req.Amount)
	if err != nil {
		writeServiceError(w, err, "Failed to update payment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"receivable": rc})
}

// DeletePayment handles DELETE /api/v1/receivables/{id}/payments/{index}.
// The income transaction of the payment stays on the ledger.
func (h *ReceivablesHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid payment index")
		return
	}
	rc, err := h.receivables.DeletePayment(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		writeServiceError(w, err, "Failed to delete payment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"receivable": rc})
}

// ListClients handles GET /api/v1/clients.
func (h *ReceivablesHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.receivables.ListClients(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list clients")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"clients": clients})
}

// CreateClient handles POST /api/v1/clients.
func (h *ReceivablesHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req receivable.ClientInput
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.receivables.AddClient(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Failed to create client")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"client": c})
}

// UpdateClient handles PUT /api/v1/clients/{id}.
func (h *ReceivablesHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req receivable.ClientInput
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.receivables.UpdateClient(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err, "Failed to update client")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"client": c})
}

// DeleteClient handles DELETE /api/v1/clients/{id}.
func (h *ReceivablesHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.receivables.DeleteClient(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to delete client")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
