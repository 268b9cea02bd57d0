package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/payable"
)

// PayablesHandler handles bill endpoints.
type PayablesHandler struct {
	payables *payable.Service
}

// NewPayablesHandler creates a new PayablesHandler.
func NewPayablesHandler(p *payable.Service) *PayablesHandler {
	return &PayablesHandler{payables: p}
}

// PayRequest is the body of the pay endpoints.
type PayRequest struct {
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Proof     string          `json:"proof,omitempty"`
}

// List handles GET /api/v1/payables. pending=true limits to unpaid bills.
func (h *PayablesHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		bills []model.Payable
		err   error
	)
	if r.URL.Query().Get("pending") == "true" {
		bills, err = h.payables.Pending(r.Context())
	} else {
		bills, err = h.payables.List(r.Context())
	}
	if err != nil {
		writeServiceError(w, err, "Failed to list payables")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payables": bills})
}

// Get handles GET /api/v1/payables/{id}.
func (h *PayablesHandler) Get(w http.ResponseWriter, r *http.Request) {
	bill, err := h.payables.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to get payable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payable": bill})
}

// Create handles POST /api/v1/payables.
func (h *PayablesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req payable.Input
	if !decodeJSON(w, r, &req) {
		return
	}
	bill, err := h.payables.Add(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Failed to create payable")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"payable": bill})
}

// Update handles PUT /api/v1/payables/{id}.
func (h *PayablesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req payable.Update
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	bill, err := h.payables.Update(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Failed to update payable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payable": bill})
}

// Delete handles DELETE /api/v1/payables/{id}.
func (h *PayablesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.payables.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to delete payable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pay handles POST /api/v1/payables/{id}/pay.
func (h *PayablesHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req PayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	bill, err := h.payables.Pay(r.Context(), chi.URLParam(r, "id"), req.AccountID, req.Amount)
	if err != nil {
		writeServiceError(w, err, "Failed to pay payable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payable": bill})
}

// Unpay handles POST /api/v1/payables/{id}/unpay.
func (h *PayablesHandler) Unpay(w http.ResponseWriter, r *http.Request) {
	bill, err := h.payables.Unpay(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to unpay payable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payable": bill})
}

// AttachReceipt handles PUT /api/v1/payables/{id}/receipt.
func (h *PayablesHandler) AttachReceipt(w http.ResponseWriter, r *http.Request) {
	var req EvidenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	bill, err := h.payables.AttachReceipt(r.Context(), chi.URLParam(r, "id"), req.Ref)
	if err != nil {
		writeServiceError(w, err, "Failed to attach receipt")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payable": bill})
}
