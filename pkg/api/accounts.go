package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/ledger"
)

// AccountsHandler handles account and transfer endpoints.
type AccountsHandler struct {
	ledger *ledger.Service
}

// NewAccountsHandler creates a new AccountsHandler.
func NewAccountsHandler(l *ledger.Service) *AccountsHandler {
	return &AccountsHandler{ledger: l}
}

// TransferRequest is the body of POST /api/v1/transfers.
type TransferRequest struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// List handles GET /api/v1/accounts.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.ledger.ListAccounts(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list accounts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"accounts": accounts})
}

// Get handles GET /api/v1/accounts/{id}.
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.ledger.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to get account")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"account": account})
}

// Create handles POST /api/v1/accounts.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ledger.AccountInput
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := h.ledger.CreateAccount(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Failed to create account")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"account": account})
}

// Update handles PUT /api/v1/accounts/{id}.
func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ledger.AccountUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := h.ledger.UpdateAccount(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err, "Failed to update account")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"account": account})
}

// Delete handles DELETE /api/v1/accounts/{id}. Transactions of the account
// are deleted with it.
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transfer handles POST /api/v1/transfers. A rejected transfer answers 422.
func (h *AccountsHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ok, err := h.ledger.Transfer(r.Context(), req.From, req.To, req.Amount)
	if err != nil {
		writeServiceError(w, err, "Failed to transfer")
		return
	}
	if !ok {
		writeJSONError(w, http.StatusUnprocessableEntity, "transfer_rejected",
			"Both accounts must exist, the amount must be positive and covered by the source balance")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transferred": true})
}

// Balance handles GET /api/v1/balance.
func (h *AccountsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	total, err := h.ledger.TotalBalance(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to compute balance")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"total_balance": total})
}
