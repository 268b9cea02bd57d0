package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/engine"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "ledger.bolt"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	e := engine.New(st, nil, nil)
	e.SetClock(func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) })

	srv := httptest.NewServer(NewRouter(e, Options{Quiet: true, ProjectionDays: 5}))
	t.Cleanup(func() {
		srv.Close()
		e.Close()
	})
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: failed to decode response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func createAccount(t *testing.T, srv *httptest.Server, name string, balance int64) model.Account {
	t.Helper()
	var resp struct {
		Account model.Account `json:"account"`
	}
	status := do(t, srv, http.MethodPost, "/api/v1/accounts/", map[string]interface{}{
		"name": name, "kind": "debit", "initial_balance": balance,
	}, &resp)
	if status != http.StatusCreated {
		t.Fatalf("POST /accounts status = %d, expected %d", status, http.StatusCreated)
	}
	return resp.Account
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status = %d, expected %d", resp.StatusCode, http.StatusOK)
	}
}

func TestAccountErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name      string
		method    string
		path      string
		body      interface{}
		expected  int
		errorCode string
	}{
		{"validation", http.MethodPost, "/api/v1/accounts/", map[string]string{"name": ""}, http.StatusBadRequest, "invalid_parameter"},
		{"not found", http.MethodGet, "/api/v1/accounts/missing", nil, http.StatusNotFound, "not_found"},
		{"bad body", http.MethodPost, "/api/v1/transactions/", "not an object", http.StatusBadRequest, "invalid_request"},
		{"bad limit", http.MethodGet, "/api/v1/transactions/?limit=ten", nil, http.StatusBadRequest, "invalid_parameter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ErrorResponse
			status := do(t, srv, tt.method, tt.path, tt.body, &resp)
			if status != tt.expected || resp.Error != tt.errorCode {
				t.Errorf("%s %s = %d %q, expected %d %q", tt.method, tt.path, status, resp.Error, tt.expected, tt.errorCode)
			}
		})
	}
}

func TestProjectionHorizon(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name      string
		query     string
		expected  int
		errorCode string
	}{
		{"default", "", http.StatusOK, ""},
		{"one year", "?days=366", http.StatusOK, ""},
		{"zero", "?days=0", http.StatusBadRequest, "invalid_parameter"},
		{"negative", "?days=-3", http.StatusBadRequest, "invalid_parameter"},
		{"above cap", "?days=367", http.StatusBadRequest, "invalid_parameter"},
		{"huge", "?days=9000000000000", http.StatusBadRequest, "invalid_parameter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ErrorResponse
			status := do(t, srv, http.MethodGet, "/api/v1/projection"+tt.query, nil, &resp)
			if status != tt.expected || resp.Error != tt.errorCode {
				t.Errorf("GET /projection%s = %d %q, expected %d %q", tt.query, status, resp.Error, tt.expected, tt.errorCode)
			}
		})
	}
}

func TestVersionConflict(t *testing.T) {
	srv := newTestServer(t)
	a := createAccount(t, srv, "Banco", 0)

	body := map[string]interface{}{"name": "Banco Azul", "version": a.Version}
	if status := do(t, srv, http.MethodPut, "/api/v1/accounts/"+a.ID, body, nil); status != http.StatusOK {
		t.Fatalf("first PUT status = %d, expected %d", status, http.StatusOK)
	}
	var resp ErrorResponse
	if status := do(t, srv, http.MethodPut, "/api/v1/accounts/"+a.ID, body, &resp); status != http.StatusConflict {
		t.Errorf("stale PUT status = %d, expected %d", status, http.StatusConflict)
	}
	if resp.Error != "conflict" {
		t.Errorf("error = %q, expected %q", resp.Error, "conflict")
	}
}

func TestTransferEndpoint(t *testing.T) {
	srv := newTestServer(t)
	a := createAccount(t, srv, "A", 500)
	b := createAccount(t, srv, "B", 0)

	status := do(t, srv, http.MethodPost, "/api/v1/transfers", map[string]interface{}{
		"from": a.ID, "to": b.ID, "amount": 200,
	}, nil)
	if status != http.StatusOK {
		t.Errorf("transfer status = %d, expected %d", status, http.StatusOK)
	}

	var rejected ErrorResponse
	status = do(t, srv, http.MethodPost, "/api/v1/transfers", map[string]interface{}{
		"from": a.ID, "to": b.ID, "amount": 1000,
	}, &rejected)
	if status != http.StatusUnprocessableEntity || rejected.Error != "transfer_rejected" {
		t.Errorf("overdraft transfer = %d %q, expected 422 transfer_rejected", status, rejected.Error)
	}

	var balance struct {
		Total decimal.Decimal `json:"total_balance"`
	}
	do(t, srv, http.MethodGet, "/api/v1/balance", nil, &balance)
	if !balance.Total.Equal(decimal.NewFromInt(500)) {
		t.Errorf("total balance = %s, expected 500", balance.Total)
	}

	var txns struct {
		Transactions []model.Transaction `json:"transactions"`
	}
	do(t, srv, http.MethodGet, "/api/v1/transactions/?account_id="+b.ID, nil, &txns)
	if len(txns.Transactions) != 1 || txns.Transactions[0].Direction != model.Income {
		t.Errorf("B transactions = %+v", txns.Transactions)
	}
}

func TestPayableFlow(t *testing.T) {
	srv := newTestServer(t)
	a := createAccount(t, srv, "Banco", 1000)

	var created struct {
		Payable model.Payable `json:"payable"`
	}
	bill := map[string]interface{}{"name": "Luz", "amount": "500", "due_date": "2024-06-03"}
	if status := do(t, srv, http.MethodPost, "/api/v1/payables/", bill, &created); status != http.StatusCreated {
		t.Fatalf("create payable status = %d", status)
	}
	if status := do(t, srv, http.MethodPost, "/api/v1/payables/", bill, nil); status != http.StatusBadRequest {
		t.Errorf("duplicate payable status = %d, expected %d", status, http.StatusBadRequest)
	}

	var projection struct {
		Projection []struct {
			Balance decimal.Decimal `json:"balance"`
		} `json:"projection"`
	}
	do(t, srv, http.MethodGet, "/api/v1/projection", nil, &projection)
	expected := []int64{1000, 1000, 500, 500, 500}
	if len(projection.Projection) != len(expected) {
		t.Fatalf("projection = %d points, expected %d", len(projection.Projection), len(expected))
	}
	for i, p := range projection.Projection {
		if !p.Balance.Equal(decimal.NewFromInt(expected[i])) {
			t.Errorf("projection[%d] = %s, expected %d", i, p.Balance, expected[i])
		}
	}

	var paid struct {
		Payable model.Payable `json:"payable"`
	}
	path := "/api/v1/payables/" + created.Payable.ID
	status := do(t, srv, http.MethodPost, path+"/pay", map[string]interface{}{"account_id": a.ID, "amount": 500}, &paid)
	if status != http.StatusOK || !paid.Payable.IsPaid {
		t.Errorf("pay = %d %+v, expected a paid bill", status, paid.Payable)
	}

	var pending struct {
		Payables []model.Payable `json:"payables"`
	}
	do(t, srv, http.MethodGet, "/api/v1/payables/?pending=true", nil, &pending)
	if len(pending.Payables) != 0 {
		t.Errorf("pending payables = %d, expected 0", len(pending.Payables))
	}

	do(t, srv, http.MethodPost, path+"/unpay", nil, &paid)
	if paid.Payable.IsPaid {
		t.Error("unpay left the bill paid")
	}

	var reconcile struct {
		Consistent bool `json:"consistent"`
	}
	do(t, srv, http.MethodGet, "/api/v1/reconcile", nil, &reconcile)
	if !reconcile.Consistent {
		t.Error("ledger is inconsistent after pay and unpay")
	}
}

func TestReceivablePayments(t *testing.T) {
	srv := newTestServer(t)
	a := createAccount(t, srv, "Banco", 0)

	var rc struct {
		Receivable model.Receivable `json:"receivable"`
	}
	body := map[string]interface{}{"client": map[string]string{"name": "Acme"}, "total": "1000"}
	if status := do(t, srv, http.MethodPost, "/api/v1/receivables/", body, &rc); status != http.StatusCreated {
		t.Fatalf("create receivable status = %d", status)
	}
	path := "/api/v1/receivables/" + rc.Receivable.ID

	do(t, srv, http.MethodPost, path+"/pay", map[string]interface{}{"account_id": a.ID, "amount": 1000}, &rc)
	if rc.Receivable.Status != model.StatusPaid {
		t.Errorf("status after pay = %q, expected %q", rc.Receivable.Status, model.StatusPaid)
	}

	status := do(t, srv, http.MethodPut, path+"/payments/0", map[string]interface{}{"date": "2024-05-30", "amount": 400}, &rc)
	if status != http.StatusOK || rc.Receivable.Status != model.StatusPending {
		t.Errorf("update payment = %d %q, expected 200 pending", status, rc.Receivable.Status)
	}

	if status := do(t, srv, http.MethodDelete, path+"/payments/3", nil, nil); status != http.StatusNotFound {
		t.Errorf("delete missing payment status = %d, expected %d", status, http.StatusNotFound)
	}
	if status := do(t, srv, http.MethodDelete, path+"/payments/x", nil, nil); status != http.StatusBadRequest {
		t.Errorf("delete payment with bad index status = %d, expected %d", status, http.StatusBadRequest)
	}
	do(t, srv, http.MethodDelete, path+"/payments/0", nil, &rc)
	if !rc.Receivable.PaidAmount.IsZero() || len(rc.Receivable.Payments) != 0 {
		t.Errorf("after delete payment = %+v", rc.Receivable)
	}
}

func TestClassifyEndpoint(t *testing.T) {
	srv := newTestServer(t)
	createAccount(t, srv, "Efectivo", 100)

	tests := []struct {
		name         string
		text         string
		expectStatus int
		expectKind   string
	}{
		{"expense", "Super 80 con efectivo", http.StatusOK, "expense"},
		{"payable", "Factura de luz 500 pendiente", http.StatusOK, "payable"},
		{"duplicate payable", "Factura de luz 500 pendiente", http.StatusUnprocessableEntity, "payable"},
		{"unknown", "hola", http.StatusOK, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ClassifyResponse
			status := do(t, srv, http.MethodPost, "/api/v1/classify", ClassifyRequest{Text: tt.text}, &resp)
			if status != tt.expectStatus || string(resp.Kind) != tt.expectKind {
				t.Errorf("classify(%q) = %d %q, expected %d %q", tt.text, status, resp.Kind, tt.expectStatus, tt.expectKind)
			}
		})
	}

	var stats struct {
		Stats model.Stats `json:"stats"`
	}
	do(t, srv, http.MethodGet, "/api/v1/stats", nil, &stats)
	if stats.Stats.Commands["payable"] != 2 {
		t.Errorf("payable commands = %d, expected 2", stats.Stats.Commands["payable"])
	}
}

func TestExportNotConfigured(t *testing.T) {
	srv := newTestServer(t)
	var resp ErrorResponse
	if status := do(t, srv, http.MethodPost, "/api/v1/export", nil, &resp); status != http.StatusNotFound {
		t.Errorf("POST /export status = %d, expected %d", status, http.StatusNotFound)
	}
}
