package api

import (
	"net/http"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/classifier"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/engine"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/export"
)

// InsightsHandler handles the classifier, the read-only reports and the
// export trigger.
type InsightsHandler struct {
	engine         *engine.Engine
	projectionDays int
	exporter       *export.Exporter
}

// NewInsightsHandler creates a new InsightsHandler. exporter may be nil.
func NewInsightsHandler(e *engine.Engine, projectionDays int, exporter *export.Exporter) *InsightsHandler {
	return &InsightsHandler{engine: e, projectionDays: projectionDays, exporter: exporter}
}

// ClassifyRequest is the body of POST /api/v1/classify.
type ClassifyRequest struct {
	Text string `json:"text"`
}

// ClassifyResponse reports a classification. A failed classification
// answers 422 with the same body.
type ClassifyResponse struct {
	Kind    classifier.Kind   `json:"kind"`
	Status  classifier.Status `json:"status"`
	Message string            `json:"message"`
}

// Classify handles POST /api/v1/classify.
func (h *InsightsHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res := h.engine.Classify(r.Context(), req.Text)

	status := http.StatusOK
	if res.Status == classifier.StatusFailed {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, ClassifyResponse{Kind: res.Kind, Status: res.Status, Message: res.Message})
}

// Projection handles GET /api/v1/projection?days=N.
func (h *InsightsHandler) Projection(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(r, "days", h.projectionDays)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid days")
		return
	}
	points, err := h.engine.Cashflow.Project(r.Context(), days)
	if err != nil {
		writeServiceError(w, err, "Failed to project cash flow")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projection": points})
}

// Health handles GET /api/v1/summary.
func (h *InsightsHandler) Health(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.Cashflow.Health(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to compute summary")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"summary": summary})
}

// Reconcile handles GET /api/v1/reconcile.
func (h *InsightsHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	discrepancies, err := h.engine.Ledger.Reconcile(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to reconcile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"consistent":    len(discrepancies) == 0,
		"discrepancies": discrepancies,
	})
}

// Stats handles GET /api/v1/stats.
func (h *InsightsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to get statistics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
}

// Export handles POST /api/v1/export?dry_run=true.
func (h *InsightsHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeJSONError(w, http.StatusNotFound, "not_found", "Export is not configured")
		return
	}
	q := r.URL.Query()
	report, err := h.exporter.Run(r.Context(), export.Options{
		From:   q.Get("from"),
		To:     q.Get("to"),
		DryRun: q.Get("dry_run") == "true",
	})
	if err != nil {
		writeServiceError(w, err, "Failed to export")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"export": report})
}
