package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/catalog"
)

// CatalogHandler handles category and todo endpoints.
type CatalogHandler struct {
	catalog *catalog.Service
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(c *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// ListCategories handles GET /api/v1/categories.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// CreateCategory handles POST /api/v1/categories.
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req catalog.CategoryInput
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.catalog.CreateCategory(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Failed to create category")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"category": c})
}

// UpdateCategory handles PUT /api/v1/categories/{id}.
func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req catalog.CategoryInput
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.catalog.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err, "Failed to update category")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"category": c})
}

// DeleteCategory handles DELETE /api/v1/categories/{id}.
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTodos handles GET /api/v1/todos.
func (h *CatalogHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.catalog.ListTodos(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list todos")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"todos": todos})
}

// CreateTodo handles POST /api/v1/todos.
func (h *CatalogHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var req catalog.TodoInput
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.catalog.CreateTodo(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Failed to create todo")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"todo": t})
}

// ToggleTodo handles POST /api/v1/todos/{id}/toggle.
func (h *CatalogHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	t, err := h.catalog.ToggleTodo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to toggle todo")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"todo": t})
}

// DeleteTodo handles DELETE /api/v1/todos/{id}.
func (h *CatalogHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteTodo(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to delete todo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
