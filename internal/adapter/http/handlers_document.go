package http

import (
	"net/http"

	"github.com/Strob0t/MissionControl/internal/domain/document"
)

const documentNotFound = "document not found"

// ListDocuments handles GET /api/v1/documents?type=&tag=&limit=
func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	filter := document.ListFilter{Tag: r.URL.Query().Get("tag"), Limit: limit}
	if t := r.URL.Query().Get("type"); t != "" {
		dt := document.Type(t)
		filter.Type = &dt
	}
	docs, err := h.Documents.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err, documentNotFound)
		return
	}
	if docs == nil {
		docs = []document.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// GetDocument handles GET /api/v1/documents/{id}
func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Documents.Get, documentNotFound)(w, r)
}

// CreateDocument handles POST /api/v1/documents
func (h *Handlers) CreateDocument(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Documents.Create, documentNotFound)(w, r)
}

// UpdateDocument handles PATCH /api/v1/documents/{id}
func (h *Handlers) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.Documents.Update, documentNotFound)(w, r)
}

// DeleteDocument handles DELETE /api/v1/documents/{id}
func (h *Handlers) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Documents.Delete, documentNotFound)(w, r)
}
