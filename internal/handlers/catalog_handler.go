package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/asakaida/purosesu/internal/entities"
	"github.com/asakaida/purosesu/internal/services"
)

// CatalogService is the service surface the catalog handler needs.
type CatalogService interface {
	Kind() entities.RelationKind
	Create(ctx context.Context, input *entities.CatalogInput) (*entities.CatalogEntry, error)
	GetByID(ctx context.Context, id int64) (*entities.CatalogEntry, error)
	List(ctx context.Context, offset, limit int) ([]*entities.CatalogEntry, error)
	Update(ctx context.Context, id int64, input *entities.CatalogInput) (*entities.CatalogEntry, error)
	Delete(ctx context.Context, id int64) error
}

// CatalogHandler serves one catalog entity's routes. One instance is
// registered per relation kind.
type CatalogHandler struct {
	service CatalogService
	policy  services.RetryPolicy
	log     *logrus.Logger
	retries RetryRecorder
	route   string
}

// NewCatalogHandler creates a CatalogHandler mounted at the given route
// prefix, e.g. "/departments".
func NewCatalogHandler(service CatalogService, route string, policy services.RetryPolicy, log *logrus.Logger, retries RetryRecorder) *CatalogHandler {
	return &CatalogHandler{service: service, policy: policy, log: log, retries: retries, route: route}
}

// Create handles POST on the catalog route.
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req catalogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, &entities.ValidationError{Field: "body", Reason: "is not valid JSON"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, h.log, err)
		return
	}

	entry, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, toCatalogResponse(entry))
}

// Get handles GET {route}/{id}.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(mux.Vars(r))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	entry, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toCatalogResponse(entry))
}

// List handles GET on the catalog route.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	entries, err := h.service.List(r.Context(), offset, limit)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	out := make([]*catalogResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toCatalogResponse(entry))
	}
	respondJSON(w, http.StatusOK, out)
}

// Update handles PUT {route}/{id}.
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(mux.Vars(r))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var req catalogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, &entities.ValidationError{Field: "body", Reason: "is not valid JSON"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, h.log, err)
		return
	}

	entry, err := h.service.Update(r.Context(), id, req.toInput())
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toCatalogResponse(entry))
}

// Delete handles DELETE {route}/{id}. Deleting an entry also clears its
// junction rows, so a concurrent replace on the same process can surface a
// transient conflict here; the retry loop covers that.
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(mux.Vars(r))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	err = withRetry(r.Context(), h.policy, h.log, h.retries, h.route+"/{id}", func() error {
		return h.service.Delete(r.Context(), id)
	})
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
