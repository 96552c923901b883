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

// ProcessService is the service surface the process handler needs.
type ProcessService interface {
	Create(ctx context.Context, input *entities.ProcessInput) (*entities.Process, error)
	Replace(ctx context.Context, id int64, input *entities.ProcessInput) (*entities.Process, error)
	GetByID(ctx context.Context, id int64) (*entities.Process, error)
	List(ctx context.Context, offset, limit int) ([]*entities.Process, error)
	Delete(ctx context.Context, id int64) error
}

// ProcessHandler serves the /processes routes. The mutation handlers run
// the advisory retry loop; reads go straight through.
type ProcessHandler struct {
	service ProcessService
	policy  services.RetryPolicy
	log     *logrus.Logger
	retries RetryRecorder
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(service ProcessService, policy services.RetryPolicy, log *logrus.Logger, retries RetryRecorder) *ProcessHandler {
	return &ProcessHandler{service: service, policy: policy, log: log, retries: retries}
}

// Create handles POST /processes.
func (h *ProcessHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req processCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, &entities.ValidationError{Field: "body", Reason: "is not valid JSON"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, h.log, err)
		return
	}

	var proc *entities.Process
	err := withRetry(r.Context(), h.policy, h.log, h.retries, "/processes", func() error {
		var opErr error
		proc, opErr = h.service.Create(r.Context(), req.toInput())
		return opErr
	})
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, toProcessResponse(proc))
}

// Get handles GET /processes/{id}.
func (h *ProcessHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(mux.Vars(r))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	proc, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toProcessResponse(proc))
}

// List handles GET /processes.
func (h *ProcessHandler) List(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	processes, err := h.service.List(r.Context(), offset, limit)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	out := make([]*processResponse, 0, len(processes))
	for _, proc := range processes {
		out = append(out, toProcessResponse(proc))
	}
	respondJSON(w, http.StatusOK, out)
}

// Update handles PUT /processes/{id}. The relation sets in the body
// replace the stored sets entirely.
func (h *ProcessHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(mux.Vars(r))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var req processUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, &entities.ValidationError{Field: "body", Reason: "is not valid JSON"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, h.log, err)
		return
	}

	var proc *entities.Process
	err = withRetry(r.Context(), h.policy, h.log, h.retries, "/processes/{id}", func() error {
		var opErr error
		proc, opErr = h.service.Replace(r.Context(), id, req.toInput())
		return opErr
	})
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toProcessResponse(proc))
}

// Delete handles DELETE /processes/{id}.
func (h *ProcessHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(mux.Vars(r))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	err = withRetry(r.Context(), h.policy, h.log, h.retries, "/processes/{id}", func() error {
		return h.service.Delete(r.Context(), id)
	})
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
