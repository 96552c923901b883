package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/asakaida/purosesu/internal/entities"
)

// UserService is the service surface the user handler needs.
type UserService interface {
	Create(ctx context.Context, input *entities.UserInput) (*entities.User, error)
	GetByID(ctx context.Context, id int64) (*entities.User, error)
	List(ctx context.Context, offset, limit int) ([]*entities.User, error)
	Update(ctx context.Context, id int64, input *entities.UserInput) (*entities.User, error)
	Delete(ctx context.Context, id int64) error
}

// UserHandler serves the /users routes.
type UserHandler struct {
	service UserService
	log     *logrus.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service UserService, log *logrus.Logger) *UserHandler {
	return &UserHandler{service: service, log: log}
}

// Create handles POST /users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, &entities.ValidationError{Field: "body", Reason: "is not valid JSON"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, h.log, err)
		return
	}

	user, err := h.service.Create(r.Context(), &entities.UserInput{Title: req.Title})
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, toUserResponse(user))
}

// Get handles GET /users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(mux.Vars(r))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	user, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	users, err := h.service.List(r.Context(), offset, limit)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	out := make([]*userResponse, 0, len(users))
	for _, user := range users {
		out = append(out, toUserResponse(user))
	}
	respondJSON(w, http.StatusOK, out)
}

// Update handles PUT /users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(mux.Vars(r))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, &entities.ValidationError{Field: "body", Reason: "is not valid JSON"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, h.log, err)
		return
	}

	user, err := h.service.Update(r.Context(), id, &entities.UserInput{Title: req.Title})
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// Delete handles DELETE /users/{id}. A user still referenced as a creator
// cannot be removed.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(mux.Vars(r))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
