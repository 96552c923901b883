package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/asakaida/purosesu/internal/entities"
	"github.com/asakaida/purosesu/internal/repositories"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// Headers are already out; nothing left to do for the client.
			return
		}
	}
}

// respondError maps a failure onto an HTTP status and a JSON detail body.
// Transient conflicts reach here only after the retry loop gave up.
func respondError(w http.ResponseWriter, log *logrus.Logger, err error) {
	var verr *entities.ValidationError
	var tcErr *repositories.TransientConflictError

	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: verr.Error()})
	case errors.Is(err, repositories.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Detail: "not found"})
	case errors.Is(err, repositories.ErrReferentialIntegrity):
		respondJSON(w, http.StatusBadRequest, errorResponse{Detail: "referenced entity does not exist"})
	case errors.As(err, &tcErr):
		log.WithFields(logrus.Fields{
			"event":  "conflict_retries_exhausted",
			"reason": string(tcErr.Reason),
		}).Warn("transient conflict persisted after retries")
		respondJSON(w, http.StatusConflict, errorResponse{Detail: "concurrent update conflict, please retry"})
	case errors.Is(err, repositories.ErrStorageUnavailable):
		log.WithError(err).Error("storage unavailable")
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Detail: "storage unavailable"})
	default:
		log.WithError(err).Error("unhandled error")
		respondJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal server error"})
	}
}

// pathID extracts the {id} route variable.
func pathID(vars map[string]string) (int64, error) {
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, &entities.ValidationError{Field: "id", Reason: "must be a positive integer"}
	}
	return id, nil
}

// pagination reads offset/limit query params with defaults 0/100. The
// limit is clamped so a single request cannot scan the whole table.
func pagination(r *http.Request) (offset, limit int) {
	offset = 0
	limit = defaultListLimit

	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return offset, limit
}
