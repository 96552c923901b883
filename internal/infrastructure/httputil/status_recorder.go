// Package httputil holds small HTTP helpers shared by the middlewares.
package httputil

import "net/http"

// StatusRecorder wraps a ResponseWriter and remembers the status code
// written to it. A handler that never calls WriteHeader counts as 200.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

// NewStatusRecorder wraps w with the status preset to 200.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

func (r *StatusRecorder) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}
