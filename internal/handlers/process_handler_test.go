package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/asakaida/purosesu/internal/entities"
	"github.com/asakaida/purosesu/internal/repositories"
	"github.com/asakaida/purosesu/internal/services"
)

// Stub ProcessService
type stubProcessService struct {
	createFunc  func(ctx context.Context, input *entities.ProcessInput) (*entities.Process, error)
	replaceFunc func(ctx context.Context, id int64, input *entities.ProcessInput) (*entities.Process, error)
	getFunc     func(ctx context.Context, id int64) (*entities.Process, error)
	listFunc    func(ctx context.Context, offset, limit int) ([]*entities.Process, error)
	deleteFunc  func(ctx context.Context, id int64) error

	createCalls  int
	replaceCalls int
}

func (s *stubProcessService) Create(ctx context.Context, input *entities.ProcessInput) (*entities.Process, error) {
	s.createCalls++
	return s.createFunc(ctx, input)
}

func (s *stubProcessService) Replace(ctx context.Context, id int64, input *entities.ProcessInput) (*entities.Process, error) {
	s.replaceCalls++
	return s.replaceFunc(ctx, id, input)
}

func (s *stubProcessService) GetByID(ctx context.Context, id int64) (*entities.Process, error) {
	return s.getFunc(ctx, id)
}

func (s *stubProcessService) List(ctx context.Context, offset, limit int) ([]*entities.Process, error) {
	return s.listFunc(ctx, offset, limit)
}

func (s *stubProcessService) Delete(ctx context.Context, id int64) error {
	return s.deleteFunc(ctx, id)
}

type countingRetries struct {
	count int
}

func (c *countingRetries) RecordRetry(route string) {
	c.count++
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func fastPolicy() services.RetryPolicy {
	return services.RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond}
}

func processRouter(service ProcessService, retries RetryRecorder) *mux.Router {
	h := NewProcessHandler(service, fastPolicy(), quietLogger(), retries)
	r := mux.NewRouter()
	registerProcessRoutes(r, h)
	return r
}

func sampleProcess() *entities.Process {
	return &entities.Process{
		ID:          1,
		Title:       "Onboarding",
		Description: "New hire onboarding",
		CreatedByID: 1,
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		CreatedBy:   &entities.User{ID: 1, Title: "alice"},
		Departments: []entities.Ref{{ID: 1, Title: "Engineering"}},
		Roles:       []entities.Ref{{ID: 3, Title: "Reviewer"}},
	}
}

func TestProcessHandler_Create(t *testing.T) {
	service := &stubProcessService{
		createFunc: func(ctx context.Context, input *entities.ProcessInput) (*entities.Process, error) {
			return sampleProcess(), nil
		},
	}
	router := processRouter(service, &countingRetries{})

	body := `{"title":"Onboarding","description":"New hire onboarding","created_by_id":1,"department_ids":[1],"role_ids":[3]}`
	req := httptest.NewRequest(http.MethodPost, "/processes", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp processResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.ID != 1 {
		t.Errorf("expected id 1, got %d", resp.ID)
	}
	if len(resp.Departments) != 1 || resp.Departments[0].Title != "Engineering" {
		t.Errorf("unexpected departments: %+v", resp.Departments)
	}
	if resp.CreatedBy == nil || resp.CreatedBy.Title != "alice" {
		t.Errorf("unexpected creator: %+v", resp.CreatedBy)
	}
	// Empty relation sets serialize as [], not null.
	if resp.Locations == nil {
		t.Error("expected locations to be an empty array")
	}
}

func TestProcessHandler_Create_InvalidJSON(t *testing.T) {
	service := &stubProcessService{
		createFunc: func(ctx context.Context, input *entities.ProcessInput) (*entities.Process, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	router := processRouter(service, &countingRetries{})

	req := httptest.NewRequest(http.MethodPost, "/processes", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestProcessHandler_Create_MissingTitle(t *testing.T) {
	service := &stubProcessService{
		createFunc: func(ctx context.Context, input *entities.ProcessInput) (*entities.Process, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	router := processRouter(service, &countingRetries{})

	body := `{"description":"no title","created_by_id":1}`
	req := httptest.NewRequest(http.MethodPost, "/processes", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestProcessHandler_Update_RetriesTransientThenSucceeds(t *testing.T) {
	retries := &countingRetries{}
	service := &stubProcessService{}
	service.replaceFunc = func(ctx context.Context, id int64, input *entities.ProcessInput) (*entities.Process, error) {
		if service.replaceCalls < 3 {
			return nil, &repositories.TransientConflictError{
				Reason: repositories.ConflictSerialization,
				Err:    errors.New("could not serialize access"),
			}
		}
		return sampleProcess(), nil
	}
	router := processRouter(service, retries)

	body := `{"title":"Onboarding","role_ids":[3]}`
	req := httptest.NewRequest(http.MethodPut, "/processes/1", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if service.replaceCalls != 3 {
		t.Errorf("expected 3 attempts, got %d", service.replaceCalls)
	}
	if retries.count != 2 {
		t.Errorf("expected 2 recorded retries, got %d", retries.count)
	}
}

func TestProcessHandler_Update_ConflictAfterRetriesExhausted(t *testing.T) {
	service := &stubProcessService{
		replaceFunc: func(ctx context.Context, id int64, input *entities.ProcessInput) (*entities.Process, error) {
			return nil, &repositories.TransientConflictError{
				Reason: repositories.ConflictDeadlock,
				Err:    errors.New("deadlock detected"),
			}
		},
	}
	router := processRouter(service, &countingRetries{})

	body := `{"title":"Onboarding"}`
	req := httptest.NewRequest(http.MethodPut, "/processes/1", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if service.replaceCalls != 3 {
		t.Errorf("expected 3 attempts, got %d", service.replaceCalls)
	}
}

func TestProcessHandler_Update_NoRetryOnPermanentFailure(t *testing.T) {
	service := &stubProcessService{
		replaceFunc: func(ctx context.Context, id int64, input *entities.ProcessInput) (*entities.Process, error) {
			return nil, repositories.ErrNotFound
		},
	}
	router := processRouter(service, &countingRetries{})

	body := `{"title":"Onboarding"}`
	req := httptest.NewRequest(http.MethodPut, "/processes/999", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if service.replaceCalls != 1 {
		t.Errorf("expected single attempt, got %d", service.replaceCalls)
	}
}

func TestProcessHandler_Update_ReferentialIntegrity(t *testing.T) {
	service := &stubProcessService{
		replaceFunc: func(ctx context.Context, id int64, input *entities.ProcessInput) (*entities.Process, error) {
			return nil, repositories.ErrReferentialIntegrity
		},
	}
	router := processRouter(service, &countingRetries{})

	body := `{"title":"Onboarding","department_ids":[999]}`
	req := httptest.NewRequest(http.MethodPut, "/processes/1", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if service.replaceCalls != 1 {
		t.Errorf("expected single attempt, got %d", service.replaceCalls)
	}
}

func TestProcessHandler_Update_CancelledContextStopsRetrying(t *testing.T) {
	service := &stubProcessService{}
	ctx, cancel := context.WithCancel(context.Background())
	service.replaceFunc = func(_ context.Context, id int64, input *entities.ProcessInput) (*entities.Process, error) {
		cancel()
		return nil, &repositories.TransientConflictError{
			Reason: repositories.ConflictLockTimeout,
			Err:    errors.New("lock timeout"),
		}
	}
	router := processRouter(service, &countingRetries{})

	body := `{"title":"Onboarding"}`
	req := httptest.NewRequest(http.MethodPut, "/processes/1", bytes.NewBufferString(body)).WithContext(ctx)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if service.replaceCalls != 1 {
		t.Errorf("expected retrying to stop after cancellation, got %d attempts", service.replaceCalls)
	}
}

func TestProcessHandler_Get_NotFound(t *testing.T) {
	service := &stubProcessService{
		getFunc: func(ctx context.Context, id int64) (*entities.Process, error) {
			return nil, repositories.ErrNotFound
		},
	}
	router := processRouter(service, &countingRetries{})

	req := httptest.NewRequest(http.MethodGet, "/processes/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestProcessHandler_Get_InvalidID(t *testing.T) {
	service := &stubProcessService{
		getFunc: func(ctx context.Context, id int64) (*entities.Process, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	router := processRouter(service, &countingRetries{})

	req := httptest.NewRequest(http.MethodGet, "/processes/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestProcessHandler_List_Pagination(t *testing.T) {
	var gotOffset, gotLimit int
	service := &stubProcessService{
		listFunc: func(ctx context.Context, offset, limit int) ([]*entities.Process, error) {
			gotOffset, gotLimit = offset, limit
			return []*entities.Process{}, nil
		},
	}
	router := processRouter(service, &countingRetries{})

	req := httptest.NewRequest(http.MethodGet, "/processes?offset=10&limit=5000", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotOffset != 10 {
		t.Errorf("expected offset 10, got %d", gotOffset)
	}
	if gotLimit != maxListLimit {
		t.Errorf("expected limit clamped to %d, got %d", maxListLimit, gotLimit)
	}
}

func TestProcessHandler_Delete(t *testing.T) {
	service := &stubProcessService{
		deleteFunc: func(ctx context.Context, id int64) error {
			return nil
		},
	}
	router := processRouter(service, &countingRetries{})

	req := httptest.NewRequest(http.MethodDelete, "/processes/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestProcessHandler_StorageUnavailable(t *testing.T) {
	service := &stubProcessService{
		getFunc: func(ctx context.Context, id int64) (*entities.Process, error) {
			return nil, repositories.ErrStorageUnavailable
		},
	}
	router := processRouter(service, &countingRetries{})

	req := httptest.NewRequest(http.MethodGet, "/processes/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
