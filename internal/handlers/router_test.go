package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/asakaida/purosesu/internal/entities"
	"github.com/asakaida/purosesu/internal/repositories"
)

// Stub UserService
type stubUserService struct {
	createFunc func(ctx context.Context, input *entities.UserInput) (*entities.User, error)
	getFunc    func(ctx context.Context, id int64) (*entities.User, error)
	listFunc   func(ctx context.Context, offset, limit int) ([]*entities.User, error)
	updateFunc func(ctx context.Context, id int64, input *entities.UserInput) (*entities.User, error)
	deleteFunc func(ctx context.Context, id int64) error
}

func (s *stubUserService) Create(ctx context.Context, input *entities.UserInput) (*entities.User, error) {
	return s.createFunc(ctx, input)
}

func (s *stubUserService) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	return s.getFunc(ctx, id)
}

func (s *stubUserService) List(ctx context.Context, offset, limit int) ([]*entities.User, error) {
	return s.listFunc(ctx, offset, limit)
}

func (s *stubUserService) Update(ctx context.Context, id int64, input *entities.UserInput) (*entities.User, error) {
	return s.updateFunc(ctx, id, input)
}

func (s *stubUserService) Delete(ctx context.Context, id int64) error {
	return s.deleteFunc(ctx, id)
}

type stubHealth struct {
	err error
}

func (s *stubHealth) HealthCheck() error { return s.err }

func testRouter(health HealthChecker) http.Handler {
	log := quietLogger()
	policy := fastPolicy()
	retries := &countingRetries{}

	processSvc := &stubProcessService{
		listFunc: func(ctx context.Context, offset, limit int) ([]*entities.Process, error) {
			return []*entities.Process{}, nil
		},
	}
	catalogSvc := func(kind entities.RelationKind) *stubCatalogService {
		return &stubCatalogService{
			kind: kind,
			listFunc: func(ctx context.Context, offset, limit int) ([]*entities.CatalogEntry, error) {
				return []*entities.CatalogEntry{}, nil
			},
		}
	}
	userSvc := &stubUserService{
		listFunc: func(ctx context.Context, offset, limit int) ([]*entities.User, error) {
			return []*entities.User{}, nil
		},
		deleteFunc: func(ctx context.Context, id int64) error {
			return repositories.ErrReferentialIntegrity
		},
	}

	router := NewRouter(RouterConfig{
		Process:     NewProcessHandler(processSvc, policy, log, retries),
		Departments: NewCatalogHandler(catalogSvc(entities.KindDepartment), "/departments", policy, log, retries),
		Locations:   NewCatalogHandler(catalogSvc(entities.KindLocation), "/locations", policy, log, retries),
		Resources:   NewCatalogHandler(catalogSvc(entities.KindResource), "/resources", policy, log, retries),
		Roles:       NewCatalogHandler(catalogSvc(entities.KindRole), "/roles", policy, log, retries),
		Users:       NewUserHandler(userSvc, log),
		Health:      health,
		Log:         log,
	})
	return router
}

func TestRouter_Healthz(t *testing.T) {
	router := testRouter(&stubHealth{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_Healthz_Unhealthy(t *testing.T) {
	router := testRouter(&stubHealth{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRouter_AllListRoutesRegistered(t *testing.T) {
	router := testRouter(&stubHealth{})

	for _, route := range []string{"/processes", "/departments", "/locations", "/resources", "/roles", "/users"} {
		req := httptest.NewRequest(http.MethodGet, route, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", route, rec.Code)
		}
	}
}

func TestRouter_UserDelete_ReferentialIntegrity(t *testing.T) {
	router := testRouter(&stubHealth{})

	req := httptest.NewRequest(http.MethodDelete, "/users/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
