package e2e

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/asakaida/purosesu/internal/entities"
	"github.com/asakaida/purosesu/internal/handlers"
	"github.com/asakaida/purosesu/internal/infrastructure/config"
	"github.com/asakaida/purosesu/internal/infrastructure/database"
	"github.com/asakaida/purosesu/internal/infrastructure/logging"
	"github.com/asakaida/purosesu/internal/repositories"
	"github.com/asakaida/purosesu/internal/repositories/postgres"
	"github.com/asakaida/purosesu/internal/services"
)

// E2ETestServer serves the full API over a live test database.
type E2ETestServer struct {
	Server *httptest.Server
	DB     *sql.DB
	pg     *database.Postgres
}

// SetupE2ETest wires repositories, services and handlers against the test
// database and starts an in-process HTTP server. Skips when the test
// database is not reachable.
func SetupE2ETest(t *testing.T) *E2ETestServer {
	t.Helper()

	if err := config.InitConfig("test"); err != nil {
		t.Skipf("test config not available: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Skipf("test config not available: %v", err)
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		t.Fatalf("failed to find project root: %v", err)
	}
	migrationsPath := filepath.Join(projectRoot, "internal/infrastructure/database/migrations/postgres")
	if err := pg.RunMigrations(migrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanupDatabase(t, pg.DB)

	logger := logging.New("error")
	policy := services.DefaultRetryPolicy()

	processRepo := postgres.NewPostgresProcessRepository(pg.DB, cfg.Database.AcquireTimeout())
	userRepo := postgres.NewPostgresUserRepository(pg.DB)
	catalogRepos := make(map[entities.RelationKind]repositories.CatalogRepository)
	for _, kind := range entities.RelationKinds {
		repo, err := postgres.NewPostgresCatalogRepository(pg.DB, kind)
		if err != nil {
			t.Fatalf("failed to create %s repository: %v", kind, err)
		}
		catalogRepos[kind] = repo
	}

	catalogHandler := func(kind entities.RelationKind, route string) *handlers.CatalogHandler {
		svc := services.NewCatalogService(kind, catalogRepos[kind], logger)
		return handlers.NewCatalogHandler(svc, route, policy, logger, nil)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Process:     handlers.NewProcessHandler(services.NewProcessService(processRepo, logger), policy, logger, nil),
		Departments: catalogHandler(entities.KindDepartment, "/departments"),
		Locations:   catalogHandler(entities.KindLocation, "/locations"),
		Resources:   catalogHandler(entities.KindResource, "/resources"),
		Roles:       catalogHandler(entities.KindRole, "/roles"),
		Users:       handlers.NewUserHandler(services.NewUserService(userRepo, logger), logger),
		Health:      pg,
		Log:         logger,
	})

	server := httptest.NewServer(router)

	return &E2ETestServer{
		Server: server,
		DB:     pg.DB,
		pg:     pg,
	}
}

// Teardown stops the server and closes the database connection.
func (s *E2ETestServer) Teardown(t *testing.T) {
	t.Helper()
	s.Server.Close()
	if err := s.pg.Close(); err != nil {
		t.Errorf("failed to close database: %v", err)
	}
}

func cleanupDatabase(t *testing.T, db *sql.DB) {
	t.Helper()

	// Junction tables first, then owners of FK targets last.
	tables := []string{
		"department_process",
		"location_process",
		"resource_process",
		"role_process",
		"process",
		"departments",
		"locations",
		"resources",
		"roles",
		"users",
	}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Fatalf("failed to clean table %s: %v", table, err)
		}
	}
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

// doJSON issues one request and decodes the response body into out when
// out is non-nil. Returns the status code.
func (s *E2ETestServer) doJSON(t *testing.T, method, path string, body interface{}, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.Server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("failed to decode response %s: %v", string(raw), err)
		}
	}
	return resp.StatusCode
}

// Response shapes used by the scenario tests.
type refBody struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type userBody struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type catalogBody struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	CreatedByID int64     `json:"created_by_id"`
	CreatedBy   *userBody `json:"created_by"`
	Processes   []refBody `json:"processes"`
}

type processBody struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedByID int64     `json:"created_by_id"`
	CreatedBy   *userBody `json:"created_by"`
	Departments []refBody `json:"departments"`
	Locations   []refBody `json:"locations"`
	Resources   []refBody `json:"resources"`
	Roles       []refBody `json:"roles"`
}

// seedCatalogs creates one user and a few entries in every catalog,
// returning the user id and catalog ids keyed by route.
func (s *E2ETestServer) seedCatalogs(t *testing.T) (int64, map[string][]int64) {
	t.Helper()

	var user userBody
	if status := s.doJSON(t, http.MethodPost, "/users", map[string]interface{}{"title": "alice"}, &user); status != http.StatusCreated {
		t.Fatalf("failed to create user: status %d", status)
	}

	ids := make(map[string][]int64)
	for _, route := range []string{"/departments", "/locations", "/resources", "/roles"} {
		for i := 0; i < 3; i++ {
			var entry catalogBody
			payload := map[string]interface{}{
				"title":         fmt.Sprintf("%s-%d", route[1:], i+1),
				"created_by_id": user.ID,
			}
			if status := s.doJSON(t, http.MethodPost, route, payload, &entry); status != http.StatusCreated {
				t.Fatalf("failed to seed %s: status %d", route, status)
			}
			ids[route] = append(ids[route], entry.ID)
		}
	}
	return user.ID, ids
}

func refIDs(refs []refBody) []int64 {
	out := make([]int64, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref.ID)
	}
	return out
}

func sameIDSet(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int64]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}
