package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dimitrije/trainerhub/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// resetOrder lists every table owned by the migrations, children first.
var resetOrder = []string{
	"leads",
	"refresh_tokens",
	"profiles_media",
	"users_providers_tokens",
	"users_profiles",
	"users",
}

// TestDB is a migrated PostgreSQL database shared by every test of a package.
type TestDB struct {
	DB        *database.DB
	Container testcontainers.Container
}

var (
	sharedOnce sync.Once
	sharedDB   *TestDB
	sharedErr  error
)

// SetupTestDB returns the package-wide database, starting the container on
// first use. Tables are truncated when the calling test finishes.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	sharedOnce.Do(func() {
		sharedDB, sharedErr = startPostgres(context.Background())
	})
	if sharedErr != nil {
		t.Fatalf("failed to start test database: %v", sharedErr)
	}

	t.Cleanup(func() { sharedDB.CleanTables(t) })
	return sharedDB
}

// TerminateTestDB stops the shared container. Call it from TestMain after m.Run.
func TerminateTestDB() {
	if sharedDB == nil {
		return
	}
	sharedDB.DB.Close()
	_ = sharedDB.Container.Terminate(context.Background())
}

func startPostgres(ctx context.Context) (*TestDB, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "trainerhub",
				"POSTGRES_PASSWORD": "trainerhub",
				"POSTGRES_DB":       "trainerhub_test",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(90*time.Second),
				wait.ForListeningPort("5432/tcp"),
			),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	endpoint, err := container.PortEndpoint(ctx, "5432/tcp", "")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("resolve endpoint: %w", err)
	}

	db, err := database.New(ctx, fmt.Sprintf("postgres://trainerhub:trainerhub@%s/trainerhub_test?sslmode=disable", endpoint))
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &TestDB{DB: db, Container: container}, nil
}

// CleanTables empties every table in one statement.
func (tdb *TestDB) CleanTables(t *testing.T) {
	t.Helper()

	stmt := "TRUNCATE TABLE " + strings.Join(resetOrder, ", ") + " RESTART IDENTITY CASCADE"
	if _, err := tdb.DB.Pool.Exec(context.Background(), stmt); err != nil {
		t.Fatalf("failed to reset tables: %v", err)
	}
}
