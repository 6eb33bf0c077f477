package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/connector"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/migration"
	"github.com/ikkim/storefront-backend/internal/router"
	"github.com/ikkim/storefront-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type TestServer struct {
	Router      *gin.Engine
	Origin      *gorm.DB
	Destination *gorm.DB
}

// keepOpen leaves the shared in-memory databases open between runs.
type keepOpenSource struct{ migration.Source }

func (keepOpenSource) Close() error { return nil }

type keepOpenTarget struct{ migration.Target }

func (keepOpenTarget) Close() error { return nil }

// cancelOnFirstUpsert cancels the request context once the first row is written.
type cancelOnFirstUpsert struct {
	keepOpenTarget
	once   sync.Once
	cancel context.CancelFunc
}

func (c *cancelOnFirstUpsert) Upsert(ctx context.Context, table, key string, row migration.Row) *migration.WriteError {
	werr := c.keepOpenTarget.Upsert(ctx, table, key, row)
	c.once.Do(c.cancel)
	return werr
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	origin, err := db.SetupSourceTestDB()
	require.NoError(t, err)
	destination, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(origin)
		db.CleanupTestDB(destination)
	})

	migrator, err := migration.New(
		func(context.Context) (migration.Source, error) {
			return keepOpenSource{connector.NewGormSource(origin)}, nil
		},
		func(context.Context) (migration.Target, error) {
			return keepOpenTarget{connector.NewGormTarget(destination)}, nil
		},
		migration.Options{},
	)
	require.NoError(t, err)

	return newTestServer(t, migrator, origin, destination)
}

func newTestServer(t *testing.T, runner *migration.Migrator, origin, destination *gorm.DB) *TestServer {
	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	migrationService, cleanup, err := NewMigrationService(cfg, runner)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	engine := router.NewRouter(controller.NewMigrationController(migrationService), nil, cfg).Setup()
	return &TestServer{Router: engine, Origin: origin, Destination: destination}
}

func (ts *TestServer) migrate(t *testing.T) (int, map[string]interface{}) {
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/migrate", nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestIntegration_MigrateStorefront(t *testing.T) {
	ts := setupIntegrationTest(t)

	hash, err := util.HashPassword("admin-password")
	require.NoError(t, err)

	for _, stmt := range []string{
		`INSERT INTO categories (id, category, "bgColor", "displayOrder", "intervalMs") VALUES (1, 'Delta', 'bg-green-500', 1, 4000), (2, 'CBD', NULL, NULL, NULL)`,
		`INSERT INTO brands (id, "categoryId", name) VALUES (10, 1, 'Delta 8'), (11, 2, 'Calm'), (12, 99, 'Orphan')`,
		`INSERT INTO products (id, name, price, "categoryId", featured, "featuredLabel") VALUES (5, 'Gummies', 29.99, 1, 1, 'New')`,
		`INSERT INTO store_locations (id, name, "zipCode", lat, lng) VALUES (1, 'Downtown', '30301', 33.75, -84.39)`,
		`INSERT INTO blog_categories (id, name, slug) VALUES (1, 'News', 'news')`,
		`INSERT INTO blog_posts (id, "categoryId", title, slug) VALUES (1, 1, 'Hello', 'hello')`,
		`INSERT INTO newsletter_subscriptions (email, source) VALUES ('fan@example.com', 'footer')`,
		`INSERT INTO users (id, username, password) VALUES (1, 'admin', '` + hash + `'), (2, 'legacy', 'plaintext')`,
	} {
		require.NoError(t, ts.Origin.Exec(stmt).Error)
	}

	status, body := ts.migrate(t)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Migration completed with 2 errors", body["message"])

	results := body["results"].(map[string]interface{})
	assert.EqualValues(t, 2, results["categories"])
	assert.EqualValues(t, 2, results["brands"])
	assert.EqualValues(t, 1, results["products"])
	assert.EqualValues(t, 1, results["storeLocations"])
	assert.EqualValues(t, 1, results["blogCategories"])
	assert.EqualValues(t, 1, results["blogPosts"])
	assert.EqualValues(t, 1, results["subscriptions"])
	assert.EqualValues(t, 1, results["users"])

	errs := results["errors"].([]interface{})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "Brand 12: ")
	assert.Equal(t, "User 2: password is not a bcrypt hash", errs[1])

	var category struct {
		BgColor      string
		DisplayOrder int
		IntervalMs   int
	}
	require.NoError(t, ts.Destination.Table("brand_categories").Select("bg_color, display_order, interval_ms").Where("id = ?", 2).Scan(&category).Error)
	assert.Equal(t, 0, category.DisplayOrder)
	assert.Equal(t, 5000, category.IntervalMs)

	var role string
	require.NoError(t, ts.Destination.Raw("SELECT role FROM users WHERE id = 1").Scan(&role).Error)
	assert.Equal(t, "admin", role)

	// a second pass changes nothing
	status, again := ts.migrate(t)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, body["results"], again["results"])

	var brands int64
	require.NoError(t, ts.Destination.Table("brands").Count(&brands).Error)
	assert.EqualValues(t, 2, brands)
}

func TestIntegration_ClientDisconnectDoesNotCutRunShort(t *testing.T) {
	gin.SetMode(gin.TestMode)
	origin, err := db.SetupSourceTestDB()
	require.NoError(t, err)
	destination, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(origin)
		db.CleanupTestDB(destination)
	})

	for _, stmt := range []string{
		`INSERT INTO categories (id, category) VALUES (1, 'Delta'), (2, 'CBD')`,
		`INSERT INTO brands (id, "categoryId", name) VALUES (10, 1, 'Delta 8'), (11, 2, 'Calm')`,
		`INSERT INTO newsletter_subscriptions (email) VALUES ('fan@example.com')`,
	} {
		require.NoError(t, origin.Exec(stmt).Error)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	target := &cancelOnFirstUpsert{
		keepOpenTarget: keepOpenTarget{connector.NewGormTarget(destination)},
		cancel:         cancel,
	}
	migrator, err := migration.New(
		func(context.Context) (migration.Source, error) {
			return keepOpenSource{connector.NewGormSource(origin)}, nil
		},
		func(context.Context) (migration.Target, error) {
			return target, nil
		},
		migration.Options{},
	)
	require.NoError(t, err)
	ts := newTestServer(t, migrator, origin, destination)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/migrate", nil).WithContext(ctx)
	ts.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Error(t, ctx.Err())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	results := body["results"].(map[string]interface{})
	assert.Empty(t, results["errors"])
	assert.EqualValues(t, 2, results["categories"])
	assert.EqualValues(t, 2, results["brands"])
	assert.EqualValues(t, 1, results["subscriptions"])

	var brands int64
	require.NoError(t, destination.Table("brands").Count(&brands).Error)
	assert.EqualValues(t, 2, brands)
}

func TestIntegration_OriginUnreachable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	migrator, err := migration.New(
		func(context.Context) (migration.Source, error) {
			return nil, errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
		},
		func(context.Context) (migration.Target, error) {
			t.Fatal("destination must not be opened")
			return nil, nil
		},
		migration.Options{},
	)
	require.NoError(t, err)
	ts := newTestServer(t, migrator, nil, nil)

	status, body := ts.migrate(t)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "MIGRATION_CONNECTION_FAILED", body["error"])
	assert.Contains(t, body["details"], "connection refused")
}
