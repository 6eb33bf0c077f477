package migration_test

import (
	"context"
	"strings"
	"testing"

	"github.com/ikkim/storefront-backend/internal/connector"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingTarget logs the table of every upsert and ignores Close so the
// in-memory destination survives between runs.
type recordingTarget struct {
	migration.Target
	upserts []string
}

func (r *recordingTarget) Upsert(ctx context.Context, table, key string, row migration.Row) *migration.WriteError {
	r.upserts = append(r.upserts, table)
	return r.Target.Upsert(ctx, table, key, row)
}

func (r *recordingTarget) Close() error { return nil }

type openSource struct {
	migration.Source
}

func (openSource) Close() error { return nil }

type testStores struct {
	origin      *gorm.DB
	destination *gorm.DB
	target      *recordingTarget
}

func setupStores(t *testing.T, skip ...string) *testStores {
	origin, err := db.SetupSourceTestDB(skip...)
	require.NoError(t, err)
	destination, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(origin)
		db.CleanupTestDB(destination)
	})

	return &testStores{
		origin:      origin,
		destination: destination,
		target:      &recordingTarget{Target: connector.NewGormTarget(destination)},
	}
}

func (s *testStores) migrator(t *testing.T, opts migration.Options) *migration.Migrator {
	m, err := migration.New(
		func(context.Context) (migration.Source, error) {
			return openSource{connector.NewGormSource(s.origin)}, nil
		},
		func(context.Context) (migration.Target, error) {
			return s.target, nil
		},
		opts,
	)
	require.NoError(t, err)
	return m
}

func (s *testStores) seed(t *testing.T, stmts ...string) {
	for _, stmt := range stmts {
		require.NoError(t, s.origin.Exec(stmt).Error)
	}
}

func (s *testStores) count(t *testing.T, table string) int64 {
	var n int64
	require.NoError(t, s.destination.Table(table).Count(&n).Error)
	return n
}

func TestRun_CategoryAndBrand(t *testing.T) {
	stores := setupStores(t)
	stores.seed(t,
		`INSERT INTO categories (id, category) VALUES (1, 'Delta')`,
		`INSERT INTO brands (id, "categoryId", name) VALUES (10, 1, 'Delta 8')`,
	)

	report, err := stores.migrator(t, migration.Options{}).Run(context.Background())
	require.NoError(t, err)

	results := report.Results()
	assert.Equal(t, 1, results["categories"])
	assert.Equal(t, 1, results["brands"])
	assert.Equal(t, []string{}, results["errors"])
	assert.True(t, report.FullyVerified())

	var brand struct {
		CategoryID   int
		DisplayOrder int
	}
	require.NoError(t, stores.destination.Table("brands").Select("category_id, display_order").Where("id = ?", 10).Scan(&brand).Error)
	assert.Equal(t, 1, brand.CategoryID)
	assert.Equal(t, 0, brand.DisplayOrder)
}

func TestRun_ForeignKeyFailureIsReported(t *testing.T) {
	stores := setupStores(t)
	stores.seed(t,
		`INSERT INTO categories (id, category) VALUES (1, 'Delta')`,
		`INSERT INTO brands (id, "categoryId", name) VALUES (10, 99, 'Orphan')`,
	)

	report, err := stores.migrator(t, migration.Options{}).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Success())
	require.Len(t, report.Errors, 1)
	assert.True(t, strings.HasPrefix(report.Errors[0], "Brand 10: "), report.Errors[0])
	assert.Equal(t, 0, report.Results()["brands"])
	assert.Equal(t, 1, report.Results()["categories"])
	assert.Equal(t, []string{"brands"}, report.Mismatches())
}

func TestRun_SecondRunIsIdempotent(t *testing.T) {
	stores := setupStores(t)
	stores.seed(t,
		`INSERT INTO categories (id, category, "bgColor") VALUES (1, 'Delta', 'bg-green-500'), (2, 'CBD', NULL)`,
		`INSERT INTO brands (id, "categoryId", name) VALUES (10, 1, 'Delta 8'), (11, 2, 'Calm')`,
		`INSERT INTO newsletter_subscriptions (email) VALUES ('fan@example.com')`,
	)

	m := stores.migrator(t, migration.Options{})
	first, err := m.Run(context.Background())
	require.NoError(t, err)
	second, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Results(), second.Results())
	assert.EqualValues(t, 2, stores.count(t, "brand_categories"))
	assert.EqualValues(t, 2, stores.count(t, "brands"))
	assert.EqualValues(t, 1, stores.count(t, "newsletter_subscriptions"))
	assert.True(t, second.FullyVerified())
}

func TestRun_ParentsWrittenBeforeChildren(t *testing.T) {
	stores := setupStores(t)
	stores.seed(t,
		`INSERT INTO categories (id, category) VALUES (1, 'Delta'), (2, 'CBD')`,
		`INSERT INTO brands (id, "categoryId", name) VALUES (10, 1, 'Delta 8'), (11, 2, 'Calm')`,
		`INSERT INTO blog_categories (id, name) VALUES (1, 'News')`,
		`INSERT INTO blog_posts (id, "categoryId", title) VALUES (1, 1, 'Hello')`,
	)

	_, err := stores.migrator(t, migration.Options{}).Run(context.Background())
	require.NoError(t, err)

	position := func(table string, last bool) int {
		idx := -1
		for i, name := range stores.target.upserts {
			if name == table {
				idx = i
				if !last {
					break
				}
			}
		}
		return idx
	}
	assert.Less(t, position("brand_categories", true), position("brands", false))
	assert.Less(t, position("blog_categories", true), position("blog_posts", false))
}

func TestRun_ResetRemovesStaleRows(t *testing.T) {
	stores := setupStores(t)
	stores.seed(t, `INSERT INTO categories (id, category) VALUES (1, 'Delta')`)
	require.NoError(t, stores.destination.Exec(`INSERT INTO brand_categories (id, category) VALUES (42, 'Stale')`).Error)
	require.NoError(t, stores.destination.Exec(`INSERT INTO brands (id, category_id, name) VALUES (420, 42, 'Stale')`).Error)

	report, err := stores.migrator(t, migration.Options{ResetBeforeMigrate: true}).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Errors)
	assert.EqualValues(t, 1, stores.count(t, "brand_categories"))
	assert.EqualValues(t, 0, stores.count(t, "brands"))
}

func TestRun_MissingOriginTable(t *testing.T) {
	stores := setupStores(t, "store_locations")
	stores.seed(t, `INSERT INTO categories (id, category) VALUES (1, 'Delta')`)

	report, err := stores.migrator(t, migration.Options{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, migration.StateDone, report.State)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "store_locations")
	assert.Equal(t, 1, report.Results()["categories"])
}
