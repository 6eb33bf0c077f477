package migration

import (
	"testing"

	"github.com/ikkim/storefront-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func specFor(t *testing.T, source string) TableSpec {
	for _, spec := range DefaultPlan() {
		if spec.Source == source {
			return spec
		}
	}
	t.Fatalf("no spec for %s", source)
	return TableSpec{}
}

func TestMapRow_RenamesAndDefaults(t *testing.T) {
	tests := []struct {
		name   string
		source string
		row    Row
		want   Row
	}{
		{
			name:   "Category gets carousel defaults",
			source: "categories",
			row:    Row{"id": 1, "category": "Delta", "bgColor": "bg-green-500"},
			want:   Row{"id": 1, "category": "Delta", "bg_color": "bg-green-500", "display_order": 0, "interval_ms": 5000},
		},
		{
			name:   "Null display order is replaced",
			source: "categories",
			row:    Row{"id": 2, "category": "CBD", "displayOrder": nil, "intervalMs": 8000},
			want:   Row{"id": 2, "category": "CBD", "display_order": 0, "interval_ms": 8000},
		},
		{
			name:   "Brand category reference is renamed",
			source: "brands",
			row:    Row{"id": 10, "categoryId": 1, "name": "Delta 8", "displayOrder": 3},
			want:   Row{"id": 10, "category_id": 1, "name": "Delta 8", "display_order": 3, "description": ""},
		},
		{
			name:   "Product featured label",
			source: "products",
			row:    Row{"id": 5, "name": "Gummies", "price": 29.99, "featuredLabel": "New", "featured": true, "stock": 12},
			want:   Row{"id": 5, "name": "Gummies", "price": 29.99, "featured_label": "New", "featured": true, "stock": 12},
		},
		{
			name:   "Unmapped columns pass through",
			source: "store_locations",
			row:    Row{"id": 7, "name": "Downtown", "zipCode": "30301", "lat": 33.75, "lng": -84.39, "hours": "9-9"},
			want:   Row{"id": 7, "name": "Downtown", "zip_code": "30301", "lat": 33.75, "lng": -84.39, "hours": "9-9"},
		},
		{
			name:   "Subscription keyed by email",
			source: "newsletter_subscriptions",
			row:    Row{"email": "fan@example.com"},
			want:   Row{"email": "fan@example.com", "source": "website"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MapRow(specFor(t, tt.source), 0, tt.row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapRow_DoesNotModifyInput(t *testing.T) {
	row := Row{"id": 10, "categoryId": 1, "name": "Delta 8"}
	spec := specFor(t, "brands")

	first, err := MapRow(spec, 0, row)
	require.NoError(t, err)
	second, err := MapRow(spec, 0, row)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, Row{"id": 10, "categoryId": 1, "name": "Delta 8"}, row)
}

func TestMapRow_MissingKey(t *testing.T) {
	tests := []struct {
		name   string
		source string
		row    Row
		field  string
	}{
		{name: "Absent id", source: "brands", row: Row{"categoryId": 1, "name": "No ID"}, field: "id"},
		{name: "Null id", source: "products", row: Row{"id": nil, "name": "Null ID"}, field: "id"},
		{name: "Empty email", source: "newsletter_subscriptions", row: Row{"email": ""}, field: "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MapRow(specFor(t, tt.source), 4, tt.row)
			assert.Nil(t, got)

			var mapErr *MappingError
			require.ErrorAs(t, err, &mapErr)
			assert.Equal(t, tt.field, mapErr.Field)
			assert.Equal(t, 4, mapErr.Row)
			assert.Equal(t, tt.source, mapErr.Table)
		})
	}
}

func TestMapRow_UserPasswordMustBeHashed(t *testing.T) {
	spec := specFor(t, "users")

	_, err := MapRow(spec, 0, Row{"id": 1, "username": "admin", "password": "hunter2"})
	var mapErr *MappingError
	require.ErrorAs(t, err, &mapErr)
	assert.Equal(t, "password is not a bcrypt hash", mapErr.Reason)

	hashed, err := util.HashPassword("hunter2")
	require.NoError(t, err)
	got, err := MapRow(spec, 0, Row{"id": 1, "username": "admin", "password": hashed})
	require.NoError(t, err)
	assert.Equal(t, "admin", got["role"])
}

func TestValidatePlan(t *testing.T) {
	assert.NoError(t, ValidatePlan(DefaultPlan()))

	plan := DefaultPlan()
	plan[0], plan[1] = plan[1], plan[0]
	err := ValidatePlan(plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brands is planned before its dependency categories")

	dup := append(DefaultPlan(), DefaultPlan()[0])
	assert.Error(t, ValidatePlan(dup))
}
