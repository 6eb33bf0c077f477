package migration

import (
	"fmt"

	"github.com/ikkim/storefront-backend/pkg/util"
)

// Row is one record keyed by column name.
type Row map[string]interface{}

// TableSpec describes how one origin table lands in the destination.
type TableSpec struct {
	Source    string // origin table
	Target    string // destination table
	Key       string // primary identifier, passed through unchanged
	Label     string // prefix of row error messages, e.g. "Brand 10: ..."
	ResultKey string // key in the summary results object
	DependsOn []string
	Renames   map[string]string      // origin column -> destination column
	Defaults  map[string]interface{} // destination column -> value when absent or null
	Validate  func(Row) error        // runs on the mapped row
}

// DefaultPlan is the storefront table set in dependency order.
func DefaultPlan() []TableSpec {
	return []TableSpec{
		{
			Source:    "categories",
			Target:    "brand_categories",
			Key:       "id",
			Label:     "Category",
			ResultKey: "categories",
			Renames: map[string]string{
				"bgColor":      "bg_color",
				"displayOrder": "display_order",
				"intervalMs":   "interval_ms",
				"createdAt":    "created_at",
			},
			Defaults: map[string]interface{}{
				"display_order": 0,
				"interval_ms":   5000,
			},
		},
		{
			Source:    "brands",
			Target:    "brands",
			Key:       "id",
			Label:     "Brand",
			ResultKey: "brands",
			DependsOn: []string{"categories"},
			Renames: map[string]string{
				"categoryId":   "category_id",
				"displayOrder": "display_order",
				"createdAt":    "created_at",
			},
			Defaults: map[string]interface{}{
				"display_order": 0,
				"description":   "",
			},
		},
		{
			Source:    "products",
			Target:    "products",
			Key:       "id",
			Label:     "Product",
			ResultKey: "products",
			DependsOn: []string{"categories"},
			Renames: map[string]string{
				"categoryId":    "category_id",
				"featuredLabel": "featured_label",
				"createdAt":     "created_at",
			},
			Defaults: map[string]interface{}{
				"stock":    0,
				"featured": false,
			},
		},
		{
			Source:    "store_locations",
			Target:    "store_locations",
			Key:       "id",
			Label:     "Store location",
			ResultKey: "storeLocations",
			Renames: map[string]string{
				"zipCode": "zip_code",
			},
		},
		{
			Source:    "blog_categories",
			Target:    "blog_categories",
			Key:       "id",
			Label:     "Blog category",
			ResultKey: "blogCategories",
			Renames: map[string]string{
				"displayOrder": "display_order",
			},
			Defaults: map[string]interface{}{
				"display_order": 0,
			},
		},
		{
			Source:    "blog_posts",
			Target:    "blog_posts",
			Key:       "id",
			Label:     "Blog post",
			ResultKey: "blogPosts",
			DependsOn: []string{"blog_categories"},
			Renames: map[string]string{
				"categoryId": "category_id",
				"createdAt":  "created_at",
				"updatedAt":  "updated_at",
			},
			Defaults: map[string]interface{}{
				"published": false,
			},
		},
		{
			Source:    "newsletter_subscriptions",
			Target:    "newsletter_subscriptions",
			Key:       "email",
			Label:     "Subscription",
			ResultKey: "subscriptions",
			Renames: map[string]string{
				"subscribedAt": "subscribed_at",
			},
			Defaults: map[string]interface{}{
				"source": "website",
			},
		},
		{
			Source:    "users",
			Target:    "users",
			Key:       "id",
			Label:     "User",
			ResultKey: "users",
			Defaults: map[string]interface{}{
				"role": "admin",
			},
			Validate: requireBcryptPassword,
		},
	}
}

func requireBcryptPassword(row Row) error {
	password, _ := row["password"].(string)
	if !util.IsPasswordHash(password) {
		return fmt.Errorf("password is not a bcrypt hash")
	}
	return nil
}

// ValidatePlan checks that every table comes after the tables it depends on.
func ValidatePlan(plan []TableSpec) error {
	seen := make(map[string]bool, len(plan))
	for _, spec := range plan {
		if spec.Source == "" || spec.Target == "" || spec.Key == "" {
			return fmt.Errorf("table spec %q is incomplete", spec.Source)
		}
		if seen[spec.Source] {
			return fmt.Errorf("table %s appears twice in the plan", spec.Source)
		}
		for _, dep := range spec.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("table %s is planned before its dependency %s", spec.Source, dep)
			}
		}
		seen[spec.Source] = true
	}
	return nil
}
