package db

import (
	"fmt"
	"log"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openMemory opens a private in-memory SQLite database with foreign keys on.
// One connection keeps every statement on the same in-memory database.
func openMemory() (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return conn, nil
}

// SetupTestDB creates an in-memory destination database with the storefront schema.
func SetupTestDB() (*gorm.DB, error) {
	conn, err := openMemory()
	if err != nil {
		return nil, err
	}
	if err := conn.AutoMigrate(model.DestinationModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}
	return conn, nil
}

// originSchema mirrors the origin database, whose columns are camelCase.
var originSchema = []string{
	`CREATE TABLE categories (id INTEGER PRIMARY KEY, category TEXT NOT NULL, "bgColor" TEXT, "displayOrder" INTEGER, "intervalMs" INTEGER, "createdAt" DATETIME)`,
	`CREATE TABLE brands (id INTEGER PRIMARY KEY, "categoryId" INTEGER, name TEXT NOT NULL, image TEXT, description TEXT, "displayOrder" INTEGER, "createdAt" DATETIME)`,
	`CREATE TABLE products (id INTEGER PRIMARY KEY, name TEXT NOT NULL, description TEXT, price REAL NOT NULL, image TEXT, category TEXT, "categoryId" INTEGER, stock INTEGER, featured BOOLEAN, "featuredLabel" TEXT, "createdAt" DATETIME)`,
	`CREATE TABLE store_locations (id INTEGER PRIMARY KEY, name TEXT NOT NULL, address TEXT, city TEXT, state TEXT, "zipCode" TEXT, phone TEXT, lat REAL, lng REAL, hours TEXT)`,
	`CREATE TABLE blog_categories (id INTEGER PRIMARY KEY, name TEXT NOT NULL, slug TEXT, "displayOrder" INTEGER)`,
	`CREATE TABLE blog_posts (id INTEGER PRIMARY KEY, "categoryId" INTEGER, title TEXT NOT NULL, slug TEXT, content TEXT, excerpt TEXT, published BOOLEAN, "createdAt" DATETIME, "updatedAt" DATETIME)`,
	`CREATE TABLE newsletter_subscriptions (email TEXT PRIMARY KEY, source TEXT, "subscribedAt" DATETIME)`,
	`CREATE TABLE users (id INTEGER PRIMARY KEY, username TEXT NOT NULL, password TEXT NOT NULL, role TEXT)`,
}

// SetupSourceTestDB creates an in-memory origin database. Tables listed in
// skip are not created.
func SetupSourceTestDB(skip ...string) (*gorm.DB, error) {
	conn, err := openMemory()
	if err != nil {
		return nil, err
	}
	skipped := make(map[string]bool, len(skip))
	for _, table := range skip {
		skipped[table] = true
	}
	for _, stmt := range originSchema {
		var table string
		fmt.Sscanf(stmt, "CREATE TABLE %s", &table)
		if skipped[table] {
			continue
		}
		if err := conn.Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("failed to create origin table %s: %w", table, err)
		}
	}
	return conn, nil
}

// CleanupTestDB cleans up the test database
func CleanupTestDB(conn *gorm.DB) {
	sqlDB, err := conn.DB()
	if err != nil {
		log.Printf("Failed to get DB instance: %v", err)
		return
	}
	sqlDB.Close()
}
