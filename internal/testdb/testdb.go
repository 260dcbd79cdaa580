// Package testdb opens throwaway sqlite databases carrying the full schema and
// seeds the rows most service tests start from.
package testdb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/pkg/db"
	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
)

// Open returns a migrated in-memory database unique to the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:pb_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// Shared-cache memory databases vanish with their last connection.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// Client wraps conn in the transaction runner services expect.
func Client(conn *gorm.DB) *db.Client {
	return db.FromGorm(conn)
}

func Customer(t testing.TB, conn *gorm.DB, name string) models.Customer {
	t.Helper()
	user := models.User{
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PasswordHash: "x",
		DisplayName:  name,
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	mustCreate(t, conn, &user)
	customer := models.Customer{
		UserID:      user.ID,
		CompanyName: name + " Corp",
		ContactName: name,
		Email:       user.Email,
	}
	mustCreate(t, conn, &customer)
	return customer
}

func Distributor(t testing.TB, conn *gorm.DB, name string) models.Distributor {
	t.Helper()
	user := models.User{
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PasswordHash: "x",
		DisplayName:  name,
		Role:         enums.UserRoleDistributor,
		IsActive:     true,
	}
	mustCreate(t, conn, &user)
	distributor := models.Distributor{
		UserID:      user.ID,
		CompanyName: name,
		Email:       user.Email,
		IsActive:    true,
	}
	mustCreate(t, conn, &distributor)
	return distributor
}

func Category(t testing.TB, conn *gorm.DB, name string) models.Category {
	t.Helper()
	category := models.Category{Name: name}
	mustCreate(t, conn, &category)
	return category
}

func Product(t testing.TB, conn *gorm.DB, sku string) models.Product {
	t.Helper()
	product := models.Product{
		SKU:          sku,
		Name:         "Part " + sku,
		Manufacturer: "Acme",
		IsActive:     true,
	}
	mustCreate(t, conn, &product)
	return product
}

func Inventory(t testing.TB, conn *gorm.DB, distributorID, productID uuid.UUID, price string, stock, deliveryDays int) models.DistributorInventory {
	t.Helper()
	row := models.DistributorInventory{
		DistributorID: distributorID,
		ProductID:     productID,
		Price:         decimal.RequireFromString(price),
		Stock:         stock,
		DeliveryDays:  deliveryDays,
		IsActive:      true,
	}
	mustCreate(t, conn, &row)
	return row
}

// Stock reads the current stock of an inventory row.
func Stock(t testing.TB, conn *gorm.DB, distributorID, productID uuid.UUID) int {
	t.Helper()
	var row models.DistributorInventory
	err := conn.WithContext(context.Background()).
		Where("distributor_id = ? AND product_id = ?", distributorID, productID).
		First(&row).Error
	if err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	return row.Stock
}

// Count returns the number of rows stored for model.
func Count(t testing.TB, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := conn.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func mustCreate(t testing.TB, conn *gorm.DB, value any) {
	t.Helper()
	if err := conn.Create(value).Error; err != nil {
		t.Fatalf("seed %T: %v", value, err)
	}
}
