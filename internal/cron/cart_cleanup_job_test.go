package cron

import (
	"context"
	"testing"
	"time"

	"github.com/partsbridge/marketplace/internal/cart"
	"github.com/partsbridge/marketplace/internal/testdb"
	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/logger"
)

func TestCartCleanupJobRemovesIdleCarts(t *testing.T) {
	conn := testdb.Open(t)
	buyer := testdb.Customer(t, conn, "idle")
	fresh := testdb.Customer(t, conn, "fresh")
	repo := cart.NewRepository(conn)
	ctx := context.Background()

	idleCart, err := repo.GetOrCreate(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	if _, err := repo.GetOrCreate(ctx, fresh.ID); err != nil {
		t.Fatalf("create cart: %v", err)
	}
	old := time.Now().UTC().AddDate(0, 0, -45)
	if err := conn.Model(&models.Cart{}).Where("id = ?", idleCart.ID).UpdateColumn("updated_at", old).Error; err != nil {
		t.Fatalf("age cart: %v", err)
	}

	jobIface, err := NewCartCleanupJob(CartCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewCartCleanupJob: %v", err)
	}
	if err := jobIface.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := testdb.Count(t, conn, &models.Cart{}); n != 1 {
		t.Fatalf("expected one cart left, got %d", n)
	}
	if _, err := repo.FindByCustomer(ctx, fresh.ID); err != nil {
		t.Fatalf("expected fresh cart to survive: %v", err)
	}
}
