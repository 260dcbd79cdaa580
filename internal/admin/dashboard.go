// Package admin gathers the marketplace-wide counters shown to administrators.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
)

// Dashboard is a point-in-time snapshot of the marketplace.
type Dashboard struct {
	Customers               int64                       `json:"customers"`
	Distributors            int64                       `json:"distributors"`
	ActiveProducts          int64                       `json:"active_products"`
	OrdersByStatus          map[enums.OrderStatus]int64 `json:"orders_by_status"`
	PendingQuotationRequest int64                       `json:"pending_quotation_requests"`
	DeliveredRevenue        decimal.Decimal             `json:"delivered_revenue"`
	GeneratedAt             time.Time                   `json:"generated_at"`
}

type Service interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &service{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Dashboard runs every counter query concurrently; the first failure cancels
// the rest.
func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	out := &Dashboard{
		OrdersByStatus: map[enums.OrderStatus]int64{},
		GeneratedAt:    s.now(),
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.count(gctx, &models.Customer{}, &out.Customers)
	})
	g.Go(func() error {
		return s.count(gctx, &models.Distributor{}, &out.Distributors)
	})
	g.Go(func() error {
		return s.count(gctx, &models.Product{}, &out.ActiveProducts, "is_active = ?", true)
	})
	g.Go(func() error {
		return s.count(gctx, &models.QuotationRequest{}, &out.PendingQuotationRequest,
			"status = ?", enums.QuotationRequestStatusPending)
	})

	var byStatus []struct {
		Status enums.OrderStatus
		Total  int64
	}
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Model(&models.Order{}).
			Select("status, COUNT(*) AS total").
			Group("status").
			Scan(&byStatus).Error
	})

	var revenue decimal.NullDecimal
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Model(&models.Order{}).
			Select("COALESCE(SUM(total_amount), 0)").
			Where("status = ?", enums.OrderStatusDelivered).
			Scan(&revenue).Error
	})

	if err := g.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dashboard")
	}

	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	} {
		out.OrdersByStatus[status] = 0
	}
	for _, row := range byStatus {
		out.OrdersByStatus[row.Status] = row.Total
	}
	out.DeliveredRevenue = revenue.Decimal.Round(2)
	return out, nil
}

func (s *service) count(ctx context.Context, model any, dest *int64, where ...any) error {
	q := s.db.WithContext(ctx).Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	return q.Count(dest).Error
}
