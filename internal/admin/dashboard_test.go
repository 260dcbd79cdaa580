package admin

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/internal/testdb"
	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
)

func TestDashboardCounts(t *testing.T) {
	conn := testdb.Open(t)
	buyer := testdb.Customer(t, conn, "buyer")
	testdb.Customer(t, conn, "other")
	seller := testdb.Distributor(t, conn, "seller")
	testdb.Product(t, conn, "LM317")
	retired := testdb.Product(t, conn, "NE555")
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", retired.ID).UpdateColumn("is_active", false).Error)

	seedOrder(t, conn, buyer.ID, seller.ID, enums.OrderStatusDelivered, "120.50")
	seedOrder(t, conn, buyer.ID, seller.ID, enums.OrderStatusDelivered, "79.50")
	seedOrder(t, conn, buyer.ID, seller.ID, enums.OrderStatusPending, "999.00")
	seedOrder(t, conn, buyer.ID, seller.ID, enums.OrderStatusCancelled, "5.00")

	for _, status := range []enums.QuotationRequestStatus{
		enums.QuotationRequestStatusPending,
		enums.QuotationRequestStatusPending,
		enums.QuotationRequestStatusCompleted,
	} {
		require.NoError(t, conn.Omit("Items", "Responses").Create(&models.QuotationRequest{
			CustomerID:      buyer.ID,
			Status:          status,
			RequiredBy:      time.Now().Add(72 * time.Hour),
			DeliveryAddress: "1 Dock St",
			ContactPhone:    "555-0100",
		}).Error)
	}

	svc, err := NewService(conn)
	require.NoError(t, err)

	dash, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, dash.Customers)
	assert.EqualValues(t, 1, dash.Distributors)
	assert.EqualValues(t, 1, dash.ActiveProducts)
	assert.EqualValues(t, 2, dash.PendingQuotationRequest)
	assert.EqualValues(t, 2, dash.OrdersByStatus[enums.OrderStatusDelivered])
	assert.EqualValues(t, 1, dash.OrdersByStatus[enums.OrderStatusPending])
	assert.EqualValues(t, 0, dash.OrdersByStatus[enums.OrderStatusShipped])
	assert.True(t, dash.DeliveredRevenue.Equal(decimal.RequireFromString("200.00")), "revenue %s", dash.DeliveredRevenue)
}

func TestDashboardEmptyMarketplace(t *testing.T) {
	svc, err := NewService(testdb.Open(t))
	require.NoError(t, err)

	dash, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.True(t, dash.DeliveredRevenue.IsZero())
	assert.Len(t, dash.OrdersByStatus, 5)
}

func seedOrder(t *testing.T, conn *gorm.DB, customerID, distributorID uuid.UUID, status enums.OrderStatus, total string) {
	t.Helper()
	require.NoError(t, conn.Omit("Items").Create(&models.Order{
		CustomerID:    customerID,
		DistributorID: distributorID,
		Status:        status,
		TotalAmount:   decimal.RequireFromString(total),
	}).Error)
}
