package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/internal/testdb"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
)

type stubProducts struct {
	exists bool
}

func (s stubProducts) ProductExists(context.Context, uuid.UUID) (bool, error) {
	return s.exists, nil
}

func newTestService(t *testing.T, conn *gorm.DB, exists bool) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), stubProducts{exists: exists})
	require.NoError(t, err)
	return svc
}

func TestDecrementConditionalUpdate(t *testing.T) {
	conn := testdb.Open(t)
	dist := testdb.Distributor(t, conn, "volt")
	product := testdb.Product(t, conn, "R-100")
	testdb.Inventory(t, conn, dist.ID, product.ID, "1.25", 2, 3)
	svc := newTestService(t, conn, true)
	ctx := context.Background()

	require.NoError(t, svc.Decrement(ctx, conn, dist.ID, product.ID, 2))
	assert.Equal(t, 0, testdb.Stock(t, conn, dist.ID, product.ID))

	err := svc.Decrement(ctx, conn, dist.ID, product.ID, 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, 0, testdb.Stock(t, conn, dist.ID, product.ID), "stock never goes negative")
}

func TestDecrementUnknownOffer(t *testing.T) {
	conn := testdb.Open(t)
	svc := newTestService(t, conn, true)

	err := svc.Decrement(context.Background(), conn, uuid.New(), uuid.New(), 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestDecrementInactiveOffer(t *testing.T) {
	conn := testdb.Open(t)
	dist := testdb.Distributor(t, conn, "volt")
	product := testdb.Product(t, conn, "R-101")
	row := testdb.Inventory(t, conn, dist.ID, product.ID, "1.00", 10, 3)
	require.NoError(t, conn.Model(&row).Update("is_active", false).Error)
	svc := newTestService(t, conn, true)

	err := svc.Decrement(context.Background(), conn, dist.ID, product.ID, 1)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Equal(t, 10, testdb.Stock(t, conn, dist.ID, product.ID))
}

func TestIncrementRestoresStock(t *testing.T) {
	conn := testdb.Open(t)
	dist := testdb.Distributor(t, conn, "volt")
	product := testdb.Product(t, conn, "C-200")
	testdb.Inventory(t, conn, dist.ID, product.ID, "0.10", 5, 2)
	svc := newTestService(t, conn, true)

	require.NoError(t, svc.Increment(context.Background(), conn, dist.ID, product.ID, 4))
	assert.Equal(t, 9, testdb.Stock(t, conn, dist.ID, product.ID))

	err := svc.Increment(context.Background(), conn, dist.ID, uuid.New(), 1)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	conn := testdb.Open(t)
	dist := testdb.Distributor(t, conn, "volt")
	product := testdb.Product(t, conn, "U-300")
	svc := newTestService(t, conn, true)
	ctx := context.Background()

	item, err := svc.Upsert(ctx, UpsertInput{
		DistributorID: dist.ID,
		ProductID:     product.ID,
		Price:         decimal.RequireFromString("3.50"),
		Stock:         100,
		DeliveryDays:  5,
	})
	require.NoError(t, err)
	assert.True(t, item.IsActive)
	assert.Equal(t, 100, item.Stock)

	inactive := false
	item, err = svc.Upsert(ctx, UpsertInput{
		DistributorID: dist.ID,
		ProductID:     product.ID,
		Price:         decimal.RequireFromString("3.25"),
		Stock:         40,
		DeliveryDays:  7,
		IsActive:      &inactive,
	})
	require.NoError(t, err)
	assert.False(t, item.IsActive)
	assert.Equal(t, 40, item.Stock)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("3.25")))

	items, err := svc.List(ctx, dist.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "U-300", items[0].SKU)
}

func TestUpsertValidation(t *testing.T) {
	conn := testdb.Open(t)
	svc := newTestService(t, conn, true)
	dist := uuid.New()

	cases := map[string]UpsertInput{
		"zero price":     {DistributorID: dist, ProductID: uuid.New(), Price: decimal.Zero, Stock: 1, DeliveryDays: 1},
		"negative stock": {DistributorID: dist, ProductID: uuid.New(), Price: decimal.NewFromInt(1), Stock: -1, DeliveryDays: 1},
		"delivery days":  {DistributorID: dist, ProductID: uuid.New(), Price: decimal.NewFromInt(1), Stock: 1, DeliveryDays: 366},
		"sub-cent price": {DistributorID: dist, ProductID: uuid.New(), Price: decimal.RequireFromString("0.125"), Stock: 1, DeliveryDays: 1},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Upsert(context.Background(), input)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
		})
	}

	missing := newTestService(t, conn, false)
	_, err := missing.Upsert(context.Background(), UpsertInput{
		DistributorID: dist, ProductID: uuid.New(), Price: decimal.NewFromInt(1), Stock: 1, DeliveryDays: 1,
	})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestOffersSortedByPrice(t *testing.T) {
	conn := testdb.Open(t)
	product := testdb.Product(t, conn, "O-1")
	a := testdb.Distributor(t, conn, "alpha")
	b := testdb.Distributor(t, conn, "beta")
	testdb.Inventory(t, conn, a.ID, product.ID, "2.00", 1, 1)
	testdb.Inventory(t, conn, b.ID, product.ID, "1.50", 1, 9)
	svc := newTestService(t, conn, true)

	offers, err := svc.Offers(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, "beta", offers[0].DistributorName)
}
