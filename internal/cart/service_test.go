package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/internal/catalog"
	"github.com/partsbridge/marketplace/internal/inventory"
	"github.com/partsbridge/marketplace/internal/orders"
	"github.com/partsbridge/marketplace/internal/testdb"
	"github.com/partsbridge/marketplace/pkg/auth"
	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
	"github.com/partsbridge/marketplace/pkg/outbox"
)

type fixture struct {
	conn     *gorm.DB
	svc      Service
	repo     Repository
	customer models.Customer
	north    models.Distributor
	south    models.Distributor
	diode    models.Product
	relay    models.Product
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := testdb.Open(t)
	inv, err := inventory.NewService(inventory.NewRepository(conn), catalog.NewRepository(conn))
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orders.NewRepository(conn), testdb.Client(conn), outbox.NewService(outbox.NewRepository(conn), nil), inv)
	require.NoError(t, err)
	repo := NewRepository(conn)
	svc, err := NewService(repo, testdb.Client(conn), inv, orderSvc)
	require.NoError(t, err)

	f := fixture{
		conn:     conn,
		svc:      svc,
		repo:     repo,
		customer: testdb.Customer(t, conn, "buyer"),
		north:    testdb.Distributor(t, conn, "north"),
		south:    testdb.Distributor(t, conn, "south"),
		diode:    testdb.Product(t, conn, "1N4148"),
		relay:    testdb.Product(t, conn, "G5LE-1"),
	}
	testdb.Inventory(t, conn, f.north.ID, f.diode.ID, "0.10", 500, 2)
	testdb.Inventory(t, conn, f.north.ID, f.relay.ID, "1.20", 20, 4)
	testdb.Inventory(t, conn, f.south.ID, f.relay.ID, "1.05", 3, 9)
	return f
}

func (f fixture) principal() auth.Principal {
	return auth.Principal{ID: f.customer.ID, UserID: f.customer.UserID, Role: enums.UserRoleCustomer}
}

func TestAddItemMergesQuantitiesAndPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, f.customer.ID, LineInput{DistributorID: f.north.ID, ProductID: f.diode.ID, Quantity: 10})
	require.NoError(t, err)
	cart, err := f.svc.AddItem(ctx, f.customer.ID, LineInput{DistributorID: f.north.ID, ProductID: f.diode.ID, Quantity: 5})
	require.NoError(t, err)
	cart, err = f.svc.AddItem(ctx, f.customer.ID, LineInput{DistributorID: f.south.ID, ProductID: f.relay.ID, Quantity: 2})
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, 17, cart.Count)
	assert.Equal(t, "3.60", cart.Subtotal.StringFixed(2))
	for _, item := range cart.Items {
		assert.True(t, item.Available)
		if item.ProductID == f.diode.ID {
			assert.Equal(t, 15, item.Quantity)
			assert.Equal(t, "1.50", item.LineTotal.StringFixed(2))
			assert.Equal(t, "1N4148", item.SKU)
			assert.Equal(t, "north", item.DistributorName)
		}
	}

	_, err = f.svc.AddItem(ctx, f.customer.ID, LineInput{DistributorID: f.south.ID, ProductID: f.diode.ID, Quantity: 1})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	_, err = f.svc.AddItem(ctx, f.customer.ID, LineInput{DistributorID: f.north.ID, ProductID: f.diode.ID})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestSetQuantityAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.svc.AddItem(ctx, f.customer.ID, LineInput{DistributorID: f.south.ID, ProductID: f.relay.ID, Quantity: 1})
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = f.svc.SetQuantity(ctx, f.customer.ID, itemID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.False(t, cart.Items[0].InStock)

	_, err = f.svc.SetQuantity(ctx, f.customer.ID, itemID, 0)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	_, err = f.svc.SetQuantity(ctx, f.customer.ID, uuid.New(), 2)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	// Another customer cannot reach the line.
	other := testdb.Customer(t, f.conn, "other")
	_, err = f.svc.RemoveItem(ctx, other.ID, itemID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	cart, err = f.svc.RemoveItem(ctx, f.customer.ID, itemID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Subtotal.IsZero())
}

func TestMergeSkipsUnofferedLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, f.customer.ID, LineInput{DistributorID: f.north.ID, ProductID: f.relay.ID, Quantity: 1})
	require.NoError(t, err)

	result, err := f.svc.Merge(ctx, f.customer.ID, []LineInput{
		{DistributorID: f.north.ID, ProductID: f.relay.ID, Quantity: 2},
		{DistributorID: f.north.ID, ProductID: f.diode.ID, Quantity: 4},
		{DistributorID: f.south.ID, ProductID: f.diode.ID, Quantity: 1},
		{DistributorID: f.north.ID, ProductID: f.diode.ID, Quantity: 0},
	})
	require.NoError(t, err)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, "distributor does not offer product", result.Skipped[0].Reason)
	assert.Equal(t, "quantity must be at least 1", result.Skipped[1].Reason)

	quantities := map[uuid.UUID]int{}
	for _, item := range result.Cart.Items {
		quantities[item.ProductID] = item.Quantity
	}
	assert.Equal(t, map[uuid.UUID]int{f.relay.ID: 3, f.diode.ID: 4}, quantities)
}

func TestCheckoutCreatesOneOrderPerDistributor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, line := range []LineInput{
		{DistributorID: f.north.ID, ProductID: f.diode.ID, Quantity: 100},
		{DistributorID: f.north.ID, ProductID: f.relay.ID, Quantity: 2},
		{DistributorID: f.south.ID, ProductID: f.relay.ID, Quantity: 3},
	} {
		_, err := f.svc.AddItem(ctx, f.customer.ID, line)
		require.NoError(t, err)
	}
	address := "12 Bench St"

	result, err := f.svc.Checkout(ctx, f.principal(), CheckoutInput{DeliveryAddress: &address})
	require.NoError(t, err)
	require.Len(t, result.Orders, 2)
	assert.Equal(t, "15.55", result.Total.StringFixed(2))
	for _, order := range result.Orders {
		require.NotNil(t, order.DeliveryAddress)
		assert.Equal(t, address, *order.DeliveryAddress)
		assert.Equal(t, enums.OrderStatusPending, order.Status)
	}

	assert.Equal(t, 400, testdb.Stock(t, f.conn, f.north.ID, f.diode.ID))
	assert.Equal(t, 18, testdb.Stock(t, f.conn, f.north.ID, f.relay.ID))
	assert.Equal(t, 0, testdb.Stock(t, f.conn, f.south.ID, f.relay.ID))

	cart, err := f.svc.Get(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCheckoutRollsBackEveryOrderOnShortage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, f.customer.ID, LineInput{DistributorID: f.north.ID, ProductID: f.diode.ID, Quantity: 10})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.customer.ID, LineInput{DistributorID: f.south.ID, ProductID: f.relay.ID, Quantity: 4})
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, f.principal(), CheckoutInput{})
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	assert.Zero(t, testdb.Count(t, f.conn, &models.Order{}))
	assert.Equal(t, 500, testdb.Stock(t, f.conn, f.north.ID, f.diode.ID))
	assert.Equal(t, 3, testdb.Stock(t, f.conn, f.south.ID, f.relay.ID))
	cart, err := f.svc.Get(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestCheckoutRejectsEmptyCartAndNonCustomers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.principal(), CheckoutInput{})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.Get(ctx, f.customer.ID)
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, f.principal(), CheckoutInput{})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.Checkout(ctx, auth.Principal{ID: f.north.ID, Role: enums.UserRoleDistributor}, CheckoutInput{})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestDeleteIdleBefore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, f.customer.ID, LineInput{DistributorID: f.north.ID, ProductID: f.diode.ID, Quantity: 1})
	require.NoError(t, err)

	removed, err := f.repo.DeleteIdleBefore(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = f.repo.DeleteIdleBefore(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Zero(t, testdb.Count(t, f.conn, &models.Cart{}))
	assert.Zero(t, testdb.Count(t, f.conn, &models.CartItem{}))
}
