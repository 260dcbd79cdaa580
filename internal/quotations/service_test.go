package quotations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/internal/catalog"
	"github.com/partsbridge/marketplace/internal/inventory"
	"github.com/partsbridge/marketplace/internal/orders"
	"github.com/partsbridge/marketplace/internal/testdb"
	"github.com/partsbridge/marketplace/pkg/auth"
	"github.com/partsbridge/marketplace/pkg/config"
	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
	"github.com/partsbridge/marketplace/pkg/outbox"
	"github.com/partsbridge/marketplace/pkg/pagination"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	conn     *gorm.DB
	svc      Service
	customer models.Customer
	d3       models.Distributor
	d7       models.Distributor
	p1       models.Product
	p2       models.Product
}

func newFixture(t *testing.T, policy config.ItemPolicy) fixture {
	t.Helper()
	conn := testdb.Open(t)
	f := fixture{
		conn:     conn,
		svc:      buildService(t, conn, NewRepository(conn), policy),
		customer: testdb.Customer(t, conn, "buyer"),
		d3:       testdb.Distributor(t, conn, "three"),
		d7:       testdb.Distributor(t, conn, "seven"),
		p1:       testdb.Product(t, conn, "RES-10K"),
		p2:       testdb.Product(t, conn, "CAP-100N"),
	}
	for _, d := range []models.Distributor{f.d3, f.d7} {
		testdb.Inventory(t, conn, d.ID, f.p1.ID, "35.00", 100, 5)
		testdb.Inventory(t, conn, d.ID, f.p2.ID, "45.00", 100, 5)
	}
	return f
}

func buildService(t *testing.T, conn *gorm.DB, repo Repository, policy config.ItemPolicy) Service {
	t.Helper()
	catalogRepo := catalog.NewRepository(conn)
	inv, err := inventory.NewService(inventory.NewRepository(conn), catalogRepo)
	require.NoError(t, err)
	events := outbox.NewService(outbox.NewRepository(conn), nil)
	orderSvc, err := orders.NewService(orders.NewRepository(conn), testdb.Client(conn), events, inv)
	require.NoError(t, err)
	svc, err := NewService(repo, testdb.Client(conn), events, catalogRepo, orderSvc, Options{
		ItemPolicy: policy,
		Now:        func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc
}

func (f fixture) buyer() auth.Principal {
	return auth.Principal{ID: f.customer.ID, UserID: f.customer.UserID, Role: enums.UserRoleCustomer}
}

func distributorPrincipal(d models.Distributor) auth.Principal {
	return auth.Principal{ID: d.ID, UserID: d.UserID, Role: enums.UserRoleDistributor}
}

func (f fixture) request(t *testing.T) *RequestDTO {
	t.Helper()
	req, err := f.svc.SubmitRequest(context.Background(), SubmitRequestInput{
		CustomerID:      f.customer.ID,
		ActorUserID:     f.customer.UserID,
		DeliveryAddress: "1 Dock Road",
		ContactPhone:    "+1 555 0100",
		Items: []RequestItemInput{
			{ProductID: f.p1.ID, Quantity: 10},
			{ProductID: f.p2.ID, Quantity: 5},
		},
	})
	require.NoError(t, err)
	return req
}

// respond quotes p1 x10 and p2 x5 so the total is 10*p1Price + 5*p2Price.
func (f fixture) respond(t *testing.T, requestID uuid.UUID, d models.Distributor, p1Price, p2Price string, days1, days2 int) *ResponseDTO {
	t.Helper()
	resp, err := f.svc.SubmitResponse(context.Background(), SubmitResponseInput{
		RequestID:     requestID,
		DistributorID: d.ID,
		ActorUserID:   d.UserID,
		Items: []ResponseItemInput{
			{ProductID: f.p1.ID, UnitPrice: decimal.RequireFromString(p1Price), Stock: 50, DeliveryDays: days1, Quantity: 10},
			{ProductID: f.p2.ID, UnitPrice: decimal.RequireFromString(p2Price), Stock: 50, DeliveryDays: days2, Quantity: 5},
		},
	})
	require.NoError(t, err)
	return resp
}

func responseStatus(t *testing.T, conn *gorm.DB, id uuid.UUID) enums.QuotationResponseStatus {
	t.Helper()
	var row models.QuotationResponse
	require.NoError(t, conn.Where("id = ?", id).First(&row).Error)
	return row.Status
}

func requestStatus(t *testing.T, conn *gorm.DB, id uuid.UUID) enums.QuotationRequestStatus {
	t.Helper()
	var row models.QuotationRequest
	require.NoError(t, conn.Where("id = ?", id).First(&row).Error)
	return row.Status
}

func TestSubmitRequestDefaultsRequiredBy(t *testing.T) {
	f := newFixture(t, config.ItemPolicyLenient)
	req := f.request(t)

	assert.Equal(t, enums.QuotationRequestStatusPending, req.Status)
	assert.True(t, req.RequiredBy.Equal(fixedNow.Add(7*24*time.Hour)))
	assert.Len(t, req.Items, 2)
	assert.Equal(t, int64(1), testdb.Count(t, f.conn, &models.OutboxEvent{}))
}

func TestSubmitRequestLenientDropsUnknownProducts(t *testing.T) {
	f := newFixture(t, config.ItemPolicyLenient)
	ghost := uuid.New()

	req, err := f.svc.SubmitRequest(context.Background(), SubmitRequestInput{
		CustomerID:      f.customer.ID,
		DeliveryAddress: "1 Dock Road",
		ContactPhone:    "555",
		Items: []RequestItemInput{
			{ProductID: f.p1.ID, Quantity: 2},
			{ProductID: ghost, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, req.Items, 1)
	assert.Equal(t, f.p1.ID, req.Items[0].ProductID)
	assert.Equal(t, "RES-10K", req.Items[0].SKU)
}

func TestSubmitRequestWithNoSurvivingItemsPersistsNothing(t *testing.T) {
	for _, policy := range []config.ItemPolicy{config.ItemPolicyLenient, config.ItemPolicyStrict} {
		t.Run(string(policy), func(t *testing.T) {
			f := newFixture(t, policy)
			_, err := f.svc.SubmitRequest(context.Background(), SubmitRequestInput{
				CustomerID:      f.customer.ID,
				DeliveryAddress: "1 Dock Road",
				ContactPhone:    "555",
				Items:           []RequestItemInput{{ProductID: uuid.New(), Quantity: 1}},
			})
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
			assert.Zero(t, testdb.Count(t, f.conn, &models.QuotationRequest{}))
			assert.Zero(t, testdb.Count(t, f.conn, &models.QuotationRequestItem{}))
		})
	}
}

func TestSubmitRequestStrictRejectsUnknownProducts(t *testing.T) {
	f := newFixture(t, config.ItemPolicyStrict)
	ghost := uuid.New()

	_, err := f.svc.SubmitRequest(context.Background(), SubmitRequestInput{
		CustomerID:      f.customer.ID,
		DeliveryAddress: "1 Dock Road",
		ContactPhone:    "555",
		Items: []RequestItemInput{
			{ProductID: f.p1.ID, Quantity: 2},
			{ProductID: ghost, Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	var typed *pkgerrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, map[string]any{"unknown_product_ids": []uuid.UUID{ghost}}, typed.Details())
	assert.Zero(t, testdb.Count(t, f.conn, &models.QuotationRequest{}))
}

func TestSubmitRequestValidation(t *testing.T) {
	f := newFixture(t, config.ItemPolicyLenient)
	past := fixedNow.Add(-time.Hour)
	cases := map[string]SubmitRequestInput{
		"unknown customer": {CustomerID: uuid.New(), DeliveryAddress: "a", ContactPhone: "b", Items: []RequestItemInput{{ProductID: f.p1.ID, Quantity: 1}}},
		"no items":         {CustomerID: f.customer.ID, DeliveryAddress: "a", ContactPhone: "b"},
		"zero quantity":    {CustomerID: f.customer.ID, DeliveryAddress: "a", ContactPhone: "b", Items: []RequestItemInput{{ProductID: f.p1.ID}}},
		"past required by": {CustomerID: f.customer.ID, DeliveryAddress: "a", ContactPhone: "b", RequiredBy: &past, Items: []RequestItemInput{{ProductID: f.p1.ID, Quantity: 1}}},
		"no address":       {CustomerID: f.customer.ID, ContactPhone: "b", Items: []RequestItemInput{{ProductID: f.p1.ID, Quantity: 1}}},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.SubmitRequest(context.Background(), input)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
		})
	}
}

func TestSubmitResponseTotalsAndDuplicateConflict(t *testing.T) {
	f := newFixture(t, config.ItemPolicyLenient)
	req := f.request(t)

	first := f.respond(t, req.ID, f.d3, "30.00", "40.00", 3, 5)
	assert.Equal(t, "500.00", first.TotalPrice.StringFixed(2))
	assert.Equal(t, "4", first.AverageDeliveryDays.String())
	assert.Equal(t, "three", first.DistributorName)

	_, err := f.svc.SubmitResponse(context.Background(), SubmitResponseInput{
		RequestID:     req.ID,
		DistributorID: f.d3.ID,
		Items: []ResponseItemInput{
			{ProductID: f.p1.ID, UnitPrice: decimal.RequireFromString("1.00"), Stock: 1, DeliveryDays: 1, Quantity: 1},
		},
	})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, int64(1), testdb.Count(t, f.conn, &models.QuotationResponse{}))
}

// staleCheckRepo never sees an earlier response, as when two submissions
// from one distributor race past the existence check.
type staleCheckRepo struct{ Repository }

func (r staleCheckRepo) WithTx(tx *gorm.DB) Repository {
	return staleCheckRepo{r.Repository.WithTx(tx)}
}

func (staleCheckRepo) ResponseExists(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

func TestSubmitResponseUniqueIndexCatchesRacingDuplicate(t *testing.T) {
	f := newFixture(t, config.ItemPolicyLenient)
	req := f.request(t)
	f.respond(t, req.ID, f.d3, "30.00", "40.00", 3, 5)

	racing := buildService(t, f.conn, staleCheckRepo{NewRepository(f.conn)}, config.ItemPolicyLenient)
	_, err := racing.SubmitResponse(context.Background(), SubmitResponseInput{
		RequestID:     req.ID,
		DistributorID: f.d3.ID,
		Items: []ResponseItemInput{
			{ProductID: f.p1.ID, UnitPrice: decimal.RequireFromString("1.00"), Stock: 1, DeliveryDays: 1, Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, int64(1), testdb.Count(t, f.conn, &models.QuotationResponse{}))
	assert.Equal(t, int64(2), testdb.Count(t, f.conn, &models.QuotationResponseItem{}))
}

func TestSubmitResponseRejectsUnknownProducts(t *testing.T) {
	f := newFixture(t, config.ItemPolicyLenient)
	req := f.request(t)
	ghost := uuid.New()

	_, err := f.svc.SubmitResponse(context.Background(), SubmitResponseInput{
		RequestID:     req.ID,
		DistributorID: f.d3.ID,
		Items: []ResponseItemInput{
			{ProductID: f.p1.ID, UnitPrice: decimal.RequireFromString("1.00"), Stock: 1, DeliveryDays: 1, Quantity: 1},
			{ProductID: ghost, UnitPrice: decimal.RequireFromString("1.00"), Stock: 1, DeliveryDays: 1, Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Contains(t, err.Error(), ghost.String())
	assert.Zero(t, testdb.Count(t, f.conn, &models.QuotationResponse{}))
}

func TestSubmitResponseLineValidation(t *testing.T) {
	f := newFixture(t, config.ItemPolicyLenient)
	req := f.request(t)
	price := decimal.RequireFromString("2.00")
	cases := map[string]ResponseItemInput{
		"zero price":     {ProductID: f.p1.ID, UnitPrice: decimal.Zero, DeliveryDays: 1, Quantity: 1},
		"sub-cent price": {ProductID: f.p1.ID, UnitPrice: decimal.RequireFromString("1.005"), DeliveryDays: 1, Quantity: 1},
		"negative stock": {ProductID: f.p1.ID, UnitPrice: price, Stock: -1, DeliveryDays: 1, Quantity: 1},
		"slow delivery":  {ProductID: f.p1.ID, UnitPrice: price, DeliveryDays: 366, Quantity: 1},
		"no delivery":    {ProductID: f.p1.ID, UnitPrice: price, Quantity: 1},
		"zero quantity":  {ProductID: f.p1.ID, UnitPrice: price, DeliveryDays: 1},
	}
	for name, item := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.SubmitResponse(context.Background(), SubmitResponseInput{
				RequestID:     req.ID,
				DistributorID: f.d3.ID,
				Items:         []ResponseItemInput{item},
			})
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
		})
	}
	assert.Zero(t, testdb.Count(t, f.conn, &models.QuotationResponse{}))
}

func TestCompare(t *testing.T) {
	f := newFixture(t, config.ItemPolicyLenient)
	d9 := testdb.Distributor(t, f.conn, "nine")
	req := f.request(t)

	f.respond(t, req.ID, f.d3, "30.00", "40.00", 3, 5)
	cheapest := f.respond(t, req.ID, f.d7, "27.00", "36.00", 2, 2)
	f.respond(t, req.ID, d9, "28.50", "38.00", 8, 8)

	cmp, err := f.svc.Compare(context.Background(), f.buyer(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, cmp.ResponseCount)
	assert.Equal(t, "450.00", cmp.BestPrice.StringFixed(2))
	assert.Equal(t, "500.00", cmp.WorstPrice.StringFixed(2))
	assert.Equal(t, "475.00", cmp.AveragePrice.StringFixed(2))
	assert.Equal(t, "2.00", cmp.BestDeliveryDays.StringFixed(2))
	assert.Len(t, cmp.Items, 2)

	require.Len(t, cmp.Responses, 3)
	for _, summary := range cmp.Responses {
		isCheapest := summary.ResponseID == cheapest.ID
		assert.Equal(t, isCheapest, summary.IsBestPrice)
		assert.Equal(t, isCheapest, summary.IsFastest)
	}

	_, err = f.svc.Compare(context.Background(), f.buyer(), uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = f.svc.Compare(context.Background(), distributorPrincipal(f.d3), req.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestCompareWithoutResponses(t *testing.T) {
	f := newFixture(t, config.ItemPolicyLenient)
	req := f.request(t)

	cmp, err := f.svc.Compare(context.Background(), f.buyer(), req.ID)
	require.NoError(t, err)
	assert.Zero(t, cmp.ResponseCount)
	assert.True(t, cmp.BestPrice.IsZero())
	assert.True(t, cmp.AveragePrice.IsZero())
	assert.Empty(t, cmp.Responses)
}

func TestAcceptCreatesOrderAndClosesWorkflow(t *testing.T) {
	f := newFixture(t, config.ItemPolicyLenient)
	req := f.request(t)
	r3 := f.respond(t, req.ID, f.d3, "30.00", "40.00", 3, 5)
	r7 := f.respond(t, req.ID, f.d7, "27.00", "36.00", 3, 6)

	result, err := f.svc.Accept(context.Background(), f.buyer(), AcceptInput{ResponseID: r7.ID})
	require.NoError(t, err)

	require.NotNil(t, result.Order)
	assert.Equal(t, "450.00", result.Order.TotalAmount.StringFixed(2))
	assert.Equal(t, f.d7.ID, result.Order.DistributorID)
	require.NotNil(t, result.Order.QuotationResponseID)
	assert.Equal(t, r7.ID, *result.Order.QuotationResponseID)
	require.NotNil(t, result.Order.EstimatedDeliveryDays)
	assert.Equal(t, 5, *result.Order.EstimatedDeliveryDays)
	require.Len(t, result.Order.Items, 2)
	for _, item := range result.Order.Items {
		switch item.ProductID {
		case f.p1.ID:
			assert.Equal(t, 10, item.Quantity)
			assert.Equal(t, "27.00", item.UnitPrice.StringFixed(2))
		case f.p2.ID:
			assert.Equal(t, 5, item.Quantity)
			assert.Equal(t, "36.00", item.UnitPrice.StringFixed(2))
		default:
			t.Fatalf("unexpected order item %s", item.ProductID)
		}
	}
	assert.Equal(t, int64(1), result.RejectedCount)

	assert.Equal(t, enums.QuotationResponseStatusAccepted, responseStatus(t, f.conn, r7.ID))
	assert.Equal(t, enums.QuotationResponseStatusRejected, responseStatus(t, f.conn, r3.ID))
	assert.Equal(t, enums.QuotationRequestStatusCompleted, requestStatus(t, f.conn, req.ID))
	assert.Equal(t, int64(1), testdb.Count(t, f.conn, &models.Order{}))
	assert.Equal(t, 90, testdb.Stock(t, f.conn, f.d7.ID, f.p1.ID))
	assert.Equal(t, 95, testdb.Stock(t, f.conn, f.d7.ID, f.p2.ID))
	assert.Equal(t, 100, testdb.Stock(t, f.conn, f.d3.ID, f.p1.ID))

	_, err = f.svc.Accept(context.Background(), f.buyer(), AcceptInput{ResponseID: r3.ID})
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	_, err = f.svc.Accept(context.Background(), f.buyer(), AcceptInput{ResponseID: r7.ID})
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, int64(1), testdb.Count(t, f.conn, &models.Order{}))
}

func TestAcceptRollsBackWhenOrderFails(t *testing.T) {
	f := newFixture(t, config.ItemPolicyLenient)
	req := f.request(t)
	r3 := f.respond(t, req.ID, f.d3, "30.00", "40.00", 3, 5)
	r7 := f.respond(t, req.ID, f.d7, "27.00", "36.00", 3, 6)
	require.NoError(t, f.conn.Model(&models.DistributorInventory{}).
		Where("distributor_id = ? AND product_id = ?", f.d7.ID, f.p2.ID).
		Update("stock", 4).Error)
	eventsBefore := testdb.Count(t, f.conn, &models.OutboxEvent{})

	_, err := f.svc.Accept(context.Background(), f.buyer(), AcceptInput{ResponseID: r7.ID})
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	assert.Equal(t, enums.QuotationResponseStatusSubmitted, responseStatus(t, f.conn, r7.ID))
	assert.Equal(t, enums.QuotationResponseStatusSubmitted, responseStatus(t, f.conn, r3.ID))
	assert.Equal(t, enums.QuotationRequestStatusPending, requestStatus(t, f.conn, req.ID))
	assert.Zero(t, testdb.Count(t, f.conn, &models.Order{}))
	assert.Equal(t, 100, testdb.Stock(t, f.conn, f.d7.ID, f.p1.ID))
	assert.Equal(t, 4, testdb.Stock(t, f.conn, f.d7.ID, f.p2.ID))
	assert.Equal(t, eventsBefore, testdb.Count(t, f.conn, &models.OutboxEvent{}))
}

func TestAcceptOwnership(t *testing.T) {
	f := newFixture(t, config.ItemPolicyLenient)
	req := f.request(t)
	r3 := f.respond(t, req.ID, f.d3, "30.00", "40.00", 3, 5)
	stranger := testdb.Customer(t, f.conn, "stranger")

	_, err := f.svc.Accept(context.Background(), auth.Principal{ID: stranger.ID, Role: enums.UserRoleCustomer}, AcceptInput{ResponseID: r3.ID})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = f.svc.Accept(context.Background(), distributorPrincipal(f.d3), AcceptInput{ResponseID: r3.ID})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = f.svc.Accept(context.Background(), f.buyer(), AcceptInput{ResponseID: uuid.New()})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	assert.Equal(t, enums.QuotationResponseStatusSubmitted, responseStatus(t, f.conn, r3.ID))
}

func TestCancelRequestCascadesToSubmittedResponses(t *testing.T) {
	f := newFixture(t, config.ItemPolicyLenient)
	req := f.request(t)
	r3 := f.respond(t, req.ID, f.d3, "30.00", "40.00", 3, 5)
	ctx := context.Background()

	_, err := f.svc.CancelRequest(ctx, distributorPrincipal(f.d3), req.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	cancelled, err := f.svc.CancelRequest(ctx, f.buyer(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.QuotationRequestStatusCancelled, cancelled.Status)
	assert.Equal(t, enums.QuotationResponseStatusCancelled, responseStatus(t, f.conn, r3.ID))

	_, err = f.svc.CancelRequest(ctx, f.buyer(), req.ID)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	_, err = f.svc.SubmitResponse(ctx, SubmitResponseInput{
		RequestID:     req.ID,
		DistributorID: f.d7.ID,
		Items: []ResponseItemInput{
			{ProductID: f.p1.ID, UnitPrice: decimal.RequireFromString("1.00"), Stock: 1, DeliveryDays: 1, Quantity: 1},
		},
	})
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
}

func TestAdminCancelsAnyRequest(t *testing.T) {
	f := newFixture(t, config.ItemPolicyLenient)
	req := f.request(t)
	r7 := f.respond(t, req.ID, f.d7, "27.00", "36.00", 3, 6)

	admin := auth.Principal{ID: uuid.New(), UserID: uuid.New(), Role: enums.UserRoleAdmin}
	cancelled, err := f.svc.CancelRequest(context.Background(), admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.QuotationRequestStatusCancelled, cancelled.Status)
	assert.Equal(t, enums.QuotationResponseStatusCancelled, responseStatus(t, f.conn, r7.ID))
}

func TestUpdateResponseReplacesItems(t *testing.T) {
	f := newFixture(t, config.ItemPolicyLenient)
	req := f.request(t)
	r3 := f.respond(t, req.ID, f.d3, "30.00", "40.00", 3, 5)
	ctx := context.Background()
	notes := "revised"

	update := UpdateResponseInput{
		Notes: &notes,
		Items: []ResponseItemInput{
			{ProductID: f.p1.ID, UnitPrice: decimal.RequireFromString("25.00"), Stock: 10, DeliveryDays: 7, Quantity: 10},
		},
	}
	_, err := f.svc.UpdateResponse(ctx, distributorPrincipal(f.d7), r3.ID, update)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	updated, err := f.svc.UpdateResponse(ctx, distributorPrincipal(f.d3), r3.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "250.00", updated.TotalPrice.StringFixed(2))
	require.Len(t, updated.Items, 1)
	assert.Equal(t, 7, updated.Items[0].DeliveryDays)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "revised", *updated.Notes)
	assert.Equal(t, int64(1), testdb.Count(t, f.conn, &models.QuotationResponseItem{}))

	withdrawn, err := f.svc.WithdrawResponse(ctx, distributorPrincipal(f.d3), r3.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.QuotationResponseStatusCancelled, withdrawn.Status)

	_, err = f.svc.UpdateResponse(ctx, distributorPrincipal(f.d3), r3.ID, update)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	_, err = f.svc.WithdrawResponse(ctx, distributorPrincipal(f.d3), r3.ID)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	cmp, err := f.svc.Compare(ctx, f.buyer(), req.ID)
	require.NoError(t, err)
	assert.Zero(t, cmp.ResponseCount)
}

func TestListAndGetVisibility(t *testing.T) {
	f := newFixture(t, config.ItemPolicyLenient)
	ctx := context.Background()
	open := f.request(t)
	closed := f.request(t)
	f.respond(t, open.ID, f.d3, "30.00", "40.00", 3, 5)
	f.respond(t, open.ID, f.d7, "27.00", "36.00", 3, 6)
	_, err := f.svc.CancelRequest(ctx, f.buyer(), closed.ID)
	require.NoError(t, err)

	mine, err := f.svc.ListRequests(ctx, f.buyer(), RequestFilters{}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, mine.Requests, 2)

	board, err := f.svc.ListRequests(ctx, distributorPrincipal(f.d3), RequestFilters{}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, board.Requests, 1)
	assert.Equal(t, open.ID, board.Requests[0].ID)
	assert.Equal(t, 1, board.Requests[0].ResponseCount, "board counts only the caller's own response")

	newcomer := testdb.Distributor(t, f.conn, "newcomer")
	board, err = f.svc.ListRequests(ctx, distributorPrincipal(newcomer), RequestFilters{}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, board.Requests, 1)
	assert.Zero(t, board.Requests[0].ResponseCount)

	admin, err := f.svc.ListRequests(ctx, auth.Principal{ID: uuid.New(), Role: enums.UserRoleAdmin}, RequestFilters{}, pagination.Params{})
	require.NoError(t, err)
	for _, req := range admin.Requests {
		if req.ID == open.ID {
			assert.Equal(t, 2, req.ResponseCount)
		}
	}

	full, err := f.svc.GetRequest(ctx, f.buyer(), open.ID)
	require.NoError(t, err)
	assert.Len(t, full.Responses, 2)

	own, err := f.svc.GetRequest(ctx, distributorPrincipal(f.d3), open.ID)
	require.NoError(t, err)
	require.Len(t, own.Responses, 1)
	assert.Equal(t, f.d3.ID, own.Responses[0].DistributorID)

	_, err = f.svc.GetRequest(ctx, distributorPrincipal(f.d3), closed.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	stranger := testdb.Customer(t, f.conn, "stranger")
	_, err = f.svc.GetRequest(ctx, auth.Principal{ID: stranger.ID, Role: enums.UserRoleCustomer}, open.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	responses, err := f.svc.ListResponses(ctx, distributorPrincipal(f.d7), ResponseFilters{}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, responses.Responses, 1)
	assert.Equal(t, f.d7.ID, responses.Responses[0].DistributorID)

	_, err = f.svc.ListResponses(ctx, f.buyer(), ResponseFilters{}, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}
