package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/pkg/auth"
	"github.com/partsbridge/marketplace/pkg/db"
	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
	"github.com/partsbridge/marketplace/pkg/money"
	"github.com/partsbridge/marketplace/pkg/outbox"
	"github.com/partsbridge/marketplace/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// StockKeeper is the inventory surface orders need. Every call joins tx.
type StockKeeper interface {
	Lookup(ctx context.Context, tx *gorm.DB, distributorID, productID uuid.UUID) (*models.DistributorInventory, error)
	Decrement(ctx context.Context, tx *gorm.DB, distributorID, productID uuid.UUID, qty int) error
	Increment(ctx context.Context, tx *gorm.DB, distributorID, productID uuid.UUID, qty int) error
}

// Service covers order placement and the order lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*OrderDTO, error)
	CreateTx(ctx context.Context, tx *gorm.DB, input CreateInput) (*OrderDTO, error)
	Cancel(ctx context.Context, actor auth.Principal, orderID uuid.UUID) (*OrderDTO, error)
	AdvanceStatus(ctx context.Context, actor auth.Principal, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error)
	List(ctx context.Context, actor auth.Principal, filters ListFilters, params pagination.Params) (*OrderList, error)
	Get(ctx context.Context, actor auth.Principal, orderID uuid.UUID) (*OrderDTO, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	stock  StockKeeper
}

func NewService(repo Repository, tx txRunner, outbox outboxPublisher, stock StockKeeper) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock keeper required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox, stock: stock}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*OrderDTO, error) {
	var created *OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.CreateTx(ctx, tx, input)
		if err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateTx places the order inside the caller's transaction. Any error leaves
// the transaction for the caller to roll back; nothing here commits.
func (s *service) CreateTx(ctx context.Context, tx *gorm.DB, input CreateInput) (*OrderDTO, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order creation requires a transaction")
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	order := models.Order{
		ID:                  uuid.New(),
		CustomerID:          input.CustomerID,
		DistributorID:       input.DistributorID,
		QuotationResponseID: input.QuotationResponseID,
		Status:              enums.OrderStatusPending,
		Notes:               input.Notes,
		DeliveryAddress:     input.DeliveryAddress,
		Items:               make([]models.OrderItem, 0, len(input.Items)),
	}

	total := decimal.Zero
	slowest := 0
	for _, line := range input.Items {
		offer, err := s.stock.Lookup(ctx, tx, input.DistributorID, line.ProductID)
		if err != nil {
			return nil, err
		}
		if err := s.stock.Decrement(ctx, tx, input.DistributorID, line.ProductID, line.Quantity); err != nil {
			return nil, err
		}

		unitPrice := offer.Price
		if line.UnitPrice != nil {
			unitPrice = *line.UnitPrice
		}
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)
		if offer.DeliveryDays > slowest {
			slowest = offer.DeliveryDays
		}

		order.Items = append(order.Items, models.OrderItem{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
			LineTotal: lineTotal,
		})
	}
	order.TotalAmount = total

	order.EstimatedDeliveryDays = input.EstimatedDeliveryDays
	if order.EstimatedDeliveryDays == nil && slowest > 0 {
		order.EstimatedDeliveryDays = &slowest
	}

	repo := s.repo.WithTx(tx)
	if err := repo.Create(ctx, &order); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "quotation response already converted to an order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         buildActor(input.ActorUserID, input.ActorRole),
		Data: OrderCreatedEvent{
			OrderID:             order.ID,
			CustomerID:          order.CustomerID,
			DistributorID:       order.DistributorID,
			QuotationResponseID: order.QuotationResponseID,
			TotalAmount:         order.TotalAmount,
			ItemCount:           len(order.Items),
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created")
	}

	created, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	dto := toOrderDTO(*created)
	return &dto, nil
}

func (s *service) Cancel(ctx context.Context, actor auth.Principal, orderID uuid.UUID) (*OrderDTO, error) {
	var result *OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOwned(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is already %s", order.Status)
		}

		now := time.Now().UTC()
		affected, err := repo.TransitionStatus(ctx, order.ID, []enums.OrderStatus{order.Status}, enums.OrderStatusCancelled, map[string]any{"cancelled_at": now})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed while cancelling; retry")
		}

		// The guarded transition above wins at most once, so stock is
		// restored at most once.
		for _, item := range order.Items {
			if err := s.stock.Increment(ctx, tx, order.DistributorID, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         buildActor(actor.UserID, actor.Role),
			Data: OrderCanceledEvent{
				OrderID:        order.ID,
				CustomerID:     order.CustomerID,
				DistributorID:  order.DistributorID,
				PreviousStatus: order.Status,
				CancelledBy:    actor.Role,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order canceled")
		}

		reloaded, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		dto := toOrderDTO(*reloaded)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) AdvanceStatus(ctx context.Context, actor auth.Principal, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error) {
	if actor.IsCustomer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customers cannot change order status")
	}
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if next == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "use the cancel operation to cancel an order")
	}

	var result *OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOwned(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(next) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", order.Status, next).
				WithDetails(map[string]any{"from": order.Status, "to": next})
		}

		updates := map[string]any{}
		if next == enums.OrderStatusDelivered {
			updates["delivered_at"] = time.Now().UTC()
		}
		affected, err := repo.TransitionStatus(ctx, order.ID, []enums.OrderStatus{order.Status}, next, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently; retry")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         buildActor(actor.UserID, actor.Role),
			Data: OrderStatusChangedEvent{
				OrderID:       order.ID,
				CustomerID:    order.CustomerID,
				DistributorID: order.DistributorID,
				From:          order.Status,
				To:            next,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit status change")
		}

		reloaded, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		dto := toOrderDTO(*reloaded)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) List(ctx context.Context, actor auth.Principal, filters ListFilters, params pagination.Params) (*OrderList, error) {
	scope, err := scopeFor(actor)
	if err != nil {
		return nil, err
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, scope, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	rows, next := pagination.Trim(rows, params.Limit, func(o models.Order) (time.Time, uuid.UUID) {
		return o.CreatedAt, o.ID
	})
	list := &OrderList{Orders: make([]OrderDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		list.Orders = append(list.Orders, toOrderDTO(row))
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, actor auth.Principal, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOwned(ctx, s.repo, actor, orderID)
	if err != nil {
		return nil, err
	}
	dto := toOrderDTO(*order)
	return &dto, nil
}

func (s *service) loadOwned(ctx context.Context, repo Repository, actor auth.Principal, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	switch actor.Role {
	case enums.UserRoleAdmin:
	case enums.UserRoleCustomer:
		if order.CustomerID != actor.ID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
		}
	case enums.UserRoleDistributor:
		if order.DistributorID != actor.ID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is not addressed to distributor")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown role")
	}
	return order, nil
}

func scopeFor(actor auth.Principal) (Scope, error) {
	id := actor.ID
	switch actor.Role {
	case enums.UserRoleAdmin:
		return Scope{}, nil
	case enums.UserRoleCustomer:
		return Scope{CustomerID: &id}, nil
	case enums.UserRoleDistributor:
		return Scope{DistributorID: &id}, nil
	default:
		return Scope{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown role")
	}
}

func validateCreate(input CreateInput) error {
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.DistributorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "distributor id required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for i, line := range input.Items {
		if line.ProductID == uuid.Nil {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: product id required", i)
		}
		if line.Quantity < 1 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: quantity must be at least 1", i)
		}
		if line.UnitPrice != nil && !money.ValidPrice(*line.UnitPrice) {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: unit price %s", i, money.PriceRule)
		}
	}
	if input.EstimatedDeliveryDays != nil && *input.EstimatedDeliveryDays < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "estimated delivery days cannot be negative")
	}
	return nil
}

func buildActor(userID uuid.UUID, role enums.UserRole) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{ID: userID, Role: string(role)}
}
