package quotations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/internal/orders"
	"github.com/partsbridge/marketplace/pkg/auth"
	"github.com/partsbridge/marketplace/pkg/config"
	"github.com/partsbridge/marketplace/pkg/db"
	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
	"github.com/partsbridge/marketplace/pkg/money"
	"github.com/partsbridge/marketplace/pkg/outbox"
	"github.com/partsbridge/marketplace/pkg/pagination"
)

const (
	minDeliveryDays = 1
	maxDeliveryDays = 365
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type productDirectory interface {
	ExistingProductIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error)
}

type orderCreator interface {
	CreateTx(ctx context.Context, tx *gorm.DB, input orders.CreateInput) (*orders.OrderDTO, error)
}

// Options tune request submission.
type Options struct {
	ItemPolicy        config.ItemPolicy
	DefaultRequiredBy time.Duration
	Now               func() time.Time
}

// Service runs the quotation workflow: requests, distributor responses,
// comparison and acceptance into an order.
type Service interface {
	SubmitRequest(ctx context.Context, input SubmitRequestInput) (*RequestDTO, error)
	CancelRequest(ctx context.Context, actor auth.Principal, requestID uuid.UUID) (*RequestDTO, error)
	ListRequests(ctx context.Context, actor auth.Principal, filters RequestFilters, params pagination.Params) (*RequestList, error)
	GetRequest(ctx context.Context, actor auth.Principal, requestID uuid.UUID) (*RequestDTO, error)

	SubmitResponse(ctx context.Context, input SubmitResponseInput) (*ResponseDTO, error)
	UpdateResponse(ctx context.Context, actor auth.Principal, responseID uuid.UUID, input UpdateResponseInput) (*ResponseDTO, error)
	WithdrawResponse(ctx context.Context, actor auth.Principal, responseID uuid.UUID) (*ResponseDTO, error)
	ListResponses(ctx context.Context, actor auth.Principal, filters ResponseFilters, params pagination.Params) (*ResponseList, error)

	Compare(ctx context.Context, actor auth.Principal, requestID uuid.UUID) (*Comparison, error)
	Accept(ctx context.Context, actor auth.Principal, input AcceptInput) (*AcceptResult, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	products productDirectory
	orders   orderCreator
	opts     Options
}

func NewService(repo Repository, tx txRunner, outbox outboxPublisher, products productDirectory, orders orderCreator, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quotations repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if products == nil {
		return nil, fmt.Errorf("product directory required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order creator required")
	}
	if opts.ItemPolicy == "" {
		opts.ItemPolicy = config.ItemPolicyLenient
	}
	if opts.DefaultRequiredBy <= 0 {
		opts.DefaultRequiredBy = 7 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &service{repo: repo, tx: tx, outbox: outbox, products: products, orders: orders, opts: opts}, nil
}

func (s *service) SubmitRequest(ctx context.Context, input SubmitRequestInput) (*RequestDTO, error) {
	if err := validateRequest(input); err != nil {
		return nil, err
	}
	now := s.opts.Now().UTC()
	requiredBy := now.Add(s.opts.DefaultRequiredBy)
	if input.RequiredBy != nil {
		requiredBy = input.RequiredBy.UTC()
		if !requiredBy.After(now) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "required_by must be in the future")
		}
	}

	exists, err := s.repo.CustomerExists(ctx, input.CustomerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check customer")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer does not exist")
	}

	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		ids = append(ids, item.ProductID)
	}
	known, err := s.products.ExistingProductIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check products")
	}
	missing := missingIDs(ids, known)
	if len(missing) > 0 && s.opts.ItemPolicy == config.ItemPolicyStrict {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quotation request references unknown products").
			WithDetails(map[string]any{"unknown_product_ids": missing})
	}

	request := models.QuotationRequest{
		ID:              uuid.New(),
		CustomerID:      input.CustomerID,
		Status:          enums.QuotationRequestStatusPending,
		Notes:           input.Notes,
		RequiredBy:      requiredBy,
		DeliveryAddress: input.DeliveryAddress,
		ContactPhone:    input.ContactPhone,
	}
	productIDs := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		if !known[item.ProductID] {
			continue
		}
		request.Items = append(request.Items, models.QuotationRequestItem{
			QuotationRequestID: request.ID,
			ProductID:          item.ProductID,
			Quantity:           item.Quantity,
			Specification:      item.Specification,
		})
		productIDs = append(productIDs, item.ProductID)
	}
	if len(request.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quotation request has no items referencing existing products").
			WithDetails(map[string]any{"unknown_product_ids": missing})
	}

	var created *models.QuotationRequest
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateRequest(ctx, &request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert quotation request")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventQuotationRequested,
			AggregateType: enums.AggregateQuotationRequest,
			AggregateID:   request.ID,
			Actor:         actorRef(input.ActorUserID, enums.UserRoleCustomer),
			Data: QuotationRequestedEvent{
				RequestID:  request.ID,
				CustomerID: request.CustomerID,
				ProductIDs: productIDs,
				RequiredBy: request.RequiredBy,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit quotation requested")
		}
		loaded, err := repo.FindRequest(ctx, request.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload quotation request")
		}
		created = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toRequestDTO(*created, nil)
	return &dto, nil
}

func (s *service) CancelRequest(ctx context.Context, actor auth.Principal, requestID uuid.UUID) (*RequestDTO, error) {
	if !actor.IsCustomer() && !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the requesting customer can cancel a quotation request")
	}
	var result *RequestDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}
		if actor.IsCustomer() && request.CustomerID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "quotation request does not belong to customer")
		}
		if request.Status != enums.QuotationRequestStatusPending {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "quotation request is %s", request.Status)
		}

		affected, err := repo.TransitionRequest(ctx, request.ID, enums.QuotationRequestStatusPending, enums.QuotationRequestStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel quotation request")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "quotation request changed while cancelling; retry")
		}
		cascaded, err := repo.TransitionResponsesForRequest(ctx, request.ID, nil, enums.QuotationResponseStatusSubmitted, enums.QuotationResponseStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel quotation responses")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventQuotationRequestCancelled,
			AggregateType: enums.AggregateQuotationRequest,
			AggregateID:   request.ID,
			Actor:         actorRef(actor.UserID, actor.Role),
			Data: QuotationRequestCancelledEvent{
				RequestID:          request.ID,
				CustomerID:         request.CustomerID,
				CancelledResponses: cascaded,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit quotation request cancelled")
		}

		reloaded, err := repo.FindRequest(ctx, request.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload quotation request")
		}
		dto := toRequestDTO(*reloaded, nil)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListRequests shows customers their own requests, distributors the open
// board of pending requests, and admins everything.
func (s *service) ListRequests(ctx context.Context, actor auth.Principal, filters RequestFilters, params pagination.Params) (*RequestList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	scope := RequestScope{Status: filters.Status}
	switch actor.Role {
	case enums.UserRoleCustomer:
		id := actor.ID
		scope.CustomerID = &id
	case enums.UserRoleDistributor:
		pending := enums.QuotationRequestStatusPending
		id := actor.ID
		scope.Status = &pending
		scope.ResponderID = &id
	case enums.UserRoleAdmin:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown role")
	}

	rows, err := s.repo.ListRequests(ctx, scope, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotation requests")
	}
	rows, next := pagination.Trim(rows, params.Limit, func(r models.QuotationRequest) (time.Time, uuid.UUID) {
		return r.CreatedAt, r.ID
	})
	list := &RequestList{Requests: make([]RequestDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		list.Requests = append(list.Requests, toRequestDTO(row, nil))
	}
	return list, nil
}

// GetRequest returns the request with its responses. Distributors only see
// their own response next to the request.
func (s *service) GetRequest(ctx context.Context, actor auth.Principal, requestID uuid.UUID) (*RequestDTO, error) {
	request, err := loadRequest(ctx, s.repo, requestID)
	if err != nil {
		return nil, err
	}
	responses, err := s.repo.ResponsesForRequest(ctx, request.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quotation responses")
	}

	switch actor.Role {
	case enums.UserRoleAdmin:
	case enums.UserRoleCustomer:
		if request.CustomerID != actor.ID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "quotation request does not belong to customer")
		}
	case enums.UserRoleDistributor:
		own := responses[:0:0]
		for _, resp := range responses {
			if resp.DistributorID == actor.ID {
				own = append(own, resp)
			}
		}
		if request.Status != enums.QuotationRequestStatusPending && len(own) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "quotation request is closed")
		}
		responses = own
	default:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown role")
	}

	request.Responses = responses
	dto := toRequestDTO(*request, responses)
	return &dto, nil
}

func (s *service) SubmitResponse(ctx context.Context, input SubmitResponseInput) (*ResponseDTO, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if input.DistributorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distributor id required")
	}
	items, total, err := s.buildResponseItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	response := models.QuotationResponse{
		ID:                 uuid.New(),
		QuotationRequestID: input.RequestID,
		DistributorID:      input.DistributorID,
		Status:             enums.QuotationResponseStatusSubmitted,
		TotalPrice:         total,
		Notes:              input.Notes,
		SubmittedAt:        s.opts.Now().UTC(),
		Items:              items,
	}
	for i := range response.Items {
		response.Items[i].QuotationResponseID = response.ID
	}

	var created *models.QuotationResponse
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := loadRequest(ctx, repo, input.RequestID)
		if err != nil {
			return err
		}
		if request.Status != enums.QuotationRequestStatusPending {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "quotation request is %s", request.Status)
		}

		exists, err := repo.ResponseExists(ctx, input.RequestID, input.DistributorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing response")
		}
		if exists {
			return duplicateResponse(input.RequestID, input.DistributorID)
		}
		if err := repo.CreateResponse(ctx, &response); err != nil {
			// Two submissions can both pass the check; the unique index decides.
			if db.IsUniqueViolation(err, "") {
				return duplicateResponse(input.RequestID, input.DistributorID)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert quotation response")
		}

		if err := s.emitResponseEvent(ctx, tx, enums.EventQuotationResponded, response, input.ActorUserID); err != nil {
			return err
		}
		loaded, err := repo.FindResponse(ctx, response.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload quotation response")
		}
		created = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toResponseDTO(*created)
	return &dto, nil
}

func (s *service) UpdateResponse(ctx context.Context, actor auth.Principal, responseID uuid.UUID, input UpdateResponseInput) (*ResponseDTO, error) {
	if !actor.IsDistributor() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only distributors can revise responses")
	}
	items, total, err := s.buildResponseItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	var result *ResponseDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		response, err := loadOwnedResponse(ctx, repo, actor, responseID)
		if err != nil {
			return err
		}
		if response.Status != enums.QuotationResponseStatusSubmitted {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "quotation response is %s", response.Status)
		}
		affected, err := repo.ReplaceResponseItems(ctx, response.ID, items, total, input.Notes)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace quotation response items")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "quotation response changed while updating; retry")
		}

		reloaded, err := repo.FindResponse(ctx, response.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload quotation response")
		}
		if err := s.emitResponseEvent(ctx, tx, enums.EventQuotationResponseUpdated, *reloaded, actor.UserID); err != nil {
			return err
		}
		dto := toResponseDTO(*reloaded)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) WithdrawResponse(ctx context.Context, actor auth.Principal, responseID uuid.UUID) (*ResponseDTO, error) {
	if !actor.IsDistributor() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only distributors can withdraw responses")
	}
	var result *ResponseDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		response, err := loadOwnedResponse(ctx, repo, actor, responseID)
		if err != nil {
			return err
		}
		if response.Status != enums.QuotationResponseStatusSubmitted {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "quotation response is %s", response.Status)
		}
		affected, err := repo.TransitionResponse(ctx, response.ID, enums.QuotationResponseStatusSubmitted, enums.QuotationResponseStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "withdraw quotation response")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "quotation response changed while withdrawing; retry")
		}
		response.Status = enums.QuotationResponseStatusCancelled
		if err := s.emitResponseEvent(ctx, tx, enums.EventQuotationResponseWithdrew, *response, actor.UserID); err != nil {
			return err
		}
		dto := toResponseDTO(*response)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ListResponses(ctx context.Context, actor auth.Principal, filters ResponseFilters, params pagination.Params) (*ResponseList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	scope := ResponseScope{RequestID: filters.RequestID, Status: filters.Status}
	switch actor.Role {
	case enums.UserRoleDistributor:
		id := actor.ID
		scope.DistributorID = &id
	case enums.UserRoleAdmin:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "responses are listed per distributor")
	}

	rows, err := s.repo.ListResponses(ctx, scope, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotation responses")
	}
	rows, next := pagination.Trim(rows, params.Limit, func(r models.QuotationResponse) (time.Time, uuid.UUID) {
		return r.CreatedAt, r.ID
	})
	list := &ResponseList{Responses: make([]ResponseDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		list.Responses = append(list.Responses, toResponseDTO(row))
	}
	return list, nil
}

func (s *service) Compare(ctx context.Context, actor auth.Principal, requestID uuid.UUID) (*Comparison, error) {
	request, err := loadRequest(ctx, s.repo, requestID)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.IsAdmin():
	case actor.IsCustomer() && request.CustomerID == actor.ID:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the requesting customer can compare responses")
	}
	responses, err := s.repo.ResponsesForRequest(ctx, request.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quotation responses")
	}
	result := compare(*request, responses)
	return &result, nil
}

// Accept turns a submitted response into an order. Order placement, the
// response and request transitions, and sibling rejection share one
// transaction.
func (s *service) Accept(ctx context.Context, actor auth.Principal, input AcceptInput) (*AcceptResult, error) {
	if !actor.IsCustomer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers can accept quotation responses")
	}
	if input.ResponseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "response id required")
	}

	var result *AcceptResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		response, err := repo.FindResponse(ctx, input.ResponseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "quotation response not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quotation response")
		}
		request, err := loadRequest(ctx, repo, response.QuotationRequestID)
		if err != nil {
			return err
		}
		if request.CustomerID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "quotation request does not belong to customer")
		}
		if response.Status != enums.QuotationResponseStatusSubmitted {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "quotation response is %s", response.Status)
		}
		if request.Status != enums.QuotationRequestStatusPending {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "quotation request is %s", request.Status)
		}

		lines := make([]orders.LineInput, 0, len(response.Items))
		for _, item := range response.Items {
			price := item.UnitPrice
			lines = append(lines, orders.LineInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: &price,
			})
		}
		responseID := response.ID
		address := request.DeliveryAddress
		order, err := s.orders.CreateTx(ctx, tx, orders.CreateInput{
			CustomerID:            request.CustomerID,
			DistributorID:         response.DistributorID,
			QuotationResponseID:   &responseID,
			Notes:                 input.Notes,
			DeliveryAddress:       &address,
			EstimatedDeliveryDays: estimatedDeliveryDays(response.Items),
			Items:                 lines,
			ActorUserID:           actor.UserID,
			ActorRole:             actor.Role,
		})
		if err != nil {
			return err
		}

		affected, err := repo.TransitionResponse(ctx, response.ID, enums.QuotationResponseStatusSubmitted, enums.QuotationResponseStatusAccepted)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept quotation response")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "quotation response changed while accepting; retry")
		}
		affected, err = repo.TransitionRequest(ctx, request.ID, enums.QuotationRequestStatusPending, enums.QuotationRequestStatusCompleted)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete quotation request")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "quotation request changed while accepting; retry")
		}
		rejected, err := repo.TransitionResponsesForRequest(ctx, request.ID, &responseID, enums.QuotationResponseStatusSubmitted, enums.QuotationResponseStatusRejected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject sibling responses")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventQuotationAccepted,
			AggregateType: enums.AggregateQuotationRequest,
			AggregateID:   request.ID,
			Actor:         actorRef(actor.UserID, actor.Role),
			Data: QuotationAcceptedEvent{
				RequestID:     request.ID,
				ResponseID:    response.ID,
				CustomerID:    request.CustomerID,
				DistributorID: response.DistributorID,
				OrderID:       order.ID,
				TotalPrice:    response.TotalPrice,
				RejectedCount: rejected,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit quotation accepted")
		}

		result = &AcceptResult{
			RequestID:     request.ID,
			ResponseID:    response.ID,
			RejectedCount: rejected,
			Order:         order,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// buildResponseItems validates response lines and prices them. Any unknown
// product rejects the whole submission.
func (s *service) buildResponseItems(ctx context.Context, inputs []ResponseItemInput) ([]models.QuotationResponseItem, decimal.Decimal, error) {
	if len(inputs) == 0 {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "response requires at least one item")
	}
	ids := make([]uuid.UUID, 0, len(inputs))
	for i, in := range inputs {
		switch {
		case in.ProductID == uuid.Nil:
			return nil, decimal.Zero, pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: product id required", i)
		case !money.ValidPrice(in.UnitPrice):
			return nil, decimal.Zero, pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: unit price %s", i, money.PriceRule)
		case in.Stock < 0:
			return nil, decimal.Zero, pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: stock cannot be negative", i)
		case in.DeliveryDays < minDeliveryDays || in.DeliveryDays > maxDeliveryDays:
			return nil, decimal.Zero, pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: delivery days must be between %d and %d", i, minDeliveryDays, maxDeliveryDays)
		case in.Quantity < 1:
			return nil, decimal.Zero, pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: quantity must be at least 1", i)
		}
		ids = append(ids, in.ProductID)
	}

	known, err := s.products.ExistingProductIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check products")
	}
	if missing := missingIDs(ids, known); len(missing) > 0 {
		return nil, decimal.Zero, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown products: %s", joinIDs(missing)).
			WithDetails(map[string]any{"unknown_product_ids": missing})
	}

	items := make([]models.QuotationResponseItem, 0, len(inputs))
	total := decimal.Zero
	for _, in := range inputs {
		lineTotal := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))
		total = total.Add(lineTotal)
		items = append(items, models.QuotationResponseItem{
			ProductID:    in.ProductID,
			UnitPrice:    in.UnitPrice,
			Stock:        in.Stock,
			DeliveryDays: in.DeliveryDays,
			Quantity:     in.Quantity,
			LineTotal:    lineTotal,
		})
	}
	return items, total, nil
}

func (s *service) emitResponseEvent(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, response models.QuotationResponse, actorUserID uuid.UUID) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateQuotationResponse,
		AggregateID:   response.ID,
		Actor:         actorRef(actorUserID, enums.UserRoleDistributor),
		Data: QuotationResponseEvent{
			ResponseID:    response.ID,
			RequestID:     response.QuotationRequestID,
			DistributorID: response.DistributorID,
			Status:        response.Status,
			TotalPrice:    response.TotalPrice,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("emit %s", eventType))
	}
	return nil
}

func loadRequest(ctx context.Context, repo Repository, id uuid.UUID) (*models.QuotationRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	request, err := repo.FindRequest(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quotation request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quotation request")
	}
	return request, nil
}

func loadOwnedResponse(ctx context.Context, repo Repository, actor auth.Principal, id uuid.UUID) (*models.QuotationResponse, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "response id required")
	}
	response, err := repo.FindResponse(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quotation response not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quotation response")
	}
	if response.DistributorID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "quotation response belongs to another distributor")
	}
	return response, nil
}

func validateRequest(input SubmitRequestInput) error {
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.DeliveryAddress == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}
	if input.ContactPhone == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "contact phone required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quotation request requires at least one item")
	}
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: product id required", i)
		}
		if item.Quantity < 1 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: quantity must be at least 1", i)
		}
	}
	return nil
}

func duplicateResponse(requestID, distributorID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "distributor already responded to this quotation request").
		WithDetails(map[string]any{"request_id": requestID, "distributor_id": distributorID})
}

// missingIDs returns the ids absent from known, deduplicated and sorted.
func missingIDs(ids []uuid.UUID, known map[uuid.UUID]bool) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var missing []uuid.UUID
	for _, id := range ids {
		if known[id] || seen[id] {
			continue
		}
		seen[id] = true
		missing = append(missing, id)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].String() < missing[j].String() })
	return missing
}

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ", ")
}

func actorRef(userID uuid.UUID, role enums.UserRole) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{ID: userID, Role: string(role)}
}
