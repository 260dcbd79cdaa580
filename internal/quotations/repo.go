package quotations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
	"github.com/partsbridge/marketplace/pkg/pagination"
)

// RequestScope limits request listings. Zero values mean no limit.
type RequestScope struct {
	CustomerID *uuid.UUID
	Status     *enums.QuotationRequestStatus
	// ResponderID limits the preloaded responses to one distributor's.
	ResponderID *uuid.UUID
}

type ResponseScope struct {
	DistributorID *uuid.UUID
	RequestID     *uuid.UUID
	Status        *enums.QuotationResponseStatus
}

// Repository persists quotation requests, responses and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CustomerExists(ctx context.Context, id uuid.UUID) (bool, error)

	CreateRequest(ctx context.Context, request *models.QuotationRequest) error
	FindRequest(ctx context.Context, id uuid.UUID) (*models.QuotationRequest, error)
	ListRequests(ctx context.Context, scope RequestScope, params pagination.Params) ([]models.QuotationRequest, error)
	TransitionRequest(ctx context.Context, id uuid.UUID, from, to enums.QuotationRequestStatus) (int64, error)

	ResponseExists(ctx context.Context, requestID, distributorID uuid.UUID) (bool, error)
	CreateResponse(ctx context.Context, response *models.QuotationResponse) error
	FindResponse(ctx context.Context, id uuid.UUID) (*models.QuotationResponse, error)
	ResponsesForRequest(ctx context.Context, requestID uuid.UUID) ([]models.QuotationResponse, error)
	ListResponses(ctx context.Context, scope ResponseScope, params pagination.Params) ([]models.QuotationResponse, error)
	ReplaceResponseItems(ctx context.Context, responseID uuid.UUID, items []models.QuotationResponseItem, total decimal.Decimal, notes *string) (int64, error)
	TransitionResponse(ctx context.Context, id uuid.UUID, from, to enums.QuotationResponseStatus) (int64, error)
	TransitionResponsesForRequest(ctx context.Context, requestID uuid.UUID, exceptID *uuid.UUID, from, to enums.QuotationResponseStatus) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CustomerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateRequest(ctx context.Context, request *models.QuotationRequest) error {
	return r.db.WithContext(ctx).Omit("Responses").Create(request).Error
}

func (r *repository) FindRequest(ctx context.Context, id uuid.UUID) (*models.QuotationRequest, error) {
	var request models.QuotationRequest
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product").
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListRequests(ctx context.Context, scope RequestScope, params pagination.Params) ([]models.QuotationRequest, error) {
	query := r.db.WithContext(ctx).
		Model(&models.QuotationRequest{}).
		Preload("Items.Product").
		Preload("Responses", func(tx *gorm.DB) *gorm.DB {
			tx = tx.Where("status <> ?", enums.QuotationResponseStatusCancelled)
			if scope.ResponderID != nil {
				tx = tx.Where("distributor_id = ?", *scope.ResponderID)
			}
			return tx
		})
	if scope.CustomerID != nil {
		query = query.Where("customer_id = ?", *scope.CustomerID)
	}
	if scope.Status != nil {
		query = query.Where("status = ?", *scope.Status)
	}
	query, err := pagination.Apply(query, "quotation_requests", params)
	if err != nil {
		return nil, err
	}
	var rows []models.QuotationRequest
	err = query.Find(&rows).Error
	return rows, err
}

// TransitionRequest moves a request from one status to another. Zero rows
// affected means the request was no longer in from.
func (r *repository) TransitionRequest(ctx context.Context, id uuid.UUID, from, to enums.QuotationRequestStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.QuotationRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	return result.RowsAffected, result.Error
}

func (r *repository) ResponseExists(ctx context.Context, requestID, distributorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.QuotationResponse{}).
		Where("quotation_request_id = ? AND distributor_id = ?", requestID, distributorID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateResponse(ctx context.Context, response *models.QuotationResponse) error {
	return r.db.WithContext(ctx).Omit("Distributor").Create(response).Error
}

func (r *repository) FindResponse(ctx context.Context, id uuid.UUID) (*models.QuotationResponse, error) {
	var response models.QuotationResponse
	err := r.preloadResponse(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&response).Error
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *repository) ResponsesForRequest(ctx context.Context, requestID uuid.UUID) ([]models.QuotationResponse, error) {
	var rows []models.QuotationResponse
	err := r.preloadResponse(r.db.WithContext(ctx)).
		Where("quotation_request_id = ?", requestID).
		Order("submitted_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListResponses(ctx context.Context, scope ResponseScope, params pagination.Params) ([]models.QuotationResponse, error) {
	query := r.preloadResponse(r.db.WithContext(ctx).Model(&models.QuotationResponse{}))
	if scope.DistributorID != nil {
		query = query.Where("distributor_id = ?", *scope.DistributorID)
	}
	if scope.RequestID != nil {
		query = query.Where("quotation_request_id = ?", *scope.RequestID)
	}
	if scope.Status != nil {
		query = query.Where("status = ?", *scope.Status)
	}
	query, err := pagination.Apply(query, "quotation_responses", params)
	if err != nil {
		return nil, err
	}
	var rows []models.QuotationResponse
	err = query.Find(&rows).Error
	return rows, err
}

// ReplaceResponseItems swaps the lines of a submitted response and stores the
// new total. It returns zero when the response has left submitted.
func (r *repository) ReplaceResponseItems(ctx context.Context, responseID uuid.UUID, items []models.QuotationResponseItem, total decimal.Decimal, notes *string) (int64, error) {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.QuotationResponse{}).
		Where("id = ? AND status = ?", responseID, enums.QuotationResponseStatusSubmitted).
		Updates(map[string]any{
			"total_price": total,
			"notes":       notes,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil || result.RowsAffected == 0 {
		return result.RowsAffected, result.Error
	}
	if err := db.Where("quotation_response_id = ?", responseID).Delete(&models.QuotationResponseItem{}).Error; err != nil {
		return 0, err
	}
	for i := range items {
		items[i].QuotationResponseID = responseID
	}
	if err := db.Create(&items).Error; err != nil {
		return 0, err
	}
	return result.RowsAffected, nil
}

func (r *repository) TransitionResponse(ctx context.Context, id uuid.UUID, from, to enums.QuotationResponseStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.QuotationResponse{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	return result.RowsAffected, result.Error
}

// TransitionResponsesForRequest moves every response of the request still in
// from, optionally skipping exceptID.
func (r *repository) TransitionResponsesForRequest(ctx context.Context, requestID uuid.UUID, exceptID *uuid.UUID, from, to enums.QuotationResponseStatus) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.QuotationResponse{}).
		Where("quotation_request_id = ? AND status = ?", requestID, from)
	if exceptID != nil {
		query = query.Where("id <> ?", *exceptID)
	}
	result := query.Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	return result.RowsAffected, result.Error
}

func (r *repository) preloadResponse(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product").
		Preload("Distributor")
}
