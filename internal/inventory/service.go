package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/pkg/db/models"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
	"github.com/partsbridge/marketplace/pkg/money"
)

const (
	minDeliveryDays = 1
	maxDeliveryDays = 365
)

type productChecker interface {
	ProductExists(ctx context.Context, productID uuid.UUID) (bool, error)
}

// Service exposes the distributor-facing inventory surface plus the
// transactional stock primitives used by orders.
type Service interface {
	List(ctx context.Context, distributorID uuid.UUID) ([]Item, error)
	Upsert(ctx context.Context, input UpsertInput) (*Item, error)
	Offers(ctx context.Context, productID uuid.UUID) ([]Offer, error)
	Lookup(ctx context.Context, tx *gorm.DB, distributorID, productID uuid.UUID) (*models.DistributorInventory, error)
	Decrement(ctx context.Context, tx *gorm.DB, distributorID, productID uuid.UUID, qty int) error
	Increment(ctx context.Context, tx *gorm.DB, distributorID, productID uuid.UUID, qty int) error
}

type service struct {
	repo     Repository
	products productChecker
}

func NewService(repo Repository, products productChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product checker required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) List(ctx context.Context, distributorID uuid.UUID) ([]Item, error) {
	if distributorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "distributor context missing")
	}
	rows, err := s.repo.ListByDistributor(ctx, distributorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, toItem(row))
	}
	return items, nil
}

func (s *service) Upsert(ctx context.Context, input UpsertInput) (*Item, error) {
	if input.DistributorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "distributor context missing")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	exists, err := s.products.ProductExists(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	row := &models.DistributorInventory{
		DistributorID: input.DistributorID,
		ProductID:     input.ProductID,
		Price:         input.Price,
		Stock:         input.Stock,
		DeliveryDays:  input.DeliveryDays,
		IsActive:      active,
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save inventory")
	}
	saved, err := s.repo.Find(ctx, input.DistributorID, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory")
	}
	item := toItem(*saved)
	return &item, nil
}

func (s *service) Offers(ctx context.Context, productID uuid.UUID) ([]Offer, error) {
	rows, err := s.repo.ListOffersForProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	offers := make([]Offer, 0, len(rows))
	for _, row := range rows {
		offer := Offer{
			DistributorID: row.DistributorID,
			Price:         row.Price,
			Stock:         row.Stock,
			DeliveryDays:  row.DeliveryDays,
		}
		if row.Distributor != nil {
			offer.DistributorName = row.Distributor.CompanyName
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

func (s *service) Lookup(ctx context.Context, tx *gorm.DB, distributorID, productID uuid.UUID) (*models.DistributorInventory, error) {
	row, err := s.repo.WithTx(tx).Find(ctx, distributorID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "distributor does not offer product").
				WithDetails(map[string]any{"distributor_id": distributorID, "product_id": productID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	if !row.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distributor does not offer product").
			WithDetails(map[string]any{"distributor_id": distributorID, "product_id": productID})
	}
	return row, nil
}

func (s *service) Decrement(ctx context.Context, tx *gorm.DB, distributorID, productID uuid.UUID, qty int) error {
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	repo := s.repo.WithTx(tx)
	affected, err := repo.DecrementStock(ctx, distributorID, productID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	if affected > 0 {
		return nil
	}

	// The update matched nothing; read back only to explain why.
	row, err := s.Lookup(ctx, tx, distributorID, productID)
	if err != nil {
		return err
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").WithDetails(map[string]any{
		"distributor_id": distributorID,
		"product_id":     productID,
		"requested":      qty,
		"available":      row.Stock,
	})
}

func (s *service) Increment(ctx context.Context, tx *gorm.DB, distributorID, productID uuid.UUID, qty int) error {
	if qty < 1 {
		return nil
	}
	affected, err := s.repo.WithTx(tx).IncrementStock(ctx, distributorID, productID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory row not found").
			WithDetails(map[string]any{"distributor_id": distributorID, "product_id": productID})
	}
	return nil
}

func (in UpsertInput) validate() error {
	if in.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if !money.ValidPrice(in.Price) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price "+money.PriceRule)
	}
	if in.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if in.DeliveryDays < minDeliveryDays || in.DeliveryDays > maxDeliveryDays {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "delivery days must be between %d and %d", minDeliveryDays, maxDeliveryDays)
	}
	return nil
}
