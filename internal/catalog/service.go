package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/internal/inventory"
	"github.com/partsbridge/marketplace/pkg/db"
	"github.com/partsbridge/marketplace/pkg/db/models"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
	"github.com/partsbridge/marketplace/pkg/pagination"
)

type offerLister interface {
	Offers(ctx context.Context, productID uuid.UUID) ([]inventory.Offer, error)
}

// Service is the catalog read surface plus admin maintenance.
type Service interface {
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error)
	ListProducts(ctx context.Context, filters ProductFilters, params pagination.Params) (*ProductList, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error)
	CreateProduct(ctx context.Context, input ProductInput) (*ProductDetail, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDetail, error)
}

type service struct {
	repo   Repository
	offers offerLister
}

func NewService(repo Repository, offers offerLister) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if offers == nil {
		return nil, fmt.Errorf("offer lister required")
	}
	return &service{repo: repo, offers: offers}, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toCategoryDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	row := &models.Category{Name: name, Description: input.Description}
	if err := s.repo.CreateCategory(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return toCategoryDTO(row), nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	updates := map[string]any{}
	if name := strings.TrimSpace(input.Name); name != "" {
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	if err := s.repo.UpdateCategory(ctx, id, updates); err != nil {
		return nil, mapWriteErr(err, "category")
	}
	row, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload category")
	}
	return toCategoryDTO(row), nil
}

func (s *service) ListProducts(ctx context.Context, filters ProductFilters, params pagination.Params) (*ProductList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListProducts(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	rows, next := pagination.Trim(rows, params.Limit, func(p models.Product) (time.Time, uuid.UUID) {
		return p.CreatedAt, p.ID
	})

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	stats, err := s.repo.OfferStats(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer stats")
	}

	list := &ProductList{Products: make([]ProductSummary, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		list.Products = append(list.Products, toProductSummary(row, stats[row.ID]))
	}
	return list, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	row, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	offers, err := s.offers.Offers(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := OfferStats{Offers: len(offers)}
	for i := range offers {
		stats.TotalStock += offers[i].Stock
		if stats.MinPrice == nil || offers[i].Price.LessThan(*stats.MinPrice) {
			price := offers[i].Price
			stats.MinPrice = &price
		}
	}
	return &ProductDetail{
		ProductSummary: toProductSummary(*row, stats),
		Description:    row.Description,
		DatasheetURL:   row.DatasheetURL,
		Offers:         offers,
	}, nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*ProductDetail, error) {
	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)
	manufacturer := strings.TrimSpace(input.Manufacturer)
	if sku == "" || name == "" || manufacturer == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku, name and manufacturer are required")
	}
	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	row := &models.Product{
		CategoryID:   input.CategoryID,
		SKU:          sku,
		Name:         name,
		Manufacturer: manufacturer,
		Description:  input.Description,
		DatasheetURL: input.DatasheetURL,
		IsActive:     active,
	}
	if err := s.repo.CreateProduct(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return s.GetProduct(ctx, row.ID)
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDetail, error) {
	updates := map[string]any{}
	if v := strings.TrimSpace(input.SKU); v != "" {
		updates["sku"] = v
	}
	if v := strings.TrimSpace(input.Name); v != "" {
		updates["name"] = v
	}
	if v := strings.TrimSpace(input.Manufacturer); v != "" {
		updates["manufacturer"] = v
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.DatasheetURL != nil {
		updates["datasheet_url"] = *input.DatasheetURL
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *input.CategoryID
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	if err := s.repo.UpdateProduct(ctx, id, updates); err != nil {
		return nil, mapWriteErr(err, "product")
	}
	return s.GetProduct(ctx, id)
}

func (s *service) ensureCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.repo.FindCategory(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return nil
}

func mapWriteErr(err error, entity string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "%s not found", entity)
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.Newf(pkgerrors.CodeConflict, "%s already exists", entity)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update "+entity)
	}
}
