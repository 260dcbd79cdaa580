package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/partsbridge/marketplace/api/responses"
	"github.com/partsbridge/marketplace/api/validators"
	"github.com/partsbridge/marketplace/internal/catalog"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
	"github.com/partsbridge/marketplace/pkg/logger"
)

type categoryRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Description *string `json:"description,omitempty"`
}

type categoryUpdateRequest struct {
	Name        string  `json:"name" validate:"omitempty,max=120"`
	Description *string `json:"description,omitempty"`
}

type productRequest struct {
	CategoryID   *uuid.UUID `json:"category_id,omitempty"`
	SKU          string     `json:"sku" validate:"required,max=64"`
	Name         string     `json:"name" validate:"required,max=255"`
	Manufacturer string     `json:"manufacturer" validate:"required,max=255"`
	Description  *string    `json:"description,omitempty"`
	DatasheetURL *string    `json:"datasheet_url,omitempty" validate:"omitempty,url"`
	IsActive     *bool      `json:"is_active,omitempty"`
}

// productUpdateRequest applies only the fields that are present.
type productUpdateRequest struct {
	CategoryID   *uuid.UUID `json:"category_id,omitempty"`
	SKU          string     `json:"sku" validate:"omitempty,max=64"`
	Name         string     `json:"name" validate:"omitempty,max=255"`
	Manufacturer string     `json:"manufacturer" validate:"omitempty,max=255"`
	Description  *string    `json:"description,omitempty"`
	DatasheetURL *string    `json:"datasheet_url,omitempty" validate:"omitempty,url"`
	IsActive     *bool      `json:"is_active,omitempty"`
}

func ListCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}

// ListProducts accepts category_id, q, in_stock, limit and cursor.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inStock, err := validators.ParseQueryBool(r, "in_stock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := catalog.ProductFilters{
			CategoryID:  categoryID,
			Search:      validators.CleanSearch(r.URL.Query().Get("q"), 120),
			InStockOnly: inStock,
		}
		list, err := svc.ListProducts(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminCreateCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		var body categoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.CreateCategory(r.Context(), catalog.CategoryInput{Name: body.Name, Description: body.Description})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, category)
	}
}

func AdminUpdateCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		categoryID, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body categoryUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.UpdateCategory(r.Context(), categoryID, catalog.CategoryInput{Name: body.Name, Description: body.Description})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		var body productRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), catalog.ProductInput{
			CategoryID:   body.CategoryID,
			SKU:          body.SKU,
			Name:         body.Name,
			Manufacturer: body.Manufacturer,
			Description:  body.Description,
			DatasheetURL: body.DatasheetURL,
			IsActive:     body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, product)
	}
}

// AdminUpdateProduct also deactivates a product via is_active=false.
func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body productUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), productID, catalog.ProductInput{
			CategoryID:   body.CategoryID,
			SKU:          body.SKU,
			Name:         body.Name,
			Manufacturer: body.Manufacturer,
			Description:  body.Description,
			DatasheetURL: body.DatasheetURL,
			IsActive:     body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
