package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsbridge/marketplace/api/middleware"
	"github.com/partsbridge/marketplace/api/responses"
	"github.com/partsbridge/marketplace/internal/catalog"
)

func TestAPIClientDecodesDataEnvelope(t *testing.T) {
	productID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/public/products", r.URL.Path)
		assert.Equal(t, "resistor", r.URL.Query().Get("q"))
		assert.Equal(t, "true", r.URL.Query().Get("in_stock"))
		price := decimal.RequireFromString("0.12")
		responses.WriteSuccess(w, catalog.ProductList{
			Products:   []catalog.ProductSummary{{ID: productID, SKU: "R-10K", FromPrice: &price}},
			NextCursor: "next",
		})
	}))
	defer srv.Close()

	client, err := NewAPIClient(srv.URL, time.Second, nil)
	require.NoError(t, err)

	list, err := client.Products(context.Background(), ProductQuery{Search: "resistor", InStock: true})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, productID, list.Products[0].ID)
	assert.Equal(t, "0.12", list.Products[0].FromPrice.String())
	assert.Equal(t, "next", list.NextCursor)
}

func TestAPIClientSurfacesErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "key-1", r.Header.Get(middleware.IdempotencyHeader))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(responses.ErrorEnvelope{Error: responses.APIError{
			Code:    "STATE_CONFLICT",
			Message: "quotation request is no longer pending",
		}})
	}))
	defer srv.Close()

	client, err := NewAPIClient(srv.URL, time.Second, nil)
	require.NoError(t, err)

	_, err = client.AcceptQuotation(context.Background(), "tok", "key-1", uuid.New(), nil)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "STATE_CONFLICT", apiErr.Code)
	assert.Equal(t, "quotation request is no longer pending", UserMessage(err))
	assert.False(t, IsUnauthorized(err))
}

func TestAPIClientNonEnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewAPIClient(srv.URL, time.Second, nil)
	require.NoError(t, err)

	_, err = client.Cart(context.Background(), "tok")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "UNKNOWN", apiErr.Code)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestAPIClientTransportFailureHasGenericMessage(t *testing.T) {
	client, err := NewAPIClient("http://127.0.0.1:1", 200*time.Millisecond, nil)
	require.NoError(t, err)

	_, err = client.Categories(context.Background())
	require.Error(t, err)
	assert.Equal(t, "The marketplace is unavailable right now. Please try again.", UserMessage(err))
}

func TestNewAPIClientRejectsBadURL(t *testing.T) {
	_, err := NewAPIClient("not a url", time.Second, nil)
	assert.Error(t, err)
}
