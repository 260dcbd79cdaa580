package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/partsbridge/marketplace/api/middleware"
	"github.com/partsbridge/marketplace/api/responses"
	"github.com/partsbridge/marketplace/internal/admin"
	"github.com/partsbridge/marketplace/internal/auth"
	"github.com/partsbridge/marketplace/internal/cart"
	"github.com/partsbridge/marketplace/internal/catalog"
	"github.com/partsbridge/marketplace/internal/inventory"
	"github.com/partsbridge/marketplace/internal/orders"
	"github.com/partsbridge/marketplace/internal/quotations"
	"github.com/partsbridge/marketplace/pkg/enums"
)

// APIError is a non-2xx answer from the API. Message is shown to users as is.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
}

// IsUnauthorized reports whether err is an API 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// UserMessage returns the text to flash for err.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "The marketplace is unavailable right now. Please try again."
}

// APIClient calls the JSON API on behalf of a browser session.
type APIClient struct {
	baseURL string
	http    *http.Client
}

func NewAPIClient(baseURL string, timeout time.Duration, transport http.RoundTripper) (*APIClient, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &APIClient{
		baseURL: strings.TrimRight(parsed.String(), "/"),
		http:    &http.Client{Timeout: timeout, Transport: transport},
	}, nil
}

type call struct {
	method         string
	path           string
	query          url.Values
	token          string
	idempotencyKey string
	body           any
	out            any
}

func (c *APIClient) do(ctx context.Context, req call) error {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", req.method, req.path, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", req.method, req.path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.idempotencyKey != "" {
		httpReq.Header.Set(middleware.IdempotencyHeader, req.idempotencyKey)
	}
	if id := middleware.RequestIDFrom(ctx); id != "" {
		httpReq.Header.Set(middleware.RequestIDHeader, id)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", req.method, req.path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope responses.ErrorEnvelope
		apiErr := &APIError{Status: resp.StatusCode, Code: "UNKNOWN", Message: http.StatusText(resp.StatusCode)}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Code != "" {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if req.out == nil || len(raw) == 0 {
		return nil
	}
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.method, req.path, err)
	}
	if err := json.Unmarshal(envelope.Data, req.out); err != nil {
		return fmt.Errorf("decode %s %s data: %w", req.method, req.path, err)
	}
	return nil
}

// Auth

func (c *APIClient) Login(ctx context.Context, email, password string) (*auth.TokenResponse, error) {
	var out auth.TokenResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/v1/auth/login",
		body:   auth.LoginRequest{Email: email, Password: password},
		out:    &out,
	})
	return &out, err
}

// RegisterForm mirrors the public registration body.
type RegisterForm struct {
	Role           enums.UserRole `json:"role"`
	Email          string         `json:"email"`
	Password       string         `json:"password"`
	CompanyName    string         `json:"company_name"`
	ContactName    string         `json:"contact_name,omitempty"`
	Phone          *string        `json:"phone,omitempty"`
	DefaultAddress *string        `json:"default_address,omitempty"`
	Website        *string        `json:"website,omitempty"`
}

func (c *APIClient) Register(ctx context.Context, form RegisterForm) (*auth.TokenResponse, error) {
	var out auth.TokenResponse
	err := c.do(ctx, call{method: http.MethodPost, path: "/api/v1/auth/register", body: form, out: &out})
	return &out, err
}

func (c *APIClient) Refresh(ctx context.Context, accessToken, refreshToken string) (*auth.TokenResponse, error) {
	var out auth.TokenResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/v1/auth/refresh",
		body:   auth.RefreshRequest{AccessToken: accessToken, RefreshToken: refreshToken},
		out:    &out,
	})
	return &out, err
}

func (c *APIClient) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/v1/auth/logout",
		token:  accessToken,
		body:   auth.LogoutRequest{AccessToken: accessToken},
	})
}

// Catalog

// ProductQuery filters the public product list.
type ProductQuery struct {
	CategoryID string
	Search     string
	InStock    bool
	Cursor     string
	Limit      int
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if q.CategoryID != "" {
		v.Set("category_id", q.CategoryID)
	}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.InStock {
		v.Set("in_stock", "true")
	}
	if q.Cursor != "" {
		v.Set("cursor", q.Cursor)
	}
	if q.Limit > 0 {
		v.Set("limit", fmt.Sprint(q.Limit))
	}
	return v
}

func (c *APIClient) Categories(ctx context.Context) ([]catalog.CategoryDTO, error) {
	var out struct {
		Categories []catalog.CategoryDTO `json:"categories"`
	}
	err := c.do(ctx, call{method: http.MethodGet, path: "/api/public/categories", out: &out})
	return out.Categories, err
}

func (c *APIClient) Products(ctx context.Context, q ProductQuery) (*catalog.ProductList, error) {
	var out catalog.ProductList
	err := c.do(ctx, call{method: http.MethodGet, path: "/api/public/products", query: q.values(), out: &out})
	return &out, err
}

func (c *APIClient) Product(ctx context.Context, productID string) (*catalog.ProductDetail, error) {
	var out catalog.ProductDetail
	err := c.do(ctx, call{method: http.MethodGet, path: "/api/public/products/" + url.PathEscape(productID), out: &out})
	return &out, err
}

// Cart

func (c *APIClient) Cart(ctx context.Context, token string) (*cart.CartDTO, error) {
	var out cart.CartDTO
	err := c.do(ctx, call{method: http.MethodGet, path: "/api/cart", token: token, out: &out})
	return &out, err
}

func (c *APIClient) AddCartItem(ctx context.Context, token, key string, line cart.LineInput) (*cart.CartDTO, error) {
	var out cart.CartDTO
	err := c.do(ctx, call{method: http.MethodPost, path: "/api/cart/items", token: token, idempotencyKey: key, body: line, out: &out})
	return &out, err
}

func (c *APIClient) SetCartQuantity(ctx context.Context, token, key, itemID string, qty int) (*cart.CartDTO, error) {
	var out cart.CartDTO
	err := c.do(ctx, call{
		method:         http.MethodPut,
		path:           "/api/cart/items/" + url.PathEscape(itemID),
		token:          token,
		idempotencyKey: key,
		body:           map[string]int{"quantity": qty},
		out:            &out,
	})
	return &out, err
}

func (c *APIClient) RemoveCartItem(ctx context.Context, token, key, itemID string) (*cart.CartDTO, error) {
	var out cart.CartDTO
	err := c.do(ctx, call{
		method:         http.MethodDelete,
		path:           "/api/cart/items/" + url.PathEscape(itemID),
		token:          token,
		idempotencyKey: key,
		out:            &out,
	})
	return &out, err
}

func (c *APIClient) MergeCart(ctx context.Context, token string, lines []cart.LineInput) (*cart.MergeResult, error) {
	var out cart.MergeResult
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/cart/merge",
		token:  token,
		body:   map[string][]cart.LineInput{"items": lines},
		out:    &out,
	})
	return &out, err
}

// CheckoutForm is the optional checkout body.
type CheckoutForm struct {
	Notes           *string `json:"notes,omitempty"`
	DeliveryAddress *string `json:"delivery_address,omitempty"`
}

func (c *APIClient) Checkout(ctx context.Context, token, key string, form CheckoutForm) (*cart.CheckoutResult, error) {
	var out cart.CheckoutResult
	err := c.do(ctx, call{method: http.MethodPost, path: "/api/cart/checkout", token: token, idempotencyKey: key, body: form, out: &out})
	return &out, err
}

// Orders

func (c *APIClient) Orders(ctx context.Context, token, status, cursor string) (*orders.OrderList, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var out orders.OrderList
	err := c.do(ctx, call{method: http.MethodGet, path: "/api/orders", query: q, token: token, out: &out})
	return &out, err
}

func (c *APIClient) Order(ctx context.Context, token, orderID string) (*orders.OrderDTO, error) {
	var out orders.OrderDTO
	err := c.do(ctx, call{method: http.MethodGet, path: "/api/orders/" + url.PathEscape(orderID), token: token, out: &out})
	return &out, err
}

func (c *APIClient) CancelOrder(ctx context.Context, token, key, orderID string) (*orders.OrderDTO, error) {
	var out orders.OrderDTO
	err := c.do(ctx, call{
		method:         http.MethodPost,
		path:           "/api/orders/" + url.PathEscape(orderID) + "/cancel",
		token:          token,
		idempotencyKey: key,
		out:            &out,
	})
	return &out, err
}

func (c *APIClient) AdvanceOrder(ctx context.Context, token, key, orderID string, status enums.OrderStatus) (*orders.OrderDTO, error) {
	var out orders.OrderDTO
	err := c.do(ctx, call{
		method:         http.MethodPost,
		path:           "/api/orders/" + url.PathEscape(orderID) + "/status",
		token:          token,
		idempotencyKey: key,
		body:           map[string]enums.OrderStatus{"status": status},
		out:            &out,
	})
	return &out, err
}

// Quotations

// QuotationItemForm is one line of a quotation request.
type QuotationItemForm struct {
	ProductID     uuid.UUID `json:"product_id"`
	Quantity      int       `json:"quantity"`
	Specification *string   `json:"specification,omitempty"`
}

type QuotationRequestForm struct {
	RequiredBy      *time.Time          `json:"required_by,omitempty"`
	DeliveryAddress string              `json:"delivery_address"`
	ContactPhone    string              `json:"contact_phone"`
	Notes           *string             `json:"notes,omitempty"`
	Items           []QuotationItemForm `json:"items"`
}

// QuotationResponseItemForm is one priced line of a distributor response.
type QuotationResponseItemForm struct {
	ProductID    uuid.UUID       `json:"product_id"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Stock        int             `json:"stock"`
	DeliveryDays int             `json:"delivery_days"`
	Quantity     int             `json:"quantity"`
}

type QuotationResponseForm struct {
	RequestID uuid.UUID                   `json:"request_id"`
	Notes     *string                     `json:"notes,omitempty"`
	Items     []QuotationResponseItemForm `json:"items"`
}

func (c *APIClient) SubmitQuotationRequest(ctx context.Context, token, key string, form QuotationRequestForm) (*quotations.RequestDTO, error) {
	var out quotations.RequestDTO
	err := c.do(ctx, call{method: http.MethodPost, path: "/api/quotation/request", token: token, idempotencyKey: key, body: form, out: &out})
	return &out, err
}

func (c *APIClient) QuotationRequests(ctx context.Context, token, status, cursor string) (*quotations.RequestList, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var out quotations.RequestList
	err := c.do(ctx, call{method: http.MethodGet, path: "/api/quotation/requests", query: q, token: token, out: &out})
	return &out, err
}

func (c *APIClient) QuotationRequest(ctx context.Context, token, requestID string) (*quotations.RequestDTO, error) {
	var out quotations.RequestDTO
	err := c.do(ctx, call{method: http.MethodGet, path: "/api/quotation/request/" + url.PathEscape(requestID), token: token, out: &out})
	return &out, err
}

func (c *APIClient) CancelQuotationRequest(ctx context.Context, token, key, requestID string) (*quotations.RequestDTO, error) {
	var out quotations.RequestDTO
	err := c.do(ctx, call{
		method:         http.MethodPost,
		path:           "/api/quotation/request/" + url.PathEscape(requestID) + "/cancel",
		token:          token,
		idempotencyKey: key,
		out:            &out,
	})
	return &out, err
}

func (c *APIClient) SubmitQuotationResponse(ctx context.Context, token, key string, form QuotationResponseForm) (*quotations.ResponseDTO, error) {
	var out quotations.ResponseDTO
	err := c.do(ctx, call{method: http.MethodPost, path: "/api/quotation/response", token: token, idempotencyKey: key, body: form, out: &out})
	return &out, err
}

func (c *APIClient) WithdrawQuotationResponse(ctx context.Context, token, key, responseID string) (*quotations.ResponseDTO, error) {
	var out quotations.ResponseDTO
	err := c.do(ctx, call{
		method:         http.MethodPost,
		path:           "/api/quotation/response/" + url.PathEscape(responseID) + "/withdraw",
		token:          token,
		idempotencyKey: key,
		out:            &out,
	})
	return &out, err
}

func (c *APIClient) QuotationResponses(ctx context.Context, token, requestID, status string) (*quotations.ResponseList, error) {
	q := url.Values{}
	if requestID != "" {
		q.Set("request_id", requestID)
	}
	if status != "" {
		q.Set("status", status)
	}
	var out quotations.ResponseList
	err := c.do(ctx, call{method: http.MethodGet, path: "/api/quotation/responses", query: q, token: token, out: &out})
	return &out, err
}

func (c *APIClient) Comparison(ctx context.Context, token, requestID string) (*quotations.Comparison, error) {
	var out quotations.Comparison
	err := c.do(ctx, call{method: http.MethodGet, path: "/api/quotation/comparison/" + url.PathEscape(requestID), token: token, out: &out})
	return &out, err
}

func (c *APIClient) AcceptQuotation(ctx context.Context, token, key string, responseID uuid.UUID, notes *string) (*quotations.AcceptResult, error) {
	var out quotations.AcceptResult
	err := c.do(ctx, call{
		method:         http.MethodPost,
		path:           "/api/quotation/accept",
		token:          token,
		idempotencyKey: key,
		body: struct {
			ResponseID uuid.UUID `json:"response_id"`
			Notes      *string   `json:"notes,omitempty"`
		}{ResponseID: responseID, Notes: notes},
		out: &out,
	})
	return &out, err
}

// Inventory

func (c *APIClient) Inventory(ctx context.Context, token string) ([]inventory.Item, error) {
	var out struct {
		Items []inventory.Item `json:"items"`
	}
	err := c.do(ctx, call{method: http.MethodGet, path: "/api/inventory", token: token, out: &out})
	return out.Items, err
}

// InventoryForm sets one offer.
type InventoryForm struct {
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	DeliveryDays int             `json:"delivery_days"`
	IsActive     *bool           `json:"is_active,omitempty"`
}

func (c *APIClient) UpsertInventory(ctx context.Context, token, key, productID string, form InventoryForm) (*inventory.Item, error) {
	var out inventory.Item
	err := c.do(ctx, call{
		method:         http.MethodPut,
		path:           "/api/inventory/" + url.PathEscape(productID),
		token:          token,
		idempotencyKey: key,
		body:           form,
		out:            &out,
	})
	return &out, err
}

// Admin

func (c *APIClient) Dashboard(ctx context.Context, token string) (*admin.Dashboard, error) {
	var out admin.Dashboard
	err := c.do(ctx, call{method: http.MethodGet, path: "/api/admin/dashboard", token: token, out: &out})
	return &out, err
}
