package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/partsbridge/marketplace/internal/catalog"
	"github.com/partsbridge/marketplace/internal/quotations"
	"github.com/partsbridge/marketplace/pkg/enums"
)

const quotationFormRows = 5

type quotationsPage struct {
	Requests []quotations.RequestDTO
	Status   string
	Board    bool
}

type newQuotationPage struct {
	Products  []catalog.ProductSummary
	Rows      []int
	ProductID string
}

type quotationPage struct {
	Request     *quotations.RequestDTO
	Comparison  *quotations.Comparison
	IsCustomer  bool
	OwnResponse *quotations.ResponseDTO
	CanRespond  bool
}

func (s *Server) listQuotations(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()
	status := r.URL.Query().Get("status")

	var list *quotations.RequestList
	err := s.withToken(ctx, sess, func(token string) error {
		var callErr error
		list, callErr = s.api.QuotationRequests(ctx, token, status, r.URL.Query().Get("cursor"))
		return callErr
	})
	if err != nil {
		s.failPage(w, r, sess, err)
		return
	}
	title := "Quotation requests"
	board := sess.HasRole(enums.UserRoleDistributor)
	if board {
		title = "Open quotation requests"
	}
	s.render(w, r, sess, http.StatusOK, "quotations", title, quotationsPage{Requests: list.Requests, Status: status, Board: board})
}

func (s *Server) newQuotation(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	products, err := s.api.Products(r.Context(), ProductQuery{Limit: 100})
	if err != nil {
		s.failPage(w, r, sess, err)
		return
	}
	rows := make([]int, quotationFormRows)
	for i := range rows {
		rows[i] = i
	}
	s.render(w, r, sess, http.StatusOK, "quotation_new", "Request a quotation", newQuotationPage{
		Products:  products.Products,
		Rows:      rows,
		ProductID: r.URL.Query().Get("product_id"),
	})
}

func (s *Server) createQuotation(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()

	form, err := parseQuotationRequest(r)
	if err != nil {
		sess.AddFlash("error", err.Error())
		s.redirect(w, r, sess, "/quotations/new")
		return
	}

	key := idempotencyKey(r)
	var created *quotations.RequestDTO
	err = s.withToken(ctx, sess, func(token string) error {
		var callErr error
		created, callErr = s.api.SubmitQuotationRequest(ctx, token, key, form)
		return callErr
	})
	if err != nil {
		s.fail(w, r, sess, err, "/quotations/new")
		return
	}
	sess.AddFlash("success", "Quotation request sent to distributors.")
	s.redirect(w, r, sess, "/quotations/"+created.ID.String())
}

func (s *Server) showQuotation(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()
	requestID := chi.URLParam(r, "requestID")
	compare := !sess.HasRole(enums.UserRoleDistributor)

	page := quotationPage{IsCustomer: sess.HasRole(enums.UserRoleCustomer)}
	err := s.withToken(ctx, sess, func(token string) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			request, callErr := s.api.QuotationRequest(gctx, token, requestID)
			page.Request = request
			return callErr
		})
		if compare {
			g.Go(func() error {
				comparison, callErr := s.api.Comparison(gctx, token, requestID)
				page.Comparison = comparison
				return callErr
			})
		}
		return g.Wait()
	})
	if err != nil {
		s.failPage(w, r, sess, err)
		return
	}

	if sess.HasRole(enums.UserRoleDistributor) {
		for i := range page.Request.Responses {
			if page.Request.Responses[i].Status == enums.QuotationResponseStatusSubmitted {
				page.OwnResponse = &page.Request.Responses[i]
			}
		}
		page.CanRespond = page.OwnResponse == nil && page.Request.Status == enums.QuotationRequestStatusPending
	}
	s.render(w, r, sess, http.StatusOK, "quotation", "Quotation request", page)
}

func (s *Server) cancelQuotation(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()
	requestID := chi.URLParam(r, "requestID")
	back := "/quotations/" + requestID

	key := idempotencyKey(r)
	err := s.withToken(ctx, sess, func(token string) error {
		_, callErr := s.api.CancelQuotationRequest(ctx, token, key, requestID)
		return callErr
	})
	if err != nil {
		s.fail(w, r, sess, err, back)
		return
	}
	sess.AddFlash("success", "Quotation request cancelled.")
	s.redirect(w, r, sess, back)
}

func (s *Server) acceptQuotation(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()
	back := "/quotations/" + chi.URLParam(r, "requestID")

	responseID, err := uuid.Parse(r.PostFormValue("response_id"))
	if err != nil {
		sess.AddFlash("error", "Choose a quotation to accept.")
		s.redirect(w, r, sess, back)
		return
	}

	key := idempotencyKey(r)
	var result *quotations.AcceptResult
	err = s.withToken(ctx, sess, func(token string) error {
		var callErr error
		result, callErr = s.api.AcceptQuotation(ctx, token, key, responseID, optionalField(r, "notes"))
		return callErr
	})
	if err != nil {
		s.fail(w, r, sess, err, back)
		return
	}
	sess.AddFlash("success", fmt.Sprintf("Quotation accepted. %d other quotation(s) were declined.", result.RejectedCount))
	if result.Order != nil {
		s.redirect(w, r, sess, "/orders/"+result.Order.ID.String())
		return
	}
	s.redirect(w, r, sess, back)
}

func (s *Server) respondQuotation(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()
	requestID := chi.URLParam(r, "requestID")
	back := "/quotations/" + requestID

	form, err := parseQuotationResponse(r, requestID)
	if err != nil {
		sess.AddFlash("error", err.Error())
		s.redirect(w, r, sess, back)
		return
	}

	key := idempotencyKey(r)
	err = s.withToken(ctx, sess, func(token string) error {
		_, callErr := s.api.SubmitQuotationResponse(ctx, token, key, form)
		return callErr
	})
	if err != nil {
		s.fail(w, r, sess, err, back)
		return
	}
	sess.AddFlash("success", "Your quotation was submitted.")
	s.redirect(w, r, sess, back)
}

func parseQuotationRequest(r *http.Request) (QuotationRequestForm, error) {
	form := QuotationRequestForm{
		DeliveryAddress: strings.TrimSpace(r.PostFormValue("delivery_address")),
		ContactPhone:    strings.TrimSpace(r.PostFormValue("contact_phone")),
		Notes:           optionalField(r, "notes"),
	}
	if raw := strings.TrimSpace(r.PostFormValue("required_by")); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return form, formError("Required-by date must look like 2026-01-31.")
		}
		form.RequiredBy = &day
	}

	productIDs := r.PostForm["product_id"]
	quantities := r.PostForm["quantity"]
	specs := r.PostForm["specification"]
	for i, rawID := range productIDs {
		if strings.TrimSpace(rawID) == "" {
			continue
		}
		productID, err := uuid.Parse(rawID)
		if err != nil {
			return form, formError("Unknown product in row " + strconv.Itoa(i+1) + ".")
		}
		qty, err := strconv.Atoi(strings.TrimSpace(valueAt(quantities, i)))
		if err != nil || qty < 1 {
			return form, formError("Quantity in row " + strconv.Itoa(i+1) + " must be at least 1.")
		}
		item := QuotationItemForm{ProductID: productID, Quantity: qty}
		if spec := strings.TrimSpace(valueAt(specs, i)); spec != "" {
			item.Specification = &spec
		}
		form.Items = append(form.Items, item)
	}
	if len(form.Items) == 0 {
		return form, formError("Add at least one product to the request.")
	}
	return form, nil
}

func parseQuotationResponse(r *http.Request, requestID string) (QuotationResponseForm, error) {
	var form QuotationResponseForm
	id, err := uuid.Parse(requestID)
	if err != nil {
		return form, formError("Unknown quotation request.")
	}
	form.RequestID = id
	form.Notes = optionalField(r, "notes")

	productIDs := r.PostForm["product_id"]
	for i, rawID := range productIDs {
		row := strconv.Itoa(i + 1)
		productID, err := uuid.Parse(rawID)
		if err != nil {
			return form, formError("Unknown product in row " + row + ".")
		}
		price, err := decimal.NewFromString(strings.TrimSpace(valueAt(r.PostForm["unit_price"], i)))
		if err != nil {
			return form, formError("Unit price in row " + row + " must be a number.")
		}
		stock, err := strconv.Atoi(strings.TrimSpace(valueAt(r.PostForm["stock"], i)))
		if err != nil {
			return form, formError("Stock in row " + row + " must be a whole number.")
		}
		days, err := strconv.Atoi(strings.TrimSpace(valueAt(r.PostForm["delivery_days"], i)))
		if err != nil {
			return form, formError("Delivery days in row " + row + " must be a whole number.")
		}
		qty, err := strconv.Atoi(strings.TrimSpace(valueAt(r.PostForm["quantity"], i)))
		if err != nil {
			return form, formError("Quantity in row " + row + " must be a whole number.")
		}
		form.Items = append(form.Items, QuotationResponseItemForm{
			ProductID:    productID,
			UnitPrice:    price,
			Stock:        stock,
			DeliveryDays: days,
			Quantity:     qty,
		})
	}
	if len(form.Items) == 0 {
		return form, formError("Price at least one item.")
	}
	return form, nil
}

func valueAt(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
