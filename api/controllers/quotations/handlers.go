package quotations

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/partsbridge/marketplace/api/controllers"
	"github.com/partsbridge/marketplace/api/validators"
	"github.com/partsbridge/marketplace/internal/quotations"
	pkgAuth "github.com/partsbridge/marketplace/pkg/auth"
	"github.com/partsbridge/marketplace/pkg/enums"
	"github.com/partsbridge/marketplace/pkg/logger"
)

func endpoint(svc quotations.Service, logg *logger.Logger, status int, act controllers.CallerAction) http.HandlerFunc {
	if svc == nil {
		return controllers.Unavailable(logg, "quotation")
	}
	return controllers.ForCaller(logg, status, act)
}

// byRequest adapts actions addressed by the {requestId} path parameter.
func byRequest(svc quotations.Service, logg *logger.Logger, act func(*http.Request, pkgAuth.Principal, uuid.UUID) (any, error)) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusOK, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		id, err := validators.ParseUUIDParam(r, "requestId")
		if err != nil {
			return nil, err
		}
		return act(r, caller, id)
	})
}

// SubmitRequest opens a quotation request for the calling customer.
func SubmitRequest(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusCreated, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		var body submitRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.SubmitRequest(r.Context(), body.toInput(caller))
	})
}

func CancelRequest(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return byRequest(svc, logg, func(r *http.Request, caller pkgAuth.Principal, id uuid.UUID) (any, error) {
		return svc.CancelRequest(r.Context(), caller, id)
	})
}

func GetRequest(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return byRequest(svc, logg, func(r *http.Request, caller pkgAuth.Principal, id uuid.UUID) (any, error) {
		return svc.GetRequest(r.Context(), caller, id)
	})
}

// Compare lines up the active responses to one request.
func Compare(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return byRequest(svc, logg, func(r *http.Request, caller pkgAuth.Principal, id uuid.UUID) (any, error) {
		return svc.Compare(r.Context(), caller, id)
	})
}

// ListRequests accepts status, limit and cursor.
func ListRequests(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusOK, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			return nil, err
		}
		status, err := controllers.StatusFilter(r, enums.ParseQuotationRequestStatus)
		if err != nil {
			return nil, err
		}
		return svc.ListRequests(r.Context(), caller, quotations.RequestFilters{Status: status}, page)
	})
}

// SubmitResponse records the calling distributor's quote.
func SubmitResponse(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusCreated, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		var body submitResponseBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.SubmitResponse(r.Context(), quotations.SubmitResponseInput{
			RequestID:     body.RequestID,
			DistributorID: caller.ID,
			ActorUserID:   caller.UserID,
			Notes:         body.Notes,
			Items:         toResponseItems(body.Items),
		})
	})
}

func UpdateResponse(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusOK, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		id, err := validators.ParseUUIDParam(r, "responseId")
		if err != nil {
			return nil, err
		}
		var body updateResponseBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.UpdateResponse(r.Context(), caller, id, quotations.UpdateResponseInput{
			Notes: body.Notes,
			Items: toResponseItems(body.Items),
		})
	})
}

func WithdrawResponse(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusOK, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		id, err := validators.ParseUUIDParam(r, "responseId")
		if err != nil {
			return nil, err
		}
		return svc.WithdrawResponse(r.Context(), caller, id)
	})
}

// ListResponses accepts request_id, status, limit and cursor.
func ListResponses(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusOK, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			return nil, err
		}
		requestID, err := validators.ParseQueryUUID(r, "request_id")
		if err != nil {
			return nil, err
		}
		status, err := controllers.StatusFilter(r, enums.ParseQuotationResponseStatus)
		if err != nil {
			return nil, err
		}
		return svc.ListResponses(r.Context(), caller, quotations.ResponseFilters{RequestID: requestID, Status: status}, page)
	})
}

// Accept turns a response into an order and closes the request.
func Accept(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusCreated, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		var body acceptBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.Accept(r.Context(), caller, quotations.AcceptInput{
			ResponseID: body.ResponseID,
			Notes:      body.Notes,
		})
	})
}
