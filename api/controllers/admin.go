package controllers

import (
	"net/http"

	"github.com/partsbridge/marketplace/api/responses"
	"github.com/partsbridge/marketplace/internal/admin"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
	"github.com/partsbridge/marketplace/pkg/logger"
)

func AdminDashboard(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}
		dashboard, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}
