package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/partsbridge/marketplace/api/responses"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
	"github.com/partsbridge/marketplace/pkg/logger"
)

// Recoverer answers a panicking handler with the INTERNAL_ERROR envelope.
// http.ErrAbortHandler is re-raised for net/http to handle.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					handlePanic(w, r, logg, v)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func handlePanic(w http.ResponseWriter, r *http.Request, logg *logger.Logger, v any) {
	err, ok := v.(error)
	if ok && errors.Is(err, http.ErrAbortHandler) {
		panic(v)
	}
	if !ok {
		err = fmt.Errorf("%v", v)
	}
	ctx := r.Context()
	if logg != nil {
		ctx = logg.WithField(ctx, "panic", fmt.Sprint(v))
		logg.Error(ctx, "panic.recovered", err)
	}
	responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
}
