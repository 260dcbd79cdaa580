package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataTable(t *testing.T) {
	cases := []struct {
		code    Code
		status  int
		retry   bool
		details bool
	}{
		{CodeValidation, http.StatusBadRequest, false, true},
		{CodeUnauthorized, http.StatusUnauthorized, false, false},
		{CodeForbidden, http.StatusForbidden, false, false},
		{CodeNotFound, http.StatusNotFound, false, false},
		{CodeConflict, http.StatusConflict, false, false},
		{CodeStateConflict, http.StatusUnprocessableEntity, false, true},
		{CodeIdempotency, http.StatusConflict, false, true},
		{CodeRateLimit, http.StatusTooManyRequests, false, false},
		{CodeInternal, http.StatusInternalServerError, true, false},
		{CodeDependency, http.StatusServiceUnavailable, true, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			meta := MetadataFor(tc.code)
			assert.Equal(t, tc.status, meta.HTTPStatus)
			assert.Equal(t, tc.retry, meta.Retryable)
			assert.Equal(t, tc.details, meta.DetailsAllowed)
			assert.NotEmpty(t, meta.PublicMessage)
		})
	}
	assert.Equal(t, http.StatusInternalServerError, MetadataFor("NOPE").HTTPStatus)
}

func TestWrapKeepsCauseOutOfMessage(t *testing.T) {
	cause := stdErrors.New("dial tcp: refused")
	err := Wrap(CodeDependency, cause, "reserve stock")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "reserve stock", err.Message())
	assert.Equal(t, "DEPENDENCY_ERROR: reserve stock: dial tcp: refused", err.Error())
	assert.Equal(t, "NOT_FOUND: gone", New(CodeNotFound, "gone").Error())
}

func TestDetailsAndNilReceiver(t *testing.T) {
	err := New(CodeValidation, "quantity must be positive").WithDetails(map[string]any{"field": "quantity"})
	assert.Equal(t, map[string]any{"field": "quantity"}, err.Details())

	var nilErr *Error
	assert.Equal(t, CodeInternal, nilErr.Code())
	assert.Nil(t, nilErr.WithDetails("x"))
	assert.Empty(t, nilErr.Error())
}

func TestCodeHelpersFollowWrapping(t *testing.T) {
	inner := Newf(CodeNotFound, "order %s not found", "abc")
	outer := fmt.Errorf("load order: %w", inner)

	assert.True(t, IsCode(outer, CodeNotFound))
	assert.False(t, IsCode(outer, CodeConflict))
	assert.Equal(t, CodeNotFound, CodeOf(outer))
	assert.Equal(t, CodeInternal, CodeOf(stdErrors.New("plain")))
	assert.Equal(t, "order abc not found", MessageOf(outer))
	assert.Equal(t, "plain", MessageOf(stdErrors.New("plain")))
	assert.Nil(t, As(nil))
}

func TestInspectCollectsPostgresDetail(t *testing.T) {
	pg := &pgconn.PgError{Code: "23505", ConstraintName: "ux_orders_quotation_response", TableName: "orders"}
	err := Wrap(CodeConflict, fmt.Errorf("insert order: %w", pg), "quotation already accepted")

	d := Inspect(err)
	require.NotNil(t, d.Postgres)
	assert.Equal(t, CodeConflict, d.Code)
	assert.Equal(t, "23505", d.Postgres.SQLState)
	assert.Len(t, d.Chain, 3)

	fields := d.Fields()
	assert.Equal(t, "ux_orders_quotation_response", fields["pg_constraint"])
	assert.NotContains(t, fields, "pg_detail")

	assert.Empty(t, Inspect(nil).Chain)
	assert.NotContains(t, Inspect(stdErrors.New("x")).Fields(), "error_code")
}
