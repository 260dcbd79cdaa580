package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
)

type lineBody struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=1,lte=100"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeJSONBody(t *testing.T) {
	cases := map[string]struct {
		body     string
		optional bool
		wantErr  string
	}{
		"valid":           {body: `{"sku":"R-10K","quantity":5}`},
		"missing body":    {body: "", wantErr: "request body is required"},
		"optional empty":  {body: "", optional: true, wantErr: "sku is required"},
		"unknown field":   {body: `{"sku":"a","quantity":1,"x":1}`, wantErr: "invalid request body"},
		"range violation": {body: `{"sku":"a","quantity":101}`, wantErr: "quantity must be 100 or less"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var dest lineBody
			var err error
			if tc.optional {
				err = DecodeOptionalJSONBody(post(tc.body), &dest)
			} else {
				err = DecodeJSONBody(post(tc.body), &dest)
			}
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, lineBody{SKU: "R-10K", Quantity: 5}, dest)
				return
			}
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestQueryParsers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=20&in_stock=true&bad=x&big=9999", nil)

	n, err := ParseQueryInt(r, "limit", 10, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	n, err = ParseQueryInt(r, "missing", 10, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	_, err = ParseQueryInt(r, "bad", 10, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = ParseQueryInt(r, "big", 10, 1, 100)
	assert.ErrorContains(t, err, "out of range")

	b, err := ParseQueryBool(r, "in_stock")
	require.NoError(t, err)
	assert.True(t, b)
	_, err = ParseQueryBool(r, "bad")
	assert.Error(t, err)

	id, err := ParseQueryUUID(r, "missing")
	require.NoError(t, err)
	assert.Nil(t, id)
	_, err = ParseQueryUUID(r, "bad")
	assert.Error(t, err)
}
