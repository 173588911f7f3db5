package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gameshop/internal/middleware"
	"github.com/mcoot/gameshop/internal/model"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{model.ErrIdentityNotFound, http.StatusNotFound},
		{fmt.Errorf("get identity: %w", model.ErrIdentityNotFound), http.StatusNotFound},
		{model.ErrDuplicateUsername, http.StatusBadRequest},
		{model.ErrInvalidCredentials, http.StatusUnauthorized},
		{model.ErrUnauthorized, http.StatusUnauthorized},
		{model.ErrInsufficientFunds, http.StatusBadRequest},
		{model.ErrInvalidAction, http.StatusBadRequest},
		{model.ErrInvalidAmount, http.StatusBadRequest},
		{model.ErrBalanceOverflow, http.StatusBadRequest},
		{model.NewRejectedKeysError([]string{"x"}), http.StatusBadRequest},
		{model.ErrProductNotFound, http.StatusNotFound},
		{model.ErrPaymentDeclined, http.StatusPaymentRequired},
		{model.ErrConflict, http.StatusConflict},
		{NewInvalidRequestError("bad"), http.StatusBadRequest},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, Status(tc.err), tc.err.Error())
	}
}

func TestWriteErrorRejectedKeys(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/data", nil)

	WriteError(rec, req, nil, model.NewRejectedKeysError([]string{"zeta", "alpha"}))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidKeys, body.Code)
	assert.Equal(t, []string{"alpha", "zeta"}, body.InvalidKeys)
	assert.Empty(t, body.Reference)
}

func TestWriteErrorInternalIsOpaque(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	req = req.WithContext(middleware.WithRequestID(req.Context(), "req-1"))

	WriteError(rec, req, nil, errors.New("dial tcp 10.0.0.1:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.1")

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "req-1", body.Reference)
	assert.Equal(t, CodeInternalError, body.Code)
}
