package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gameshop/internal/dependencies/mocks"
	"github.com/mcoot/gameshop/internal/services/catalog"
)

func TestCreateProductLogsOnce(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	provider := catalog.NewStatic(logger, clk, mocks.NewMockRandom())
	h := NewProductHandler(provider, nil, logger)

	req := httptest.NewRequest(http.MethodPost, "/product",
		strings.NewReader(`{"name":"Gem Pack","description":"500 gems","price":4.99}`))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, 1, strings.Count(logs.String(), `"msg":"product created"`))
}
