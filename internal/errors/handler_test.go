package errors

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handleAndDecode(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	h := NewErrorHandler(slog.Default(), false)
	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/api/profit/batches", nil), err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHandleError_SchemaError(t *testing.T) {
	rec, body := handleAndDecode(t, NewSchemaError("Purchases", "IN_RATE"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, TypeWorkbookSchema, body["type"])
	assert.Equal(t, "Purchases", body["sheet"])
	assert.Equal(t, "IN_RATE", body["column"])
}

func TestHandleError_SheetNotFound(t *testing.T) {
	rec, body := handleAndDecode(t, NewSheetNotFoundError("Sales"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, TypeSheetNotFound, body["type"])
	assert.Equal(t, "Sales", body["sheet"])
}

func TestHandleError_APIError(t *testing.T) {
	rec, body := handleAndDecode(t, ErrBatchNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, body["type"])
	assert.Equal(t, "BATCH_NOT_FOUND", body["error_code"])
}

func TestHandleError_DataNotLoaded(t *testing.T) {
	rec, body := handleAndDecode(t, ErrDataNotLoaded)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, TypeDataNotLoaded, body["type"])
}

func TestHandleError_ContextTimeout(t *testing.T) {
	rec, body := handleAndDecode(t, context.DeadlineExceeded)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, TypeTimeout, body["type"])
}

func TestHandleError_UnknownError(t *testing.T) {
	rec, body := handleAndDecode(t, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, TypeInternal, body["type"])
	// Internal details must not leak.
	assert.NotContains(t, body["detail"], assert.AnError.Error())
}

func TestValidationError_ProblemShape(t *testing.T) {
	rec, body := handleAndDecode(t, NewValidationError("Sales", 7, "Sale Qty.", "negative quantity"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, TypeRowValidation, body["type"])
	assert.EqualValues(t, 7, body["row"])
}
