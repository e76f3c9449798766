// internal/utils/response_test.go
package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSuccessResponse(t *testing.T) {
	c, w := testContext(t)
	c.Set("request_id", "req-42")

	SuccessResponse(c, http.StatusOK, "printer registered", gin.H{"name": "till-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "printer registered", resp.Message)
	assert.Equal(t, "req-42", resp.RequestID)
	assert.Nil(t, resp.Error)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestListResponse(t *testing.T) {
	c, w := testContext(t)

	ListResponse(c, "printers", []string{"a", "b"}, 2)

	resp := decodeResponse(t, w)
	require.True(t, resp.Success)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), data["count"])
}

func TestErrorResponse(t *testing.T) {
	c, w := testContext(t)

	ErrorResponse(c, http.StatusNotFound, "printer not found", errors.New("no rows"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "no rows", resp.Error.Details)
}

func TestValidationErrorResponse(t *testing.T) {
	c, w := testContext(t)

	ValidationErrorResponse(c, errors.New("name is required"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "name is required", resp.Error.Details)
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusBadRequest, "BAD_REQUEST"},
		{http.StatusNotFound, "NOT_FOUND"},
		{http.StatusConflict, "CONFLICT"},
		{http.StatusFailedDependency, "PRINTER_ERROR"},
		{http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{http.StatusTeapot, "UNKNOWN_ERROR"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.code, getErrorCode(tc.status), "status %d", tc.status)
	}
}
