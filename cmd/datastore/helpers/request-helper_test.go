package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/united-manufacturing-hub/datastore/cmd/datastore/models"
	"github.com/united-manufacturing-hub/datastore/pkg/querybuilder"
)

func TestIsInvalidInput(t *testing.T) {
	assert.True(t, IsInvalidInput(fmt.Errorf("%w: key is required", models.ErrInvalidInput)))
	assert.True(t, IsInvalidInput(fmt.Errorf("ensure: %w", querybuilder.ErrInvalidIdentifier)))
	assert.True(t, IsInvalidInput(fmt.Errorf("%w: page 9223372036854775807 out of range", querybuilder.ErrInvalidPage)))
	assert.False(t, IsInvalidInput(errors.New("no such table: x")))
	assert.False(t, IsInvalidInput(nil))
}

func TestHandleError(t *testing.T) {
	InitTestLogging()
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			err:        fmt.Errorf("%w: key is required", models.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"invalid input: key is required"}`,
		},
		{
			err:        errors.New("no such table: x"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"no such table: x"}`,
		},
	}

	for _, tc := range testCases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		HandleError(c, tc.err)
		assert.Equal(t, tc.wantStatus, w.Code)
		assert.JSONEq(t, tc.wantBody, w.Body.String())
	}
}
