package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/united-manufacturing-hub/datastore/cmd/datastore/models"
	"github.com/united-manufacturing-hub/datastore/pkg/querybuilder"
)

func newTestContext(t *testing.T, target string, body string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	return c
}

func TestListRequestFromQuery(t *testing.T) {
	c := newTestContext(t, "/orders?value=1&sort=desc&key=k%201&limit=5&orderBy=key", "")

	request, err := listRequestFromQuery(c)
	require.NoError(t, err)
	assert.Equal(t, []querybuilder.Filter{{Column: "value", Value: "1"}, {Column: "key", Value: "k 1"}}, request.Filters)
	assert.Equal(t, querybuilder.Descending, request.Sort)
	assert.Equal(t, "key", request.OrderBy)
	assert.Equal(t, 5, request.Limit)

	c = newTestContext(t, "/orders", "")
	request, err = listRequestFromQuery(c)
	require.NoError(t, err)
	assert.Empty(t, request.Filters)
	assert.Zero(t, request.Limit)

	c = newTestContext(t, "/orders?value=%zz", "")
	_, err = listRequestFromQuery(c)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestDecodeBody(t *testing.T) {
	var body models.UpsertBody
	require.NoError(t, decodeBody(newTestContext(t, "/orders", `{"key":"k","value":{"a":1}}`), &body))
	assert.Equal(t, "k", body.Key)
	assert.JSONEq(t, `{"a":1}`, string(body.Value))

	var empty models.UpsertBody
	require.NoError(t, decodeBody(newTestContext(t, "/orders", ""), &empty))
	assert.Empty(t, empty.Key)
	assert.Nil(t, empty.Value)

	testCases := []string{`{"key":`, `not json`, `{"key": 3}`}
	for _, raw := range testCases {
		var target models.UpsertBody
		err := decodeBody(newTestContext(t, "/orders", raw), &target)
		assert.True(t, errors.Is(err, models.ErrInvalidInput), "body %q", raw)
	}
}

func TestValueETag(t *testing.T) {
	etag := ValueETag("running")
	assert.True(t, strings.HasPrefix(etag, `"`) && strings.HasSuffix(etag, `"`))
	assert.Equal(t, etag, ValueETag("running"))
	assert.NotEqual(t, etag, ValueETag("stopped"))
}
