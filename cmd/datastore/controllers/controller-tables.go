// Copyright 2023 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/united-manufacturing-hub/datastore/cmd/datastore/helpers"
	"github.com/united-manufacturing-hub/datastore/cmd/datastore/models"
	"github.com/united-manufacturing-hub/datastore/cmd/datastore/services"
	"github.com/united-manufacturing-hub/datastore/pkg/querybuilder"
	"github.com/zeebo/xxh3"
)

type Controller struct {
	service *services.Service
}

func NewController(service *services.Service) *Controller {
	return &Controller{service: service}
}

func (ct *Controller) GetTablesHandler(c *gin.Context) {
	tables, err := ct.service.ListTables(c.Request.Context())
	if err != nil {
		helpers.HandleInternalServerError(c, err)
		return
	}
	c.JSON(http.StatusOK, tables)
}

func (ct *Controller) GetKeysHandler(c *gin.Context) {
	var request models.GetTableRequest

	err := c.ShouldBindUri(&request)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}

	keys, err := ct.service.ListKeys(c.Request.Context(), request.Table)
	if err != nil {
		helpers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, keys)
}

func (ct *Controller) GetCountHandler(c *gin.Context) {
	var request models.GetTableRequest

	err := c.ShouldBindUri(&request)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}
	listRequest, err := listRequestFromQuery(c)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}

	count, err := ct.service.Count(c.Request.Context(), request.Table, listRequest)
	if err != nil {
		helpers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CountResponse{Count: count})
}

func (ct *Controller) GetAllHandler(c *gin.Context) {
	var request models.GetTableRequest

	err := c.ShouldBindUri(&request)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}
	listRequest, err := listRequestFromQuery(c)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}

	rows, err := ct.service.ListAll(c.Request.Context(), request.Table, listRequest)
	if err != nil {
		helpers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (ct *Controller) GetPageHandler(c *gin.Context) {
	var request models.GetPageRequest

	err := c.ShouldBindUri(&request)
	if err != nil {
		helpers.HandleInvalidInputError(c, fmt.Errorf("%w: page must be a number", models.ErrInvalidInput))
		return
	}
	listRequest, err := listRequestFromQuery(c)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}

	page, err := ct.service.ListPaginated(c.Request.Context(), request.Table, listRequest, request.Page, querybuilder.DefaultPageSize)
	if err != nil {
		helpers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ct *Controller) GetByKeyHandler(c *gin.Context) {
	var request models.GetKeyRequest

	err := c.ShouldBindUri(&request)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}

	value, found, err := ct.service.GetByKey(c.Request.Context(), request.Table, request.Key)
	if err != nil {
		helpers.HandleError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, models.ErrorResponse{Error: models.KeyNotFound})
		return
	}

	etag := ValueETag(value)
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.JSON(http.StatusOK, value)
}

func (ct *Controller) UpsertHandler(c *gin.Context) {
	var request models.GetTableRequest

	err := c.ShouldBindUri(&request)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}
	var body models.UpsertBody
	err = decodeBody(c, &body)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}
	if body.Key == "" {
		helpers.HandleInvalidInputError(c, fmt.Errorf("%w: key is required", models.ErrInvalidInput))
		return
	}
	value, err := models.ValueText(body.Value)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}

	row, err := ct.service.Upsert(c.Request.Context(), request.Table, body.Key, value)
	if err != nil {
		helpers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (ct *Controller) UpdateHandler(c *gin.Context) {
	var request models.GetKeyRequest

	err := c.ShouldBindUri(&request)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}
	var body models.UpdateBody
	err = decodeBody(c, &body)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}
	value, err := models.ValueText(body.Value)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}

	updated, err := ct.service.Update(c.Request.Context(), request.Table, request.Key, value)
	if err != nil {
		helpers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.UpdatedResponse{Updated: updated})
}

func (ct *Controller) DeleteByKeyHandler(c *gin.Context) {
	var request models.GetKeyRequest

	err := c.ShouldBindUri(&request)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}

	deleted, err := ct.service.DeleteByKey(c.Request.Context(), request.Table, request.Key)
	if err != nil {
		helpers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DeletedResponse{Deleted: deleted})
}

func (ct *Controller) DropTableHandler(c *gin.Context) {
	var request models.GetTableRequest

	err := c.ShouldBindUri(&request)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}

	err = ct.service.DropNamespace(c.Request.Context(), request.Table)
	if err != nil {
		helpers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("Table %s deleted", request.Table)})
}

func (ct *Controller) ExecuteSQLHandler(c *gin.Context) {
	var body models.SQLBody
	err := decodeBody(c, &body)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}
	if body.SQL == "" {
		helpers.HandleInvalidInputError(c, errors.New("SQL statement is required"))
		return
	}

	result, err := ct.service.ExecuteSQL(c.Request.Context(), body.SQL)
	if err != nil {
		helpers.HandleInternalServerError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ValueETag is a strong validator for a stored value
func ValueETag(value string) string {
	return `"` + strconv.FormatUint(xxh3.HashString(value), 16) + `"`
}

// listRequestFromQuery keeps the query string in the order it was sent, which c.Request.URL.Query() does not
func listRequestFromQuery(c *gin.Context) (querybuilder.ListRequest, error) {
	params, err := querybuilder.ParseRawQuery(c.Request.URL.RawQuery)
	if err != nil {
		return querybuilder.ListRequest{}, fmt.Errorf("%w: %s", models.ErrInvalidInput, err)
	}
	return querybuilder.ParseParams(params), nil
}

// decodeBody decodes a JSON body into target. An empty body leaves target untouched.
func decodeBody(c *gin.Context, target any) error {
	err := json.NewDecoder(c.Request.Body).Decode(target)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: malformed JSON body: %s", models.ErrInvalidInput, err)
	}
	return nil
}
