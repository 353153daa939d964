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

package helpers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/united-manufacturing-hub/datastore/cmd/datastore/models"
	"github.com/united-manufacturing-hub/datastore/internal"
	"github.com/united-manufacturing-hub/datastore/pkg/querybuilder"
	"github.com/united-manufacturing-hub/umh-utils/logger"
	"go.uber.org/zap"
)

func InitTestLogging() {
	_ = logger.New("DEVELOPMENT")
}

func HandleInternalServerError(c *gin.Context, err error) {
	if c == nil {
		panic("HandleInternalServerError: c is nil")
	}
	if err == nil {
		err = errors.New("unknown error")
	}

	erx := internal.SanitizeString(err.Error())
	zap.S().Errorw(
		"Internal server error",
		"error", erx,
		"route", c.FullPath(),
	)

	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
}

func HandleInvalidInputError(c *gin.Context, err error) {
	if c == nil {
		panic("HandleInvalidInputError: c is nil")
	}
	if err == nil {
		err = errors.New("unknown error")
	}

	erx := internal.SanitizeString(err.Error())
	zap.S().Infow(
		"Invalid input error",
		"error", erx,
		"route", c.FullPath(),
	)

	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
}

// IsInvalidInput reports whether err was caused by the caller
func IsInvalidInput(err error) bool {
	return errors.Is(err, models.ErrInvalidInput) ||
		errors.Is(err, querybuilder.ErrInvalidIdentifier) ||
		errors.Is(err, querybuilder.ErrInvalidPage)
}

// HandleError answers with 400 for input faults and 500 for everything else
func HandleError(c *gin.Context, err error) {
	if IsInvalidInput(err) {
		HandleInvalidInputError(c, err)
		return
	}
	HandleInternalServerError(c, err)
}
