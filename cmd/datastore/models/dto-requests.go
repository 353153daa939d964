package models

import (
	"errors"

	"github.com/goccy/go-json"
)

// ErrInvalidInput marks errors caused by the caller, as opposed to storage faults
var ErrInvalidInput = errors.New("invalid input")

type GetTableRequest struct {
	Table string `uri:"table" binding:"required"`
}

type GetKeyRequest struct {
	Table string `uri:"table" binding:"required"`
	Key   string `uri:"key" binding:"required"`
}

type GetPageRequest struct {
	Table string `uri:"table" binding:"required"`
	// Page is 1-based. Zero and negative pages are passed through unchanged.
	Page int `uri:"page"`
}

// UpsertBody keeps value raw, so structured payloads can be stored as their JSON text
type UpsertBody struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type UpdateBody struct {
	Value json.RawMessage `json:"value"`
}

type SQLBody struct {
	SQL string `json:"sql"`
}
