package handler

import (
	"net/http"
	"strconv"

	apperrors "github.com/courierwatch/courier-tracker/internal/errors"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

type PaginationParams struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ParsePagination reads limit and offset. Missing or out of range limits fall
// back to DefaultLimit; values that are not numbers are rejected.
func ParsePagination(r *http.Request) (PaginationParams, error) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		return PaginationParams{}, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return PaginationParams{}, err
	}

	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}

	if offset < 0 {
		offset = 0
	}

	return PaginationParams{
		Limit:  limit,
		Offset: offset,
	}, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput(key, "must be an integer")
	}
	return v, nil
}
