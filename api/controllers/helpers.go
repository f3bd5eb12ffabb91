package controllers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/arborhaus/arborhaus-backend/api/middleware"
	pkgerrors "github.com/arborhaus/arborhaus-backend/pkg/errors"
	"github.com/arborhaus/arborhaus-backend/pkg/pagination"
)

// userIDFrom reads the authenticated user id seeded by the auth middleware.
func userIDFrom(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid identity")
	}
	return id, nil
}

func invalidField(field string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "field value is invalid").
		WithDetails(map[string]any{"field": field})
}

func validationRequired(field string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "query parameter is required").
		WithDetails(map[string]any{"field": field})
}

func paginationParams(r *http.Request) pagination.Params {
	q := r.URL.Query()
	params := pagination.Params{Cursor: q.Get("cursor")}
	if raw := q.Get("limit"); raw != "" {
		// bad values fall through as zero and take the default limit
		if limit, err := strconv.Atoi(raw); err == nil {
			params.Limit = limit
		}
	}
	return params
}
