package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateError_DomainKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", shared.NewValidationError("bad"), http.StatusBadRequest, shared.CodeValidation},
		{"not found", shared.NewNotFoundError("supplier", "x"), http.StatusNotFound, shared.CodeNotFound},
		{"version conflict", shared.NewVersionConflictError(1, 2), http.StatusConflict, shared.CodeVersionConflict},
		{"invalid transition", shared.NewInvalidTransitionError("no"), http.StatusBadRequest, shared.CodeInvalidTransition},
		{"conflict", shared.NewConflictError("dup"), http.StatusConflict, shared.CodeConflict},
		{"dependency", shared.NewDependencyUnavailableError("database", errors.New("refused")), http.StatusServiceUnavailable, shared.CodeDependencyUnavailable},
		{"business code", shared.NewDomainError("SKU_MISMATCH", "mismatch"), http.StatusBadRequest, "SKU_MISMATCH"},
		{"business code with kind", &shared.DomainError{Code: "ALREADY_RATED", Kind: shared.KindInvalidTransition, Message: "rated"}, http.StatusBadRequest, "ALREADY_RATED"},
		{"wrapped", fmt.Errorf("update: %w", shared.NewVersionConflictError(3, 4)), http.StatusConflict, shared.CodeVersionConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranslateError(tt.err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.code, got.Code)
		})
	}
}

func TestTranslateError_HidesInternalDetail(t *testing.T) {
	for _, err := range []error{
		errors.New("pq: relation does not exist"),
		shared.NewInternalError("secret detail", errors.New("boom")),
	} {
		got := TranslateError(err)
		assert.Equal(t, http.StatusInternalServerError, got.Status)
		assert.Equal(t, shared.CodeInternal, got.Code)
		assert.Equal(t, internalMessage, got.Message)
	}
}

func TestTranslateError_RequestErrors(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
		Name  string `validate:"min=3"`
	}
	verr := validator.New().Struct(payload{Name: "ab"})
	require.Error(t, verr)

	got := TranslateError(verr)
	assert.Equal(t, http.StatusBadRequest, got.Status)
	assert.Equal(t, shared.CodeValidation, got.Code)
	require.Len(t, got.Details, 2)
	assert.Equal(t, "This field is required", got.Details[0].Message)
	assert.Equal(t, "Must be at least 3 characters", got.Details[1].Message)

	var v struct{ N int }
	jsonErr := json.Unmarshal([]byte(`{"N":"x"}`), &v)
	assert.Equal(t, http.StatusBadRequest, TranslateError(jsonErr).Status)

	jsonErr = json.Unmarshal([]byte(`{`), &v)
	assert.Equal(t, "Malformed JSON body", TranslateError(jsonErr).Message)

	tooLarge := &http.MaxBytesError{Limit: 10}
	assert.Equal(t, http.StatusRequestEntityTooLarge, TranslateError(tooLarge).Status)

	direct := NewAPIError(http.StatusForbidden, CodeForbidden, "nope")
	assert.Equal(t, *direct, TranslateError(direct))
}

func TestEnvelopes(t *testing.T) {
	conflict := TranslateError(shared.NewVersionConflictError(1, 2))

	std, err := json.Marshal(NewErrorResponse(conflict, "req-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"VERSION_CONFLICT","message":"version mismatch: expected 1, current 2","request_id":"req-1"}`, string(std))

	legacy, err := json.Marshal(NewLegacyErrorResponse(conflict, ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"version mismatch: expected 1, current 2","error":"VERSION_CONFLICT","code":"VERSION_CONFLICT"}`, string(legacy))
}

func TestNewListResponse(t *testing.T) {
	page := shared.NewPaginated[string](nil, 0, shared.Pagination{Page: 1, Size: 20})

	body, err := json.Marshal(NewListResponse(page))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"success": true,
		"data": {"items": [], "pagination": {"page": 1, "size": 20, "total": 0, "next_page": null}},
		"meta": {"page": 1, "size": 20, "total": 0, "next_page": null}
	}`, string(body))
}
