package errs

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *HTTPError
		status int
		code   string
	}{
		{"unauthorized", NewUnauthorizedError("x", false), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", NewForbiddenError("x", true), http.StatusForbidden, "FORBIDDEN"},
		{"bad request", NewBadRequestError("x", false, nil, nil, nil), http.StatusBadRequest, "BAD_REQUEST"},
		{"not found", NewNotFoundError("x", false, nil), http.StatusNotFound, "NOT_FOUND"},
		{"too many", NewTooManyRequestsError("x"), http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
		{"internal", NewInternalServerError(), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"operation", NewOperationFailedError("x"), http.StatusInternalServerError, "OPERATION_FAILED"},
		{"bad gateway", NewBadGatewayError("x"), http.StatusBadGateway, "BAD_GATEWAY"},
		{"gateway timeout", NewGatewayTimeoutError("x"), http.StatusGatewayTimeout, "GATEWAY_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestCustomCode(t *testing.T) {
	code := "OBSERVACAO_REQUIRED"
	err := NewBadRequestError("missing", true, &code, []FieldError{{Field: "pedido", Error: "is required"}}, nil)
	assert.Equal(t, code, err.Code)
	assert.Len(t, err.Errors, 1)
}

func TestWithMessageAndDetailsCopy(t *testing.T) {
	base := NewOperationFailedError("Erro no pull")
	withDetails := base.WithDetails("fatal: not a git repository")
	renamed := withDetails.WithMessage("Erro no clone")

	assert.Empty(t, base.Details)
	assert.Equal(t, "fatal: not a git repository", withDetails.Details)
	assert.Equal(t, "Erro no pull", withDetails.Message)
	assert.Equal(t, "Erro no clone", renamed.Message)
	assert.Equal(t, withDetails.Details, renamed.Details)
}

func TestErrorsAsThroughWrap(t *testing.T) {
	wrapped := errors.Wrap(NewNotFoundError("App não encontrado", true, nil), "describe")

	var httpErr *HTTPError
	require.True(t, errors.As(wrapped, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.True(t, errors.Is(wrapped, &HTTPError{}))
}

func TestMakeUpperCaseWithUnderscores(t *testing.T) {
	assert.Equal(t, "BAD_REQUEST", MakeUpperCaseWithUnderscores("Bad Request"))
}
