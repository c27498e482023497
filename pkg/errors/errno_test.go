package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ss0jung/rag-ai-chatbot/pkg/errors"
)

func TestErrnoIs(t *testing.T) {
	err := errors.ErrNamespaceNotFound.WithMessage("namespace %q not found", "docs")
	assert.ErrorIs(t, err, errors.ErrNamespaceNotFound)
	assert.NotErrorIs(t, err, errors.ErrNamespaceExists)
}

func TestErrnoWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := errors.ErrBackend.WithCause(cause)

	assert.ErrorIs(t, err, errors.ErrBackend)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")

	// The shared sentinel must stay untouched.
	assert.NotContains(t, errors.ErrBackend.Error(), "connection refused")
}

func TestFromError(t *testing.T) {
	assert.Equal(t, errors.OK, errors.FromError(nil))

	e := errors.FromError(errors.ErrNamespaceExists)
	assert.Equal(t, errors.ErrNamespaceExists.Code, e.Code)

	wrapped := fmt.Errorf("outer: %w", errors.ErrDocumentNotFound.WithMessage("gone"))
	e = errors.FromError(wrapped)
	assert.Equal(t, errors.ErrDocumentNotFound.Code, e.Code)

	// Unknown errors collapse to the internal sentinel.
	plain := stderrors.New("boom")
	e = errors.FromError(plain)
	assert.Equal(t, errors.ErrInternal.Code, e.Code)
	assert.ErrorIs(t, e, plain)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.ErrInvalidArgument, http.StatusBadRequest},
		{errors.ErrNamespaceNotFound, http.StatusNotFound},
		{errors.ErrNamespaceExists, http.StatusConflict},
		{errors.ErrBackend, http.StatusInternalServerError},
		{stderrors.New("unknown"), http.StatusInternalServerError},
		{nil, http.StatusOK},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, errors.HTTPStatus(tt.err))
	}
}

func TestMakeCode(t *testing.T) {
	assert.Equal(t, 3001001, errors.MakeCode(30, 1, 1))
	assert.Equal(t, 3000000, errors.MakeCode(30, 0, 0))
}
