package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/chessdash/internal/errors"
)

func TestConstructors_CodesAndStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    *errors.AppError
		code   string
		status int
	}{
		{"validation", errors.NewValidationError("username", "must not be empty"), errors.ErrCodeValidation, http.StatusBadRequest},
		{"network", errors.NewNetworkError("fetch stats", stderrors.New("dial tcp")), errors.ErrCodeNetwork, http.StatusBadGateway},
		{"not found", errors.NewNotFoundError("player", "bob"), errors.ErrCodeNotFound, http.StatusNotFound},
		{"server", errors.NewServerError("run clustering", 500, "boom"), errors.ErrCodeServer, http.StatusBadGateway},
		{"parse", errors.NewParseError("compare players", stderrors.New("unexpected EOF")), errors.ErrCodeParse, http.StatusBadGateway},
		{"consistency", errors.NewConsistencyError("cluster %d missing", 3), errors.ErrCodeConsistency, http.StatusUnprocessableEntity},
		{"internal", errors.NewInternalError(stderrors.New("x")), errors.ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Contains(t, tt.err.Error(), tt.code)
		})
	}
}

func TestServerError_IncludesBody(t *testing.T) {
	err := errors.NewServerError("run clustering", 500, "Invalid x_axis or y_axis parameter.")
	assert.Contains(t, err.Message, "status 500")
	assert.Contains(t, err.Message, "Invalid x_axis")

	bare := errors.NewServerError("run clustering", 503, "")
	assert.Equal(t, "run clustering: status 503", bare.Message)
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := errors.NewNetworkError("fetch stats", cause)
	assert.True(t, stderrors.Is(err, cause))
}

func TestCodeOf_WrappedChain(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", errors.NewNotFoundError("player", "ghost"))

	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(wrapped))
	assert.True(t, errors.Is(wrapped, errors.ErrCodeNotFound))
	assert.False(t, errors.Is(wrapped, errors.ErrCodeServer))
	assert.Equal(t, errors.ErrCodeInternal, errors.CodeOf(stderrors.New("plain")))
	assert.Equal(t, "", errors.CodeOf(nil))
}
