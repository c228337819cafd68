package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/openingtree/internal/errors"
)

func TestDataSourceError(t *testing.T) {
	cause := stderrors.New("disk I/O error")
	err := errors.NewDataSourceError(cause)

	assert.Equal(t, errors.ErrCodeDataSource, err.Code)
	assert.Equal(t, 503, err.Status)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.True(t, errors.IsDataSource(err))
	assert.True(t, errors.IsDataSource(fmt.Errorf("build: %w", err)))
}

func TestIsDataSource_OtherErrors(t *testing.T) {
	assert.False(t, errors.IsDataSource(nil))
	assert.False(t, errors.IsDataSource(stderrors.New("plain")))
	assert.False(t, errors.IsDataSource(errors.NewNotFoundError("tree", "abc")))
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", errors.NewValidationError("side", "unknown"))
	appErr, ok := errors.As(wrapped)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
	assert.Equal(t, 400, appErr.Status)

	_, ok = errors.As(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err    *errors.AppError
		code   string
		status int
	}{
		{errors.NewNotFoundError("build", "x"), errors.ErrCodeNotFound, 404},
		{errors.NewBadRequestError("bad"), errors.ErrCodeBadRequest, 400},
		{errors.NewInternalError(stderrors.New("x")), errors.ErrCodeInternal, 500},
		{errors.NewRateLimitError("slow down"), errors.ErrCodeRateLimit, 429},
		{errors.NewConflictError("still running"), errors.ErrCodeConflict, 409},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
		})
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("replay: %w", errors.ErrMalformedMove)
	assert.True(t, errors.Is(err, errors.ErrMalformedMove))
	assert.False(t, errors.Is(err, errors.ErrUnknownResult))
}
