package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/stonemap/pkg/errors"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{Resource: "site", ID: "stonehenge"}
		assert.Equal(t, "site with ID stonehenge not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		wrapped := fmt.Errorf("lookup: %w", pkgerrors.NewNotFoundError("site", "x"))
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestAlreadyExistsError(t *testing.T) {
	err := pkgerrors.NewAlreadyExistsError("site", "avebury")
	assert.Equal(t, "site with ID avebury already exists", err.Error())
	assert.True(t, pkgerrors.IsAlreadyExists(err))
	assert.False(t, pkgerrors.IsNotFound(err))
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("precision", 12, "must be between 0 and 7")
		assert.Equal(t, "validation failed for field precision: must be between 0 and 7", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "bad config"}
		assert.Equal(t, "validation failed: bad config", err.Error())
	})
}

func TestRejectionError(t *testing.T) {
	tests := []struct {
		name   string
		reason error
		other  error
	}{
		{"coordinates", pkgerrors.ErrInvalidCoordinates, pkgerrors.ErrGarbageContent},
		{"garbage", pkgerrors.ErrGarbageContent, pkgerrors.ErrInvalidCoordinates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pkgerrors.NewRejectionError(tt.reason, "crowd_geo:node/1", "detail")
			assert.True(t, errors.Is(err, tt.reason))
			assert.False(t, errors.Is(err, tt.other))
			assert.True(t, pkgerrors.IsRejection(err))
			assert.Contains(t, err.Error(), "crowd_geo:node/1")
			assert.Contains(t, err.Error(), "detail")
		})
	}
}

func TestConflictError(t *testing.T) {
	err := pkgerrors.NewConflictError("manual:7", []string{"a", "b"})
	assert.True(t, errors.Is(err, pkgerrors.ErrConflictingMatch))
	assert.Equal(t, "record manual:7 matches multiple sites: a, b", err.Error())
}

func TestEnrichmentError(t *testing.T) {
	cause := pkgerrors.NewAPIError("wikimedia", 503, "down")
	err := pkgerrors.NewEnrichmentError("wikimedia", "knowledge_base:Q1", cause)

	assert.True(t, errors.Is(err, pkgerrors.ErrEnrichmentUnavailable))
	assert.True(t, pkgerrors.IsProviderUnavailable(err))

	var apiErr *pkgerrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 503, apiErr.StatusCode)
}

func TestSlugError(t *testing.T) {
	err := pkgerrors.NewSlugError("giants-grave", 10000)
	assert.True(t, errors.Is(err, pkgerrors.ErrSlugCollisionExhausted))
	assert.Contains(t, err.Error(), "giants-grave")
	assert.Contains(t, err.Error(), "10000")
}

func TestBatchError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := pkgerrors.NewBatchError("b1", "missing sites key", nil)
		assert.Equal(t, "batch b1: missing sites key", err.Error())
		assert.True(t, pkgerrors.IsMalformedBatch(err))
	})

	t.Run("with cause", func(t *testing.T) {
		cause := pkgerrors.NewParseError("json", "b1.json", "unexpected EOF", nil)
		err := pkgerrors.NewBatchError("b1", "decode failed", cause)
		assert.True(t, pkgerrors.IsMalformedBatch(err))

		var parseErr *pkgerrors.ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, "b1.json", parseErr.File)
	})
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		status      int
		rateLimited bool
		unavailable bool
	}{
		{429, true, false},
		{500, false, true},
		{503, false, true},
		{404, false, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			err := pkgerrors.NewAPIError("overpass", tt.status, "x")
			assert.Equal(t, tt.rateLimited, pkgerrors.IsRateLimited(err))
			assert.Equal(t, tt.unavailable, pkgerrors.IsProviderUnavailable(err))
		})
	}
}

func TestWrapHelpers(t *testing.T) {
	assert.Nil(t, pkgerrors.WrapIO("read", "x", nil))
	assert.Nil(t, pkgerrors.WrapParse("json", "x", nil))
	assert.Nil(t, pkgerrors.WrapAPI("x", 500, nil))

	base := errors.New("boom")

	ioErr := pkgerrors.WrapIO("read", "/tmp/batch.json", base)
	assert.ErrorIs(t, ioErr, base)
	assert.Contains(t, ioErr.Error(), "/tmp/batch.json")

	parseErr := pkgerrors.WrapParse("yaml", "catalog.yaml", base)
	assert.ErrorIs(t, parseErr, base)
	assert.Contains(t, parseErr.Error(), "yaml")

	apiErr := pkgerrors.WrapAPI("sparql", 502, base)
	assert.ErrorIs(t, apiErr, base)
	assert.True(t, pkgerrors.IsProviderUnavailable(apiErr))
}

func TestConfigError(t *testing.T) {
	cause := errors.New("unknown policy")
	err := pkgerrors.NewConfigError("validity", "invalid land policy", cause)
	assert.Equal(t, "configuration error in validity: invalid land policy", err.Error())
	assert.ErrorIs(t, err, cause)
}
