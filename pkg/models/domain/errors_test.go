package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewSourceError(ErrSourceUnavailable, "cloudtrail", cause)

	t.Run("formats source, kind and cause", func(t *testing.T) {
		assert.Equal(t, "cloudtrail: source_unavailable: connection refused", err.Error())
	})

	t.Run("unwraps the cause", func(t *testing.T) {
		assert.ErrorIs(t, err, cause)
	})

	t.Run("matches on kind", func(t *testing.T) {
		assert.ErrorIs(t, err, &SourceError{Kind: ErrSourceUnavailable})
		assert.NotErrorIs(t, err, &SourceError{Kind: ErrRateLimited})
	})

	t.Run("matches on kind and source", func(t *testing.T) {
		assert.ErrorIs(t, err, &SourceError{Kind: ErrSourceUnavailable, Source: "cloudtrail"})
		assert.NotErrorIs(t, err, &SourceError{Kind: ErrSourceUnavailable, Source: "billing"})
	})

	t.Run("survives wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("analysis incomplete: %w", err)
		assert.Equal(t, ErrSourceUnavailable, KindOf(wrapped))
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.Equal(t, ErrRateLimited, KindOf(NewSourceError(ErrRateLimited, "carbon", nil)))
}
