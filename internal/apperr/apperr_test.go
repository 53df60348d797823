package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type causeError struct{ code int }

func (e *causeError) Error() string { return "cause" }

func TestConfiguration_NamesVariable(t *testing.T) {
	err := Configuration("GITHUB_TOKEN")

	require.ErrorIs(t, err, ErrConfiguration)
	require.EqualError(t, err, "configuration error: GITHUB_TOKEN environment variable is not set")
}

func TestValidation_FormatsMessage(t *testing.T) {
	err := Validation("%s is required", "owner")

	require.ErrorIs(t, err, ErrValidation)
	require.NotErrorIs(t, err, ErrConfiguration)
	require.EqualError(t, err, "validation error: owner is required")
}

func TestUpstream_KeepsCauseReachable(t *testing.T) {
	cause := &causeError{code: 502}
	err := Upstream("get issue", cause)

	require.ErrorIs(t, err, ErrUpstream)

	var target *causeError
	require.True(t, errors.As(err, &target))
	require.Equal(t, 502, target.code)
	require.EqualError(t, err, "upstream failure: failed to get issue: cause")
}
