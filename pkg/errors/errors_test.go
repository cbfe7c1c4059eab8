package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndIsCode(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("connection refused")
	err := Wrap(CodeStorageError, "failed to store note", cause)

	require.True(t, IsCode(err, CodeStorageError))
	require.False(t, IsCode(err, CodeNotFound))
	require.ErrorIs(t, err, cause)
	require.Equal(t, "failed to store note: connection refused", err.Error())
}

func TestWrapWithoutCause(t *testing.T) {
	t.Parallel()

	err := Wrap(CodeInvalidInput, "complaint text cannot be empty", nil)
	require.True(t, IsCode(err, CodeInvalidInput))
	require.Equal(t, "complaint text cannot be empty", err.Error())
}

func TestIsCodeSeesThroughWrapping(t *testing.T) {
	t.Parallel()

	inner := Wrap(CodeInvalidToken, "token expired", nil)
	outer := fmt.Errorf("refresh failed: %w", inner)
	require.True(t, IsCode(outer, CodeInvalidToken))
	require.False(t, IsCode(stderrors.New("plain"), CodeInvalidToken))
}
