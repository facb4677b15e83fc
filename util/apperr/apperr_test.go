package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

var errThing = New(KindNotFound, "THING_NOT_FOUND")

func TestIs_MatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", errThing.Wrap(errors.New("no rows")))

	require.ErrorIs(t, wrapped, errThing)
	require.Equal(t, Code("THING_NOT_FOUND"), CodeOf(wrapped))
	require.Equal(t, KindNotFound, KindOf(wrapped))
	require.Equal(t, "THING_NOT_FOUND: no rows", errors.Unwrap(wrapped).Error())
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := errThing.Wrap(cause)

	require.ErrorIs(t, err, cause)
	require.Nil(t, errThing.Err, "sentinel must not be mutated")
}

func TestPlainErrors(t *testing.T) {
	err := errors.New("plain")
	require.Equal(t, Code(""), CodeOf(err))
	require.Equal(t, KindInternal, KindOf(err))
	require.Equal(t, "internal", KindOf(err).String())
}
