package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func pgErr(code, constraint string) error {
	return fmt.Errorf("query: %w", &pgconn.PgError{Code: code, ConstraintName: constraint})
}

func TestIsTransient(t *testing.T) {
	for _, code := range []string{
		pgerrcode.LockNotAvailable,
		pgerrcode.SerializationFailure,
		pgerrcode.DeadlockDetected,
		pgerrcode.QueryCanceled,
	} {
		require.True(t, IsTransient(pgErr(code, "")), code)
	}

	require.False(t, IsTransient(nil))
	require.False(t, IsTransient(pgErr(pgerrcode.UniqueViolation, "")))
	require.False(t, IsTransient(errors.New("plain")))
	require.True(t, IsTransient(context.DeadlineExceeded))
}

func TestConstraintHelpers(t *testing.T) {
	name, ok := IsUniqueViolation(pgErr(pgerrcode.UniqueViolation, "users_email_key"))
	require.True(t, ok)
	require.Equal(t, "users_email_key", name)

	_, ok = IsUniqueViolation(pgErr(pgerrcode.CheckViolation, ""))
	require.False(t, ok)

	require.True(t, IsForeignKeyViolation(pgErr(pgerrcode.ForeignKeyViolation, "")))
	require.True(t, IsCheckViolation(pgErr(pgerrcode.CheckViolation, "")))
	require.True(t, IsNumericOutOfRange(pgErr(pgerrcode.NumericValueOutOfRange, "")))
	require.False(t, IsNumericOutOfRange(pgErr(pgerrcode.CheckViolation, "")))
}
