package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// exerciseArea runs the behaviour every Area implementation must share.
func exerciseArea(t *testing.T, a Area) {
	t.Helper()
	ctx := context.Background()

	got, err := a.Get(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, got, "missing keys must be absent")

	require.NoError(t, a.Set(ctx, map[string][]byte{"k1": []byte(`[1]`), "k2": []byte(`"two"`)}))
	got, err = a.Get(ctx, "k1", "k2", "missing")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, `[1]`, string(got["k1"]))
	require.Equal(t, `"two"`, string(got["k2"]))

	// whole-value replace
	require.NoError(t, a.Set(ctx, map[string][]byte{"k1": []byte(`[1,2]`)}))
	got, err = a.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, `[1,2]`, string(got["k1"]))

	got, err = a.Get(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
	require.NoError(t, a.Set(ctx, nil))
}
