package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsContext(t *testing.T) {
	t.Run("it returns the stored claims", func(t *testing.T) {
		want := &ValidatedClaims{KeyID: "kid-1", RegisteredClaims: RegisteredClaims{Subject: "user123"}}
		ctx := SetClaims(context.Background(), want)

		got, err := GetClaims(ctx)
		require.NoError(t, err)
		assert.Same(t, want, got)
		assert.True(t, HasClaims(ctx))
	})

	t.Run("it reports missing claims", func(t *testing.T) {
		_, err := GetClaims(context.Background())
		assert.ErrorIs(t, err, ErrClaimsNotFound)
		assert.False(t, HasClaims(context.Background()))
	})

	t.Run("it treats stored nil claims as missing", func(t *testing.T) {
		ctx := SetClaims(context.Background(), nil)

		_, err := GetClaims(ctx)
		assert.ErrorIs(t, err, ErrClaimsNotFound)
		assert.False(t, HasClaims(ctx))
	})
}
