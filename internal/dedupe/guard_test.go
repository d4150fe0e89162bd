package dedupe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troyfry/workorder-reconciler/constants"
)

type fakeLookup struct {
	hit     Hit
	err     error
	gotHash string
}

func (f *fakeLookup) Exists(_ context.Context, fileHash string) (Hit, error) {
	f.gotHash = fileHash
	return f.hit, f.err
}

func TestHashBytes(t *testing.T) {
	// SHA-256 of the empty input, a fixed reference value.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		HashBytes(nil))

	assert.Equal(t, HashBytes([]byte("same")), HashBytes([]byte("same")))
	assert.NotEqual(t, HashBytes([]byte("a")), HashBytes([]byte("b")))
	assert.Len(t, HashBytes([]byte("x")), 64)
}

func TestGuardCheck(t *testing.T) {
	t.Run("miss passes the hash through", func(t *testing.T) {
		fl := &fakeLookup{}
		hash, hit, err := NewGuard(fl, nil).Check(context.Background(), []byte("doc"))

		require.NoError(t, err)
		assert.False(t, hit.Exists)
		assert.Equal(t, HashBytes([]byte("doc")), hash)
		assert.Equal(t, hash, fl.gotHash, "lookup must receive the computed hash")
	})

	t.Run("hit reports where the document was found", func(t *testing.T) {
		fl := &fakeLookup{hit: Hit{Exists: true, FoundIn: constants.FoundInConfirmed, Ref: "match-1"}}
		_, hit, err := NewGuard(fl, nil).Check(context.Background(), []byte("doc"))

		require.NoError(t, err)
		assert.True(t, hit.Exists)
		assert.Equal(t, constants.FoundInConfirmed, hit.FoundIn)
		assert.Equal(t, "match-1", hit.Ref)
	})

	t.Run("lookup failure propagates", func(t *testing.T) {
		boom := errors.New("db down")
		_, _, err := NewGuard(&fakeLookup{err: boom}, nil).Check(context.Background(), []byte("doc"))
		assert.ErrorIs(t, err, boom)
	})
}
