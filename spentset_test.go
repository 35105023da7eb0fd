package ntat

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySpentSet(t *testing.T) {
	ctx := context.Background()
	set := NewMemorySpentSet()

	ok, err := set.Contains(ctx, []byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)

	fresh, err := set.CheckAndMark(ctx, []byte("a"))
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = set.CheckAndMark(ctx, []byte("a"))
	require.NoError(t, err)
	assert.False(t, fresh)

	ok, err = set.Contains(ctx, []byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, set.Len())

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = set.CheckAndMark(canceled, []byte("b"))
	assert.ErrorIs(t, err, ErrSpentSetFailure)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, set.Len())
}

func TestMemorySpentSetConcurrent(t *testing.T) {
	ctx := context.Background()
	set := NewMemorySpentSet()
	const workers = 32

	var fresh int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := set.CheckAndMark(ctx, []byte("same key"))
			assert.NoError(t, err)
			if ok {
				atomic.AddInt32(&fresh, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), fresh)
}

func TestDoubleSpendKey(t *testing.T) {
	env := newTestEnv(t, Ed25519, "double spend key")
	sg := env.pp.scalars()
	a, err := sg.ScalarRandom(env.rng)
	require.NoError(t, err)
	b, err := sg.ScalarRandom(env.rng)
	require.NoError(t, err)

	ka, err := doubleSpendKey(env.pp, a)
	require.NoError(t, err)
	again, err := doubleSpendKey(env.pp, a)
	require.NoError(t, err)
	kb, err := doubleSpendKey(env.pp, b)
	require.NoError(t, err)

	assert.Equal(t, ka, again)
	assert.NotEqual(t, ka, kb)
	assert.NotContains(t, string(ka), string(a.Bytes()))

	other, err := doubleSpendKey(env.pp.WithHash(HashBLAKE3), a)
	require.NoError(t, err)
	assert.NotEqual(t, ka, other)
}
