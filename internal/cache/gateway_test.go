package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "curius-feed/pkg/errors"
)

type testValue struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestGateway(t *testing.T, opts ...Option) (*Gateway, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore(1000)
	return NewGateway(store, zap.NewNop(), opts...), store
}

func TestLookup_MissIsNotAnError(t *testing.T) {
	g, _ := newTestGateway(t)

	got, err := Lookup[testValue](context.Background(), g, "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPutThenLookup_RoundTrips(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()

	want := testValue{Name: "alice", Count: 3}
	require.NoError(t, Put(ctx, g, "k", want, time.Minute))

	got, err := Lookup[testValue](ctx, g, "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestLookup_CorruptedEntryIsDeletedAndDegradesToMiss(t *testing.T) {
	g, store := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "bad", []byte(`{not json`), time.Minute))

	got, err := Lookup[testValue](ctx, g, "bad")
	require.NoError(t, err)
	assert.Nil(t, got)

	// The corrupted entry must be gone from the store entirely.
	_, found, err := store.Get(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, found)

	got, err = Lookup[testValue](ctx, g, "bad")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLookupMany_IndexAlignedAcrossChunks(t *testing.T) {
	g, _ := newTestGateway(t, WithChunkSize(10))
	ctx := context.Background()

	// 25 keys across three chunks, with every third key left missing.
	keys := make([]string, 25)
	for i := range keys {
		keys[i] = fmt.Sprintf("key:%d", i)
		if i%3 == 0 {
			continue
		}
		require.NoError(t, Put(ctx, g, keys[i], testValue{Count: i}, time.Minute))
	}

	got, err := LookupMany[testValue](ctx, g, keys)
	require.NoError(t, err)
	require.Len(t, got, len(keys))

	for i := range keys {
		if i%3 == 0 {
			assert.Nil(t, got[i], "slot %d should be a miss", i)
			continue
		}
		require.NotNil(t, got[i], "slot %d should be a hit", i)
		assert.Equal(t, i, got[i].Count, "slot %d holds the wrong value", i)
	}
}

func TestLookupMany_EmptyInputSkipsStore(t *testing.T) {
	g := NewGateway(&failingStore{}, zap.NewNop())

	got, err := LookupMany[testValue](context.Background(), g, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLookupMany_CorruptedSlotBecomesNilWithoutAborting(t *testing.T) {
	g, store := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, Put(ctx, g, "good", testValue{Count: 1}, time.Minute))
	require.NoError(t, store.Set(ctx, "bad", []byte("garbage"), time.Minute))

	got, err := LookupMany[testValue](ctx, g, []string{"good", "bad"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotNil(t, got[0])
	assert.Nil(t, got[1])

	_, found, err := store.Get(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, found, "corrupted entry should have been deleted")
}

func TestLookupMany_ChunkFailureFailsWholeCall(t *testing.T) {
	g := NewGateway(&failingStore{}, zap.NewNop())

	_, err := LookupMany[testValue](context.Background(), g, []string{"a", "b"})
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
}

func TestFetch_ColdCacheComputesOnceAndStores(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()

	calls := 0
	compute := func(context.Context) (testValue, error) {
		calls++
		return testValue{Name: "computed", Count: 7}, nil
	}

	got, err := Fetch(ctx, g, "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "computed", got.Name)

	cached, err := Lookup[testValue](ctx, g, "k")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, got, *cached)

	// Warm cache: compute must not run again.
	got, err = Fetch(ctx, g, "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 7, got.Count)
}

func TestFetch_ComputeErrorIsNotCached(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()

	wantErr := errors.New("upstream down")
	_, err := Fetch(ctx, g, "k", time.Minute, func(context.Context) (testValue, error) {
		return testValue{}, wantErr
	})
	require.ErrorIs(t, err, wantErr)

	cached, err := Lookup[testValue](ctx, g, "k")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestMemoryStore_ExpiredEntryIsAMiss(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), -time.Second))

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	values, err := store.MGet(ctx, []string{"k"})
	require.NoError(t, err)
	assert.Nil(t, values[0])
}

// failingStore fails every batch read with a transport-level error.
type failingStore struct{}

func (s *failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (s *failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (s *failingStore) MGet(context.Context, []string) ([][]byte, error) {
	return nil, errors.New("connection refused")
}

func (s *failingStore) Delete(context.Context, string) error { return nil }
func (s *failingStore) Ping(context.Context) error           { return errors.New("connection refused") }
func (s *failingStore) Close() error                         { return nil }
