package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStorage_ReadAfterWrite(t *testing.T) {
	store := NewMemorySessionStorage()

	session, err := store.GetSession(1)
	require.NoError(t, err)
	assert.Nil(t, session, "unknown user reads as nil, not an error")

	put := &UserSession{
		UserId:     1,
		Phase:      PhaseAwaitingReference,
		References: []string{"a.jpg"},
		Style:      "retro",
	}
	require.NoError(t, store.PutSession(put))

	got, err := store.GetSession(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, PhaseAwaitingReference, got.Phase)
	assert.Equal(t, []string{"a.jpg"}, got.References)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestMemorySessionStorage_CopiesAreIsolated(t *testing.T) {
	store := NewMemorySessionStorage()
	require.NoError(t, store.PutSession(&UserSession{UserId: 1, References: []string{"a"}}))

	got, err := store.GetSession(1)
	require.NoError(t, err)
	got.References[0] = "mutated"
	got.Phase = PhaseSelectingStyle

	again, err := store.GetSession(1)
	require.NoError(t, err)
	assert.Equal(t, "a", again.References[0], "stored state is not aliased")
	assert.NotEqual(t, PhaseSelectingStyle, again.Phase)
}

func TestMemoryQuotaStorage_ReadAfterWrite(t *testing.T) {
	store := NewMemoryQuotaStorage()

	record, err := store.GetQuota(1)
	require.NoError(t, err)
	assert.Nil(t, record)

	require.NoError(t, store.PutQuota(&QuotaRecord{
		UserId:    1,
		WindowKey: "2026-08-30",
		Consumed:  3,
	}))

	got, err := store.GetQuota(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.Consumed)
	assert.Equal(t, "2026-08-30", got.WindowKey)
}

func TestCachedSessionStorage_ServesFromCacheAndWritesThrough(t *testing.T) {
	inner := NewMemorySessionStorage()
	cached := NewCachedSessionStorage(inner, time.Minute)

	require.NoError(t, cached.PutSession(&UserSession{UserId: 1, Style: "natural"}))

	// The write went through to the backing store.
	direct, err := inner.GetSession(1)
	require.NoError(t, err)
	require.NotNil(t, direct)
	assert.Equal(t, "natural", direct.Style)

	got, err := cached.GetSession(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "natural", got.Style)

	// Cached reads hand out isolated copies too.
	got.Style = "mutated"
	again, err := cached.GetSession(1)
	require.NoError(t, err)
	assert.Equal(t, "natural", again.Style)
}
