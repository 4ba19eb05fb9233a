package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"Mira/ai"
	"Mira/core"
	"Mira/holder"
	"Mira/quota"
	"Mira/scene"
	"Mira/storage"
)

// --- Mocks ---

type mockProvider struct {
	response json.RawMessage
	err      error
	calls    int
	lastReq  *ai.GenerationRequest
}

func (m *mockProvider) Submit(_ context.Context, req *ai.GenerationRequest) (json.RawMessage, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

// --- Harness: the whole pipeline over a mocked provider ---

type harness struct {
	machine  *Machine
	provider *mockProvider
	sessions storage.SessionStorage
	quotas   storage.QuotaStorage
	conf     *core.Config
}

func newHarness(t *testing.T, dailyLimit int) *harness {
	t.Helper()

	conf := &core.Config{
		MaxReferences: 2,
		DailyLimit:    dailyLimit,
		QuotaTimezone: "UTC",
	}
	conf.Provider.Model = "photo-composite-1"
	conf.Provider.TimeoutSeconds = 5
	conf.Provider.MaxConcurrent = 2

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := storage.NewMemorySessionStorage()
	quotas := storage.NewMemoryQuotaStorage()

	ledger, err := quota.NewLedger(quotas, log, conf.DailyLimit, conf.QuotaTimezone)
	require.NoError(t, err)

	assets := holder.NewDiskAssetStore(t.TempDir())
	references := holder.NewReferenceManager(sessions, assets, conf.MaxReferences, log)
	resolver := scene.NewResolver(rand.New(rand.NewSource(1)))
	provider := &mockProvider{response: json.RawMessage(`{"images":[{"url":"https://cdn/out.png"}]}`)}
	generator := ai.NewGenerator(conf, log, references, ledger, resolver, provider)

	return &harness{
		machine:  NewMachine(conf, log, sessions, references, generator, resolver, ledger),
		provider: provider,
		sessions: sessions,
		quotas:   quotas,
		conf:     conf,
	}
}

func (h *harness) phase(t *testing.T, userId int64) storage.Phase {
	t.Helper()
	session, err := h.sessions.GetSession(userId)
	require.NoError(t, err)
	if session == nil {
		return storage.PhaseIdle
	}
	return session.Phase
}

func (h *harness) consumed(t *testing.T, userId int64) int {
	t.Helper()
	record, err := h.quotas.GetQuota(userId)
	require.NoError(t, err)
	if record == nil {
		return 0
	}
	return record.Consumed
}

// uploadReference walks a user through the reference upload flow.
func (h *harness) uploadReference(t *testing.T, userId int64) {
	t.Helper()
	ctx := context.Background()
	h.machine.OnSelect(ctx, userId, TokenUpload)
	h.machine.OnPhoto(ctx, userId, []byte("jpeg"))
	h.machine.OnSelect(ctx, userId, TokenDone)
	require.Equal(t, storage.PhaseIdle, h.phase(t, userId))
}
