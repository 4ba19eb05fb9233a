package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand"

	"Mira/core"
	"Mira/quota"
	"Mira/scene"
)

// --- Mocks ---

type mockRefs struct {
	handles map[int64][]string
	blobs   map[string][]byte
}

func newMockRefs() *mockRefs {
	return &mockRefs{
		handles: make(map[int64][]string),
		blobs:   make(map[string][]byte),
	}
}

func (m *mockRefs) add(userId int64, handle string, data []byte) {
	m.handles[userId] = append(m.handles[userId], handle)
	m.blobs[handle] = data
}

func (m *mockRefs) ListAssets(userId int64) []string {
	return m.handles[userId]
}

func (m *mockRefs) LoadAsset(_ int64, handle string) ([]byte, error) {
	data, ok := m.blobs[handle]
	if !ok {
		return nil, errors.New("asset not found")
	}
	return data, nil
}

type mockQuota struct {
	allowed    bool
	remaining  int
	checkErr   error
	recorded   int
	recordedBy []int64
}

func (m *mockQuota) CheckAllowance(int64) (quota.Allowance, error) {
	if m.checkErr != nil {
		return quota.Allowance{}, m.checkErr
	}
	return quota.Allowance{Allowed: m.allowed, Remaining: m.remaining}, nil
}

func (m *mockQuota) RecordUsage(userId int64) error {
	m.recorded++
	m.recordedBy = append(m.recordedBy, userId)
	return nil
}

type mockProvider struct {
	response  json.RawMessage
	err       error
	calls     int
	lastReq   *GenerationRequest
}

func (m *mockProvider) Submit(_ context.Context, req *GenerationRequest) (json.RawMessage, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

// --- Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *core.Config {
	conf := &core.Config{}
	conf.Provider.Model = "photo-composite-1"
	conf.Provider.TimeoutSeconds = 5
	conf.Provider.MaxConcurrent = 2
	return conf
}

func testGenerator(refs ReferenceSource, keeper QuotaKeeper, provider Provider) *Generator {
	resolver := scene.NewResolver(rand.New(rand.NewSource(1)))
	return NewGenerator(testConfig(), testLogger(), refs, keeper, resolver, provider)
}
