package storage

import (
	"sync"
	"time"
)

type MemorySessionStorage struct {
	sessions map[int64]*UserSession
	mutex    sync.RWMutex
}

func NewMemorySessionStorage() *MemorySessionStorage {
	return &MemorySessionStorage{
		sessions: make(map[int64]*UserSession),
	}
}

func (m *MemorySessionStorage) GetSession(userId int64) (*UserSession, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if session, ok := m.sessions[userId]; ok {
		// Return a copy to prevent external mutation
		cc := *session
		if session.References != nil {
			cc.References = make([]string, len(session.References))
			copy(cc.References, session.References)
		}
		return &cc, nil
	}
	return nil, nil
}

func (m *MemorySessionStorage) PutSession(session *UserSession) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	cc := *session
	cc.UpdatedAt = time.Now()
	if session.References != nil {
		cc.References = make([]string, len(session.References))
		copy(cc.References, session.References)
	}
	m.sessions[session.UserId] = &cc
	return nil
}

func (m *MemorySessionStorage) Close() error {
	return nil
}

type MemoryQuotaStorage struct {
	records map[int64]*QuotaRecord
	mutex   sync.RWMutex
}

func NewMemoryQuotaStorage() *MemoryQuotaStorage {
	return &MemoryQuotaStorage{
		records: make(map[int64]*QuotaRecord),
	}
}

func (m *MemoryQuotaStorage) GetQuota(userId int64) (*QuotaRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if record, ok := m.records[userId]; ok {
		cc := *record
		return &cc, nil
	}
	return nil, nil
}

func (m *MemoryQuotaStorage) PutQuota(record *QuotaRecord) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	cc := *record
	cc.UpdatedAt = time.Now()
	m.records[record.UserId] = &cc
	return nil
}

func (m *MemoryQuotaStorage) Close() error {
	return nil
}
