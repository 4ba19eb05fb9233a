package holder

import (
	"errors"
	"log/slog"

	"Mira/ai"
	"Mira/lib/sl"
	"Mira/storage"
)

var ErrCapacityExceeded = errors.New("reference capacity exceeded")

// AssetStore persists raw reference bytes behind opaque handles.
type AssetStore interface {
	Save(userId int64, data []byte) (string, error)
	Load(userId int64, handle string) ([]byte, error)
	Delete(userId int64, handle string) error
}

// ReferenceManager tracks each user's reference assets: the handle list
// lives in the session record, the bytes in the asset store.
type ReferenceManager struct {
	sessions storage.SessionStorage
	assets   AssetStore
	max      int
	log      *slog.Logger
}

func NewReferenceManager(sessions storage.SessionStorage, assets AssetStore, maxReferences int, log *slog.Logger) *ReferenceManager {
	return &ReferenceManager{
		sessions: sessions,
		assets:   assets,
		max:      maxReferences,
		log:      log.With(sl.Module("references")),
	}
}

func (rm *ReferenceManager) session(userId int64) *storage.UserSession {
	session, err := rm.sessions.GetSession(userId)
	if err != nil {
		rm.log.Error("getting session", slog.Int64("user", userId), sl.Err(err))
		return nil
	}
	return session
}

// AddAsset stores the bytes and appends the handle to the user's list.
func (rm *ReferenceManager) AddAsset(userId int64, data []byte) (string, error) {
	session := rm.session(userId)
	if session == nil {
		session = &storage.UserSession{
			UserId: userId,
			Phase:  storage.PhaseIdle,
			Style:  ai.DefaultStyle,
		}
	}
	if len(session.References) >= rm.max {
		return "", ErrCapacityExceeded
	}

	handle, err := rm.assets.Save(userId, data)
	if err != nil {
		return "", err
	}

	session.References = append(session.References, handle)
	if err := rm.sessions.PutSession(session); err != nil {
		return "", err
	}
	return handle, nil
}

// ListAssets returns the user's handles. A missing session or a storage
// error both read as "no reference", never as a fault.
func (rm *ReferenceManager) ListAssets(userId int64) []string {
	session := rm.session(userId)
	if session == nil {
		return nil
	}
	return session.References
}

func (rm *ReferenceManager) LoadAsset(userId int64, handle string) ([]byte, error) {
	return rm.assets.Load(userId, handle)
}

// ClearAssets deletes stored bytes and empties the handle list. Physical
// deletes are best-effort: a stray file is logged, clearing proceeds.
// Idempotent, clearing an empty list is not an error.
func (rm *ReferenceManager) ClearAssets(userId int64) {
	session := rm.session(userId)
	if session == nil {
		return
	}

	for _, handle := range session.References {
		if err := rm.assets.Delete(userId, handle); err != nil {
			rm.log.Warn("deleting asset",
				slog.Int64("user", userId),
				slog.String("handle", handle),
				sl.Err(err),
			)
		}
	}

	session.References = nil
	if err := rm.sessions.PutSession(session); err != nil {
		rm.log.Error("clearing references", slog.Int64("user", userId), sl.Err(err))
	}
}
