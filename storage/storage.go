package storage

import "time"

// Phase is where a user currently is in the conversation flow.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseAwaitingReference Phase = "awaiting_reference"
	PhaseAwaitingScene     Phase = "awaiting_scene"
	PhaseSelectingStyle    Phase = "selecting_style"
)

// UserSession is the per-user conversation state. References holds opaque
// asset handles, oldest first; the first one is the primary reference.
type UserSession struct {
	UserId     int64     `bson:"user_id"`
	Phase      Phase     `bson:"phase"`
	References []string  `bson:"references"`
	Style      string    `bson:"style"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// QuotaRecord tracks generations consumed inside the current allowance
// window. While EntitlementExpiry is in the future, allowance checks are
// bypassed and usage is unmetered.
type QuotaRecord struct {
	UserId            int64     `bson:"user_id"`
	WindowKey         string    `bson:"window_key"`
	Consumed          int       `bson:"consumed"`
	EntitlementExpiry time.Time `bson:"entitlement_expiry,omitempty"`
	UpdatedAt         time.Time `bson:"updated_at"`
}

type SessionStorage interface {
	GetSession(userId int64) (*UserSession, error)
	PutSession(session *UserSession) error
	Close() error
}

type QuotaStorage interface {
	GetQuota(userId int64) (*QuotaRecord, error)
	PutQuota(record *QuotaRecord) error
	Close() error
}
