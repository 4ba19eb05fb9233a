package quota

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"Mira/lib/sl"
	"Mira/storage"
)

const windowKeyLayout = "2006-01-02"

// Allowance is the answer to "may this user generate right now".
type Allowance struct {
	Allowed   bool
	Remaining int
}

// Ledger meters generations per user against a daily allowance. The window
// rolls over lazily at read time: a record whose WindowKey is stale counts
// as zero consumed, no background timer involved. While an entitlement is
// active the allowance check is bypassed and usage is not metered.
type Ledger struct {
	store storage.QuotaStorage
	log   *slog.Logger
	limit int
	loc   *time.Location
	now   func() time.Time
	locks sync.Map // userId -> *sync.Mutex, serializes read-modify-write per user
}

func NewLedger(store storage.QuotaStorage, log *slog.Logger, dailyLimit int, timezone string) (*Ledger, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading quota timezone: %w", err)
	}
	return &Ledger{
		store: store,
		log:   log.With(sl.Module("quota")),
		limit: dailyLimit,
		loc:   loc,
		now:   time.Now,
	}, nil
}

func (l *Ledger) windowKey(t time.Time) string {
	return t.In(l.loc).Format(windowKeyLayout)
}

func (l *Ledger) userLock(userId int64) *sync.Mutex {
	mu, _ := l.locks.LoadOrStore(userId, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (l *Ledger) CheckAllowance(userId int64) (Allowance, error) {
	record, err := l.store.GetQuota(userId)
	if err != nil {
		return Allowance{}, fmt.Errorf("reading quota record: %w", err)
	}

	now := l.now()
	if record == nil {
		return Allowance{Allowed: l.limit > 0, Remaining: l.limit}, nil
	}
	if now.Before(record.EntitlementExpiry) {
		return Allowance{Allowed: true, Remaining: l.limit}, nil
	}

	consumed := record.Consumed
	if record.WindowKey != l.windowKey(now) {
		consumed = 0
	}
	remaining := l.limit - consumed
	if remaining < 0 {
		remaining = 0
	}
	return Allowance{Allowed: remaining > 0, Remaining: remaining}, nil
}

// RecordUsage increments the current window's counter. It is a no-op while
// an entitlement is active, since entitlement usage is unmetered.
func (l *Ledger) RecordUsage(userId int64) error {
	mu := l.userLock(userId)
	mu.Lock()
	defer mu.Unlock()

	record, err := l.store.GetQuota(userId)
	if err != nil {
		return fmt.Errorf("reading quota record: %w", err)
	}

	now := l.now()
	key := l.windowKey(now)

	if record == nil {
		record = &storage.QuotaRecord{UserId: userId, WindowKey: key}
	}
	if now.Before(record.EntitlementExpiry) {
		l.log.With(slog.Int64("user", userId)).Debug("entitlement active, usage not metered")
		return nil
	}
	if record.WindowKey != key {
		record.WindowKey = key
		record.Consumed = 0
	}
	record.Consumed++

	return l.store.PutQuota(record)
}

// GrantEntitlement opens an unmetered period for the user. A new grant
// overwrites any previous expiry, grants do not stack.
func (l *Ledger) GrantEntitlement(userId int64, d time.Duration) error {
	mu := l.userLock(userId)
	mu.Lock()
	defer mu.Unlock()

	record, err := l.store.GetQuota(userId)
	if err != nil {
		return fmt.Errorf("reading quota record: %w", err)
	}

	now := l.now()
	if record == nil {
		record = &storage.QuotaRecord{UserId: userId, WindowKey: l.windowKey(now)}
	}
	record.EntitlementExpiry = now.Add(d)

	l.log.With(
		slog.Int64("user", userId),
		slog.Time("until", record.EntitlementExpiry),
	).Info("entitlement granted")

	return l.store.PutQuota(record)
}
