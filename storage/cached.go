package storage

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedSessionStorage is a read-through cache in front of a durable
// SessionStorage. Sessions are read on every incoming event, so keeping
// hot ones in memory spares a DB round trip per event. Writes go to the
// backing store first, then refresh the cache, which keeps single-key
// read-after-write consistency within this process.
type CachedSessionStorage struct {
	inner SessionStorage
	cache *gocache.Cache
}

func NewCachedSessionStorage(inner SessionStorage, ttl time.Duration) *CachedSessionStorage {
	return &CachedSessionStorage{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func sessionKey(userId int64) string {
	return strconv.FormatInt(userId, 10)
}

func (c *CachedSessionStorage) GetSession(userId int64) (*UserSession, error) {
	if val, ok := c.cache.Get(sessionKey(userId)); ok {
		if session, ok := val.(*UserSession); ok {
			cc := *session
			cc.References = append([]string(nil), session.References...)
			return &cc, nil
		}
	}

	session, err := c.inner.GetSession(userId)
	if err != nil {
		return nil, err
	}
	if session != nil {
		// Cache a private copy so the caller's mutations stay local.
		cc := *session
		cc.References = append([]string(nil), session.References...)
		c.cache.Set(sessionKey(userId), &cc, gocache.DefaultExpiration)
	}
	return session, nil
}

func (c *CachedSessionStorage) PutSession(session *UserSession) error {
	if err := c.inner.PutSession(session); err != nil {
		return err
	}
	cc := *session
	cc.References = append([]string(nil), session.References...)
	c.cache.Set(sessionKey(session.UserId), &cc, gocache.DefaultExpiration)
	return nil
}

func (c *CachedSessionStorage) Close() error {
	return c.inner.Close()
}
