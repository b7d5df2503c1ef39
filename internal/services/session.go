package services

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/siserv-tech/driverbot-backend/internal/models"
)

// SessionStore keeps one conversation per sender. Every Set renews the TTL and
// a sweep at the same interval evicts idle sessions.
type SessionStore struct {
	sessions *cache.Cache
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions expire after ttl without activity
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: cache.New(ttl, ttl),
		now:      time.Now,
	}
}

// Get returns a copy of the sender's session
func (s *SessionStore) Get(key string) (*models.Session, bool) {
	v, found := s.sessions.Get(key)
	if !found {
		return nil, false
	}
	return v.(*models.Session).Clone(), true
}

// Set stores a copy of the session under its key
func (s *SessionStore) Set(sess *models.Session) {
	c := sess.Clone()
	now := s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.sessions.Set(c.Key, c, cache.DefaultExpiration)
}

// Clear forgets the sender's session
func (s *SessionStore) Clear(key string) {
	s.sessions.Delete(key)
}

// Count is the number of live sessions
func (s *SessionStore) Count() int {
	return s.sessions.ItemCount()
}
