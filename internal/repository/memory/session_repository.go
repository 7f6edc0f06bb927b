package memory

import (
	"time"

	"ai-salesbot-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository holds per-tenant conversation sessions in memory.
// Sessions never expire on their own (they die with the process); only the
// conversation context inside a session carries a TTL, enforced lazily by
// the engine on access.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	c := cache.New(cache.NoExpiration, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.ID, session, cache.NoExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

// LoadOrCreate returns the existing session or registers a fresh one.
func (r *SessionRepository) LoadOrCreate(sessionID string) *store.Session {
	if session, found := r.Get(sessionID); found {
		return session
	}
	session := &store.Session{ID: sessionID}
	r.Save(session)
	return session
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
