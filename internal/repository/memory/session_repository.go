package memory

import (
	"time"

	"ai-jobanalyzer-be/pkg/agent"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps finished and in-flight analysis sessions in memory
// so the progress endpoints can observe them. Sessions expire after an hour;
// persistence of results is the caller's responsibility.
type SessionRepository struct {
	cache *cache.Cache
}

var _ agent.SessionStore = &SessionRepository{}

func NewSessionRepository() *SessionRepository {
	// Default expiration of 1 hour, expired items purged every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *agent.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*agent.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*agent.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
