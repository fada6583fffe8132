package session

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/authgate/internal/clock"
	"github.com/smallbiznis/authgate/internal/observability/metrics"
)

type memoryRecord struct {
	userID    string
	createdAt time.Time
}

// MemoryStore keeps sessions in process memory. Sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryRecord
	ttl      time.Duration
	clock    clock.Clock
	metrics  *metrics.AuthMetrics
}

func NewMemoryStore(clk clock.Clock, ttl time.Duration, m *metrics.AuthMetrics) *MemoryStore {
	if clk == nil {
		clk = clock.New()
	}
	return &MemoryStore{
		sessions: make(map[string]memoryRecord),
		ttl:      ttl,
		clock:    clk,
		metrics:  m,
	}
}

func (s *MemoryStore) Create(ctx context.Context, userID string) (string, error) {
	_ = ctx
	if !validUserID(userID) {
		s.metrics.RecordSessionOp(BackendMemory, metrics.SessionOpCreate, false)
		return "", ErrInvalidUserID
	}
	token, err := NewToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.sessions[token] = memoryRecord{userID: userID, createdAt: s.clock.Now()}
	s.mu.Unlock()

	s.metrics.RecordSessionOp(BackendMemory, metrics.SessionOpCreate, true)
	return token, nil
}

func (s *MemoryStore) Resolve(ctx context.Context, token string) (string, bool) {
	_ = ctx
	if token == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[token]
	if ok && Expired(rec.createdAt, s.clock.Now(), s.ttl) {
		delete(s.sessions, token)
		ok = false
	}
	s.metrics.RecordSessionOp(BackendMemory, metrics.SessionOpResolve, ok)
	if !ok {
		return "", false
	}
	return rec.userID, true
}

func (s *MemoryStore) Destroy(ctx context.Context, token string) bool {
	_ = ctx
	s.mu.Lock()
	_, ok := s.sessions[token]
	if ok {
		delete(s.sessions, token)
	}
	s.mu.Unlock()

	s.metrics.RecordSessionOp(BackendMemory, metrics.SessionOpDestroy, ok)
	return ok
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
