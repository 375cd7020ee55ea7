package market

import (
	"sync"
	"time"

	"github.com/dormmarket/market-bot/internal/models"
)

type step int

const (
	stepNone step = iota
	stepAwaitPhoto
	stepAwaitPrice
	stepAwaitDescription
	stepAwaitDorm
	stepAwaitSpot
	stepAwaitConfirm
)

// session is one user's in-progress ad submission. Sessions are ephemeral:
// a restart loses them and the user starts over.
type session struct {
	Step         step
	Draft        models.Ad
	LastActivity time.Time
}

// Sessions is the keyed session registry. Telegram serializes a single
// user's updates, but admin broadcasts and the update loop interleave, so
// access is guarded.
type Sessions struct {
	mu   sync.Mutex
	data map[int64]*session
}

func NewSessions() *Sessions {
	return &Sessions{data: make(map[int64]*session)}
}

func (s *Sessions) get(userID int64) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[userID]
}

func (s *Sessions) set(userID int64, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = sess
}

func (s *Sessions) clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
}

// Active reports whether the user has a submission in progress.
func (s *Sessions) Active(userID int64) bool {
	sess := s.get(userID)
	return sess != nil && sess.Step != stepNone
}
