// Package session keeps per-browser dashboard state in memory.
//
// Each session owns its own normalized tables; nothing is shared between
// sessions. Tables are immutable once stored, so callers may read the
// snapshot returned by Get without further locking.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockdash/pkg/contracts/domain"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrTooManySessions = errors.New("too many active sessions")

	// ErrNoStockTable and ErrNoSalesTable mean nothing has been uploaded
	// for that view yet.
	ErrNoStockTable = errors.New("no stock report loaded")
	ErrNoSalesTable = errors.New("no sales report loaded")
)

// Upload describes the file a table was built from.
type Upload struct {
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Session is the state of one dashboard user.
type Session struct {
	ID        string      `json:"id"`
	Page      domain.Page `json:"page"`
	CreatedAt time.Time   `json:"created_at"`
	LastSeen  time.Time   `json:"last_seen"`

	Stock       *domain.StockTable `json:"-"`
	StockUpload *Upload            `json:"stock_upload,omitempty"`
	Sales       *domain.SalesTable `json:"-"`
	SalesUpload *Upload            `json:"sales_upload,omitempty"`
}

// Config bounds the store. A zero TTL never expires sessions and a zero
// MaxSessions is unlimited.
type Config struct {
	TTL         time.Duration
	MaxSessions int
}

// Store is a concurrency-safe, in-memory session registry.
// Expired sessions are removed lazily when they are touched or when a new
// session is created.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      Config
	now      func() time.Time
	logger   *slog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store.
func NewStore(cfg Config, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "session_store")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new session on the stock page.
func (s *Store) Create() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if swept := s.sweepLocked(now); swept > 0 {
		s.logger.Debug("expired sessions removed", slog.Int("count", swept))
	}
	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		return Session{}, fmt.Errorf("%w: limit is %d", ErrTooManySessions, s.cfg.MaxSessions)
	}

	sess := &Session{
		ID:        uuid.New().String(),
		Page:      domain.PageStock,
		CreatedAt: now,
		LastSeen:  now,
	}
	s.sessions[sess.ID] = sess
	s.logger.Info("session created", slog.String("session_id", sess.ID))
	return *sess, nil
}

// Get returns a snapshot of the session and marks it as seen.
func (s *Store) Get(id string) (Session, error) {
	return s.Update(id, nil)
}

// Update runs fn on the live session under the store lock and returns the
// resulting snapshot. If fn fails the session is left unchanged.
func (s *Store) Update(id string, fn func(*Session) error) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookupLocked(id)
	if err != nil {
		return Session{}, err
	}
	if fn != nil {
		draft := *sess
		if err := fn(&draft); err != nil {
			return *sess, err
		}
		*sess = draft
	}
	sess.LastSeen = s.now()
	return *sess, nil
}

// Delete removes a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	s.logger.Info("session deleted", slog.String("session_id", id))
	return nil
}

// Len returns the number of sessions that have not expired.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	n := 0
	for _, sess := range s.sessions {
		if !s.expired(sess, now) {
			n++
		}
	}
	return n
}

func (s *Store) lookupLocked(id string) (*Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.expired(sess, s.now()) {
		delete(s.sessions, id)
		s.logger.Info("session expired", slog.String("session_id", id))
		return nil, ErrSessionExpired
	}
	return sess, nil
}

func (s *Store) sweepLocked(now time.Time) int {
	swept := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			swept++
		}
	}
	return swept
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return s.cfg.TTL > 0 && now.Sub(sess.LastSeen) > s.cfg.TTL
}
