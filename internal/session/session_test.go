package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdash/pkg/contracts/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(cfg Config) (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	return NewStore(cfg, nil, WithClock(clock.Now)), clock
}

func TestStore_CreateAndGet(t *testing.T) {
	store, _ := newTestStore(Config{})

	created, err := store.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.PageStock, created.Page)

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 1, store.Len())

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_Update(t *testing.T) {
	store, _ := newTestStore(Config{})
	sess, err := store.Create()
	require.NoError(t, err)

	table := &domain.StockTable{Records: []domain.StockRecord{{BaleNo: "B1"}}}
	updated, err := store.Update(sess.ID, func(s *Session) error {
		s.Page = domain.PageSales
		s.Stock = table
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PageSales, updated.Page)
	assert.Same(t, table, updated.Stock)

	boom := errors.New("boom")
	_, err = store.Update(sess.ID, func(s *Session) error {
		s.Page = domain.PageStock
		s.Stock = nil
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PageSales, got.Page, "failed update leaves the session unchanged")
	assert.Same(t, table, got.Stock)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	store, _ := newTestStore(Config{})
	a, _ := store.Create()
	b, _ := store.Create()
	require.NotEqual(t, a.ID, b.ID)

	_, err := store.Update(a.ID, func(s *Session) error {
		s.Sales = &domain.SalesTable{}
		return nil
	})
	require.NoError(t, err)

	got, err := store.Get(b.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Sales)
}

func TestStore_Expiry(t *testing.T) {
	store, clock := newTestStore(Config{TTL: 10 * time.Minute})
	sess, err := store.Create()
	require.NoError(t, err)

	clock.Advance(9 * time.Minute)
	_, err = store.Get(sess.ID)
	require.NoError(t, err, "access refreshes the session")

	clock.Advance(9 * time.Minute)
	_, err = store.Get(sess.ID)
	require.NoError(t, err)

	clock.Advance(11 * time.Minute)
	assert.Equal(t, 0, store.Len())
	_, err = store.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = store.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "expired sessions are removed")
}

func TestStore_MaxSessions(t *testing.T) {
	store, clock := newTestStore(Config{TTL: time.Minute, MaxSessions: 2})

	_, err := store.Create()
	require.NoError(t, err)
	_, err = store.Create()
	require.NoError(t, err)

	_, err = store.Create()
	assert.ErrorIs(t, err, ErrTooManySessions)

	clock.Advance(2 * time.Minute)
	_, err = store.Create()
	assert.NoError(t, err, "expired sessions free their slots")
	assert.Equal(t, 1, store.Len())
}

func TestStore_Delete(t *testing.T) {
	store, _ := newTestStore(Config{})
	sess, _ := store.Create()

	require.NoError(t, store.Delete(sess.ID))
	assert.ErrorIs(t, store.Delete(sess.ID), ErrSessionNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store, _ := newTestStore(Config{})
	sess, _ := store.Create()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			page := domain.PageStock
			if i%2 == 0 {
				page = domain.PageSales
			}
			_, err := store.Update(sess.ID, func(s *Session) error {
				s.Page = page
				return nil
			})
			assert.NoError(t, err)
			_, _ = store.Create()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 21, store.Len())
}
