package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prosumer-sim/internal/simulation"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestStore(ttl time.Duration, maxSessions int) (*SessionStore, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewSessionStore(ttl, maxSessions)
	s.now = clk.now
	return s, clk
}

func TestSessionStore_AddGetDelete(t *testing.T) {
	s, clk := newTestStore(time.Minute, 0)
	env := &simulation.Env{}

	sess, exp, err := s.Add(env)
	require.NoError(t, err)
	assert.Equal(t, clk.t.Add(time.Minute), exp)
	assert.Equal(t, 1, s.Len())

	got, _, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	require.NoError(t, s.Delete(sess.ID))
	assert.ErrorIs(t, s.Delete(sess.ID), ErrSessionNotFound)
	_, _, err = s.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_GetRefreshesExpiry(t *testing.T) {
	s, clk := newTestStore(time.Minute, 0)
	sess, _, err := s.Add(&simulation.Env{})
	require.NoError(t, err)

	clk.advance(50 * time.Second)
	_, exp, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, clk.t.Add(time.Minute), exp)

	clk.advance(50 * time.Second)
	_, _, err = s.Get(sess.ID)
	require.NoError(t, err)

	clk.advance(61 * time.Second)
	_, _, err = s.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_SweepAndLimit(t *testing.T) {
	s, clk := newTestStore(time.Minute, 2)
	_, _, err := s.Add(&simulation.Env{})
	require.NoError(t, err)
	clk.advance(30 * time.Second)
	_, _, err = s.Add(&simulation.Env{})
	require.NoError(t, err)

	_, _, err = s.Add(&simulation.Env{})
	assert.ErrorIs(t, err, ErrTooManySessions)

	clk.advance(45 * time.Second)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())

	// expired sessions do not count against the limit
	clk.advance(time.Hour)
	_, _, err = s.Add(&simulation.Env{})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestSessionStore_Run(t *testing.T) {
	s := NewSessionStore(time.Nanosecond, 0)
	_, _, err := s.Add(&simulation.Env{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	swept := make(chan int, 1)
	go s.Run(ctx, time.Millisecond, func(removed, remaining int) {
		if removed > 0 {
			select {
			case swept <- remaining:
			default:
			}
		}
	})

	select {
	case remaining := <-swept:
		assert.Equal(t, 0, remaining)
	case <-time.After(5 * time.Second):
		t.Fatal("session was not swept")
	}
}

func TestSession_Do(t *testing.T) {
	s, _ := newTestStore(time.Minute, 0)
	env := &simulation.Env{}
	sess, _, err := s.Add(env)
	require.NoError(t, err)

	var seen *simulation.Env
	require.NoError(t, sess.Do(func(e *simulation.Env) error {
		seen = e
		return nil
	}))
	assert.Same(t, env, seen)
}
