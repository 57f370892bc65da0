package session

import (
	"sync"
	"time"
)

// latest keeps the most recent result of a read workflow. Each request takes
// a token from begin; only the holder of the newest token may commit.
type latest[T any] struct {
	mu        sync.Mutex
	seq       uint64
	inflight  int
	value     *T
	fetchedAt time.Time
}

func (l *latest[T]) begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.inflight++
	return l.seq
}

// commit stores v if token is still current. It reports false for a
// superseded response, which is then dropped.
func (l *latest[T]) commit(token uint64, v *T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inflight--
	if token != l.seq {
		return false
	}
	l.value = v
	l.fetchedAt = time.Now()
	return true
}

// fail releases token without touching the held value.
func (l *latest[T]) fail(token uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inflight--
	return token == l.seq
}

func (l *latest[T]) get() (*T, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.fetchedAt
}

func (l *latest[T]) busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight > 0
}
