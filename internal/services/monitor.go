package services

import (
	"context"
	"sync"
	"time"

	"learning-session/internal/pkg/logger"
)

const backendProbeTimeout = 5 * time.Second

type healthProber interface {
	Health(ctx context.Context) error
}

type BackendStatus struct {
	Reachable bool      `json:"reachable"`
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}

// BackendMonitor probes the document backend on an interval and keeps the
// last result for health checks.
type BackendMonitor struct {
	backend  healthProber
	interval time.Duration
	logger   logger.ILogger

	mu       sync.RWMutex
	status   BackendStatus
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewBackendMonitor(backend healthProber, interval time.Duration, log logger.ILogger) *BackendMonitor {
	return &BackendMonitor{
		backend:  backend,
		interval: interval,
		logger:   log,
		stopChan: make(chan struct{}),
	}
}

func (m *BackendMonitor) Start() {
	go m.loop()
	m.logger.Info("MONITOR", "Backend monitor started", map[string]interface{}{"interval": m.interval.String()})
}

func (m *BackendMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}

func (m *BackendMonitor) loop() {
	// Run on startup as well as by interval.
	m.Check(context.Background())

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.Check(context.Background())
		}
	}
}

// Check probes the backend now and records the outcome.
func (m *BackendMonitor) Check(ctx context.Context) BackendStatus {
	ctx, cancel := context.WithTimeout(ctx, backendProbeTimeout)
	defer cancel()

	next := BackendStatus{Reachable: true, CheckedAt: time.Now().UTC()}
	if err := m.backend.Health(ctx); err != nil {
		next.Reachable = false
		next.Error = err.Error()
	}

	m.mu.Lock()
	prev := m.status
	m.status = next
	m.mu.Unlock()

	if statusChanged(prev, next) {
		if next.Reachable {
			m.logger.Info("MONITOR", "Backend reachable", nil)
		} else {
			m.logger.Warn("MONITOR", "Backend unreachable", map[string]interface{}{"error": next.Error})
		}
	}
	return next
}

func (m *BackendMonitor) Status() BackendStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// statusChanged is true on the first probe and whenever reachability flips.
func statusChanged(prev, next BackendStatus) bool {
	return prev.CheckedAt.IsZero() || prev.Reachable != next.Reachable
}
