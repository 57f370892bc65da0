package worker

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"learning-session/internal/models"
	"learning-session/internal/pkg/logger"
)

const publishTimeout = 5 * time.Second

// Publisher delivers one message for a session.
type Publisher interface {
	PublishUpdate(ctx context.Context, sessionID string, msg models.WSMessage) error
}

type update struct {
	sessionID string
	snapshot  models.SessionSnapshot
}

// Pool publishes session snapshots off the request path. Updates for the same
// session always go to the same worker, so clients see them in order.
type Pool struct {
	publisher   Publisher
	logger      logger.ILogger
	queues      []chan update
	workerCount int
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewPool(publisher Publisher, workerCount, queueSize int, log logger.ILogger) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	queues := make([]chan update, workerCount)
	for i := range queues {
		queues[i] = make(chan update, queueSize)
	}

	return &Pool{
		publisher:   publisher,
		logger:      log,
		queues:      queues,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i, p.queues[i])
	}

	p.logger.Info("WORKER", "Started update workers", map[string]interface{}{"count": p.workerCount})
}

// Stop drains queued updates and waits for the workers to exit.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
	})
	p.wg.Wait()
}

// SessionUpdated queues a snapshot for delivery. It never blocks; when the
// worker is backed up the update is dropped, since a later snapshot
// supersedes it anyway.
func (p *Pool) SessionUpdated(sessionID string, snapshot models.SessionSnapshot) {
	select {
	case <-p.stopChan:
		return
	default:
	}

	queue := p.queues[xxhash.Sum64String(sessionID)%uint64(p.workerCount)]
	select {
	case queue <- update{sessionID: sessionID, snapshot: snapshot}:
	default:
		p.logger.Warn("WORKER", "Update queue full, dropping snapshot", map[string]interface{}{
			"session_id": sessionID,
		})
	}
}

func (p *Pool) worker(id int, queue chan update) {
	defer p.wg.Done()

	for {
		select {
		case u := <-queue:
			p.publish(u)
		case <-p.stopChan:
			for {
				select {
				case u := <-queue:
					p.publish(u)
				default:
					p.logger.Debug("WORKER", "Worker shutting down", map[string]interface{}{"worker": id})
					return
				}
			}
		}
	}
}

func (p *Pool) publish(u update) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	msg := models.WSMessage{Type: models.MessageSessionUpdated, Payload: u.snapshot}
	if err := p.publisher.PublishUpdate(ctx, u.sessionID, msg); err != nil {
		p.logger.Error("WORKER", "Failed to publish session update", map[string]interface{}{
			"session_id": u.sessionID,
			"error":      err,
		})
	}
}
