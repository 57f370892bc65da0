package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"learning-session/internal/database"
	"learning-session/internal/models"
	"learning-session/internal/pkg/logger"
)

// LocalSender delivers a message to clients connected to this instance.
type LocalSender interface {
	SendToSession(sessionID string, msg interface{})
}

// UpdatePublisher sends session messages to websocket clients, through Redis
// pub/sub when configured and directly to the local hub otherwise.
type UpdatePublisher struct {
	redis  *redis.Client
	local  LocalSender
	logger logger.ILogger
}

func NewUpdatePublisher(redisClient *redis.Client, local LocalSender, log logger.ILogger) *UpdatePublisher {
	return &UpdatePublisher{redis: redisClient, local: local, logger: log}
}

func (p *UpdatePublisher) PublishUpdate(ctx context.Context, sessionID string, msg models.WSMessage) error {
	if p.redis == nil {
		p.local.SendToSession(sessionID, msg)
		return nil
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", msg.Type, err)
	}

	if err := p.redis.Publish(ctx, database.SessionChannel(sessionID), string(data)).Err(); err != nil {
		p.logger.Warn("UPDATES", "Redis publish failed, delivering locally", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		p.local.SendToSession(sessionID, msg)
		return nil
	}
	return nil
}
