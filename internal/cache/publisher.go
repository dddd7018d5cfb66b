package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/models"
	"github.com/redis/go-redis/v9"
)

// MatchActionRecord is one committed action as handed to the historian.
// Version is the match version the action produced, so (MatchID, Version)
// identifies it.
type MatchActionRecord struct {
	MatchID uuid.UUID         `json:"match_id"`
	Version int64             `json:"version"`
	Action  models.GameAction `json:"action"`
}

// Publisher pushes action records onto a Redis list.
type Publisher struct {
	rdb   *redis.Client
	queue string
}

func NewPublisher(rdb *redis.Client, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{rdb: rdb, queue: queue}
}

// PublishMatchAction serializes the record and RPushes it to the queue.
func (p *Publisher) PublishMatchAction(ctx context.Context, record MatchActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal MatchActionRecord: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// Queue is the list name records are pushed to.
func (p *Publisher) Queue() string {
	return p.queue
}
