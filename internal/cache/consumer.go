package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMalformedRecord marks a queue entry that is not a MatchActionRecord.
// The entry is already removed from the queue.
var ErrMalformedRecord = errors.New("malformed action record")

// Consumer pops action records off the list a Publisher pushes to.
type Consumer struct {
	rdb   *redis.Client
	queue string
}

func NewConsumer(rdb *redis.Client, queue string) *Consumer {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Consumer{rdb: rdb, queue: queue}
}

// Pop blocks up to timeout for the next record. ok is false when the
// timeout passed with an empty queue.
func (c *Consumer) Pop(ctx context.Context, timeout time.Duration) (MatchActionRecord, bool, error) {
	res, err := c.rdb.BLPop(ctx, timeout, c.queue).Result()
	if errors.Is(err, redis.Nil) {
		return MatchActionRecord{}, false, nil
	}
	if err != nil {
		return MatchActionRecord{}, false, fmt.Errorf("BLPop %s: %w", c.queue, err)
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return MatchActionRecord{}, false, nil
	}
	var record MatchActionRecord
	if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
		return MatchActionRecord{}, false, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return record, true, nil
}
