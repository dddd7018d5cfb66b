// Package historian drains committed match actions from the audit queue and
// persists them in batches.
package historian

import (
	"context"
	"errors"
	"time"

	"github.com/jason-s-yu/manaclash/internal/cache"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBatchSize  = 20
	DefaultFlushDelay = 500 * time.Millisecond

	// pendingFactor bounds how many batches are held while the writer keeps failing.
	pendingFactor = 10
)

// Queue is the source of action records, e.g. *cache.Consumer.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) (cache.MatchActionRecord, bool, error)
}

// Writer persists a batch, e.g. database.ActionWriter. It must tolerate a
// batch it has partly or fully stored before, and must not retain records.
type Writer interface {
	WriteActions(ctx context.Context, records []cache.MatchActionRecord) error
}

// Service accumulates records and flushes them when the batch is full or the
// flush delay has passed since the last flush.
type Service struct {
	queue      Queue
	writer     Writer
	logger     *logrus.Logger
	batchSize  int
	flushDelay time.Duration

	batch     []cache.MatchActionRecord
	lastFlush time.Time
	failing   bool
}

func New(queue Queue, writer Writer, logger *logrus.Logger, batchSize int, flushDelay time.Duration) *Service {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if flushDelay <= 0 {
		flushDelay = DefaultFlushDelay
	}
	return &Service{
		queue:      queue,
		writer:     writer,
		logger:     logger,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		batch:      make([]cache.MatchActionRecord, 0, batchSize),
	}
}

// Run pops until ctx is cancelled, then flushes what is left and returns.
func (s *Service) Run(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"batch_size":  s.batchSize,
		"flush_delay": s.flushDelay,
	}).Info("historian started")
	s.lastFlush = time.Now()

	for ctx.Err() == nil {
		record, ok, err := s.queue.Pop(ctx, s.flushDelay)
		switch {
		case errors.Is(err, cache.ErrMalformedRecord):
			s.logger.WithError(err).Warn("skipping malformed action record")
		case err != nil:
			if ctx.Err() != nil {
				break
			}
			s.logger.WithError(err).Error("failed to pop action record")
			sleep(ctx, s.flushDelay)
		case ok:
			s.batch = append(s.batch, record)
		}

		if s.flushDue() {
			s.flush(ctx)
		}
	}

	// the run context is gone; give the final flush its own deadline
	final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(final)
	s.logger.Info("historian stopped")
	return nil
}

// flushDue reports whether the batch should be written now. After a failed
// write a full batch waits for the flush delay like everything else.
func (s *Service) flushDue() bool {
	if time.Since(s.lastFlush) >= s.flushDelay {
		return true
	}
	return !s.failing && len(s.batch) >= s.batchSize
}

// flush writes the pending batch. A failed batch is kept for the next flush
// up to pendingFactor batches, beyond which the oldest records are dropped.
func (s *Service) flush(ctx context.Context) {
	s.lastFlush = time.Now()
	if len(s.batch) == 0 {
		return
	}
	err := s.writer.WriteActions(ctx, s.batch)
	s.failing = err != nil
	if err != nil {
		s.logger.WithError(err).WithField("pending", len(s.batch)).Error("failed to flush action batch")
		if limit := s.batchSize * pendingFactor; len(s.batch) > limit {
			dropped := len(s.batch) - limit
			s.batch = append(s.batch[:0], s.batch[dropped:]...)
			s.logger.WithField("dropped", dropped).Error("dropping oldest action records")
		}
		return
	}
	s.logger.WithField("count", len(s.batch)).Debug("flushed action batch")
	s.batch = s.batch[:0]
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
