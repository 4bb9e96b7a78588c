// Package consumer owns the long-running consume-commit loop: it polls the
// bus in batches, decodes each record, resolves the customer, invokes the
// dispatcher, and commits offsets once the batch is fully processed.
package consumer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"

	"github.com/yourorg/notification-gateway/internal/config"
	"github.com/yourorg/notification-gateway/internal/dispatch"
	"github.com/yourorg/notification-gateway/internal/domain"
	"github.com/yourorg/notification-gateway/internal/lifecycle"
	"github.com/yourorg/notification-gateway/internal/logger"
	"github.com/yourorg/notification-gateway/internal/resolver"
)

// AuditRecorder is the optional delivery-attempt audit sink. It must never
// affect the dispatch decision — write failures are logged and swallowed by
// the implementation, never surfaced here.
type AuditRecorder interface {
	Record(event domain.NotificationEvent, results []domain.DeliveryResult)
}

// Stats holds the consumer's single-writer counters. Reads from the health
// endpoint's other goroutine must go through Snapshot, which loads each
// field atomically rather than reading the struct directly.
type Stats struct {
	received  atomic.Int64
	delivered atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
}

// Snapshot is an atomically-consistent-per-field read of the counters.
type Snapshot struct {
	Received, Delivered, Skipped, Failed int64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Received:  s.received.Load(),
		Delivered: s.delivered.Load(),
		Skipped:   s.skipped.Load(),
		Failed:    s.failed.Load(),
	}
}

// Loop is the consumer worker: one dedicated goroutine running group.Consume
// in a cycle until the lifecycle gate signals shutdown.
type Loop struct {
	group       sarama.ConsumerGroup
	topics      []string
	dispatcher  *dispatch.Dispatcher
	resolver    resolver.Resolver
	gate        *lifecycle.Gate
	dlq         *DLQPublisher
	onExhausted string
	audit       AuditRecorder
	log         logger.Logger
	stats       Stats
}

// New builds the consumer loop. dlq may be nil — in that case onExhausted
// "kafka" degrades to logging the exhausted delivery instead of publishing it.
func New(group sarama.ConsumerGroup, cfg config.BusConfig, retryCfg config.RetryConfig, dispatcher *dispatch.Dispatcher, res resolver.Resolver, gate *lifecycle.Gate, dlq *DLQPublisher, audit AuditRecorder, log logger.Logger) *Loop {
	return &Loop{
		group:       group,
		topics:      cfg.Topics,
		dispatcher:  dispatcher,
		resolver:    res,
		gate:        gate,
		dlq:         dlq,
		onExhausted: retryCfg.OnExhausted,
		audit:       audit,
		log:         log,
	}
}

func (l *Loop) Stats() Snapshot { return l.stats.Snapshot() }

// Run drives group.Consume in a cycle, re-joining after every rebalance,
// until the lifecycle gate's running flag is cleared or ctx is cancelled.
// It marks MarkLoopDone on every exit path so Shutdown's grace-period wait
// is released promptly.
func (l *Loop) Run(ctx context.Context) error {
	defer l.gate.MarkLoopDone()

	handler := &batchHandler{loop: l}
	l.gate.MarkReady()

	for l.gate.Running() {
		if err := l.group.Consume(ctx, l.topics, handler); err != nil {
			if ctx.Err() != nil {
				break
			}
			l.log.Error("fatal bus error, consumer loop exiting", err, nil)
			return err
		}
		if ctx.Err() != nil {
			break
		}
	}

	snap := l.stats.Snapshot()
	l.log.Info("consumer loop exited", map[string]any{
		"received": snap.Received, "delivered": snap.Delivered,
		"skipped": snap.Skipped, "failed": snap.Failed,
	})
	return nil
}

// batchHandler implements sarama.ConsumerGroupHandler, buffering records up
// to a fixed batch size of 500 or a 500ms poll timeout before dispatching the
// batch and committing offsets once, synchronously, for the whole batch. The
// batch size does not come from configuration: bus.maxPollRecords is not read.
type batchHandler struct {
	loop *Loop
}

func (h *batchHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *batchHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

const pollTimeout = 500 * time.Millisecond

func (h *batchHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	maxBatch := 500
	batch := make([]*sarama.ConsumerMessage, 0, maxBatch)
	timer := time.NewTimer(pollTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		h.loop.processBatch(session.Context(), batch)
		for _, msg := range batch {
			session.MarkMessage(msg, "")
		}
		session.Commit()
		batch = batch[:0]
	}

	for {
		if !h.loop.gate.Running() {
			flush()
			return nil
		}

		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				flush()
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= maxBatch {
				flush()
				timer.Reset(pollTimeout)
			}
		case <-timer.C:
			flush()
			timer.Reset(pollTimeout)
		case <-session.Context().Done():
			flush()
			return nil
		}
	}
}

// processBatch dispatches every record in the batch, isolating per-record
// errors so one malformed record never aborts the batch.
func (l *Loop) processBatch(ctx context.Context, batch []*sarama.ConsumerMessage) {
	for _, msg := range batch {
		l.processOne(ctx, msg)
	}
}

func (l *Loop) processOne(ctx context.Context, msg *sarama.ConsumerMessage) {
	l.stats.received.Add(1)

	event, err := domain.Decode(msg.Value)
	if err != nil {
		l.log.Error("failed to decode notification event", err, map[string]any{
			"topic": msg.Topic, "partition": msg.Partition, "offset": msg.Offset,
		})
		l.stats.failed.Add(1)
		return
	}

	profile, found := l.resolver.Resolve(event.AccountID)
	if !found {
		l.log.Warn("customer not found, skipping event", map[string]any{
			"notificationId": event.NotificationID, "accountId": event.AccountID,
		})
		l.stats.skipped.Add(1)
		return
	}

	results := l.dispatcher.Dispatch(ctx, event, profile)

	if l.audit != nil {
		l.audit.Record(event, results)
	}

	anySuccess := false
	for _, r := range results {
		if r.IsSuccess() {
			anySuccess = true
			break
		}
	}

	if anySuccess {
		l.stats.delivered.Add(1)
		return
	}

	l.stats.failed.Add(1)
	l.handleExhausted(event, msg)
}

// handleExhausted implements the configured policy when every required
// channel failed to deliver. The offset is committed regardless — a poison
// event must not block the partition forever.
func (l *Loop) handleExhausted(event domain.NotificationEvent, msg *sarama.ConsumerMessage) {
	l.log.Error("delivery exhausted for event", nil, map[string]any{
		"notificationId": event.NotificationID, "notificationType": string(event.NotificationType),
		"accountId": event.AccountID,
	})

	if l.onExhausted != "kafka" {
		return
	}
	if l.dlq == nil {
		l.log.Warn("onExhausted=kafka but no dlq publisher wired, degrading to log", map[string]any{
			"notificationId": event.NotificationID,
		})
		return
	}
	l.dlq.Publish(msg.Key, msg.Value)
}
