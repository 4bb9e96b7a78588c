// Command outbox-relay claims queued outbox rows written by cmd/ingest-api
// and publishes each one, unchanged, to the bus topic matching its
// notificationType.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"gorm.io/gorm"

	"github.com/yourorg/notification-gateway/internal/producer"
)

type outboxRow struct {
	ID            string    `gorm:"column:id"`
	Payload       []byte    `gorm:"column:payload"`
	Status        string    `gorm:"column:status"`
	AttemptCount  int       `gorm:"column:attempt_count"`
	NextAttemptAt time.Time `gorm:"column:next_attempt_at"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

type temporaryError struct{ error }

func isRetryable(err error) bool {
	var te *temporaryError
	return errors.As(err, &te)
}

func newKafkaPublisher(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	return sarama.NewSyncProducer(brokers, cfg)
}

func claimBatch(ctx context.Context, db *gorm.DB, limit int, lease time.Duration) ([]outboxRow, error) {
	var rows []outboxRow
	leaseSeconds := int(lease / time.Second)
	raw := `
		WITH cte AS (
		  SELECT id
		  FROM outbox
		  WHERE status IN ('QUEUED', 'PENDING')
			AND next_attempt_at <= now()
		  ORDER BY next_attempt_at
		  LIMIT ?
		  FOR UPDATE SKIP LOCKED
		)
		UPDATE outbox o
		SET next_attempt_at = now() + (? * interval '1 second'),
			updated_at = now()
		FROM cte
		WHERE o.id = cte.id
		RETURNING o.id, o.payload, o.status, o.attempt_count, o.next_attempt_at, o.created_at, o.updated_at;
		`
	tx := db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err := tx.Raw(raw, limit, leaseSeconds).Scan(&rows).Error; err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func pollLoop(ctx context.Context, db *gorm.DB, batch int, lease, tick time.Duration, publish func(context.Context, []byte) error) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rows, err := claimBatch(ctx, db, batch, lease)
		if err != nil {
			log.Printf("could not claim batch: %v", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		if len(rows) == 0 {
			select {
			case <-ticker.C:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		for _, r := range rows {
			if err := handleOne(ctx, db, r, publish); err != nil {
				log.Printf("handleOne failed for outbox row %s: %v", r.ID, err)
			}
		}
	}
}

func handleOne(ctx context.Context, db *gorm.DB, r outboxRow, publish func(context.Context, []byte) error) error {
	err := publish(ctx, r.Payload)

	switch {
	case err == nil:
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(`UPDATE outbox SET status='PUBLISHED', updated_at=now() WHERE id=$1`, r.ID).Error; err != nil {
				return err
			}
			return tx.Exec(`UPDATE notification SET status='SENT', updated_at=now() WHERE id=$1`, r.ID).Error
		})

	case isRetryable(err):
		next := time.Now().Add(backoff(r.AttemptCount))
		return db.WithContext(ctx).Exec(`
			UPDATE outbox
			SET attempt_count = attempt_count + 1,
			    status='PENDING',
			    next_attempt_at = $2,
			    updated_at = now()
			WHERE id = $1
		`, r.ID, next).Error

	default:
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(`UPDATE outbox SET status='FAILED', updated_at=now() WHERE id=$1`, r.ID).Error; err != nil {
				return err
			}
			return tx.Exec(`UPDATE notification SET status='FAILED', updated_at=now() WHERE id=$1`, r.ID).Error
		})
	}
}

func backoff(attempt int) time.Duration {
	sec := 1 << attempt
	if sec > 300 {
		sec = 300
	}
	jitter := time.Duration(100+rand.Intn(400)) * time.Millisecond
	return time.Duration(sec)*time.Second + jitter
}

func publishWithProducer(prod sarama.SyncProducer) func(ctx context.Context, payload []byte) error {
	return func(ctx context.Context, payload []byte) error {
		var event producer.NotificationEvent
		if err := json.Unmarshal(payload, &event); err != nil || strings.TrimSpace(event.NotificationID) == "" {
			return &temporaryError{errors.New("invalid payload: missing notificationId")}
		}

		msg := &sarama.ProducerMessage{
			Topic: producer.TopicFor(event.NotificationType),
			Key:   sarama.StringEncoder(event.NotificationID),
			Value: sarama.ByteEncoder(payload),
		}

		done := make(chan error, 1)
		go func() {
			_, _, err := prod.SendMessage(msg)
			done <- err
		}()
		select {
		case <-ctx.Done():
			return &temporaryError{ctx.Err()}
		case err := <-done:
			if err != nil {
				return &temporaryError{err}
			}
			return nil
		}
	}
}

func main() {
	cfg := producer.MustLoadConfig()

	gdb, err := producer.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatal(err)
	}
	defer sqlDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	brokers := strings.Split(cfg.KafkaBrokers, ",")
	prod, err := newKafkaPublisher(brokers)
	if err != nil {
		log.Fatal(err)
	}
	defer prod.Close()

	publishFn := publishWithProducer(prod)

	if err := pollLoop(ctx, gdb, 100, 30*time.Second, time.Second, publishFn); err != nil && err != context.Canceled {
		log.Fatal(err)
	}
}
