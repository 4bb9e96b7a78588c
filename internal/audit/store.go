// Package audit persists an optional delivery-attempt log to Postgres. It
// never influences the dispatch decision — write failures are logged and
// swallowed, since audit data loss is acceptable where a delivery-outcome
// miss is not.
package audit

import (
	"crypto/rand"
	"time"

	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yourorg/notification-gateway/internal/domain"
	"github.com/yourorg/notification-gateway/internal/logger"
)

// deliveryAttemptRow is one row per adapter attempt result, joined to the
// notificationId that produced it.
type deliveryAttemptRow struct {
	ID                string            `gorm:"primaryKey;type:varchar(26)"`
	NotificationID    string            `gorm:"column:notification_id;type:varchar(128);not null;index"`
	NotificationType  string            `gorm:"column:notification_type;type:varchar(64)"`
	AccountID         int64             `gorm:"column:account_id;index"`
	Provider          string            `gorm:"column:provider;type:varchar(64)"`
	Channel           string            `gorm:"column:channel;type:varchar(16)"`
	Status            string            `gorm:"column:status;type:varchar(16)"`
	ProviderMessageID string            `gorm:"column:provider_message_id;type:varchar(128)"`
	ErrorMessage      string            `gorm:"column:error_message;type:text"`
	HTTPStatusCode    int               `gorm:"column:http_status_code"`
	Tags              pq.StringArray    `gorm:"column:tags;type:text[]"`
	Metadata          datatypes.JSONMap `gorm:"column:metadata;type:jsonb;default:'{}'::jsonb"`
	DeliveredAt       time.Time         `gorm:"column:delivered_at"`
	CreatedAt         time.Time         `gorm:"column:created_at"`
}

func (deliveryAttemptRow) TableName() string { return "delivery_attempt" }

// Store writes one row per DeliveryResult to the delivery_attempt table.
type Store struct {
	db  *gorm.DB
	log logger.Logger
}

func NewStore(dsn string, log logger.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&deliveryAttemptRow{}); err != nil {
		return nil, err
	}
	return &Store{db: db, log: log}, nil
}

// Record writes every result for event. Failures are logged and swallowed
// — a broken audit sink must never fail a dispatch. The write is
// synchronous, so it runs on the caller's goroutine.
func (s *Store) Record(event domain.NotificationEvent, results []domain.DeliveryResult) {
	if len(results) == 0 {
		return
	}

	rows := make([]deliveryAttemptRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, deliveryAttemptRow{
			ID:                newULID(),
			NotificationID:    event.NotificationID,
			NotificationType:  string(event.NotificationType),
			AccountID:         event.AccountID,
			Provider:          r.Provider,
			Channel:           r.Channel,
			Status:            string(r.Status),
			ProviderMessageID: r.ProviderMessageID,
			ErrorMessage:      r.ErrorMessage,
			HTTPStatusCode:    r.HTTPStatusCode,
			Tags:              pq.StringArray{string(event.NotificationType), string(event.SeverityOrEmpty())},
			DeliveredAt:       r.DeliveredAt,
			CreatedAt:         time.Now(),
		})
	}

	if err := s.db.Create(&rows).Error; err != nil {
		s.log.Error("audit write failed", err, map[string]any{"notificationId": event.NotificationID})
	}
}

func newULID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
