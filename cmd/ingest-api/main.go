// Command ingest-api is the upstream harness's HTTP entry point: it accepts
// a notification request, stores it transactionally alongside an outbox
// row, and lets cmd/outbox-relay publish it onto the bus. Out of scope for
// the dispatch engine itself — see internal/producer.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yourorg/notification-gateway/internal/producer"
)

type notificationRow struct {
	ID               string            `gorm:"primaryKey;type:uuid"`
	NotificationType string            `gorm:"type:varchar(64);not null;index"`
	Channel          string            `gorm:"type:varchar(16);not null;index"`
	AccountID        int64             `gorm:"not null;index"`
	Subject          string            `gorm:"type:varchar(200)"`
	Body             string            `gorm:"type:text;not null"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb;default:'{}'::jsonb"`
	Status           string            `gorm:"type:varchar(16);not null;index"`
	CreatedAt        time.Time         `gorm:"not null"`
	UpdatedAt        time.Time         `gorm:"not null"`
}

func (notificationRow) TableName() string { return "notification" }

type outboxRow struct {
	ID            string         `gorm:"primaryKey;type:uuid"`
	Payload       datatypes.JSON `gorm:"type:jsonb;not null"`
	Status        string         `gorm:"type:varchar(16);not null;index"`
	AttemptCount  int            `gorm:"not null;default:0"`
	NextAttemptAt time.Time      `gorm:"not null"`
	CreatedAt     time.Time      `gorm:"not null"`
	UpdatedAt     time.Time      `gorm:"not null"`
}

func (outboxRow) TableName() string { return "outbox" }

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

	if err := gdb.AutoMigrate(&notificationRow{}, &outboxRow{}); err != nil {
		log.Fatal(err)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	c := cors.DefaultConfig()
	c.AllowAllOrigins = true
	c.AllowHeaders = []string{"Content-Type", "Authorization"}
	c.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(c))

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r.POST("/notifications", func(c *gin.Context) {
		var req producer.NotificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
			return
		}
		if err := validateRequest(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		id := uuid.NewString()
		now := time.Now()

		event := producer.NotificationEvent{
			NotificationID:   id,
			NotificationType: strings.ToUpper(req.NotificationType),
			Severity:         strings.ToUpper(req.Severity),
			Channel:          strings.ToUpper(req.Channel),
			AccountID:        req.AccountID,
			CustomerID:       req.CustomerID,
			AccountNumber:    req.AccountNumber,
			Subject:          req.Subject,
			Body:             req.Body,
			GeneratedAt:      now.UTC().Format(time.RFC3339),
			Metadata:         req.Metadata,
		}
		payload, err := event.Encode()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode event: " + err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		notification := notificationRow{
			ID:               id,
			NotificationType: event.NotificationType,
			Channel:          event.Channel,
			AccountID:        event.AccountID,
			Subject:          event.Subject,
			Body:             event.Body,
			Metadata:         datatypes.JSONMap(req.Metadata),
			Status:           "QUEUED",
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		if err := insertNotificationAndOutbox(ctx, gdb, notification, payload); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue: " + err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"status": "QUEUED", "notificationId": id})
	})

	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}

func insertNotificationAndOutbox(ctx context.Context, db *gorm.DB, n notificationRow, payload []byte) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&n).Error; err != nil {
			return err
		}
		out := outboxRow{
			ID:            n.ID,
			Payload:       datatypes.JSON(payload),
			Status:        "QUEUED",
			NextAttemptAt: time.Now(),
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}
		return tx.Create(&out).Error
	})
}

func validateRequest(req producer.NotificationRequest) error {
	switch strings.ToUpper(req.Channel) {
	case "EMAIL", "SMS", "BOTH":
	default:
		return errors.New(`channel must be one of: "EMAIL","SMS","BOTH"`)
	}
	if strings.TrimSpace(req.Body) == "" {
		return errors.New("body is required")
	}
	if req.AccountID == 0 {
		return errors.New("accountId is required")
	}
	return nil
}
