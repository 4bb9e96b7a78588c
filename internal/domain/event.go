// Package domain holds the wire-level and resolved types the dispatch
// engine passes between the consumer loop, the dispatcher, and the
// channel adapters.
package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// NotificationType is the closed set of event kinds the upstream producer
// emits.
type NotificationType string

const (
	NotificationFraudAlert        NotificationType = "FRAUD_ALERT"
	NotificationHighValueAlert    NotificationType = "HIGH_VALUE_ALERT"
	NotificationBalanceUpdate     NotificationType = "BALANCE_UPDATE"
	NotificationDormancyAlert     NotificationType = "DORMANCY_ALERT"
	NotificationDailySpendSummary NotificationType = "DAILY_SPEND_SUMMARY"
)

// Severity ranks how urgently an event should reach the customer.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Channel is the transport hint carried on the event itself.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
	ChannelBoth  Channel = "BOTH"
)

// ErrMissingNotificationID is returned by Decode when the payload has no
// notificationId — the one field decode treats as mandatory.
var ErrMissingNotificationID = errors.New("notificationId is required")

// NotificationEvent is the canonical event consumed from the bus topics.
// It is immutable once decoded — nothing downstream mutates it.
type NotificationEvent struct {
	NotificationID   string            `json:"notificationId"`
	NotificationType NotificationType  `json:"notificationType,omitempty"`
	Severity         *Severity         `json:"severity,omitempty"`
	Channel          *Channel          `json:"channel,omitempty"`
	AccountID        int64             `json:"accountId"`
	CustomerID       int64             `json:"customerId,omitempty"`
	AccountNumber    string            `json:"accountNumber,omitempty"`
	Subject          string            `json:"subject"`
	Body             string            `json:"body"`
	EventTime        *time.Time        `json:"eventTime,omitempty"`
	GeneratedAt      *time.Time        `json:"generatedAt,omitempty"`
	Metadata         map[string]any    `json:"metadata,omitempty"`
}

// Decode parses raw bus-record bytes into a NotificationEvent. Unknown JSON
// fields are ignored, matching the upstream producer's schema evolution
// guarantees. A missing notificationId is the only decode-time validation
// failure.
func Decode(raw []byte) (NotificationEvent, error) {
	var event NotificationEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return NotificationEvent{}, err
	}
	if event.NotificationID == "" {
		return NotificationEvent{}, ErrMissingNotificationID
	}
	return event, nil
}

// Encode re-serializes the event, used by the producer harness and by
// tests asserting round-trip fidelity.
func (e NotificationEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// HasSeverity reports whether severity was present on the wire.
func (e NotificationEvent) HasSeverity() bool {
	return e.Severity != nil
}

// SeverityOrEmpty returns the severity value, or "" if absent.
func (e NotificationEvent) SeverityOrEmpty() Severity {
	if e.Severity == nil {
		return ""
	}
	return *e.Severity
}

// ChannelOrEmpty returns the channel hint, or "" if absent.
func (e NotificationEvent) ChannelOrEmpty() Channel {
	if e.Channel == nil {
		return ""
	}
	return *e.Channel
}
