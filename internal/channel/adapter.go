// Package channel defines the pluggable provider-adapter contract and its
// concrete implementations for each email and SMS provider.
package channel

import (
	"context"

	"github.com/yourorg/notification-gateway/internal/domain"
)

// Adapter wraps a single external delivery provider. A single instance is
// shared across the consumer worker's entire lifetime and must be safe for
// reuse across calls (HTTP clients, credentials — no per-event state).
//
// Implementations must never panic in ordinary operation; retry.Executor
// tolerates one if it happens, but an adapter that panics routinely loses
// the distinction between a transient error and a programming bug.
type Adapter interface {
	// ProviderName is the stable identifier used in logs and DeliveryResult.Provider.
	ProviderName() string
	// ChannelType is "EMAIL" or "SMS".
	ChannelType() string
	// IsConfigured reports whether this adapter has the credentials it
	// needs to operate. Checked once at startup to fail fast.
	IsConfigured() bool
	// Send delivers event to profile via this provider. It must always
	// return a DeliveryResult, never an error.
	Send(ctx context.Context, event domain.NotificationEvent, profile domain.CustomerProfile) domain.DeliveryResult
	// Close releases any held resources (HTTP transport, AWS client). Must
	// be idempotent — the lifecycle gate calls it once per adapter, and a
	// second call must be harmless.
	Close() error
}
