// Package dispatch computes which channels a notification event requires
// and walks each channel's ordered adapter list through the retry executor
// until a terminal outcome is reached.
package dispatch

import (
	"context"
	"fmt"

	"github.com/yourorg/notification-gateway/internal/channel"
	"github.com/yourorg/notification-gateway/internal/config"
	"github.com/yourorg/notification-gateway/internal/domain"
	"github.com/yourorg/notification-gateway/internal/logger"
	"github.com/yourorg/notification-gateway/internal/retry"
)

// Dispatcher owns the ordered adapter lists and routing rule, and turns one
// (event, profile) pair into a list of per-channel delivery results.
type Dispatcher struct {
	emailAdapters []channel.Adapter
	smsAdapters   []channel.Adapter
	forceBoth     map[domain.Severity]bool
	executor      *retry.Executor
	log           logger.Logger
}

// New builds a Dispatcher from its adapter lists and force-both severity
// set. Adapter order is preserved exactly as given — leftmost is primary.
func New(emailAdapters, smsAdapters []channel.Adapter, routing config.RoutingConfig, executor *retry.Executor, log logger.Logger) *Dispatcher {
	forceBoth := make(map[domain.Severity]bool, len(routing.ForceBothOnSeverity))
	for _, s := range routing.ForceBothOnSeverity {
		forceBoth[domain.Severity(s)] = true
	}
	return &Dispatcher{
		emailAdapters: emailAdapters,
		smsAdapters:   smsAdapters,
		forceBoth:     forceBoth,
		executor:      executor,
		log:           log,
	}
}

// Dispatch computes the required channels for event and walks each one's
// adapter list to a terminal outcome. The returned slice holds one result
// per required channel, EMAIL before SMS when both are required. It is
// empty only when neither channel is required.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.NotificationEvent, profile domain.CustomerProfile) []domain.DeliveryResult {
	sendEmail, sendSms := d.route(event)

	if !sendEmail && !sendSms {
		d.log.Warn("no channel required for event", map[string]any{
			"notificationId": event.NotificationID, "notificationType": string(event.NotificationType),
		})
		return nil
	}

	var results []domain.DeliveryResult
	if sendEmail {
		results = append(results, d.walk(ctx, "EMAIL", d.emailAdapters, event, profile))
	}
	if sendSms {
		results = append(results, d.walk(ctx, "SMS", d.smsAdapters, event, profile))
	}
	return results
}

func (d *Dispatcher) route(event domain.NotificationEvent) (sendEmail, sendSms bool) {
	forced := event.HasSeverity() && d.forceBoth[event.SeverityOrEmpty()]
	ch := event.ChannelOrEmpty()
	sendEmail = forced || ch == domain.ChannelEmail || ch == domain.ChannelBoth
	sendSms = forced || ch == domain.ChannelSMS || ch == domain.ChannelBoth
	return sendEmail, sendSms
}

// walk traverses adapters in order until a terminal outcome (SUCCESS or
// SKIPPED) is reached, or every adapter has failed, in which case the last
// FAILURE is returned.
func (d *Dispatcher) walk(ctx context.Context, channelName string, adapters []channel.Adapter, event domain.NotificationEvent, profile domain.CustomerProfile) domain.DeliveryResult {
	if len(adapters) == 0 {
		return domain.NewSkipped("none", channelName, fmt.Sprintf("No %s adapters configured", channelName))
	}

	var last domain.DeliveryResult
	for _, a := range adapters {
		adapter := a
		desc := fmt.Sprintf("%s/%s notificationId=%s", adapter.ProviderName(), adapter.ChannelType(), event.NotificationID)
		result := d.executor.Execute(ctx, func() domain.DeliveryResult {
			return adapter.Send(ctx, event, profile)
		}, desc)

		d.log.Info("delivery attempt result", map[string]any{
			"notificationId": event.NotificationID, "provider": result.Provider,
			"channel": result.Channel, "status": string(result.Status),
		})

		switch result.Status {
		case domain.StatusSuccess, domain.StatusSkipped:
			return result
		}
		last = result
	}
	return last
}
