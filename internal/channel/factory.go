package channel

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/yourorg/notification-gateway/internal/config"
	"github.com/yourorg/notification-gateway/internal/logger"
)

// BuildAdapters constructs the ordered, enabled adapter list for both
// channels from cfg, skipping (and logging) any enabled provider that ends
// up unconfigured rather than failing startup outright.
func BuildAdapters(ctx context.Context, cfg config.Config, log logger.Logger) (email []Adapter, sms []Adapter, err error) {
	var awsCfg aws.Config
	if needsAWS(cfg) {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
	}

	for _, p := range cfg.ActiveEmailProviders() {
		a := buildEmailAdapter(p, awsCfg)
		if a == nil {
			log.Warn("unknown email provider in config, skipping", map[string]any{"provider": p.Name})
			continue
		}
		if !a.IsConfigured() {
			log.Warn("email provider enabled but missing credentials, skipping", map[string]any{"provider": p.Name})
			continue
		}
		email = append(email, a)
	}

	for _, p := range cfg.ActiveSMSProviders() {
		a := buildSMSAdapter(p, awsCfg)
		if a == nil {
			log.Warn("unknown sms provider in config, skipping", map[string]any{"provider": p.Name})
			continue
		}
		if !a.IsConfigured() {
			log.Warn("sms provider enabled but missing credentials, skipping", map[string]any{"provider": p.Name})
			continue
		}
		sms = append(sms, a)
	}

	return email, sms, nil
}

func needsAWS(cfg config.Config) bool {
	for _, p := range cfg.Channels.Email.Providers {
		if p.Enabled && p.Name == "ses" {
			return true
		}
	}
	for _, p := range cfg.Channels.SMS.Providers {
		if p.Enabled && p.Name == "sns" {
			return true
		}
	}
	return false
}

func buildEmailAdapter(p config.ProviderConfig, awsCfg aws.Config) Adapter {
	switch p.Name {
	case "sendgrid":
		return NewSendGridEmailAdapter(
			p.Cred("apiKey", "SENDGRID_API_KEY"),
			p.Cred("fromAddress", "SENDGRID_FROM_ADDRESS"),
			p.Cred("replyTo", "SENDGRID_REPLY_TO"),
			p.Credentials["endpoint"],
			p.TimeoutMs, p.RateLimitPerSecond,
		)
	case "ses":
		return NewSesEmailAdapter(awsCfg, p.Cred("fromAddress", "SES_FROM_ADDRESS"))
	case "mailersend":
		return NewMailerSendEmailAdapter(
			p.Cred("apiKey", "MAILERSEND_API_KEY"),
			p.Cred("fromAddress", "MAILERSEND_FROM_ADDRESS"),
			p.TimeoutMs, p.RateLimitPerSecond,
		)
	case "postmark":
		return NewPostmarkEmailAdapter(
			p.Cred("serverToken", "POSTMARK_SERVER_TOKEN"),
			p.Cred("fromAddress", "POSTMARK_FROM_ADDRESS"),
			p.Credentials["messageStream"],
			p.TimeoutMs, p.RateLimitPerSecond,
		)
	default:
		return nil
	}
}

func buildSMSAdapter(p config.ProviderConfig, awsCfg aws.Config) Adapter {
	switch p.Name {
	case "twilio":
		return NewTwilioSmsAdapter(
			p.Cred("accountSid", "TWILIO_ACCOUNT_SID"),
			p.Cred("authToken", "TWILIO_AUTH_TOKEN"),
			p.Cred("fromNumber", "TWILIO_FROM_NUMBER"),
			p.TimeoutMs, p.RateLimitPerSecond,
		)
	case "africas-talking":
		return NewAfricasTalkingSmsAdapter(
			p.Cred("username", "AFRICASTALKING_USERNAME"),
			p.Cred("apiKey", "AFRICASTALKING_API_KEY"),
			p.Credentials["senderId"],
			p.TimeoutMs, p.RateLimitPerSecond,
		)
	case "termii":
		return NewTermiiSmsAdapter(
			p.Cred("apiKey", "TERMII_API_KEY"),
			p.Credentials["senderId"],
			p.TimeoutMs, p.RateLimitPerSecond,
		)
	case "sns":
		return NewSnsSmsAdapter(awsCfg, p.Credentials["senderId"])
	default:
		return nil
	}
}
