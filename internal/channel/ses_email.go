package channel

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/yourorg/notification-gateway/internal/domain"
)

// SesEmailAdapter sends mail via Amazon SES v2's SendEmail API. Credentials
// are resolved through the default AWS SDK chain (env, shared config,
// instance role) — fromAddress is the only value this adapter itself needs.
type SesEmailAdapter struct {
	fromAddress string
	client      *sesv2.Client
}

func NewSesEmailAdapter(cfg aws.Config, fromAddress string) *SesEmailAdapter {
	return &SesEmailAdapter{fromAddress: fromAddress, client: sesv2.NewFromConfig(cfg)}
}

func (a *SesEmailAdapter) ProviderName() string { return "ses" }
func (a *SesEmailAdapter) ChannelType() string  { return "EMAIL" }
func (a *SesEmailAdapter) IsConfigured() bool   { return strings.TrimSpace(a.fromAddress) != "" }

func (a *SesEmailAdapter) Send(ctx context.Context, event domain.NotificationEvent, profile domain.CustomerProfile) domain.DeliveryResult {
	if !profile.HasEmail() {
		return domain.NewSkipped(a.ProviderName(), a.ChannelType(),
			fmt.Sprintf("customer %d has no email address", profile.CustomerID))
	}

	out, err := a.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(a.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{profile.Email},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(event.Subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(event.Body)},
				},
			},
		},
	})
	if err != nil {
		return domain.NewFailure(a.ProviderName(), a.ChannelType(), err.Error(), 0)
	}
	return domain.NewSuccess(a.ProviderName(), a.ChannelType(), aws.ToString(out.MessageId), 200)
}

func (a *SesEmailAdapter) Close() error { return nil }
