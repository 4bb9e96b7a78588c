package channel

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/yourorg/notification-gateway/internal/domain"
)

// SnsSmsAdapter sends texts via Amazon SNS's PublishInput.PhoneNumber path,
// the natural AWS-native SMS counterpart to the ses email adapter.
type SnsSmsAdapter struct {
	client       *sns.Client
	senderIDAttr string
}

func NewSnsSmsAdapter(cfg aws.Config, senderIDAttr string) *SnsSmsAdapter {
	return &SnsSmsAdapter{client: sns.NewFromConfig(cfg), senderIDAttr: senderIDAttr}
}

func (a *SnsSmsAdapter) ProviderName() string { return "sns" }
func (a *SnsSmsAdapter) ChannelType() string  { return "SMS" }
func (a *SnsSmsAdapter) IsConfigured() bool   { return a.client != nil }

func (a *SnsSmsAdapter) Send(ctx context.Context, event domain.NotificationEvent, profile domain.CustomerProfile) domain.DeliveryResult {
	if !profile.HasPhone() {
		return domain.NewSkipped(a.ProviderName(), a.ChannelType(),
			fmt.Sprintf("customer %d has no phone number", profile.CustomerID))
	}

	input := &sns.PublishInput{
		PhoneNumber: aws.String(profile.Phone),
		Message:     aws.String(event.Body),
	}
	if a.senderIDAttr != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(a.senderIDAttr)},
		}
	}

	out, err := a.client.Publish(ctx, input)
	if err != nil {
		return domain.NewFailure(a.ProviderName(), a.ChannelType(), err.Error(), 0)
	}
	return domain.NewSuccess(a.ProviderName(), a.ChannelType(), aws.ToString(out.MessageId), 200)
}

func (a *SnsSmsAdapter) Close() error { return nil }
