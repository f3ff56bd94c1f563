package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/sirupsen/logrus"

	domainMail "elderly_care_monitor/internal/domain/mail"
)

// sesAPI is the part of the SES client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESClient sends plain-text email through Amazon SES.
type SESClient struct {
	api    sesAPI
	from   string
	logger *logrus.Entry
}

// NewSESClient loads AWS credentials from the default chain.
func NewSESClient(ctx context.Context, region, from string, logger *logrus.Entry) (*SESClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("AWS config load failed: %w", err)
	}
	return &SESClient{api: ses.NewFromConfig(cfg), from: from, logger: logger}, nil
}

func (c *SESClient) Send(ctx context.Context, msg domainMail.Message) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(msg.Subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(msg.Body),
				},
			},
		},
		Source: aws.String(c.from),
	}

	out, err := c.api.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("email send to %s failed: %w", msg.To, err)
	}
	c.logger.WithFields(logrus.Fields{
		"to":         msg.To,
		"message_id": aws.ToString(out.MessageId),
	}).Debug("Email accepted by SES")
	return nil
}
