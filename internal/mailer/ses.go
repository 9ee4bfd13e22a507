package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/dailyhi/internal/pkg/logger"
)

// SESMailer sends mail through AWS SES using the SDK v2.
type SESMailer struct {
	client    *sesv2.Client
	fromName  string
	fromEmail string
}

// NewSESMailer initializes the SES client with static credentials.
func NewSESMailer(accessKey, secretKey, region, fromName, fromEmail string) (*SESMailer, error) {
	if region == "" {
		region = "us-west-2"
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize AWS config: %w", err)
	}

	return &SESMailer{
		client:    sesv2.NewFromConfig(cfg),
		fromName:  fromName,
		fromEmail: fromEmail,
	}, nil
}

// Send delivers a single message through SES. Text and HTML parts are
// attached only when present.
func (m *SESMailer) Send(ctx context.Context, to, subject string, body Body) error {
	if body.Empty() {
		return ErrEmptyBody
	}

	content := &types.Body{}
	if body.Text != "" {
		content.Text = &types.Content{Data: aws.String(body.Text), Charset: aws.String("UTF-8")}
	}
	if body.HTML != "" {
		content.Html = &types.Content{Data: aws.String(body.HTML), Charset: aws.String("UTF-8")}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body:    content,
			},
		},
	}

	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send to %s: %w", logger.RedactEmail(to), err)
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	logger.Info("mail sent", "to", to, "subject", subject, "message_id", messageID)
	return nil
}
