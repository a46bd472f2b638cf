package provider

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
)

// SNSSender sends SMS through AWS SNS. It exists mostly to prove the
// registry: a third carrier is a registration, not an orchestrator edit.
type SNSSender struct {
	client *sns.Client
	logger *zap.Logger
}

type SNSConfig struct {
	Region string
}

// NewSNSSender creates an SNS-backed sender.
func NewSNSSender(ctx context.Context, cfg SNSConfig, logger *zap.Logger) (*SNSSender, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for SNS: %w", err)
	}

	return &SNSSender{
		client: sns.NewFromConfig(awsCfg),
		logger: logger,
	}, nil
}

// Name returns the carrier name.
func (s *SNSSender) Name() string { return SNS }

// Send publishes one message. SDK failures land in the result's Error field.
func (s *SNSSender) Send(ctx context.Context, toE164, body string) SendResult {
	result, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(toE164),
		Message:     aws.String(body),
	})
	if err != nil {
		return SendResult{Error: fmt.Sprintf("sns: publish failed: %v", err)}
	}

	s.logger.Info("sms sent via sns",
		zap.String("to", toE164),
		zap.String("message_id", aws.ToString(result.MessageId)),
	)

	return SendResult{
		Success:   true,
		MessageID: aws.ToString(result.MessageId),
		Status:    "sent",
	}
}
