package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"payment-system/domain/payment"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

const eventSource = "poc-payment.backend"

// EventBridgeAPI is the subset of the EventBridge client the publisher needs
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *awseventbridge.PutEventsInput, optFns ...func(*awseventbridge.Options)) (*awseventbridge.PutEventsOutput, error)
}

// Publisher ships payment domain events to an EventBridge bus
type Publisher struct {
	client       EventBridgeAPI
	eventBusName string
	logger       *zap.Logger
}

// NewPublisher creates an EventBridge publisher
func NewPublisher(client EventBridgeAPI, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		logger:       logger,
	}
}

// Publish sends one event. Callers treat failures as non-fatal.
func (p *Publisher) Publish(ctx context.Context, event payment.Event) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}

	out, err := p.client.PutEvents(ctx, &awseventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(eventSource),
			DetailType:   aws.String(event.Type),
			Detail:       aws.String(string(detail)),
		}},
	})
	if err != nil {
		return fmt.Errorf("put event %s: %w", event.Type, err)
	}
	if out.FailedEntryCount > 0 {
		for _, entry := range out.Entries {
			if entry.ErrorCode != nil {
				p.logger.Warn("event entry rejected",
					zap.String("eventType", event.Type),
					zap.String("errorCode", aws.ToString(entry.ErrorCode)),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("event %s rejected by bus", event.Type)
	}

	return nil
}
