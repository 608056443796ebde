package dynamodb

import (
	"context"
	"fmt"

	"payment-system/domain/payment"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// DynamoDBAPI is the subset of the DynamoDB client the repository needs
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *awsdynamodb.PutItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *awsdynamodb.GetItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *awsdynamodb.QueryInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.QueryOutput, error)
}

// paymentItem is the single-table DynamoDB representation of a payment
type paymentItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	payment.Payment
}

func paymentPK(userID string) string {
	return fmt.Sprintf("USER#%s", userID)
}

func paymentSK(paymentID string) string {
	return fmt.Sprintf("PAYMENT#%s", paymentID)
}

// PaymentRepository stores payments in DynamoDB under a USER#/PAYMENT# key
// scheme
type PaymentRepository struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
}

// NewPaymentRepository creates a DynamoDB-backed payment repository
func NewPaymentRepository(client DynamoDBAPI, tableName string, logger *zap.Logger) *PaymentRepository {
	return &PaymentRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Save writes a payment item
func (r *PaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	item, err := attributevalue.MarshalMap(paymentItem{
		PK:      paymentPK(p.UserID),
		SK:      paymentSK(p.ID),
		Payment: *p,
	})
	if err != nil {
		return fmt.Errorf("marshal payment %s: %w", p.ID, err)
	}

	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		r.logger.Error("failed to save payment",
			zap.String("paymentId", p.ID),
			zap.Error(err),
		)
		return fmt.Errorf("save payment %s: %w", p.ID, err)
	}

	return nil
}

// FindByID loads one payment, returning nil when it does not exist
func (r *PaymentRepository) FindByID(ctx context.Context, userID, paymentID string) (*payment.Payment, error) {
	out, err := r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: paymentPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: paymentSK(paymentID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get payment %s: %w", paymentID, err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var item paymentItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal payment %s: %w", paymentID, err)
	}

	p := item.Payment
	return &p, nil
}

// FindByUser returns the user's payments, newest first
func (r *PaymentRepository) FindByUser(ctx context.Context, userID string, limit int) ([]*payment.Payment, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(paymentPK(userID))).
		And(expression.Key("SK").BeginsWith("PAYMENT#"))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build payment query: %w", err)
	}

	out, err := r.client.Query(ctx, &awsdynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(int32(limit)),
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("query payments for user %s: %w", userID, err)
	}

	payments := make([]*payment.Payment, 0, len(out.Items))
	for _, raw := range out.Items {
		var item paymentItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("skipping unreadable payment item", zap.Error(err))
			continue
		}
		p := item.Payment
		payments = append(payments, &p)
	}

	return payments, nil
}
