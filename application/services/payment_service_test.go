package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"payment-system/domain/payment"
	apperrors "payment-system/pkg/errors"
	"payment-system/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	saved   []*payment.Payment
	saveErr error
	byID    map[string]*payment.Payment
}

func (r *fakeRepo) Save(ctx context.Context, p *payment.Payment) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, p)
	return nil
}

func (r *fakeRepo) FindByID(ctx context.Context, userID, paymentID string) (*payment.Payment, error) {
	return r.byID[paymentID], nil
}

func (r *fakeRepo) FindByUser(ctx context.Context, userID string, limit int) ([]*payment.Payment, error) {
	return r.saved, nil
}

type fakePublisher struct {
	events []payment.Event
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, event payment.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type captureCW struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (c *captureCW) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	c.inputs = append(c.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func (c *captureCW) metricNames() []string {
	var names []string
	for _, in := range c.inputs {
		for _, d := range in.MetricData {
			names = append(names, aws.ToString(d.MetricName))
		}
	}
	return names
}

func (c *captureCW) dimensionValue(metric, dimension string) string {
	for _, in := range c.inputs {
		for _, d := range in.MetricData {
			if aws.ToString(d.MetricName) != metric {
				continue
			}
			for _, dim := range d.Dimensions {
				if aws.ToString(dim.Name) == dimension {
					return aws.ToString(dim.Value)
				}
			}
		}
	}
	return ""
}

func newTestService(t *testing.T, repo *fakeRepo, pub *fakePublisher) (*PaymentService, *captureCW, *bytes.Buffer) {
	t.Helper()
	console := &bytes.Buffer{}
	emitter := observability.NewEmitter(nil, observability.EmitterConfig{Console: console}, nil)
	logger := observability.NewServiceLogger("payment-backend", emitter)
	cw := &captureCW{}
	metrics := observability.NewMetrics(cw, "", "", true, nil)
	tracer := observability.NewTracer("payment-backend", false)
	return NewPaymentService(repo, pub, logger, metrics, tracer), cw, console
}

func validRequest() ProcessPaymentRequest {
	return ProcessPaymentRequest{
		Amount:   100,
		Currency: "USD",
		Method:   "card",
	}
}

func TestProcessPaymentSuccess(t *testing.T) {
	repo := &fakeRepo{}
	pub := &fakePublisher{}
	svc, cw, console := newTestService(t, repo, pub)

	ctx := observability.WithCorrelationID(context.Background(), "COR-TEST-1")

	p, err := svc.ProcessPayment(ctx, "user-1", validRequest())
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, payment.StatusCompleted, p.Status)
	assert.Equal(t, "COR-TEST-1", p.CorrelationID)
	require.Len(t, repo.saved, 1)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "PaymentProcessed", pub.events[0].Type)
	assert.Equal(t, "COR-TEST-1", pub.events[0].CorrelationID)

	assert.Contains(t, cw.metricNames(), "PaymentProcessed")
	assert.Contains(t, cw.metricNames(), "PaymentProcessingTime")

	out := console.String()
	assert.Contains(t, out, "Payment processed")
	assert.Contains(t, out, "COR-TEST-1")
}

func TestProcessPaymentValidationFailure(t *testing.T) {
	svc, cw, _ := newTestService(t, &fakeRepo{}, &fakePublisher{})

	_, err := svc.ProcessPayment(context.Background(), "user-1", ProcessPaymentRequest{
		Amount:   -5,
		Currency: "USD",
		Method:   "card",
	})
	require.Error(t, err)

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)

	assert.Equal(t, "INVALID_PAYMENT", cw.dimensionValue("PaymentError", "ErrorType"))
}

func TestProcessPaymentPersistenceFailure(t *testing.T) {
	repo := &fakeRepo{saveErr: errors.New("table unavailable")}
	svc, cw, console := newTestService(t, repo, &fakePublisher{})

	_, err := svc.ProcessPayment(context.Background(), "user-1", validRequest())
	require.Error(t, err)

	assert.Equal(t, "PERSISTENCE", cw.dimensionValue("PaymentError", "ErrorType"))
	assert.Contains(t, console.String(), "Payment processing failed")
}

func TestProcessPaymentPublishFailureIsNonFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("bus down")}
	svc, _, console := newTestService(t, &fakeRepo{}, pub)

	p, err := svc.ProcessPayment(context.Background(), "user-1", validRequest())
	require.NoError(t, err, "broker outage must not fail the payment")
	assert.NotNil(t, p)
	assert.Contains(t, console.String(), "Payment event not published")
}

func TestGetPaymentNotFound(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeRepo{byID: map[string]*payment.Payment{}}, &fakePublisher{})

	_, err := svc.GetPayment(context.Background(), "user-1", "missing")
	require.Error(t, err)

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
}

func TestListPaymentsClampsLimit(t *testing.T) {
	repo := &fakeRepo{}
	svc, _, _ := newTestService(t, repo, &fakePublisher{})

	items, err := svc.ListPayments(context.Background(), "user-1", -3)
	require.NoError(t, err)
	assert.Empty(t, items)
}
