package observability

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeLogsAPI struct {
	mu sync.Mutex

	createGroupCalls  int
	createStreamCalls int
	describeCalls     int
	putCalls          int

	putInputs []*cloudwatchlogs.PutLogEventsInput

	createGroupErr  error
	createStreamErr error
	describeErr     error
	putErrs         []error // consumed in order; nil entries mean success
	describeToken   string
}

func (f *fakeLogsAPI) CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createGroupCalls++
	if f.createGroupErr != nil {
		return nil, f.createGroupErr
	}
	return &cloudwatchlogs.CreateLogGroupOutput{}, nil
}

func (f *fakeLogsAPI) CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createStreamCalls++
	if f.createStreamErr != nil {
		return nil, f.createStreamErr
	}
	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func (f *fakeLogsAPI) DescribeLogStreams(ctx context.Context, params *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.describeCalls++
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return &cloudwatchlogs.DescribeLogStreamsOutput{
		LogStreams: []types.LogStream{{
			LogStreamName:       params.LogStreamNamePrefix,
			UploadSequenceToken: aws.String(f.describeToken),
		}},
	}, nil
}

func (f *fakeLogsAPI) PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putInputs = append(f.putInputs, params)
	f.putCalls++
	if len(f.putErrs) > 0 {
		err := f.putErrs[0]
		f.putErrs = f.putErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &cloudwatchlogs.PutLogEventsOutput{
		NextSequenceToken: aws.String("tok-next"),
	}, nil
}

func newTestEmitter(t *testing.T, client CloudWatchLogsAPI, enabled bool, min Level) (*Emitter, *bytes.Buffer, *observer.ObservedLogs) {
	t.Helper()
	console := &bytes.Buffer{}
	core, logs := observer.New(zap.DebugLevel)
	e := NewEmitter(client, EmitterConfig{
		RemoteEnabled: enabled,
		MinLevel:      min,
		LogGroup:      "/poc-payment/application",
		LogStream:     "test-stream",
		Console:       console,
	}, zap.New(core))
	return e, console, logs
}

func TestConsoleAlwaysWritten(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "COR-TEST-1")

	t.Run("remote disabled", func(t *testing.T) {
		e, console, _ := newTestEmitter(t, nil, false, LevelInfo)
		e.Info(ctx, "Payment processed", nil)

		out := console.String()
		assert.Contains(t, out, "Payment processed")
		assert.Contains(t, out, "COR-TEST-1")
	})

	t.Run("remote enabled", func(t *testing.T) {
		fake := &fakeLogsAPI{}
		e, console, _ := newTestEmitter(t, fake, true, LevelInfo)
		e.Info(ctx, "Payment processed", nil)

		assert.Contains(t, console.String(), "Payment processed")
		assert.Equal(t, 1, fake.putCalls)
	})
}

func TestRemoteShipmentGatedBySeverity(t *testing.T) {
	fake := &fakeLogsAPI{}
	e, console, _ := newTestEmitter(t, fake, true, LevelInfo)

	e.Debug(context.Background(), "verbose detail", nil)
	assert.Zero(t, fake.putCalls, "debug below INFO must not ship")
	assert.Contains(t, console.String(), "verbose detail")

	e.Error(context.Background(), "it broke", nil)
	assert.Equal(t, 1, fake.putCalls)
}

func TestMinimumErrorShipsErrorsOnly(t *testing.T) {
	fake := &fakeLogsAPI{}
	e, _, _ := newTestEmitter(t, fake, true, LevelError)

	e.Info(context.Background(), "routine", nil)
	e.Warn(context.Background(), "notable", nil)
	assert.Zero(t, fake.putCalls)

	e.Error(context.Background(), "broken", nil)
	assert.Equal(t, 1, fake.putCalls)
}

func TestLazyStreamInitIdempotent(t *testing.T) {
	fake := &fakeLogsAPI{}
	e, _, _ := newTestEmitter(t, fake, true, LevelInfo)

	e.Info(context.Background(), "one", nil)
	e.Info(context.Background(), "two", nil)

	assert.Equal(t, 1, fake.createGroupCalls)
	assert.Equal(t, 1, fake.createStreamCalls)
	assert.Equal(t, 2, fake.putCalls)
	// Second put carries the token returned by the first.
	require.Len(t, fake.putInputs, 2)
	assert.Equal(t, "tok-next", aws.ToString(fake.putInputs[1].SequenceToken))
}

func TestExistingStreamTokenAdopted(t *testing.T) {
	fake := &fakeLogsAPI{
		createStreamErr: &types.ResourceAlreadyExistsException{},
		describeToken:   "tok-existing",
	}
	e, _, _ := newTestEmitter(t, fake, true, LevelInfo)

	e.Info(context.Background(), "hello", nil)

	assert.Equal(t, 1, fake.describeCalls)
	require.Len(t, fake.putInputs, 1)
	assert.Equal(t, "tok-existing", aws.ToString(fake.putInputs[0].SequenceToken))
}

func TestStaleTokenSingleReResolutionNoDuplicate(t *testing.T) {
	fake := &fakeLogsAPI{
		putErrs:       []error{&types.InvalidSequenceTokenException{}},
		describeToken: "tok-fresh",
	}
	e, _, logs := newTestEmitter(t, fake, true, LevelInfo)

	e.Info(context.Background(), "dropped on conflict", nil)

	// Exactly one descriptor re-fetch, no re-send of the failed record.
	assert.Equal(t, 1, fake.describeCalls)
	assert.Equal(t, 1, fake.putCalls)
	assert.Zero(t, logs.FilterMessage("cloudwatch log delivery failed").Len())

	// The next record uses the re-resolved token.
	e.Info(context.Background(), "next", nil)
	require.Len(t, fake.putInputs, 2)
	assert.Equal(t, "tok-fresh", aws.ToString(fake.putInputs[1].SequenceToken))
}

func TestStaleTokenAdoptedFromRejection(t *testing.T) {
	fake := &fakeLogsAPI{
		putErrs: []error{&types.InvalidSequenceTokenException{
			ExpectedSequenceToken: aws.String("tok-expected"),
		}},
	}
	e, _, _ := newTestEmitter(t, fake, true, LevelInfo)

	e.Info(context.Background(), "conflicted", nil)

	// Token comes straight from the rejection, no descriptor round trip.
	assert.Zero(t, fake.describeCalls)

	e.Info(context.Background(), "next", nil)
	require.Len(t, fake.putInputs, 2)
	assert.Equal(t, "tok-expected", aws.ToString(fake.putInputs[1].SequenceToken))
}

func TestTransportFailureSwallowed(t *testing.T) {
	fake := &fakeLogsAPI{
		putErrs: []error{errors.New("network down"), errors.New("network down")},
	}
	e, console, logs := newTestEmitter(t, fake, true, LevelInfo)

	assert.NotPanics(t, func() {
		e.Error(context.Background(), "still fine", nil)
	})

	assert.Contains(t, console.String(), "still fine")
	assert.Equal(t, 1, logs.FilterMessage("cloudwatch log delivery failed").Len())
}

func TestStreamInitFailureFallsBackToConsole(t *testing.T) {
	fake := &fakeLogsAPI{createGroupErr: errors.New("access denied")}
	e, console, logs := newTestEmitter(t, fake, true, LevelInfo)

	e.Info(context.Background(), "local only", nil)

	assert.Contains(t, console.String(), "local only")
	assert.Zero(t, fake.putCalls)
	assert.Equal(t, 1, logs.FilterMessage("cloudwatch log stream unavailable, falling back to console only").Len())
}

func TestUnserializableMetadataShipsLocallyOnly(t *testing.T) {
	fake := &fakeLogsAPI{}
	e, console, logs := newTestEmitter(t, fake, true, LevelInfo)

	assert.NotPanics(t, func() {
		e.Info(context.Background(), "odd payload", Fields{"ch": make(chan int)})
	})

	assert.Contains(t, console.String(), "odd payload")
	assert.Zero(t, fake.putCalls)
	assert.Equal(t, 1, logs.FilterMessage("log record not JSON-serializable, shipped locally only").Len())
}
