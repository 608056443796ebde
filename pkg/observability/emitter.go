package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"go.uber.org/zap"
)

// CloudWatchLogsAPI is the subset of the CloudWatch Logs client the emitter
// needs. Narrowed for testability.
type CloudWatchLogsAPI interface {
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	DescribeLogStreams(ctx context.Context, params *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// EmitterConfig configures a log emitter.
type EmitterConfig struct {
	// RemoteEnabled gates all CloudWatch shipment. Console output happens
	// regardless.
	RemoteEnabled bool
	// MinLevel is the minimum severity shipped remotely.
	MinLevel Level
	// LogGroup and LogStream name the CloudWatch destination. The stream is
	// expected to be unique per process run.
	LogGroup  string
	LogStream string
	// Console overrides the local output destination. Defaults to stdout.
	Console io.Writer
}

// Emitter writes structured log records. Every call produces exactly one
// local console line; records at or above MinLevel are additionally shipped
// to CloudWatch Logs when remote shipment is enabled. Emission never fails
// observably: transport errors are reported through the internal diagnostic
// logger and swallowed, so the emitter stays safe to call from terminal
// error handlers.
type Emitter struct {
	console  io.Writer
	min      Level
	remote   bool
	client   CloudWatchLogsAPI
	group    string
	stream   string
	internal *zap.Logger

	// Stream identity is process-wide shared state; the mutex serializes
	// lazy creation and sequence-token re-resolution.
	mu          sync.Mutex
	streamReady bool
	token       *string
}

// NewEmitter creates a log emitter. client may be nil when remote shipment
// is disabled; internal may be nil to discard transport diagnostics.
func NewEmitter(client CloudWatchLogsAPI, cfg EmitterConfig, internal *zap.Logger) *Emitter {
	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}
	if internal == nil {
		internal = zap.NewNop()
	}

	return &Emitter{
		console:  console,
		min:      cfg.MinLevel,
		remote:   cfg.RemoteEnabled && client != nil,
		client:   client,
		group:    cfg.LogGroup,
		stream:   cfg.LogStream,
		internal: internal,
	}
}

// Log emits one record built from the ambient context and caller metadata.
func (e *Emitter) Log(ctx context.Context, level Level, message string, fields Fields) {
	e.Emit(NewRecord(ctx, level, "", message, fields))
}

// Debug emits at DEBUG level
func (e *Emitter) Debug(ctx context.Context, message string, fields Fields) {
	e.Log(ctx, LevelDebug, message, fields)
}

// Info emits at INFO level
func (e *Emitter) Info(ctx context.Context, message string, fields Fields) {
	e.Log(ctx, LevelInfo, message, fields)
}

// Warn emits at WARN level
func (e *Emitter) Warn(ctx context.Context, message string, fields Fields) {
	e.Log(ctx, LevelWarn, message, fields)
}

// Error emits at ERROR level
func (e *Emitter) Error(ctx context.Context, message string, fields Fields) {
	e.Log(ctx, LevelError, message, fields)
}

// Emit writes an already-built record.
func (e *Emitter) Emit(rec Record) {
	defer func() {
		if r := recover(); r != nil {
			e.internal.Error("log emission panicked", zap.Any("panic", r))
		}
	}()

	fmt.Fprintln(e.console, rec.ConsoleLine())

	if !e.remote || rec.Level < e.min {
		return
	}
	e.ship(rec)
}

// ship performs one best-effort remote write. No buffering, no batching:
// each record is an independent PutLogEvents call.
func (e *Emitter) ship(rec Record) {
	payload, err := rec.JSON()
	if err != nil {
		e.internal.Warn("log record not JSON-serializable, shipped locally only",
			zap.String("message", rec.Message),
			zap.Error(err),
		)
		return
	}

	// Emission calls are not cancellable by the request that triggered them.
	ctx := context.Background()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureStreamLocked(ctx); err != nil {
		e.internal.Warn("cloudwatch log stream unavailable, falling back to console only",
			zap.String("logGroup", e.group),
			zap.String("logStream", e.stream),
			zap.Error(err),
		)
		return
	}

	if err := e.putLocked(ctx, payload); err != nil {
		e.internal.Warn("cloudwatch log delivery failed",
			zap.String("logGroup", e.group),
			zap.String("logStream", e.stream),
			zap.Error(err),
		)
	}
}

// ensureStreamLocked lazily creates the log group and stream. Create calls
// are idempotent: "already exists" responses are treated as success, and an
// existing stream's upload token is adopted.
func (e *Emitter) ensureStreamLocked(ctx context.Context) error {
	if e.streamReady {
		return nil
	}

	var exists *types.ResourceAlreadyExistsException

	_, err := e.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(e.group),
	})
	if err != nil && !errors.As(err, &exists) {
		return err
	}

	_, err = e.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(e.group),
		LogStreamName: aws.String(e.stream),
	})
	if err != nil {
		if !errors.As(err, &exists) {
			return err
		}
		// Stream survived a previous incarnation; pick up its token.
		if err := e.resolveTokenLocked(ctx); err != nil {
			return err
		}
	}

	e.streamReady = true
	return nil
}

// putLocked appends one record. On a stale-sequence-token conflict the
// emitter adopts the expected token carried by the rejection, or re-resolves
// it once from the stream descriptor, and gives up on this record; the next
// call uses the fresh token.
func (e *Emitter) putLocked(ctx context.Context, payload []byte) error {
	out, err := e.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(e.group),
		LogStreamName: aws.String(e.stream),
		SequenceToken: e.token,
		LogEvents: []types.InputLogEvent{{
			Message:   aws.String(string(payload)),
			Timestamp: aws.Int64(time.Now().UnixMilli()),
		}},
	})
	if err == nil {
		e.token = out.NextSequenceToken
		return nil
	}

	var stale *types.InvalidSequenceTokenException
	var accepted *types.DataAlreadyAcceptedException
	if errors.As(err, &stale) || errors.As(err, &accepted) {
		e.token = nil
		switch {
		case stale != nil && stale.ExpectedSequenceToken != nil:
			e.token = stale.ExpectedSequenceToken
		case accepted != nil && accepted.ExpectedSequenceToken != nil:
			e.token = accepted.ExpectedSequenceToken
		default:
			if rerr := e.resolveTokenLocked(ctx); rerr != nil {
				return fmt.Errorf("stale sequence token, re-resolution failed: %w", rerr)
			}
		}
		// Record dropped; no unbounded retry.
		return nil
	}

	return err
}

// resolveTokenLocked queries the stream's current upload token
func (e *Emitter) resolveTokenLocked(ctx context.Context) error {
	out, err := e.client.DescribeLogStreams(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName:        aws.String(e.group),
		LogStreamNamePrefix: aws.String(e.stream),
	})
	if err != nil {
		return err
	}

	for _, s := range out.LogStreams {
		if aws.ToString(s.LogStreamName) == e.stream {
			e.token = s.UploadSequenceToken
			return nil
		}
	}
	return fmt.Errorf("log stream %q not found in group %q", e.stream, e.group)
}
