package observability

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContextCarriers(t *testing.T) {
	ctx := context.Background()

	_, ok := CorrelationID(ctx)
	assert.False(t, ok, "fresh context carries nothing")

	ctx = WithCorrelationID(ctx, "COR-1-abcdefghi")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithUserID(ctx, "user-1")

	id, ok := CorrelationID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "COR-1-abcdefghi", id)

	id, ok = RequestID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-1", id)

	id, ok = UserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-1", id)
}

func TestContextIsolationBetweenRequests(t *testing.T) {
	base := context.Background()
	reqA := WithCorrelationID(base, "COR-A")
	reqB := WithCorrelationID(base, "COR-B")

	idA, _ := CorrelationID(reqA)
	idB, _ := CorrelationID(reqB)
	assert.Equal(t, "COR-A", idA)
	assert.Equal(t, "COR-B", idB)
}

func TestEmptyStringIsStorable(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "")
	id, ok := CorrelationID(ctx)
	assert.True(t, ok)
	assert.Empty(t, id)
}

func TestElapsed(t *testing.T) {
	ctx := WithStartTime(context.Background(), time.Now().Add(-50*time.Millisecond))
	assert.GreaterOrEqual(t, Elapsed(ctx), 50*time.Millisecond)
	assert.Zero(t, Elapsed(context.Background()))
}

func TestExtractMetadata(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "COR-X")
	ctx = WithRequestID(ctx, "req-X")

	meta := ExtractMetadata(ctx)
	assert.Equal(t, "COR-X", meta.CorrelationID)
	assert.Equal(t, "req-X", meta.RequestID)
	assert.Empty(t, meta.UserID)
}

func TestNewCorrelationIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^COR-\d+-[a-z0-9]{9}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewCorrelationID()
		assert.Regexp(t, pattern, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 1, "ids must not all collide")
}

func TestNewRequestIDIsUUID(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	assert.Regexp(t, pattern, NewRequestID())
}
