package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/target/profile-portal/internal/errors"
)

type recordedMetric struct {
	kind  string
	name  string
	value any
	tags  map[string]string
}

type recordingSink struct {
	metrics []recordedMetric
}

func (s *recordingSink) Count(name string, value int64, tags map[string]string) {
	s.metrics = append(s.metrics, recordedMetric{"count", name, value, tags})
}

func (s *recordingSink) Gauge(name string, value float64, tags map[string]string) {
	s.metrics = append(s.metrics, recordedMetric{"gauge", name, value, tags})
}

func (s *recordingSink) Timing(name string, value time.Duration, tags map[string]string) {
	s.metrics = append(s.metrics, recordedMetric{"timing", name, value, tags})
}

func TestEmitSessionOperation_Success(t *testing.T) {
	sink := &recordingSink{}
	EmitSessionOperation(sink, SessionMetric{Operation: "login", Result: ResultSuccess, Duration: 20 * time.Millisecond})

	require.Len(t, sink.metrics, 2)
	assert.Equal(t, "session.operation", sink.metrics[0].name)
	assert.Equal(t, map[string]string{"operation": "login", "result": "success"}, sink.metrics[0].tags)
	assert.Equal(t, "session.operation.duration", sink.metrics[1].name)
}

func TestEmitSessionOperation_ErrorClass(t *testing.T) {
	sink := &recordingSink{}
	EmitSessionOperation(sink, SessionMetric{
		Operation: "register",
		Result:    ResultError,
		Err:       &apperrors.AppError{Code: apperrors.ErrCodeConflict, Message: "taken"},
	})

	require.Len(t, sink.metrics, 1)
	assert.Equal(t, "conflict", sink.metrics[0].tags["error_class"])
}

func TestEmitSessionOperation_NilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		EmitSessionOperation(nil, SessionMetric{Operation: "logout", Result: ResultSuccess})
		RateLimited(nil, "/login")
	})
}

func TestRateLimited(t *testing.T) {
	sink := &recordingSink{}
	RateLimited(sink, "/login")
	require.Len(t, sink.metrics, 1)
	assert.Equal(t, "http.rate_limited", sink.metrics[0].name)
	assert.Equal(t, "/login", sink.metrics[0].tags["route"])
}
