package metrics

import (
	"time"

	obserrors "github.com/target/profile-portal/internal/observability/errors"
	"github.com/target/profile-portal/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess    = "success"
	ResultError      = "error"
	ResultSuperseded = "superseded"
)

// SessionMetric captures one session operation (initialize, login, register, logout).
type SessionMetric struct {
	Operation string
	Result    string
	Duration  time.Duration
	Err       error
}

// EmitSessionOperation emits standardised session operation metrics.
func EmitSessionOperation(sink statsd.Sink, in SessionMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"operation": in.Operation,
		"result":    in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("session.operation", 1, tags)

	if in.Duration > 0 {
		sink.Timing("session.operation.duration", in.Duration, CloneTags(tags))
	}
}

// RateLimited records a request rejected by the rate limiter.
func RateLimited(sink statsd.Sink, route string) {
	if sink == nil {
		return
	}
	sink.Count("http.rate_limited", 1, map[string]string{"route": route})
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
