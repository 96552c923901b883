package handlers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/asakaida/purosesu/internal/services"
)

// RetryRecorder counts retry attempts per route. Both the in-process
// collector and the Prometheus exporter satisfy it.
type RetryRecorder interface {
	RecordRetry(route string)
}

// withRetry runs op under the advisory retry policy. Only transient and
// unavailable classifications are re-attempted, with exponential backoff,
// and only while the request context is still alive. The last error is
// returned as-is so respondError can map it.
func withRetry(ctx context.Context, policy services.RetryPolicy, log *logrus.Logger, rec RetryRecorder, route string, op func() error) error {
	var err error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}

		class := policy.Classify(err)
		if !policy.Retryable(class) || attempt == policy.MaxAttempts {
			return err
		}

		if rec != nil {
			rec.RecordRetry(route)
		}
		log.WithFields(logrus.Fields{
			"event":   "operation_retried",
			"route":   route,
			"attempt": attempt,
		}).Warn("transient failure, retrying")

		select {
		case <-ctx.Done():
			return err
		case <-time.After(policy.Backoff(attempt)):
		}
	}
	return err
}
