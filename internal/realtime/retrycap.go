package realtime

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"go.uber.org/zap"

	pkgmq "pipecrm/pkg/mq"
	pkgutil "pipecrm/pkg/util"
)

// maxDeliveryRetries caps broker redeliveries before a change event is
// parked in the DLQ.
const maxDeliveryRetries = 5

// RetryCounter tracks failed deliveries per event across process restarts.
type RetryCounter interface {
	IncrementAndGet(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

// DeadLetterer parks an event that cannot be processed.
type DeadLetterer interface {
	PublishToDLQ(routingKey string, payload []byte, originalError string) error
}

// WithRetryCap wraps a handler so an event failing repeatedly is parked in
// the DLQ instead of requeueing forever. Non-retryable errors go straight
// to the DLQ.
func WithRetryCap(next pkgmq.MessageHandler, retries RetryCounter, dlq DeadLetterer, log *zap.Logger) pkgmq.MessageHandler {
	return func(ctx context.Context, routingKey string, data json.RawMessage) error {
		err := next(ctx, routingKey, data)
		if err == nil {
			return nil
		}

		sum := sha256.Sum256(data)
		key := pkgutil.FormatRetryKey(routingKey, hex.EncodeToString(sum[:8]))

		count, cntErr := retries.IncrementAndGet(ctx, key)
		if cntErr != nil {
			// Redis down: let the broker keep redelivering.
			return err
		}

		retryable, reason := pkgutil.IsRetryableError(err)
		if retryable && pkgutil.ShouldRetry(count, maxDeliveryRetries, retryable) {
			return err
		}

		if dlqErr := dlq.PublishToDLQ(routingKey, data, err.Error()); dlqErr != nil {
			log.Error("Failed to park event in DLQ",
				zap.String("routing_key", routingKey),
				zap.Error(dlqErr),
			)
			return err
		}
		_ = retries.Reset(ctx, key)
		log.Warn("Change event parked in DLQ",
			zap.String("routing_key", routingKey),
			zap.String("reason", reason),
			zap.Int64("attempts", count),
			zap.Error(err),
		)
		return nil
	}
}
