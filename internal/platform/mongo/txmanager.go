package mongo

import (
	"context"
	"errors"
	"fmt"

	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

// TxManager runs a function inside a MongoDB transaction. All reads and writes
// made through the callback's context are committed or rolled back atomically.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(txCtx context.Context) (any, error)) (any, error)
}

type txManager struct {
	mongo Admin
	log   *zap.Logger
}

func newTxManager(mongo Admin, log *zap.Logger) TxManager {
	return &txManager{
		mongo: mongo,
		log:   log,
	}
}

// isTransientError checks if the error is a transient MongoDB error that can be retried.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongodriver.CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	return cmdErr.HasErrorLabel("TransientTransactionError")
}

func (t *txManager) WithTransaction(ctx context.Context, fn func(txCtx context.Context) (any, error)) (any, error) {
	const maxRetries = 3
	var result any
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			t.log.Warn("retrying transaction", zap.Int("attempt", attempt))
		}

		session, sessErr := t.mongo.StartSession(ctx)
		if sessErr != nil {
			return nil, fmt.Errorf("failed to start session: %w", sessErr)
		}

		result, err = session.WithTransaction(ctx, fn)
		session.EndSession(ctx)

		if err == nil {
			return result, nil
		}

		if isTransientError(err) && attempt < maxRetries {
			t.log.Warn("transient transaction error, will retry",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", maxRetries))
			continue
		}

		break
	}

	return nil, fmt.Errorf("transaction failed: %w", err)
}
