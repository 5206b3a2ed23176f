package dispatcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/Muscledia/gamification-service/internal/core/logger"
	"github.com/Muscledia/gamification-service/internal/events"
	"github.com/Muscledia/gamification-service/internal/idempotency"
	"github.com/Muscledia/gamification-service/internal/outbox"
	"github.com/Muscledia/gamification-service/internal/platform/mongo"
	"github.com/Muscledia/gamification-service/internal/rules"
)

// processor is the pipeline every inbound event goes through:
// decode -> validate -> dedup -> evaluate -> commit -> mark processed.
// The business mutation and the staged outbox entries commit in one
// transaction; the idempotency record is written only after that commit.
type processor struct {
	tracker   idempotency.Tracker
	evaluator rules.Evaluator
	applier   rules.Applier
	tx        mongo.TxManager
}

func newProcessor(tracker idempotency.Tracker, evaluator rules.Evaluator, applier rules.Applier, tx mongo.TxManager) *processor {
	return &processor{
		tracker:   tracker,
		evaluator: evaluator,
		applier:   applier,
		tx:        tx,
	}
}

func (p *processor) Handle(ctx context.Context, topic string, payload []byte) error {
	event, err := events.DecodeInbound(topic, payload)
	if err != nil {
		return err
	}
	if err := event.Validate(); err != nil {
		return err
	}

	meta := event.Metadata()
	log := logger.Get(ctx).With(
		zap.String("event-id", meta.EventID),
		zap.Int64("user-id", meta.UserID),
		zap.String("event-type", meta.EventType),
	)
	ctx = logger.With(ctx, log)

	if p.tracker.IsProcessed(ctx, meta.EventID) {
		return errDuplicate
	}

	mutations, err := p.evaluator.Evaluate(ctx, event)
	if err != nil {
		return err
	}

	var nudges []outbox.NudgeFunc
	_, err = p.tx.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		nudges, err = p.applier.Apply(txCtx, meta.UserID, mutations)
		return nil, err
	})
	if err != nil {
		return err
	}

	// Best effort after commit: a crash here means one redelivery caught by
	// the dedup check or absorbed by the idempotent mutations.
	p.tracker.MarkProcessed(ctx, meta.EventID)

	for _, nudge := range nudges {
		nudge()
	}

	log.Info("event processed", zap.Int("mutations", len(mutations)))
	return nil
}
