package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Muscledia/gamification-service/internal/events"
)

// NudgeFunc wakes the relay fetcher so a freshly committed entry is claimed
// without waiting out the poll interval. Call it only after the transaction
// has committed; it is best effort and never blocks.
type NudgeFunc func()

// Outbox is the writer side: business code stages events through it inside
// an open transaction.
type Outbox interface {
	// Stage serializes the event and inserts a PENDING entry using ctx,
	// which must carry the session of the surrounding transaction. The
	// returned nudge must be invoked after commit, never before.
	Stage(ctx context.Context, event events.OutboundEvent) (NudgeFunc, error)
}

type outbox struct {
	store    Store
	channels *channels

	now func() time.Time
}

func newOutbox(store Store, channels *channels) Outbox {
	return &outbox{
		store:    store,
		channels: channels,
		now:      time.Now,
	}
}

func (o *outbox) Stage(ctx context.Context, event events.OutboundEvent) (NudgeFunc, error) {
	payload, err := events.Encode(event)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:        uuid.NewString(),
		EventID:   event.ID(),
		EventType: event.EventType(),
		Topic:     event.Topic(),
		Payload:   payload,
		UserID:    event.Subject(),
		Status:    StatusPending,
		CreatedAt: o.now(),
	}

	if err := o.store.Create(ctx, entry); err != nil {
		return nil, err
	}

	return o.channels.wake, nil
}
