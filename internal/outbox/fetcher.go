package outbox

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// fetcher drains publishable entries into the entities channel. It claims
// greedily while work is available and sleeps for the poll interval (or a
// post-commit nudge) when the collection is drained.
type fetcher struct {
	store    Store
	channels *channels
	conf     Config
	log      *zap.Logger
}

func newFetcher(store Store, channels *channels, conf Config, log *zap.Logger) *fetcher {
	return &fetcher{
		store:    store,
		channels: channels,
		conf:     conf,
		log:      log.With(zap.String("component", "outbox-fetcher")),
	}
}

func (f *fetcher) Run(ctx context.Context) error {
	f.log.Info("outbox fetcher started", zap.Duration("poll-interval", f.conf.PollInterval))

	for {
		entry, err := f.store.FetchAndLock(ctx)
		switch {
		case errors.Is(err, errNoEntries):
			f.sweepStranded(ctx)
			if stopped := f.sleep(ctx, f.conf.PollInterval); stopped {
				return nil
			}
			continue
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			f.log.Error("failed to fetch outbox entries", zap.Error(err))
			if stopped := f.sleep(ctx, f.conf.PollInterval); stopped {
				return nil
			}
			continue
		}

		select {
		case f.channels.entities <- entry:
		case <-ctx.Done():
			return nil
		}
	}
}

// sweepStranded dead-letters entries whose final claim was never settled,
// so the attempt budget exhausting always ends in DEAD_LETTER even across
// crashes and failed settlement writes.
func (f *fetcher) sweepStranded(ctx context.Context) {
	if _, err := f.store.SweepExhausted(ctx); err != nil && ctx.Err() == nil {
		f.log.Error("failed to sweep exhausted outbox entries", zap.Error(err))
	}
}

// sleep waits for the poll interval, a nudge or shutdown. Returns true when
// the worker should stop.
func (f *fetcher) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return false
	case <-f.channels.nudge:
		return false
	case <-ctx.Done():
		return true
	}
}
