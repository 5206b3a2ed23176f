package outbox

import "github.com/confluentinc/confluent-kafka-go/v2/kafka"

// channels wires the relay stages: fetcher -> entities -> sender,
// kafka delivery reports -> confirmer. nudge wakes the fetcher early after a
// commit so fresh entries skip the poll interval; every entry still goes
// through the claim in FetchAndLock.
type channels struct {
	entities chan *Entry
	delivery chan kafka.Event
	nudge    chan struct{}
}

func newChannels() *channels {
	return &channels{
		entities: make(chan *Entry, 100),
		delivery: make(chan kafka.Event, 1000),
		nudge:    make(chan struct{}, 1),
	}
}

// wake is a non-blocking nudge; a pending signal already covers new entries.
func (c *channels) wake() {
	select {
	case c.nudge <- struct{}{}:
	default:
	}
}
