package dispatcher

import (
	"context"
	"errors"
	"net"

	confluent "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Muscledia/gamification-service/internal/events"
	"github.com/Muscledia/gamification-service/internal/rules"
)

// errDuplicate marks an event that was already processed. Acknowledged as a
// no-op, logged at debug level.
var errDuplicate = errors.New("duplicate event")

// Class is the single error taxonomy every processing failure maps onto. The
// class, not the error site, decides acknowledgment and retry.
type Class int

const (
	// ClassOK: processed, acknowledge.
	ClassOK Class = iota
	// ClassValidation: the payload can never be processed. Acknowledge,
	// drop, log at warning level.
	ClassValidation
	// ClassDuplicate: already processed. Acknowledge as no-op.
	ClassDuplicate
	// ClassTransient: infrastructure hiccup. Do not acknowledge; the
	// transport redelivers.
	ClassTransient
	// ClassPermanent: a bug or unhandleable payload. Forward to the DLQ
	// topic, then acknowledge.
	ClassPermanent
)

func (c Class) String() string {
	switch c {
	case ClassOK:
		return "ok"
	case ClassValidation:
		return "validation"
	case ClassDuplicate:
		return "duplicate"
	case ClassTransient:
		return "transient"
	default:
		return "permanent"
	}
}

// Classify maps a processing error onto its class.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassOK
	case errors.Is(err, events.ErrInvalidEvent):
		return ClassValidation
	case errors.Is(err, errDuplicate):
		return ClassDuplicate
	case isTransient(err):
		return ClassTransient
	default:
		return ClassPermanent
	}
}

func isTransient(err error) bool {
	// Optimistic-lock conflicts resolve themselves on re-read.
	if errors.Is(err, rules.ErrVersionConflict) || errors.Is(err, rules.ErrChallengeConflict) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var kafkaErr confluent.Error
	if errors.As(err, &kafkaErr) {
		return kafkaErr.IsRetriable() || kafkaErr.IsTimeout()
	}

	var serverErr mongodriver.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.HasErrorLabel("TransientTransactionError") ||
			serverErr.HasErrorLabel("UnknownTransactionCommitResult")
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
