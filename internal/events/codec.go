package events

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DecodeInbound converts a raw message body into the typed variant registered
// for its topic. Unknown topics and malformed payloads are validation errors.
func DecodeInbound(topic string, data []byte) (InboundEvent, error) {
	var event InboundEvent

	switch topic {
	case TopicActivityCompleted:
		event = &ActivityCompleted{}
	case TopicPersonalRecord:
		event = &PersonalRecord{}
	case TopicExerciseCompleted:
		event = &ExerciseCompleted{}
	case TopicStreakUpdate:
		event = &StreakUpdate{}
	default:
		return nil, fmt.Errorf("%w: unknown topic %q", ErrInvalidEvent, topic)
	}

	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("%w: malformed payload: %v", ErrInvalidEvent, err)
	}

	return event, nil
}

// Encode serializes an outbound event for staging in the outbox.
func Encode(event OutboundEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", event.EventType(), err)
	}
	return data, nil
}
