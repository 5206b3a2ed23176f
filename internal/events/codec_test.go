package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	t.Run("decodes activity-completed into typed variant", func(t *testing.T) {
		payload := []byte(`{
			"eventId": "e1",
			"userId": 42,
			"eventType": "workout-completed",
			"timestamp": "2026-08-01T10:30:00Z",
			"activityType": "running",
			"durationMinutes": 45,
			"caloriesBurned": 520.5
		}`)

		event, err := DecodeInbound(TopicActivityCompleted, payload)
		require.NoError(t, err)

		activity, ok := event.(*ActivityCompleted)
		require.True(t, ok)
		assert.Equal(t, "e1", activity.EventID)
		assert.Equal(t, int64(42), activity.UserID)
		assert.Equal(t, 45, activity.DurationMinutes)
		assert.Equal(t, time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC), activity.Timestamp)
	})

	t.Run("decodes personal-record", func(t *testing.T) {
		payload := []byte(`{"eventId":"e2","userId":7,"exerciseName":"deadlift","recordType":"1rm","value":180,"previousValue":175}`)

		event, err := DecodeInbound(TopicPersonalRecord, payload)
		require.NoError(t, err)

		record, ok := event.(*PersonalRecord)
		require.True(t, ok)
		assert.Equal(t, "deadlift", record.ExerciseName)
		assert.Equal(t, 180.0, record.Value)
	})

	t.Run("unknown topic is a validation error", func(t *testing.T) {
		_, err := DecodeInbound("unknown-topic", []byte(`{}`))
		assert.ErrorIs(t, err, ErrInvalidEvent)
	})

	t.Run("malformed json is a validation error", func(t *testing.T) {
		_, err := DecodeInbound(TopicActivityCompleted, []byte(`{not json`))
		assert.ErrorIs(t, err, ErrInvalidEvent)
	})
}

func TestInboundValidate(t *testing.T) {
	valid := func() *ActivityCompleted {
		return &ActivityCompleted{
			Meta: Meta{
				EventID:   "e1",
				UserID:    42,
				EventType: "workout-completed",
				Timestamp: time.Now(),
			},
			DurationMinutes: 30,
		}
	}

	t.Run("valid event passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing eventId fails", func(t *testing.T) {
		e := valid()
		e.EventID = ""
		assert.ErrorIs(t, e.Validate(), ErrInvalidEvent)
	})

	t.Run("missing userId fails", func(t *testing.T) {
		e := valid()
		e.UserID = 0
		assert.ErrorIs(t, e.Validate(), ErrInvalidEvent)
	})

	t.Run("negative duration fails", func(t *testing.T) {
		e := valid()
		e.DurationMinutes = -1
		assert.ErrorIs(t, e.Validate(), ErrInvalidEvent)
	})

	t.Run("streak update without type fails", func(t *testing.T) {
		e := &StreakUpdate{Meta: Meta{EventID: "e3", UserID: 9}}
		assert.ErrorIs(t, e.Validate(), ErrInvalidEvent)
	})
}

func TestEncode(t *testing.T) {
	t.Run("outbound payload mirrors inbound shape plus derived fields", func(t *testing.T) {
		event := NewLevelUp(42, 3, 4, 1600)

		data, err := Encode(event)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))

		assert.NotEmpty(t, decoded["eventId"])
		assert.Equal(t, float64(42), decoded["userId"])
		assert.Equal(t, TypeLevelUp, decoded["eventType"])
		assert.Equal(t, float64(4), decoded["newLevel"])
	})

	t.Run("every outbound variant names a known topic", func(t *testing.T) {
		variants := []OutboundEvent{
			NewPointsAwarded(1, 10, 10, "workout"),
			NewBadgeEarned(1, "b1", "First Workout"),
			NewLevelUp(1, 1, 2, 100),
			NewQuestCompleted(1, "c1", "weekly-5", 50),
			NewQuestExpired(1, "c2", "weekly-10", 3, 10),
			NewStreakExtended(1, "daily", 4, 9),
			NewStreakReset(1, "daily", 4),
			NewLeaderboardUpdated("weekly", nil),
		}

		known := map[string]bool{
			TopicBadgeEvents:        true,
			TopicLevelUpEvents:      true,
			TopicQuestEvents:        true,
			TopicLeaderboardEvents:  true,
			TopicGamificationEvents: true,
		}

		for _, v := range variants {
			assert.True(t, known[v.Topic()], "topic %q of %s", v.Topic(), v.EventType())
			assert.NotEmpty(t, v.EventType())
		}
	})
}
