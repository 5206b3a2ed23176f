// Package events defines the closed set of event types crossing the service
// boundary. Inbound payloads are decoded into strongly-typed variants at the
// transport edge; anything that does not decode into a known variant is a
// validation failure, not a runtime type switch.
package events

// Inbound topics (one consumer group per topic).
const (
	TopicActivityCompleted = "activity-completed"
	TopicPersonalRecord    = "personal-record"
	TopicExerciseCompleted = "exercise-completed"
	TopicStreakUpdate      = "streak-update"
)

// Outbound topics.
const (
	TopicBadgeEvents        = "badge-events"
	TopicLevelUpEvents      = "level-up-events"
	TopicQuestEvents        = "quest-events"
	TopicLeaderboardEvents  = "leaderboard-events"
	TopicGamificationEvents = "gamification-events"
)

// InboundTopics lists every topic the dispatcher may subscribe to.
var InboundTopics = []string{
	TopicActivityCompleted,
	TopicPersonalRecord,
	TopicExerciseCompleted,
	TopicStreakUpdate,
}
