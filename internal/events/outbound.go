package events

import (
	"time"

	"github.com/google/uuid"
)

// Outbound event type tags.
const (
	TypePointsAwarded      = "points-awarded"
	TypeBadgeEarned        = "badge-earned"
	TypeLevelUp            = "level-up"
	TypeQuestCompleted     = "quest-completed"
	TypeQuestExpired       = "quest-expired"
	TypeStreakExtended     = "streak-extended"
	TypeStreakReset        = "streak-reset"
	TypeLeaderboardUpdated = "leaderboard-updated"
)

// OutboundEvent is a self-describing derived event: it knows its destination
// topic and its wire type tag. Payloads mirror the inbound shape plus derived
// fields.
type OutboundEvent interface {
	ID() string
	Topic() string
	EventType() string
	Subject() int64 // userId used as partition key at the transport
}

// OutboundMeta is embedded in every outbound payload.
type OutboundMeta struct {
	EventID   string    `json:"eventId"`
	UserID    int64     `json:"userId"`
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
}

func newOutboundMeta(userID int64, eventType string) OutboundMeta {
	return OutboundMeta{
		EventID:   uuid.NewString(),
		UserID:    userID,
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

func (m OutboundMeta) ID() string     { return m.EventID }
func (m OutboundMeta) Subject() int64 { return m.UserID }

// PointsAwarded reports points credited for a processed activity.
type PointsAwarded struct {
	OutboundMeta
	PointsAwarded int64  `json:"pointsAwarded"`
	TotalPoints   int64  `json:"totalPoints"`
	Reason        string `json:"reason"`
}

func NewPointsAwarded(userID, points, total int64, reason string) *PointsAwarded {
	return &PointsAwarded{
		OutboundMeta:  newOutboundMeta(userID, TypePointsAwarded),
		PointsAwarded: points,
		TotalPoints:   total,
		Reason:        reason,
	}
}

func (e *PointsAwarded) Topic() string     { return TopicGamificationEvents }
func (e *PointsAwarded) EventType() string { return TypePointsAwarded }

// BadgeEarned reports a newly unlocked badge.
type BadgeEarned struct {
	OutboundMeta
	BadgeID   string `json:"badgeId"`
	BadgeName string `json:"badgeName"`
}

func NewBadgeEarned(userID int64, badgeID, badgeName string) *BadgeEarned {
	return &BadgeEarned{
		OutboundMeta: newOutboundMeta(userID, TypeBadgeEarned),
		BadgeID:      badgeID,
		BadgeName:    badgeName,
	}
}

func (e *BadgeEarned) Topic() string     { return TopicBadgeEvents }
func (e *BadgeEarned) EventType() string { return TypeBadgeEarned }

// LevelUp reports a level threshold crossing.
type LevelUp struct {
	OutboundMeta
	OldLevel    int   `json:"oldLevel"`
	NewLevel    int   `json:"newLevel"`
	TotalPoints int64 `json:"totalPoints"`
}

func NewLevelUp(userID int64, oldLevel, newLevel int, totalPoints int64) *LevelUp {
	return &LevelUp{
		OutboundMeta: newOutboundMeta(userID, TypeLevelUp),
		OldLevel:     oldLevel,
		NewLevel:     newLevel,
		TotalPoints:  totalPoints,
	}
}

func (e *LevelUp) Topic() string     { return TopicLevelUpEvents }
func (e *LevelUp) EventType() string { return TypeLevelUp }

// QuestCompleted reports a challenge whose progress crossed its target.
type QuestCompleted struct {
	OutboundMeta
	ChallengeID  string `json:"challengeId"`
	ChallengeKey string `json:"challengeKey"`
	RewardPoints int64  `json:"rewardPoints"`
}

func NewQuestCompleted(userID int64, challengeID, challengeKey string, rewardPoints int64) *QuestCompleted {
	return &QuestCompleted{
		OutboundMeta: newOutboundMeta(userID, TypeQuestCompleted),
		ChallengeID:  challengeID,
		ChallengeKey: challengeKey,
		RewardPoints: rewardPoints,
	}
}

func (e *QuestCompleted) Topic() string     { return TopicQuestEvents }
func (e *QuestCompleted) EventType() string { return TypeQuestCompleted }

// QuestExpired reports a challenge that timed out before reaching its target.
type QuestExpired struct {
	OutboundMeta
	ChallengeID  string `json:"challengeId"`
	ChallengeKey string `json:"challengeKey"`
	Progress     int64  `json:"progress"`
	Target       int64  `json:"target"`
}

func NewQuestExpired(userID int64, challengeID, challengeKey string, progress, target int64) *QuestExpired {
	return &QuestExpired{
		OutboundMeta: newOutboundMeta(userID, TypeQuestExpired),
		ChallengeID:  challengeID,
		ChallengeKey: challengeKey,
		Progress:     progress,
		Target:       target,
	}
}

func (e *QuestExpired) Topic() string     { return TopicQuestEvents }
func (e *QuestExpired) EventType() string { return TypeQuestExpired }

// StreakExtended reports a streak counter that advanced by one period.
type StreakExtended struct {
	OutboundMeta
	StreakType string `json:"streakType"`
	Current    int    `json:"current"`
	Longest    int    `json:"longest"`
}

func NewStreakExtended(userID int64, streakType string, current, longest int) *StreakExtended {
	return &StreakExtended{
		OutboundMeta: newOutboundMeta(userID, TypeStreakExtended),
		StreakType:   streakType,
		Current:      current,
		Longest:      longest,
	}
}

func (e *StreakExtended) Topic() string     { return TopicGamificationEvents }
func (e *StreakExtended) EventType() string { return TypeStreakExtended }

// StreakReset reports a streak broken by a period without qualifying activity.
type StreakReset struct {
	OutboundMeta
	StreakType string `json:"streakType"`
	Previous   int    `json:"previous"`
}

func NewStreakReset(userID int64, streakType string, previous int) *StreakReset {
	return &StreakReset{
		OutboundMeta: newOutboundMeta(userID, TypeStreakReset),
		StreakType:   streakType,
		Previous:     previous,
	}
}

func (e *StreakReset) Topic() string     { return TopicGamificationEvents }
func (e *StreakReset) EventType() string { return TypeStreakReset }

// LeaderboardEntry is one row of a leaderboard snapshot.
type LeaderboardEntry struct {
	Rank   int   `json:"rank"`
	UserID int64 `json:"userId"`
	Points int64 `json:"points"`
	Level  int   `json:"level"`
}

// LeaderboardUpdated reports a recomputed leaderboard snapshot.
type LeaderboardUpdated struct {
	OutboundMeta
	Period  string             `json:"period"`
	Entries []LeaderboardEntry `json:"entries"`
}

func NewLeaderboardUpdated(period string, entries []LeaderboardEntry) *LeaderboardUpdated {
	return &LeaderboardUpdated{
		// Leaderboard snapshots are not user-scoped; userId stays zero and the
		// transport key falls back to the event id.
		OutboundMeta: newOutboundMeta(0, TypeLeaderboardUpdated),
		Period:       period,
		Entries:      entries,
	}
}

func (e *LeaderboardUpdated) Topic() string     { return TopicLeaderboardEvents }
func (e *LeaderboardUpdated) EventType() string { return TypeLeaderboardUpdated }
