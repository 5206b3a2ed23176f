package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Muscledia/gamification-service/internal/events"
	"github.com/Muscledia/gamification-service/internal/platform/mongo"
)

const leaderboardsCollection = "leaderboards"

// ErrNoSnapshot is returned by Get for a period that was never snapshotted.
var ErrNoSnapshot = errors.New("no leaderboard snapshot for period")

// LeaderboardSnapshot is the cached ranking document, replaced wholesale on
// every recomputation.
type LeaderboardSnapshot struct {
	Period      string                    `bson:"_id"`
	Entries     []events.LeaderboardEntry `bson:"entries"`
	GeneratedAt time.Time                 `bson:"generatedAt"`
}

// SnapshotStore persists leaderboard snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot *LeaderboardSnapshot) error
	Get(ctx context.Context, period string) (*LeaderboardSnapshot, error)
}

type snapshotStore struct {
	collection mongo.Collection
}

func newSnapshotStore(m mongo.Mongo) SnapshotStore {
	return &snapshotStore{collection: m.GetCollection(leaderboardsCollection)}
}

func (s *snapshotStore) Save(ctx context.Context, snapshot *LeaderboardSnapshot) error {
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": snapshot.Period}, snapshot,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save leaderboard snapshot: %w", err)
	}
	return nil
}

func (s *snapshotStore) Get(ctx context.Context, period string) (*LeaderboardSnapshot, error) {
	var snapshot LeaderboardSnapshot
	err := s.collection.FindOne(ctx, bson.M{"_id": period}).Decode(&snapshot)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard snapshot: %w", err)
	}
	return &snapshot, nil
}
