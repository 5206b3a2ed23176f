package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Muscledia/gamification-service/internal/platform/mongo"
)

const usersCollection = "user_states"

// ErrVersionConflict signals a concurrent writer beat this one to the same
// document. Classified transient: the event is retried and re-reads fresh
// state.
var ErrVersionConflict = errors.New("user state version conflict")

// UserRepository persists per-user gamification profiles with optimistic
// versioning.
type UserRepository interface {
	// Get loads the profile, or a fresh zero-version profile for new users.
	Get(ctx context.Context, userID int64) (*UserState, error)

	// Save writes the profile conditioned on the version it was loaded
	// with. Returns ErrVersionConflict when a concurrent writer won.
	Save(ctx context.Context, state *UserState) error

	// TopByPoints returns the highest-scoring profiles for leaderboard
	// snapshots.
	TopByPoints(ctx context.Context, limit int64) ([]UserState, error)

	// StreakHolders pages through users holding a live streak of the given
	// type, ordered by user id for restart-safe iteration.
	StreakHolders(ctx context.Context, streakType string, afterUserID int64, limit int64) ([]UserState, error)
}

type userRepository struct {
	collection mongo.Collection

	now func() time.Time
}

func NewUserRepository(m mongo.Mongo) UserRepository {
	return &userRepository{
		collection: m.GetCollection(usersCollection),
		now:        time.Now,
	}
}

func (r *userRepository) Get(ctx context.Context, userID int64) (*UserState, error) {
	var state UserState
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&state)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return &UserState{
			UserID:    userID,
			Level:     1,
			Streaks:   make(map[string]*Streak),
			CreatedAt: r.now(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user state: %w", err)
	}
	return &state, nil
}

func (r *userRepository) Save(ctx context.Context, state *UserState) error {
	loadedVersion := state.Version
	state.Version++
	state.UpdatedAt = r.now()

	if loadedVersion == 0 {
		_, err := r.collection.InsertOne(ctx, state)
		if mongodriver.IsDuplicateKeyError(err) {
			return ErrVersionConflict
		}
		if err != nil {
			return fmt.Errorf("failed to insert user state: %w", err)
		}
		return nil
	}

	result, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": state.UserID, "version": loadedVersion}, state)
	if err != nil {
		return fmt.Errorf("failed to save user state: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *userRepository) TopByPoints(ctx context.Context, limit int64) ([]UserState, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "totalPoints", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"totalPoints": bson.M{"$gt": 0}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer cursor.Close(ctx)

	var states []UserState
	if err := cursor.All(ctx, &states); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard: %w", err)
	}
	return states, nil
}

func (r *userRepository) StreakHolders(ctx context.Context, streakType string, afterUserID int64, limit int64) ([]UserState, error) {
	filter := bson.M{
		"_id": bson.M{"$gt": afterUserID},
		fmt.Sprintf("streaks.%s.current", streakType): bson.M{"$gt": 0},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query streak holders: %w", err)
	}
	defer cursor.Close(ctx)

	var states []UserState
	if err := cursor.All(ctx, &states); err != nil {
		return nil, fmt.Errorf("failed to decode streak holders: %w", err)
	}
	return states, nil
}
