package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Muscledia/gamification-service/internal/platform/mongo"
)

const challengesCollection = "challenges"

// ErrChallengeConflict signals a concurrent update to the same challenge.
var ErrChallengeConflict = errors.New("challenge version conflict")

// ChallengeRepository persists quest instances.
type ChallengeRepository interface {
	ActiveByUser(ctx context.Context, userID int64, criteria string) ([]Challenge, error)

	// Save writes conditioned on the loaded version, same contract as
	// UserRepository.Save.
	Save(ctx context.Context, challenge *Challenge) error

	// ExpiredPage returns ACTIVE challenges whose deadline passed, ordered
	// by id so sweeps can page deterministically.
	ExpiredPage(ctx context.Context, deadline time.Time, afterID string, limit int64) ([]Challenge, error)
}

type challengeRepository struct {
	collection mongo.Collection

	now func() time.Time
}

func NewChallengeRepository(m mongo.Mongo) ChallengeRepository {
	return &challengeRepository{
		collection: m.GetCollection(challengesCollection),
		now:        time.Now,
	}
}

func (r *challengeRepository) ActiveByUser(ctx context.Context, userID int64, criteria string) ([]Challenge, error) {
	filter := bson.M{
		"userId":   userID,
		"criteria": criteria,
		"status":   ChallengeActive,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query active challenges: %w", err)
	}
	defer cursor.Close(ctx)

	var challenges []Challenge
	if err := cursor.All(ctx, &challenges); err != nil {
		return nil, fmt.Errorf("failed to decode challenges: %w", err)
	}
	return challenges, nil
}

func (r *challengeRepository) Save(ctx context.Context, challenge *Challenge) error {
	loadedVersion := challenge.Version
	challenge.Version++
	challenge.UpdatedAt = r.now()

	result, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": challenge.ID, "version": loadedVersion}, challenge)
	if err != nil {
		return fmt.Errorf("failed to save challenge: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrChallengeConflict
	}
	return nil
}

func (r *challengeRepository) ExpiredPage(ctx context.Context, deadline time.Time, afterID string, limit int64) ([]Challenge, error) {
	filter := bson.M{
		"_id":       bson.M{"$gt": afterID},
		"status":    ChallengeActive,
		"expiresAt": bson.M{"$lt": deadline},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired challenges: %w", err)
	}
	defer cursor.Close(ctx)

	var challenges []Challenge
	if err := cursor.All(ctx, &challenges); err != nil {
		return nil, fmt.Errorf("failed to decode challenges: %w", err)
	}
	return challenges, nil
}
