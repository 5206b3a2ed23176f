package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/Muscledia/gamification-service/internal/platform/mongo"
)

const collectionName = "outbox"

var (
	// errNoEntries signals an empty poll, not a failure.
	errNoEntries = errors.New("no publishable outbox entries")

	// ErrNotDeadLetter is returned by Replay for entries that are missing or
	// not in DEAD_LETTER status.
	ErrNotDeadLetter = errors.New("outbox entry is not a dead letter")
)

// Store persists outbox entries and advances their lifecycle.
type Store interface {
	// Create stages an entry. Call it with a session context so the insert
	// joins the business mutation's transaction.
	Create(ctx context.Context, entry *Entry) error

	// FetchAndLock claims one publishable entry for this relay instance.
	// The claim is a conditional update, so concurrent replicas never
	// receive the same entry while the lock is live. Claiming consumes an
	// attempt. Returns errNoEntries when nothing is due.
	FetchAndLock(ctx context.Context) (*Entry, error)

	MarkPublished(ctx context.Context, ids []string) error
	MarkFailed(ctx context.Context, id string, attemptCount int32, cause string) error
	MarkDeadLetter(ctx context.Context, id string, cause string) error

	// SweepExhausted dead-letters entries stuck in PENDING or FAILED with a
	// spent attempt budget. A crash between the final claim and its
	// settlement leaves such entries behind; the claim filter skips them, so
	// without the sweep they would never surface on any operator surface.
	SweepExhausted(ctx context.Context) (int64, error)

	CountByStatus(ctx context.Context) (map[string]int64, error)
	ListDeadLetters(ctx context.Context, limit int64) ([]Entry, error)

	// Replay requeues a dead letter: status back to PENDING with a fresh
	// attempt budget. Only DEAD_LETTER entries are eligible.
	Replay(ctx context.Context, id string) error
}

type store struct {
	collection mongo.Collection
	conf       Config
	log        *zap.Logger

	now func() time.Time
}

func newStore(m mongo.Mongo, conf Config, log *zap.Logger) Store {
	return &store{
		collection: m.GetCollection(collectionName),
		conf:       conf,
		log:        log.With(zap.String("component", "outbox-store")),
		now:        time.Now,
	}
}

func (s *store) Create(ctx context.Context, entry *Entry) error {
	if _, err := s.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to stage outbox entry: %w", err)
	}
	return nil
}

func (s *store) FetchAndLock(ctx context.Context) (*Entry, error) {
	now := s.now()

	filter := bson.M{
		"status":       bson.M{"$in": []string{StatusPending, StatusFailed}},
		"attemptCount": bson.M{"$lt": s.conf.MaxAttempts},
		"$and": []bson.M{
			{"$or": []bson.M{
				{"nextRetryAt": nil},
				{"nextRetryAt": bson.M{"$lte": now}},
			}},
			{"$or": []bson.M{
				{"lockExpiresAt": bson.M{"$exists": false}},
				{"lockExpiresAt": bson.M{"$lt": now}},
			}},
		},
	}

	update := bson.M{
		"$set": bson.M{"lockExpiresAt": now.Add(s.conf.LockTTL)},
		"$inc": bson.M{"attemptCount": 1},
	}

	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "nextRetryAt", Value: 1}, {Key: "createdAt", Value: 1}}).
		SetReturnDocument(options.After)

	var entry Entry
	err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&entry)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return nil, errNoEntries
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim outbox entry: %w", err)
	}
	return &entry, nil
}

func (s *store) MarkPublished(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	filter := bson.M{"_id": bson.M{"$in": ids}}
	update := bson.M{
		"$set":   bson.M{"status": StatusPublished, "publishedAt": s.now()},
		"$unset": bson.M{"lockExpiresAt": "", "nextRetryAt": "", "lastError": ""},
	}

	if _, err := s.collection.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to mark outbox entries published: %w", err)
	}
	return nil
}

// MarkFailed schedules the next attempt. attemptCount is the count after the
// failed attempt, so the delay grows strictly with each failure up to the cap.
func (s *store) MarkFailed(ctx context.Context, id string, attemptCount int32, cause string) error {
	nextRetryAt := s.now().Add(retryBackoff(attemptCount, s.conf.InitialBackoff, s.conf.MaxBackoff))

	update := bson.M{
		"$set": bson.M{
			"status":      StatusFailed,
			"nextRetryAt": nextRetryAt,
			"lastError":   cause,
		},
		"$unset": bson.M{"lockExpiresAt": ""},
	}

	if _, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("failed to mark outbox entry failed: %w", err)
	}
	return nil
}

func (s *store) MarkDeadLetter(ctx context.Context, id string, cause string) error {
	update := bson.M{
		"$set": bson.M{
			"status":    StatusDeadLetter,
			"lastError": cause,
		},
		"$unset": bson.M{"lockExpiresAt": "", "nextRetryAt": ""},
	}

	if _, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("failed to mark outbox entry dead-lettered: %w", err)
	}

	s.log.Warn("outbox entry dead-lettered",
		zap.String("entry-id", id),
		zap.String("cause", cause),
	)
	return nil
}

func (s *store) SweepExhausted(ctx context.Context) (int64, error) {
	now := s.now()

	filter := bson.M{
		"status":       bson.M{"$in": []string{StatusPending, StatusFailed}},
		"attemptCount": bson.M{"$gte": s.conf.MaxAttempts},
		"$or": []bson.M{
			{"lockExpiresAt": bson.M{"$exists": false}},
			{"lockExpiresAt": bson.M{"$lt": now}},
		},
	}

	// lastError keeps whatever cause the last settled failure recorded.
	update := bson.M{
		"$set":   bson.M{"status": StatusDeadLetter},
		"$unset": bson.M{"lockExpiresAt": "", "nextRetryAt": ""},
	}

	result, err := s.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep exhausted outbox entries: %w", err)
	}
	if result.ModifiedCount > 0 {
		s.log.Warn("dead-lettered outbox entries with spent attempt budget",
			zap.Int64("count", result.ModifiedCount),
		)
	}
	return result.ModifiedCount, nil
}

func (s *store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count outbox entries: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode outbox counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (s *store) ListDeadLetters(ctx context.Context, limit int64) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, bson.M{"status": StatusDeadLetter}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode dead letters: %w", err)
	}
	return entries, nil
}

func (s *store) Replay(ctx context.Context, id string) error {
	filter := bson.M{"_id": id, "status": StatusDeadLetter}
	update := bson.M{
		"$set":   bson.M{"status": StatusPending, "attemptCount": int32(0)},
		"$unset": bson.M{"nextRetryAt": "", "lockExpiresAt": "", "lastError": ""},
	}

	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to replay outbox entry: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotDeadLetter
	}

	s.log.Info("dead letter requeued", zap.String("entry-id", id))
	return nil
}
