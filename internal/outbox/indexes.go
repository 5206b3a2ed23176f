package outbox

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Muscledia/gamification-service/internal/platform/mongo"
)

// ensureIndexes creates the claim index, the dead-letter listing index and
// the TTL index that prunes PUBLISHED entries. publishedAt is only set on
// published entries, so the TTL index never touches pending work.
func ensureIndexes(ctx context.Context, m mongo.Mongo, conf Config) error {
	indexes := []mongodriver.IndexModel{
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "nextRetryAt", Value: 1},
				{Key: "createdAt", Value: 1},
			},
			Options: options.Index().SetName("claim_order"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("status_recency"),
		},
		{
			Keys: bson.D{{Key: "publishedAt", Value: 1}},
			Options: options.Index().
				SetName("published_ttl").
				SetExpireAfterSeconds(int32(conf.PublishedRetention.Seconds())),
		},
	}

	if _, err := m.GetCollection(collectionName).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create outbox indexes: %w", err)
	}
	return nil
}
