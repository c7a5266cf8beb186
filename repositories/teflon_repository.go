package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sistema-zara/zara-backend/config"
	"github.com/sistema-zara/zara-backend/models"
)

// TeflonStore is the teflon-change surface used by controllers and the
// expiry job.
type TeflonStore interface {
	Insert(ctx context.Context, change *models.TeflonChange) error
	FindExpiringUnnotified(ctx context.Context, before time.Time) ([]models.TeflonChange, error)
	MarkNotificationSent(ctx context.Context, id primitive.ObjectID) error
}

// TeflonRepository is the MongoDB-backed TeflonStore.
type TeflonRepository struct {
	collection *mongo.Collection
}

func NewTeflonRepository(db *mongo.Client) *TeflonRepository {
	return &TeflonRepository{
		collection: config.GetCollection(db, "teflonChanges"),
	}
}

func (r *TeflonRepository) Insert(ctx context.Context, change *models.TeflonChange) error {
	if change.ID.IsZero() {
		change.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, change)
	return err
}

// FindExpiringUnnotified returns changes whose expiration falls before
// the lookahead cutoff and which have not been alerted yet.
func (r *TeflonRepository) FindExpiringUnnotified(ctx context.Context, before time.Time) ([]models.TeflonChange, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"expirationDate":   bson.M{"$lte": before},
		"notificationSent": false,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var changes []models.TeflonChange
	if err := cursor.All(ctx, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

func (r *TeflonRepository) MarkNotificationSent(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"notificationSent": true}},
	)
	return err
}
