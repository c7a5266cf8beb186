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

// ShiftStore is the shift surface used by the maintenance jobs.
type ShiftStore interface {
	ListInProgress(ctx context.Context) ([]models.Shift, error)
	UpdateAggregates(ctx context.Context, id primitive.ObjectID, approved, rejected int64) error
	ArchiveCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ShiftRepository is the MongoDB-backed ShiftStore.
type ShiftRepository struct {
	collection *mongo.Collection
}

func NewShiftRepository(db *mongo.Client) *ShiftRepository {
	return &ShiftRepository{
		collection: config.GetCollection(db, "shifts"),
	}
}

func (r *ShiftRepository) ListInProgress(ctx context.Context) ([]models.Shift, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"status": models.ShiftStatusInProgress})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var shifts []models.Shift
	if err := cursor.All(ctx, &shifts); err != nil {
		return nil, err
	}
	return shifts, nil
}

func (r *ShiftRepository) UpdateAggregates(ctx context.Context, id primitive.ObjectID, approved, rejected int64) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"testsApproved": approved,
			"testsRejected": rejected,
			"updatedAt":     time.Now(),
		}},
	)
	return err
}

// ArchiveCompletedBefore moves completed shifts from days before the
// cutoff into the archived state.
func (r *ShiftRepository) ArchiveCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	now := time.Now()
	result, err := r.collection.UpdateMany(ctx,
		bson.M{
			"status":    models.ShiftStatusCompleted,
			"shiftDate": bson.M{"$lt": cutoff},
		},
		bson.M{"$set": bson.M{
			"status":     models.ShiftStatusArchived,
			"archivedAt": now,
			"updatedAt":  now,
		}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}
