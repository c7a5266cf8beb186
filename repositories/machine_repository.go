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

// MachineStore is the machine surface used by controllers and the
// inactivity job.
type MachineStore interface {
	List(ctx context.Context) ([]models.Machine, error)
	ListActive(ctx context.Context) ([]models.Machine, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Machine, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error
}

// MachineRepository is the MongoDB-backed MachineStore.
type MachineRepository struct {
	collection *mongo.Collection
}

func NewMachineRepository(db *mongo.Client) *MachineRepository {
	return &MachineRepository{
		collection: config.GetCollection(db, "machines"),
	}
}

func (r *MachineRepository) List(ctx context.Context) ([]models.Machine, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var machines []models.Machine
	if err := cursor.All(ctx, &machines); err != nil {
		return nil, err
	}
	return machines, nil
}

func (r *MachineRepository) ListActive(ctx context.Context) ([]models.Machine, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var machines []models.Machine
	if err := cursor.All(ctx, &machines); err != nil {
		return nil, err
	}
	return machines, nil
}

func (r *MachineRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Machine, error) {
	var machine models.Machine
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&machine)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &machine, nil
}

func (r *MachineRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
	)
	return err
}
