package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sistema-zara/zara-backend/config"
	"github.com/sistema-zara/zara-backend/models"
)

// NotificationStore owns all notification writes. No other component
// touches the notifications collection directly.
type NotificationStore interface {
	InsertMany(ctx context.Context, notifications []*models.Notification) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, filter models.NotificationFilter, page models.Pagination) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, id primitive.ObjectID, readAt time.Time) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID, readAt time.Time) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ExistsRecentForMachine(ctx context.Context, machineID primitive.ObjectID, notifType string, since time.Time) (bool, error)
}

// NotificationRepository is the MongoDB-backed NotificationStore.
type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Client) *NotificationRepository {
	return &NotificationRepository{
		collection: config.GetCollection(db, "notifications"),
	}
}

func (r *NotificationRepository) InsertMany(ctx context.Context, notifications []*models.Notification) error {
	docs := make([]interface{}, 0, len(notifications))
	for _, n := range notifications {
		docs = append(docs, n)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

func (r *NotificationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var notification models.Notification
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&notification)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, filter models.NotificationFilter, page models.Pagination) ([]models.Notification, int64, error) {
	query := bson.M{"userId": userID}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	if filter.IsRead != nil {
		query["isRead"] = *filter.IsRead
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id primitive.ObjectID, readAt time.Time) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "readAt": readAt}},
	)
	return err
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID, readAt time.Time) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"userId": userID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "readAt": readAt}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *NotificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{
		"isRead":    true,
		"createdAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *NotificationRepository) ExistsRecentForMachine(ctx context.Context, machineID primitive.ObjectID, notifType string, since time.Time) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"machineId": machineID,
		"type":      notifType,
		"createdAt": bson.M{"$gte": since},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
