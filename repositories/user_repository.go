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

// UserStore is the read/update surface the services need for users.
// Role resolution always filters on the active flag.
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindActiveByRoles(ctx context.Context, roles []string) ([]models.User, error)
	FindAllActive(ctx context.Context) ([]models.User, error)
	UpdateFCMToken(ctx context.Context, id primitive.ObjectID, token string) error
	UpdateNotificationPrefs(ctx context.Context, id primitive.ObjectID, prefs models.NotificationPrefs) error
	UpdateLastActivity(ctx context.Context, id primitive.ObjectID) error
}

// UserRepository is the MongoDB-backed UserStore.
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Client) *UserRepository {
	return &UserRepository{
		collection: config.GetCollection(db, "users"),
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindActiveByRoles(ctx context.Context, roles []string) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"role":     bson.M{"$in": roles},
		"isActive": true,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) FindAllActive(ctx context.Context) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) UpdateFCMToken(ctx context.Context, id primitive.ObjectID, token string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"fcmToken": token, "updatedAt": time.Now()}},
	)
	return err
}

func (r *UserRepository) UpdateNotificationPrefs(ctx context.Context, id primitive.ObjectID, prefs models.NotificationPrefs) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"notificationPrefs": prefs, "updatedAt": time.Now()}},
	)
	return err
}

func (r *UserRepository) UpdateLastActivity(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"lastActivityAt": now, "isActive": true, "updatedAt": now}},
	)
	return err
}
