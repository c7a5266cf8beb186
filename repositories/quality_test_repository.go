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

// QualityTestStore is the test surface used by controllers, the report
// job and the inactivity job.
type QualityTestStore interface {
	Insert(ctx context.Context, test *models.QualityTest) error
	SummarizeBetween(ctx context.Context, from, to time.Time) (models.QualityTestSummary, error)
	SummarizeForMachineBetween(ctx context.Context, machineID primitive.ObjectID, from, to time.Time) (models.QualityTestSummary, error)
	LastTestTimes(ctx context.Context) (map[primitive.ObjectID]time.Time, error)
}

// QualityTestRepository is the MongoDB-backed QualityTestStore.
type QualityTestRepository struct {
	collection *mongo.Collection
}

func NewQualityTestRepository(db *mongo.Client) *QualityTestRepository {
	return &QualityTestRepository{
		collection: config.GetCollection(db, "qualityTests"),
	}
}

func (r *QualityTestRepository) Insert(ctx context.Context, test *models.QualityTest) error {
	if test.ID.IsZero() {
		test.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, test)
	return err
}

func (r *QualityTestRepository) SummarizeBetween(ctx context.Context, from, to time.Time) (models.QualityTestSummary, error) {
	return r.summarize(ctx, bson.M{"createdAt": bson.M{"$gte": from, "$lt": to}})
}

func (r *QualityTestRepository) SummarizeForMachineBetween(ctx context.Context, machineID primitive.ObjectID, from, to time.Time) (models.QualityTestSummary, error) {
	return r.summarize(ctx, bson.M{
		"machineId": machineID,
		"createdAt": bson.M{"$gte": from, "$lt": to},
	})
}

func (r *QualityTestRepository) summarize(ctx context.Context, match bson.M) (models.QualityTestSummary, error) {
	var summary models.QualityTestSummary

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$result", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return summary, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Result string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return summary, err
	}

	for _, row := range rows {
		switch row.Result {
		case models.TestResultApproved:
			summary.Approved = row.Count
		case models.TestResultRejected:
			summary.Rejected = row.Count
		}
		summary.Total += row.Count
	}
	return summary, nil
}

// LastTestTimes returns the most recent test timestamp per machine.
// Machines with no tests at all are absent from the map.
func (r *QualityTestRepository) LastTestTimes(ctx context.Context) (map[primitive.ObjectID]time.Time, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$machineId", "lastTest": bson.M{"$max": "$createdAt"}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		MachineID primitive.ObjectID `bson:"_id"`
		LastTest  time.Time          `bson:"lastTest"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	times := make(map[primitive.ObjectID]time.Time, len(rows))
	for _, row := range rows {
		times[row.MachineID] = row.LastTest
	}
	return times, nil
}
