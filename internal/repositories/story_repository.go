package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/sonakanda/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StoryRepository defines the interface for story operations. Active
// listings take the evaluation instant explicitly so every story in one
// response is judged against the same now.
type StoryRepository interface {
	CreateStory(ctx context.Context, story *models.Story) error
	GetStoryByID(ctx context.Context, id string) (*models.Story, error)
	GetActiveStories(ctx context.Context, now time.Time) ([]models.Story, error)
	DeleteExpiredStories(ctx context.Context, now time.Time) (int64, error)
}

// MongoStoryRepository implements StoryRepository for MongoDB.
type MongoStoryRepository struct {
	collection *mongo.Collection
}

// NewMongoStoryRepository creates a new MongoStoryRepository.
func NewMongoStoryRepository(db *mongo.Database) *MongoStoryRepository {
	return &MongoStoryRepository{collection: db.Collection("stories")}
}

// CreateStory inserts a fully constructed story document.
func (r *MongoStoryRepository) CreateStory(ctx context.Context, story *models.Story) error {
	_, err := r.collection.InsertOne(ctx, story)
	return err
}

// GetStoryByID retrieves a story by ID, expired or not.
func (r *MongoStoryRepository) GetStoryByID(ctx context.Context, id string) (*models.Story, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var story models.Story
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&story)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &story, nil
}

// GetActiveStories returns the stories with expires_at after now, newest
// first. The filter runs at read time, so expired entries never surface
// even before a purge sweep removes them.
func (r *MongoStoryRepository) GetActiveStories(ctx context.Context, now time.Time) ([]models.Story, error) {
	filter := bson.M{"expires_at": bson.M{"$gt": now}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stories := []models.Story{}
	if err = cursor.All(ctx, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

// DeleteExpiredStories physically removes stories whose expiry has
// passed. Space reclamation only; visibility is enforced by the read
// filter above.
func (r *MongoStoryRepository) DeleteExpiredStories(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
