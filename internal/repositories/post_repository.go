package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sonakanda/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations. Like
// toggling and comment appending are read-modify-write sequences that
// every implementation must serialize per post id.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetAllPosts(ctx context.Context) ([]models.Post, error)
	ToggleLike(ctx context.Context, postID, userID string, now time.Time) (*models.Post, error)
	AddComment(ctx context.Context, postID string, comment models.Comment) (*models.Post, error)
}

// MongoPostRepository implements PostRepository for MongoDB. Likes and
// comments live inside the post document, so single-document atomic
// update operators give the required per-post serialization.
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository.
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost inserts a fully constructed post document.
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID.
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetAllPosts retrieves every post ordered by creation time descending.
func (r *MongoPostRepository) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ToggleLike flips userID's membership in the post's like set. The pull
// branch only matches when the like is present; otherwise $addToSet adds
// it without ever duplicating, so two concurrent toggles from different
// users cannot overwrite each other.
func (r *MongoPostRepository) ToggleLike(ctx context.Context, postID, userID string, now time.Time) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, ErrNotFound
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "likes": userID},
		bson.M{"$pull": bson.M{"likes": userID}, "$set": bson.M{"updated_at": now}},
	)
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}
	if res.MatchedCount == 0 {
		res, err = r.collection.UpdateOne(ctx,
			bson.M{"_id": objID},
			bson.M{"$addToSet": bson.M{"likes": userID}, "$set": bson.M{"updated_at": now}},
		)
		if err != nil {
			return nil, fmt.Errorf("toggle like: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, ErrNotFound
		}
	}
	return r.GetPostByID(ctx, postID)
}

// AddComment appends a comment to the post's comment sequence.
func (r *MongoPostRepository) AddComment(ctx context.Context, postID string, comment models.Comment) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, ErrNotFound
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$push": bson.M{"comments": comment}, "$set": bson.M{"updated_at": comment.CreatedAt}},
	)
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return r.GetPostByID(ctx, postID)
}
