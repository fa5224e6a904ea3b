package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoryTTL is how long a story stays visible after creation.
const StoryTTL = 24 * time.Hour

// Story represents an ephemeral single-image story stored in MongoDB.
// A story is active while now < ExpiresAt; expired stories are filtered
// out of every listing regardless of when the purge sweep last ran.
type Story struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string             `json:"user_id" bson:"user_id"`
	Image     string             `json:"image" bson:"image"` // blob reference
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time          `json:"expires_at" bson:"expires_at"`
}

// Active reports whether the story is still visible at the given instant.
func (s *Story) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// CreateStoryRequest defines the JSON request body for creating a story
// with a pre-resolved image reference.
type CreateStoryRequest struct {
	Image string `json:"image" validate:"required"`
}
