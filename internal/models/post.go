package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxPostContentLength bounds the text of a post, counted in characters
// rather than bytes so multibyte scripts get the full length.
const MaxPostContentLength = 1000

// MaxPostImages bounds how many image references a single post may carry.
const MaxPostImages = 6

// Post represents a feed post stored in MongoDB. Likes and comments are
// embedded in the post document; likes hold each user id at most once and
// comments keep arrival order.
type Post struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string             `json:"user_id" bson:"user_id"` // opaque id of the author, immutable
	Content   string             `json:"content" bson:"content"`
	Images    []string           `json:"images" bson:"images"` // blob references, upload order
	Likes     []string           `json:"likes" bson:"likes"`   // user ids, set semantics
	Comments  []Comment          `json:"comments" bson:"comments"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// Comment is owned by its parent post and never referenced outside it.
type Comment struct {
	ID        primitive.ObjectID `json:"id" bson:"id"`
	UserID    string             `json:"user_id" bson:"user_id"`
	Text      string             `json:"text" bson:"text"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// HasLike reports whether userID is a member of the post's like set.
func (p *Post) HasLike(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// ToggleLike flips userID's membership in the like set and refreshes
// UpdatedAt. Callers must hold whatever serialization the store provides
// for this post.
func (p *Post) ToggleLike(userID string, now time.Time) {
	for i, id := range p.Likes {
		if id == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			p.UpdatedAt = now
			return
		}
	}
	p.Likes = append(p.Likes, userID)
	p.UpdatedAt = now
}

// AppendComment adds c to the end of the comment sequence and refreshes
// UpdatedAt.
func (p *Post) AppendComment(c Comment) {
	p.Comments = append(p.Comments, c)
	p.UpdatedAt = c.CreatedAt
}

// CreatePostRequest defines the JSON request body for creating a post with
// pre-resolved image references.
type CreatePostRequest struct {
	Content string   `json:"content" validate:"omitempty,max=1000"`
	Images  []string `json:"images,omitempty" validate:"omitempty,max=6,dive,required"`
}

// AddCommentRequest defines the request body for commenting on a post.
type AddCommentRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}
