package repositories

import (
	"errors"

	"github.com/sonakanda/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository is the user directory the feed core reads through when
// denormalizing author summaries. The core never writes user data on the
// feed path; CreateUser exists only for the directory's own surface.
type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByUserID(userID string) (*models.User, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL.
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository.
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser registers a directory profile.
func (r *PostgresUserRepository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

// GetUserByUserID retrieves a profile by its opaque user id.
func (r *PostgresUserRepository) GetUserByUserID(userID string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
