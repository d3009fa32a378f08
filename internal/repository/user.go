package repository

import (
	"context"

	"hirocks/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for user profiles.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	CreateIfMissing(ctx context.Context, user *models.User) (bool, error)
	UpsertProfile(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateIfMissing inserts user unless a profile with the same ID exists and
// reports whether a row was created.
func (r *userRepository) CreateIfMissing(ctx context.Context, user *models.User) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(user)
	return res.RowsAffected > 0, res.Error
}

// UpsertProfile inserts the profile or overwrites its editable fields.
func (r *userRepository) UpsertProfile(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"nickname", "bio", "avatar_url", "updated_at"}),
		}).
		Create(user).Error
}
