package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/grocer-backend/pkg/db"
	"github.com/angelmondragon/grocer-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const emailIndex = "idx_users_email"

// ErrEmailTaken is returned by Create when another account already owns the
// address. It covers the window between a lookup and the insert.
var ErrEmailTaken = errors.New("email already registered")

// Repository persists marketplace accounts. Emails are stored lower-cased and
// every lookup normalizes its input the same way.
type Repository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.Email = normalizeEmail(user.Email)
	err := r.db.WithContext(ctx).Create(user).Error
	switch {
	case err == nil:
		return user, nil
	case db.IsUniqueViolation(err, emailIndex), db.IsUniqueViolation(err, "users.email"):
		return nil, ErrEmailTaken
	default:
		return nil, err
	}
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		Take(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin stamps a successful login. Missing rows are reported as
// gorm.ErrRecordNotFound.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at.UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
