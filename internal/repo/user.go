package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/library/internal/models"
	"github.com/Skotchmaster/library/internal/util"
)

var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
)

func (r *GormRepo) RoleExists(ctx context.Context, roleID string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Role{}).Where("id = ?", roleID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateUser inserts u unless the username or email is already in use.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.Transaction(ctx, func(tx *GormRepo) error {
		var count int64
		if err := tx.DB.Model(&models.User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUsernameTaken
		}
		if err := tx.DB.Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		if err := tx.DB.Create(u).Error; err != nil {
			if IsUniqueViolation(err) {
				return ErrUsernameTaken
			}
			return err
		}
		return nil
	})
}

func (r *GormRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UserExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) TouchLastLogin(ctx context.Context, userID uint, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_logged_in", at).Error
}

// InactiveUsersSince returns active users whose last login and last
// reminder are both at or before cutoff.
func (r *GormRepo) InactiveUsersSince(ctx context.Context, cutoff time.Time) ([]models.User, error) {
	var users []models.User
	err := r.DB.WithContext(ctx).
		Where("active = ? AND last_logged_in <= ? AND last_reminder_sent <= ?", true, cutoff, cutoff).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

func (r *GormRepo) MarkReminderSent(ctx context.Context, userID uint, at time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_reminder_sent", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ActiveUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.DB.WithContext(ctx).Where("active = ?", true).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *GormRepo) ListUsers(ctx context.Context, page util.Page) ([]models.User, error) {
	var users []models.User
	q := r.DB.WithContext(ctx).Order("id ASC")
	if page.Limit > 0 {
		q = q.Offset(page.Offset).Limit(page.Limit)
	}
	err := q.Find(&users).Error
	return users, err
}

// UsersLoggedInBetween returns users whose last login falls in [from, to),
// newest first.
func (r *GormRepo) UsersLoggedInBetween(ctx context.Context, from, to time.Time) ([]models.User, error) {
	var users []models.User
	err := r.DB.WithContext(ctx).
		Where("last_logged_in >= ? AND last_logged_in < ?", from, to).
		Order("last_logged_in DESC, id ASC").
		Find(&users).Error
	return users, err
}
