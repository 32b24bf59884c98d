package repo

import (
	"context"

	"github.com/Skotchmaster/library/internal/models"
)

func (r *GormRepo) CreateFeedback(ctx context.Context, fb *models.Feedback) error {
	return r.DB.WithContext(ctx).Create(fb).Error
}

func (r *GormRepo) ListFeedback(ctx context.Context, userID, bookID uint) ([]models.Feedback, error) {
	var out []models.Feedback
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Order("date_submitted DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *GormRepo) GetFeedback(ctx context.Context, userID, bookID, id uint) (*models.Feedback, error) {
	var fb models.Feedback
	err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ? AND book_id = ?", id, userID, bookID).
		First(&fb).Error
	if err != nil {
		return nil, err
	}
	return &fb, nil
}

func (r *GormRepo) SaveFeedback(ctx context.Context, fb *models.Feedback) error {
	return r.DB.WithContext(ctx).Save(fb).Error
}
