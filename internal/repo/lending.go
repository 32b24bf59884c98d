package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/library/internal/models"
	"github.com/Skotchmaster/library/internal/util"
)

func (r *GormRepo) GetBook(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	if err := r.DB.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *GormRepo) CreateSection(ctx context.Context, s *models.Section) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) CreateBook(ctx context.Context, b *models.Book) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

func (r *GormRepo) HasPendingRequest(ctx context.Context, userID, bookID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.BookRequest{}).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, models.RequestPending).
		Count(&count).Error
	return count > 0, err
}

func (r *GormRepo) CreateRequest(ctx context.Context, req *models.BookRequest) error {
	return r.DB.WithContext(ctx).Create(req).Error
}

// GetRequestForUpdate loads a request, row-locked on postgres.
func (r *GormRepo) GetRequestForUpdate(ctx context.Context, id uint) (*models.BookRequest, error) {
	var req models.BookRequest
	if err := r.forUpdate().WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// TransitionRequest moves a request from one status to another. It
// reports false when the row was no longer in the from state.
func (r *GormRepo) TransitionRequest(ctx context.Context, id uint, from, to models.RequestStatus) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.BookRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) HasActiveLoan(ctx context.Context, userID, bookID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Loan{}).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, models.LoanIssued).
		Count(&count).Error
	return count > 0, err
}

func (r *GormRepo) CreateLoan(ctx context.Context, loan *models.Loan) error {
	return r.DB.WithContext(ctx).Create(loan).Error
}

func (r *GormRepo) FindActiveLoanForUpdate(ctx context.Context, userID, bookID uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.forUpdate().WithContext(ctx).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, models.LoanIssued).
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// FindLatestLoan returns the newest loan for the pair in any status.
func (r *GormRepo) FindLatestLoan(ctx context.Context, userID, bookID uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Order("issued_date DESC, id DESC").
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *GormRepo) MarkLoanReturned(ctx context.Context, loanID uint, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Loan{}).
		Where("id = ? AND status = ?", loanID, models.LoanIssued).
		Updates(map[string]any{"status": models.LoanReturned, "return_date": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) DeleteLoan(ctx context.Context, loanID uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Loan{}, loanID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) LoanExists(ctx context.Context, userID, bookID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Loan{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormRepo) ListRequestsByStatus(ctx context.Context, status models.RequestStatus, page util.Page) ([]models.BookRequest, error) {
	var out []models.BookRequest
	q := r.DB.WithContext(ctx).
		Preload("Book").
		Where("status = ?", status).
		Order("request_date ASC, id ASC")
	if page.Limit > 0 {
		q = q.Offset(page.Offset).Limit(page.Limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *GormRepo) ListUserRequests(ctx context.Context, userID uint) ([]models.BookRequest, error) {
	var out []models.BookRequest
	err := r.DB.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("request_date DESC, id DESC").
		Find(&out).Error
	return out, err
}

type statusCount struct {
	Status models.RequestStatus
	Count  int64
}

func (r *GormRepo) RequestStatusCounts(ctx context.Context) (map[models.RequestStatus]int64, error) {
	var rows []statusCount
	err := r.DB.WithContext(ctx).Model(&models.BookRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.RequestStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

// ListUserLoans returns every loan of a user with book and section loaded.
func (r *GormRepo) ListUserLoans(ctx context.Context, userID uint) ([]models.Loan, error) {
	var out []models.Loan
	err := r.DB.WithContext(ctx).
		Preload("Book.Section").
		Where("user_id = ?", userID).
		Order("issued_date DESC, id DESC").
		Find(&out).Error
	return out, err
}
