package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/library/internal/models"
	"github.com/Skotchmaster/library/internal/repo"
)

// ReportService exposes the read-only queries the reminder and report
// jobs need. It renders and sends nothing itself.
type ReportService struct {
	Repo *repo.GormRepo
	Now  func() time.Time
}

type LoanLine struct {
	BookName    string
	Author      string
	SectionName string
	IssuedDate  time.Time
	ExpiryDate  time.Time
	ReturnDate  *time.Time
	Overdue     bool
}

type UserReport struct {
	User        models.User
	Loans       []LoanLine
	GeneratedAt time.Time
}

func (s *ReportService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *ReportService) InactiveUsersSince(ctx context.Context, cutoff time.Time) ([]models.User, error) {
	users, err := s.Repo.InactiveUsersSince(ctx, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("inactive users: %w", err)
	}
	return users, nil
}

func (s *ReportService) MarkReminderSent(ctx context.Context, userID uint) error {
	return s.Repo.MarkReminderSent(ctx, userID, s.now())
}

// ActiveUsersWithLoans returns one report per active non-admin user who
// has at least one loan.
func (s *ReportService) ActiveUsersWithLoans(ctx context.Context) ([]UserReport, error) {
	users, err := s.Repo.ActiveUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("active users: %w", err)
	}

	now := s.now()
	var out []UserReport
	for _, u := range users {
		if u.RoleID == models.RoleAdmin {
			continue
		}
		loans, err := s.Repo.ListUserLoans(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("loans for user %d: %w", u.ID, err)
		}
		if len(loans) == 0 {
			continue
		}
		lines := make([]LoanLine, 0, len(loans))
		for _, l := range loans {
			lines = append(lines, LoanLine{
				BookName:    l.Book.Name,
				Author:      l.Book.Author,
				SectionName: l.Book.Section.Name,
				IssuedDate:  l.IssuedDate,
				ExpiryDate:  l.ExpiryDate,
				ReturnDate:  l.ReturnDate,
				Overdue:     l.Overdue(now),
			})
		}
		out = append(out, UserReport{User: u, Loans: lines, GeneratedAt: now})
	}
	return out, nil
}
