package models

import "time"

const (
	RoleAdmin     = "admin"
	RoleLibrarian = "librarian"
	RoleUser      = "user"
)

type RequestStatus string

const (
	RequestPending RequestStatus = "pending"
	RequestIssued  RequestStatus = "issued"
	RequestDenied  RequestStatus = "denied"
)

type LoanStatus string

const (
	LoanIssued   LoanStatus = "issued"
	LoanReturned LoanStatus = "returned"
)

type Role struct {
	ID          string `gorm:"primaryKey"  json:"id"`
	Name        string `gorm:"not null"    json:"name"`
	Description string `                   json:"description"`
}

// SeedRoles is the fixed role set. Keys never change after seeding.
func SeedRoles() []Role {
	return []Role{
		{ID: RoleAdmin, Name: "admin", Description: "Administrator"},
		{ID: RoleLibrarian, Name: "librarian", Description: "Librarian"},
		{ID: RoleUser, Name: "user", Description: "Library member"},
	}
}

type User struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username         string    `gorm:"uniqueIndex;not null"     json:"username"`
	Email            string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash     string    `gorm:"not null"                 json:"-"`
	RoleID           string    `gorm:"not null;index"           json:"role_id"`
	Role             Role      `gorm:"foreignKey:RoleID"        json:"-"`
	Active           bool      `gorm:"not null;default:true"    json:"active"`
	ConfirmedAt      time.Time `gorm:"not null"                 json:"confirmed_at"`
	LastLoggedIn     time.Time `gorm:"not null;index"           json:"last_logged_in"`
	LastReminderSent time.Time `gorm:"not null"                 json:"last_reminder_sent"`

	BookRequests []BookRequest `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Loans        []Loan        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// RevokedToken is a denylist entry keyed by jti. Append-only.
type RevokedToken struct {
	ID        uint      `gorm:"primaryKey"          json:"id"`
	JTI       string    `gorm:"uniqueIndex;not null" json:"jti"`
	Kind      string    `gorm:"not null"            json:"kind"`
	ExpiresAt time.Time `gorm:"not null;index"      json:"expires_at"`
	CreatedAt time.Time `                           json:"created_at"`
}

type Section struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null"                 json:"section_name"`
	Description string    `                                json:"description"`
	CreatedAt   time.Time `                                json:"date_created"`

	Books []Book `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Book struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"book_id"`
	Name      string  `gorm:"not null"                 json:"book_name"`
	Author    string  `gorm:"not null"                 json:"author"`
	Path      string  `gorm:"not null"                 json:"path"`
	SectionID uint    `gorm:"not null;index"           json:"section_id"`
	Section   Section `gorm:"foreignKey:SectionID"     json:"-"`

	Loans        []Loan        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	BookRequests []BookRequest `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// BookRequest is the record of why a loan exists. At most one pending
// request per (user, book).
type BookRequest struct {
	ID          uint          `gorm:"primaryKey;autoIncrement"                                          json:"id"`
	UserID      uint          `gorm:"not null;uniqueIndex:idx_requests_pending,where:status = 'pending'" json:"user_id"`
	BookID      uint          `gorm:"not null;uniqueIndex:idx_requests_pending,where:status = 'pending'" json:"book_id"`
	RequestDate time.Time     `gorm:"not null"                                                          json:"request_date"`
	Status      RequestStatus `gorm:"not null;default:pending;index"                                    json:"status"`

	Book Book `gorm:"foreignKey:BookID" json:"-"`
}

// Loan is the lending record (UserBook). At most one issued loan per
// (user, book); returned loans stay as history.
type Loan struct {
	ID         uint       `gorm:"primaryKey;autoIncrement"                                       json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_loans_active,where:status = 'issued'"  json:"user_id"`
	BookID     uint       `gorm:"not null;uniqueIndex:idx_loans_active,where:status = 'issued'"  json:"book_id"`
	RequestID  *uint      `gorm:"index"                                                          json:"request_id,omitempty"`
	IssuedDate time.Time  `gorm:"not null"                                                       json:"issued_date"`
	ExpiryDate time.Time  `gorm:"not null;index"                                                 json:"expiry_date"`
	ReturnDate *time.Time `                                                                      json:"return_date"`
	Status     LoanStatus `gorm:"not null;default:issued;index"                                  json:"status"`

	Book Book `gorm:"foreignKey:BookID" json:"-"`
}

// Overdue is derived, never stored.
func (l Loan) Overdue(now time.Time) bool {
	return l.Status == LoanIssued && now.After(l.ExpiryDate)
}

type Feedback struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"feedback_id"`
	UserID        uint      `gorm:"not null;index:idx_feedback_pair" json:"user_id"`
	BookID        uint      `gorm:"not null;index:idx_feedback_pair" json:"book_id"`
	Rating        int       `gorm:"not null"                 json:"rating"`
	Comments      string    `gorm:"not null"                 json:"comments"`
	DateSubmitted time.Time `gorm:"not null"                 json:"date_submitted"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Book Book `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Feedback) TableName() string { return "feedback" }

// All lists every table in migration order.
func All() []any {
	return []any{
		&Role{}, &User{}, &RevokedToken{}, &Section{}, &Book{},
		&BookRequest{}, &Loan{}, &Feedback{},
	}
}
