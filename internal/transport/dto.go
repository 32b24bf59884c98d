package transport

import "time"

const DateLayout = "2006-01-02"

type MessageResponse struct {
	Message string `json:"message"`
}

type StatusMessage struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type LoginResponse struct {
	Message string    `json:"message"`
	Tokens  TokenPair `json:"tokens"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type WhoAmIResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	RoleID   string `json:"role_id"`
}

type PendingRequestItem struct {
	ID     uint   `json:"id"`
	UserID uint   `json:"user_id"`
	BookID uint   `json:"book_id"`
	Status string `json:"status"`
}

type MyRequestItem struct {
	BookName string `json:"book_name"`
	Status   string `json:"status"`
}

type StatusCountsResponse struct {
	IssuedCount  int64 `json:"issued_count"`
	DeniedCount  int64 `json:"denied_count"`
	PendingCount int64 `json:"pending_count"`
}

type IssueBookRequest struct {
	BookID      uint `json:"book_id"`
	DaysToIssue int  `json:"days_to_issue"`
}

type IssueBookResponse struct {
	Message    string `json:"message"`
	ExpiryDate string `json:"expiry_date"`
}

type LoanItem struct {
	UserID     uint       `json:"user_id"`
	BookID     uint       `json:"book_id"`
	BookName   string     `json:"book_name"`
	IssuedDate time.Time  `json:"issued_date"`
	ReturnDate *time.Time `json:"return_date"`
	ExpiryDate time.Time  `json:"expiry_date"`
	Status     string     `json:"status"`
	Overdue    bool       `json:"overdue"`
}

type FeedbackRequest struct {
	Rating   *int    `json:"rating"`
	Comments *string `json:"comments"`
}

type UserItem struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	RoleID   string `json:"role_id"`
}

type UsersResponse struct {
	Users []UserItem `json:"users"`
}

type UserResponse struct {
	User UserItem `json:"user"`
}

type LoginActivityItem struct {
	Username  string    `json:"username"`
	LoginTime time.Time `json:"login_time"`
}
