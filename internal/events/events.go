package events

import (
	"context"
	"time"
)

const (
	UserRegistered    = "user_registered"
	UserLoggedIn      = "user_logged_in"
	UserLoggedOut     = "user_logged_out"
	BookRequested     = "book_requested"
	RequestApproved   = "request_approved"
	RequestDenied     = "request_denied"
	BookIssued        = "book_issued"
	BookReturned      = "book_returned"
	LoanRevoked       = "loan_revoked"
	FeedbackSubmitted = "feedback_submitted"
	FeedbackUpdated   = "feedback_updated"
)

// Event is a lending-domain notification. Key is the partition key,
// normally the username.
type Event struct {
	Type string         `json:"type"`
	Key  string         `json:"key"`
	At   time.Time      `json:"at"`
	Data map[string]any `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop drops every event. Used when KAFKA_BROKERS is empty.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.Events = append(r.Events, ev)
	return nil
}

func (r *Recorder) Types() []string {
	out := make([]string, 0, len(r.Events))
	for _, ev := range r.Events {
		out = append(out, ev.Type)
	}
	return out
}
