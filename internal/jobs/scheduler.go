package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Skotchmaster/library/internal/mail"
	"github.com/Skotchmaster/library/internal/models"
	"github.com/Skotchmaster/library/internal/service"
	"github.com/Skotchmaster/library/pkg/logging"
)

const jobTimeout = 5 * time.Minute

type ReportSource interface {
	InactiveUsersSince(ctx context.Context, cutoff time.Time) ([]models.User, error)
	MarkReminderSent(ctx context.Context, userID uint) error
	ActiveUsersWithLoans(ctx context.Context) ([]service.UserReport, error)
}

type Scheduler struct {
	cron          *cron.Cron
	reports       ReportSource
	mail          mail.Sender
	inactiveAfter time.Duration
	log           *slog.Logger
	now           func() time.Time
}

func NewScheduler(reports ReportSource, sender mail.Sender, inactiveAfter time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:          cron.New(cron.WithSeconds()),
		reports:       reports,
		mail:          sender,
		inactiveAfter: inactiveAfter,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Start registers both jobs. An empty spec disables that job.
func (s *Scheduler) Start(reminderSpec, reportSpec string) error {
	if reminderSpec != "" {
		if _, err := s.cron.AddFunc(reminderSpec, s.job("reminder", s.RunReminders)); err != nil {
			return err
		}
	}
	if reportSpec != "" {
		if _, err := s.cron.AddFunc(reportSpec, s.job("monthly_report", s.RunReports)); err != nil {
			return err
		}
	}
	s.cron.Start()
	return nil
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (s *Scheduler) job(name string, run func(ctx context.Context) (int, error)) func() {
	return func() {
		l := s.log.With("job", name)
		ctx, cancel := context.WithTimeout(logging.IntoContext(context.Background(), l), jobTimeout)
		defer cancel()

		started := time.Now()
		sent, err := run(ctx)
		if err != nil {
			l.Error("job_failed", "sent", sent, "error", err, "duration_ms", time.Since(started).Milliseconds())
			return
		}
		l.Info("job_done", "sent", sent, "duration_ms", time.Since(started).Milliseconds())
	}
}

// RunReminders mails every user inactive for longer than inactiveAfter
// and stamps last_reminder_sent after each successful send.
func (s *Scheduler) RunReminders(ctx context.Context) (int, error) {
	l := logging.FromContext(ctx)
	cutoff := s.now().Add(-s.inactiveAfter)

	users, err := s.reports.InactiveUsersSince(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	var (
		sent int
		errs []error
	)
	for _, u := range users {
		if err := s.mail.Send(ctx, mail.Reminder(u)); err != nil {
			l.Warn("reminder_send_failed", "user_id", u.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		if err := s.reports.MarkReminderSent(ctx, u.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

func (s *Scheduler) RunReports(ctx context.Context) (int, error) {
	l := logging.FromContext(ctx)

	reports, err := s.reports.ActiveUsersWithLoans(ctx)
	if err != nil {
		return 0, err
	}

	var (
		sent int
		errs []error
	)
	for _, r := range reports {
		msg, err := mail.Report(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.mail.Send(ctx, msg); err != nil {
			l.Warn("report_send_failed", "user_id", r.User.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}
