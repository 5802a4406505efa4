package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/yigit/unievents/internal/pkg/email"
)

// SendEmailArgs carries one rendered email
type SendEmailArgs struct {
	Message email.Message `json:"message"`
}

func (SendEmailArgs) Kind() string { return JobKindSendEmail }

// InsertOpts retries delivery a few more times than other jobs
func (SendEmailArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: SendEmailMaxAttempts}
}

// SendEmailWorker delivers queued email through the configured sender
type SendEmailWorker struct {
	river.WorkerDefaults[SendEmailArgs]
	Sender email.Sender
	Logger *slog.Logger
}

func (w *SendEmailWorker) Work(ctx context.Context, job *river.Job[SendEmailArgs]) error {
	if w.Sender == nil {
		return fmt.Errorf("email sender not configured")
	}
	if err := w.Sender.Send(ctx, job.Args.Message); err != nil {
		if w.Logger != nil {
			w.Logger.Warn("email delivery failed", "subject", job.Args.Message.Subject, "error", err)
		}
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// Inserter is the part of the River client used to enqueue jobs
type Inserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// EmailQueue is an email.Sender that enqueues messages instead of
// delivering them inline
type EmailQueue struct {
	inserter Inserter
}

// NewEmailQueue creates an EmailQueue
func NewEmailQueue(inserter Inserter) *EmailQueue {
	return &EmailQueue{inserter: inserter}
}

// Send enqueues msg for the SendEmailWorker
func (q *EmailQueue) Send(ctx context.Context, msg email.Message) error {
	if _, err := q.inserter.Insert(ctx, SendEmailArgs{Message: msg}, nil); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	return nil
}
