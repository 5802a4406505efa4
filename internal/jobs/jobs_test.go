package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unievents/internal/pkg/email"
)

type fakeSender struct {
	sent []email.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg email.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeInserter struct {
	args []river.JobArgs
	err  error
}

func (f *fakeInserter) Insert(_ context.Context, args river.JobArgs, _ *river.InsertOpts) (*rivertype.JobInsertResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.args = append(f.args, args)
	return &rivertype.JobInsertResult{}, nil
}

type fakeCleaner struct {
	calls int
	err   error
}

func (f *fakeCleaner) CleanupExpiredTokens(context.Context) (int64, error) {
	f.calls++
	return 3, f.err
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestArgsKinds(t *testing.T) {
	assert.Equal(t, JobKindSendEmail, SendEmailArgs{}.Kind())
	assert.Equal(t, JobKindRefreshTokenCleanup, RefreshTokenCleanupArgs{}.Kind())
	assert.Equal(t, SendEmailMaxAttempts, SendEmailArgs{}.InsertOpts().MaxAttempts)
}

func TestEmailQueue_EnqueuesMessage(t *testing.T) {
	ins := &fakeInserter{}
	q := NewEmailQueue(ins)

	msg := email.Message{To: "jane@uni.edu", Subject: "Hi", HTML: "<p>x</p>"}
	require.NoError(t, q.Send(context.Background(), msg))
	require.Len(t, ins.args, 1)
	assert.Equal(t, SendEmailArgs{Message: msg}, ins.args[0])

	ins.err = errors.New("db down")
	assert.ErrorContains(t, q.Send(context.Background(), msg), "enqueue email")
}

func TestSendEmailWorker(t *testing.T) {
	sender := &fakeSender{}
	w := &SendEmailWorker{Sender: sender, Logger: quietLogger}
	job := &river.Job[SendEmailArgs]{Args: SendEmailArgs{Message: email.Message{To: "a@b.co"}}}

	require.NoError(t, w.Work(context.Background(), job))
	assert.Len(t, sender.sent, 1)

	sender.err = errors.New("smtp down")
	assert.Error(t, w.Work(context.Background(), job))

	assert.Error(t, (&SendEmailWorker{}).Work(context.Background(), job))
}

func TestRefreshTokenCleanupWorker(t *testing.T) {
	cleaner := &fakeCleaner{}
	w := &RefreshTokenCleanupWorker{Cleaner: cleaner, Logger: quietLogger}
	job := &river.Job[RefreshTokenCleanupArgs]{Args: RefreshTokenCleanupArgs{}}

	require.NoError(t, w.Work(context.Background(), job))
	assert.Equal(t, 1, cleaner.calls)

	cleaner.err = errors.New("boom")
	assert.Error(t, w.Work(context.Background(), job))

	assert.Error(t, (&RefreshTokenCleanupWorker{}).Work(context.Background(), job))
}

func TestNewClientConfig(t *testing.T) {
	cfg := NewClientConfig(NewWorkers(Dependencies{Sender: &fakeSender{}, TokenCleaner: &fakeCleaner{}}), 0, nil)
	assert.Equal(t, 5, cfg.Queues[river.QueueDefault].MaxWorkers)
	assert.Len(t, cfg.PeriodicJobs, 1)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
}
