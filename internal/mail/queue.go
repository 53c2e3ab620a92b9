package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Recorder observes delivery outcomes.
type Recorder interface {
	RecordMail(template, status string)
}

// Queue delivers mail in the background on a gocron scheduler. Enqueue
// never waits for delivery; failures are only logged.
type Queue struct {
	scheduler gocron.Scheduler
	mailer    Mailer
	logger    *zap.Logger
	recorder  Recorder
	timeout   time.Duration
}

// NewQueue creates a stopped queue. Call Start before enqueuing.
func NewQueue(mailer Mailer, logger *zap.Logger, recorder Recorder) (*Queue, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Queue{
		scheduler: scheduler,
		mailer:    mailer,
		logger:    logger,
		recorder:  recorder,
		timeout:   30 * time.Second,
	}, nil
}

// Start begins running scheduled jobs.
func (q *Queue) Start() {
	q.scheduler.Start()
}

// Shutdown stops the scheduler and waits for running jobs.
func (q *Queue) Shutdown() error {
	return q.scheduler.Shutdown()
}

// Enqueue schedules msg for delivery after delay.
func (q *Queue) Enqueue(_ context.Context, msg Message, delay time.Duration) error {
	start := gocron.OneTimeJobStartImmediately()
	if delay > 0 {
		start = gocron.OneTimeJobStartDateTime(time.Now().Add(delay))
	}

	_, err := q.scheduler.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(q.deliver, msg),
		gocron.WithName("mail:"+msg.Template),
		gocron.WithTags("mail", msg.Template),
	)
	if err != nil {
		return fmt.Errorf("schedule %s mail: %w", msg.Template, err)
	}
	q.logger.Debug("mail queued",
		zap.String("template", msg.Template),
		zap.String("to", msg.To),
		zap.Duration("delay", delay))
	return nil
}

func (q *Queue) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	if err := q.mailer.Send(ctx, msg); err != nil {
		q.logger.Error("mail delivery failed",
			zap.String("template", msg.Template),
			zap.String("to", msg.To),
			zap.Error(err))
		q.record(msg.Template, "failed")
		return
	}
	q.record(msg.Template, "sent")
}

func (q *Queue) record(template, status string) {
	if q.recorder != nil {
		q.recorder.RecordMail(template, status)
	}
}
