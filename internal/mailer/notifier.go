package mailer

import (
	"context"
	"encoding/json"

	"github.com/contactsbook/apiserver/internal/logging"
	"github.com/contactsbook/apiserver/internal/mq"
)

// EmailChannel is the broker channel carrying confirmation email jobs.
const EmailChannel = "emails"

// Notifier schedules a confirmation email for delivery. Implementations
// are fire-and-forget: they report nothing to the caller and log their
// own failures.
type Notifier interface {
	SendConfirmation(ctx context.Context, job Job)
}

// DirectNotifier sends the email in-process on a background goroutine.
// Used when no message broker is configured.
type DirectNotifier struct {
	mailer *Mailer
	log    logging.Logger
}

func NewDirectNotifier(mailer *Mailer, log logging.Logger) *DirectNotifier {
	return &DirectNotifier{mailer: mailer, log: log}
}

func (n *DirectNotifier) SendConfirmation(ctx context.Context, job Job) {
	go func() {
		if err := n.mailer.SendConfirmation(job); err != nil {
			n.log.Error(context.Background(), "confirmation email failed", "email", job.Email, "err", err)
		}
	}()
}

// QueueNotifier publishes the job to the message broker; a separate
// worker process consumes and delivers it.
type QueueNotifier struct {
	broker *mq.MQ
	log    logging.Logger
}

func NewQueueNotifier(broker *mq.MQ, log logging.Logger) *QueueNotifier {
	return &QueueNotifier{broker: broker, log: log}
}

func (n *QueueNotifier) SendConfirmation(ctx context.Context, job Job) {
	data, err := json.Marshal(job)
	if err != nil {
		n.log.Error(ctx, "marshal email job failed", "email", job.Email, "err", err)
		return
	}
	if _, err := n.broker.Publish(ctx, EmailChannel, data, nil); err != nil {
		n.log.Error(ctx, "publish email job failed", "email", job.Email, "err", err)
	}
}
