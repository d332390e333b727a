package mailer

import (
	"context"
	"encoding/json"

	"github.com/contactsbook/apiserver/internal/logging"
	"github.com/contactsbook/apiserver/internal/mq"
)

// RunWorker consumes confirmation email jobs from the broker and
// delivers them until the context is cancelled. Malformed payloads are
// acked and dropped; send failures are nacked for redelivery.
func RunWorker(ctx context.Context, broker *mq.MQ, sender *Mailer, log logging.Logger) error {
	log.Info(ctx, "email worker started", "channel", EmailChannel)

	return broker.Subscribe(ctx, EmailChannel, func(ctx context.Context, msg mq.Message) error {
		var job Job
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			log.Warn(ctx, "dropping malformed email job", "id", msg.ID, "err", err)
			return nil
		}

		if err := sender.SendConfirmation(job); err != nil {
			log.Error(ctx, "confirmation email failed", "email", job.Email, "err", err)
			return err
		}
		log.Info(ctx, "confirmation email sent", "email", job.Email)
		return nil
	})
}
