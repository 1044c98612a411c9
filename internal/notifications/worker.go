package notifications

import (
	"context"
	"fmt"

	"github.com/dimitrije/trainerhub/internal/events"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	// WorkerQueue load-balances deliveries when several workers run.
	WorkerQueue = "notification-worker"
	allUsers    = events.SubjectPrefix + ">"
)

// Worker consumes user events published on NATS and hands them to the
// dispatcher.
type Worker struct {
	conn       *nats.Conn
	sub        *nats.Subscription
	dispatcher *Dispatcher
	log        *zap.Logger
}

func StartWorker(natsURL string, dispatcher *Dispatcher, log *zap.Logger) (*Worker, error) {
	nc, err := nats.Connect(natsURL, nats.Name(WorkerQueue))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	w := &Worker{conn: nc, dispatcher: dispatcher, log: log}

	sub, err := nc.QueueSubscribe(allUsers, WorkerQueue, w.handleMessage)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", allUsers, err)
	}
	w.sub = sub

	log.Info("subscribed to user events", zap.String("subject", allUsers), zap.String("queue", WorkerQueue))
	return w, nil
}

func (w *Worker) handleMessage(msg *nats.Msg) {
	event, err := events.Decode(msg.Data)
	if err != nil {
		w.log.Error("dropping malformed event", zap.String("subject", msg.Subject), zap.Error(err))
		return
	}

	w.log.Debug("event received",
		zap.String("subject", msg.Subject),
		zap.String("type", string(event.Type)),
		zap.String("user", event.User.UniqID),
	)

	if err := w.dispatcher.Handle(context.Background(), event); err != nil {
		w.log.Error("notification failed",
			zap.String("type", string(event.Type)),
			zap.String("user", event.User.UniqID),
			zap.Error(err),
		)
	}
}

func (w *Worker) Close() {
	if w.sub != nil {
		_ = w.sub.Unsubscribe()
	}
	_ = w.conn.Drain()
}
