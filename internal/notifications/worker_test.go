package notifications

import (
	"encoding/json"
	"testing"

	"github.com/dimitrije/trainerhub/internal/events"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWorker_HandleMessageDispatches(t *testing.T) {
	mailer := &fakeMailer{}
	w := &Worker{dispatcher: newTestDispatcher(mailer, ""), log: zap.NewNop()}

	event := events.New(events.UserCreated, testUser()).WithOrigin(events.OriginAdministrator)
	data, err := json.Marshal(event)
	require.NoError(t, err)

	w.handleMessage(&nats.Msg{Subject: events.Subject(event.Type), Data: data})

	sent := mailer.mails()
	require.Len(t, sent, 1)
	assert.Equal(t, "Choose your password", sent[0].subject)
}

func TestWorker_HandleMessageDropsGarbage(t *testing.T) {
	mailer := &fakeMailer{}
	w := &Worker{dispatcher: newTestDispatcher(mailer, ""), log: zap.NewNop()}

	w.handleMessage(&nats.Msg{Subject: "users.created", Data: []byte("{not json")})

	assert.Empty(t, mailer.mails())
}
