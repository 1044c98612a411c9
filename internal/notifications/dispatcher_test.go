package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dimitrije/trainerhub/internal/config"
	"github.com/dimitrije/trainerhub/internal/events"
	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/dimitrije/trainerhub/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *fakeMailer) mails() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type fakeTokens struct{}

func (fakeTokens) GeneratePasswordSetupToken(userID uuid.UUID) (string, error) {
	return "setup+" + userID.String(), nil
}

func testUser() *models.User {
	return &models.User{
		ID:        uuid.New(),
		UniqID:    "u-1",
		Civility:  models.CivilityMs,
		FirstName: "Misty",
		LastName:  "Waterflower",
		Email:     "misty@example.com",
		Locale:    models.LocaleEN,
	}
}

func newTestDispatcher(mailer *fakeMailer, adminMailbox string) *Dispatcher {
	return NewDispatcher(mailer, fakeTokens{}, "https://trainers.example.com", adminMailbox, nil)
}

func TestDispatcher_RegistrationSendsWelcome(t *testing.T) {
	mailer := &fakeMailer{}
	d := newTestDispatcher(mailer, "")

	err := d.Handle(context.Background(), events.New(events.UserCreated, testUser()).WithOrigin(events.OriginRegistration))

	require.NoError(t, err)
	sent := mailer.mails()
	require.Len(t, sent, 1)
	assert.Equal(t, "misty@example.com", sent[0].to)
	assert.Equal(t, "Welcome to Trainerhub", sent[0].subject)
	assert.Contains(t, sent[0].body, "Ms. Misty Waterflower")
	assert.NotContains(t, sent[0].body, "password/setup")
}

func TestDispatcher_AdministratorCreationSendsPasswordSetup(t *testing.T) {
	mailer := &fakeMailer{}
	d := newTestDispatcher(mailer, "")
	user := testUser()

	err := d.Handle(context.Background(), events.New(events.UserCreated, user).WithOrigin(events.OriginAdministrator))

	require.NoError(t, err)
	sent := mailer.mails()
	require.Len(t, sent, 1)
	assert.Equal(t, "Choose your password", sent[0].subject)
	assert.Contains(t, sent[0].body, "https://trainers.example.com/password/setup?token=setup%2B"+user.ID.String())
}

func TestDispatcher_SelfDeletionAlertsAdministrators(t *testing.T) {
	mailer := &fakeMailer{}
	d := newTestDispatcher(mailer, "admins@example.com")

	err := d.Handle(context.Background(), events.New(events.UserTriedToDeleteHisOwnAccount, testUser()))

	require.NoError(t, err)
	sent := mailer.mails()
	require.Len(t, sent, 1)
	assert.Equal(t, "admins@example.com", sent[0].to)
}

func TestDispatcher_SelfDeletionWithoutMailboxOnlyLogs(t *testing.T) {
	mailer := &fakeMailer{}
	d := newTestDispatcher(mailer, "")

	err := d.Handle(context.Background(), events.New(events.UserTriedToDeleteHisOwnAccount, testUser()))

	require.NoError(t, err)
	assert.Empty(t, mailer.mails())
}

func TestDispatcher_ProviderLinked(t *testing.T) {
	mailer := &fakeMailer{}
	d := newTestDispatcher(mailer, "")

	err := d.Handle(context.Background(), events.New(events.ProviderLinked, testUser()).WithProvider(models.ProviderTwitter))

	require.NoError(t, err)
	sent := mailer.mails()
	require.Len(t, sent, 1)
	assert.Equal(t, "Your Twitter account is linked", sent[0].subject)
}

func TestDispatcher_EscapesUserInput(t *testing.T) {
	mailer := &fakeMailer{}
	d := newTestDispatcher(mailer, "")
	user := testUser()
	user.FirstName = "<script>alert(1)</script>"

	require.NoError(t, d.Handle(context.Background(), events.New(events.UserDeleted, user)))

	sent := mailer.mails()
	require.Len(t, sent, 1)
	assert.NotContains(t, sent[0].body, "<script>")
	assert.Contains(t, sent[0].body, "&lt;script&gt;")
}

func TestDispatcher_SilentEvents(t *testing.T) {
	mailer := &fakeMailer{}
	d := newTestDispatcher(mailer, "")

	for _, typ := range []events.Type{events.UserUpdated, events.UserRefreshSession, events.ProviderUnlinked} {
		require.NoError(t, d.Handle(context.Background(), events.New(typ, testUser())))
	}

	assert.Empty(t, mailer.mails())
}

func TestDispatcher_MailerError(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	d := newTestDispatcher(mailer, "")

	err := d.Handle(context.Background(), events.New(events.UserDeleted, testUser()))

	assert.ErrorContains(t, err, "smtp down")
}

func testLead() *models.Lead {
	return &models.Lead{
		ID:        uuid.New(),
		Civility:  models.CivilityMr,
		FirstName: "Brock",
		LastName:  "Harrison",
		Email:     "brock@example.com",
		Locale:    models.LocaleEN,
		Subject:   "Gym hours",
		Body:      "When do you open?\nI'd like to <visit>.",
	}
}

func TestDispatcher_LeadSendsHandshakeAndAdministratorCopy(t *testing.T) {
	mailer := &fakeMailer{}
	d := newTestDispatcher(mailer, "admins@example.com")

	err := d.Handle(context.Background(), events.NewLead(testLead()))

	require.NoError(t, err)
	sent := mailer.mails()
	require.Len(t, sent, 2)

	assert.Equal(t, "brock@example.com", sent[0].to)
	assert.Equal(t, "We received your message: Gym hours", sent[0].subject)
	assert.Contains(t, sent[0].body, "Hello Mr. Brock Harrison")
	assert.Contains(t, sent[0].body, "When do you open?<br>\nI&#39;d like to &lt;visit&gt;.")

	assert.Equal(t, "admins@example.com", sent[1].to)
	assert.Equal(t, "We received your message: Gym hours", sent[1].subject)
	assert.Contains(t, sent[1].body, "Mr. Brock Harrison (brock@example.com) wrote:")
}

func TestDispatcher_LeadWithoutMailboxOnlyConfirmsToSender(t *testing.T) {
	mailer := &fakeMailer{}
	d := newTestDispatcher(mailer, "")

	err := d.Handle(context.Background(), events.NewLead(testLead()))

	require.NoError(t, err)
	sent := mailer.mails()
	require.Len(t, sent, 1)
	assert.Equal(t, "brock@example.com", sent[0].to)
}

func TestDispatcher_LeadEventWithoutLead(t *testing.T) {
	d := newTestDispatcher(&fakeMailer{}, "admins@example.com")

	err := d.Handle(context.Background(), events.Event{Type: events.LeadReceived})

	assert.Error(t, err)
}

func TestDispatcher_SkipsWhenSMTPUnconfigured(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	d := NewDispatcher(services.NewEmailService(config.SMTPConfig{}), fakeTokens{}, "https://trainers.example.com", "", zap.New(core))

	err := d.Handle(context.Background(), events.New(events.UserDeleted, testUser()))

	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("notification skipped, smtp is not configured").Len())
	assert.Zero(t, logs.FilterMessage("notification sent").Len())
}

func TestDispatcher_RegisterOnBus(t *testing.T) {
	mailer := &fakeMailer{}
	d := newTestDispatcher(mailer, "")
	bus := events.NewBus(nil)
	d.Register(bus)

	bus.Publish(context.Background(), events.New(events.UserCreated, testUser()).WithOrigin(events.OriginAdministrator))
	bus.Publish(context.Background(), events.New(events.UserDeleted, testUser()))
	bus.Wait()

	assert.Len(t, mailer.mails(), 2)
}
