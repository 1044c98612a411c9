package notifications

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/dimitrije/trainerhub/internal/events"
	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/dimitrije/trainerhub/internal/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Mailer interface {
	Send(to, subject, body string) error
}

type SetupTokenIssuer interface {
	GeneratePasswordSetupToken(userID uuid.UUID) (string, error)
}

// Dispatcher turns lifecycle events into transactional mails.
type Dispatcher struct {
	mailer       Mailer
	tokens       SetupTokenIssuer
	baseURL      string
	adminMailbox string
	log          *zap.Logger
}

func NewDispatcher(mailer Mailer, tokens SetupTokenIssuer, baseURL, adminMailbox string, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		mailer:       mailer,
		tokens:       tokens,
		baseURL:      baseURL,
		adminMailbox: adminMailbox,
		log:          log,
	}
}

// Register subscribes the dispatcher to every event type it reacts to.
func (d *Dispatcher) Register(bus *events.Bus) {
	for _, t := range events.Types {
		bus.Subscribe(t, d.handle)
	}
}

func (d *Dispatcher) handle(ctx context.Context, e events.Event) {
	if err := d.Handle(ctx, e); err != nil {
		d.log.Error("notification failed",
			zap.String("type", string(e.Type)),
			zap.String("user", e.User.UniqID),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) Handle(_ context.Context, e events.Event) error {
	user := &e.User

	switch e.Type {
	case events.UserCreated:
		if e.Origin == events.OriginAdministrator {
			return d.sendPasswordSetup(user)
		}
		return d.sendWelcome(user)

	case events.UserDeleted:
		return d.send(user.Email, "Your account has been deleted", fmt.Sprintf(
			`<p>Hello %s,</p><p>Your account has been deleted. We hope to see you again soon.</p>`,
			html.EscapeString(user.CivilityName()),
		))

	case events.UserTriedToDeleteHisOwnAccount:
		if d.adminMailbox == "" {
			d.log.Warn("administrator tried to delete their own account",
				zap.String("user", user.UniqID),
				zap.String("email", user.Email),
			)
			return nil
		}
		return d.send(d.adminMailbox, "An administrator tried to delete their own account", fmt.Sprintf(
			`<p>%s (%s) tried to delete their own administrator account. The request was refused.</p>`,
			html.EscapeString(user.FullName()), html.EscapeString(user.Email),
		))

	case events.ProviderLinked:
		return d.send(user.Email, fmt.Sprintf("Your %s account is linked", models.ProviderName(e.Provider)), fmt.Sprintf(
			`<p>Hello %s,</p><p>Your %s account is now linked to your user account. If you did not do this, remove the link from your dashboard.</p>`,
			html.EscapeString(user.CivilityName()), html.EscapeString(models.ProviderName(e.Provider)),
		))

	case events.LeadReceived:
		if e.Lead == nil {
			return fmt.Errorf("%s event without a lead", e.Type)
		}
		return d.sendLeadHandshake(e.Lead)
	}

	d.log.Debug("event has no notification", zap.String("type", string(e.Type)), zap.String("user", user.UniqID))
	return nil
}

func (d *Dispatcher) sendWelcome(user *models.User) error {
	return d.send(user.Email, "Welcome to Trainerhub", fmt.Sprintf(
		`<p>Hello %s,</p><p>Your account has been created. You can sign in at <a href="%s">%s</a>.</p>`,
		html.EscapeString(user.CivilityName()), d.baseURL, d.baseURL,
	))
}

func (d *Dispatcher) sendPasswordSetup(user *models.User) error {
	token, err := d.tokens.GeneratePasswordSetupToken(user.ID)
	if err != nil {
		return fmt.Errorf("failed to issue password setup token: %w", err)
	}

	link := d.baseURL + "/password/setup?token=" + url.QueryEscape(token)
	return d.send(user.Email, "Choose your password", fmt.Sprintf(
		`<p>Hello %s,</p><p>An administrator created an account for you. <a href="%s">Choose your password</a> to activate it.</p>`,
		html.EscapeString(user.CivilityName()), html.EscapeString(link),
	))
}

// sendLeadHandshake confirms reception to the sender and forwards the
// message to the administrator mailbox.
func (d *Dispatcher) sendLeadHandshake(lead *models.Lead) error {
	subject := fmt.Sprintf("We received your message: %s", lead.Subject)
	name := html.EscapeString(lead.CivilityName())
	body := nl2br(lead.Body)

	err := d.send(lead.Email, subject, fmt.Sprintf(
		`<p>Hello %s,</p><p>Thank you for your message. We will get back to you shortly.</p><blockquote>%s</blockquote>`,
		name, body,
	))

	if d.adminMailbox == "" {
		d.log.Warn("lead received without an administrator mailbox", zap.String("lead", lead.ID.String()))
		return err
	}
	return errors.Join(err, d.send(d.adminMailbox, subject, fmt.Sprintf(
		`<p>%s (%s) wrote:</p><blockquote>%s</blockquote>`,
		name, html.EscapeString(lead.Email), body,
	)))
}

func nl2br(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>\n")
}

func (d *Dispatcher) send(to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("no recipient for %q", subject)
	}
	err := d.mailer.Send(to, subject, body)
	if errors.Is(err, services.ErrMailerNotConfigured) {
		d.log.Debug("notification skipped, smtp is not configured", zap.String("to", to), zap.String("subject", subject))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to send %q: %w", subject, err)
	}
	d.log.Info("notification sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
