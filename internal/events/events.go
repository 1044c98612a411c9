package events

import (
	"context"
	"time"

	"github.com/dimitrije/trainerhub/internal/models"
)

type Type string

const (
	UserCreated                    Type = "user.created"
	UserUpdated                    Type = "user.updated"
	UserDeleted                    Type = "user.deleted"
	UserRefreshSession             Type = "user.refresh_session"
	UserTriedToDeleteHisOwnAccount Type = "user.tried_to_delete_his_own_account"
	ProviderLinked                 Type = "user.provider_linked"
	ProviderUnlinked               Type = "user.provider_unlinked"
	LeadReceived                   Type = "lead.received"
)

var Types = []Type{
	UserCreated,
	UserUpdated,
	UserDeleted,
	UserRefreshSession,
	UserTriedToDeleteHisOwnAccount,
	ProviderLinked,
	ProviderUnlinked,
	LeadReceived,
}

// Origin tells subscribers how an account came to exist.
type Origin string

const (
	OriginRegistration  Origin = "registration"
	OriginAdministrator Origin = "administrator"
)

type Event struct {
	Type       Type         `json:"event_type"`
	User       models.User  `json:"user"`
	Origin     Origin       `json:"origin,omitempty"`
	Provider   string       `json:"provider,omitempty"`
	Lead       *models.Lead `json:"lead,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

func New(t Type, user *models.User) Event {
	e := Event{Type: t, OccurredAt: time.Now().UTC()}
	if user != nil {
		e.User = *user
		e.User.Password = nil
	}
	return e
}

// NewLead wraps a contact message. The event carries no User.
func NewLead(lead *models.Lead) Event {
	return Event{Type: LeadReceived, Lead: lead, OccurredAt: time.Now().UTC()}
}

func (e Event) WithOrigin(o Origin) Event {
	e.Origin = o
	return e
}

func (e Event) WithProvider(p string) Event {
	e.Provider = p
	return e
}

type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type Handler func(ctx context.Context, event Event)

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) {}
