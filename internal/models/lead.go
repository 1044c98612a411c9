package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a message left through the contact form.
type Lead struct {
	ID        uuid.UUID `json:"id"`
	Civility  string    `json:"civility"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Locale    string    `json:"locale"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *Lead) CivilityName() string {
	sender := User{Civility: l.Civility, FirstName: l.FirstName, LastName: l.LastName, Locale: l.Locale}
	return sender.CivilityName()
}
