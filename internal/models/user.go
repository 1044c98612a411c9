package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdministrator = "administrator"
	RoleCustomer      = "customer"
)

const (
	CivilityMr  = "mr"
	CivilityMrs = "mrs"
	CivilityMs  = "ms"
)

const (
	LocaleEN = "en"
	LocaleFR = "fr"
)

var (
	Roles      = []string{RoleAdministrator, RoleCustomer}
	Civilities = []string{CivilityMr, CivilityMrs, CivilityMs}
	Locales    = []string{LocaleEN, LocaleFR}
)

var civilityTitles = map[string]map[string]string{
	LocaleEN: {CivilityMr: "Mr.", CivilityMrs: "Mrs.", CivilityMs: "Ms."},
	LocaleFR: {CivilityMr: "M.", CivilityMrs: "Mme", CivilityMs: "Mlle"},
}

// User is an account. UniqID is the only identifier exposed in URLs.
type User struct {
	ID        uuid.UUID  `json:"id"`
	UniqID    string     `json:"uniqid"`
	Civility  string     `json:"civility"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Password  *string    `json:"-"`
	Role      string     `json:"role"`
	Locale    string     `json:"locale"`
	Timezone  string     `json:"timezone"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	Profile   *Profile   `json:"profile,omitempty"`
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// CivilityName is the salutation used in mails, e.g. "Mr. John Doe".
func (u *User) CivilityName() string {
	titles, ok := civilityTitles[u.Locale]
	if !ok {
		titles = civilityTitles[LocaleEN]
	}
	if title, ok := titles[u.Civility]; ok {
		return title + " " + u.FullName()
	}
	return u.FullName()
}

func (u *User) IsAdministrator() bool {
	return u.Role == RoleAdministrator
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}
