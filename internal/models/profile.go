package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TeamRed    = "red"
	TeamBlue   = "blue"
	TeamYellow = "yellow"
)

var TeamColors = []string{TeamRed, TeamBlue, TeamYellow}

// MediaCollectionTrainer holds the QR code generated from a friend code.
const MediaCollectionTrainer = "trainer"

type Profile struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	FriendCode string     `json:"friend_code"`
	TeamColor  string     `json:"team_color"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

type ProfileMedia struct {
	ID         uuid.UUID `json:"id"`
	ProfileID  uuid.UUID `json:"profile_id"`
	Collection string    `json:"collection"`
	Name       string    `json:"name"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	StorageKey string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
