package dto

import "time"

// UserResponse never carries the internal primary key; uniqid is the
// public identifier.
type UserResponse struct {
	UniqID       string           `json:"uniqid"`
	Civility     string           `json:"civility"`
	CivilityName string           `json:"civility_name"`
	FirstName    string           `json:"first_name"`
	LastName     string           `json:"last_name"`
	FullName     string           `json:"full_name"`
	Email        string           `json:"email"`
	Role         string           `json:"role"`
	Locale       string           `json:"locale"`
	Timezone     string           `json:"timezone"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    *time.Time       `json:"deleted_at,omitempty"`
	Profile      *ProfileResponse `json:"profile,omitempty"`
}

type ProfileResponse struct {
	FriendCode string `json:"friend_code"`
	TeamColor  string `json:"team_color"`
}

type ProviderLinkResponse struct {
	Provider  string    `json:"provider"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type DashboardResponse struct {
	User               UserResponse           `json:"user"`
	Providers          []ProviderLinkResponse `json:"providers"`
	AvailableProviders []string               `json:"available_providers"`
}

type MediaResponse struct {
	Collection string    `json:"collection"`
	Name       string    `json:"name"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
}

type PaginationResponse struct {
	Total       int `json:"total"`
	Count       int `json:"count"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

type MetaResponse struct {
	Pagination PaginationResponse `json:"pagination"`
}

type UserListResponse struct {
	Data []UserResponse `json:"data"`
	Meta MetaResponse   `json:"meta"`
}
