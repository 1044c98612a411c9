package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dimitrije/trainerhub/internal/database"
	"github.com/dimitrije/trainerhub/internal/events"
	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
)

const leadColumns = `id, civility, first_name, last_name, email, locale, subject, body, created_at`

type LeadInput struct {
	Civility  string `json:"civility" validate:"required,oneof=mr mrs ms"`
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Locale    string `json:"locale" validate:"omitempty,oneof=en fr"`
	Subject   string `json:"subject" validate:"required,max=255"`
	Body      string `json:"body" validate:"required,max=5000"`
}

// LeadService stores contact messages. Every stored lead is published as
// LeadReceived so the sender gets a receipt and administrators get a copy.
type LeadService struct {
	db        *database.DB
	publisher events.Publisher
	validate  *validator.Validate
}

func NewLeadService(db *database.DB, publisher events.Publisher) *LeadService {
	if publisher == nil {
		publisher = events.Discard
	}
	return &LeadService{db: db, publisher: publisher, validate: newValidator()}
}

func (s *LeadService) Submit(ctx context.Context, in LeadInput) (*models.Lead, error) {
	in.Subject = strings.TrimSpace(in.Subject)
	in.Body = strings.TrimSpace(in.Body)
	if err := validateStruct(s.validate, &in); err != nil {
		return nil, err
	}
	if in.Locale == "" {
		in.Locale = models.LocaleEN
	}

	lead, err := scanLead(s.db.Pool.QueryRow(ctx, `
		INSERT INTO leads (civility, first_name, last_name, email, locale, subject, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+leadColumns,
		in.Civility, in.FirstName, in.LastName, strings.TrimSpace(in.Email), in.Locale, in.Subject, in.Body,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to store lead: %w", err)
	}

	s.publisher.Publish(ctx, events.NewLead(lead))
	return lead, nil
}

func scanLead(row pgx.Row) (*models.Lead, error) {
	var l models.Lead
	if err := row.Scan(&l.ID, &l.Civility, &l.FirstName, &l.LastName, &l.Email, &l.Locale, &l.Subject, &l.Body, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
