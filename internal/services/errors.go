package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyLinked       = errors.New("provider account already linked")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrSelfDeletion        = errors.New("administrators cannot delete their own account")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPasswordAlreadySet  = errors.New("password already set")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUnknownProvider     = errors.New("unknown provider")
	ErrMailerNotConfigured = errors.New("smtp is not configured")
)

// ValidationError carries user-correctable failures keyed by input field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

const pgUniqueViolation = "23505"

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
