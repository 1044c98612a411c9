package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dimitrije/trainerhub/internal/config"
	"github.com/dimitrije/trainerhub/internal/database"
	"github.com/dimitrije/trainerhub/internal/events"
	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/segmentio/ksuid"
)

const DefaultPerPage = 12

const userColumns = `id, uniqid, civility, first_name, last_name, email, password, role, locale, timezone, created_at, updated_at, deleted_at`

const profileColumns = `id, user_id, friend_code, team_color, created_at, updated_at, deleted_at`

const emailTakenMessage = "The email has already been taken."

// DeletedScope selects how soft-deleted users are treated by a query.
type DeletedScope int

const (
	DeletedExclude DeletedScope = iota
	DeletedInclude
	DeletedOnly
)

func (d DeletedScope) clause() string {
	switch d {
	case DeletedInclude:
		return "TRUE"
	case DeletedOnly:
		return "deleted_at IS NOT NULL"
	default:
		return "deleted_at IS NULL"
	}
}

type UserAttributes struct {
	UniqID    string
	Civility  string
	FirstName string
	LastName  string
	Email     string
	Password  string
	// NoPassword leaves the password NULL until the owner completes setup.
	NoPassword bool
	Role       string
	Locale     string
	Timezone   string
	Origin     events.Origin
}

// UserUpdate holds the mutable fields. Nil fields are left untouched.
type UserUpdate struct {
	Civility   *string
	FirstName  *string
	LastName   *string
	Email      *string
	Role       *string
	Locale     *string
	Timezone   *string
	FriendCode *string
	TeamColor  *string
}

func (u UserUpdate) touchesProfile() bool {
	return u.FriendCode != nil || u.TeamColor != nil
}

type ListOptions struct {
	Page    int
	PerPage int
	Name    string
	Deleted DeletedScope
}

type Pagination struct {
	Total       int `json:"total"`
	Count       int `json:"count"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

type UserService struct {
	db        *database.DB
	publisher events.Publisher
	defaults  config.UserDefaults
}

func NewUserService(db *database.DB, publisher events.Publisher, defaults config.UserDefaults) *UserService {
	if publisher == nil {
		publisher = events.Discard
	}
	return &UserService{db: db, publisher: publisher, defaults: defaults}
}

func (s *UserService) Create(ctx context.Context, attrs UserAttributes) (*models.User, error) {
	if attrs.UniqID == "" {
		attrs.UniqID = ksuid.New().String()
	}
	if attrs.Role == "" {
		attrs.Role = s.defaults.Role
	}
	if attrs.Locale == "" {
		attrs.Locale = s.defaults.Locale
	}
	if attrs.Timezone == "" {
		attrs.Timezone = s.defaults.Timezone
	}
	if attrs.Origin == "" {
		attrs.Origin = events.OriginRegistration
	}

	var password *string
	if !attrs.NoPassword {
		plain := attrs.Password
		if plain == "" {
			generated, err := randomPassword()
			if err != nil {
				return nil, err
			}
			plain = generated
		}
		hash, err := HashPassword(plain)
		if err != nil {
			return nil, err
		}
		password = &hash
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user, err := scanUser(tx.QueryRow(ctx, `
		INSERT INTO users (uniqid, civility, first_name, last_name, email, password, role, locale, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+userColumns,
		attrs.UniqID, attrs.Civility, attrs.FirstName, attrs.LastName, strings.TrimSpace(attrs.Email),
		password, attrs.Role, attrs.Locale, attrs.Timezone,
	))
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == "users_email_active_key" {
			return nil, NewValidationError("email", emailTakenMessage)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	profile, err := scanProfile(tx.QueryRow(ctx, `
		INSERT INTO users_profiles (user_id) VALUES ($1)
		RETURNING `+profileColumns,
		user.ID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	user.Profile = profile

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.publisher.Publish(ctx, events.New(events.UserCreated, user).WithOrigin(attrs.Origin))
	return user, nil
}

func (s *UserService) Update(ctx context.Context, attrs UserUpdate, id uuid.UUID) (*models.User, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user, err := scanUser(tx.QueryRow(ctx, `
		UPDATE users SET
			civility = COALESCE($1, civility),
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			email = COALESCE($4, email),
			role = COALESCE($5, role),
			locale = COALESCE($6, locale),
			timezone = COALESCE($7, timezone),
			updated_at = NOW()
		WHERE id = $8 AND deleted_at IS NULL
		RETURNING `+userColumns,
		attrs.Civility, attrs.FirstName, attrs.LastName, attrs.Email,
		attrs.Role, attrs.Locale, attrs.Timezone, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if constraint, ok := uniqueViolation(err); ok && constraint == "users_email_active_key" {
			return nil, NewValidationError("email", emailTakenMessage)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	var profile *models.Profile
	if attrs.touchesProfile() {
		profile, err = scanProfile(tx.QueryRow(ctx, `
			UPDATE users_profiles SET
				friend_code = COALESCE($1, friend_code),
				team_color = COALESCE($2, team_color),
				updated_at = NOW()
			WHERE user_id = $3 AND deleted_at IS NULL
			RETURNING `+profileColumns,
			attrs.FriendCode, attrs.TeamColor, id,
		))
	} else {
		profile, err = scanProfile(tx.QueryRow(ctx, `
			SELECT `+profileColumns+` FROM users_profiles WHERE user_id = $1 AND deleted_at IS NULL
		`, id))
	}
	switch {
	case err == nil:
		user.Profile = profile
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.publisher.Publish(ctx, events.New(events.UserUpdated, user))
	return user, nil
}

// Delete soft-deletes the user and its profile. Provider links and refresh
// tokens are removed outright.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) (*models.User, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user, err := scanUser(tx.QueryRow(ctx, `
		UPDATE users SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+userColumns, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE users_profiles SET deleted_at = NOW() WHERE user_id = $1 AND deleted_at IS NULL`, id); err != nil {
		return nil, fmt.Errorf("failed to delete profile: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM users_providers_tokens WHERE user_id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to delete provider tokens: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to delete refresh tokens: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.publisher.Publish(ctx, events.New(events.UserDeleted, user))
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findOne(ctx, `id = $1`, id)
}

func (s *UserService) FindByUniqueID(ctx context.Context, uniqid string) (*models.User, error) {
	return s.findOne(ctx, `uniqid = $1`, uniqid)
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, `LOWER(email) = LOWER($1)`, strings.TrimSpace(email))
}

// FindByUniqueIDExcluding returns every active user except the one holding uniqid.
func (s *UserService) FindByUniqueIDExcluding(ctx context.Context, uniqid string) ([]*models.User, error) {
	return s.findMany(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE uniqid <> $1 AND deleted_at IS NULL
		ORDER BY created_at, id
	`, uniqid)
}

// FindByName matches substring against first, last and full name, case-insensitively.
func (s *UserService) FindByName(ctx context.Context, substring string) ([]*models.User, error) {
	return s.findMany(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE (first_name || ' ' || last_name) ILIKE $1 AND deleted_at IS NULL
		ORDER BY created_at, id
	`, likePattern(substring))
}

func (s *UserService) All(ctx context.Context, scope DeletedScope) ([]*models.User, error) {
	return s.findMany(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE `+scope.clause()+`
		ORDER BY created_at, id
	`)
}

func (s *UserService) ListPaginated(ctx context.Context, opts ListOptions) ([]*models.User, *Pagination, error) {
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}

	where := opts.Deleted.clause()
	args := []any{}
	if opts.Name != "" {
		args = append(args, likePattern(opts.Name))
		where += fmt.Sprintf(" AND (first_name || ' ' || last_name) ILIKE $%d", len(args))
	}

	var total int
	if err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+where, args...).Scan(&total); err != nil {
		return nil, nil, fmt.Errorf("failed to count users: %w", err)
	}

	args = append(args, opts.PerPage, (opts.Page-1)*opts.PerPage)
	users, err := s.findMany(ctx, fmt.Sprintf(`
		SELECT %s FROM users
		WHERE %s
		ORDER BY created_at, id
		LIMIT $%d OFFSET $%d
	`, userColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, nil, err
	}

	return users, &Pagination{
		Total:       total,
		Count:       len(users),
		PerPage:     opts.PerPage,
		CurrentPage: opts.Page,
		TotalPages:  (total + opts.PerPage - 1) / opts.PerPage,
	}, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := scanProfile(s.db.Pool.QueryRow(ctx, `
		SELECT `+profileColumns+` FROM users_profiles WHERE user_id = $1 AND deleted_at IS NULL
	`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE users SET password = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetInitialPassword moves an account from no password to a password. It
// refuses accounts that already have one.
func (s *UserService) SetInitialPassword(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE users SET password = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL AND password IS NULL
	`, hash, id)
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPasswordAlreadySet
	}
	return nil
}

func (s *UserService) findOne(ctx context.Context, where string, args ...any) (*models.User, error) {
	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE `+where+` AND deleted_at IS NULL
	`, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *UserService) findMany(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.UniqID, &u.Civility, &u.FirstName, &u.LastName, &u.Email, &u.Password,
		&u.Role, &u.Locale, &u.Timezone, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.FriendCode, &p.TeamColor, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}
