package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/trainerhub/internal/config"
	"github.com/dimitrije/trainerhub/internal/events"
	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const wrongPasswordMessage = "The password entered is not your password."

type UserStore interface {
	Create(ctx context.Context, attrs UserAttributes) (*models.User, error)
	Update(ctx context.Context, attrs UserUpdate, id uuid.UUID) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUniqueID(ctx context.Context, uniqid string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	SetInitialPassword(ctx context.Context, id uuid.UUID, hash string) error
}

type ProviderLinkStore interface {
	Link(ctx context.Context, userID uuid.UUID, provider, providerID, token string) (*models.ProviderToken, error)
	Unlink(ctx context.Context, userID uuid.UUID, provider string) (bool, error)
}

type SessionIssuer interface {
	Issue(ctx context.Context, user *models.User) (*TokenPair, error)
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

type PasswordSetupTokenValidator interface {
	ValidatePasswordSetupToken(token string) (uuid.UUID, error)
}

type RegisterInput struct {
	Civility             string `json:"civility" validate:"required,oneof=mr mrs ms"`
	FirstName            string `json:"first_name" validate:"required,max=255"`
	LastName             string `json:"last_name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"eqfield=Password"`
	Locale               string `json:"locale" validate:"omitempty,oneof=en fr"`
	Timezone             string `json:"timezone" validate:"omitempty,timezone"`
}

type AdminCreateInput struct {
	Civility  string `json:"civility" validate:"required,oneof=mr mrs ms"`
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Role      string `json:"role" validate:"omitempty,oneof=administrator customer"`
	Locale    string `json:"locale" validate:"omitempty,oneof=en fr"`
	Timezone  string `json:"timezone" validate:"omitempty,timezone"`
}

type UpdateInput struct {
	Civility   *string `json:"civility" validate:"omitnil,oneof=mr mrs ms"`
	FirstName  *string `json:"first_name" validate:"omitnil,required,max=255"`
	LastName   *string `json:"last_name" validate:"omitnil,required,max=255"`
	Email      *string `json:"email" validate:"omitnil,required,email,max=255"`
	Role       *string `json:"role" validate:"omitnil,oneof=administrator customer"`
	Locale     *string `json:"locale" validate:"omitnil,oneof=en fr"`
	Timezone   *string `json:"timezone" validate:"omitnil,timezone"`
	FriendCode *string `json:"friend_code" validate:"omitnil,friend_code"`
	TeamColor  *string `json:"team_color" validate:"omitnil,team_color"`
}

type PasswordInput struct {
	PasswordCurrent      string `json:"password_current" validate:"required"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"eqfield=Password"`
}

type SetupPasswordInput struct {
	Token                string `json:"token" validate:"required"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"eqfield=Password"`
}

type Options struct {
	Roles      []string `json:"roles"`
	Civilities []string `json:"civilities"`
	Locales    []string `json:"locales"`
	TeamColors []string `json:"team_colors"`
	Providers  []string `json:"providers"`
}

// AccountService orchestrates the account lifecycle on top of the identity
// store, the provider link registry and the session issuer.
type AccountService struct {
	users       UserStore
	links       ProviderLinkStore
	sessions    SessionIssuer
	setupTokens PasswordSetupTokenValidator
	publisher   events.Publisher
	validate    *validator.Validate
	defaults    config.UserDefaults
}

func NewAccountService(
	users UserStore,
	links ProviderLinkStore,
	sessions SessionIssuer,
	setupTokens PasswordSetupTokenValidator,
	publisher events.Publisher,
	defaults config.UserDefaults,
) *AccountService {
	if publisher == nil {
		publisher = events.Discard
	}
	return &AccountService{
		users:       users,
		links:       links,
		sessions:    sessions,
		setupTokens: setupTokens,
		publisher:   publisher,
		validate:    newValidator(),
		defaults:    defaults,
	}
}

func (s *AccountService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, *TokenPair, error) {
	if err := validateStruct(s.validate, &in); err != nil {
		return nil, nil, err
	}

	user, err := s.users.Create(ctx, UserAttributes{
		Civility:  in.Civility,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  in.Password,
		Role:      models.RoleCustomer,
		Locale:    in.Locale,
		Timezone:  in.Timezone,
		Origin:    events.OriginRegistration,
	})
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// CreateUserByAdministrator creates an account without a password. The
// owner receives a mail inviting them to choose one.
func (s *AccountService) CreateUserByAdministrator(ctx context.Context, actor *models.User, in AdminCreateInput) (*models.User, error) {
	if !actor.IsAdministrator() {
		return nil, ErrUnauthorized
	}
	if err := validateStruct(s.validate, &in); err != nil {
		return nil, err
	}

	attrs := UserAttributes{
		Civility:   in.Civility,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
		NoPassword: true,
		Role:       in.Role,
		Locale:     in.Locale,
		Timezone:   in.Timezone,
		Origin:     events.OriginAdministrator,
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

	return s.users.Create(ctx, attrs)
}

// IsUserDeletingHisOwnAccount reports whether an administrator is targeting
// their own account. When it does, UserTriedToDeleteHisOwnAccount is
// published once.
func (s *AccountService) IsUserDeletingHisOwnAccount(ctx context.Context, actor, target *models.User) bool {
	if actor == nil || target == nil {
		return false
	}
	if !actor.IsAdministrator() || actor.ID != target.ID {
		return false
	}
	s.publisher.Publish(ctx, events.New(events.UserTriedToDeleteHisOwnAccount, actor))
	return true
}

func (s *AccountService) DeleteUser(ctx context.Context, actor *models.User, uniqid string) (*models.User, error) {
	target, err := s.users.FindByUniqueID(ctx, uniqid)
	if err != nil {
		return nil, err
	}

	if s.IsUserDeletingHisOwnAccount(ctx, actor, target) {
		return nil, ErrSelfDeletion
	}
	if !actor.IsAdministrator() && actor.ID != target.ID {
		return nil, ErrUnauthorized
	}

	return s.users.Delete(ctx, target.ID)
}

// UpdateUser lets owners edit their own identity and profile. Email and role
// are reserved to administrators.
func (s *AccountService) UpdateUser(ctx context.Context, actor *models.User, uniqid string, in UpdateInput) (*models.User, error) {
	target, err := s.users.FindByUniqueID(ctx, uniqid)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdministrator() {
		if actor.ID != target.ID || in.Email != nil || in.Role != nil {
			return nil, ErrUnauthorized
		}
	}

	if err := validateStruct(s.validate, &in); err != nil {
		return nil, err
	}

	return s.users.Update(ctx, UserUpdate{
		Civility:   in.Civility,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
		Role:       in.Role,
		Locale:     in.Locale,
		Timezone:   in.Timezone,
		FriendCode: in.FriendCode,
		TeamColor:  in.TeamColor,
	}, target.ID)
}

// UpdatePassword changes the owner's password, revokes every refresh token
// they hold and hands back a fresh session.
func (s *AccountService) UpdatePassword(ctx context.Context, actor *models.User, uniqid string, in PasswordInput) (*TokenPair, error) {
	target, err := s.users.FindByUniqueID(ctx, uniqid)
	if err != nil {
		return nil, err
	}
	if actor.ID != target.ID {
		return nil, ErrUnauthorized
	}

	if err := validateStruct(s.validate, &in); err != nil {
		return nil, err
	}
	if !CheckPassword(target.Password, in.PasswordCurrent) {
		return nil, NewValidationError("password_current", wrongPasswordMessage)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdatePassword(ctx, target.ID, hash); err != nil {
		return nil, err
	}
	target.Password = &hash

	if err := s.sessions.RevokeAll(ctx, target.ID); err != nil {
		return nil, err
	}
	return s.RefreshSession(ctx, target)
}

// SetupPassword completes an administrator-created account.
func (s *AccountService) SetupPassword(ctx context.Context, in SetupPasswordInput) (*models.User, *TokenPair, error) {
	if err := validateStruct(s.validate, &in); err != nil {
		return nil, nil, err
	}

	userID, err := s.setupTokens.ValidatePasswordSetupToken(in.Token)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if user.HasPassword() {
		return nil, nil, ErrPasswordAlreadySet
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}
	if err := s.users.SetInitialPassword(ctx, user.ID, hash); err != nil {
		return nil, nil, err
	}
	user.Password = &hash

	pair, err := s.RefreshSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !CheckPassword(user.Password, password) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// RefreshSession re-issues session tokens after a sensitive change. The user
// itself is left untouched.
func (s *AccountService) RefreshSession(ctx context.Context, user *models.User) (*TokenPair, error) {
	pair, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, events.New(events.UserRefreshSession, user))
	return pair, nil
}

// LinkProviderAccount attaches an external identity to user. Existing links
// are never overwritten.
func (s *AccountService) LinkProviderAccount(ctx context.Context, user *models.User, provider, externalID, externalToken string) (*models.ProviderToken, error) {
	if !models.IsProvider(provider) {
		return nil, ErrUnknownProvider
	}

	link, err := s.links.Link(ctx, user.ID, provider, externalID, externalToken)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.New(events.ProviderLinked, user).WithProvider(provider))
	return link, nil
}

// UnlinkProviderAccount removes a link. Removing a link that does not exist
// succeeds without publishing anything.
func (s *AccountService) UnlinkProviderAccount(ctx context.Context, actor *models.User, uniqid, provider string) error {
	if !models.IsProvider(provider) {
		return ErrUnknownProvider
	}

	target, err := s.users.FindByUniqueID(ctx, uniqid)
	if err != nil {
		return err
	}
	if !actor.IsAdministrator() && actor.ID != target.ID {
		return ErrUnauthorized
	}

	removed, err := s.links.Unlink(ctx, target.ID, provider)
	if err != nil {
		return err
	}
	if removed {
		s.publisher.Publish(ctx, events.New(events.ProviderUnlinked, target).WithProvider(provider))
	}
	return nil
}

func (s *AccountService) Options() Options {
	return Options{
		Roles:      models.Roles,
		Civilities: models.Civilities,
		Locales:    models.Locales,
		TeamColors: models.TeamColors,
		Providers:  models.Providers,
	}
}

func LinkSuccessMessage(provider string) string {
	return fmt.Sprintf("The link between your %s account and your user account is correctly completed", provider)
}

func LinkFailureMessage(provider string) string {
	return fmt.Sprintf("The link of your %s account with your user account could not be done", provider)
}
