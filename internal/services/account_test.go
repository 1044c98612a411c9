package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dimitrije/trainerhub/internal/events"
	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUsers struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]*models.User
	profiles map[uuid.UUID]*models.Profile
	events   events.Publisher
}

func newMemoryUsers(pub events.Publisher) *memoryUsers {
	return &memoryUsers{
		byID:     make(map[uuid.UUID]*models.User),
		profiles: make(map[uuid.UUID]*models.Profile),
		events:   pub,
	}
}

func (m *memoryUsers) Create(ctx context.Context, attrs UserAttributes) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.byID {
		if !u.IsDeleted() && strings.EqualFold(u.Email, attrs.Email) {
			return nil, NewValidationError("email", emailTakenMessage)
		}
	}

	user := &models.User{
		ID:        uuid.New(),
		UniqID:    attrs.UniqID,
		Civility:  attrs.Civility,
		FirstName: attrs.FirstName,
		LastName:  attrs.LastName,
		Email:     attrs.Email,
		Role:      attrs.Role,
		Locale:    attrs.Locale,
		Timezone:  attrs.Timezone,
		CreatedAt: time.Now(),
	}
	if user.UniqID == "" {
		user.UniqID = uuid.NewString()
	}
	if !attrs.NoPassword {
		hash, err := HashPassword(attrs.Password)
		if err != nil {
			return nil, err
		}
		user.Password = &hash
	}
	m.byID[user.ID] = user
	m.profiles[user.ID] = &models.Profile{ID: uuid.New(), UserID: user.ID}

	out := *user
	out.Profile = m.profiles[user.ID]
	m.events.Publish(ctx, events.New(events.UserCreated, &out).WithOrigin(attrs.Origin))
	return &out, nil
}

func (m *memoryUsers) Update(ctx context.Context, attrs UserUpdate, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok || u.IsDeleted() {
		return nil, ErrNotFound
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.Civility, attrs.Civility)
	set(&u.FirstName, attrs.FirstName)
	set(&u.LastName, attrs.LastName)
	set(&u.Email, attrs.Email)
	set(&u.Role, attrs.Role)
	set(&u.Locale, attrs.Locale)
	set(&u.Timezone, attrs.Timezone)
	set(&m.profiles[id].FriendCode, attrs.FriendCode)
	set(&m.profiles[id].TeamColor, attrs.TeamColor)

	out := *u
	out.Profile = m.profiles[id]
	m.events.Publish(ctx, events.New(events.UserUpdated, &out))
	return &out, nil
}

func (m *memoryUsers) Delete(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok || u.IsDeleted() {
		return nil, ErrNotFound
	}
	now := time.Now()
	u.DeletedAt = &now

	out := *u
	m.events.Publish(ctx, events.New(events.UserDeleted, &out))
	return &out, nil
}

func (m *memoryUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok || u.IsDeleted() {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *memoryUsers) FindByUniqueID(_ context.Context, uniqid string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.UniqID == uniqid })
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *memoryUsers) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.byID {
		if !u.IsDeleted() && match(u) {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok || u.IsDeleted() {
		return ErrNotFound
	}
	u.Password = &hash
	return nil
}

func (m *memoryUsers) SetInitialPassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok || u.IsDeleted() || u.Password != nil {
		return ErrPasswordAlreadySet
	}
	u.Password = &hash
	return nil
}

type linkKey struct{ a, b string }

type memoryLinks struct {
	mu         sync.Mutex
	byUser     map[linkKey]*models.ProviderToken
	byExternal map[linkKey]*models.ProviderToken
}

func newMemoryLinks() *memoryLinks {
	return &memoryLinks{
		byUser:     make(map[linkKey]*models.ProviderToken),
		byExternal: make(map[linkKey]*models.ProviderToken),
	}
}

func (m *memoryLinks) Link(_ context.Context, userID uuid.UUID, provider, providerID, token string) (*models.ProviderToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	uk := linkKey{userID.String(), provider}
	ek := linkKey{provider, providerID}
	if _, ok := m.byUser[uk]; ok {
		return nil, ErrAlreadyLinked
	}
	if _, ok := m.byExternal[ek]; ok {
		return nil, ErrAlreadyLinked
	}

	link := &models.ProviderToken{ID: uuid.New(), UserID: userID, Provider: provider, ProviderID: providerID, ProviderToken: token}
	m.byUser[uk] = link
	m.byExternal[ek] = link
	return link, nil
}

func (m *memoryLinks) Unlink(_ context.Context, userID uuid.UUID, provider string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	uk := linkKey{userID.String(), provider}
	link, ok := m.byUser[uk]
	if !ok {
		return false, nil
	}
	delete(m.byUser, uk)
	delete(m.byExternal, linkKey{provider, link.ProviderID})
	return true, nil
}

func (m *memoryLinks) get(userID uuid.UUID, provider string) *models.ProviderToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byUser[linkKey{userID.String(), provider}]
}

type fakeSessions struct {
	issued  int
	revoked []uuid.UUID
}

func (f *fakeSessions) Issue(_ context.Context, user *models.User) (*TokenPair, error) {
	f.issued++
	return &TokenPair{AccessToken: "access-" + user.UniqID, RefreshToken: "refresh-" + user.UniqID, ExpiresIn: 900}, nil
}

func (f *fakeSessions) RevokeAll(_ context.Context, userID uuid.UUID) error {
	f.revoked = append(f.revoked, userID)
	return nil
}

type fakeSetupTokens map[string]uuid.UUID

func (f fakeSetupTokens) ValidatePasswordSetupToken(token string) (uuid.UUID, error) {
	id, ok := f[token]
	if !ok {
		return uuid.Nil, errors.New("invalid password_setup token")
	}
	return id, nil
}

type accountFixture struct {
	svc      *AccountService
	users    *memoryUsers
	links    *memoryLinks
	sessions *fakeSessions
	tokens   fakeSetupTokens
	rec      *eventRecorder
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	rec := &eventRecorder{}
	f := &accountFixture{
		users:    newMemoryUsers(rec),
		links:    newMemoryLinks(),
		sessions: &fakeSessions{},
		tokens:   fakeSetupTokens{},
		rec:      rec,
	}
	f.svc = NewAccountService(f.users, f.links, f.sessions, f.tokens, rec, testDefaults)
	return f
}

func (f *accountFixture) seed(t *testing.T, role, email, password string) *models.User {
	t.Helper()
	user, err := f.users.Create(context.Background(), UserAttributes{
		Civility:  models.CivilityMrs,
		FirstName: "Misty",
		LastName:  "Waterflower",
		Email:     email,
		Password:  password,
		Role:      role,
		Locale:    models.LocaleEN,
		Timezone:  "UTC",
	})
	require.NoError(t, err)
	f.rec.Reset()
	return user
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Civility:             "mr",
		FirstName:            "Ash",
		LastName:             "Ketchum",
		Email:                "ash@example.com",
		Password:             "pikachu123",
		PasswordConfirmation: "pikachu123",
	}
}

func strPtr(s string) *string { return &s }

func TestAccountService_RegisterUser(t *testing.T) {
	f := newAccountFixture(t)

	user, pair, err := f.svc.RegisterUser(context.Background(), validRegistration())

	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)
	require.True(t, user.HasPassword())
	assert.NotEqual(t, "pikachu123", *user.Password)
	assert.True(t, CheckPassword(user.Password, "pikachu123"))
	require.NotNil(t, user.Profile)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, 1, f.sessions.issued)

	created := f.rec.OfType(events.UserCreated)
	require.Len(t, created, 1)
	assert.Equal(t, events.OriginRegistration, created[0].Origin)
}

func TestAccountService_RegisterUser_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
		field  string
		msg    string
	}{
		{"missing password", func(in *RegisterInput) { in.Password = ""; in.PasswordConfirmation = "" }, "password", "The password field is required."},
		{"short password", func(in *RegisterInput) { in.Password = "pika"; in.PasswordConfirmation = "pika" }, "password", "The password must be at least 8 characters."},
		{"confirmation mismatch", func(in *RegisterInput) { in.PasswordConfirmation = "raichu123" }, "password", "The password confirmation does not match."},
		{"missing first name", func(in *RegisterInput) { in.FirstName = "" }, "first_name", "The first name field is required."},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email", "The email must be a valid email address."},
		{"bad civility", func(in *RegisterInput) { in.Civility = "sir" }, "civility", "The selected civility is invalid."},
		{"bad timezone", func(in *RegisterInput) { in.Timezone = "Mars/Olympus" }, "timezone", "The timezone must be a valid zone."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAccountFixture(t)
			in := validRegistration()
			tt.mutate(&in)

			_, _, err := f.svc.RegisterUser(context.Background(), in)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.msg, verr.Fields[tt.field])
			assert.Empty(t, f.rec.Events())
			assert.Zero(t, f.sessions.issued)
		})
	}
}

func TestAccountService_RegisterUser_DuplicateEmail(t *testing.T) {
	f := newAccountFixture(t)
	f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")

	_, _, err := f.svc.RegisterUser(context.Background(), validRegistration())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "The email has already been taken.", verr.Fields["email"])
}

func TestAccountService_CreateUserByAdministrator(t *testing.T) {
	f := newAccountFixture(t)
	admin := f.seed(t, models.RoleAdministrator, "oak@example.com", "professor")

	user, err := f.svc.CreateUserByAdministrator(context.Background(), admin, AdminCreateInput{
		Civility:  "ms",
		FirstName: "Serena",
		LastName:  "Yvonne",
		Email:     "serena@example.com",
	})

	require.NoError(t, err)
	assert.Nil(t, user.Password)
	assert.Equal(t, testDefaults.Role, user.Role)
	assert.Equal(t, testDefaults.Locale, user.Locale)
	assert.Equal(t, testDefaults.Timezone, user.Timezone)
	assert.Zero(t, f.sessions.issued)

	created := f.rec.OfType(events.UserCreated)
	require.Len(t, created, 1)
	assert.Equal(t, events.OriginAdministrator, created[0].Origin)
}

func TestAccountService_CreateUserByAdministrator_RequiresAdministrator(t *testing.T) {
	f := newAccountFixture(t)
	customer := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")

	_, err := f.svc.CreateUserByAdministrator(context.Background(), customer, AdminCreateInput{
		Civility: "mr", FirstName: "Gary", LastName: "Oak", Email: "gary@example.com",
	})

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAccountService_IsUserDeletingHisOwnAccount(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	admin := f.seed(t, models.RoleAdministrator, "oak@example.com", "professor")
	other := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")

	assert.True(t, f.svc.IsUserDeletingHisOwnAccount(ctx, admin, admin))
	assert.Len(t, f.rec.OfType(events.UserTriedToDeleteHisOwnAccount), 1)
	assert.Len(t, f.rec.Events(), 1)

	f.rec.Reset()
	assert.False(t, f.svc.IsUserDeletingHisOwnAccount(ctx, admin, other))
	assert.False(t, f.svc.IsUserDeletingHisOwnAccount(ctx, other, other))
	assert.Empty(t, f.rec.Events())
}

func TestAccountService_DeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("administrator deleting self is blocked", func(t *testing.T) {
		f := newAccountFixture(t)
		admin := f.seed(t, models.RoleAdministrator, "oak@example.com", "professor")

		_, err := f.svc.DeleteUser(ctx, admin, admin.UniqID)

		assert.ErrorIs(t, err, ErrSelfDeletion)
		assert.Len(t, f.rec.OfType(events.UserTriedToDeleteHisOwnAccount), 1)
		assert.Empty(t, f.rec.OfType(events.UserDeleted))
		_, err = f.users.GetByID(ctx, admin.ID)
		assert.NoError(t, err)
	})

	t.Run("administrator deletes another user", func(t *testing.T) {
		f := newAccountFixture(t)
		admin := f.seed(t, models.RoleAdministrator, "oak@example.com", "professor")
		other := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")

		deleted, err := f.svc.DeleteUser(ctx, admin, other.UniqID)

		require.NoError(t, err)
		assert.True(t, deleted.IsDeleted())
		assert.Len(t, f.rec.OfType(events.UserDeleted), 1)
		assert.Empty(t, f.rec.OfType(events.UserTriedToDeleteHisOwnAccount))
	})

	t.Run("customer cannot delete someone else", func(t *testing.T) {
		f := newAccountFixture(t)
		customer := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")
		other := f.seed(t, models.RoleCustomer, "brock@example.com", "onix12345")

		_, err := f.svc.DeleteUser(ctx, customer, other.UniqID)

		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("customer deletes own account", func(t *testing.T) {
		f := newAccountFixture(t)
		customer := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")

		_, err := f.svc.DeleteUser(ctx, customer, customer.UniqID)

		require.NoError(t, err)
		_, err = f.svc.DeleteUser(ctx, customer, customer.UniqID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAccountService_UpdateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("owner updates own names", func(t *testing.T) {
		f := newAccountFixture(t)
		customer := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")

		updated, err := f.svc.UpdateUser(ctx, customer, customer.UniqID, UpdateInput{
			FirstName:  strPtr("Satoshi"),
			FriendCode: strPtr("123456789012"),
			TeamColor:  strPtr("red"),
		})

		require.NoError(t, err)
		assert.Equal(t, "Satoshi", updated.FirstName)
		assert.Equal(t, customer.UniqID, updated.UniqID)
		assert.Equal(t, "123456789012", updated.Profile.FriendCode)
		assert.Len(t, f.rec.OfType(events.UserUpdated), 1)
	})

	t.Run("owner cannot change email or role", func(t *testing.T) {
		f := newAccountFixture(t)
		customer := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")

		_, err := f.svc.UpdateUser(ctx, customer, customer.UniqID, UpdateInput{Role: strPtr(models.RoleAdministrator)})
		assert.ErrorIs(t, err, ErrUnauthorized)

		_, err = f.svc.UpdateUser(ctx, customer, customer.UniqID, UpdateInput{Email: strPtr("new@example.com")})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("customer cannot update someone else", func(t *testing.T) {
		f := newAccountFixture(t)
		customer := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")
		other := f.seed(t, models.RoleCustomer, "brock@example.com", "onix12345")

		_, err := f.svc.UpdateUser(ctx, customer, other.UniqID, UpdateInput{FirstName: strPtr("Takeshi")})

		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("administrator changes email and role", func(t *testing.T) {
		f := newAccountFixture(t)
		admin := f.seed(t, models.RoleAdministrator, "oak@example.com", "professor")
		other := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")

		updated, err := f.svc.UpdateUser(ctx, admin, other.UniqID, UpdateInput{
			Email: strPtr("ketchum@example.com"),
			Role:  strPtr(models.RoleAdministrator),
		})

		require.NoError(t, err)
		assert.Equal(t, "ketchum@example.com", updated.Email)
		assert.True(t, updated.IsAdministrator())
	})

	t.Run("invalid friend code", func(t *testing.T) {
		f := newAccountFixture(t)
		customer := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")

		_, err := f.svc.UpdateUser(ctx, customer, customer.UniqID, UpdateInput{FriendCode: strPtr("12ab")})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "friend_code")
	})

	t.Run("owner clears friend code and team color", func(t *testing.T) {
		f := newAccountFixture(t)
		customer := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")
		_, err := f.svc.UpdateUser(ctx, customer, customer.UniqID, UpdateInput{
			FriendCode: strPtr("123456789012"),
			TeamColor:  strPtr(models.TeamYellow),
		})
		require.NoError(t, err)

		updated, err := f.svc.UpdateUser(ctx, customer, customer.UniqID, UpdateInput{
			FriendCode: strPtr(""),
			TeamColor:  strPtr(""),
		})

		require.NoError(t, err)
		assert.Empty(t, updated.Profile.FriendCode)
		assert.Empty(t, updated.Profile.TeamColor)
	})

	t.Run("invalid team color", func(t *testing.T) {
		f := newAccountFixture(t)
		customer := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")

		_, err := f.svc.UpdateUser(ctx, customer, customer.UniqID, UpdateInput{TeamColor: strPtr("green")})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "The selected team color is invalid.", verr.Fields["team_color"])
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newAccountFixture(t)
		admin := f.seed(t, models.RoleAdministrator, "oak@example.com", "professor")

		_, err := f.svc.UpdateUser(ctx, admin, "missing", UpdateInput{})

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAccountService_UpdatePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("success refreshes the session", func(t *testing.T) {
		f := newAccountFixture(t)
		customer := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")

		pair, err := f.svc.UpdatePassword(ctx, customer, customer.UniqID, PasswordInput{
			PasswordCurrent:      "pikachu123",
			Password:             "charizard1",
			PasswordConfirmation: "charizard1",
		})

		require.NoError(t, err)
		assert.NotNil(t, pair)
		assert.Equal(t, []uuid.UUID{customer.ID}, f.sessions.revoked)
		assert.Len(t, f.rec.OfType(events.UserRefreshSession), 1)

		stored, err := f.users.GetByID(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, CheckPassword(stored.Password, "charizard1"))
	})

	t.Run("wrong current password", func(t *testing.T) {
		f := newAccountFixture(t)
		customer := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")

		_, err := f.svc.UpdatePassword(ctx, customer, customer.UniqID, PasswordInput{
			PasswordCurrent:      "squirtle1",
			Password:             "charizard1",
			PasswordConfirmation: "charizard1",
		})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "The password entered is not your password.", verr.Fields["password_current"])
		assert.Empty(t, f.rec.Events())
	})

	t.Run("missing current password", func(t *testing.T) {
		f := newAccountFixture(t)
		customer := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")

		_, err := f.svc.UpdatePassword(ctx, customer, customer.UniqID, PasswordInput{
			Password:             "charizard1",
			PasswordConfirmation: "charizard1",
		})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "The current password field is required.", verr.Fields["password_current"])
	})

	t.Run("cannot change someone else's password", func(t *testing.T) {
		f := newAccountFixture(t)
		admin := f.seed(t, models.RoleAdministrator, "oak@example.com", "professor")
		other := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")

		_, err := f.svc.UpdatePassword(ctx, admin, other.UniqID, PasswordInput{
			PasswordCurrent:      "professor",
			Password:             "charizard1",
			PasswordConfirmation: "charizard1",
		})

		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestAccountService_SetupPassword(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	admin := f.seed(t, models.RoleAdministrator, "oak@example.com", "professor")
	user, err := f.svc.CreateUserByAdministrator(ctx, admin, AdminCreateInput{
		Civility: "ms", FirstName: "Serena", LastName: "Yvonne", Email: "serena@example.com",
	})
	require.NoError(t, err)
	f.tokens["setup-token"] = user.ID

	in := SetupPasswordInput{Token: "setup-token", Password: "fennekin1", PasswordConfirmation: "fennekin1"}

	_, _, err = f.svc.Login(ctx, "serena@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unset password never matches")

	got, pair, err := f.svc.SetupPassword(ctx, in)
	require.NoError(t, err)
	assert.True(t, got.HasPassword())
	assert.NotNil(t, pair)
	assert.Len(t, f.rec.OfType(events.UserRefreshSession), 1)

	_, _, err = f.svc.SetupPassword(ctx, in)
	assert.ErrorIs(t, err, ErrPasswordAlreadySet)

	_, _, err = f.svc.Login(ctx, "serena@example.com", "fennekin1")
	assert.NoError(t, err)

	_, _, err = f.svc.SetupPassword(ctx, SetupPasswordInput{Token: "forged", Password: "fennekin1", PasswordConfirmation: "fennekin1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccountService_Login(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")

	user, pair, err := f.svc.Login(ctx, "ASH@example.com", "pikachu123")
	require.NoError(t, err)
	assert.Equal(t, "ash@example.com", user.Email)
	assert.NotNil(t, pair)

	_, _, err = f.svc.Login(ctx, "ash@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = f.svc.Login(ctx, "nobody@example.com", "pikachu123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccountService_RefreshSession(t *testing.T) {
	f := newAccountFixture(t)
	user := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")
	before := *user

	pair, err := f.svc.RefreshSession(context.Background(), user)

	require.NoError(t, err)
	assert.NotNil(t, pair)
	assert.Equal(t, before, *user)
	refreshed := f.rec.OfType(events.UserRefreshSession)
	require.Len(t, refreshed, 1)
	assert.Equal(t, user.ID, refreshed[0].User.ID)
}

func TestAccountService_LinkProviderAccount(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	user := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")
	other := f.seed(t, models.RoleCustomer, "brock@example.com", "onix12345")

	link, err := f.svc.LinkProviderAccount(ctx, user, models.ProviderTwitter, "X", "token-1")
	require.NoError(t, err)
	assert.Equal(t, "X", link.ProviderID)
	assert.Len(t, f.rec.OfType(events.ProviderLinked), 1)

	_, err = f.svc.LinkProviderAccount(ctx, user, models.ProviderTwitter, "Y", "token-2")
	assert.ErrorIs(t, err, ErrAlreadyLinked)

	stored := f.links.get(user.ID, models.ProviderTwitter)
	require.NotNil(t, stored)
	assert.Equal(t, "X", stored.ProviderID)
	assert.Equal(t, "token-1", stored.ProviderToken)

	_, err = f.svc.LinkProviderAccount(ctx, other, models.ProviderTwitter, "X", "token-3")
	assert.ErrorIs(t, err, ErrAlreadyLinked, "external identity already belongs to another account")

	_, err = f.svc.LinkProviderAccount(ctx, user, "myspace", "X", "token")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	assert.Len(t, f.rec.OfType(events.ProviderLinked), 1)
}

func TestAccountService_UnlinkProviderAccount(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	user := f.seed(t, models.RoleCustomer, "ash@example.com", "pikachu123")
	other := f.seed(t, models.RoleCustomer, "brock@example.com", "onix12345")

	_, err := f.svc.LinkProviderAccount(ctx, user, models.ProviderGitHub, "gh-1", "token")
	require.NoError(t, err)
	f.rec.Reset()

	require.NoError(t, f.svc.UnlinkProviderAccount(ctx, user, user.UniqID, models.ProviderGitHub))
	require.NoError(t, f.svc.UnlinkProviderAccount(ctx, user, user.UniqID, models.ProviderGitHub))
	assert.Len(t, f.rec.OfType(events.ProviderUnlinked), 1)
	assert.Nil(t, f.links.get(user.ID, models.ProviderGitHub))

	err = f.svc.UnlinkProviderAccount(ctx, other, user.UniqID, models.ProviderGitHub)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAccountService_Options(t *testing.T) {
	f := newAccountFixture(t)

	opts := f.svc.Options()

	assert.ElementsMatch(t, []string{"administrator", "customer"}, opts.Roles)
	assert.ElementsMatch(t, []string{"mr", "mrs", "ms"}, opts.Civilities)
	assert.Contains(t, opts.Providers, "twitter")
}

func TestLinkMessages(t *testing.T) {
	assert.Equal(t,
		"The link between your twitter account and your user account is correctly completed",
		LinkSuccessMessage(models.ProviderTwitter))
	assert.Equal(t,
		"The link of your github account with your user account could not be done",
		LinkFailureMessage(models.ProviderGitHub))
}
