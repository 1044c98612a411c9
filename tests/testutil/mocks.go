package testutil

import (
	"context"

	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/dimitrije/trainerhub/internal/oauth"
	"github.com/dimitrije/trainerhub/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockAccountService mocks the AccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) RegisterUser(ctx context.Context, in services.RegisterInput) (*models.User, *services.TokenPair, error) {
	args := m.Called(ctx, in)
	return userArg(args, 0), pairArg(args, 1), args.Error(2)
}

func (m *MockAccountService) CreateUserByAdministrator(ctx context.Context, actor *models.User, in services.AdminCreateInput) (*models.User, error) {
	args := m.Called(ctx, actor, in)
	return userArg(args, 0), args.Error(1)
}

func (m *MockAccountService) DeleteUser(ctx context.Context, actor *models.User, uniqid string) (*models.User, error) {
	args := m.Called(ctx, actor, uniqid)
	return userArg(args, 0), args.Error(1)
}

func (m *MockAccountService) UpdateUser(ctx context.Context, actor *models.User, uniqid string, in services.UpdateInput) (*models.User, error) {
	args := m.Called(ctx, actor, uniqid, in)
	return userArg(args, 0), args.Error(1)
}

func (m *MockAccountService) UpdatePassword(ctx context.Context, actor *models.User, uniqid string, in services.PasswordInput) (*services.TokenPair, error) {
	args := m.Called(ctx, actor, uniqid, in)
	return pairArg(args, 0), args.Error(1)
}

func (m *MockAccountService) SetupPassword(ctx context.Context, in services.SetupPasswordInput) (*models.User, *services.TokenPair, error) {
	args := m.Called(ctx, in)
	return userArg(args, 0), pairArg(args, 1), args.Error(2)
}

func (m *MockAccountService) Login(ctx context.Context, email, password string) (*models.User, *services.TokenPair, error) {
	args := m.Called(ctx, email, password)
	return userArg(args, 0), pairArg(args, 1), args.Error(2)
}

func (m *MockAccountService) LinkProviderAccount(ctx context.Context, user *models.User, provider, externalID, externalToken string) (*models.ProviderToken, error) {
	args := m.Called(ctx, user, provider, externalID, externalToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProviderToken), args.Error(1)
}

func (m *MockAccountService) UnlinkProviderAccount(ctx context.Context, actor *models.User, uniqid, provider string) error {
	args := m.Called(ctx, actor, uniqid, provider)
	return args.Error(0)
}

func (m *MockAccountService) Options() services.Options {
	args := m.Called()
	return args.Get(0).(services.Options)
}

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserService) FindByUniqueID(ctx context.Context, uniqid string) (*models.User, error) {
	args := m.Called(ctx, uniqid)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockUserService) ListPaginated(ctx context.Context, opts services.ListOptions) ([]*models.User, *services.Pagination, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]*models.User), args.Get(1).(*services.Pagination), args.Error(2)
}

// MockProviderTokenService mocks the ProviderTokenService
type MockProviderTokenService struct {
	mock.Mock
}

func (m *MockProviderTokenService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ProviderToken, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ProviderToken), args.Error(1)
}

// MockSessionService mocks the SessionService
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Rotate(ctx context.Context, refreshToken string) (*services.TokenPair, *models.User, error) {
	args := m.Called(ctx, refreshToken)
	return pairArg(args, 0), userArg(args, 1), args.Error(2)
}

func (m *MockSessionService) Revoke(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockSessionService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockLeadService mocks the LeadService
type MockLeadService struct {
	mock.Mock
}

func (m *MockLeadService) Submit(ctx context.Context, in services.LeadInput) (*models.Lead, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

// MockMediaService mocks media.Service
type MockMediaService struct {
	mock.Mock
}

func (m *MockMediaService) TrainerQR(ctx context.Context, user *models.User) (*models.ProfileMedia, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProfileMedia), args.Error(1)
}

func (m *MockMediaService) URL(ctx context.Context, media *models.ProfileMedia) (string, error) {
	args := m.Called(ctx, media)
	return args.String(0), args.Error(1)
}

// MockOAuthProvider mocks an oauth.Provider
type MockOAuthProvider struct {
	mock.Mock
	ProviderName string
}

func (m *MockOAuthProvider) Name() string {
	return m.ProviderName
}

func (m *MockOAuthProvider) GetConsentURL(state, verifier string) string {
	args := m.Called(state, verifier)
	return args.String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code, verifier string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code, verifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

func userArg(args mock.Arguments, i int) *models.User {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(*models.User)
}

func pairArg(args mock.Arguments, i int) *services.TokenPair {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(*services.TokenPair)
}
