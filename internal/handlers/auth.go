package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dimitrije/trainerhub/internal/middleware"
	"github.com/dimitrije/trainerhub/internal/oauth"
	"github.com/dimitrije/trainerhub/internal/services"
	"github.com/dimitrije/trainerhub/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type AuthHandler struct {
	providers   ProviderRegistry
	accounts    AccountServiceInterface
	users       UserServiceInterface
	sessions    SessionServiceInterface
	stateExpiry time.Duration
	log         *zap.Logger
	states      sync.Map
}

// linkState remembers who started a provider link and the PKCE verifier
// bound to it.
type linkState struct {
	userID    uuid.UUID
	verifier  string
	expiresAt time.Time
}

func NewAuthHandler(
	providers ProviderRegistry,
	accounts AccountServiceInterface,
	users UserServiceInterface,
	sessions SessionServiceInterface,
	stateExpiry time.Duration,
	log *zap.Logger,
) *AuthHandler {
	h := &AuthHandler{
		providers:   providers,
		accounts:    accounts,
		users:       users,
		sessions:    sessions,
		stateExpiry: stateExpiry,
		log:         log,
	}

	go h.cleanupStates()

	return h
}

func (h *AuthHandler) cleanupStates() {
	ticker := time.NewTicker(time.Minute)
	for range ticker.C {
		h.purgeExpiredStates(time.Now())
	}
}

func (h *AuthHandler) purgeExpiredStates(now time.Time) {
	h.states.Range(func(key, value any) bool {
		if ls, ok := value.(linkState); ok && now.After(ls.expiresAt) {
			h.states.Delete(key)
		}
		return true
	})
}

func (h *AuthHandler) Register(c *drift.Context) {
	var req services.RegisterInput
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	user, pair, err := h.accounts.RegisterUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err, "failed to register user")
		return
	}

	_ = c.JSON(http.StatusCreated, toAuthResponse(user, pair))
}

func (h *AuthHandler) Login(c *drift.Context) {
	var req dto.LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		c.BadRequest("email and password are required")
		return
	}

	user, pair, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err, "failed to log in")
		return
	}

	_ = c.JSON(http.StatusOK, toAuthResponse(user, pair))
}

func (h *AuthHandler) SetupPassword(c *drift.Context) {
	var req services.SetupPasswordInput
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	user, pair, err := h.accounts.SetupPassword(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err, "failed to set password")
		return
	}

	_ = c.JSON(http.StatusOK, toAuthResponse(user, pair))
}

func (h *AuthHandler) RefreshToken(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken == "" {
		c.BadRequest("refresh_token is required")
		return
	}

	pair, _, err := h.sessions.Rotate(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.log, err, "failed to refresh session")
		return
	}

	_ = c.JSON(http.StatusOK, toTokenResponse(pair))
}

func (h *AuthHandler) Logout(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken != "" {
		if err := h.sessions.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
			h.log.Warn("failed to revoke refresh token", zap.Error(err))
		}
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) LogoutAll(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.sessions.RevokeAll(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err, "failed to revoke tokens")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "all sessions logged out"})
}

// Consent starts linking the authenticated user to an external provider.
func (h *AuthHandler) Consent(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	provider := c.Param("provider")
	p, ok := h.providers.Get(provider)
	if !ok {
		c.BadRequest("unsupported provider: " + provider)
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		c.InternalServerError("failed to generate state")
		return
	}
	verifier := oauth.GenerateVerifier()

	h.states.Store(state, linkState{
		userID:    userID,
		verifier:  verifier,
		expiresAt: time.Now().Add(h.stateExpiry),
	})

	_ = c.JSON(http.StatusOK, dto.ConsentURLResponse{
		URL: p.GetConsentURL(state, verifier),
	})
}

// Callback completes a provider link. The outcome is always reported with
// the message-success or message-error key.
func (h *AuthHandler) Callback(c *drift.Context) {
	provider := c.Param("provider")
	failure := dto.LinkResultResponse{Error: services.LinkFailureMessage(provider)}

	p, ok := h.providers.Get(provider)
	if !ok {
		_ = c.JSON(http.StatusBadRequest, failure)
		return
	}

	if errMsg := c.QueryParam("error"); errMsg != "" {
		h.log.Info("provider denied consent", zap.String("provider", provider), zap.String("error", errMsg))
		_ = c.JSON(http.StatusBadRequest, failure)
		return
	}

	raw, ok := h.states.LoadAndDelete(c.QueryParam("state"))
	if !ok {
		_ = c.JSON(http.StatusBadRequest, failure)
		return
	}
	state, ok := raw.(linkState)
	if !ok || time.Now().After(state.expiresAt) {
		_ = c.JSON(http.StatusBadRequest, failure)
		return
	}

	code := c.QueryParam("code")
	if code == "" {
		_ = c.JSON(http.StatusBadRequest, failure)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	info, err := p.ExchangeCode(ctx, code, state.verifier)
	if err != nil {
		h.log.Warn("failed to exchange provider code", zap.String("provider", provider), zap.Error(err))
		_ = c.JSON(http.StatusBadGateway, failure)
		return
	}

	user, err := h.users.GetByID(ctx, state.userID)
	if err != nil {
		_ = c.JSON(http.StatusNotFound, failure)
		return
	}

	if _, err := h.accounts.LinkProviderAccount(ctx, user, provider, info.ID, info.AccessToken); err != nil {
		if errors.Is(err, services.ErrAlreadyLinked) {
			_ = c.JSON(http.StatusConflict, failure)
			return
		}
		h.log.Error("failed to link provider account", zap.String("provider", provider), zap.Error(err))
		_ = c.JSON(http.StatusInternalServerError, failure)
		return
	}

	_ = c.JSON(http.StatusOK, dto.LinkResultResponse{Success: services.LinkSuccessMessage(provider)})
}
