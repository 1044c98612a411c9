package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dimitrije/trainerhub/internal/middleware"
	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/dimitrije/trainerhub/internal/services"
	"github.com/dimitrije/trainerhub/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type UserHandler struct {
	accounts  AccountServiceInterface
	users     UserServiceInterface
	links     ProviderTokenServiceInterface
	media     MediaServiceInterface
	providers ProviderRegistry
	log       *zap.Logger
}

func NewUserHandler(
	accounts AccountServiceInterface,
	users UserServiceInterface,
	links ProviderTokenServiceInterface,
	media MediaServiceInterface,
	providers ProviderRegistry,
	log *zap.Logger,
) *UserHandler {
	return &UserHandler{
		accounts:  accounts,
		users:     users,
		links:     links,
		media:     media,
		providers: providers,
		log:       log,
	}
}

// actor loads the authenticated user from the store. Tokens of deleted
// accounts are rejected here even though they are still signed.
func (h *UserHandler) actor(c *drift.Context) (*models.User, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return nil, false
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.Unauthorized("not authenticated")
			return nil, false
		}
		respondError(c, h.log, err, "failed to load user")
		return nil, false
	}
	return user, true
}

func (h *UserHandler) withProfile(c *drift.Context, user *models.User) *models.User {
	if user.Profile != nil {
		return user
	}
	profile, err := h.users.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			h.log.Warn("failed to load profile", zap.String("uniqid", user.UniqID), zap.Error(err))
		}
		return user
	}
	user.Profile = profile
	return user
}

func (h *UserHandler) Me(c *drift.Context) {
	user, ok := h.actor(c)
	if !ok {
		return
	}

	_ = c.JSON(http.StatusOK, toUserResponse(h.withProfile(c, user)))
}

func (h *UserHandler) Dashboard(c *drift.Context) {
	user, ok := h.actor(c)
	if !ok {
		return
	}

	links, err := h.links.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.log, err, "failed to list provider links")
		return
	}

	resp := dto.DashboardResponse{
		User:               toUserResponse(h.withProfile(c, user)),
		Providers:          make([]dto.ProviderLinkResponse, 0, len(links)),
		AvailableProviders: h.providers.Names(),
	}
	for _, l := range links {
		resp.Providers = append(resp.Providers, dto.ProviderLinkResponse{
			Provider:  l.Provider,
			Name:      models.ProviderName(l.Provider),
			CreatedAt: l.CreatedAt,
		})
	}

	_ = c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Show(c *drift.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	target, err := h.users.FindByUniqueID(c.Request.Context(), c.Param("uniqid"))
	if err != nil {
		respondError(c, h.log, err, "failed to get user")
		return
	}
	if !actor.IsAdministrator() && actor.ID != target.ID {
		c.Forbidden("insufficient permissions")
		return
	}

	_ = c.JSON(http.StatusOK, toUserResponse(h.withProfile(c, target)))
}

func (h *UserHandler) Update(c *drift.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req services.UpdateInput
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	user, err := h.accounts.UpdateUser(c.Request.Context(), actor, c.Param("uniqid"), req)
	if err != nil {
		respondError(c, h.log, err, "failed to update user")
		return
	}

	_ = c.JSON(http.StatusOK, toUserResponse(h.withProfile(c, user)))
}

func (h *UserHandler) UpdatePassword(c *drift.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req services.PasswordInput
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	pair, err := h.accounts.UpdatePassword(c.Request.Context(), actor, c.Param("uniqid"), req)
	if err != nil {
		respondError(c, h.log, err, "failed to update password")
		return
	}

	_ = c.JSON(http.StatusOK, toTokenResponse(pair))
}

func (h *UserHandler) Delete(c *drift.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if _, err := h.accounts.DeleteUser(c.Request.Context(), actor, c.Param("uniqid")); err != nil {
		respondError(c, h.log, err, "failed to delete user")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "user deleted"})
}

func (h *UserHandler) UnlinkProvider(c *drift.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if err := h.accounts.UnlinkProviderAccount(c.Request.Context(), actor, c.Param("uniqid"), c.Param("provider")); err != nil {
		respondError(c, h.log, err, "failed to unlink provider")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "provider unlinked"})
}

// List is the administrator listing. page defaults to 1, q filters by name
// and trashed=with|only widens the deleted scope.
func (h *UserHandler) List(c *drift.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	if !actor.IsAdministrator() {
		c.Forbidden("insufficient permissions")
		return
	}

	opts := services.ListOptions{
		Page:    1,
		PerPage: services.DefaultPerPage,
		Name:    c.QueryParam("q"),
	}
	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			c.BadRequest("page must be a positive integer")
			return
		}
		opts.Page = page
	}
	switch c.QueryParam("trashed") {
	case "":
	case "with":
		opts.Deleted = services.DeletedInclude
	case "only":
		opts.Deleted = services.DeletedOnly
	default:
		c.BadRequest("trashed must be one of: with, only")
		return
	}

	users, pagination, err := h.users.ListPaginated(c.Request.Context(), opts)
	if err != nil {
		respondError(c, h.log, err, "failed to list users")
		return
	}

	resp := dto.UserListResponse{
		Data: make([]dto.UserResponse, 0, len(users)),
		Meta: dto.MetaResponse{Pagination: dto.PaginationResponse{
			Total:       pagination.Total,
			Count:       pagination.Count,
			PerPage:     pagination.PerPage,
			CurrentPage: pagination.CurrentPage,
			TotalPages:  pagination.TotalPages,
		}},
	}
	for _, u := range users {
		resp.Data = append(resp.Data, toUserResponse(u))
	}

	_ = c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Create(c *drift.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req services.AdminCreateInput
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	user, err := h.accounts.CreateUserByAdministrator(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err, "failed to create user")
		return
	}

	_ = c.JSON(http.StatusCreated, toUserResponse(user))
}

func (h *UserHandler) Options(c *drift.Context) {
	_ = c.JSON(http.StatusOK, h.accounts.Options())
}

// TrainerQR is public: the QR encodes a friend code meant to be shared.
func (h *UserHandler) TrainerQR(c *drift.Context) {
	ctx := c.Request.Context()

	user, err := h.users.FindByUniqueID(ctx, c.Param("uniqid"))
	if err != nil {
		respondError(c, h.log, err, "failed to get user")
		return
	}

	m, err := h.media.TrainerQR(ctx, user)
	if err != nil {
		respondError(c, h.log, err, "failed to generate qr code")
		return
	}

	url, err := h.media.URL(ctx, m)
	if err != nil {
		respondError(c, h.log, err, "failed to sign media url")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MediaResponse{
		Collection: m.Collection,
		Name:       m.Name,
		FileName:   m.FileName,
		MimeType:   m.MimeType,
		Size:       m.Size,
		URL:        url,
		CreatedAt:  m.CreatedAt,
	})
}
