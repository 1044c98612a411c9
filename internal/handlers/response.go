package handlers

import (
	"errors"
	"net/http"

	"github.com/dimitrije/trainerhub/internal/media"
	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/dimitrije/trainerhub/internal/services"
	"github.com/dimitrije/trainerhub/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

// respondError maps service errors onto HTTP statuses. Anything it does not
// recognise is logged and answered with 500 and fallback.
func respondError(c *drift.Context, log *zap.Logger, err error, fallback string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		_ = c.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{
			Message: "The given data was invalid.",
			Errors:  verr.Fields,
		})
	case errors.Is(err, services.ErrNotFound), errors.Is(err, media.ErrUnavailable):
		c.NotFound("not found")
	case errors.Is(err, services.ErrAlreadyLinked):
		_ = c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrSelfDeletion):
		c.Forbidden(err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		c.Forbidden("insufficient permissions")
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidRefreshToken):
		c.Unauthorized(err.Error())
	case errors.Is(err, services.ErrPasswordAlreadySet), errors.Is(err, services.ErrUnknownProvider):
		c.BadRequest(err.Error())
	default:
		log.Error(fallback, zap.Error(err))
		c.InternalServerError(fallback)
	}
}

func toUserResponse(u *models.User) dto.UserResponse {
	resp := dto.UserResponse{
		UniqID:       u.UniqID,
		Civility:     u.Civility,
		CivilityName: u.CivilityName(),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		FullName:     u.FullName(),
		Email:        u.Email,
		Role:         u.Role,
		Locale:       u.Locale,
		Timezone:     u.Timezone,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		DeletedAt:    u.DeletedAt,
	}
	if u.Profile != nil {
		resp.Profile = &dto.ProfileResponse{
			FriendCode: u.Profile.FriendCode,
			TeamColor:  u.Profile.TeamColor,
		}
	}
	return resp
}

func toTokenResponse(pair *services.TokenPair) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}
}

func toAuthResponse(u *models.User, pair *services.TokenPair) dto.AuthResponse {
	return dto.AuthResponse{User: toUserResponse(u), Tokens: toTokenResponse(pair)}
}
