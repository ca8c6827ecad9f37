package handler

import (
	"log/slog"
	"net/http"

	"playlist_service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type verifyPinRequest struct {
	ProfileID uuid.UUID `json:"profileId"`
	Pin       string    `json:"pin"`
}

// POST /api/restricted_users
func (h *Handler) CreateProfile(c *gin.Context) {
	const op = "handler.CreateProfile"

	log := h.log.With(slog.String("op", op))

	var in service.ProfileInput
	if !bindBody(c, log, &in) {
		return
	}

	prof, err := h.serviceLayer.CreateProfile(c.Request.Context(), principal(c), in)
	if err != nil {
		fail(c, log, err)

		return
	}

	setLocation(c, "restricted_users", prof.ID)
	c.JSON(http.StatusCreated, prof)
}

// GET /api/restricted_users, GET /api/public/profiles
func (h *Handler) ListProfiles(c *gin.Context) {
	const op = "handler.ListProfiles"

	log := h.log.With(slog.String("op", op))

	profiles, err := h.serviceLayer.ListProfiles(c.Request.Context(), principal(c))
	if err != nil {
		fail(c, log, err)

		return
	}

	c.JSON(http.StatusOK, profiles)
}

// DELETE /api/restricted_users?id=
func (h *Handler) DeleteProfile(c *gin.Context) {
	const op = "handler.DeleteProfile"

	log := h.log.With(slog.String("op", op))

	id, ok := requiredID(c, "id")
	if !ok {
		return
	}

	if err := h.serviceLayer.DeleteProfile(c.Request.Context(), principal(c), id); err != nil {
		fail(c, log, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// POST /api/public/verify-pin
func (h *Handler) VerifyPin(c *gin.Context) {
	const op = "handler.VerifyPin"

	log := h.log.With(slog.String("op", op))

	var req verifyPinRequest
	if !bindBody(c, log, &req) {
		return
	}

	prof, err := h.serviceLayer.VerifyPin(c.Request.Context(), principal(c), req.ProfileID, req.Pin)
	if err != nil {
		fail(c, log, err)

		return
	}

	c.JSON(http.StatusOK, prof)
}
