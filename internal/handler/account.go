package handler

import (
	"log/slog"
	"net/http"

	"playlist_service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /api/users
func (h *Handler) Register(c *gin.Context) {
	const op = "handler.Register"

	log := h.log.With(slog.String("op", op))

	var in service.RegisterInput
	if !bindBody(c, log, &in) {
		return
	}

	acc, err := h.serviceLayer.Register(c.Request.Context(), in)
	if err != nil {
		fail(c, log, err)

		return
	}

	setLocation(c, "users", acc.ID)
	c.JSON(http.StatusCreated, acc)
}

// GET /api/users/confirm?id=
func (h *Handler) ConfirmEmail(c *gin.Context) {
	const op = "handler.ConfirmEmail"

	log := h.log.With(slog.String("op", op))

	page := func(status int, title, message string) {
		c.HTML(status, "confirm.html", gin.H{"Title": title, "Message": message})
	}

	raw := c.Query("id")
	if raw == "" {
		page(http.StatusBadRequest, "Confirmation failed", "The confirmation link is incomplete.")

		return
	}

	id, err := uuid.FromString(raw)
	if err != nil {
		page(http.StatusNotFound, "Confirmation failed", "This account doesn't exist.")

		return
	}

	if err := h.serviceLayer.ConfirmEmail(c.Request.Context(), id); err != nil {
		switch service.KindOf(err) {
		case service.KindNotFound:
			page(http.StatusNotFound, "Confirmation failed", "This account doesn't exist.")
		default:
			log.Error("failed to confirm email", slog.Any("error", err))

			page(http.StatusInternalServerError, "Confirmation failed", "Something went wrong, please try again later.")
		}

		return
	}

	page(http.StatusOK, "Email confirmed", "Your account is active. You can now sign in.")
}

// POST /api/session
func (h *Handler) Login(c *gin.Context) {
	const op = "handler.Login"

	log := h.log.With(slog.String("op", op))

	var req loginRequest
	if !bindBody(c, log, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		newErrorResponse(c, http.StatusUnprocessableEntity, "username and password are required")

		return
	}

	token, err := h.serviceLayer.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.metrics.Logins.WithLabelValues(service.KindOf(err).String()).Inc()

		fail(c, log, err)

		return
	}

	h.metrics.Logins.WithLabelValues("ok").Inc()

	c.JSON(http.StatusCreated, tokenResponse{Token: token})
}

// DELETE /api/session
func (h *Handler) Logout(c *gin.Context) {
	const op = "handler.Logout"

	log := h.log.With(slog.String("op", op))

	p := principal(c)
	if err := h.serviceLayer.Logout(c.Request.Context(), p); err != nil {
		fail(c, log, err)

		return
	}

	log.Info("user logout", slog.String("account_id", p.ID.String()))

	c.Status(http.StatusNoContent)
}

// GET /api/users?id=
func (h *Handler) GetAccount(c *gin.Context) {
	const op = "handler.GetAccount"

	log := h.log.With(slog.String("op", op))

	id, ok := requiredID(c, "id")
	if !ok {
		return
	}

	acc, err := h.serviceLayer.GetAccount(c.Request.Context(), principal(c), id)
	if err != nil {
		fail(c, log, err)

		return
	}

	c.JSON(http.StatusOK, acc)
}

// PATCH /api/users?id=
func (h *Handler) UpdateAccount(c *gin.Context) {
	const op = "handler.UpdateAccount"

	log := h.log.With(slog.String("op", op))

	id, ok := requiredID(c, "id")
	if !ok {
		return
	}

	var upd service.AccountUpdate
	if !bindBody(c, log, &upd) {
		return
	}

	acc, err := h.serviceLayer.UpdateAccount(c.Request.Context(), principal(c), id, upd)
	if err != nil {
		fail(c, log, err)

		return
	}

	c.JSON(http.StatusOK, acc)
}

// DELETE /api/users?id=
func (h *Handler) DeleteAccount(c *gin.Context) {
	const op = "handler.DeleteAccount"

	log := h.log.With(slog.String("op", op))

	id, ok := requiredID(c, "id")
	if !ok {
		return
	}

	if err := h.serviceLayer.DeleteAccount(c.Request.Context(), principal(c), id); err != nil {
		fail(c, log, err)

		return
	}

	c.Status(http.StatusNoContent)
}
