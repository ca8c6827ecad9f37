package handler

import (
	"log/slog"
	"net/http"

	"playlist_service/internal/service"

	"github.com/gin-gonic/gin"
)

// POST /api/playlists
func (h *Handler) CreatePlaylist(c *gin.Context) {
	const op = "handler.CreatePlaylist"

	log := h.log.With(slog.String("op", op))

	var in service.PlaylistInput
	if !bindBody(c, log, &in) {
		return
	}

	pl, err := h.serviceLayer.CreatePlaylist(c.Request.Context(), principal(c), in)
	if err != nil {
		fail(c, log, err)

		return
	}

	setLocation(c, "playlists", pl.ID)
	c.JSON(http.StatusCreated, pl)
}

// GET /api/playlists?id= | ?profileId= | (none)
func (h *Handler) GetPlaylists(c *gin.Context) {
	const op = "handler.GetPlaylists"

	log := h.log.With(slog.String("op", op))
	ctx := c.Request.Context()
	p := principal(c)

	if raw, ok := c.GetQuery("id"); ok {
		id, ok := parseID(c, raw)
		if !ok {
			return
		}

		pl, err := h.serviceLayer.GetPlaylist(ctx, p, id)
		if err != nil {
			fail(c, log, err)

			return
		}

		c.JSON(http.StatusOK, pl)

		return
	}

	if raw, ok := c.GetQuery("profileId"); ok {
		profileID, ok := parseID(c, raw)
		if !ok {
			return
		}

		playlists, err := h.serviceLayer.ListPlaylistsByProfile(ctx, p, profileID)
		if err != nil {
			fail(c, log, err)

			return
		}

		c.JSON(http.StatusOK, playlists)

		return
	}

	playlists, err := h.serviceLayer.ListPlaylists(ctx, p)
	if err != nil {
		fail(c, log, err)

		return
	}

	c.JSON(http.StatusOK, playlists)
}

// PATCH /api/playlists?id=
func (h *Handler) UpdatePlaylist(c *gin.Context) {
	const op = "handler.UpdatePlaylist"

	log := h.log.With(slog.String("op", op))

	id, ok := requiredID(c, "id")
	if !ok {
		return
	}

	var upd service.PlaylistUpdate
	if !bindBody(c, log, &upd) {
		return
	}

	pl, err := h.serviceLayer.UpdatePlaylist(c.Request.Context(), principal(c), id, upd)
	if err != nil {
		fail(c, log, err)

		return
	}

	c.JSON(http.StatusOK, pl)
}

// DELETE /api/playlists?id=
func (h *Handler) DeletePlaylist(c *gin.Context) {
	const op = "handler.DeletePlaylist"

	log := h.log.With(slog.String("op", op))

	id, ok := requiredID(c, "id")
	if !ok {
		return
	}

	if err := h.serviceLayer.DeletePlaylist(c.Request.Context(), principal(c), id); err != nil {
		fail(c, log, err)

		return
	}

	c.Status(http.StatusNoContent)
}
