package handler

import (
	"log/slog"
	"net/http"

	"playlist_service/internal/service"

	"github.com/gin-gonic/gin"
)

// POST /api/videos
func (h *Handler) CreateVideo(c *gin.Context) {
	const op = "handler.CreateVideo"

	log := h.log.With(slog.String("op", op))

	var in service.VideoInput
	if !bindBody(c, log, &in) {
		return
	}

	v, err := h.serviceLayer.CreateVideo(c.Request.Context(), principal(c), in)
	if err != nil {
		fail(c, log, err)

		return
	}

	setLocation(c, "videos", v.ID)
	c.JSON(http.StatusCreated, v)
}

// GET /api/videos?id= | ?playlistId= | ?search= | (none)
func (h *Handler) GetVideos(c *gin.Context) {
	const op = "handler.GetVideos"

	log := h.log.With(slog.String("op", op))
	ctx := c.Request.Context()
	p := principal(c)

	if raw, ok := c.GetQuery("id"); ok {
		id, ok := parseID(c, raw)
		if !ok {
			return
		}

		v, err := h.serviceLayer.GetVideo(ctx, p, id)
		if err != nil {
			fail(c, log, err)

			return
		}

		c.JSON(http.StatusOK, v)

		return
	}

	if raw, ok := c.GetQuery("playlistId"); ok {
		playlistID, ok := parseID(c, raw)
		if !ok {
			return
		}

		videos, err := h.serviceLayer.ListVideosByPlaylist(ctx, p, playlistID)
		if err != nil {
			fail(c, log, err)

			return
		}

		c.JSON(http.StatusOK, videos)

		return
	}

	if query, ok := c.GetQuery("search"); ok {
		videos, err := h.serviceLayer.SearchVideos(ctx, p, query)
		if err != nil {
			fail(c, log, err)

			return
		}

		c.JSON(http.StatusOK, videos)

		return
	}

	videos, err := h.serviceLayer.ListVideos(ctx, p)
	if err != nil {
		fail(c, log, err)

		return
	}

	c.JSON(http.StatusOK, videos)
}

// PATCH /api/videos?id=
func (h *Handler) UpdateVideo(c *gin.Context) {
	const op = "handler.UpdateVideo"

	log := h.log.With(slog.String("op", op))

	id, ok := requiredID(c, "id")
	if !ok {
		return
	}

	var upd service.VideoUpdate
	if !bindBody(c, log, &upd) {
		return
	}

	v, err := h.serviceLayer.UpdateVideo(c.Request.Context(), principal(c), id, upd)
	if err != nil {
		fail(c, log, err)

		return
	}

	c.JSON(http.StatusOK, v)
}

// DELETE /api/videos?id=
func (h *Handler) DeleteVideo(c *gin.Context) {
	const op = "handler.DeleteVideo"

	log := h.log.With(slog.String("op", op))

	id, ok := requiredID(c, "id")
	if !ok {
		return
	}

	if err := h.serviceLayer.DeleteVideo(c.Request.Context(), principal(c), id); err != nil {
		fail(c, log, err)

		return
	}

	c.Status(http.StatusNoContent)
}
