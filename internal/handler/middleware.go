package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"playlist_service/internal/auth"
	"playlist_service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	guuid "github.com/google/uuid"
)

// requestLogger tags every request with an id and logs it once it completes.
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = guuid.NewString()
		}
		c.Header(headerRequestID, requestID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)

		h.metrics.RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).
			Observe(latency.Seconds())

		h.log.Info("request completed",
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", latency),
		)
	}
}

// bearerToken extracts the token from an Authorization header. An empty
// header yields an empty token; a header of any other scheme is malformed.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", true
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	return strings.TrimSpace(parts[1]), true
}

func (h *Handler) observeIdentity(kind auth.PrincipalKind, result string) {
	h.metrics.IdentityResolutions.WithLabelValues(kind.String(), result).Inc()
}

// resolveAdmin runs the bearer path. It reports false after writing the
// error response.
func (h *Handler) resolveAdmin(c *gin.Context, log *slog.Logger) (auth.Principal, bool) {
	token, ok := bearerToken(c.GetHeader(headerAuthorization))
	if !ok {
		h.observeIdentity(auth.KindAdmin, "invalid")

		newErrorResponse(c, http.StatusUnauthorized, "invalid authorization header")

		return auth.Principal{}, false
	}

	p, err := h.serviceLayer.ResolveToken(c.Request.Context(), token)
	if err != nil {
		h.observeIdentity(auth.KindAdmin, service.ReasonOf(err))

		fail(c, log, err)

		return auth.Principal{}, false
	}

	h.observeIdentity(auth.KindAdmin, "ok")

	return p, true
}

func attach(c *gin.Context, p auth.Principal) {
	c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
}

// adminAuth admits only requests carrying a valid, unrevoked bearer token.
func (h *Handler) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		const op = "handler.adminAuth"

		log := h.log.With(slog.String("op", op))

		p, ok := h.resolveAdmin(c, log)
		if !ok {
			return
		}

		attach(c, p)

		c.Next()
	}
}

// adminOrRestricted admits an admin by bearer token or a restricted profile
// by PIN. With both present the PIN selects one of that admin's profiles and
// the request proceeds as the profile; this departs from admin-takes-precedence
// so a wrong PIN is rejected even alongside a valid token.
func (h *Handler) adminOrRestricted() gin.HandlerFunc {
	return func(c *gin.Context) {
		const op = "handler.adminOrRestricted"

		log := h.log.With(slog.String("op", op))

		hasBearer := c.GetHeader(headerAuthorization) != ""
		pin := c.GetHeader(headerRestrictedPin)

		if !hasBearer && pin == "" {
			h.observeIdentity(auth.KindAnonymous, "missing")

			newErrorResponse(c, http.StatusUnauthorized, "authorization token or PIN required")

			return
		}

		adminID := uuid.Nil
		if hasBearer {
			admin, ok := h.resolveAdmin(c, log)
			if !ok {
				return
			}
			if pin == "" {
				attach(c, admin)
				c.Next()

				return
			}
			adminID = admin.ID
		}

		p, err := h.serviceLayer.ResolvePin(c.Request.Context(), pin, adminID)
		if err != nil {
			h.observeIdentity(auth.KindRestricted, service.ReasonOf(err))

			fail(c, log, err)

			return
		}

		h.observeIdentity(auth.KindRestricted, "ok")

		attach(c, p)

		c.Next()
	}
}
