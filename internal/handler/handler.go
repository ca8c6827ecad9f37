package handler

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"playlist_service/internal/auth"
	"playlist_service/internal/metrics"
	"playlist_service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	headerAuthorization = "Authorization"
	headerRestrictedPin = "x-restricted-pin"
	headerRequestID     = "X-Request-ID"
)

type Handler struct {
	serviceLayer service.Service
	metrics      *metrics.Metrics
	log          *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func newErrorResponse(c *gin.Context, statusCode int, errMessage string) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Error: errMessage})
}

func NewHandler(srvc service.Service, m *metrics.Metrics, lgr *slog.Logger) *Handler {
	if m == nil {
		m = metrics.New()
	}

	return &Handler{
		serviceLayer: srvc,
		metrics:      m,
		log:          lgr,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))
	router.Use(gin.Recovery(), h.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	api := router.Group("/api")
	{
		api.POST("/users", h.Register)
		api.GET("/users/confirm", h.ConfirmEmail)
		api.POST("/session", h.Login)
	}

	admin := api.Group("", h.adminAuth())
	{
		admin.DELETE("/session", h.Logout)

		admin.GET("/users", h.GetAccount)
		admin.PATCH("/users", h.UpdateAccount)
		admin.DELETE("/users", h.DeleteAccount)

		admin.POST("/playlists", h.CreatePlaylist)
		admin.PATCH("/playlists", h.UpdatePlaylist)
		admin.DELETE("/playlists", h.DeletePlaylist)

		admin.POST("/videos", h.CreateVideo)
		admin.PATCH("/videos", h.UpdateVideo)
		admin.DELETE("/videos", h.DeleteVideo)

		admin.POST("/restricted_users", h.CreateProfile)
		admin.GET("/restricted_users", h.ListProfiles)
		admin.DELETE("/restricted_users", h.DeleteProfile)

		admin.GET("/public/profiles", h.ListProfiles)
		admin.POST("/public/verify-pin", h.VerifyPin)
	}

	viewer := api.Group("", h.adminOrRestricted())
	{
		viewer.GET("/playlists", h.GetPlaylists)
		viewer.GET("/videos", h.GetVideos)
	}

	return router
}

var statusByKind = map[service.Kind]int{
	service.KindUnauthorized:  http.StatusUnauthorized,
	service.KindForbidden:     http.StatusForbidden,
	service.KindNotFound:      http.StatusNotFound,
	service.KindUnprocessable: http.StatusUnprocessableEntity,
	service.KindBadRequest:    http.StatusBadRequest,
	service.KindInternal:      http.StatusInternalServerError,
}

// fail writes the response for a service error. Internal errors are logged
// with their cause and reported to the client without it.
func fail(c *gin.Context, log *slog.Logger, err error) {
	kind := service.KindOf(err)

	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	var serr *service.Error
	if kind == service.KindInternal || !errors.As(err, &serr) {
		log.Error("request failed", slog.Any("error", err))

		newErrorResponse(c, http.StatusInternalServerError, "internal error")

		return
	}

	log.Debug("request rejected", slog.String("kind", kind.String()), slog.String("reason", service.ReasonOf(err)))

	newErrorResponse(c, status, serr.Message)
}

func principal(c *gin.Context) auth.Principal {
	return auth.FromContext(c.Request.Context())
}

// requiredID reads the uuid query parameter name. It reports false after
// writing the error response: 400 when the parameter is absent, 404 when it
// cannot name any resource.
func requiredID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		newErrorResponse(c, http.StatusBadRequest, name+" query parameter is required")

		return uuid.Nil, false
	}

	return parseID(c, raw)
}

func parseID(c *gin.Context, raw string) (uuid.UUID, bool) {
	id, err := uuid.FromString(raw)
	if err != nil {
		newErrorResponse(c, http.StatusNotFound, "resource not found")

		return uuid.Nil, false
	}

	return id, true
}

// bindBody decodes the JSON body into dst, answering 422 on malformed input.
func bindBody(c *gin.Context, log *slog.Logger, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		log.Debug("failed to read request body", slog.Any("error", err))

		newErrorResponse(c, http.StatusUnprocessableEntity, "no valid data provided")

		return false
	}

	return true
}

func setLocation(c *gin.Context, resource string, id uuid.UUID) {
	c.Header("Location", "/api/"+resource+"?id="+id.String())
}
