package handler

import (
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/BloggingApp/chirp-service/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	ClientOrigin string
	SignInURL    string
	AccessSecret []byte
	// Now defaults to time.Now and only drives relative timestamps on pages.
	Now func() time.Time
}

type Handler struct {
	services *service.Service
	logger   *zap.Logger
	cfg      Config
	pingers  map[string]Pinger
}

func New(services *service.Service, logger *zap.Logger, cfg Config, pingers map[string]Pinger) *Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Handler{
		services: services,
		logger:   logger,
		cfg:      cfg,
		pingers:  pingers,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.SetHTMLTemplate(template.Must(
		template.New("").Funcs(h.templateFuncs()).ParseFS(templatesFS, "templates/*.html"),
	))

	if h.cfg.ClientOrigin != "" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{h.cfg.ClientOrigin},
			AllowMethods:     []string{"POST", "GET"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", h.healthz)

	v1 := r.Group("/api/v1")
	{
		posts := v1.Group("/posts")
		{
			posts.GET("", h.postsGetAll)
			posts.POST("", h.authMiddleware, h.postsCreate)
		}

		profiles := v1.Group("/profiles")
		{
			profiles.GET("/:username", h.profilesGetByUsername)
		}
	}

	r.GET("/", h.notRequiredAuthMiddleware, h.homePage)
	r.GET("/:slug", h.profilePage)

	return r
}

// getUserIDFromRequest returns the caller id set by one of the auth middlewares,
// or an empty string for anonymous requests.
func (h *Handler) getUserIDFromRequest(c *gin.Context) string {
	return c.GetString(userIDKey)
}
