package api

import (
	"net/http"
	"time"

	"knowledge_hub/internal/api/handler"
	"knowledge_hub/internal/api/middleware"
	"knowledge_hub/internal/common"
	"knowledge_hub/internal/common/security"
	"knowledge_hub/internal/platform/config"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
)

type RouterDependencies struct {
	AuthHandler     *handler.AuthHandler
	UserHandler     *handler.UserHandler
	TagHandler      *handler.TagHandler
	ResourceHandler *handler.ResourceHandler
	Logger          *zap.Logger
}

func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.AppConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Parses and validates the token when present; enforcement happens
	// in middleware.Authenticator on the protected route groups.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/users", func(users chi.Router) {
		deps.AuthHandler.RegisterRoutes(users)
		deps.UserHandler.RegisterRoutes(users)
	})

	r.Route("/tags", func(tags chi.Router) {
		deps.TagHandler.RegisterRoutes(tags)
	})

	r.Route("/resources", func(resources chi.Router) {
		deps.ResourceHandler.RegisterRoutes(resources)
	})

	return r
}
