package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"knowledge_hub/internal/api"
	"knowledge_hub/internal/api/handler"
	"knowledge_hub/internal/app/service"
	"knowledge_hub/internal/common/security"
	"knowledge_hub/internal/domain/repository"
	"knowledge_hub/internal/platform/cache"
	"knowledge_hub/internal/platform/config"
	"knowledge_hub/internal/platform/database"
	"knowledge_hub/internal/platform/logger"

	"go.uber.org/zap"
)

func main() {
	config.Load()

	log := logger.New(os.Getenv("APP_ENV") != "production")
	defer log.Sync()

	security.InitJWT()

	database.Connect()
	defer database.Close()

	if err := database.Migrate(config.AppConfig.MigrationsFile); err != nil {
		log.Fatal("failed to apply schema", zap.Error(err))
	}

	cache.ConnectRedis()
	defer cache.CloseRedis()

	userRepo := repository.NewPgUserRepository(database.DB)
	tagRepo := repository.NewPgTagRepository(database.DB)
	resourceRepo := repository.NewPgResourceRepository(database.DB)

	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)
	tagService := service.NewTagService(tagRepo, cache.RDB, log)
	resourceService := service.NewResourceService(resourceRepo, userRepo, tagService, database.DB, log)

	router := api.NewRouter(api.RouterDependencies{
		AuthHandler:     handler.NewAuthHandler(authService),
		UserHandler:     handler.NewUserHandler(userService),
		TagHandler:      handler.NewTagHandler(tagService),
		ResourceHandler: handler.NewResourceHandler(resourceService),
		Logger:          log,
	})

	srv := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", config.AppConfig.APIPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
