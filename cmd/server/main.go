package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/photo-share/internal/config"
	"github.com/iliyamo/photo-share/internal/database"
	"github.com/iliyamo/photo-share/internal/handler"
	"github.com/iliyamo/photo-share/internal/imagehost"
	"github.com/iliyamo/photo-share/internal/middleware"
	"github.com/iliyamo/photo-share/internal/qr"
	"github.com/iliyamo/photo-share/internal/queue"
	"github.com/iliyamo/photo-share/internal/repository"
	"github.com/iliyamo/photo-share/internal/router"
)

func main() {
	// Missing .env is fine in environments that export variables directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	photos := repository.NewPhotoRepo(db)
	tags := repository.NewTagRepo(db)
	comments := repository.NewCommentRepo(db)

	assets := imagehost.New(cfg.CloudName, cfg.CloudKey, cfg.CloudSecret, cfg.CloudFolder)
	qrGen := qr.NewGenerator(cfg.StaticDir)

	// Redis is optional: with no client the cache and rate limiter become
	// pass-through middleware.
	rdb := config.NewRedisClient()
	var cache, rateLimit echo.MiddlewareFunc
	if rdb != nil {
		cache = middleware.ResponseCache(config.LoadCacheConfig(), rdb)
		rateLimit = middleware.RateLimit(config.LoadRateLimitConfig(), rdb)
	}

	go func() {
		if err := queue.StartPhotoConsumer(); err != nil {
			log.Printf("photo consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Static("/static", cfg.StaticDir)

	authH := handler.NewAuthHandler(cfg, users)
	photoH := handler.NewPhotoHandler(photos, tags, comments, users, assets, qrGen)
	commentH := handler.NewCommentHandler(comments, photos)
	userH := handler.NewUserHandler(cfg, users, photos)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, rateLimit)
	router.RegisterPhotos(e, photoH, cfg.JWTSecret, cache)
	router.RegisterComments(e, commentH, cfg.JWTSecret, cache)
	router.RegisterUsers(e, userH, cfg.JWTSecret, cache)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
