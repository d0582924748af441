package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/halitm/tenant-notes/internal/auth"
	"github.com/halitm/tenant-notes/internal/config"
	"github.com/halitm/tenant-notes/internal/database"
	"github.com/halitm/tenant-notes/internal/handler"
	"github.com/halitm/tenant-notes/internal/queue"
	"github.com/halitm/tenant-notes/internal/repository"
	"github.com/halitm/tenant-notes/internal/router"
	"github.com/halitm/tenant-notes/internal/service/audit"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.JWTSecret == config.FallbackJWTSecret {
		log.Printf("WARNING: JWT_SECRET not set, using built-in fallback; tokens are forgeable")
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: login rate limiting and logout revocation disabled")
	}
	deny := auth.NewDenylist(rdb)

	users := repository.NewUserRepo(db)
	tenants := repository.NewTenantRepo(db)
	notes := repository.NewNoteRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users, deny)
	noteHandler := handler.NewNoteHandler(notes, audit.Publisher{})
	tenantHandler := handler.NewTenantHandler(tenants, audit.Publisher{})

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, rdb, deny, authHandler, noteHandler, tenantHandler)

	// Audit consumer runs for the life of the process and reconnects on
	// broker failures.
	go queue.StartAuditConsumer()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
