package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/vescom/vescom-api/internal/classifier"
	"github.com/vescom/vescom-api/internal/config"
	"github.com/vescom/vescom-api/internal/database"
	"github.com/vescom/vescom-api/internal/handler"
	"github.com/vescom/vescom-api/internal/obs"
	"github.com/vescom/vescom-api/internal/queue"
	"github.com/vescom/vescom-api/internal/recognizer"
	"github.com/vescom/vescom-api/internal/report"
	"github.com/vescom/vescom-api/internal/repository"
	"github.com/vescom/vescom-api/internal/router"
	queue_publisher "github.com/vescom/vescom-api/internal/service"
	"github.com/vescom/vescom-api/internal/session"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	obs.Init()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, event cache disabled")
	}

	// Repositories over the shared pool.
	events := repository.NewEventRepo(db)
	personas := repository.NewPersonaRepo(db)
	cameras := repository.NewCameraRepo(db)
	admins := repository.NewAdminRepo(db)

	rec := recognizer.NewHTTP(cfg.RecognizerURL)
	cls := classifier.NewService(rec, events, personas, queue_publisher.Publisher{}, cfg.CaptureDir)

	h := router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, admins),
		Personas:    handler.NewPersonaHandler(personas, rec, cfg.FaceDir),
		Cameras:     handler.NewCameraHandler(cameras),
		Recognition: handler.NewRecognitionHandler(cls, events, report.NewGenerator(events), session.NewSubmitGuard()),
	}

	// Background consumer writing intrusion alerts to logs/alerts.log.
	go func() {
		if err := queue.StartAlertConsumer(); err != nil {
			log.Printf("alert consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e, cfg, h, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
