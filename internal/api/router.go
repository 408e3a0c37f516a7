package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/turmalabs/presenca/internal/api/handler"
	"github.com/turmalabs/presenca/internal/api/middleware"
	"github.com/turmalabs/presenca/internal/fetch"
	"github.com/turmalabs/presenca/internal/recognition"
	"github.com/turmalabs/presenca/internal/registry"
)

type Dependencies struct {
	Recognizer *recognition.Service
	Store      registry.Store
	Downloader *fetch.Client
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Presenca API",
		BodyLimit:    12 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check endpoints
	healthHandler := handler.NewHealthHandler()
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	faceHandler := handler.NewFaceHandler(r.deps.Recognizer, r.deps.Downloader, r.deps.Store, r.logger)

	v1 := r.app.Group("/v1")
	v1.Post("/faces/encode", faceHandler.Encode)
	v1.Post("/faces/recognize", faceHandler.Recognize)
	v1.Post("/identities", faceHandler.Enroll)
	v1.Delete("/identities/:external_id", faceHandler.DeleteIdentity)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
