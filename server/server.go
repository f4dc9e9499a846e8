// Package server exposes channel resolution and clip detection over HTTP.
package server

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clipscout/storage"
	"clipscout/youtube"
)

// Server wires the resolution and detection components behind a Fiber app.
// Handlers stay thin; every decision lives in the youtube and storage
// packages.
type Server struct {
	store    *storage.Store
	resolver *youtube.Resolver
	detector *youtube.Detector
	finder   *youtube.BroadcastFinder
	uploads  *youtube.UploadFilter
	log      zerolog.Logger
}

// New creates a server over the given collaborators.
func New(
	store *storage.Store,
	resolver *youtube.Resolver,
	detector *youtube.Detector,
	finder *youtube.BroadcastFinder,
	uploads *youtube.UploadFilter,
	log zerolog.Logger,
) *Server {
	return &Server{
		store:    store,
		resolver: resolver,
		detector: detector,
		finder:   finder,
		uploads:  uploads,
		log:      log.With().Str("component", "server").Logger(),
	}
}

// App builds the Fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "clipscout",
		ServerHeader: "clipscout",
	})

	app.Use(s.requestLogger)

	app.Get("/health/live", s.healthLive)
	app.Get("/health/ready", s.healthReady)

	api := app.Group("/api")
	api.Post("/artists/preview", s.previewArtist)
	api.Post("/artists", s.createArtist)
	api.Get("/artists", s.listArtists)
	api.Get("/artists/:id/live", s.artistLive)
	api.Get("/artists/:id/uploads", s.artistUploads)

	api.Post("/videos", s.registerVideo)
	api.Get("/videos/:videoId", s.getVideo)
	api.Post("/videos/clip-suggestions", s.clipSuggestions)
	api.Post("/videos/resolve-channel", s.resolveChannel)

	api.Post("/clips", s.createClip)
	api.Get("/clips", s.listClips)
	api.Delete("/clips/:id", s.deleteClip)
	api.Post("/clips/auto-detect", s.autoDetect)

	return app
}

// requestLogger attaches a request ID and logs each request on the way
// out.
func (s *Server) requestLogger(c fiber.Ctx) error {
	requestID := uuid.NewString()
	c.Set("X-Request-Id", requestID)

	start := time.Now()
	err := c.Next()

	s.log.Info().
		Str("request_id", requestID).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("request")
	return err
}

func (s *Server) healthLive(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) healthReady(c fiber.Ctx) error {
	if err := s.store.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "degraded",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// errorResponse returns a standard API error payload.
func errorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}
