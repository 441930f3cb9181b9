package main

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/apikit/apikit/internal/dto"
	"github.com/apikit/apikit/internal/middleware"
	apperrors "github.com/apikit/apikit/internal/pkg/errors"
)

// createNoteRequest is the body of POST /notes
type createNoteRequest struct {
	Title string   `json:"title" validate:"required,max=80"`
	Body  string   `json:"body" validate:"required"`
	Tags  []string `json:"tags" validate:"max=5,dive,min=1"`
}

// registerRoutes mounts the example API. Every failure is returned, never
// written, so the exception registrar decides status and body.
func registerRoutes(r fiber.Router) {
	var mu sync.RWMutex
	notes := map[string]createNoteRequest{}

	r.Post("/notes", func(c *fiber.Ctx) error {
		var req createNoteRequest
		if err := dto.ParseAndValidate(c, &req); err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		if _, exists := notes[req.Title]; exists {
			return apperrors.HTTP(fiber.StatusConflict, "note already exists")
		}
		notes[req.Title] = req
		return c.Status(fiber.StatusCreated).JSON(req)
	})

	r.Get("/notes/:title", func(c *fiber.Ctx) error {
		mu.RLock()
		note, ok := notes[c.Params("title")]
		mu.RUnlock()
		if !ok {
			return apperrors.HTTP(fiber.StatusNotFound, "note not found")
		}
		return c.JSON(note)
	})

	r.Get("/private", middleware.RequireBearer(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"token_length": len(middleware.GetBearerToken(c))})
	})

	r.Get("/partner", middleware.RequireHeader("X-Api-Key"), func(c *fiber.Ctx) error {
		return c.SendString("partner ok")
	})

	r.Get("/slow", middleware.Timeout(100*time.Millisecond), func(c *fiber.Ctx) error {
		select {
		case <-time.After(time.Second):
			return c.SendString("done")
		case <-c.UserContext().Done():
			return c.UserContext().Err()
		}
	})

	r.Get("/crash", func(c *fiber.Ctx) error {
		panic("example panic")
	})
}
