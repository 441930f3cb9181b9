package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/apikit/apikit/internal/exception"
)

// DocsHandler serves the catalogue of error responses
type DocsHandler struct {
	responses map[int]exception.DocResponse
}

// NewDocsHandler creates a docs handler for reg, or for the default
// registry when reg is nil
func NewDocsHandler(reg *exception.Registry) *DocsHandler {
	responses := exception.ResponsesForDocs()
	if reg != nil {
		responses = reg.ResponsesForDocs()
	}
	return &DocsHandler{responses: responses}
}

// RegisterRoutes registers documentation routes under prefix
func (h *DocsHandler) RegisterRoutes(router fiber.Router, prefix string) {
	router.Get(prefix+"/docs/errors", h.ServeErrors)
	router.Get(prefix+"/docs/errors/:status", h.ServeError)
}

// ServeErrors serves every documented error response keyed by status code
func (h *DocsHandler) ServeErrors(c *fiber.Ctx) error {
	return c.JSON(h.responses)
}

// ServeError serves the documented response for one status code
func (h *DocsHandler) ServeError(c *fiber.Ctx) error {
	status, err := strconv.Atoi(c.Params("status"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "status must be an integer")
	}
	doc, ok := h.responses[status]
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "no error documented for status "+c.Params("status"))
	}
	return c.JSON(doc)
}
