// handlers_templates.go - Read access to auto-saved templates
package api

import (
	"errors"
	"net/http"

	"github.com/dild26/caffeine-projects-sub001/internal/storage"
	"github.com/labstack/echo/v4"
)

// TemplateHandlerImpl implements the TemplateHandler interface
type TemplateHandlerImpl struct {
	templates TemplateReader
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templates TemplateReader) TemplateHandler {
	return &TemplateHandlerImpl{templates: templates}
}

// HandleGetTemplate returns one template by id. The id is the stable record
// id derived from the source file's content digest.
func (h *TemplateHandlerImpl) HandleGetTemplate(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}
	if h.templates == nil {
		return NewServiceUnavailableError("record store unavailable")
	}

	tmpl, err := h.templates.Template(c.Request().Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError("template", id)
	}
	if err != nil {
		return NewInternalError("failed to read template", err)
	}
	return respond(c, http.StatusOK, tmpl)
}
