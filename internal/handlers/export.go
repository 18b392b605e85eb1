package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/moviepick/internal/services"
)

type ExportHandler struct {
	export services.ExportServiceInterface
	logger *logrus.Logger
}

func NewExportHandler(export services.ExportServiceInterface, logger *logrus.Logger) *ExportHandler {
	return &ExportHandler{
		export: export,
		logger: logger,
	}
}

// Save handles POST /recommendations/:userId/export
func (h *ExportHandler) Save(c *gin.Context) {
	resp, err := h.export.SaveForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Download handles GET /recommendations/:userId/download
func (h *ExportHandler) Download(c *gin.Context) {
	filename, data, err := h.export.CSVForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
