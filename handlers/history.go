package handlers

import (
	"net/http"

	"econudge-dashboard/models"
	"econudge-dashboard/services"

	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	generator *services.HistoryGenerator
}

func NewHistoryHandler(generator *services.HistoryGenerator) *HistoryHandler {
	return &HistoryHandler{generator: generator}
}

func (h *HistoryHandler) GetHistory(c *gin.Context) {
	c.JSON(http.StatusOK, h.generator.Generate())
}

func GetControls(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"controls":      models.Controls,
		"threshold_kva": services.Threshold,
	})
}
