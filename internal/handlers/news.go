package handlers

import (
	"net/http"
	"verdant/internal/db"
	"verdant/internal/models"
	"verdant/internal/services"

	"github.com/gin-gonic/gin"
)

type NewsHandler struct{}

func NewNewsHandler() *NewsHandler {
	return &NewsHandler{}
}

// Sources 新闻源列表 GET /news/sources
func (h *NewsHandler) Sources(c *gin.Context) {
	var sources []models.NewsSource
	db.DB.Order("id").Find(&sources)
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

// Refresh 手动触发一轮采集 POST /news/refresh。
// 采集在后台跑，接口立即返回。
func (h *NewsHandler) Refresh(c *gin.Context) {
	go services.GetNewsService().IngestAll()
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}
